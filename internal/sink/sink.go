// Package sink turns buffered record batches into table appends.
//
// One Sink serves one record stream. The host collaborator owns message
// framing and batch sizing; the Sink owns schema narrowing, table
// provisioning, and the columnar append. Batches are processed strictly
// sequentially by one logical worker — the only concurrency this package
// has to survive is independent writers racing on table creation, which
// the provisioner reconciles.
package sink

import (
	"context"
	"fmt"
	"sync"

	"github.com/koustreak/IceFlow/internal/catalog"
	"github.com/koustreak/IceFlow/internal/columnar"
	"github.com/koustreak/IceFlow/internal/errs"
	"github.com/koustreak/IceFlow/internal/jsonschema"
	"github.com/koustreak/IceFlow/internal/logger"
)

// DefaultMaxBatchSize is the upper bound on records per processed batch.
// Sizing is the host's responsibility; the sink only asserts the bound.
const DefaultMaxBatchSize = 10000

// droppedFields is the protocol-metadata column set excluded from the
// translated schema. Records keep these keys — they are simply never
// selected into the columnar batch.
var droppedFields = map[string]bool{
	"_sdc_deleted_at":      true,
	"_sdc_table_version":   true,
	"_sdc_extracted_at":    true,
	"_sdc_received_at":     true,
	"_sdc_batched_at":      true,
	"_sdc_sequence":        true,
	"_sdc_sync_started_at": true,
}

// Config constructs one stream's Sink.
type Config struct {
	// StreamName names the record stream; it becomes the table name.
	StreamName string

	// CatalogName and Namespace locate the destination table.
	CatalogName string
	Namespace   string

	// Schema is the stream's object declaration ({"properties": …}),
	// delivered once before any records.
	Schema *jsonschema.Node

	// MaxBatchSize caps records per batch. Zero means DefaultMaxBatchSize.
	MaxBatchSize int
}

// Sink persists one stream's batches into its destination table.
type Sink struct {
	cfg  Config
	prov *catalog.Provisioner
	log  *logger.Logger

	once   sync.Once
	schema *columnar.Schema // derived once per run, then immutable
}

// New returns a Sink writing to cat. The stream schema is not translated
// here — translation is deferred until the first batch needs it.
func New(cfg Config, cat catalog.Catalog, log *logger.Logger) (*Sink, error) {
	if cfg.StreamName == "" {
		return nil, errs.New(errs.ErrKindInvalidInput, "stream name is required")
	}
	if cfg.Schema == nil {
		return nil, errs.New(errs.ErrKindInvalidInput,
			fmt.Sprintf("stream %q arrived without a schema", cfg.StreamName))
	}
	if cfg.MaxBatchSize == 0 {
		cfg.MaxBatchSize = DefaultMaxBatchSize
	}
	if log == nil {
		log = logger.New(nil)
	}

	return &Sink{
		cfg:  cfg,
		prov: catalog.NewProvisioner(cat, log),
		log:  log.With().Str("stream", cfg.StreamName).Logger(),
	}, nil
}

// Identity returns the destination table identity, stable for the life of
// the stream.
func (s *Sink) Identity() catalog.TableIdentity {
	return catalog.TableIdentity{
		Catalog:   s.cfg.CatalogName,
		Namespace: s.cfg.Namespace,
		Table:     s.cfg.StreamName,
	}
}

// MaxBatchSize returns the batch bound the host must honor.
func (s *Sink) MaxBatchSize() int {
	return s.cfg.MaxBatchSize
}

// ProcessBatch appends one buffered batch to the destination table,
// provisioning namespace and table on the way. Record order is preserved.
// Every error returned here is fatal for the batch; the host decides
// stream-level retry or termination.
func (s *Sink) ProcessBatch(ctx context.Context, records []map[string]any) error {
	if len(records) == 0 {
		return nil
	}
	if len(records) > s.cfg.MaxBatchSize {
		return errs.New(errs.ErrKindInvalidInput,
			fmt.Sprintf("batch of %d records exceeds the %d bound", len(records), s.cfg.MaxBatchSize))
	}

	tbl, err := s.prov.EnsureTable(ctx, s.Identity(), s.columnarSchema)
	if err != nil {
		return err
	}

	batch, err := s.columnarSchema().BuildRecord(records)
	if err != nil {
		return err
	}
	defer batch.Release()

	if err := tbl.Append(ctx, batch); err != nil {
		return err
	}

	s.log.InfoWith("appended batch", map[string]interface{}{
		"table":   tbl.Identity().String(),
		"records": len(records),
	})
	return nil
}

// columnarSchema translates the stream schema exactly once per run, after
// dropping protocol-metadata fields. It doubles as the provisioner's
// schema supplier: the provisioner only calls it on the create path, and
// the batch builder reuses the same result for every batch.
func (s *Sink) columnarSchema() *columnar.Schema {
	s.once.Do(func() {
		kept := make(jsonschema.Properties, 0, len(s.cfg.Schema.Properties))
		for _, prop := range s.cfg.Schema.Properties {
			if droppedFields[prop.Name] {
				continue
			}
			kept = append(kept, prop)
		}
		s.schema = columnar.Translate(kept, s.log)
	})
	return s.schema
}
