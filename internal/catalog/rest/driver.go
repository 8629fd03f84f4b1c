// Package rest provides an HTTP catalog-server implementation of
// catalog.Catalog.
//
// The driver speaks the catalog's REST dialect: namespaces and tables are
// resources under /v1, creates are POSTs, and an append is a data-file
// upload to the warehouse followed by a snapshot commit against the table
// resource. No retries happen here — racing creates surface as
// ErrKindAlreadyExists and the provisioner reconciles.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/google/uuid"
	"github.com/koustreak/IceFlow/internal/catalog"
	"github.com/koustreak/IceFlow/internal/catalog/metadata"
	"github.com/koustreak/IceFlow/internal/columnar"
	"github.com/koustreak/IceFlow/internal/datafile"
	"github.com/koustreak/IceFlow/internal/errs"
	"github.com/koustreak/IceFlow/internal/filestore"
)

// Config holds the settings to reach a REST catalog server.
type Config struct {
	// Name is the catalog name used in table identities.
	Name string

	// Endpoint is the base URI of the catalog server, e.g.
	// "http://localhost:8181".
	Endpoint string

	// Token is an optional bearer token sent with every request.
	Token string

	// Warehouse is the object-store bucket holding table data.
	Warehouse string
}

// Driver is a REST implementation of catalog.Catalog.
// It is safe for concurrent use by multiple goroutines.
type Driver struct {
	cfg    Config
	client *http.Client
	store  filestore.Store
}

// New returns a Driver talking to the server in cfg, uploading data files
// through store. It calls Ping to validate the connection before returning.
func New(ctx context.Context, cfg Config, store filestore.Store) (*Driver, error) {
	if cfg.Endpoint == "" {
		return nil, errs.New(errs.ErrKindInvalidInput, "catalog endpoint is required")
	}

	d := &Driver{
		cfg:    cfg,
		client: &http.Client{},
		store:  store,
	}

	if err := d.Ping(ctx); err != nil {
		return nil, err
	}
	return d, nil
}

// --- catalog.Catalog implementation ---

// Ping verifies the catalog server answers its config endpoint.
func (d *Driver) Ping(ctx context.Context) error {
	return d.do(ctx, http.MethodGet, "/v1/config", nil, nil, "ping failed")
}

// Close is a no-op — the HTTP client holds no persistent state.
func (d *Driver) Close() error {
	return nil
}

// CreateNamespace creates a namespace. A namespace that is already present
// surfaces as ErrKindAlreadyExists.
func (d *Driver) CreateNamespace(ctx context.Context, namespace string) error {
	body := map[string]any{"namespace": []string{namespace}}
	return d.do(ctx, http.MethodPost, "/v1/namespaces", body, nil,
		fmt.Sprintf("failed to create namespace %q", namespace))
}

// LoadTable loads an existing table. An absent table surfaces as
// ErrKindNotFound.
func (d *Driver) LoadTable(ctx context.Context, id catalog.TableIdentity) (catalog.Table, error) {
	var result loadTableResult
	path := fmt.Sprintf("/v1/namespaces/%s/tables/%s", id.Namespace, id.Table)
	if err := d.do(ctx, http.MethodGet, path, nil, &result,
		fmt.Sprintf("failed to load table %s", id)); err != nil {
		return nil, err
	}

	return &table{d: d, id: id, location: result.Metadata.Location}, nil
}

// CreateTable creates a new table with the given schema. When a concurrent
// creator won the race the server answers conflict, surfacing as
// ErrKindAlreadyExists.
func (d *Driver) CreateTable(ctx context.Context, id catalog.TableIdentity, schema *columnar.Schema) (catalog.Table, error) {
	wire, lastColumnID := metadata.FromColumnar(schema)
	location := fmt.Sprintf("s3://%s/%s/%s", d.cfg.Warehouse, id.Namespace, id.Table)

	req := createTableRequest{
		Name:     id.Table,
		Location: location,
		Schema:   wire,
		Properties: map[string]string{
			"write.metadata.last-column-id": fmt.Sprint(lastColumnID),
		},
	}

	var result loadTableResult
	path := fmt.Sprintf("/v1/namespaces/%s/tables", id.Namespace)
	if err := d.do(ctx, http.MethodPost, path, req, &result,
		fmt.Sprintf("failed to create table %s", id)); err != nil {
		return nil, err
	}

	loc := result.Metadata.Location
	if loc == "" {
		loc = location
	}
	return &table{d: d, id: id, location: loc}, nil
}

// --- table handle ---

type table struct {
	d        *Driver
	id       catalog.TableIdentity
	location string
}

func (t *table) Identity() catalog.TableIdentity { return t.id }
func (t *table) Location() string                { return t.location }

// Append uploads the batch as a Parquet data file and commits a snapshot
// referencing it. Any failure is fatal and propagated unmodified.
func (t *table) Append(ctx context.Context, batch arrow.Record) error {
	data, err := datafile.EncodeParquet(batch)
	if err != nil {
		return err
	}

	key := datafile.Key(t.objectPrefix())
	if err := t.d.store.PutObject(ctx, t.d.cfg.Warehouse, key, data, datafile.ContentType); err != nil {
		return err
	}

	snapshot := metadata.Snapshot{
		SnapshotID:  datafile.NewSnapshotID(),
		TimestampMs: time.Now().UnixMilli(),
		Summary: map[string]string{
			"operation":        "append",
			"added-data-files": "1",
			"added-records":    fmt.Sprint(batch.NumRows()),
			"data-file":        fmt.Sprintf("s3://%s/%s", t.d.cfg.Warehouse, key),
		},
	}

	commit := commitTableRequest{
		Requirements: []any{},
		Updates: []commitUpdate{
			{Action: "add-snapshot", Snapshot: &snapshot},
			{Action: "set-snapshot-ref", RefName: "main", SnapshotID: snapshot.SnapshotID, Type: "branch"},
		},
	}

	path := fmt.Sprintf("/v1/namespaces/%s/tables/%s", t.id.Namespace, t.id.Table)
	return t.d.do(ctx, http.MethodPost, path, commit, nil,
		fmt.Sprintf("failed to commit append to %s", t.id))
}

// objectPrefix strips the scheme and bucket from the table location,
// leaving the key prefix inside the warehouse bucket.
func (t *table) objectPrefix() string {
	loc := t.location
	if i := strings.Index(loc, "://"); i >= 0 {
		loc = loc[i+3:]
	}
	if rest, ok := strings.CutPrefix(loc, t.d.cfg.Warehouse+"/"); ok {
		return rest
	}
	return fmt.Sprintf("%s/%s", t.id.Namespace, t.id.Table)
}

// --- wire types ---

type loadTableResult struct {
	MetadataLocation string                 `json:"metadata-location"`
	Metadata         metadata.TableMetadata `json:"metadata"`
}

type createTableRequest struct {
	Name       string            `json:"name"`
	Location   string            `json:"location,omitempty"`
	Schema     metadata.Schema   `json:"schema"`
	Properties map[string]string `json:"properties,omitempty"`
}

type commitTableRequest struct {
	Requirements []any          `json:"requirements"`
	Updates      []commitUpdate `json:"updates"`
}

type commitUpdate struct {
	Action     string             `json:"action"`
	Snapshot   *metadata.Snapshot `json:"snapshot,omitempty"`
	RefName    string             `json:"ref-name,omitempty"`
	SnapshotID int64              `json:"snapshot-id,omitempty"`
	Type       string             `json:"type,omitempty"`
}

// --- request plumbing ---

// do executes one request against the catalog server, decoding a JSON
// response into out when out is non-nil.
func (d *Driver) do(ctx context.Context, method, path string, body, out any, msg string) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return errs.Wrap(errs.ErrKindInvalidInput, msg, err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(d.cfg.Endpoint, "/")+path, reader)
	if err != nil {
		return errs.Wrap(errs.ErrKindInvalidInput, msg, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Client-Version", "0.1")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if d.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+d.cfg.Token)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return mapTransportError(err, msg)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return mapStatusError(resp, msg)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return errs.Wrap(errs.ErrKindConnectionFailed, msg+": malformed response", err)
		}
	}
	return nil
}
