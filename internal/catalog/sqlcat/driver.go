// Package sqlcat provides a PostgreSQL-backed implementation of
// catalog.Catalog.
//
// Namespaces and tables are rows; table metadata is a jsonb column. The
// check-then-act race on table creation is settled by the primary key:
// INSERT … ON CONFLICT DO NOTHING makes the first creator win atomically,
// and losers surface ErrKindAlreadyExists for the provisioner to reconcile.
package sqlcat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/koustreak/IceFlow/internal/catalog"
	"github.com/koustreak/IceFlow/internal/catalog/metadata"
	"github.com/koustreak/IceFlow/internal/columnar"
	"github.com/koustreak/IceFlow/internal/datafile"
	"github.com/koustreak/IceFlow/internal/errs"
	"github.com/koustreak/IceFlow/internal/filestore"
)

// Config holds the settings for a Postgres-backed catalog.
type Config struct {
	// Name is the catalog name used in table identities.
	Name string

	// DSN is the Postgres connection string.
	DSN string

	// Warehouse is the object-store bucket holding table data.
	Warehouse string

	// Pool tuning. Zero values use defaults.
	MaxConns int32
	MinConns int32
}

// Driver is a PostgreSQL implementation of catalog.Catalog backed by
// pgxpool. It is safe for concurrent use by multiple goroutines.
type Driver struct {
	cfg   Config
	pool  *pgxpool.Pool
	store filestore.Store
}

// New connects to Postgres, validates the connection, and ensures the
// catalog tables exist.
func New(ctx context.Context, cfg Config, store filestore.Store) (*Driver, error) {
	pool, err := buildPool(ctx, cfg)
	if err != nil {
		return nil, err
	}

	d := &Driver{cfg: cfg, pool: pool, store: store}

	if err := d.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	if err := d.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return d, nil
}

// --- catalog.Catalog implementation ---

// Ping verifies the database is reachable.
func (d *Driver) Ping(ctx context.Context) error {
	if err := d.pool.Ping(ctx); err != nil {
		return mapError(err, "ping failed")
	}
	return nil
}

// Close drains the connection pool.
func (d *Driver) Close() error {
	d.pool.Close()
	return nil
}

// CreateNamespace creates a namespace row. A namespace already present
// surfaces as ErrKindAlreadyExists.
func (d *Driver) CreateNamespace(ctx context.Context, namespace string) error {
	const q = `
		INSERT INTO catalog_namespaces (catalog_name, namespace)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`

	tag, err := d.pool.Exec(ctx, q, d.cfg.Name, namespace)
	if err != nil {
		return mapError(err, fmt.Sprintf("failed to create namespace %q", namespace))
	}
	if tag.RowsAffected() == 0 {
		return errs.New(errs.ErrKindAlreadyExists, fmt.Sprintf("namespace %q already exists", namespace))
	}
	return nil
}

// LoadTable loads an existing table row. An absent table surfaces as
// ErrKindNotFound.
func (d *Driver) LoadTable(ctx context.Context, id catalog.TableIdentity) (catalog.Table, error) {
	const q = `
		SELECT location
		FROM catalog_tables
		WHERE catalog_name = $1 AND namespace = $2 AND table_name = $3`

	var location string
	err := d.pool.QueryRow(ctx, q, id.Catalog, id.Namespace, id.Table).Scan(&location)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.Wrap(errs.ErrKindNotFound, fmt.Sprintf("table %s does not exist", id), err)
		}
		return nil, mapError(err, fmt.Sprintf("failed to load table %s", id))
	}

	return &table{d: d, id: id, location: location}, nil
}

// CreateTable inserts a new table row with its metadata envelope. Losing
// the create race surfaces as ErrKindAlreadyExists.
func (d *Driver) CreateTable(ctx context.Context, id catalog.TableIdentity, schema *columnar.Schema) (catalog.Table, error) {
	wire, lastColumnID := metadata.FromColumnar(schema)
	location := fmt.Sprintf("s3://%s/%s/%s", d.cfg.Warehouse, id.Namespace, id.Table)

	meta := metadata.TableMetadata{
		FormatVersion:   2,
		TableUUID:       uuid.NewString(),
		Location:        location,
		LastUpdatedMs:   time.Now().UnixMilli(),
		LastColumnID:    lastColumnID,
		CurrentSchemaID: wire.SchemaID,
		Schemas:         []metadata.Schema{wire},
	}
	encoded, err := json.Marshal(meta)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "failed to encode table metadata", err)
	}

	const q = `
		INSERT INTO catalog_tables (catalog_name, namespace, table_name, table_uuid, location, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT DO NOTHING`

	tag, err := d.pool.Exec(ctx, q, id.Catalog, id.Namespace, id.Table, meta.TableUUID, location, encoded)
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("failed to create table %s", id))
	}
	if tag.RowsAffected() == 0 {
		return nil, errs.New(errs.ErrKindAlreadyExists, fmt.Sprintf("table %s already exists", id))
	}

	return &table{d: d, id: id, location: location}, nil
}

// migrate ensures the catalog's own tables exist. Statements are
// idempotent; concurrent first runs are harmless.
func (d *Driver) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS catalog_namespaces (
			catalog_name text        NOT NULL,
			namespace    text        NOT NULL,
			created_at   timestamptz NOT NULL DEFAULT now(),
			PRIMARY KEY (catalog_name, namespace)
		)`,
		`CREATE TABLE IF NOT EXISTS catalog_tables (
			catalog_name text        NOT NULL,
			namespace    text        NOT NULL,
			table_name   text        NOT NULL,
			table_uuid   uuid        NOT NULL,
			location     text        NOT NULL,
			metadata     jsonb       NOT NULL,
			created_at   timestamptz NOT NULL DEFAULT now(),
			updated_at   timestamptz NOT NULL DEFAULT now(),
			PRIMARY KEY (catalog_name, namespace, table_name)
		)`,
		`CREATE TABLE IF NOT EXISTS catalog_snapshots (
			catalog_name text        NOT NULL,
			namespace    text        NOT NULL,
			table_name   text        NOT NULL,
			snapshot_id  bigint      NOT NULL,
			summary      jsonb       NOT NULL,
			committed_at timestamptz NOT NULL DEFAULT now(),
			PRIMARY KEY (catalog_name, namespace, table_name, snapshot_id)
		)`,
	}

	for _, stmt := range stmts {
		if _, err := d.pool.Exec(ctx, stmt); err != nil {
			return mapError(err, "failed to migrate catalog tables")
		}
	}
	return nil
}

// --- table handle ---

type table struct {
	d        *Driver
	id       catalog.TableIdentity
	location string
}

func (t *table) Identity() catalog.TableIdentity { return t.id }
func (t *table) Location() string                { return t.location }

// Append uploads the batch as a Parquet data file, then records the
// snapshot and bumps the table row in one transaction.
func (t *table) Append(ctx context.Context, batch arrow.Record) error {
	data, err := datafile.EncodeParquet(batch)
	if err != nil {
		return err
	}

	key := fmt.Sprintf("%s/%s/data/%s.parquet", t.id.Namespace, t.id.Table, uuid.NewString())
	if err := t.d.store.PutObject(ctx, t.d.cfg.Warehouse, key, data, datafile.ContentType); err != nil {
		return err
	}

	summary, err := json.Marshal(map[string]string{
		"operation":        "append",
		"added-data-files": "1",
		"added-records":    fmt.Sprint(batch.NumRows()),
		"data-file":        fmt.Sprintf("s3://%s/%s", t.d.cfg.Warehouse, key),
	})
	if err != nil {
		return errs.Wrap(errs.ErrKindInvalidInput, "failed to encode snapshot summary", err)
	}

	tx, err := t.d.pool.Begin(ctx)
	if err != nil {
		return mapError(err, "failed to begin append transaction")
	}
	defer tx.Rollback(ctx)

	const insertSnapshot = `
		INSERT INTO catalog_snapshots (catalog_name, namespace, table_name, snapshot_id, summary)
		VALUES ($1, $2, $3, $4, $5)`
	if _, err := tx.Exec(ctx, insertSnapshot,
		t.id.Catalog, t.id.Namespace, t.id.Table, datafile.NewSnapshotID(), summary); err != nil {
		return mapError(err, fmt.Sprintf("failed to record snapshot for %s", t.id))
	}

	const touchTable = `
		UPDATE catalog_tables
		SET updated_at = now()
		WHERE catalog_name = $1 AND namespace = $2 AND table_name = $3`
	if _, err := tx.Exec(ctx, touchTable, t.id.Catalog, t.id.Namespace, t.id.Table); err != nil {
		return mapError(err, fmt.Sprintf("failed to touch table %s", t.id))
	}

	if err := tx.Commit(ctx); err != nil {
		return mapError(err, fmt.Sprintf("failed to commit append to %s", t.id))
	}
	return nil
}
