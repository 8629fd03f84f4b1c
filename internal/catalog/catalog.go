// Package catalog defines the unified interface for table catalog backends.
//
// All backends (REST catalog, Postgres-backed catalog, …) implement the
// Catalog interface. Callers depend only on this package — never on a
// specific backend package.
//
// Usage:
//
//	cat, err := rest.New(ctx, cfg, store)
//	if err != nil { ... }
//	defer cat.Close()
//
//	prov := catalog.NewProvisioner(cat, log)
//	tbl, err := prov.EnsureTable(ctx, id, supplier)
package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/koustreak/IceFlow/internal/columnar"
	"github.com/koustreak/IceFlow/internal/errs"
)

// TableIdentity names one destination table. It is derived one-to-one from
// the record stream name and the configured namespace, and is stable for
// the lifetime of the stream.
type TableIdentity struct {
	Catalog   string
	Namespace string
	Table     string
}

func (id TableIdentity) String() string {
	return fmt.Sprintf("%s.%s.%s", id.Catalog, id.Namespace, id.Table)
}

// Validate rejects identities the catalog would refuse. A malformed
// identity is a fatal error, not a provisioning state.
func (id TableIdentity) Validate() error {
	for _, part := range []struct{ name, val string }{
		{"catalog", id.Catalog},
		{"namespace", id.Namespace},
		{"table", id.Table},
	} {
		if part.val == "" {
			return errs.New(errs.ErrKindInvalidInput, "table identity has empty "+part.name)
		}
		if strings.ContainsAny(part.val, ". /") {
			return errs.New(errs.ErrKindInvalidInput,
				fmt.Sprintf("table identity %s %q contains a reserved character", part.name, part.val))
		}
	}
	return nil
}

// Catalog is the contract every catalog backend implements. Backends map
// their native errors to *errs.Error kinds; the provisioner branches on
// errs.IsNotFound and errs.IsAlreadyExists and propagates everything else
// unmodified.
type Catalog interface {
	// Ping verifies the catalog is reachable.
	Ping(ctx context.Context) error

	// Close releases any held resources.
	Close() error

	// CreateNamespace creates a namespace. Returns ErrKindAlreadyExists
	// when the namespace is already present.
	CreateNamespace(ctx context.Context, namespace string) error

	// LoadTable loads an existing table by identity. Returns
	// ErrKindNotFound when the table is absent.
	LoadTable(ctx context.Context, id TableIdentity) (Table, error)

	// CreateTable creates a new table with the given schema. Returns
	// ErrKindAlreadyExists when a concurrent creator won the race.
	CreateTable(ctx context.Context, id TableIdentity, schema *columnar.Schema) (Table, error)
}

// Table is a handle to a provisioned table. Its schema is whatever the
// catalog holds — an existing table's schema is authoritative and is never
// reconciled against the current stream schema.
type Table interface {
	// Identity returns the table's identity.
	Identity() TableIdentity

	// Location returns the table's warehouse location (object-store URI).
	Location() string

	// Append writes one columnar record batch to the table. Record order
	// within the batch is preserved.
	Append(ctx context.Context, batch arrow.Record) error
}
