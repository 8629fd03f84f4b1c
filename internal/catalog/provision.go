package catalog

import (
	"context"
	"sync"

	"github.com/koustreak/IceFlow/internal/columnar"
	"github.com/koustreak/IceFlow/internal/errs"
	"github.com/koustreak/IceFlow/internal/logger"
)

// SchemaSupplier produces the columnar schema for a table that does not
// exist yet. It is invoked only on the create path — an existing table's
// schema is authoritative and is never re-derived.
type SchemaSupplier func() *columnar.Schema

// Provisioner ensures namespace and table existence against a catalog.
//
// A table has only two durable states, absent and present, and both are
// observed through the catalog on every call — never cached here across
// calls. The check-then-act between load and create is a real race when
// independent writers target the same new table; exactly one create wins
// and every loser reconciles by reloading.
type Provisioner struct {
	cat Catalog
	log *logger.Logger

	mu         sync.Mutex
	namespaces map[string]bool // namespaces already ensured this run
}

// NewProvisioner returns a Provisioner backed by cat.
func NewProvisioner(cat Catalog, log *logger.Logger) *Provisioner {
	if log == nil {
		log = logger.New(nil)
	}
	return &Provisioner{
		cat:        cat,
		log:        log,
		namespaces: make(map[string]bool),
	}
}

// EnsureTable returns a handle to the table named by id, creating it from
// supply() if it does not exist. No retries happen here: every error that
// is not "not found on load" or "already exists on create" is fatal and
// propagated unmodified.
func (p *Provisioner) EnsureTable(ctx context.Context, id TableIdentity, supply SchemaSupplier) (Table, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	if err := p.ensureNamespace(ctx, id.Namespace); err != nil {
		return nil, err
	}

	tbl, err := p.cat.LoadTable(ctx, id)
	if err == nil {
		return tbl, nil
	}
	if !errs.IsNotFound(err) {
		return nil, err
	}

	// Absent: derive the schema and create. The supplier runs exactly here
	// and nowhere else.
	schema := supply()
	p.warnDegenerate(id, schema)

	tbl, err = p.cat.CreateTable(ctx, id, schema)
	if err == nil {
		p.log.InfoWith("created table", map[string]interface{}{
			"table":  id.String(),
			"fields": len(schema.Fields),
		})
		return tbl, nil
	}
	if errs.IsAlreadyExists(err) {
		// Lost the create race to a concurrent provisioner. The winner's
		// table is just as usable — reload it.
		p.log.InfoWith("table created concurrently, reloading", map[string]interface{}{
			"table": id.String(),
		})
		return p.cat.LoadTable(ctx, id)
	}
	return nil, err
}

// ensureNamespace creates the namespace once per run. "Already exists" in
// either direction — reported on create, or created by a concurrent racer —
// is success.
func (p *Provisioner) ensureNamespace(ctx context.Context, namespace string) error {
	p.mu.Lock()
	done := p.namespaces[namespace]
	p.mu.Unlock()
	if done {
		return nil
	}

	err := p.cat.CreateNamespace(ctx, namespace)
	if err != nil && !errs.IsAlreadyExists(err) {
		return err
	}

	p.mu.Lock()
	p.namespaces[namespace] = true
	p.mu.Unlock()
	return nil
}

// warnDegenerate flags types the table format will reject at write time.
// The warning is the only advance notice before the append fails.
func (p *Provisioner) warnDegenerate(id TableIdentity, schema *columnar.Schema) {
	for _, f := range schema.Fields {
		if f.Type.Degenerate() {
			p.log.WarnWith("schema contains a type the table format cannot write", map[string]interface{}{
				"table": id.String(),
				"field": f.Name,
				"type":  f.Type.String(),
			})
		}
	}
}
