package probe_test

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"testing"

	"schema-sentinel/internal/catalog"
	"schema-sentinel/internal/dialect"
	"schema-sentinel/internal/drift"
	"schema-sentinel/internal/manifest"
	"schema-sentinel/internal/probe"
	"schema-sentinel/internal/testdb"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var businessTables = []string{"customers", "orders", "production_orders", "production_milestones", "invoices"}

func newProber(t *testing.T, ddl string) (*probe.Prober, *sql.DB) {
	t.Helper()
	db := testdb.Open(t, ddl)
	d := dialect.GetDialect("sqlite")
	snap, err := catalog.Introspect(context.Background(), db, d, []string{"main"})
	require.NoError(t, err)
	return probe.New(db, d, manifest.Default().WithPrimarySchema("main"), snap), db
}

func assertNoProbeRows(t *testing.T, db *sql.DB) {
	t.Helper()
	for _, table := range businessTables {
		assert.Zero(t, testdb.Count(t, db, table), "rows left in %s", table)
	}
}

// rewrite swaps one fragment of the business schema.
func rewrite(t *testing.T, old, replacement string) string {
	t.Helper()
	require.Contains(t, testdb.BusinessSchema, old)
	return strings.Replace(testdb.BusinessSchema, old, replacement, 1)
}

func TestRequiredFieldProbe(t *testing.T) {
	p, db := newProber(t, testdb.BusinessSchema)

	res := p.Run(context.Background(), probe.Probe{Family: probe.RequiredField, Table: "main.invoices", Column: "customer_id"})

	assert.Equal(t, probe.StatusPassed, res.Status, res.Detail)
	assert.Empty(t, res.Findings)
	assert.Empty(t, res.Cleanup)
	assertNoProbeRows(t, db)
}

func TestRequiredFieldNotEnforced(t *testing.T) {
	p, db := newProber(t, rewrite(t, "name TEXT NOT NULL,\n\temail", "name TEXT,\n\temail"))

	res := p.Run(context.Background(), probe.Probe{Family: probe.RequiredField, Table: "main.customers", Column: "name"})

	assert.Equal(t, probe.StatusFailed, res.Status)
	require.Len(t, res.Findings, 1)
	assert.Equal(t, drift.ConstraintNotEnforced, res.Findings[0].Kind)
	assert.Equal(t, drift.SevCritical, res.Findings[0].Severity)
	assert.Equal(t, "main.customers.name", res.Findings[0].Subject)
	assertNoProbeRows(t, db)
}

func TestUniquenessProbeIsIdempotent(t *testing.T) {
	p, db := newProber(t, testdb.BusinessSchema)
	pr := probe.Probe{Family: probe.Uniqueness, Table: "main.customers", Column: "email"}

	for i := 0; i < 2; i++ {
		res := p.Run(context.Background(), pr)
		assert.Equal(t, probe.StatusPassed, res.Status, res.Detail)
		assert.Zero(t, testdb.Count(t, db, "customers"))
	}
}

func TestUniquenessNotEnforced(t *testing.T) {
	p, db := newProber(t, rewrite(t, "order_number TEXT NOT NULL UNIQUE", "order_number TEXT NOT NULL"))
	pr := probe.Probe{Family: probe.Uniqueness, Table: "main.orders", Column: "order_number"}

	for i := 0; i < 2; i++ {
		res := p.Run(context.Background(), pr)
		require.Len(t, res.Findings, 1)
		assert.Equal(t, drift.ConstraintNotEnforced, res.Findings[0].Kind)
		assert.LessOrEqual(t, testdb.Count(t, db, "orders"), 1)
	}
	assertNoProbeRows(t, db)
}

func TestForeignKeyProbeEnforced(t *testing.T) {
	p, db := newProber(t, testdb.BusinessSchema)

	res := p.Run(context.Background(), probe.Probe{
		Family: probe.ForeignKey, Table: "main.production_milestones",
		Column: "production_order_id", Target: "main.production_orders",
	})

	assert.Equal(t, probe.StatusPassed, res.Status, res.Detail)
	assert.Empty(t, res.Findings)
	assertNoProbeRows(t, db)
}

func TestForeignKeyProbeNotEnforced(t *testing.T) {
	p, db := newProber(t, rewrite(t,
		"production_order_id INTEGER NOT NULL REFERENCES production_orders(id)",
		"production_order_id INTEGER NOT NULL"))

	res := p.Run(context.Background(), probe.Probe{
		Family: probe.ForeignKey, Table: "main.production_milestones",
		Column: "production_order_id", Target: "main.production_orders",
	})

	assert.Equal(t, probe.StatusFailed, res.Status)
	require.Len(t, res.Findings, 1)
	f := res.Findings[0]
	assert.Equal(t, drift.ConstraintNotEnforced, f.Kind)
	assert.Equal(t, drift.SevCritical, f.Severity)
	assert.Equal(t, "main.production_milestones.production_order_id", f.Subject)
	assertNoProbeRows(t, db)
}

func TestDefaultValueProbe(t *testing.T) {
	p, db := newProber(t, testdb.BusinessSchema)

	res := p.Run(context.Background(), probe.Probe{Family: probe.DefaultValue, Table: "main.invoices"})

	assert.Equal(t, probe.StatusPassed, res.Status, res.Detail)
	assert.Empty(t, res.Findings)
	assertNoProbeRows(t, db)
}

func TestDefaultValueMismatch(t *testing.T) {
	p, db := newProber(t, rewrite(t, "DEFAULT 'Net 30'", "DEFAULT 'Net 15'"))

	res := p.Run(context.Background(), probe.Probe{Family: probe.DefaultValue, Table: "main.invoices"})

	assert.Equal(t, probe.StatusFailed, res.Status)
	require.Len(t, res.Findings, 1)
	assert.Equal(t, drift.DefaultMismatch, res.Findings[0].Kind)
	assert.Equal(t, "main.invoices.payment_terms", res.Findings[0].Subject)
	assert.Contains(t, res.Findings[0].Detail, `"Net 15"`)
	assertNoProbeRows(t, db)
}

func TestDefaultValueMissingDefault(t *testing.T) {
	p, db := newProber(t, rewrite(t, "status TEXT NOT NULL DEFAULT 'planned'", "status TEXT NOT NULL"))

	res := p.Run(context.Background(), probe.Probe{Family: probe.DefaultValue, Table: "main.production_orders"})

	require.Len(t, res.Findings, 1)
	assert.Equal(t, drift.DefaultMismatch, res.Findings[0].Kind)
	assert.Equal(t, "main.production_orders.status", res.Findings[0].Subject)
	assertNoProbeRows(t, db)
}

func TestPrecisionProbe(t *testing.T) {
	p, db := newProber(t, testdb.BusinessSchema)

	res := p.Run(context.Background(), probe.Probe{Family: probe.Precision, Table: "main.invoices"})

	assert.Equal(t, probe.StatusPassed, res.Status, res.Detail)
	assertNoProbeRows(t, db)
}

func TestPrecisionDrift(t *testing.T) {
	ddl := testdb.BusinessSchema + `
CREATE TRIGGER invoices_round AFTER INSERT ON invoices
BEGIN
	UPDATE invoices SET subtotal = round(NEW.subtotal) WHERE id = NEW.id;
END;`
	p, db := newProber(t, ddl)

	res := p.Run(context.Background(), probe.Probe{Family: probe.Precision, Table: "main.invoices"})

	assert.Equal(t, probe.StatusFailed, res.Status)
	require.Len(t, res.Findings, 1)
	assert.Equal(t, drift.PrecisionDrift, res.Findings[0].Kind)
	assert.Equal(t, "main.invoices.subtotal", res.Findings[0].Subject)
	assert.Contains(t, res.Findings[0].Detail, "stored 123.45")
	assertNoProbeRows(t, db)
}

func TestProbeSkippedWhenDocumentedStructureIsMissing(t *testing.T) {
	p, _ := newProber(t, testdb.BusinessSchema)

	for _, pr := range []probe.Probe{
		{Family: probe.RequiredField, Table: "main.order_items", Column: "order_id"},
		{Family: probe.ForeignKey, Table: "main.invoices", Column: "ghost_id", Target: "main.ghosts"},
	} {
		res := p.Run(context.Background(), pr)
		assert.Equal(t, probe.StatusSkipped, res.Status, pr.String())
		assert.Empty(t, res.Findings)
	}
}

func TestProbeSetupFailure(t *testing.T) {
	p, db := newProber(t, rewrite(t,
		"name TEXT NOT NULL,\n\temail",
		"name TEXT NOT NULL CHECK (length(name) > 1000),\n\temail"))

	res := p.Run(context.Background(), probe.Probe{Family: probe.DefaultValue, Table: "main.invoices"})

	assert.Equal(t, probe.StatusSetupFailed, res.Status)
	require.Len(t, res.Findings, 1)
	assert.Equal(t, drift.ProbeSetupFailure, res.Findings[0].Kind)
	assert.Equal(t, drift.SevHigh, res.Findings[0].Severity)
	assert.Contains(t, res.Findings[0].Detail, "main.customers")
	assertNoProbeRows(t, db)
}

func TestProbeIncompleteOnCancelledContext(t *testing.T) {
	p, db := newProber(t, testdb.BusinessSchema)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := p.Run(ctx, probe.Probe{Family: probe.Uniqueness, Table: "main.customers", Column: "email"})

	assert.Equal(t, probe.StatusIncomplete, res.Status)
	require.Len(t, res.Findings, 1)
	assert.Equal(t, drift.ProbeIncomplete, res.Findings[0].Kind)
	assertNoProbeRows(t, db)
}

func TestConcurrentProbesLeaveNoRows(t *testing.T) {
	p, db := newProber(t, testdb.BusinessSchema)
	probes := probe.Plan(manifest.Default().WithPrimarySchema("main"))

	var wg sync.WaitGroup
	results := make([]probe.Result, len(probes))
	for i, pr := range probes {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = p.Run(context.Background(), pr)
		}()
	}
	wg.Wait()

	for _, res := range results {
		assert.NotEqual(t, probe.StatusFailed, res.Status, "%s: %s", res.Probe, res.Detail)
		assert.NotEqual(t, probe.StatusSetupFailed, res.Status, "%s: %s", res.Probe, res.Detail)
	}
	assertNoProbeRows(t, db)
}

func TestPlan(t *testing.T) {
	probes := probe.Plan(manifest.Default().WithPrimarySchema("public"))

	assert.Contains(t, probes, probe.Probe{
		Family: probe.ForeignKey, Table: "public.production_milestones",
		Column: "production_order_id", Target: "public.production_orders",
	})
	assert.Contains(t, probes, probe.Probe{Family: probe.RequiredField, Table: "public.invoices", Column: "customer_id"})
	assert.Contains(t, probes, probe.Probe{Family: probe.Uniqueness, Table: "public.invoices", Column: "invoice_number"})
	assert.Contains(t, probes, probe.Probe{Family: probe.DefaultValue, Table: "public.invoices"})
	assert.Contains(t, probes, probe.Probe{Family: probe.Precision, Table: "public.invoices"})

	for _, pr := range probes {
		assert.NotEqual(t, "public.qc_inspections", pr.Table)
		assert.NotEqual(t, "auth.users", pr.Table)
	}
}

func TestNewKeyIsUnique(t *testing.T) {
	var mu sync.Mutex
	seen := make(map[string]bool)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				k := probe.NewKey()
				mu.Lock()
				seen[k] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 4000)
	assert.True(t, strings.HasPrefix(probe.NewKey(), "prb"))
}
