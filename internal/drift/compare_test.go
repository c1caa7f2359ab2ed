package drift_test

import (
	"testing"

	"schema-sentinel/internal/catalog"
	"schema-sentinel/internal/drift"
	"schema-sentinel/internal/manifest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func col(name string) *catalog.Column {
	return &catalog.Column{Name: name, DataType: "text"}
}

func testManifest() *manifest.Manifest {
	return &manifest.Manifest{
		PrimarySchema: "public",
		Tables: []manifest.TableSpec{
			{
				Name:                 "orders",
				RequiredColumns:      []string{"id", "order_number", "customer_id"},
				ExpectedForeignKeys:  []manifest.ForeignKeyRef{{Column: "customer_id", TargetTable: "customers"}},
				ExpectedIndexMinimum: 2,
			},
			{
				Name:                 "qc_inspections",
				RequiredColumns:      []string{"id", "inspector_id"},
				ExpectedForeignKeys:  []manifest.ForeignKeyRef{{Column: "inspector_id", TargetTable: "auth.users"}},
				ExpectedIndexMinimum: 1,
			},
		},
	}
}

func TestCompareMissingTableShortCircuits(t *testing.T) {
	snap := catalog.NewSnapshot([]string{"public"}, []catalog.Table{
		{Schema: "public", Name: "qc_inspections", Columns: []*catalog.Column{col("id"), col("inspector_id")},
			ForeignKeys: []*catalog.ForeignKey{{Column: "inspector_id", RefSchema: "auth", RefTable: "users"}},
			Indexes:     []string{"qc_inspections_pkey"}},
	})

	findings := drift.Compare(testManifest(), snap)

	require.Len(t, findings, 1)
	assert.Equal(t, drift.MissingTable, findings[0].Kind)
	assert.Equal(t, drift.SevCritical, findings[0].Severity)
	assert.Equal(t, "public.orders", findings[0].Subject)
}

func TestCompareStructuralDrift(t *testing.T) {
	snap := catalog.NewSnapshot([]string{"public", "auth"}, []catalog.Table{
		{Schema: "public", Name: "orders", Columns: []*catalog.Column{col("id"), col("customer_id")},
			Indexes: []string{"orders_pkey"}},
		{Schema: "public", Name: "qc_inspections", Columns: []*catalog.Column{col("ID"), col("INSPECTOR_ID")},
			// same table name, wrong schema
			ForeignKeys: []*catalog.ForeignKey{{Column: "inspector_id", RefSchema: "public", RefTable: "users"}},
			Indexes:     []string{"qc_inspections_pkey"}},
		{Schema: "public", Name: "legacy_orders", Columns: []*catalog.Column{col("id")}},
	})

	findings := drift.Compare(testManifest(), snap)

	got := make([]string, len(findings))
	for i, f := range findings {
		got[i] = string(f.Kind) + " " + f.Subject
	}
	assert.Equal(t, []string{
		"UnexpectedMissingColumn public.orders.order_number",
		"MissingForeignKey public.orders.customer_id",
		"MissingForeignKey public.qc_inspections.inspector_id",
		"InsufficientIndexes public.orders",
	}, got)

	for _, f := range findings {
		assert.NotContains(t, f.Subject, "legacy_orders")
	}
}

func TestCompareCleanSnapshot(t *testing.T) {
	snap := catalog.NewSnapshot([]string{"public", "auth"}, []catalog.Table{
		{Schema: "public", Name: "orders", Columns: []*catalog.Column{col("id"), col("order_number"), col("customer_id")},
			ForeignKeys: []*catalog.ForeignKey{{Column: "customer_id", RefSchema: "public", RefTable: "customers"}},
			Indexes:     []string{"orders_pkey", "orders_order_number_key"}},
		{Schema: "public", Name: "qc_inspections", Columns: []*catalog.Column{col("id"), col("inspector_id")},
			ForeignKeys: []*catalog.ForeignKey{{Column: "inspector_id", RefSchema: "auth", RefTable: "users"}},
			Indexes:     []string{"qc_inspections_pkey"}},
	})

	assert.Empty(t, drift.Compare(testManifest(), snap))
}

func TestCompareDoesNotMutateInputs(t *testing.T) {
	m := testManifest()
	snap := catalog.NewSnapshot([]string{"public"}, nil)

	first := drift.Compare(m, snap)
	second := drift.Compare(m, snap)

	assert.Equal(t, first, second)
	assert.Equal(t, testManifest(), m)
	assert.Empty(t, snap.Tables())
}

func TestSortIsDeterministic(t *testing.T) {
	findings := []drift.Finding{
		drift.New(drift.SlowResponse, "database", "slow"),
		drift.New(drift.MissingForeignKey, "public.b.x", "fk"),
		drift.New(drift.MissingTable, "public.z", "missing"),
		drift.New(drift.ProbeSetupFailure, "public.a", "setup"),
		drift.New(drift.ConstraintNotEnforced, "public.b.y", "accepted"),
	}

	drift.Sort(findings)

	var order []string
	for _, f := range findings {
		order = append(order, string(f.Severity)+" "+f.Subject)
	}
	assert.Equal(t, []string{
		"CRITICAL public.b.y",
		"CRITICAL public.z",
		"HIGH public.a",
		"HIGH public.b.x",
		"MEDIUM database",
	}, order)
}

func TestKindSeverity(t *testing.T) {
	cases := map[drift.Kind]drift.Severity{
		drift.MissingTable:            drift.SevCritical,
		drift.UnexpectedMissingColumn: drift.SevCritical,
		drift.ConstraintNotEnforced:   drift.SevCritical,
		drift.MissingForeignKey:       drift.SevHigh,
		drift.ProbeSetupFailure:       drift.SevHigh,
		drift.DefaultMismatch:         drift.SevHigh,
		drift.PrecisionDrift:          drift.SevHigh,
		drift.InsufficientIndexes:     drift.SevMedium,
		drift.SlowResponse:            drift.SevMedium,
		drift.ProbeIncomplete:         drift.SevMedium,
		drift.UnexpectedRejection:     drift.SevMedium,
	}
	for kind, want := range cases {
		assert.Equal(t, want, kind.Severity(), string(kind))
	}
	assert.True(t, drift.SevHigh.Blocking())
	assert.False(t, drift.SevMedium.Blocking())
}
