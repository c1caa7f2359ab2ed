package manifest_test

import (
	"bytes"
	"testing"

	"schema-sentinel/internal/manifest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultManifestIsValid(t *testing.T) {
	m := manifest.Default()
	require.NoError(t, m.Validate())

	inv, ok := m.Lookup("invoices")
	require.True(t, ok)
	assert.Contains(t, inv.RequiredColumns, "invoice_number")
	assert.Equal(t, "Net 30", inv.Probe.Defaults["payment_terms"])

	users, ok := m.Lookup("auth.users")
	require.True(t, ok)
	assert.Equal(t, "auth", users.Schema)
}

func TestValidateRejectsDuplicateTables(t *testing.T) {
	m := &manifest.Manifest{Tables: []manifest.TableSpec{
		{Name: "orders"},
		{Name: "ORDERS"},
	}}
	err := m.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "declared more than once")
}

func TestValidateSameNameInDifferentSchemas(t *testing.T) {
	m := &manifest.Manifest{Tables: []manifest.TableSpec{
		{Name: "users"},
		{Name: "users", Schema: "auth"},
	}}
	assert.NoError(t, m.Validate())
}

func TestValidateProbeRules(t *testing.T) {
	m := &manifest.Manifest{Tables: []manifest.TableSpec{
		{Name: "a", ExpectedIndexMinimum: -1, Probe: &manifest.ProbeSpec{
			Marker:   "code",
			Required: []string{"code"},
			Parents:  []manifest.ParentRef{{Column: "b_id", Table: "missing"}},
			Decimals: map[string]string{"total": "12,50"},
		}},
		{Name: "b", Probe: &manifest.ProbeSpec{}},
	}}
	err := m.Validate()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "min_indexes must be >= 0")
	assert.Contains(t, msg, "marker column code cannot be a required-field probe")
	assert.Contains(t, msg, "parent table missing is not declared")
	assert.Contains(t, msg, "table b: probe.marker is required")
	assert.Contains(t, msg, `decimals.total: "12,50" is not a decimal`)
}

func TestValidateDuplicateAfterPrimarySchema(t *testing.T) {
	m, err := manifest.Parse([]byte(`
manifest:
  tables:
    - name: orders
      required_columns: [id]
      min_indexes: 0
    - name: orders
      schema: public
      required_columns: [id]
      min_indexes: 0
`))
	require.NoError(t, err)

	err = m.WithPrimarySchema("public").Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "table public.orders: declared more than once")

	assert.NoError(t, m.WithPrimarySchema("app").Validate())
}

func TestValidateMarkerNotOverwritten(t *testing.T) {
	m := &manifest.Manifest{Tables: []manifest.TableSpec{
		{Name: "tags", Probe: &manifest.ProbeSpec{
			Marker:   "tag",
			Defaults: map[string]string{"TAG": "x"},
		}},
		{Name: "prices", Probe: &manifest.ProbeSpec{
			Marker:   "label",
			Decimals: map[string]string{"label": "1.25"},
		}},
	}}
	err := m.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "table tags: marker column TAG cannot have a default-value probe")
	assert.Contains(t, err.Error(), "table prices: marker column label cannot have a precision probe")
}

func TestValidateParentCycle(t *testing.T) {
	m := &manifest.Manifest{Tables: []manifest.TableSpec{
		{Name: "a", Probe: &manifest.ProbeSpec{Marker: "m", Parents: []manifest.ParentRef{{Column: "b_id", Table: "b"}}}},
		{Name: "b", Probe: &manifest.ProbeSpec{Marker: "m", Parents: []manifest.ParentRef{{Column: "a_id", Table: "a"}}}},
	}}
	err := m.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle")
}

func TestParseAndEncode(t *testing.T) {
	doc := []byte(`
manifest:
  primary_schema: public
  tables:
    - name: orders
      required_columns: [id, order_number]
      foreign_keys:
        - column: customer_id
          target: customers
      min_indexes: 1
      probe:
        marker: order_number
        unique: [order_number]
        parents:
          - column: customer_id
            table: customers
    - name: customers
      required_columns: [id]
      min_indexes: 1
      probe:
        marker: email
`)
	m, err := manifest.Parse(doc)
	require.NoError(t, err)
	require.Len(t, m.Tables, 2)
	assert.Equal(t, "public.orders", m.QualifiedName(m.Tables[0]))
	assert.Equal(t, "public.customers", m.Resolve("customers", "public"))
	assert.Equal(t, "auth.users", m.Resolve("auth.users", "public"))
	assert.Equal(t, []string{"public"}, m.Schemas())

	var buf bytes.Buffer
	require.NoError(t, manifest.Encode(&buf, m))
	again, err := manifest.Parse(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, m, again)
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := manifest.Parse([]byte("manifest:\n  tables:\n    - name: x\n      required_colums: [id]\n"))
	assert.Error(t, err)
}

func TestWithPrimarySchemaDoesNotMutate(t *testing.T) {
	m := manifest.Default()
	scoped := m.WithPrimarySchema("public")
	assert.Equal(t, "", m.PrimarySchema)
	assert.Equal(t, "public.orders", scoped.QualifiedName(scoped.Tables[1]))
	assert.Equal(t, "auth.users", scoped.QualifiedName(scoped.Tables[len(scoped.Tables)-1]))
}
