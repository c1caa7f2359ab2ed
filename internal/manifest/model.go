package manifest

import "strings"

// Manifest is the declared schema contract. It is built once at startup and
// passed explicitly to the comparator and prober; nothing mutates it after
// Validate succeeds.
type Manifest struct {
	// PrimarySchema is used for tables that do not name a schema.
	PrimarySchema string      `yaml:"primary_schema,omitempty"`
	Tables        []TableSpec `yaml:"tables"`
}

// TableSpec declares what one critical table must look like.
type TableSpec struct {
	Name                 string          `yaml:"name"`
	Schema               string          `yaml:"schema,omitempty"`
	RequiredColumns      []string        `yaml:"required_columns"`
	ExpectedForeignKeys  []ForeignKeyRef `yaml:"foreign_keys,omitempty"`
	ExpectedIndexMinimum int             `yaml:"min_indexes"`
	Probe                *ProbeSpec      `yaml:"probe,omitempty"`
}

// ForeignKeyRef is an expected (column -> target table) reference. TargetTable
// may be schema-qualified ("auth.users"); a bare name resolves to the source
// table's schema.
type ForeignKeyRef struct {
	Column      string `yaml:"column"`
	TargetTable string `yaml:"target"`
}

// ProbeSpec declares the behavioural contract exercised by the constraint prober.
type ProbeSpec struct {
	// Marker is a text column receiving the per-probe key. Probe rows are
	// looked up and deleted by it.
	Marker string `yaml:"marker"`
	// Fixture holds the remaining column values of a minimal valid row.
	// String values of the form "fake:<kind>" are generated per row.
	Fixture map[string]any `yaml:"fixture,omitempty"`
	// Required columns must be rejected when omitted.
	Required []string `yaml:"required,omitempty"`
	// Unique columns must be rejected when duplicated.
	Unique []string `yaml:"unique,omitempty"`
	// Parents are prerequisite rows created before this table's row.
	Parents []ParentRef `yaml:"parents,omitempty"`
	// Defaults maps a column to its documented default. DefaultSet accepts any non-null value.
	Defaults map[string]string `yaml:"defaults,omitempty"`
	// Decimals maps a monetary column to a two-decimal literal for the precision probe.
	Decimals map[string]string `yaml:"decimals,omitempty"`
}

// DefaultSet is the Defaults value meaning "populated, value not fixed" (timestamps).
const DefaultSet = "<set>"

// ParentRef links a column of the probed table to a prerequisite row.
type ParentRef struct {
	Column string `yaml:"column"`
	Table  string `yaml:"table"`
	Key    string `yaml:"key,omitempty"`
}

// KeyColumn returns the referenced key column, "id" when unset.
func (p ParentRef) KeyColumn() string {
	if p.Key == "" {
		return "id"
	}
	return p.Key
}

// Parent returns the prerequisite declared for column, if any.
func (p *ProbeSpec) Parent(column string) (ParentRef, bool) {
	for _, ref := range p.Parents {
		if strings.EqualFold(ref.Column, column) {
			return ref, true
		}
	}
	return ParentRef{}, false
}

// SchemaOf returns the schema a table spec lives in.
func (m *Manifest) SchemaOf(t TableSpec) string {
	if t.Schema != "" {
		return t.Schema
	}
	return m.PrimarySchema
}

// QualifiedName returns "schema.table" for t.
func (m *Manifest) QualifiedName(t TableSpec) string {
	return Qualify(m.SchemaOf(t), t.Name)
}

// Resolve qualifies ref against defaultSchema unless it already names a schema.
func (m *Manifest) Resolve(ref, defaultSchema string) string {
	if strings.Contains(ref, ".") {
		return ref
	}
	if defaultSchema == "" {
		defaultSchema = m.PrimarySchema
	}
	return Qualify(defaultSchema, ref)
}

// Lookup finds a table by qualified (or bare, primary-schema) name.
func (m *Manifest) Lookup(name string) (TableSpec, bool) {
	want := strings.ToLower(m.Resolve(name, ""))
	for _, t := range m.Tables {
		if strings.ToLower(m.QualifiedName(t)) == want {
			return t, true
		}
	}
	return TableSpec{}, false
}

// Schemas lists the distinct schemas the manifest declares tables in, in declaration order.
func (m *Manifest) Schemas() []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range m.Tables {
		s := m.SchemaOf(t)
		if !seen[strings.ToLower(s)] {
			seen[strings.ToLower(s)] = true
			out = append(out, s)
		}
	}
	return out
}

// WithPrimarySchema returns a copy whose unqualified tables resolve to schema.
// An explicit PrimarySchema already set on m wins.
func (m *Manifest) WithPrimarySchema(schema string) *Manifest {
	cp := *m
	if cp.PrimarySchema == "" {
		cp.PrimarySchema = schema
	}
	cp.Tables = append([]TableSpec(nil), m.Tables...)
	return &cp
}

// Qualify joins schema and table. An empty schema yields the bare table name.
func Qualify(schema, table string) string {
	if schema == "" {
		return table
	}
	return schema + "." + table
}
