package catalog

import (
	"sort"
	"strings"
)

// Table is one observed base table.
type Table struct {
	Schema       string
	Name         string
	Columns      []*Column
	ForeignKeys  []*ForeignKey
	Indexes      []string
	Dependencies []string // qualified names of referenced tables, for ordering
}

// QualifiedName returns "schema.table".
func (t *Table) QualifiedName() string {
	return Qualify(t.Schema, t.Name)
}

// Column returns the named column (case-insensitive).
func (t *Table) Column(name string) (*Column, bool) {
	for _, c := range t.Columns {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return nil, false
}

type Column struct {
	Name       string
	DataType   string // normalized by the dialect
	RawType    string // as declared
	Length     int
	IsNullable bool
	IsPK       bool
	IsAutoInc  bool
	IsUnique   bool
	HasDefault bool
	Default    string
}

// NeedsValue reports whether an insert must supply this column.
func (c *Column) NeedsValue() bool {
	return !c.IsNullable && !c.HasDefault && !c.IsAutoInc
}

type ForeignKey struct {
	Constraint string
	Column     string
	RefSchema  string
	RefTable   string
	RefColumn  string
}

// Target returns the qualified referenced table.
func (fk *ForeignKey) Target() string {
	return Qualify(fk.RefSchema, fk.RefTable)
}

// Snapshot is a point-in-time read of the catalog. It is never modified after
// construction; lookups are case-insensitive on schema-qualified names.
type Snapshot struct {
	tables  map[string]*Table
	schemas []string
}

// NewSnapshot builds a snapshot from already-collected tables. The tables are
// copied so later changes by the caller do not leak in.
func NewSnapshot(schemas []string, tables []Table) *Snapshot {
	s := &Snapshot{
		tables:  make(map[string]*Table, len(tables)),
		schemas: append([]string(nil), schemas...),
	}
	for i := range tables {
		t := tables[i]
		t.Columns = append([]*Column(nil), t.Columns...)
		t.ForeignKeys = append([]*ForeignKey(nil), t.ForeignKeys...)
		t.Indexes = append([]string(nil), t.Indexes...)
		t.Dependencies = append([]string(nil), t.Dependencies...)
		s.tables[key(t.QualifiedName())] = &t
	}
	return s
}

// Table looks up a table by qualified name.
func (s *Snapshot) Table(qualified string) (*Table, bool) {
	t, ok := s.tables[key(qualified)]
	return t, ok
}

// HasForeignKey reports whether table.column references target.
func (s *Snapshot) HasForeignKey(table, column, target string) bool {
	t, ok := s.Table(table)
	if !ok {
		return false
	}
	for _, fk := range t.ForeignKeys {
		if strings.EqualFold(fk.Column, column) && key(fk.Target()) == key(target) {
			return true
		}
	}
	return false
}

// ForeignKeyFor returns the declared foreign key on table.column, if any.
func (s *Snapshot) ForeignKeyFor(table, column string) (*ForeignKey, bool) {
	t, ok := s.Table(table)
	if !ok {
		return nil, false
	}
	for _, fk := range t.ForeignKeys {
		if strings.EqualFold(fk.Column, column) {
			return fk, true
		}
	}
	return nil, false
}

// Indexes returns the index names observed on table.
func (s *Snapshot) Indexes(table string) []string {
	t, ok := s.Table(table)
	if !ok {
		return nil
	}
	return t.Indexes
}

// Schemas returns the schemas that were introspected.
func (s *Snapshot) Schemas() []string {
	return append([]string(nil), s.schemas...)
}

// Tables returns all tables sorted by qualified name.
func (s *Snapshot) Tables() []*Table {
	out := make([]*Table, 0, len(s.tables))
	for _, t := range s.tables {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QualifiedName() < out[j].QualifiedName() })
	return out
}

// DependencyOrder returns all tables with referenced tables first.
func (s *Snapshot) DependencyOrder() []*Table {
	return SortTablesByFKCount(s.Tables())
}

// Qualify joins schema and table. An empty schema yields the bare table name.
func Qualify(schema, table string) string {
	if schema == "" {
		return table
	}
	return schema + "." + table
}

func key(qualified string) string {
	return strings.ToLower(qualified)
}
