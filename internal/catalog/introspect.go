package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"schema-sentinel/internal/dialect"

	"github.com/rs/zerolog/log"
)

// ---------------------------------------------------------------------
// Catalog Introspection
// ---------------------------------------------------------------------

// Introspect reads tables, columns, foreign keys and indexes for every schema
// in schemas. The database is pinged first so an unreachable server surfaces
// as *ConnectionError; any failing catalog query yields *IntrospectionError
// and no snapshot.
func Introspect(ctx context.Context, db *sql.DB, d dialect.Dialect, schemas []string) (*Snapshot, error) {
	if err := db.PingContext(ctx); err != nil {
		return nil, &ConnectionError{Err: err}
	}

	var resolved []string
	var all []Table
	for _, s := range schemas {
		target := d.GetSchemaName(s)
		tables, err := introspectSchema(ctx, db, d, target)
		if err != nil {
			return nil, err
		}
		log.Debug().Str("schema", target).Int("tables", len(tables)).Msg("schema introspected")
		resolved = append(resolved, target)
		all = append(all, tables...)
	}
	return NewSnapshot(resolved, all), nil
}

func introspectSchema(ctx context.Context, db *sql.DB, d dialect.Dialect, target string) ([]Table, error) {
	// Map for O(1) lookups, with normalized keys for case-insensitive matching (Oracle support)
	tableMap := make(map[string]*Table)
	var order []string

	// --- Step 1: Fetch Tables ---
	err := query(ctx, db, "tables("+target+")", d.GetTablesQuery(target), target, func(rows *sql.Rows) error {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("failed to scan table name: %w", err)
		}
		k := strings.ToUpper(name)
		if _, dup := tableMap[k]; !dup {
			tableMap[k] = &Table{Schema: target, Name: name, Dependencies: []string{}}
			order = append(order, k)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// --- Step 2: Fetch Columns ---
	err = query(ctx, db, "columns("+target+")", d.GetColumnsQuery(target), target, func(rows *sql.Rows) error {
		var tName, cName, dType, cType, cLen, isNull, cKey, cDefault, extra, isUnique sql.NullString
		if err := rows.Scan(&tName, &cName, &dType, &cType, &cLen, &isNull, &cKey, &cDefault, &extra, &isUnique); err != nil {
			return fmt.Errorf("failed to scan column (table: %s): %w", tName.String, err)
		}
		if !tName.Valid || !cName.Valid {
			return nil // Skip invalid rows
		}
		t, ok := tableMap[strings.ToUpper(tName.String)]
		if !ok {
			return nil // views and other non-base relations
		}
		t.Columns = append(t.Columns, buildColumn(d, cName, dType, cType, cLen, isNull, cKey, cDefault, extra, isUnique))
		return nil
	})
	if err != nil {
		return nil, err
	}

	// --- Step 3: Fetch Foreign Keys ---
	err = query(ctx, db, "foreign_keys("+target+")", d.GetForeignKeysQuery(target), target, func(rows *sql.Rows) error {
		var tName, cConst, cName, rSchema, rTable, rCol sql.NullString
		if err := rows.Scan(&tName, &cConst, &cName, &rSchema, &rTable, &rCol); err != nil {
			return fmt.Errorf("failed to scan foreign key: %w", err)
		}
		if !tName.Valid || !rTable.Valid {
			return nil
		}
		t, ok := tableMap[strings.ToUpper(tName.String)]
		if !ok {
			return nil
		}
		refSchema := target
		if rSchema.Valid && rSchema.String != "" {
			refSchema = rSchema.String
		}
		// Resolve the original-case name when the target lives in this schema.
		refTable := rTable.String
		if strings.EqualFold(refSchema, target) {
			if rt, ok := tableMap[strings.ToUpper(refTable)]; ok {
				refTable = rt.Name
			}
		}
		fk := &ForeignKey{
			Constraint: cConst.String,
			Column:     cName.String,
			RefSchema:  refSchema,
			RefTable:   refTable,
			RefColumn:  rCol.String,
		}
		t.ForeignKeys = append(t.ForeignKeys, fk)
		if !strings.EqualFold(fk.Target(), t.QualifiedName()) {
			t.Dependencies = appendUnique(t.Dependencies, fk.Target())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// --- Step 4: Fetch Indexes ---
	err = query(ctx, db, "indexes("+target+")", d.GetIndexesQuery(target), target, func(rows *sql.Rows) error {
		var tName, iName sql.NullString
		if err := rows.Scan(&tName, &iName); err != nil {
			return fmt.Errorf("failed to scan index: %w", err)
		}
		if !tName.Valid || !iName.Valid {
			return nil
		}
		if t, ok := tableMap[strings.ToUpper(tName.String)]; ok {
			t.Indexes = appendUnique(t.Indexes, iName.String)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	tables := make([]Table, 0, len(order))
	for _, k := range order {
		tables = append(tables, *tableMap[k])
	}
	return tables, nil
}

// query runs one catalog query and feeds each row to scan. Every failure is
// reported as an IntrospectionError carrying name.
func query(ctx context.Context, db *sql.DB, name, q string, arg any, scan func(*sql.Rows) error) error {
	rows, err := db.QueryContext(ctx, q, arg)
	if err != nil {
		return &IntrospectionError{Query: name, Err: err}
	}
	defer rows.Close()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return &IntrospectionError{Query: name, Err: err}
		}
	}
	if err := rows.Err(); err != nil {
		return &IntrospectionError{Query: name, Err: fmt.Errorf("error iterating rows: %w", err)}
	}
	return nil
}

func buildColumn(d dialect.Dialect, cName, dType, cType, cLen, isNull, cKey, cDefault, extra, isUnique sql.NullString) *Column {
	// PK Detection
	isPK := strings.Contains(cKey.String, "PRI") || strings.Contains(cKey.String, "PRIMARY")

	// AutoInc Detection: identity columns, or a sequence-backed default
	extraLower := strings.ToLower(extra.String + " " + cDefault.String)
	isAutoInc := strings.Contains(extraLower, "auto_increment") ||
		strings.Contains(extraLower, "identity") ||
		strings.Contains(extraLower, "nextval")

	rawType := cType.String
	if rawType == "" {
		rawType = dType.String
	}

	col := &Column{
		Name:       cName.String,
		DataType:   d.NormalizeType(rawType),
		RawType:    rawType,
		IsNullable: strings.EqualFold(isNull.String, "YES"),
		IsPK:       isPK,
		IsAutoInc:  isAutoInc,
		IsUnique:   strings.Contains(isUnique.String, "UNIQUE"),
		HasDefault: cDefault.Valid && strings.TrimSpace(cDefault.String) != "" && !strings.EqualFold(strings.TrimSpace(cDefault.String), "NULL"),
		Default:    strings.TrimSpace(cDefault.String),
	}

	// Handle Length safely
	if cLen.Valid && cLen.String != "" {
		var length int
		if _, err := fmt.Sscanf(cLen.String, "%d", &length); err == nil {
			col.Length = length
		} else {
			var fLength float64
			if _, err := fmt.Sscanf(cLen.String, "%f", &fLength); err == nil {
				col.Length = int(fLength)
			}
		}
	}
	return col
}

func appendUnique(list []string, v string) []string {
	for _, s := range list {
		if strings.EqualFold(s, v) {
			return list
		}
	}
	return append(list, v)
}
