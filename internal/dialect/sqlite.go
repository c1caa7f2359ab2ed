package dialect

import (
	"errors"
	"fmt"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// SQLiteDialect covers single-file databases. The main database is schema
// "main"; attached databases are further schemas. Catalog queries read
// pragma_table_list so the schema bind parameter (?1) selects which one.
type SQLiteDialect struct{}

func (d *SQLiteDialect) Name() string { return "sqlite" }

func (d *SQLiteDialect) GetTablesQuery(schema string) string {
	return `SELECT tl.name FROM pragma_table_list tl
WHERE tl.schema = ?1 AND tl.type = 'table' AND tl.name NOT LIKE 'sqlite_%'
ORDER BY tl.name`
}

func (d *SQLiteDialect) GetColumnsQuery(schema string) string {
	return `SELECT
    tl.name,
    p.name,
    p.type,
    p.type,
    NULL,
    CASE WHEN p."notnull" = 1 THEN 'NO' ELSE 'YES' END,
    CASE WHEN p.pk > 0 THEN 'PRI' ELSE '' END,
    p.dflt_value,
    CASE WHEN p.pk = 1 AND lower(p.type) = 'integer' THEN 'auto_increment' ELSE '' END,
    CASE WHEN EXISTS (
        SELECT 1 FROM pragma_index_list(tl.name, tl.schema) il
        JOIN pragma_index_info(il.name, tl.schema) ii
        WHERE il."unique" = 1 AND il.origin <> 'pk' AND ii.name = p.name
    ) THEN 'UNIQUE' ELSE '' END
FROM pragma_table_list tl
JOIN pragma_table_info(tl.name, tl.schema) p
WHERE tl.schema = ?1 AND tl.type = 'table' AND tl.name NOT LIKE 'sqlite_%'
ORDER BY tl.name, p.cid`
}

func (d *SQLiteDialect) GetForeignKeysQuery(schema string) string {
	// Foreign keys cannot cross databases, so the referenced schema is NULL (same schema).
	return `SELECT tl.name, 'fk_' || tl.name || '_' || f.id, f."from", NULL, f."table", f."to"
FROM pragma_table_list tl
JOIN pragma_foreign_key_list(tl.name, tl.schema) f
WHERE tl.schema = ?1 AND tl.type = 'table'`
}

func (d *SQLiteDialect) GetIndexesQuery(schema string) string {
	// A rowid-alias INTEGER PRIMARY KEY has no index entry; report it as
	// <table>_pkey so the primary key counts like it does on other engines.
	return `SELECT tl.name, il.name
FROM pragma_table_list tl
JOIN pragma_index_list(tl.name, tl.schema) il
WHERE tl.schema = ?1 AND tl.type = 'table' AND tl.name NOT LIKE 'sqlite_%'
UNION ALL
SELECT tl.name, tl.name || '_pkey'
FROM pragma_table_list tl
JOIN pragma_table_info(tl.name, tl.schema) p
WHERE tl.schema = ?1 AND tl.type = 'table' AND tl.name NOT LIKE 'sqlite_%'
  AND p.pk = 1 AND lower(p.type) = 'integer'
  AND NOT EXISTS (SELECT 1 FROM pragma_table_info(tl.name, tl.schema) p2 WHERE p2.pk = 2)
ORDER BY 1, 2`
}

func (d *SQLiteDialect) InsertQuery(table string, cols []string) string {
	if len(cols) == 0 {
		return fmt.Sprintf("INSERT INTO %s DEFAULT VALUES", table)
	}
	vals := GeneratePlaceholders(len(cols), d.Placeholder)
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, quoteList(cols, d.QuoteIdent), vals)
}

func (d *SQLiteDialect) SelectByQuery(table string, cols []string, where string) string {
	return fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?", quoteList(cols, d.QuoteIdent), table, d.QuoteIdent(where))
}

func (d *SQLiteDialect) DeleteByQuery(table string, where string) string {
	return fmt.Sprintf("DELETE FROM %s WHERE %s = ?", table, d.QuoteIdent(where))
}

func (d *SQLiteDialect) CountByQuery(table string, where string) string {
	return fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s = ?", table, d.QuoteIdent(where))
}

func (d *SQLiteDialect) PingQuery() string {
	return "SELECT 1"
}

func (d *SQLiteDialect) Placeholder(index int) string {
	return "?"
}

func (d *SQLiteDialect) QuoteIdent(name string) string {
	return quoteWith(name, `"`, `"`)
}

func (d *SQLiteDialect) QualifiedName(schema, table string) string {
	if schema == "" || strings.EqualFold(schema, "main") {
		return d.QuoteIdent(table)
	}
	return d.QuoteIdent(schema) + "." + d.QuoteIdent(table)
}

func (d *SQLiteDialect) NormalizeType(sqlType string) string {
	t := strings.ToLower(strings.TrimSpace(sqlType))
	// Strip precision: NUMERIC(12,2) -> numeric
	if i := strings.IndexByte(t, '('); i > 0 {
		t = strings.TrimSpace(t[:i])
	}
	switch t {
	case "integer":
		return "int"
	case "real":
		return "double"
	default:
		return t
	}
}

func (d *SQLiteDialect) GetSchemaName(input string) string {
	if input == "" {
		return "main"
	}
	return input
}

func (d *SQLiteDialect) Classify(err error) ErrorClass {
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_NOTNULL:
			return ClassNotNull
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return ClassUnique
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return ClassForeignKey
		case sqlite3.SQLITE_CONSTRAINT_CHECK:
			return ClassCheck
		}
	}
	// Plain SQLITE_CONSTRAINT (no extended code): the message names the kind.
	return ClassifyMessage(err)
}
