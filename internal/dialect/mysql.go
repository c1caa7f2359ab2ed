package dialect

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
)

type MysqlDialect struct{}

func (d *MysqlDialect) Name() string { return "mysql" }

func (d *MysqlDialect) GetTablesQuery(schema string) string {
	return `SELECT TABLE_NAME FROM information_schema.TABLES WHERE TABLE_SCHEMA = ? AND TABLE_TYPE = 'BASE TABLE'`
}

func (d *MysqlDialect) GetColumnsQuery(schema string) string {
	return `SELECT TABLE_NAME, COLUMN_NAME, DATA_TYPE, COLUMN_TYPE, CHARACTER_MAXIMUM_LENGTH, IS_NULLABLE, COLUMN_KEY, COLUMN_DEFAULT, EXTRA, IF(COLUMN_KEY='UNI', 'UNIQUE', NULL) AS IS_UNIQUE FROM information_schema.COLUMNS WHERE TABLE_SCHEMA = ? ORDER BY TABLE_NAME, ORDINAL_POSITION`
}

func (d *MysqlDialect) GetForeignKeysQuery(schema string) string {
	return `SELECT TABLE_NAME, CONSTRAINT_NAME, COLUMN_NAME, REFERENCED_TABLE_SCHEMA, REFERENCED_TABLE_NAME, REFERENCED_COLUMN_NAME FROM information_schema.KEY_COLUMN_USAGE WHERE TABLE_SCHEMA = ? AND REFERENCED_TABLE_NAME IS NOT NULL`
}

func (d *MysqlDialect) GetIndexesQuery(schema string) string {
	return `SELECT DISTINCT TABLE_NAME, INDEX_NAME FROM information_schema.STATISTICS WHERE TABLE_SCHEMA = ? ORDER BY TABLE_NAME, INDEX_NAME`
}

func (d *MysqlDialect) InsertQuery(table string, cols []string) string {
	vals := GeneratePlaceholders(len(cols), d.Placeholder)
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, quoteList(cols, d.QuoteIdent), vals)
}

func (d *MysqlDialect) SelectByQuery(table string, cols []string, where string) string {
	return fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?", quoteList(cols, d.QuoteIdent), table, d.QuoteIdent(where))
}

func (d *MysqlDialect) DeleteByQuery(table string, where string) string {
	return fmt.Sprintf("DELETE FROM %s WHERE %s = ?", table, d.QuoteIdent(where))
}

func (d *MysqlDialect) CountByQuery(table string, where string) string {
	return fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s = ?", table, d.QuoteIdent(where))
}

func (d *MysqlDialect) PingQuery() string {
	return "SELECT 1"
}

func (d *MysqlDialect) Placeholder(index int) string {
	return "?"
}

func (d *MysqlDialect) QuoteIdent(name string) string {
	return quoteWith(name, "`", "`")
}

func (d *MysqlDialect) QualifiedName(schema, table string) string {
	if schema == "" {
		return d.QuoteIdent(table)
	}
	return d.QuoteIdent(schema) + "." + d.QuoteIdent(table)
}

func (d *MysqlDialect) NormalizeType(sqlType string) string {
	return DefaultNormalizeType(sqlType)
}

func (d *MysqlDialect) GetSchemaName(input string) string {
	return DefaultGetSchemaName(input)
}

func (d *MysqlDialect) Classify(err error) ErrorClass {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case 1048, 1364:
			return ClassNotNull
		case 1062, 1586:
			return ClassUnique
		case 1216, 1452:
			return ClassForeignKey
		case 3819:
			return ClassCheck
		}
		return ClassOther
	}
	if errors.Is(err, mysql.ErrInvalidConn) {
		return ClassConnection
	}
	return ClassifyMessage(err)
}
