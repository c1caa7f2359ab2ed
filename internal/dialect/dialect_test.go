package dialect_test

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"

	"schema-sentinel/internal/dialect"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestGetDialect(t *testing.T) {
	cases := map[string]string{
		"postgres":  "postgres",
		"pgx":       "postgres",
		"mssql":     "sqlserver",
		"sqlserver": "sqlserver",
		"oracle":    "oracle",
		"sqlite3":   "sqlite",
		"mysql":     "mysql",
		"":          "mysql",
	}
	for driverName, want := range cases {
		assert.Equal(t, want, dialect.GetDialect(driverName).Name(), driverName)
	}
}

func TestInsertQueryPlaceholders(t *testing.T) {
	cols := []string{"name", "email"}
	assert.Equal(t, `INSERT INTO t ("name", "email") VALUES ($1, $2)`, dialect.GetDialect("postgres").InsertQuery("t", cols))
	assert.Equal(t, "INSERT INTO t (`name`, `email`) VALUES (?, ?)", dialect.GetDialect("mysql").InsertQuery("t", cols))
	assert.Equal(t, "INSERT INTO t ([name], [email]) VALUES (@p1, @p2)", dialect.GetDialect("sqlserver").InsertQuery("t", cols))
	assert.Equal(t, `INSERT INTO t ("name", "email") VALUES (:1, :2)`, dialect.GetDialect("oracle").InsertQuery("t", cols))
	assert.Equal(t, "INSERT INTO t DEFAULT VALUES", dialect.GetDialect("sqlite").InsertQuery("t", nil))
}

func TestQuotingAndQualifiedNames(t *testing.T) {
	pg := dialect.GetDialect("postgres")
	assert.Equal(t, `"we""ird"`, pg.QuoteIdent(`we"ird`))
	assert.Equal(t, `"public"."orders"`, pg.QualifiedName("", "orders"))
	assert.Equal(t, `"auth"."users"`, pg.QualifiedName("auth", "users"))

	ms := dialect.GetDialect("sqlserver")
	assert.Equal(t, "[a]]b]", ms.QuoteIdent("a]b"))
	assert.Equal(t, "[dbo].[orders]", ms.QualifiedName("", "orders"))

	lite := dialect.GetDialect("sqlite")
	assert.Equal(t, `"orders"`, lite.QualifiedName("main", "orders"))
	assert.Equal(t, `"aux"."orders"`, lite.QualifiedName("aux", "orders"))

	assert.Equal(t, "`erp`.`orders`", dialect.GetDialect("mysql").QualifiedName("erp", "orders"))
}

func TestGetSchemaName(t *testing.T) {
	assert.Equal(t, "public", dialect.GetDialect("postgres").GetSchemaName(""))
	assert.Equal(t, "dbo", dialect.GetDialect("sqlserver").GetSchemaName(""))
	assert.Equal(t, "main", dialect.GetDialect("sqlite").GetSchemaName(""))
	assert.Equal(t, "", dialect.GetDialect("mysql").GetSchemaName(""))
	assert.Equal(t, "app", dialect.GetDialect("postgres").GetSchemaName("app"))
}

func TestNormalizeType(t *testing.T) {
	assert.Equal(t, "int", dialect.GetDialect("postgres").NormalizeType("INT4"))
	assert.Equal(t, "decimal", dialect.GetDialect("sqlserver").NormalizeType("money"))
	assert.Equal(t, "uuid", dialect.GetDialect("sqlserver").NormalizeType("uniqueidentifier"))
	assert.Equal(t, "numeric", dialect.GetDialect("sqlite").NormalizeType("NUMERIC(12,2)"))
	assert.Equal(t, "varchar", dialect.GetDialect("oracle").NormalizeType("NVARCHAR2"))
}

func TestClassifyPostgres(t *testing.T) {
	pg := dialect.GetDialect("postgres")
	cases := map[pq.ErrorCode]dialect.ErrorClass{
		"23502": dialect.ClassNotNull,
		"23505": dialect.ClassUnique,
		"23503": dialect.ClassForeignKey,
		"23514": dialect.ClassCheck,
		"08006": dialect.ClassConnection,
		"42P01": dialect.ClassOther,
	}
	for code, want := range cases {
		err := fmt.Errorf("insert: %w", &pq.Error{Code: code})
		assert.Equal(t, want, pg.Classify(err), string(code))
	}
}

func TestClassifyMySQL(t *testing.T) {
	my := dialect.GetDialect("mysql")
	assert.Equal(t, dialect.ClassNotNull, my.Classify(&mysql.MySQLError{Number: 1048}))
	assert.Equal(t, dialect.ClassUnique, my.Classify(&mysql.MySQLError{Number: 1062}))
	assert.Equal(t, dialect.ClassForeignKey, my.Classify(&mysql.MySQLError{Number: 1452}))
	assert.Equal(t, dialect.ClassCheck, my.Classify(&mysql.MySQLError{Number: 3819}))
	assert.Equal(t, dialect.ClassConnection, my.Classify(mysql.ErrInvalidConn))
}

func TestClassifyMessage(t *testing.T) {
	cases := map[string]dialect.ErrorClass{
		"ORA-02291: integrity constraint violated - parent key not found": dialect.ClassForeignKey,
		`null value in column "name" violates not-null constraint`:       dialect.ClassNotNull,
		"Field 'status' doesn't have a default value":                     dialect.ClassNotNull,
		"Duplicate entry 'x' for key 'email'":                             dialect.ClassUnique,
		"CHECK constraint failed: length(name) > 1000":                    dialect.ClassCheck,
		"syntax error near FROM":                                          dialect.ClassOther,
	}
	for msg, want := range cases {
		assert.Equal(t, want, dialect.ClassifyMessage(errors.New(msg)), msg)
	}
	assert.Equal(t, dialect.ClassNone, dialect.ClassifyMessage(nil))
	assert.Equal(t, dialect.ClassConnection, dialect.ClassifyMessage(driver.ErrBadConn))
}

func TestIsConnectionError(t *testing.T) {
	assert.True(t, dialect.IsConnectionError(fmt.Errorf("query: %w", context.DeadlineExceeded)))
	assert.True(t, dialect.IsConnectionError(driver.ErrBadConn))
	assert.False(t, dialect.IsConnectionError(errors.New("UNIQUE constraint failed")))
	assert.False(t, dialect.IsConnectionError(nil))
}
