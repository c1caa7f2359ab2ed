package dialect

// ErrorClass is the constraint family a rejected mutation was classified into.
type ErrorClass string

const (
	ClassNone       ErrorClass = ""
	ClassNotNull    ErrorClass = "not-null"
	ClassUnique     ErrorClass = "unique"
	ClassForeignKey ErrorClass = "foreign-key"
	ClassCheck      ErrorClass = "check"
	ClassConnection ErrorClass = "connection"
	ClassOther      ErrorClass = "other"
)

// Dialect abstracts database-specific operations.
type Dialect interface {
	Name() string

	// Metadata Queries (Schema Introspection).
	// Every query takes the schema name as its single bind parameter.
	GetTablesQuery(schema string) string
	GetColumnsQuery(schema string) string
	GetForeignKeysQuery(schema string) string
	GetIndexesQuery(schema string) string

	// Probe DML. Table names are passed already qualified and quoted.
	InsertQuery(table string, cols []string) string
	SelectByQuery(table string, cols []string, where string) string
	DeleteByQuery(table string, where string) string
	CountByQuery(table string, where string) string
	PingQuery() string

	// Helpers
	Placeholder(index int) string // Returns ?, $1, @p1, etc.
	QuoteIdent(name string) string
	QualifiedName(schema, table string) string
	NormalizeType(sqlType string) string
	GetSchemaName(input string) string

	// Classify maps a driver error to the constraint family it reports.
	Classify(err error) ErrorClass
}
