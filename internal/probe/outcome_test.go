package probe_test

import (
	"errors"
	"testing"

	"schema-sentinel/internal/dialect"
	"schema-sentinel/internal/probe"

	"github.com/stretchr/testify/assert"
)

func rejected(msg string) probe.Outcome {
	return probe.Outcome{Err: errors.New(msg), Class: dialect.ClassNotNull}
}

func TestOutcomeMentionsQuotedColumn(t *testing.T) {
	pg := rejected(`pq: null value in column "customer_id" of relation "orders" violates not-null constraint`)
	assert.True(t, pg.Mentions("customer_id"))
	assert.True(t, pg.Mentions("CUSTOMER_ID"))
	assert.False(t, pg.Mentions("id"))
	assert.False(t, pg.Mentions("customer"))

	my := rejected("Error 1048 (23000): Column 'name' cannot be null")
	assert.True(t, my.Mentions("name"))
	assert.False(t, my.Mentions("email"))

	ora := rejected(`ORA-01400: cannot insert NULL into ("APP"."CUSTOMERS"."NAME")`)
	assert.True(t, ora.Mentions("name"))
	assert.False(t, ora.Mentions("id"))
}

func TestOutcomeMentionsQualifiedColumn(t *testing.T) {
	lite := rejected("constraint failed: NOT NULL constraint failed: orders.customer_id (1299)")
	assert.True(t, lite.Mentions("customer_id"))
	assert.False(t, lite.Mentions("id"))
	assert.False(t, lite.Mentions("orders"))

	ms := rejected("mssql: Cannot insert the value NULL into column 'status', table 'erp.dbo.orders'; column does not allow nulls. INSERT fails.")
	assert.True(t, ms.Mentions("status"))
	assert.False(t, ms.Mentions("name"))
}

func TestOutcomeMentionsBareWord(t *testing.T) {
	out := rejected("column name may not be null")
	assert.True(t, out.Mentions("name"))
	assert.False(t, out.Mentions("nam"))
	assert.False(t, out.Mentions("id"))

	assert.False(t, probe.Outcome{}.Mentions("name"))
}
