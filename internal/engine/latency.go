package engine

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"schema-sentinel/internal/catalog"
	"schema-sentinel/internal/dialect"
	"schema-sentinel/internal/drift"
)

// ResponsivenessSubject is the subject of SlowResponse findings; the check
// does not depend on any table.
const ResponsivenessSubject = "database"

// Responsiveness issues one trivial round-trip query and compares its
// wall-clock time with sla. The query is cut off at sla, so a paused or
// throttled database fails deterministically instead of hanging. When the
// caller's own deadline ends the query first, the check is reported
// incomplete rather than slow.
func Responsiveness(ctx context.Context, db *sql.DB, d dialect.Dialect, sla time.Duration) (time.Duration, []drift.Finding, error) {
	qctx, cancel := context.WithTimeout(ctx, sla)
	defer cancel()

	start := time.Now()
	var one int
	err := db.QueryRowContext(qctx, d.PingQuery()).Scan(&one)
	elapsed := time.Since(start)
	took := elapsed.Round(time.Millisecond)

	switch {
	case err != nil && ctx.Err() != nil:
		return elapsed, []drift.Finding{drift.New(drift.ProbeIncomplete, ResponsivenessSubject,
			"round trip abandoned after %s: %v", took, ctx.Err())}, nil
	case err != nil && errors.Is(qctx.Err(), context.DeadlineExceeded):
		return elapsed, []drift.Finding{drift.New(drift.SlowResponse, ResponsivenessSubject,
			"round trip did not complete, abandoned after %s, SLA is %s", took, sla)}, nil
	case err != nil:
		return elapsed, nil, &catalog.ConnectionError{Err: err}
	case elapsed > sla:
		return elapsed, []drift.Finding{drift.New(drift.SlowResponse, ResponsivenessSubject,
			"round trip took %s, SLA is %s", took, sla)}, nil
	}
	return elapsed, nil, nil
}
