// Package testdb opens throwaway SQLite databases for package tests.
package testdb

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

// BusinessSchema mirrors the application's critical tables closely enough for
// the compiled-in manifest's probes to pass against it.
const BusinessSchema = `
CREATE TABLE customers (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT NOT NULL UNIQUE,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE orders (
	id INTEGER PRIMARY KEY,
	order_number TEXT NOT NULL UNIQUE,
	customer_id INTEGER NOT NULL REFERENCES customers(id),
	status TEXT NOT NULL DEFAULT 'pending',
	total_amount NUMERIC(12,2) NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE production_orders (
	id INTEGER PRIMARY KEY,
	order_id INTEGER NOT NULL REFERENCES orders(id),
	production_number TEXT NOT NULL UNIQUE,
	status TEXT NOT NULL DEFAULT 'planned',
	quantity INTEGER NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE production_milestones (
	id INTEGER PRIMARY KEY,
	production_order_id INTEGER NOT NULL REFERENCES production_orders(id),
	name TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'pending',
	due_date DATETIME,
	completed_at DATETIME
);
CREATE TABLE invoices (
	id INTEGER PRIMARY KEY,
	invoice_number TEXT NOT NULL UNIQUE,
	order_id INTEGER REFERENCES orders(id),
	customer_id INTEGER NOT NULL REFERENCES customers(id),
	subtotal NUMERIC(12,2) NOT NULL DEFAULT 0,
	tax_amount NUMERIC(12,2) NOT NULL DEFAULT 0,
	total_amount NUMERIC(12,2) NOT NULL DEFAULT 0,
	status TEXT NOT NULL DEFAULT 'pending',
	payment_terms TEXT NOT NULL DEFAULT 'Net 30',
	due_date DATETIME,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// Open creates a fresh database file under t.TempDir() with foreign keys
// enforced, runs ddl and closes the pool when the test ends.
func Open(t testing.TB, ddl string) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sentinel.db")
	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if ddl != "" {
		if _, err := db.Exec(ddl); err != nil {
			t.Fatalf("failed to apply schema: %v", err)
		}
	}
	return db
}

// Count returns the number of rows in table.
func Count(t testing.TB, db *sql.DB, table string) int {
	t.Helper()
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM "` + table + `"`).Scan(&n); err != nil {
		t.Fatalf("failed to count %s: %v", table, err)
	}
	return n
}
