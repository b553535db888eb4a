package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
)

// Dialect papers over the few places Postgres and SQLite disagree. Queries
// are written with ? placeholders and rebound per dialect.
type Dialect struct {
	name string
}

var (
	Postgres = Dialect{name: "postgres"}
	SQLite   = Dialect{name: "sqlite"}
)

func (d Dialect) String() string { return d.name }

func (d Dialect) rebind(q string) string {
	if d != Postgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// lockClause is appended to the read that starts a read-modify-write. SQLite
// runs on a single writer connection, so the transaction alone serializes.
func (d Dialect) lockClause() string {
	if d == Postgres {
		return " FOR UPDATE"
	}
	return ""
}

func (d Dialect) schema() []string {
	id, money, boolean, ts := "BIGSERIAL PRIMARY KEY", "NUMERIC(12,2)", "BOOLEAN", "TIMESTAMPTZ"
	if d == SQLite {
		id, money, boolean, ts = "INTEGER PRIMARY KEY AUTOINCREMENT", "TEXT", "INTEGER", "TIMESTAMP"
	}
	return []string{
		`CREATE TABLE IF NOT EXISTS menu_items (
			id ` + id + `,
			name TEXT NOT NULL UNIQUE,
			description TEXT NOT NULL DEFAULT '',
			price ` + money + ` NOT NULL,
			available ` + boolean + ` NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS orders (
			id ` + id + `,
			customer_name TEXT NOT NULL,
			user_phone TEXT NOT NULL,
			payment_status TEXT NOT NULL,
			order_status TEXT NOT NULL,
			payment_mode TEXT NOT NULL,
			total_price ` + money + ` NOT NULL,
			order_time ` + ts + ` NOT NULL,
			external_payment_ref TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_phone ON orders (user_phone, id)`,
		`CREATE TABLE IF NOT EXISTS order_items (
			id ` + id + `,
			order_id BIGINT NOT NULL REFERENCES orders(id),
			name TEXT NOT NULL,
			price ` + money + ` NOT NULL,
			quantity INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS restaurant_info (
			id INTEGER PRIMARY KEY,
			is_open ` + boolean + ` NOT NULL
		)`,
	}
}

// Migrate creates the tables when missing.
func Migrate(ctx context.Context, db *sql.DB, d Dialect) error {
	for _, stmt := range d.schema() {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate %s: %w", d, err)
		}
	}
	return nil
}
