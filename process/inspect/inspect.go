// Package inspect prints the live Postgres schema of the ledger tables.
package inspect

import (
	"database/sql"
	"fmt"
	"io"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Tables are the tables the API owns.
var Tables = []string{"users", "transactions"}

// Run connects to Postgres using dsn and prints columns, indexes and
// foreign keys of tables.
func Run(w io.Writer, dsn string, tables []string) error {
	if dsn == "" {
		return fmt.Errorf("dsn is required")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	for _, t := range tables {
		if err := columns(w, db, t); err != nil {
			return err
		}
		if err := indexes(w, db, t); err != nil {
			return err
		}
	}
	return foreignKeys(w, db, tables)
}

func columns(w io.Writer, db *sql.DB, table string) error {
	rows, err := db.Query(`
		SELECT column_name, data_type, is_nullable, COALESCE(character_maximum_length, 0)
		FROM information_schema.columns
		WHERE table_schema = 'public' AND table_name = $1
		ORDER BY ordinal_position`, table)
	if err != nil {
		return fmt.Errorf("query columns of %s: %w", table, err)
	}
	defer rows.Close()

	fmt.Fprintf(w, "Table %s:\n", table)
	n := 0
	for rows.Next() {
		var name, typ, nullable string
		var size int
		if err := rows.Scan(&name, &typ, &nullable, &size); err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		if size > 0 {
			typ = fmt.Sprintf("%s(%d)", typ, size)
		}
		null := ""
		if nullable == "NO" {
			null = " not null"
		}
		fmt.Fprintf(w, "  %-16s %s%s\n", name, typ, null)
		n++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("rows err: %w", err)
	}
	if n == 0 {
		fmt.Fprintln(w, "  (missing; run the server with DB_AUTO_MIGRATE=true or `migrate`)")
	}
	return nil
}

func indexes(w io.Writer, db *sql.DB, table string) error {
	rows, err := db.Query(`SELECT indexname, indexdef FROM pg_indexes WHERE schemaname = 'public' AND tablename = $1 ORDER BY indexname`, table)
	if err != nil {
		return fmt.Errorf("query indexes of %s: %w", table, err)
	}
	defer rows.Close()
	for rows.Next() {
		var name, def string
		if err := rows.Scan(&name, &def); err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		fmt.Fprintf(w, "  index %s\n    def: %s\n", name, def)
	}
	return rows.Err()
}

func foreignKeys(w io.Writer, db *sql.DB, tables []string) error {
	rows, err := db.Query(`
		SELECT
		  con.conname AS constraint_name,
		  rel.relname AS table_name,
		  confrel.relname AS referenced_table,
		  pg_get_constraintdef(con.oid) AS definition
		FROM pg_constraint con
		JOIN pg_class rel ON rel.oid = con.conrelid
		JOIN pg_class confrel ON confrel.oid = con.confrelid
		WHERE con.contype = 'f'
		ORDER BY rel.relname, con.conname`)
	if err != nil {
		return fmt.Errorf("query constraints: %w", err)
	}
	defer rows.Close()

	want := make(map[string]bool, len(tables))
	for _, t := range tables {
		want[t] = true
	}
	fmt.Fprintln(w, "Foreign keys:")
	for rows.Next() {
		var cname, table, reftable, def string
		if err := rows.Scan(&cname, &table, &reftable, &def); err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		if !want[table] {
			continue
		}
		fmt.Fprintf(w, "- %s: %s -> %s\n    def: %s\n", cname, table, reftable, def)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("rows err: %w", err)
	}
	return nil
}
