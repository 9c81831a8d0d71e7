// Package sanitize empties the ledger tables, and optionally the attachment
// directory, of a development database.
package sanitize

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"regexp"
	"strings"
	"time"

	"dompet/pkg/attachment"
	"dompet/pkg/store"

	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

// DefaultTables are truncated when --tables is not given.
const DefaultTables = "users,transactions"

var nameRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ParseTables splits a comma-separated list and drops names that are not
// plain identifiers.
func ParseTables(list string) []string {
	parts := strings.Split(list, ",")
	wanted := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !nameRe.MatchString(p) {
			log.Printf("warning: skipping invalid table name '%s'", p)
			continue
		}
		wanted = append(wanted, p)
	}
	return wanted
}

// TruncateStatement builds the TRUNCATE for already validated names.
func TruncateStatement(tables []string) string {
	quoted := make([]string, 0, len(tables))
	for _, t := range tables {
		quoted = append(quoted, fmt.Sprintf("\"%s\"", t))
	}
	return fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", strings.Join(quoted, ", "))
}

// PurgeAttachments removes every blob in files and returns how many were deleted.
func PurgeAttachments(files *attachment.Store) (int, error) {
	refs, err := files.List()
	if err != nil {
		return 0, err
	}
	for i, ref := range refs {
		if err := files.Delete(ref); err != nil {
			return i, err
		}
	}
	return len(refs), nil
}

// Run executes the db_sanitize CLI behavior. Exported so a small cmd/main can call it.
func Run() {
	var (
		dryRun      = flag.Bool("dry-run", true, "Don't perform destructive actions; show what would be done")
		yes         = flag.Bool("yes", false, "Confirm destructive action (required to actually truncate)")
		attachments = flag.Bool("attachments", false, "Also delete every blob in ATTACHMENT_DIR")
		tables      = flag.String("tables", DefaultTables, "Comma-separated list of tables to truncate")
	)
	flag.Parse()
	_ = godotenv.Load()

	if os.Getenv("DB_DSN") == "" {
		log.Fatal("DB_DSN must be set to run db_sanitize")
	}
	gdb := store.MustOpenFromEnv()

	existing := presentTables(gdb, ParseTables(*tables))
	if len(existing) == 0 {
		log.Println("no requested tables present in the database; nothing to do")
		return
	}

	fmt.Println("Tables considered for truncation:")
	for _, t := range existing {
		fmt.Printf(" - %s\n", t)
	}
	dir := os.Getenv("ATTACHMENT_DIR")
	if dir == "" {
		dir = "attachments"
	}
	if *attachments {
		fmt.Printf("Attachment directory to empty: %s\n", dir)
	}

	if *dryRun {
		fmt.Println("dry-run enabled; no changes will be made. Use --dry-run=false --yes to execute.")
		return
	}
	if !*yes {
		fmt.Println("Destructive operation. Pass --yes to confirm execution. Aborting.")
		return
	}

	stmt := TruncateStatement(existing)
	log.Printf("Executing: %s", stmt)
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := gdb.WithContext(ctx).Exec(stmt).Error; err != nil {
		log.Fatalf("truncate failed: %v", err)
	}
	log.Println("Truncate completed.")

	if *attachments {
		n, err := PurgeAttachments(attachment.NewStore(dir))
		if err != nil {
			log.Fatalf("purge attachments: %v", err)
		}
		log.Printf("Removed %d attachment(s).", n)
	}
}

// presentTables checks each name individually against pg_tables.
func presentTables(gdb *gorm.DB, wanted []string) []string {
	existing := []string{}
	for _, t := range wanted {
		var cnt int64
		if err := gdb.Raw("SELECT count(*) FROM pg_tables WHERE schemaname = 'public' AND tablename = ?", t).Scan(&cnt).Error; err != nil {
			log.Fatalf("failed to query pg_tables for %s: %v", t, err)
		}
		if cnt > 0 {
			existing = append(existing, t)
		} else {
			log.Printf("info: table %s not found, skipping", t)
		}
	}
	return existing
}
