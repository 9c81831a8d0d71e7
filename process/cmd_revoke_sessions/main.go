package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"dompet/pkg/store"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Clears stored refresh tokens so that every affected user has to log in
// again. Access tokens already issued stay valid until they expire.
func main() {
	_ = godotenv.Load()
	email := flag.String("email", "", "only revoke the session of this user")
	execute := flag.Bool("execute", false, "apply the change; without it only counts are shown")
	flag.Parse()

	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN not set")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()
	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{})
	if err != nil {
		log.Fatalf("open db: %v", err)
	}

	if err := revoke(context.Background(), os.Stdout, store.NewUsers(gdb), *email, *execute); err != nil {
		log.Fatal(err)
	}
}

func revoke(ctx context.Context, w io.Writer, users *store.Users, email string, execute bool) error {
	if email != "" {
		u, err := users.FindByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("user %s not found", email)
			}
			return err
		}
		active := u.RefreshToken != nil && *u.RefreshToken != ""
		if !execute {
			fmt.Fprintf(w, "dry-run: %s has an active session: %t. Pass --execute to apply.\n", email, active)
			return nil
		}
		if err := users.SetRefreshToken(ctx, u.ID, ""); err != nil {
			return fmt.Errorf("revoke session: %w", err)
		}
		fmt.Fprintf(w, "revoked session of %s\n", email)
		return nil
	}

	if !execute {
		n, err := users.ActiveSessions(ctx)
		if err != nil {
			return fmt.Errorf("count sessions: %w", err)
		}
		fmt.Fprintf(w, "dry-run: %d active session(s) would be revoked. Pass --execute to apply.\n", n)
		return nil
	}
	n, err := users.ClearAllRefreshTokens(ctx)
	if err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}
	fmt.Fprintf(w, "revoked %d session(s)\n", n)
	return nil
}
