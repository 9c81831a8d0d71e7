package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"dompet/pkg/store"
	"dompet/process/report"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	email := flag.String("email", "", "email of the user to report for")
	month := flag.String("month", "", "month to report (MM-YYYY); empty for all")
	list := flag.Bool("list", false, "list matching rows")
	flag.Parse()

	if *email == "" {
		fmt.Fprintln(os.Stderr, "--email is required")
		os.Exit(2)
	}
	if os.Getenv("DB_DSN") == "" && os.Getenv("DB_DRIVER") != store.DriverSQLite {
		fmt.Fprintln(os.Stderr, "DB_DSN not set; export DB_DSN and retry")
		os.Exit(2)
	}

	gdb := store.MustOpenFromEnv()
	opts := report.Options{Email: *email, Month: *month, List: *list}
	if err := report.RunReport(context.Background(), gdb, os.Stdout, opts); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
