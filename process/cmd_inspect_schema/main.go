package main

import (
	"flag"
	"log"
	"os"
	"strings"

	"dompet/process/inspect"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	tables := flag.String("tables", strings.Join(inspect.Tables, ","), "comma-separated tables to describe")
	flag.Parse()

	if err := inspect.Run(os.Stdout, os.Getenv("DB_DSN"), strings.Split(*tables, ",")); err != nil {
		log.Fatal(err)
	}
}
