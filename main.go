package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// `./dompet migrate` runs the schema migration and exits.
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		cfg.AutoMigrate = true
		gdb, err := openDB(cfg)
		if err != nil {
			log.Fatalf("migrate: %v", err)
		}
		_ = closeDB(gdb)
		log.Println("migration completed")
		return
	}

	gdb, err := openDB(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	srv, err := newServer(cfg, gdb)
	if err != nil {
		log.Fatalf("startup: %v", err)
	}

	r := gin.Default()
	srv.setupRoutes(r)

	httpSrv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("listening on %s", cfg.ListenAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	wait := gfshutdown.GracefulShutdown(context.Background(), cfg.ShutdownTimeout, map[string]gfshutdown.Operation{
		"http-server": func(ctx context.Context) error {
			err := httpSrv.Shutdown(ctx)
			if cerr := closeDB(gdb); cerr != nil && err == nil {
				err = cerr
			}
			return err
		},
	})
	os.Exit(<-wait)
}
