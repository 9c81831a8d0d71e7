package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"dompet/pkg/attachment"
	"dompet/pkg/store"
	"dompet/process/reconcile"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	dir := flag.String("dir", envOr("ATTACHMENT_DIR", "attachments"), "attachment directory")
	fix := flag.Bool("fix", false, "delete orphan blobs and clear dangling references")
	watch := flag.Bool("watch", false, "re-run whenever the attachment directory changes")
	minAge := flag.Duration("min-age", time.Minute, "ignore orphan blobs younger than this")
	flag.Parse()

	gdb := store.MustOpenFromEnv()
	txs := store.NewTransactions(gdb)
	files := attachment.NewStore(*dir)
	opts := reconcile.Options{Fix: *fix, MinAge: *minAge}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pass := func() {
		rep, err := reconcile.Run(ctx, txs, files, opts)
		if err != nil {
			log.Printf("reconcile failed: %v", err)
			return
		}
		log.Printf("reconcile %s: %s", files.Dir(), rep)
		for _, ref := range rep.Orphans {
			log.Printf("  orphan blob %s", ref)
		}
		for _, id := range rep.Dangling {
			log.Printf("  dangling reference on transaction %d", id)
		}
		for _, id := range rep.Misnamed {
			log.Printf("  misnamed reference on transaction %d", id)
		}
	}
	pass()
	if !*watch {
		return
	}
	if err := watchDirectory(ctx, files.Dir(), *minAge, pass); err != nil {
		log.Fatalf("watch: %v", err)
	}
}

// watchDirectory calls pass once changes in dir have settled.
func watchDirectory(ctx context.Context, dir string, settle time.Duration, pass func()) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(dir); err != nil {
		return err
	}
	log.Printf("Watching %s (debounced) ...", dir)

	// orphans only become eligible after min-age, so wait at least that long
	if settle < time.Second {
		settle = time.Second
	}
	return debounce(ctx, w, settle, pass)
}

// debounce calls pass once no blob event has arrived for settle.
func debounce(ctx context.Context, w *fsnotify.Watcher, settle time.Duration, pass func()) error {
	var dirty time.Time
	tick := settle / 4
	if tick > 250*time.Millisecond {
		tick = 250 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if attachment.IsReference(filepath.Base(ev.Name)) {
				dirty = time.Now()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Printf("watch error: %v", err)
		case <-ticker.C:
			if !dirty.IsZero() && time.Since(dirty) > settle {
				dirty = time.Time{}
				pass()
			}
		}
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
