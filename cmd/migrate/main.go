// ABOUTME: Copies portal records between local storage backends
// ABOUTME: Also imports a browser localStorage dump, with dry-run and backup support

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/duoproservices/portal/cli"
	"github.com/duoproservices/portal/config"
	"github.com/duoproservices/portal/kvstore"
)

type options struct {
	from   string
	to     string
	dump   string
	dryRun bool
	backup bool
}

func main() {
	configPath := flag.String("config", "", "Path to config file (default: $XDG_DATA_HOME/duopro/config.json)")
	from := flag.String("from", "", "Source backend (badger|sqlite|charm); ignored with -dump")
	to := flag.String("to", "", "Destination backend (default: configured storage)")
	dump := flag.String("dump", "", "localStorage dump (JSON object) to import instead of a backend")
	dryRun := flag.Bool("dry-run", false, "Show what would happen without making changes")
	backup := flag.Bool("backup", true, "Export the destination before writing")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	opts := options{from: *from, to: *to, dump: *dump, dryRun: *dryRun, backup: *backup}
	if opts.to == "" {
		opts.to = cfg.Storage
	}
	if opts.from == "" && opts.dump == "" {
		log.Fatal("Error: -from or -dump is required")
	}

	if err := migrate(context.Background(), cfg, opts); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	log.Println("Migration completed successfully")
}

func migrate(ctx context.Context, cfg *config.Config, opts options) error {
	if opts.dump == "" && opts.from == opts.to {
		return fmt.Errorf("source and destination are both %s", opts.to)
	}

	records, err := readSource(ctx, cfg, opts)
	if err != nil {
		return err
	}
	log.Printf("Found %d records under %q", len(records), cfg.BasePrefix)

	if opts.dryRun {
		log.Printf("[DRY RUN] Would write to %s:", opts.to)
		keys := make([]string, 0, len(records))
		for k := range records {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			log.Printf("[DRY RUN] - %s", k)
		}
		return nil
	}

	dst, closeDst, err := openStore(cfg, opts.to)
	if err != nil {
		return err
	}
	defer func() { _ = closeDst() }()

	if opts.backup {
		backupPath, err := backupStore(ctx, dst, cfg.DataDir, opts.to)
		if err != nil {
			return fmt.Errorf("failed to create backup: %w", err)
		}
		log.Printf("Backup created: %s", backupPath)
	}

	n, err := dst.Import(ctx, records)
	if err != nil {
		return fmt.Errorf("failed to write records: %w", err)
	}
	log.Printf("Wrote %d records to %s", n, opts.to)
	return nil
}

func readSource(ctx context.Context, cfg *config.Config, opts options) (map[string]json.RawMessage, error) {
	if opts.dump != "" {
		data, err := os.ReadFile(opts.dump)
		if err != nil {
			return nil, fmt.Errorf("failed to read dump: %w", err)
		}
		var records map[string]json.RawMessage
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("dump is not a JSON object: %w", err)
		}
		return records, nil
	}

	src, closeSrc, err := openStore(cfg, opts.from)
	if err != nil {
		return nil, err
	}
	defer func() { _ = closeSrc() }()
	return src.Export(ctx)
}

func openStore(cfg *config.Config, kind string) (*kvstore.Store, func() error, error) {
	backend, _, closeFn, err := cli.OpenBackend(cfg, kind)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", kind, err)
	}
	return kvstore.New(backend, cfg.BasePrefix), closeFn, nil
}

func backupStore(ctx context.Context, store *kvstore.Store, dir, kind string) (string, error) {
	records, err := store.Export(ctx)
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, fmt.Sprintf("%s.backup.%s.json", kind, time.Now().Format("20060102-150405")))
	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", err
	}
	return path, nil
}
