package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"pizza-storefront/internal/config"
	"pizza-storefront/internal/importer"
	"pizza-storefront/internal/logs"
	"pizza-storefront/internal/storage"
)

func main() {
	var filePath string
	flag.StringVar(&filePath, "file", "", "Path to a session,key,value CSV export of browser storage")
	flag.Parse()

	if filePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger, err := logs.New(cfg.Log)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	ctx := context.Background()
	st, closeStorage, err := storage.Open(ctx, cfg.Storage, logger)
	if err != nil {
		log.Fatalf("open storage: %v", err)
	}
	defer closeStorage()

	f, err := os.Open(filePath)
	if err != nil {
		log.Fatalf("open file: %v", err)
	}
	defer f.Close()

	start := time.Now()
	res, err := importer.NewCSVImporter(f, st, logger).Run(ctx)
	if err != nil {
		log.Fatalf("import failed: %v", err)
	}

	fmt.Printf("Imported %d entries for %d sessions (%d skipped) in %s\n",
		res.Imported, res.Sessions, res.Skipped, time.Since(start).Truncate(time.Millisecond))
}
