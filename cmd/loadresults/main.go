// cmd/loadresults/main.go
// Replaces the result set with a wire-service CSV export. Call overrides are
// kept for result ids that appear again; new ids get default calls.
//
// Usage:
//
//	go run ./cmd/loadresults -file results.csv
//	elex results 2026-11-03 | go run ./cmd/loadresults
package main

import (
	"context"
	"flag"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/padraicbc/electioncalls/config"
	"github.com/padraicbc/electioncalls/db"
	applog "github.com/padraicbc/electioncalls/logger"
	"github.com/padraicbc/electioncalls/wire"
)

func main() {
	file := flag.String("file", "", "results CSV (default stdin)")
	flag.Parse()

	cfg := config.Load()
	logger, err := applog.New(cfg.Debug, "loadresults")
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	var in io.Reader = os.Stdin
	if *file != "" {
		f, err := os.Open(*file)
		if err != nil {
			logger.Fatal("open export failed", zap.Error(err))
		}
		defer f.Close()
		in = f
	}

	rows, err := wire.ReadResults(in)
	if err != nil {
		logger.Fatal("results export unusable", applog.Critical(), zap.Error(err))
	}

	ctx := context.Background()
	bdb := db.Setup(cfg)
	defer bdb.Close()
	if err := db.CreateTables(ctx, bdb); err != nil {
		logger.Fatal("create tables failed", zap.Error(err))
	}

	n, err := db.NewStore(bdb).ReplaceResults(ctx, rows)
	if err != nil {
		logger.Fatal("replace results failed", applog.Critical(), zap.Error(err))
	}
	logger.Info("results loaded", zap.Int("rows", n))
}
