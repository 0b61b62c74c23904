// cmd/loadmeta/main.go
// Rebuilds race metadata from the reference sheets. With -fetch the sheets are
// downloaded into META_DIR first.
//
// Usage:
//
//	POLL_TIMES_URL=... SEATS_URL=... go run ./cmd/loadmeta -fetch
package main

import (
	"context"
	"flag"
	"os"

	"go.uber.org/zap"

	"github.com/padraicbc/electioncalls/config"
	"github.com/padraicbc/electioncalls/db"
	applog "github.com/padraicbc/electioncalls/logger"
	"github.com/padraicbc/electioncalls/racemeta"
)

func main() {
	fetch := flag.Bool("fetch", false, "download the reference sheets before building")
	flag.Parse()

	cfg := config.Load()
	logger, err := applog.New(cfg.Debug, "loadmeta")
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	if *fetch {
		if cfg.PollTimesURL == "" || cfg.SeatsURL == "" {
			logger.Fatal("POLL_TIMES_URL and SEATS_URL are required with -fetch")
		}
		if err := os.MkdirAll(cfg.MetaDir, 0o755); err != nil {
			logger.Fatal("create meta dir failed", zap.Error(err))
		}
		f := racemeta.NewFetcher(cfg.FetchAttempts, logger)
		for name, url := range map[string]string{
			racemeta.PollTimesFile: cfg.PollTimesURL,
			racemeta.SeatsFile:     cfg.SeatsURL,
		} {
			if err := f.FetchTo(ctx, url, cfg.MetaDir, name); err != nil {
				logger.Fatal("sheet fetch failed", zap.String("sheet", name), zap.Error(err))
			}
		}
	}

	sheets, err := racemeta.LoadDir(cfg.MetaDir)
	if err != nil {
		logger.Fatal("read sheets failed", zap.Error(err))
	}

	bdb := db.Setup(cfg)
	defer bdb.Close()
	if err := db.CreateTables(ctx, bdb); err != nil {
		logger.Fatal("create tables failed", zap.Error(err))
	}
	store := db.NewStore(bdb)

	results, err := store.Results(ctx, db.Filter{})
	if err != nil {
		logger.Fatal("select results failed", zap.Error(err))
	}
	metas, err := sheets.Build(results)
	if err != nil {
		logger.Fatal("race metadata does not match the sheets", zap.Error(err))
	}
	if err := store.ReplaceRaceMeta(ctx, metas); err != nil {
		logger.Fatal("replace race meta failed", zap.Error(err))
	}
	logger.Info("race metadata loaded", zap.Int("rows", len(metas)))
}
