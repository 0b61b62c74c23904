package db

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"
	_ "modernc.org/sqlite"

	"github.com/padraicbc/electioncalls/config"
	"github.com/padraicbc/electioncalls/models"
)

// Setup opens the configured database: PostgreSQL by default, SQLite when
// DATABASE_URL uses the sqlite: scheme.
func Setup(cfg *config.Config) *bun.DB {
	var db *bun.DB
	if path := cfg.SQLitePath(); path != "" {
		var err error
		if db, err = OpenSQLite(path); err != nil {
			log.Fatal("failed to open sqlite database:", err)
		}
	} else {
		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.PostgresDSN())))
		db = bun.NewDB(sqldb, pgdialect.New())
	}

	if cfg.Debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}

	if err := db.PingContext(context.Background()); err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	return db
}

// OpenSQLite opens a SQLite database. Use ":memory:" for a throwaway store.
func OpenSQLite(path string) (*bun.DB, error) {
	sqldb, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// A single connection keeps :memory: databases shared and serializes writers.
	sqldb.SetMaxOpenConns(1)
	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}

// CreateTables creates all tables in dependency order.
func CreateTables(ctx context.Context, db *bun.DB) error {
	tables := []interface{}{
		(*models.Result)(nil),
		(*models.Call)(nil),
		(*models.RaceMeta)(nil),
	}

	for _, model := range tables {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("creating table for %T: %w", model, err)
		}
	}

	indexes := []struct {
		name    string
		columns []string
	}{
		{"results_race_unit_idx", []string{"race_id", "level", "state_postal"}},
		{"results_office_idx", []string{"office_name", "level"}},
	}
	for _, ix := range indexes {
		_, err := db.NewCreateIndex().Model((*models.Result)(nil)).
			Index(ix.name).Column(ix.columns...).IfNotExists().Exec(ctx)
		if err != nil {
			return fmt.Errorf("creating index %s: %w", ix.name, err)
		}
	}

	if db.Dialect().Name() != dialect.PG {
		return nil
	}
	constraints := []string{
		`DO $$ BEGIN IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'calls_result_fk') THEN ALTER TABLE calls ADD CONSTRAINT calls_result_fk FOREIGN KEY (result_id) REFERENCES results (id); END IF; END $$`,
	}
	for _, stmt := range constraints {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			log.Printf("constraint: %v", err)
		}
	}

	return nil
}
