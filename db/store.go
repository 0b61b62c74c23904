package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"

	"github.com/uptrace/bun"

	"github.com/padraicbc/electioncalls/models"
)

const batchSize = 500

// CallLevels are the reporting levels the desk calls and aggregates.
var CallLevels = []string{models.LevelNational, models.LevelState, models.LevelDistrict}

// ErrNotFound is returned when a result id does not exist.
var ErrNotFound = errors.New("not found")

// Store is the queryable result set plus the editorial mutations on it.
type Store struct {
	db *bun.DB
}

// NewStore wraps an open database.
func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

// Filter narrows a result query. Zero fields do not filter.
type Filter struct {
	Levels      []string
	Office      string
	StatePostal string
	RaceID      string
	Parties     []string
}

func (f Filter) apply(q *bun.SelectQuery) *bun.SelectQuery {
	if len(f.Levels) > 0 {
		q = q.Where("r.level IN (?)", bun.In(f.Levels))
	}
	if f.Office != "" {
		q = q.Where("r.office_name = ?", f.Office)
	}
	if f.StatePostal != "" {
		q = q.Where("r.state_postal = ?", f.StatePostal)
	}
	if f.RaceID != "" {
		q = q.Where("r.race_id = ?", f.RaceID)
	}
	if len(f.Parties) > 0 {
		q = q.Where("r.party IN (?)", bun.In(f.Parties))
	}
	return q
}

// Results returns matching rows with their Call and Meta attached where they
// exist, in desk order: state, seat, votes descending, last name.
func (s *Store) Results(ctx context.Context, f Filter) ([]models.Result, error) {
	var rows []models.Result
	q := f.apply(s.db.NewSelect().Model(&rows)).
		OrderExpr(`r.state_postal ASC, r.seat_name ASC, r.vote_count DESC, r."last" ASC, r.id ASC`)
	if err := q.Scan(ctx); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("selecting results: %w", err)
	}
	if err := attach(ctx, s.db, rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Snapshot returns every callable row for one aggregation cycle. An empty table
// means the last reload did not produce anything usable.
func (s *Store) Snapshot(ctx context.Context) ([]models.Result, error) {
	rows, err := s.Results(ctx, Filter{Levels: CallLevels})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &models.UpstreamFeedError{Source: "results table"}
	}
	return rows, nil
}

// attach loads calls and race_meta for rows in batches and links them by id.
func attach(ctx context.Context, db bun.IDB, rows []models.Result) error {
	for start := 0; start < len(rows); start += batchSize {
		end := min(start+batchSize, len(rows))
		ids := make([]string, 0, end-start)
		for _, r := range rows[start:end] {
			ids = append(ids, r.ID)
		}

		var calls []models.Call
		if err := db.NewSelect().Model(&calls).Where("result_id IN (?)", bun.In(ids)).Scan(ctx); err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("selecting calls: %w", err)
		}
		var metas []models.RaceMeta
		if err := db.NewSelect().Model(&metas).Where("result_id IN (?)", bun.In(ids)).Scan(ctx); err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("selecting race meta: %w", err)
		}

		byCall := make(map[string]*models.Call, len(calls))
		for i := range calls {
			byCall[calls[i].ResultID] = &calls[i]
		}
		byMeta := make(map[string]*models.RaceMeta, len(metas))
		for i := range metas {
			byMeta[metas[i].ResultID] = &metas[i]
		}
		for i := start; i < end; i++ {
			rows[i].Call = byCall[rows[i].ID]
			rows[i].Meta = byMeta[rows[i].ID]
		}
	}
	return nil
}

// ReplaceResults swaps the whole result set inside one transaction. Call rows
// keep their editorial values when the new set reuses a result id; new ids get
// default calls. An empty set is rejected and the store is left as it was.
func (s *Store) ReplaceResults(ctx context.Context, rows []models.Result) (int, error) {
	if len(rows) == 0 {
		return 0, &models.UpstreamFeedError{Source: "results reload"}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var existing []models.Call
	if err := tx.NewSelect().Model(&existing).Scan(ctx); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("selecting calls: %w", err)
	}
	prior := make(map[string]models.Call, len(existing))
	for _, c := range existing {
		prior[c.ResultID] = c
	}

	if _, err := tx.NewDelete().Model((*models.Call)(nil)).Where("1 = 1").Exec(ctx); err != nil {
		return 0, fmt.Errorf("deleting calls: %w", err)
	}
	if _, err := tx.NewDelete().Model((*models.Result)(nil)).Where("1 = 1").Exec(ctx); err != nil {
		return 0, fmt.Errorf("deleting results: %w", err)
	}

	if err := bulkInsert(ctx, tx, rows); err != nil {
		return 0, fmt.Errorf("inserting results: %w", err)
	}

	calls := make([]models.Call, 0, len(rows))
	for _, r := range rows {
		c, ok := prior[r.ID]
		if !ok {
			c = models.DefaultCall(r.ID)
		}
		calls = append(calls, c)
	}
	if err := bulkInsert(ctx, tx, calls); err != nil {
		return 0, fmt.Errorf("inserting calls: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	committed = true

	return len(rows), nil
}

// ReplaceRaceMeta rewrites race_meta from a freshly built set. A chamber call
// already set on a result id is carried over.
func (s *Store) ReplaceRaceMeta(ctx context.Context, metas []models.RaceMeta) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var existing []models.RaceMeta
		if err := tx.NewSelect().Model(&existing).
			Where("chamber_call_override IS NOT NULL").Scan(ctx); err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("selecting race meta: %w", err)
		}
		chamberCalls := make(map[string]*string, len(existing))
		for _, m := range existing {
			chamberCalls[m.ResultID] = m.ChamberCallOverride
		}

		if _, err := tx.NewDelete().Model((*models.RaceMeta)(nil)).Where("1 = 1").Exec(ctx); err != nil {
			return fmt.Errorf("deleting race meta: %w", err)
		}

		out := make([]models.RaceMeta, len(metas))
		copy(out, metas)
		for i := range out {
			if c, ok := chamberCalls[out[i].ResultID]; ok && out[i].ChamberCallOverride == nil {
				out[i].ChamberCallOverride = c
			}
		}
		return bulkInsert(ctx, tx, out)
	})
}

// bulkInsert inserts rows in batches. Every column is named so that a zero or
// nil value in the first row of a batch does not drop the column for the rest.
func bulkInsert[T any](ctx context.Context, db bun.IDB, rows []T) error {
	table := db.Dialect().Tables().Get(reflect.TypeFor[T]())
	cols := make([]string, 0, len(table.Fields))
	for _, f := range table.Fields {
		cols = append(cols, f.Name)
	}
	for start := 0; start < len(rows); start += batchSize {
		batch := rows[start:min(start+batchSize, len(rows))]
		if _, err := db.NewInsert().Model(&batch).Column(cols...).Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}
