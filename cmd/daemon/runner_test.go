package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/padraicbc/electioncalls/aggregate"
	"github.com/padraicbc/electioncalls/chamber"
	"github.com/padraicbc/electioncalls/db"
	"github.com/padraicbc/electioncalls/metrics"
	"github.com/padraicbc/electioncalls/models"
	"github.com/padraicbc/electioncalls/publish"
)

func newRunner(t *testing.T) (*runner, string) {
	t.Helper()
	bdb, err := db.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = bdb.Close() })
	require.NoError(t, db.CreateTables(context.Background(), bdb))

	out := filepath.Join(t.TempDir(), "rendered")
	cfg := aggregate.Config{
		Chambers: []aggregate.ChamberConfig{{
			Slug:    "senate",
			Office:  "U.S. Senate",
			Control: chamber.Config{TotalSeats: 100},
		}},
		Workers: 2,
	}
	return &runner{
		store:   db.NewStore(bdb),
		driver:  aggregate.NewDriver(cfg, zap.NewNop()),
		sink:    publish.Dir{Path: out},
		metrics: metrics.New(prometheus.NewRegistry()),
		logger:  zap.NewNop(),
	}, out
}

func TestCycleSkipsEmptyStore(t *testing.T) {
	r, out := newRunner(t)
	err := r.cycle(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrUpstreamFeed))
	assert.NoDirExists(t, out)
}

func TestCyclePublishes(t *testing.T) {
	r, out := newRunner(t)
	ctx := context.Background()

	rows := []models.Result{
		{ID: "1", RaceID: "100", CandidateID: "a", Party: models.PartyDem, OfficeName: "U.S. Senate",
			Level: models.LevelState, StatePostal: "AZ", VoteCount: 10, Winner: true, PrecinctsReporting: 1,
			LastUpdated: time.Date(2026, 11, 4, 3, 0, 0, 0, time.UTC)},
		{ID: "2", RaceID: "100", CandidateID: "b", Party: models.PartyGOP, OfficeName: "U.S. Senate",
			Level: models.LevelState, StatePostal: "AZ", VoteCount: 5, PrecinctsReporting: 1},
	}
	_, err := r.store.ReplaceResults(ctx, rows)
	require.NoError(t, err)
	require.NoError(t, r.store.ReplaceRaceMeta(ctx, []models.RaceMeta{
		{ResultID: "1", VotingMember: true, CurrentParty: models.PartyGOP},
		{ResultID: "2", VotingMember: true, CurrentParty: models.PartyGOP},
	}))

	require.NoError(t, r.cycle(ctx))
	for _, name := range []string{"race-100-az.json", "state-az.json", "chamber-senate.json", publish.TopLevelFile} {
		assert.FileExists(t, filepath.Join(out, name))
	}

	// A broken reload leaves the published set alone.
	_, err = r.store.ReplaceResults(ctx, nil)
	require.Error(t, err)
	before, err := os.ReadFile(filepath.Join(out, "chamber-senate.json"))
	require.NoError(t, err)
	require.NoError(t, r.cycle(ctx))
	after, err := os.ReadFile(filepath.Join(out, "chamber-senate.json"))
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestCyclePartialOnMissingMeta(t *testing.T) {
	r, out := newRunner(t)
	ctx := context.Background()

	_, err := r.store.ReplaceResults(ctx, []models.Result{
		{ID: "1", RaceID: "100", CandidateID: "a", Party: models.PartyDem, OfficeName: "U.S. Senate",
			Level: models.LevelState, StatePostal: "AZ"},
	})
	require.NoError(t, err)

	require.NoError(t, r.cycle(ctx))
	assert.FileExists(t, filepath.Join(out, "state-az.json"))
}
