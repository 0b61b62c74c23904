package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"github.com/padraicbc/electioncalls/models"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()
	db, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, CreateTables(context.Background(), db))
	return db
}

func senateRow(id, race, state, cand, party string, votes int, winner bool) models.Result {
	return models.Result{
		ID:          id,
		RaceID:      race,
		CandidateID: cand,
		Last:        cand,
		Party:       party,
		OfficeName:  "U.S. Senate",
		Level:       models.LevelState,
		StatePostal: state,
		SeatName:    state,
		VoteCount:   votes,
		Winner:      winner,
		LastUpdated: time.Date(2026, 11, 3, 23, 0, 0, 0, time.UTC),
	}
}

func seed(t *testing.T, s *Store) {
	t.Helper()
	rows := []models.Result{
		senateRow("1", "100", "AZ", "a", models.PartyDem, 500, true),
		senateRow("2", "100", "AZ", "b", models.PartyGOP, 400, false),
		senateRow("3", "100", "AZ", "c", "Lib", 20, false),
		senateRow("4", "200", "OH", "d", models.PartyDem, 300, false),
		senateRow("5", "200", "OH", "e", models.PartyGOP, 350, false),
		{ID: "6", RaceID: "100", CandidateID: "a", Party: models.PartyDem, OfficeName: "U.S. Senate",
			Level: models.LevelCounty, StatePostal: "AZ", ReportingUnitID: "04013"},
	}
	n, err := s.ReplaceResults(context.Background(), rows)
	require.NoError(t, err)
	require.Equal(t, len(rows), n)
}

func callsByID(t *testing.T, s *Store, f Filter) map[string]models.Call {
	t.Helper()
	rows, err := s.Results(context.Background(), f)
	require.NoError(t, err)
	out := make(map[string]models.Call, len(rows))
	for _, r := range rows {
		require.NotNil(t, r.Call, "result %s", r.ID)
		out[r.ID] = *r.Call
	}
	return out
}

func TestReplaceResultsCreatesDefaultCalls(t *testing.T) {
	s := NewStore(newTestDB(t))
	seed(t, s)

	got := callsByID(t, s, Filter{})
	require.Len(t, got, 6)
	for id, c := range got {
		assert.True(t, c.AcceptWire, id)
		assert.False(t, c.OverrideWinner, id)
	}
}

func TestReplaceResultsKeepsCallsForSameIDs(t *testing.T) {
	ctx := context.Background()
	s := NewStore(newTestDB(t))
	seed(t, s)

	_, err := s.ToggleWinnerOverride(ctx, "2")
	require.NoError(t, err)

	rows := []models.Result{
		senateRow("1", "100", "AZ", "a", models.PartyDem, 600, true),
		senateRow("2", "100", "AZ", "b", models.PartyGOP, 450, false),
		senateRow("9", "100", "AZ", "z", "Grn", 10, false),
	}
	_, err = s.ReplaceResults(ctx, rows)
	require.NoError(t, err)

	got := callsByID(t, s, Filter{})
	require.Len(t, got, 3)
	assert.True(t, got["2"].OverrideWinner)
	assert.False(t, got["2"].AcceptWire)
	assert.False(t, got["1"].AcceptWire)
	assert.Equal(t, models.DefaultCall("9"), got["9"])
}

func TestReplaceResultsRejectsEmptySet(t *testing.T) {
	ctx := context.Background()
	s := NewStore(newTestDB(t))
	seed(t, s)

	_, err := s.ReplaceResults(ctx, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrUpstreamFeed))

	rows, err := s.Results(ctx, Filter{})
	require.NoError(t, err)
	assert.Len(t, rows, 6)
}

func TestSnapshotEmpty(t *testing.T) {
	s := NewStore(newTestDB(t))
	_, err := s.Snapshot(context.Background())
	require.Error(t, err)
	var feedErr *models.UpstreamFeedError
	assert.True(t, errors.As(err, &feedErr))
}

func TestResultsFilterAndOrder(t *testing.T) {
	ctx := context.Background()
	s := NewStore(newTestDB(t))
	seed(t, s)

	rows, err := s.Snapshot(ctx)
	require.NoError(t, err)
	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	assert.Equal(t, []string{"1", "2", "3", "5", "4"}, ids)

	rows, err = s.Results(ctx, Filter{StatePostal: "OH", Parties: []string{models.PartyGOP}})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "5", rows[0].ID)

	rows, err = s.Results(ctx, Filter{Levels: []string{models.LevelCounty}})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].Meta)
}

func TestToggleWinnerOverrideCascade(t *testing.T) {
	ctx := context.Background()
	s := NewStore(newTestDB(t))
	seed(t, s)

	c, err := s.ToggleWinnerOverride(ctx, "2")
	require.NoError(t, err)
	assert.True(t, c.OverrideWinner)

	got := callsByID(t, s, Filter{RaceID: "100", Levels: []string{models.LevelState}})
	for id, c := range got {
		assert.False(t, c.AcceptWire, "accept wire on %s", id)
		assert.Equal(t, id == "2", c.OverrideWinner, "override on %s", id)
	}
	// Other races and levels are untouched.
	assert.True(t, callsByID(t, s, Filter{RaceID: "200"})["4"].AcceptWire)
	assert.True(t, callsByID(t, s, Filter{Levels: []string{models.LevelCounty}})["6"].AcceptWire)

	// Moving the override leaves exactly one set.
	_, err = s.ToggleWinnerOverride(ctx, "3")
	require.NoError(t, err)
	got = callsByID(t, s, Filter{RaceID: "100", Levels: []string{models.LevelState}})
	overridden := 0
	for id, c := range got {
		if c.OverrideWinner {
			overridden++
			assert.Equal(t, "3", id)
		}
	}
	assert.Equal(t, 1, overridden)

	// Clearing it leaves wire acceptance off.
	c, err = s.ToggleWinnerOverride(ctx, "3")
	require.NoError(t, err)
	assert.False(t, c.OverrideWinner)
	for _, c := range callsByID(t, s, Filter{RaceID: "100", Levels: []string{models.LevelState}}) {
		assert.False(t, c.OverrideWinner)
		assert.False(t, c.AcceptWire)
	}
}

func TestToggleWinnerOverrideMissing(t *testing.T) {
	s := NewStore(newTestDB(t))
	seed(t, s)
	_, err := s.ToggleWinnerOverride(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestToggleAcceptWire(t *testing.T) {
	ctx := context.Background()
	s := NewStore(newTestDB(t))
	seed(t, s)

	unit := RaceUnit{Office: "U.S. Senate", RaceID: "100", StatePostal: "AZ", Level: models.LevelState}
	accept, n, err := s.ToggleAcceptWire(ctx, unit)
	require.NoError(t, err)
	assert.False(t, accept)
	assert.Equal(t, 3, n)
	for id, c := range callsByID(t, s, Filter{RaceID: "100", Levels: []string{models.LevelState}}) {
		assert.False(t, c.AcceptWire, id)
	}

	accept, _, err = s.ToggleAcceptWire(ctx, unit)
	require.NoError(t, err)
	assert.True(t, accept)

	_, _, err = s.ToggleAcceptWire(ctx, RaceUnit{Office: "U.S. Senate", RaceID: "999", StatePostal: "AZ"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestChamberCall(t *testing.T) {
	ctx := context.Background()
	s := NewStore(newTestDB(t))
	seed(t, s)

	metas := []models.RaceMeta{
		{ResultID: "1", VotingMember: true},
		{ResultID: "2", VotingMember: true},
		{ResultID: "4", VotingMember: true},
	}
	require.NoError(t, s.ReplaceRaceMeta(ctx, metas))

	call, err := s.ChamberCall(ctx, "U.S. Senate")
	require.NoError(t, err)
	assert.Nil(t, call)

	gop := models.PartyGOP
	n, err := s.SetChamberCall(ctx, "U.S. Senate", &gop)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	call, err = s.ChamberCall(ctx, "U.S. Senate")
	require.NoError(t, err)
	require.NotNil(t, call)
	assert.Equal(t, models.PartyGOP, *call)

	// A metadata rebuild keeps the chamber call.
	require.NoError(t, s.ReplaceRaceMeta(ctx, metas))
	rows, err := s.Results(ctx, Filter{RaceID: "100", Levels: []string{models.LevelState}})
	require.NoError(t, err)
	require.NotNil(t, rows[0].Meta)
	require.NotNil(t, rows[0].Meta.ChamberCallOverride)
	assert.Equal(t, models.PartyGOP, *rows[0].Meta.ChamberCallOverride)
	assert.True(t, rows[0].Meta.VotingMember)

	n, err = s.SetChamberCall(ctx, "U.S. Senate", nil)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	call, err = s.ChamberCall(ctx, "U.S. Senate")
	require.NoError(t, err)
	assert.Nil(t, call)
}

func TestReplaceResultsKeepsValuesAfterZeroFirstRow(t *testing.T) {
	ctx := context.Background()
	s := NewStore(newTestDB(t))

	stamp := time.Date(2026, 11, 4, 2, 30, 0, 0, time.UTC)
	rows := []models.Result{
		{ID: "1", RaceID: "100", CandidateID: "a", Party: models.PartyDem, OfficeName: "U.S. House",
			Level: models.LevelDistrict, StatePostal: "ME", ReportingUnitID: "2"},
		{ID: "2", RaceID: "100", CandidateID: "b", Party: models.PartyGOP, OfficeName: "U.S. House",
			Level: models.LevelDistrict, StatePostal: "ME", ReportingUnitID: "2",
			VoteCount: 450, VotePct: 0.9, Winner: true, ElectWon: 1, ElectTotal: 1, Incumbent: true,
			PrecinctsReporting: 10, PrecinctsTotal: 20, PrecinctsReportingPct: 0.5, LastUpdated: stamp},
	}
	_, err := s.ReplaceResults(ctx, rows)
	require.NoError(t, err)

	got, err := s.Results(ctx, Filter{RaceID: "100"})
	require.NoError(t, err)
	byID := map[string]models.Result{}
	for _, r := range got {
		byID[r.ID] = r
	}
	b := byID["2"]
	assert.Equal(t, 450, b.VoteCount)
	assert.InDelta(t, 0.9, b.VotePct, 1e-9)
	assert.True(t, b.Winner)
	assert.True(t, b.Incumbent)
	assert.Equal(t, 1, b.ElectWon)
	assert.Equal(t, 10, b.PrecinctsReporting)
	assert.True(t, stamp.Equal(b.LastUpdated), b.LastUpdated)
	assert.Zero(t, byID["1"].VoteCount)
	assert.True(t, byID["1"].LastUpdated.IsZero())

	// An override on a later row survives a reload of the same ids.
	_, err = s.ToggleWinnerOverride(ctx, "2")
	require.NoError(t, err)
	_, err = s.ReplaceResults(ctx, rows)
	require.NoError(t, err)
	calls := callsByID(t, s, Filter{RaceID: "100"})
	assert.True(t, calls["2"].OverrideWinner)
	assert.False(t, calls["1"].OverrideWinner)
}

func TestReplaceRaceMetaKeepsValuesAfterZeroFirstRow(t *testing.T) {
	ctx := context.Background()
	s := NewStore(newTestDB(t))
	seed(t, s)

	dem := models.PartyDem
	require.NoError(t, s.ReplaceRaceMeta(ctx, []models.RaceMeta{
		{ResultID: "1", VotingMember: false},
		{ResultID: "2", VotingMember: true, Special: true, KeyRace: true, ChamberCallOverride: &dem},
	}))

	rows, err := s.Results(ctx, Filter{RaceID: "100", Levels: []string{models.LevelState}})
	require.NoError(t, err)
	for _, r := range rows {
		if r.ID != "2" {
			continue
		}
		require.NotNil(t, r.Meta)
		assert.True(t, r.Meta.VotingMember)
		assert.True(t, r.Meta.Special)
		assert.True(t, r.Meta.KeyRace)
		require.NotNil(t, r.Meta.ChamberCallOverride)
		assert.Equal(t, dem, *r.Meta.ChamberCallOverride)
	}
}

func TestToggleAcceptWireDistrictUnit(t *testing.T) {
	ctx := context.Background()
	s := NewStore(newTestDB(t))

	row := func(id, unit string) models.Result {
		return models.Result{ID: id, RaceID: "500", CandidateID: id, OfficeName: "President",
			Level: models.LevelDistrict, StatePostal: "NE", ReportingUnitID: unit, ReportingUnitName: "District " + unit}
	}
	_, err := s.ReplaceResults(ctx, []models.Result{row("1", "1"), row("2", "1"), row("3", "2")})
	require.NoError(t, err)

	accept, n, err := s.ToggleAcceptWire(ctx, RaceUnit{
		Office: "President", RaceID: "500", StatePostal: "NE", Level: models.LevelDistrict, ReportingUnitID: "1",
	})
	require.NoError(t, err)
	assert.False(t, accept)
	assert.Equal(t, 2, n)

	got := callsByID(t, s, Filter{RaceID: "500"})
	assert.False(t, got["1"].AcceptWire)
	assert.False(t, got["2"].AcceptWire)
	assert.True(t, got["3"].AcceptWire)
}
