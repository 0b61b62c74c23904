// Package aggregate runs one call cycle: it partitions a result snapshot by
// scope, decides and collates each partition concurrently and assembles the
// bundles for publishing.
package aggregate

import (
	"context"
	"runtime"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/padraicbc/electioncalls/calls"
	"github.com/padraicbc/electioncalls/chamber"
	"github.com/padraicbc/electioncalls/collate"
	"github.com/padraicbc/electioncalls/config"
	"github.com/padraicbc/electioncalls/models"
)

// ChamberConfig is one chamber counted for balance of power.
type ChamberConfig struct {
	Slug    string
	Office  string
	Initial chamber.Counts
	Control chamber.Config
	Options chamber.Options
}

// Config is the per-election setup of a driver.
type Config struct {
	Chambers           []ChamberConfig
	CandidateOverrides map[string][]string
	TargetListLength   int
	BigBoardListLength int
	// Workers bounds the partition pool; zero means GOMAXPROCS.
	Workers int
	Now     func() time.Time
}

// ConfigFromElection derives a driver Config from the election file.
func ConfigFromElection(e *config.Election, workers int) Config {
	cfg := Config{
		CandidateOverrides: e.CandidateOverrides,
		TargetListLength:   e.TargetListLength,
		BigBoardListLength: e.BigBoardListLength,
		Workers:            workers,
	}
	for _, c := range e.Chambers {
		cfg.Chambers = append(cfg.Chambers, ChamberConfig{
			Slug:    c.Slug,
			Office:  c.Office,
			Initial: chamber.Counts{Dem: c.Initial.Dem, GOP: c.Initial.GOP, Other: c.Initial.Other},
			Control: chamber.Config{TotalSeats: c.TotalSeats, CaucusWith: c.CaucusWith, TieBreak: c.TieBreak},
			Options: chamber.Options{ExcludeSpecials: c.ExcludeSpecials},
		})
	}
	return cfg
}

// Driver turns snapshots into bundle sets.
type Driver struct {
	cfg    Config
	logger *zap.Logger
	tracer trace.Tracer
}

// NewDriver returns a driver for cfg.
func NewDriver(cfg Config, logger *zap.Logger) *Driver {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Driver{
		cfg:    cfg,
		logger: logger,
		tracer: otel.Tracer("github.com/padraicbc/electioncalls/aggregate"),
	}
}

// partition is one unit of work. chamber is set only for KindChamber.
type partition struct {
	kind    ScopeKind
	key     string
	rows    []models.Result
	chamber *ChamberConfig
}

type outcome struct {
	bundle   *Bundle
	failures []Failure
}

// Run processes the snapshot. Partitions fail independently: a failure is
// logged, recorded in the set and marks that bundle incomplete. The snapshot
// is read only.
func (d *Driver) Run(ctx context.Context, snapshot []models.Result) (*BundleSet, error) {
	ctx, span := d.tracer.Start(ctx, "aggregate.Run",
		trace.WithAttributes(attribute.Int("rows", len(snapshot))))
	defer span.End()

	parts := d.partitions(snapshot)
	results := make([]outcome, len(parts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.cfg.Workers)
	for i := range parts {
		g.Go(func() error {
			results[i] = d.process(gctx, parts[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	set := &BundleSet{}
	for i, p := range parts {
		out := results[i]
		for _, f := range out.failures {
			d.logger.Error("partition failed",
				zap.String("scope", string(f.Kind)),
				zap.String("key", f.Key),
				zap.Error(f.Err),
			)
		}
		set.Failures = append(set.Failures, out.failures...)
		switch p.kind {
		case KindRace:
			set.Races = append(set.Races, out.bundle)
		case KindState:
			set.States = append(set.States, out.bundle)
		case KindChamber:
			set.Chambers = append(set.Chambers, out.bundle)
		case KindNation:
			set.Nation = out.bundle
		}
	}

	// The nation summary carries every chamber result.
	if set.Nation != nil {
		set.Nation.Chambers = make(map[string]ChamberResult, len(set.Chambers))
		for _, b := range set.Chambers {
			if b.Chamber != nil {
				set.Nation.Chambers[b.Key] = *b.Chamber
			}
			if b.Incomplete {
				set.Nation.Incomplete = true
			}
		}
	}

	span.SetAttributes(
		attribute.Int("partitions", len(parts)),
		attribute.Int("failures", len(set.Failures)),
	)
	return set, nil
}

// partitions splits the snapshot into tagged partitions in a stable order.
func (d *Driver) partitions(snapshot []models.Result) []partition {
	races := map[string][]models.Result{}
	states := map[string][]models.Result{}
	var nation []models.Result
	for _, r := range snapshot {
		switch r.Level {
		case models.LevelState, models.LevelDistrict:
			races[r.RaceUnitKey()] = append(races[r.RaceUnitKey()], r)
			states[r.StatePostal] = append(states[r.StatePostal], r)
		case models.LevelNational:
			races[r.RaceUnitKey()] = append(races[r.RaceUnitKey()], r)
			nation = append(nation, r)
		}
	}

	var parts []partition
	for _, k := range sortedKeys(races) {
		parts = append(parts, partition{kind: KindRace, key: raceBundleKey(races[k][0]), rows: races[k]})
	}
	for _, k := range sortedKeys(states) {
		parts = append(parts, partition{kind: KindState, key: k, rows: states[k]})
	}
	for i := range d.cfg.Chambers {
		c := &d.cfg.Chambers[i]
		var rows []models.Result
		for _, r := range snapshot {
			if r.OfficeName == c.Office && r.Level == models.LevelState {
				rows = append(rows, r)
			}
		}
		parts = append(parts, partition{kind: KindChamber, key: c.Slug, rows: rows, chamber: c})
	}
	parts = append(parts, partition{kind: KindNation, key: "top-level", rows: nation})
	return parts
}

func (d *Driver) process(ctx context.Context, p partition) outcome {
	_, span := d.tracer.Start(ctx, "aggregate.partition", trace.WithAttributes(
		attribute.String("scope", string(p.kind)),
		attribute.String("key", p.key),
		attribute.Int("rows", len(p.rows)),
	))
	defer span.End()

	var out outcome
	switch p.kind {
	case KindRace, KindState, KindNation:
		out = d.processRaces(p)
	case KindChamber:
		out = d.processChamber(p)
	}
	if len(out.failures) > 0 {
		span.SetStatus(codes.Error, out.failures[0].Error())
	}
	return out
}

// processRaces builds a bundle of collated races. A race with a broken row is
// left out and the bundle is marked incomplete.
func (d *Driver) processRaces(p partition) outcome {
	b := &Bundle{Kind: p.kind, Key: p.key}
	var failures []Failure
	for _, rows := range groupRaces(p.rows) {
		recs, err := records(rows)
		if err != nil {
			failures = append(failures, Failure{Kind: p.kind, Key: p.key, Err: err})
			continue
		}
		b.Races = append(b.Races, d.race(recs, collate.Options{
			TargetListLength: d.cfg.TargetListLength,
			OverrideSet:      d.cfg.CandidateOverrides[rows[0].RaceID],
		}))
	}
	b.Incomplete = len(failures) > 0
	b.LastUpdated = d.lastUpdated(p.rows)
	return outcome{bundle: b, failures: failures}
}

func (d *Driver) processChamber(p partition) outcome {
	c := p.chamber
	b := &Bundle{Kind: KindChamber, Key: p.key}
	var failures []Failure

	fold := chamber.NewFold()
	var override *string
	for _, rows := range groupRaces(p.rows) {
		recs, err := records(rows)
		if err != nil {
			failures = append(failures, Failure{Kind: KindChamber, Key: p.key, Err: err})
			continue
		}
		for i := range recs {
			fold.Add(&recs[i], c.Options)
			if override == nil && recs[i].Meta.ChamberCallOverride != nil {
				override = recs[i].Meta.ChamberCallOverride
			}
		}
		if !chamber.Includes(&recs[0], c.Options) {
			continue
		}
		b.Races = append(b.Races, d.race(recs, collate.Options{
			TargetListLength: d.cfg.BigBoardListLength,
			OverrideSet:      d.cfg.CandidateOverrides[rows[0].RaceID],
			Compact:          true,
		}))
	}

	summary := fold.Summary(c.Initial)
	b.Chamber = &ChamberResult{
		Slug:       c.Slug,
		Office:     c.Office,
		TotalSeats: c.Control.TotalSeats,
		Summary:    summary,
		Control:    chamber.DetermineControl(summary, c.Control, override),
	}
	b.Incomplete = len(failures) > 0
	b.LastUpdated = d.lastUpdated(p.rows)
	return outcome{bundle: b, failures: failures}
}

func (d *Driver) race(recs []models.Record, opts collate.Options) Race {
	first := recs[0]
	r := Race{
		RaceID:                first.Result.RaceID,
		Office:                first.Result.OfficeName,
		Level:                 first.Result.Level,
		StatePostal:           first.Result.StatePostal,
		StateName:             first.Result.StateName,
		SeatName:              first.Result.SeatName,
		SeatNum:               first.Result.SeatNum,
		ReportingUnit:         first.Result.ReportingUnitName,
		IsBallotMeasure:       first.Result.IsBallotMeasure,
		PrecinctsReporting:    first.Result.PrecinctsReporting,
		PrecinctsTotal:        first.Result.PrecinctsTotal,
		PrecinctsReportingPct: FormatPrecinctsPct(first.Result.PrecinctsReportingPct, first.Result.PrecinctsReporting, first.Result.PrecinctsTotal),
		PollClosing:           first.Meta.PollClosing,
		CurrentParty:          first.Meta.CurrentParty,
		Expected:              first.Meta.Expected,
		KeyRace:               first.Meta.KeyRace,
		Special:               first.Meta.Special || first.Result.IsSpecial(),
		BallotMeasureTheme:    first.Meta.BallotMeasureTheme,
		Candidates:            collate.Collate(collate.FromRecords(recs), opts),
	}
	rows := make([]models.Result, len(recs))
	for i := range recs {
		rows[i] = recs[i].Result
		if calls.Won(&recs[i]) {
			r.Called = true
			r.WinnerParty = recs[i].Result.Party
			r.Pickup = calls.IsPickup(&recs[i])
		}
	}
	r.LastUpdated = d.lastUpdated(rows)
	return r
}

// lastUpdated is the newest timestamp among rows with at least one precinct
// reporting, or now when nothing has reported.
func (d *Driver) lastUpdated(rows []models.Result) time.Time {
	var latest time.Time
	for _, r := range rows {
		if r.PrecinctsReporting > 0 && r.LastUpdated.After(latest) {
			latest = r.LastUpdated
		}
	}
	if latest.IsZero() {
		return d.cfg.Now().UTC()
	}
	return latest
}

// records assembles every row of a race. The first missing association fails
// the race.
func records(rows []models.Result) ([]models.Record, error) {
	out := make([]models.Record, 0, len(rows))
	for _, r := range rows {
		rec, err := models.RecordFromResult(r)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// groupRaces splits rows by race unit, keeping the input order inside each race
// and ordering races by key.
func groupRaces(rows []models.Result) [][]models.Result {
	byKey := map[string][]models.Result{}
	for _, r := range rows {
		byKey[r.RaceUnitKey()] = append(byKey[r.RaceUnitKey()], r)
	}
	out := make([][]models.Result, 0, len(byKey))
	for _, k := range sortedKeys(byKey) {
		out = append(out, byKey[k])
	}
	return out
}

// raceBundleKey names a race bundle: race id and state, plus the reporting unit
// for district rows.
func raceBundleKey(r models.Result) string {
	parts := []string{r.RaceID}
	if r.StatePostal != "" {
		parts = append(parts, r.StatePostal)
	}
	if r.Level == models.LevelDistrict && r.ReportingUnitID != "" {
		parts = append(parts, r.ReportingUnitID)
	}
	return strings.ToLower(strings.Join(parts, "-"))
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
