// Package chamber folds declared winners into a chamber's balance of power.
package chamber

import (
	"time"

	"github.com/padraicbc/electioncalls/calls"
	"github.com/padraicbc/electioncalls/models"
)

// Counts is a per-bucket tally.
type Counts struct {
	Dem   int `json:"Dem" yaml:"dem"`
	GOP   int `json:"GOP" yaml:"gop"`
	Other int `json:"Other" yaml:"other"`
}

func (c *Counts) add(party string, n int) {
	switch models.Bucket(party) {
	case models.PartyDem:
		c.Dem += n
	case models.PartyGOP:
		c.GOP += n
	default:
		c.Other += n
	}
}

func (c Counts) plus(o Counts) Counts {
	return Counts{Dem: c.Dem + o.Dem, GOP: c.GOP + o.GOP, Other: c.Other + o.Other}
}

// Get returns the tally for a party bucket.
func (c Counts) Get(party string) int {
	switch models.Bucket(party) {
	case models.PartyDem:
		return c.Dem
	case models.PartyGOP:
		return c.GOP
	default:
		return c.Other
	}
}

// Options select which seats take part in the count.
type Options struct {
	ExcludeSpecials bool
}

// Summary is the balance of power of one chamber.
type Summary struct {
	Seats       Counts    `json:"seats"`
	Pickups     Counts    `json:"pickups"`
	Uncalled    int       `json:"uncalledRaces"`
	Expected    int       `json:"expected"`
	Unexpected  int       `json:"unexpected"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// Fold accumulates records. Folds over disjoint or overlapping chunks can be
// merged in any order and give the same Summary.
type Fold struct {
	seats       Counts
	pickups     Counts
	expected    int
	unexpected  int
	called      int
	races       map[string]struct{}
	lastUpdated time.Time
}

// NewFold returns an empty fold.
func NewFold() *Fold {
	return &Fold{races: make(map[string]struct{})}
}

// Includes reports whether a record counts toward the chamber totals.
func Includes(rec *models.Record, opts Options) bool {
	if rec.Result.Level != models.LevelState {
		return false
	}
	if !rec.Meta.VotingMember {
		return false
	}
	if opts.ExcludeSpecials && (rec.Meta.Special || rec.Result.IsSpecial()) {
		return false
	}
	return true
}

// Add folds one candidate row in. Rows outside the chamber scope are ignored.
func (f *Fold) Add(rec *models.Record, opts Options) {
	if !Includes(rec, opts) {
		return
	}
	f.races[rec.Result.RaceUnitKey()] = struct{}{}
	if rec.Result.LastUpdated.After(f.lastUpdated) {
		f.lastUpdated = rec.Result.LastUpdated
	}
	if !calls.Won(rec) {
		return
	}
	f.seats.add(rec.Result.Party, 1)
	f.called++
	if calls.IsPickup(rec) {
		f.pickups.add(rec.Result.Party, 1)
		f.pickups.add(rec.Meta.CurrentParty, -1)
	}
	if calls.IsExpected(rec) {
		f.expected++
	}
	if calls.IsUnexpected(rec) {
		f.unexpected++
	}
}

// Merge adds o into f.
func (f *Fold) Merge(o *Fold) {
	f.seats = f.seats.plus(o.seats)
	f.pickups = f.pickups.plus(o.pickups)
	f.expected += o.expected
	f.unexpected += o.unexpected
	f.called += o.called
	for k := range o.races {
		f.races[k] = struct{}{}
	}
	if o.lastUpdated.After(f.lastUpdated) {
		f.lastUpdated = o.lastUpdated
	}
}

// Summary applies the fold on top of the seats not up for election.
func (f *Fold) Summary(initial Counts) Summary {
	return Summary{
		Seats:       initial.plus(f.seats),
		Pickups:     f.pickups,
		Uncalled:    len(f.races) - f.called,
		Expected:    f.expected,
		Unexpected:  f.unexpected,
		LastUpdated: f.lastUpdated,
	}
}

// Aggregate folds all records of a chamber.
func Aggregate(recs []models.Record, initial Counts, opts Options) Summary {
	f := NewFold()
	for i := range recs {
		f.Add(&recs[i], opts)
	}
	return f.Summary(initial)
}
