package aggregate

import (
	"fmt"
	"math"
	"time"

	"github.com/padraicbc/electioncalls/chamber"
	"github.com/padraicbc/electioncalls/collate"
)

// ScopeKind tags a partition and the bundle it produces.
type ScopeKind string

const (
	KindRace    ScopeKind = "race"
	KindState   ScopeKind = "state"
	KindChamber ScopeKind = "chamber"
	KindNation  ScopeKind = "nation"
)

// Race is one contest at one reporting unit, ready to render.
type Race struct {
	RaceID                string              `json:"raceID"`
	Office                string              `json:"officeName"`
	Level                 string              `json:"level"`
	StatePostal           string              `json:"statePostal,omitempty"`
	StateName             string              `json:"stateName,omitempty"`
	SeatName              string              `json:"seatName,omitempty"`
	SeatNum               string              `json:"seatNum,omitempty"`
	ReportingUnit         string              `json:"reportingUnitName,omitempty"`
	IsBallotMeasure       bool                `json:"isBallotMeasure,omitempty"`
	PrecinctsReporting    int                 `json:"precinctsReporting"`
	PrecinctsTotal        int                 `json:"precinctsTotal"`
	PrecinctsReportingPct string              `json:"precinctsReportingPct"`
	Called                bool                `json:"called"`
	WinnerParty           string              `json:"winnerParty,omitempty"`
	Pickup                bool                `json:"pickup,omitempty"`
	PollClosing           string              `json:"pollClosing,omitempty"`
	CurrentParty          string              `json:"currentParty,omitempty"`
	Expected              string              `json:"expected,omitempty"`
	KeyRace               bool                `json:"keyRace,omitempty"`
	Special               bool                `json:"special,omitempty"`
	BallotMeasureTheme    string              `json:"ballotMeasureTheme,omitempty"`
	Candidates            []collate.Candidate `json:"candidates"`
	LastUpdated           time.Time           `json:"lastUpdated"`
}

// ChamberResult is a chamber's balance of power and who controls it.
type ChamberResult struct {
	Slug       string          `json:"slug"`
	Office     string          `json:"officeName"`
	TotalSeats int             `json:"totalSeats"`
	Summary    chamber.Summary `json:"summary"`
	Control    string          `json:"control,omitempty"`
}

// Bundle is the output of one partition. Which fields are set depends on Kind.
type Bundle struct {
	Kind        ScopeKind                `json:"kind"`
	Key         string                   `json:"key"`
	LastUpdated time.Time                `json:"lastUpdated"`
	Incomplete  bool                     `json:"incomplete,omitempty"`
	Races       []Race                   `json:"races,omitempty"`
	Chamber     *ChamberResult           `json:"chamber,omitempty"`
	Chambers    map[string]ChamberResult `json:"chambers,omitempty"`
}

// Failure records a partition that could not be fully processed.
type Failure struct {
	Kind ScopeKind
	Key  string
	Err  error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s %s: %v", f.Kind, f.Key, f.Err)
}

func (f Failure) Unwrap() error { return f.Err }

// BundleSet is everything one cycle produced.
type BundleSet struct {
	Races    []*Bundle
	States   []*Bundle
	Chambers []*Bundle
	Nation   *Bundle
	// Failures holds one entry per partition that hit a broken race. A race
	// appears in its race, state and chamber (or nation) partitions, so one
	// broken race can be recorded up to three times.
	Failures []Failure
}

// All returns every bundle in a stable order.
func (s *BundleSet) All() []*Bundle {
	out := make([]*Bundle, 0, len(s.Races)+len(s.States)+len(s.Chambers)+1)
	out = append(out, s.Races...)
	out = append(out, s.States...)
	out = append(out, s.Chambers...)
	if s.Nation != nil {
		out = append(out, s.Nation)
	}
	return out
}

// FormatPrecinctsPct renders a reporting fraction for display. Values that
// would round to 0% or 100% while counting is still going on are clamped.
func FormatPrecinctsPct(pct float64, reporting, total int) string {
	p := pct * 100
	switch {
	case reporting == 0:
		return "0%"
	case total > 0 && reporting >= total:
		return "100%"
	case p < 1:
		return "<1%"
	case p >= 99.5:
		return ">99%"
	}
	return fmt.Sprintf("%d%%", int(math.Round(p)))
}
