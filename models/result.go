package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Reporting levels used by the wire-service export.
const (
	LevelNational = "national"
	LevelState    = "state"
	LevelDistrict = "district"
	LevelCounty   = "county"
	LevelTownship = "township"
)

// Result holds one candidate's tally in one race at one reporting level.
type Result struct {
	bun.BaseModel `bun:"table:results,alias:r"`

	ID                    string    `bun:"id,pk" json:"id"`
	RaceID                string    `bun:"race_id,notnull" json:"raceID"`
	RaceType              string    `bun:"race_type" json:"raceType,omitempty"`
	CandidateID           string    `bun:"candidate_id" json:"candidateID"`
	BallotOrder           int       `bun:"ballot_order" json:"ballotOrder"`
	First                 string    `bun:"first" json:"first"`
	Last                  string    `bun:"last" json:"last"`
	Party                 string    `bun:"party" json:"party"`
	Incumbent             bool      `bun:"incumbent,notnull" json:"incumbent"`
	OfficeName            string    `bun:"office_name,notnull" json:"officeName"`
	Level                 string    `bun:"level,notnull" json:"level"`
	StatePostal           string    `bun:"state_postal,notnull" json:"statePostal"`
	StateName             string    `bun:"state_name" json:"stateName,omitempty"`
	SeatName              string    `bun:"seat_name" json:"seatName,omitempty"`
	SeatNum               string    `bun:"seat_num" json:"seatNum,omitempty"`
	ReportingUnitID       string    `bun:"reporting_unit_id" json:"reportingUnitID,omitempty"`
	ReportingUnitName     string    `bun:"reporting_unit_name" json:"reportingUnitName,omitempty"`
	IsBallotMeasure       bool      `bun:"is_ballot_measure,notnull" json:"isBallotMeasure"`
	Uncontested           bool      `bun:"uncontested,notnull" json:"uncontested"`
	VoteCount             int       `bun:"vote_count,notnull" json:"voteCount"`
	VotePct               float64   `bun:"vote_pct,notnull" json:"votePct"`
	PrecinctsReporting    int       `bun:"precincts_reporting,notnull" json:"precinctsReporting"`
	PrecinctsReportingPct float64   `bun:"precincts_reporting_pct,notnull" json:"precinctsReportingPct"`
	PrecinctsTotal        int       `bun:"precincts_total,notnull" json:"precinctsTotal"`
	ElectTotal            int       `bun:"elect_total,notnull" json:"electTotal"`
	ElectWon              int       `bun:"elect_won,notnull" json:"electWon"`
	Winner                bool      `bun:"winner,notnull" json:"winner"`
	ElectionDate          string    `bun:"election_date" json:"electionDate,omitempty"`
	LastUpdated           time.Time `bun:"last_updated,nullzero" json:"lastUpdated"`

	// Attached by the store from the calls and race_meta tables.
	Call *Call     `bun:"-" json:"-"`
	Meta *RaceMeta `bun:"-" json:"-"`
}

// RaceUnitKey identifies the set of sibling rows that make up one contest at one
// reporting unit. Editorial calls are reconciled across this set.
func (r *Result) RaceUnitKey() string {
	return r.RaceID + "|" + r.Level + "|" + r.StatePostal + "|" + r.ReportingUnitID
}

// IsSpecial reports whether the wire service labelled the race a special election.
func (r *Result) IsSpecial() bool {
	return containsFold(r.RaceType, "special")
}
