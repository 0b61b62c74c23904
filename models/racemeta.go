package models

import "github.com/uptrace/bun"

// RaceMeta holds the reference-sheet attributes of the seat a Result belongs to.
// Rows are written per result but share values across a race.
type RaceMeta struct {
	bun.BaseModel `bun:"table:race_meta,alias:rm"`

	ResultID            string  `bun:"result_id,pk" json:"resultID"`
	PollClosing         string  `bun:"poll_closing" json:"pollClosing,omitempty"`
	FullPollClosing     string  `bun:"full_poll_closing" json:"fullPollClosing,omitempty"`
	FirstResults        string  `bun:"first_results" json:"firstResults,omitempty"`
	CurrentParty        string  `bun:"current_party" json:"currentParty,omitempty"`
	Expected            string  `bun:"expected" json:"expected,omitempty"`
	Special             bool    `bun:"special,notnull" json:"special"`
	KeyRace             bool    `bun:"key_race,notnull" json:"keyRace"`
	VotingMember        bool    `bun:"voting_member,notnull" json:"votingMember"`
	BallotMeasureTheme  string  `bun:"ballot_measure_theme" json:"ballotMeasureTheme,omitempty"`
	ChamberCallOverride *string `bun:"chamber_call_override" json:"chamberCallOverride,omitempty"`
}
