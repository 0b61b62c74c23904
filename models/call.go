package models

import "github.com/uptrace/bun"

// Call is the editorial override row attached 1:1 to a Result.
type Call struct {
	bun.BaseModel `bun:"table:calls,alias:cl"`

	ResultID       string `bun:"result_id,pk" json:"resultID"`
	AcceptWire     bool   `bun:"accept_wire,notnull" json:"acceptWire"`
	OverrideWinner bool   `bun:"override_winner,notnull" json:"overrideWinner"`
}

// DefaultCall returns the override row created for a freshly ingested result.
func DefaultCall(resultID string) Call {
	return Call{ResultID: resultID, AcceptWire: true}
}
