// Package calls decides declared winners and classifies their outcomes.
//
// Everything here is a pure function of a result and its 1:1 rows; callers are
// expected to have built a models.Record so the associations are present.
package calls

import "github.com/padraicbc/electioncalls/models"

// Resolve reports whether the result is the desk's declared winner.
// A manual override always wins. Otherwise the wire call counts only while it is
// accepted; district rows use allocated electoral votes instead of the winner flag.
func Resolve(r *models.Result, c *models.Call) bool {
	if c.OverrideWinner {
		return true
	}
	return c.AcceptWire && wireWin(r)
}

// ResolveRecord is Resolve for rows loaded with their relations attached.
func ResolveRecord(r *models.Result) (bool, error) {
	if r.Call == nil {
		return false, &models.DataIntegrityError{ResultID: r.ID, Missing: "call"}
	}
	return Resolve(r, r.Call), nil
}

func wireWin(r *models.Result) bool {
	if r.Level == models.LevelDistrict {
		return r.ElectWon > 0
	}
	return r.Winner
}

// Won is Resolve over an assembled record.
func Won(rec *models.Record) bool {
	return Resolve(&rec.Result, &rec.Call)
}

// IsPickup is true when the declared winner's party did not hold the seat.
func IsPickup(rec *models.Record) bool {
	return Won(rec) && rec.Result.Party != rec.Meta.CurrentParty
}

// IsExpected is true when the declared winner matches the expected party.
func IsExpected(rec *models.Record) bool {
	return Won(rec) && rec.Result.Party == rec.Meta.Expected
}

// IsUnexpected only flags upsets of a major-party expectation; a seat expected
// to go to a minor party or rated competitive is never unexpected.
func IsUnexpected(rec *models.Record) bool {
	if !Won(rec) {
		return false
	}
	switch rec.Meta.Expected {
	case models.PartyDem:
		return rec.Result.Party != models.PartyDem
	case models.PartyGOP:
		return rec.Result.Party != models.PartyGOP
	default:
		return false
	}
}
