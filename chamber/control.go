package chamber

import "github.com/padraicbc/electioncalls/models"

// Config is the static shape of a chamber.
type Config struct {
	TotalSeats int
	// CaucusWith receives the Other seats when comparing the sides.
	CaucusWith string
	// TieBreak wins an evenly split chamber.
	TieBreak string
}

// DetermineControl returns the party in control or "" when undetermined.
// The editorial override is consulted only when no side has a majority.
func DetermineControl(s Summary, cfg Config, override *string) string {
	dem, gop := s.Seats.Dem, s.Seats.GOP
	switch cfg.CaucusWith {
	case models.PartyDem:
		dem += s.Seats.Other
	case models.PartyGOP:
		gop += s.Seats.Other
	}

	// An even split needs each side to hold half the chamber before the
	// tie-breaker decides; a partial count with equal sides is not a tie.
	if dem == gop && cfg.TieBreak != "" && 2*dem >= cfg.TotalSeats {
		return cfg.TieBreak
	}
	if 2*dem > cfg.TotalSeats {
		return models.PartyDem
	}
	if 2*gop > cfg.TotalSeats {
		return models.PartyGOP
	}
	if override != nil && *override != "" {
		return *override
	}
	return ""
}
