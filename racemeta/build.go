package racemeta

import (
	"errors"
	"strings"

	"github.com/padraicbc/electioncalls/models"
)

// Build returns one RaceMeta per state, district and national result. County
// and township rows get none. Every lookup must match exactly one sheet row;
// all mismatches are reported together and no rows are returned.
func (s *Sheets) Build(results []models.Result) ([]models.RaceMeta, error) {
	polls := make(map[string][]PollTime, len(s.PollTimes))
	for _, p := range s.PollTimes {
		polls[p.Key] = append(polls[p.Key], p)
	}
	seats := make(map[string][]Seat, len(s.Seats))
	seatOffices := make(map[string]bool)
	for _, st := range s.Seats {
		k := seatKey(st.Office, st.Seat)
		seats[k] = append(seats[k], st)
		seatOffices[st.Office] = true
	}

	var errs []error
	out := make([]models.RaceMeta, 0, len(results))
	for i := range results {
		r := &results[i]
		switch r.Level {
		case models.LevelState, models.LevelDistrict, models.LevelNational:
		default:
			continue
		}

		m := models.RaceMeta{
			ResultID:     r.ID,
			Special:      r.IsSpecial(),
			VotingMember: true,
		}

		if r.Level != models.LevelNational {
			matches := polls[r.StatePostal]
			if len(matches) != 1 {
				errs = append(errs, &models.LookupMismatchError{Sheet: PollTimesFile, Key: r.StatePostal, Matches: len(matches)})
				continue
			}
			m.PollClosing = matches[0].Close
			m.FirstResults = matches[0].FirstResults
			m.FullPollClosing = matches[0].FullClose
		}

		if r.Level == models.LevelState && seatOffices[r.OfficeName] {
			seat := r.StatePostal
			if r.SeatNum != "" {
				seat = r.StatePostal + "-" + r.SeatNum
			}
			var matches []Seat
			for _, st := range seats[seatKey(r.OfficeName, seat)] {
				if st.Special == m.Special {
					matches = append(matches, st)
				}
			}
			if len(matches) != 1 {
				errs = append(errs, &models.LookupMismatchError{Sheet: SeatsFile, Key: r.OfficeName + " " + seat, Matches: len(matches)})
				continue
			}
			st := matches[0]
			m.CurrentParty = st.Party
			m.Expected = normalizeExpected(st.Expected)
			m.KeyRace = st.KeyRace
			m.VotingMember = st.VotingMember
			m.BallotMeasureTheme = st.BallotTheme
		}

		out = append(out, m)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

func seatKey(office, seat string) string {
	return office + "|" + seat
}

// Ratings such as "lean competitive" collapse to competitive.
func normalizeExpected(s string) string {
	if strings.Contains(strings.ToLower(s), models.ExpectedCompetitive) {
		return models.ExpectedCompetitive
	}
	return s
}
