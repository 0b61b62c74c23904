// Package racemeta builds race metadata rows from the desk's reference sheets.
package racemeta

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Sheet file names inside the metadata directory.
const (
	PollTimesFile = "poll_times.csv"
	SeatsFile     = "seats.csv"
)

// PollTime is one row of the poll closing calendar, keyed by state postal code.
type PollTime struct {
	Key          string
	Close        string
	FirstResults string
	FullClose    string
}

// Seat is one row of the seat sheet. Seat is "ST" for statewide offices and
// "ST-N" for districted ones.
type Seat struct {
	Office       string
	Seat         string
	Party        string
	Expected     string
	Special      bool
	KeyRace      bool
	VotingMember bool
	BallotTheme  string
}

// Sheets holds both reference sheets.
type Sheets struct {
	PollTimes []PollTime
	Seats     []Seat
}

// LoadDir reads both sheets from dir.
func LoadDir(dir string) (*Sheets, error) {
	pf, err := os.Open(filepath.Join(dir, PollTimesFile))
	if err != nil {
		return nil, err
	}
	defer pf.Close()
	polls, err := ReadPollTimes(pf)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", PollTimesFile, err)
	}

	sf, err := os.Open(filepath.Join(dir, SeatsFile))
	if err != nil {
		return nil, err
	}
	defer sf.Close()
	seats, err := ReadSeats(sf)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", SeatsFile, err)
	}

	return &Sheets{PollTimes: polls, Seats: seats}, nil
}

// ReadPollTimes parses poll_times.csv.
func ReadPollTimes(r io.Reader) ([]PollTime, error) {
	rows, err := readSheet(r, "key", "time_est", "first_results_est", "time_all_est")
	if err != nil {
		return nil, err
	}
	out := make([]PollTime, 0, len(rows))
	for _, row := range rows {
		out = append(out, PollTime{
			Key:          row["key"],
			Close:        row["time_est"],
			FirstResults: row["first_results_est"],
			FullClose:    row["time_all_est"],
		})
	}
	return out, nil
}

// ReadSeats parses seats.csv. A blank voting_member cell means a voting seat.
func ReadSeats(r io.Reader) ([]Seat, error) {
	rows, err := readSheet(r, "office", "seat", "party", "expected")
	if err != nil {
		return nil, err
	}
	out := make([]Seat, 0, len(rows))
	for _, row := range rows {
		voting := true
		if v := row["voting_member"]; v != "" {
			voting = truthy(v)
		}
		out = append(out, Seat{
			Office:       row["office"],
			Seat:         row["seat"],
			Party:        row["party"],
			Expected:     row["expected"],
			Special:      truthy(row["special"]),
			KeyRace:      truthy(row["key_race"]),
			VotingMember: voting,
			BallotTheme:  row["ballot_theme"],
		})
	}
	return out, nil
}

// readSheet returns each data row keyed by its lower-cased header. Missing
// required columns are an error; unknown columns are ignored.
func readSheet(r io.Reader, required ...string) ([]map[string]string, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty sheet")
		}
		return nil, err
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}

	var out []map[string]string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		row := make(map[string]string, len(cols))
		for name, i := range cols {
			if i < len(rec) {
				row[name] = strings.TrimSpace(rec[i])
			}
		}
		out = append(out, row)
	}
	return out, nil
}

func truthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "x", "y", "yes", "true":
		return true
	}
	return false
}
