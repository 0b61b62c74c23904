// Package wire reads the wire service's results export.
package wire

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/padraicbc/electioncalls/models"
)

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ReadResults parses a results CSV with a header row. Unknown columns are
// ignored. An export without data rows is an UpstreamFeedError.
func ReadResults(r io.Reader) ([]models.Result, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &models.UpstreamFeedError{Source: "results export"}
		}
		return nil, &models.UpstreamFeedError{Source: "results export", Err: err}
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, name := range []string{"id", "raceid", "level", "statepostal"} {
		if _, ok := cols[name]; !ok {
			return nil, &models.UpstreamFeedError{Source: "results export", Err: fmt.Errorf("missing column %q", name)}
		}
	}

	var out []models.Result
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, &models.UpstreamFeedError{Source: "results export", Err: err}
		}
		row := record{cols: cols, vals: rec}
		res, err := row.result()
		if err != nil {
			return nil, &models.UpstreamFeedError{Source: "results export", Err: fmt.Errorf("line %d: %w", line, err)}
		}
		out = append(out, res)
	}
	if len(out) == 0 {
		return nil, &models.UpstreamFeedError{Source: "results export"}
	}
	return out, nil
}

type record struct {
	cols map[string]int
	vals []string
	err  error
}

func (r *record) text(name string) string {
	i, ok := r.cols[name]
	if !ok || i >= len(r.vals) {
		return ""
	}
	return strings.TrimSpace(r.vals[i])
}

func (r *record) num(name string) int {
	s := r.text(name)
	if s == "" || r.err != nil {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		// Some exports write integral columns as floats.
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			r.err = fmt.Errorf("%s: %w", name, err)
			return 0
		}
		return int(f)
	}
	return n
}

func (r *record) frac(name string) float64 {
	s := r.text(name)
	if s == "" || r.err != nil {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		r.err = fmt.Errorf("%s: %w", name, err)
	}
	return f
}

func (r *record) flag(name string) bool {
	s := r.text(name)
	if s == "" || r.err != nil {
		return false
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		r.err = fmt.Errorf("%s: %w", name, err)
	}
	return b
}

func (r *record) stamp(name string) time.Time {
	s := r.text(name)
	if s == "" || r.err != nil {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	r.err = fmt.Errorf("%s: unrecognised time %q", name, s)
	return time.Time{}
}

func (r *record) result() (models.Result, error) {
	res := models.Result{
		ID:                    r.text("id"),
		RaceID:                r.text("raceid"),
		RaceType:              r.text("racetype"),
		CandidateID:           r.text("candidateid"),
		BallotOrder:           r.num("ballotorder"),
		First:                 r.text("first"),
		Last:                  r.text("last"),
		Party:                 r.text("party"),
		Incumbent:             r.flag("incumbent"),
		OfficeName:            r.text("officename"),
		Level:                 r.text("level"),
		StatePostal:           r.text("statepostal"),
		StateName:             r.text("statename"),
		SeatName:              r.text("seatname"),
		SeatNum:               r.text("seatnum"),
		ReportingUnitID:       r.text("reportingunitid"),
		ReportingUnitName:     r.text("reportingunitname"),
		IsBallotMeasure:       r.flag("is_ballot_measure"),
		Uncontested:           r.flag("uncontested"),
		VoteCount:             r.num("votecount"),
		VotePct:               r.frac("votepct"),
		PrecinctsReporting:    r.num("precinctsreporting"),
		PrecinctsReportingPct: r.frac("precinctsreportingpct"),
		PrecinctsTotal:        r.num("precinctstotal"),
		ElectTotal:            r.num("electtotal"),
		ElectWon:              r.num("electwon"),
		Winner:                r.flag("winner"),
		ElectionDate:          r.text("electiondate"),
		LastUpdated:           r.stamp("lastupdated"),
	}
	if r.err != nil {
		return models.Result{}, r.err
	}
	if res.ID == "" {
		return models.Result{}, errors.New("empty id")
	}
	return res, nil
}
