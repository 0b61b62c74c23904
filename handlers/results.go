package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/padraicbc/electioncalls/aggregate"
	"github.com/padraicbc/electioncalls/calls"
	"github.com/padraicbc/electioncalls/db"
	"github.com/padraicbc/electioncalls/models"
)

var printer = message.NewPrinter(language.English)

type deskCandidate struct {
	ResultID       string  `json:"resultID"`
	First          string  `json:"first,omitempty"`
	Last           string  `json:"last"`
	Party          string  `json:"party"`
	VoteCount      string  `json:"votecount"`
	VotePct        float64 `json:"votepct"`
	WireWinner     bool    `json:"wireWinner"`
	OverrideWinner bool    `json:"overrideWinner"`
	Winner         bool    `json:"winner"`
}

type deskRace struct {
	RaceID          string          `json:"raceID"`
	StatePostal     string          `json:"statePostal"`
	SeatName        string          `json:"seatName,omitempty"`
	Level           string          `json:"level"`
	ReportingUnitID string          `json:"reportingUnitID,omitempty"`
	ReportingUnit   string          `json:"reportingUnitName,omitempty"`
	PrecinctsPct    string          `json:"precinctsReportingPct"`
	AcceptWire      bool            `json:"acceptWire"`
	Called          bool            `json:"called"`
	Candidates      []deskCandidate `json:"candidates"`
}

type deskListing struct {
	Office      string     `json:"officeName"`
	ChamberCall *string    `json:"chamberCall"`
	Races       []deskRace `json:"races"`
}

// Calls lists every callable race of an office for the desk, grouped by race in
// state, seat and vote order.
func (h *Handler) Calls(c echo.Context) error {
	office, err := h.office(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	rows, err := h.store.Results(ctx, db.Filter{Office: office, Levels: db.CallLevels})
	if err != nil {
		return httpError(err)
	}
	races, err := groupDeskRaces(rows)
	if err != nil {
		return httpError(err)
	}
	chamberCall, err := h.store.ChamberCall(ctx, office)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, deskListing{Office: office, ChamberCall: chamberCall, Races: races})
}

// groupDeskRaces converts flat rows into race-grouped slices, keeping row order.
func groupDeskRaces(rows []models.Result) ([]deskRace, error) {
	order := []string{}
	races := map[string]*deskRace{}

	for _, row := range rows {
		won, err := calls.ResolveRecord(&row)
		if err != nil {
			return nil, err
		}
		cand := deskCandidate{
			ResultID:       row.ID,
			First:          row.First,
			Last:           row.Last,
			Party:          row.Party,
			VoteCount:      printer.Sprintf("%d", row.VoteCount),
			VotePct:        row.VotePct,
			WireWinner:     row.Winner,
			OverrideWinner: row.Call.OverrideWinner,
			Winner:         won,
		}

		key := row.RaceUnitKey()
		if _, ok := races[key]; !ok {
			order = append(order, key)
			races[key] = &deskRace{
				RaceID:          row.RaceID,
				StatePostal:     row.StatePostal,
				SeatName:        row.SeatName,
				Level:           row.Level,
				ReportingUnitID: row.ReportingUnitID,
				ReportingUnit:   row.ReportingUnitName,
				PrecinctsPct:    aggregate.FormatPrecinctsPct(row.PrecinctsReportingPct, row.PrecinctsReporting, row.PrecinctsTotal),
				AcceptWire:      row.Call.AcceptWire,
			}
		}
		r := races[key]
		r.Candidates = append(r.Candidates, cand)
		if won {
			r.Called = true
		}
	}

	out := make([]deskRace, 0, len(order))
	for _, k := range order {
		out = append(out, *races[k])
	}
	return out, nil
}
