package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/padraicbc/electioncalls/db"
	"github.com/padraicbc/electioncalls/models"
)

// CallWinner toggles the desk's manual winner on one result. Siblings in the
// same race unit lose their override and stop accepting the wire call.
func (h *Handler) CallWinner(c echo.Context) error {
	if _, err := h.office(c); err != nil {
		return err
	}

	var req struct {
		ResultID string `json:"resultID" form:"resultID"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.ResultID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing resultID")
	}

	call, err := h.store.ToggleWinnerOverride(c.Request().Context(), req.ResultID)
	if err != nil {
		return httpError(err)
	}
	h.metrics.DeskEdit("call-winner")
	h.logger.Info("winner override toggled",
		zap.String("result_id", call.ResultID),
		zap.Bool("override", call.OverrideWinner),
	)

	return c.JSON(http.StatusOK, call)
}

// AcceptWire flips wire acceptance for a whole race unit.
func (h *Handler) AcceptWire(c echo.Context) error {
	office, err := h.office(c)
	if err != nil {
		return err
	}

	var req struct {
		RaceID          string `json:"raceID" form:"raceID"`
		StatePostal     string `json:"statePostal" form:"statePostal"`
		Level           string `json:"level" form:"level"`
		ReportingUnitID string `json:"reportingUnitID" form:"reportingUnitID"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.RaceID == "" || req.StatePostal == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing raceID or statePostal")
	}
	if req.Level == models.LevelDistrict && req.ReportingUnitID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "district races need reportingUnitID")
	}

	accept, n, err := h.store.ToggleAcceptWire(c.Request().Context(), db.RaceUnit{
		Office:          office,
		RaceID:          req.RaceID,
		StatePostal:     req.StatePostal,
		Level:           req.Level,
		ReportingUnitID: req.ReportingUnitID,
	})
	if err != nil {
		return httpError(err)
	}
	h.metrics.DeskEdit("accept-wire")
	h.logger.Info("accept wire toggled",
		zap.String("office", office),
		zap.String("race_id", req.RaceID),
		zap.String("state", req.StatePostal),
		zap.Bool("accept", accept),
	)

	return c.JSON(http.StatusOK, map[string]any{"acceptWire": accept, "updated": n})
}

// CallChamber sets or clears the editorial control call for an office's
// chamber. An empty party clears it.
func (h *Handler) CallChamber(c echo.Context) error {
	office, err := h.office(c)
	if err != nil {
		return err
	}

	var req struct {
		Party string `json:"party" form:"party"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var call *string
	switch req.Party {
	case "":
	case models.PartyDem, models.PartyGOP:
		call = &req.Party
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "party must be Dem, GOP or empty")
	}

	n, err := h.store.SetChamberCall(c.Request().Context(), office, call)
	if err != nil {
		return httpError(err)
	}
	h.metrics.DeskEdit("call-chamber")
	h.logger.Info("chamber call set", zap.String("office", office), zap.String("party", req.Party), zap.Int("rows", n))

	return c.JSON(http.StatusOK, map[string]any{"chamberCall": call, "updated": n})
}
