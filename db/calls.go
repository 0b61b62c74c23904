package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/padraicbc/electioncalls/models"
)

// RaceUnit identifies the candidates of one contest at one reporting unit.
type RaceUnit struct {
	Office          string
	RaceID          string
	StatePostal     string
	Level           string
	// ReportingUnitID scopes district units, matching Result.RaceUnitKey.
	ReportingUnitID string
}

// ToggleWinnerOverride flips the manual winner flag on one result and reconciles
// its siblings: at most one candidate per race unit stays overridden, and while
// an override is set no candidate of the unit accepts the wire call.
func (s *Store) ToggleWinnerOverride(ctx context.Context, resultID string) (models.Call, error) {
	var updated models.Call

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		target := new(models.Result)
		if err := tx.NewSelect().Model(target).Where("r.id = ?", resultID).Scan(ctx); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("result %s: %w", resultID, ErrNotFound)
			}
			return err
		}

		var siblings []models.Result
		err := tx.NewSelect().Model(&siblings).
			Where("r.level = ?", target.Level).
			Where("r.race_id = ?", target.RaceID).
			Where("r.office_name = ?", target.OfficeName).
			Where("r.state_postal = ?", target.StatePostal).
			Where("r.reporting_unit_id = ?", target.ReportingUnitID).
			Scan(ctx)
		if err != nil {
			return err
		}
		if err := attach(ctx, tx, siblings); err != nil {
			return err
		}

		var own *models.Call
		for i := range siblings {
			if siblings[i].ID == resultID {
				own = siblings[i].Call
			}
		}
		if own == nil {
			return &models.DataIntegrityError{ResultID: resultID, Missing: "call"}
		}
		overriding := !own.OverrideWinner

		for i := range siblings {
			c := siblings[i].Call
			if c == nil {
				return &models.DataIntegrityError{ResultID: siblings[i].ID, Missing: "call"}
			}
			if c.ResultID == resultID {
				c.OverrideWinner = overriding
			} else {
				c.OverrideWinner = false
			}
			if overriding {
				c.AcceptWire = false
			}
			if _, err := tx.NewUpdate().Model(c).Column("accept_wire", "override_winner").WherePK().Exec(ctx); err != nil {
				return fmt.Errorf("updating call %s: %w", c.ResultID, err)
			}
			if c.ResultID == resultID {
				updated = *c
			}
		}
		return nil
	})
	return updated, err
}

// ToggleAcceptWire flips wire acceptance for every candidate of a race unit.
// District rows are scoped to their reporting unit; statewide and national rows
// are not. The new value is the opposite of the unit's first row, so the unit
// always ends up consistent. It returns the new value and the rows touched.
func (s *Store) ToggleAcceptWire(ctx context.Context, u RaceUnit) (bool, int, error) {
	var accept bool
	var n int

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var rows []models.Result
		q := tx.NewSelect().Model(&rows).
			Where("r.race_id = ?", u.RaceID).
			Where("r.office_name = ?", u.Office).
			Where("r.state_postal = ?", u.StatePostal).
			OrderExpr("r.id ASC")
		if u.Level == models.LevelDistrict {
			q = q.Where("r.level = ?", models.LevelDistrict).
				Where("r.reporting_unit_id = ?", u.ReportingUnitID)
		} else {
			q = q.Where("r.level IN (?)", bun.In([]string{models.LevelState, models.LevelNational}))
		}
		if err := q.Scan(ctx); err != nil {
			return err
		}
		if len(rows) == 0 {
			return fmt.Errorf("race %s in %s: %w", u.RaceID, u.StatePostal, ErrNotFound)
		}
		if err := attach(ctx, tx, rows); err != nil {
			return err
		}
		if rows[0].Call == nil {
			return &models.DataIntegrityError{ResultID: rows[0].ID, Missing: "call"}
		}
		accept = !rows[0].Call.AcceptWire

		ids := make([]string, len(rows))
		for i, r := range rows {
			ids[i] = r.ID
		}
		res, err := tx.NewUpdate().Model((*models.Call)(nil)).
			Set("accept_wire = ?", accept).
			Where("result_id IN (?)", bun.In(ids)).
			Exec(ctx)
		if err != nil {
			return err
		}
		affected, _ := res.RowsAffected()
		n = int(affected)
		return nil
	})
	return accept, n, err
}

// SetChamberCall writes the same chamber control override to every race_meta
// row of an office. A nil call clears it.
func (s *Store) SetChamberCall(ctx context.Context, office string, call *string) (int, error) {
	ids := s.db.NewSelect().Model((*models.Result)(nil)).Column("r.id").Where("r.office_name = ?", office)
	res, err := s.db.NewUpdate().Model((*models.RaceMeta)(nil)).
		Set("chamber_call_override = ?", call).
		Where("result_id IN (?)", ids).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("setting chamber call for %s: %w", office, err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// ChamberCall returns the chamber override of an office. Every row of the office
// carries the same value, so any one will do.
func (s *Store) ChamberCall(ctx context.Context, office string) (*string, error) {
	var metas []models.RaceMeta
	err := s.db.NewSelect().Model(&metas).
		Join("INNER JOIN results AS r ON r.id = rm.result_id").
		Where("r.office_name = ?", office).
		Limit(1).
		Scan(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("selecting chamber call for %s: %w", office, err)
	}
	if len(metas) == 0 {
		return nil, nil
	}
	return metas[0].ChamberCallOverride, nil
}
