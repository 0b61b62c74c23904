// cmd/migrate/main.go
// Imports a previous cycle's desk database (results, calls and race metadata)
// from MySQL into the configured database.
//
// Usage:
//
//	MYSQL_DSN="user:pass@tcp(host:3306)/elections?parseTime=true" \
//	DB_PASS="pgpass" \
//	go run ./cmd/migrate
package main

import (
	"context"
	"database/sql"
	"log"

	_ "github.com/go-sql-driver/mysql"
	"github.com/uptrace/bun"

	"github.com/padraicbc/electioncalls/config"
	bundb "github.com/padraicbc/electioncalls/db"
	"github.com/padraicbc/electioncalls/models"
)

const batchSize = 500

func main() {
	ctx := context.Background()

	cfg := config.Load()

	// --- MySQL ---
	if cfg.MySQLDSN == "" {
		log.Fatal("MYSQL_DSN required, e.g.: user:pass@tcp(host:3306)/elections?parseTime=true")
	}
	myDB, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("open mysql: %v", err)
	}
	defer myDB.Close()
	myDB.SetMaxOpenConns(4)
	if err := myDB.PingContext(ctx); err != nil {
		log.Fatalf("ping mysql: %v", err)
	}
	log.Println("connected to MySQL")

	dst := bundb.Setup(cfg)
	defer dst.Close()
	log.Println("connected to destination database")

	if err := bundb.CreateTables(ctx, dst); err != nil {
		log.Fatalf("create tables: %v", err)
	}

	steps := []struct {
		name string
		fn   func() (int, error)
	}{
		{"results", func() (int, error) { return migrateResults(ctx, myDB, dst) }},
		{"calls", func() (int, error) { return migrateCalls(ctx, myDB, dst) }},
		{"race_meta", func() (int, error) { return migrateRaceMeta(ctx, myDB, dst) }},
	}

	for _, s := range steps {
		n, err := s.fn()
		if err != nil {
			log.Fatalf("migrate %s: %v", s.name, err)
		}
		log.Printf("%-15s  %d rows migrated", s.name, n)
	}

	log.Println("migration complete")
}

// --- helpers ---

func str(n sql.NullString) string {
	if !n.Valid {
		return ""
	}
	return n.String
}

func num(n sql.NullInt64) int {
	if !n.Valid {
		return 0
	}
	return int(n.Int64)
}

func flt(n sql.NullFloat64) float64 {
	if !n.Valid {
		return 0
	}
	return n.Float64
}

func fmtDate(t sql.NullTime) string {
	if !t.Valid {
		return ""
	}
	return t.Time.Format("2006-01-02")
}

// bulkInsert inserts a batch, skipping rows that already exist (idempotent re-runs).
func bulkInsert[T any](ctx context.Context, dst *bun.DB, rows []T) error {
	if len(rows) == 0 {
		return nil
	}
	_, err := dst.NewInsert().Model(&rows).On("CONFLICT DO NOTHING").Exec(ctx)
	return err
}

// --- per-table migrations ---

func migrateResults(ctx context.Context, myDB *sql.DB, dst *bun.DB) (int, error) {
	rows, err := myDB.QueryContext(ctx, `
		SELECT id, raceid, racetype, candidateid, ballotorder, first, last, party, incumbent,
			officename, level, statepostal, statename, seatname, seatnum,
			reportingunitid, reportingunitname, is_ballot_measure, uncontested,
			votecount, votepct, precinctsreporting, precinctsreportingpct, precinctstotal,
			electtotal, electwon, winner, electiondate, lastupdated
		FROM result`)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var batch []models.Result
	total := 0
	for rows.Next() {
		var (
			r                                                    models.Result
			raceID, raceType, candID, first, last, party         sql.NullString
			office, level, state, stateName, seatName, seatNum   sql.NullString
			ruID, ruName                                         sql.NullString
			ballot, votes, prec, precTotal, electTotal, electWon sql.NullInt64
			incumbent, measure, uncontested, winner              sql.NullBool
			votePct, precPct                                     sql.NullFloat64
			electionDate                                         sql.NullTime
			updated                                              sql.NullTime
		)
		if err := rows.Scan(&r.ID, &raceID, &raceType, &candID, &ballot, &first, &last, &party, &incumbent,
			&office, &level, &state, &stateName, &seatName, &seatNum,
			&ruID, &ruName, &measure, &uncontested,
			&votes, &votePct, &prec, &precPct, &precTotal,
			&electTotal, &electWon, &winner, &electionDate, &updated,
		); err != nil {
			return total, err
		}
		r.RaceID, r.RaceType, r.CandidateID = str(raceID), str(raceType), str(candID)
		r.BallotOrder = num(ballot)
		r.First, r.Last, r.Party = str(first), str(last), str(party)
		r.Incumbent = incumbent.Bool
		r.OfficeName, r.Level, r.StatePostal, r.StateName = str(office), str(level), str(state), str(stateName)
		r.SeatName, r.SeatNum = str(seatName), str(seatNum)
		r.ReportingUnitID, r.ReportingUnitName = str(ruID), str(ruName)
		r.IsBallotMeasure, r.Uncontested, r.Winner = measure.Bool, uncontested.Bool, winner.Bool
		r.VoteCount, r.VotePct = num(votes), flt(votePct)
		r.PrecinctsReporting, r.PrecinctsReportingPct, r.PrecinctsTotal = num(prec), flt(precPct), num(precTotal)
		r.ElectTotal, r.ElectWon = num(electTotal), num(electWon)
		r.ElectionDate = fmtDate(electionDate)
		if updated.Valid {
			r.LastUpdated = updated.Time.UTC()
		}

		batch = append(batch, r)
		if len(batch) >= batchSize {
			if err := bulkInsert(ctx, dst, batch); err != nil {
				return total, err
			}
			total += len(batch)
			batch = batch[:0]
		}
	}
	if err := rows.Err(); err != nil {
		return total, err
	}
	if err := bulkInsert(ctx, dst, batch); err != nil {
		return total, err
	}
	return total + len(batch), nil
}

func migrateCalls(ctx context.Context, myDB *sql.DB, dst *bun.DB) (int, error) {
	rows, err := myDB.QueryContext(ctx, "SELECT call_id, accept_ap, override_winner FROM `call`")
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var batch []models.Call
	total := 0
	for rows.Next() {
		var c models.Call
		if err := rows.Scan(&c.ResultID, &c.AcceptWire, &c.OverrideWinner); err != nil {
			return total, err
		}
		batch = append(batch, c)
		if len(batch) >= batchSize {
			if err := bulkInsert(ctx, dst, batch); err != nil {
				return total, err
			}
			total += len(batch)
			batch = batch[:0]
		}
	}
	if err := rows.Err(); err != nil {
		return total, err
	}
	if err := bulkInsert(ctx, dst, batch); err != nil {
		return total, err
	}
	return total + len(batch), nil
}

func migrateRaceMeta(ctx context.Context, myDB *sql.DB, dst *bun.DB) (int, error) {
	rows, err := myDB.QueryContext(ctx, `
		SELECT result_id, poll_closing, full_poll_closing, first_results, current_party, expected
		FROM racemeta`)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var batch []models.RaceMeta
	total := 0
	for rows.Next() {
		var (
			m                                          models.RaceMeta
			closing, fullClosing, first, current, expd sql.NullString
		)
		if err := rows.Scan(&m.ResultID, &closing, &fullClosing, &first, &current, &expd); err != nil {
			return total, err
		}
		m.PollClosing, m.FullPollClosing, m.FirstResults = str(closing), str(fullClosing), str(first)
		m.CurrentParty, m.Expected = str(current), str(expd)
		m.VotingMember = true

		batch = append(batch, m)
		if len(batch) >= batchSize {
			if err := bulkInsert(ctx, dst, batch); err != nil {
				return total, err
			}
			total += len(batch)
			batch = batch[:0]
		}
	}
	if err := rows.Err(); err != nil {
		return total, err
	}
	if err := bulkInsert(ctx, dst, batch); err != nil {
		return total, err
	}
	return total + len(batch), nil
}
