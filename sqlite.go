package stravastats

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS activities (
    run_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    name TEXT,
    type TEXT,
    start_date_local TEXT,
    distance_km REAL NOT NULL,
    moving_time_s INTEGER,
    total_elevation_gain_m REAL,
    average_speed_kmh REAL NOT NULL,
    calories REAL,
    average_heartrate REAL,
    max_heartrate REAL,
    PRIMARY KEY (run_id, position)
);`

// SQLiteSink stores the dataset of the most recent run in a SQLite database
type SQLiteSink struct {
	db    *sql.DB
	runID string
}

// OpenSQLite opens (creating if needed) the database at path
func OpenSQLite(path, runID string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open database: %w", ErrIO, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: failed to create schema: %w", ErrIO, err)
	}
	return &SQLiteSink{db: db, runID: runID}, nil
}

func (s *SQLiteSink) Close() error {
	return s.db.Close()
}

// Write replaces the stored dataset with records
func (s *SQLiteSink) Write(ctx context.Context, records []*Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM activities`); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO activities (run_id, position, name, type, start_date_local, distance_km,
			moving_time_s, total_elevation_gain_m, average_speed_kmh, calories,
			average_heartrate, max_heartrate)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	defer stmt.Close()

	for i, rec := range records {
		var start sql.NullString
		if rec.StartDateLocal != nil {
			start = sql.NullString{String: rec.StartDateLocal.Format(time.RFC3339), Valid: true}
		}
		_, err := stmt.ExecContext(ctx, s.runID, i, nullable(rec.Name), nullable(rec.Type), start,
			rec.DistanceKm, nullable(rec.MovingTimeS), nullable(rec.TotalElevationGainM),
			rec.AverageSpeedKmh, nullable(rec.Calories), nullable(rec.AverageHeartrate),
			nullable(rec.MaxHeartrate))
		if err != nil {
			return fmt.Errorf("%w: insert activity %d: %w", ErrIO, i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	log.Info().Str("run", s.runID).Int("records", len(records)).Msg("sqlite")
	return nil
}

// Records returns the stored dataset in fetch order
func (s *SQLiteSink) Records(ctx context.Context) ([]*Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, type, start_date_local, distance_km, moving_time_s, total_elevation_gain_m,
			average_speed_kmh, calories, average_heartrate, max_heartrate
		FROM activities ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		var (
			name, typ, start             sql.NullString
			moving                       sql.NullInt64
			elevation, cal, avghr, maxhr sql.NullFloat64
			rec                          Record
		)
		if err := rows.Scan(&name, &typ, &start, &rec.DistanceKm, &moving, &elevation,
			&rec.AverageSpeedKmh, &cal, &avghr, &maxhr); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrIO, err)
		}
		if name.Valid {
			rec.Name = &name.String
		}
		if typ.Valid {
			rec.Type = &typ.String
		}
		if start.Valid {
			t, err := time.Parse(time.RFC3339, start.String)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrIO, err)
			}
			rec.StartDateLocal = &t
		}
		if moving.Valid {
			rec.MovingTimeS = &moving.Int64
		}
		rec.TotalElevationGainM = nullFloat(elevation)
		rec.Calories = nullFloat(cal)
		rec.AverageHeartrate = nullFloat(avghr)
		rec.MaxHeartrate = nullFloat(maxhr)
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	return records, nil
}

func nullable[T any](p *T) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return &v.Float64
}
