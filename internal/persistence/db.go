// Package persistence records simulation runs to SQLite for external
// charting. Nothing is ever loaded back into a simulation.
package persistence

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/crossing-sim/internal/config"
	"github.com/talgya/crossing-sim/internal/engine"
)

// DB wraps a SQLite connection holding recorded runs.
type DB struct {
	conn *sqlx.DB
}

// Run is one recorded simulation run.
type Run struct {
	ID                 string    `db:"id"`
	Seed               int64     `db:"seed"`
	Config             string    `db:"config_json"`
	StartedAt          time.Time `db:"started_at"`
	FinalTick          uint64    `db:"final_tick"`
	CarsPassed         int       `db:"cars_passed"`
	PedestriansCrossed int       `db:"pedestrians_crossed"`
	EmergenciesCleared int       `db:"emergencies_cleared"`
	AvgTravelTime      float64   `db:"avg_travel_time"`
	AvgPedestrianTime  float64   `db:"avg_pedestrian_time"`
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		seed INTEGER NOT NULL,
		config_json TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		final_tick INTEGER NOT NULL DEFAULT 0,
		cars_passed INTEGER NOT NULL DEFAULT 0,
		pedestrians_crossed INTEGER NOT NULL DEFAULT 0,
		emergencies_cleared INTEGER NOT NULL DEFAULT 0,
		avg_travel_time REAL NOT NULL DEFAULT 0,
		avg_pedestrian_time REAL NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS samples (
		run_id TEXT NOT NULL REFERENCES runs(id),
		tick INTEGER NOT NULL,
		cars_passed INTEGER NOT NULL,
		avg_travel_time REAL NOT NULL,
		avg_car_wait REAL NOT NULL,
		queue_length INTEGER NOT NULL,
		pedestrians_crossed INTEGER NOT NULL,
		avg_pedestrian_time REAL NOT NULL,
		avg_pedestrian_wait REAL NOT NULL,
		emergency_active INTEGER NOT NULL,
		emergencies_cleared INTEGER NOT NULL,
		PRIMARY KEY (run_id, tick)
	);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// StartRun registers a new run and returns its id.
func (db *DB) StartRun(cfg config.Config, seed int64) (string, error) {
	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}

	id := uuid.NewString()
	_, err = db.conn.Exec(
		"INSERT INTO runs (id, seed, config_json, started_at) VALUES (?, ?, ?, ?)",
		id, seed, string(cfgJSON), time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	slog.Info("run recording started", "run", id, "seed", seed)
	return id, nil
}

// SaveSamples appends samples to a run in one transaction.
func (db *DB) SaveSamples(runID string, samples []engine.Sample) error {
	if len(samples) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Preparex(`INSERT INTO samples
		(run_id, tick, cars_passed, avg_travel_time, avg_car_wait, queue_length,
		 pedestrians_crossed, avg_pedestrian_time, avg_pedestrian_wait,
		 emergency_active, emergencies_cleared)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, s := range samples {
		active := 0
		if s.EmergencyActive {
			active = 1
		}
		_, err := stmt.Exec(
			runID, s.Tick, s.CarsPassed, s.AvgTravelTime, s.AvgCarWait, s.QueueLength,
			s.PedestriansCrossed, s.AvgPedestrianTime, s.AvgPedestrianWait,
			active, s.EmergenciesCleared,
		)
		if err != nil {
			return fmt.Errorf("insert sample %d: %w", s.Tick, err)
		}
	}

	return tx.Commit()
}

// FinishRun stores the final tick and totals of a run.
func (db *DB) FinishRun(runID string, tick uint64, m engine.Metrics) error {
	res, err := db.conn.Exec(`UPDATE runs SET
		final_tick = ?, cars_passed = ?, pedestrians_crossed = ?, emergencies_cleared = ?,
		avg_travel_time = ?, avg_pedestrian_time = ?
		WHERE id = ?`,
		tick, m.CarsPassed, m.PedestriansCrossed, m.EmergenciesCleared,
		m.AvgTravelTime, m.AvgPedestrianTime, runID,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finish run %s: no such run", runID)
	}
	slog.Info("run recording finished", "run", runID, "tick", tick)
	return nil
}

type sampleRow struct {
	Tick               uint64  `db:"tick"`
	CarsPassed         int     `db:"cars_passed"`
	AvgTravelTime      float64 `db:"avg_travel_time"`
	AvgCarWait         float64 `db:"avg_car_wait"`
	QueueLength        int     `db:"queue_length"`
	PedestriansCrossed int     `db:"pedestrians_crossed"`
	AvgPedestrianTime  float64 `db:"avg_pedestrian_time"`
	AvgPedestrianWait  float64 `db:"avg_pedestrian_wait"`
	EmergencyActive    bool    `db:"emergency_active"`
	EmergenciesCleared int     `db:"emergencies_cleared"`
}

// Samples returns a run's samples in tick order.
func (db *DB) Samples(runID string) ([]engine.Sample, error) {
	var rows []sampleRow
	err := db.conn.Select(&rows, `SELECT
		tick, cars_passed, avg_travel_time, avg_car_wait, queue_length,
		pedestrians_crossed, avg_pedestrian_time, avg_pedestrian_wait,
		emergency_active, emergencies_cleared
		FROM samples WHERE run_id = ? ORDER BY tick`, runID)
	if err != nil {
		return nil, fmt.Errorf("select samples: %w", err)
	}

	out := make([]engine.Sample, len(rows))
	for i, r := range rows {
		out[i] = engine.Sample{
			Tick: r.Tick,
			Metrics: engine.Metrics{
				CarsPassed:         r.CarsPassed,
				AvgTravelTime:      r.AvgTravelTime,
				AvgCarWait:         r.AvgCarWait,
				QueueLength:        r.QueueLength,
				PedestriansCrossed: r.PedestriansCrossed,
				AvgPedestrianTime:  r.AvgPedestrianTime,
				AvgPedestrianWait:  r.AvgPedestrianWait,
				EmergencyActive:    r.EmergencyActive,
				EmergenciesCleared: r.EmergenciesCleared,
			},
		}
	}
	return out, nil
}

// Runs returns every recorded run, newest first.
func (db *DB) Runs() ([]Run, error) {
	var runs []Run
	err := db.conn.Select(&runs, `SELECT
		id, seed, config_json, started_at, final_tick, cars_passed,
		pedestrians_crossed, emergencies_cleared, avg_travel_time, avg_pedestrian_time
		FROM runs ORDER BY started_at DESC, id`)
	return runs, err
}
