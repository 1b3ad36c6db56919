package profile

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ferrisk/coachd/internal/gate"
	"github.com/ferrisk/coachd/internal/strategy"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS profiles (
	user_id         TEXT PRIMARY KEY,
	traits_json     TEXT NOT NULL,
	weights_json    TEXT NOT NULL,
	cooldown_factor REAL NOT NULL DEFAULT 1.0,
	created_at      TEXT NOT NULL,
	updated_at      TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS interventions (
	id               TEXT PRIMARY KEY,
	user_id          TEXT NOT NULL,
	strategy_id      TEXT NOT NULL,
	receptivity      REAL NOT NULL,
	slot_id          TEXT NOT NULL,
	optimal_time     TEXT NOT NULL,
	valid_window_sec INTEGER NOT NULL,
	status           TEXT NOT NULL,
	created_at       TEXT NOT NULL,
	expires_at       TEXT NOT NULL,
	FOREIGN KEY (user_id) REFERENCES profiles(user_id)
);

CREATE INDEX IF NOT EXISTS idx_interventions_user_created
ON interventions(user_id, created_at);
`

// #endregion schema

// #region store-struct
// Store manages profiles and intervention history in SQLite.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use by other packages (e.g. audit).
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion store-struct

// #region profiles

// LoadProfile reads a stored profile. Returns ErrProfileNotFound when the
// user has never been seen.
func (s *Store) LoadProfile(userID string) (Profile, error) {
	var p Profile
	var traitsJSON, weightsJSON, createdStr, updatedStr string

	err := s.db.QueryRow(
		`SELECT user_id, traits_json, weights_json, cooldown_factor, created_at, updated_at
		 FROM profiles WHERE user_id = ?`, userID,
	).Scan(&p.UserID, &traitsJSON, &weightsJSON, &p.CooldownFactor, &createdStr, &updatedStr)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, fmt.Errorf("user %s: %w", userID, ErrProfileNotFound)
	}
	if err != nil {
		return Profile{}, fmt.Errorf("load profile %s: %w", userID, err)
	}

	if err := json.Unmarshal([]byte(traitsJSON), &p.Traits); err != nil {
		return Profile{}, fmt.Errorf("unmarshal traits: %w", err)
	}
	if err := json.Unmarshal([]byte(weightsJSON), &p.StrategyWeights); err != nil {
		return Profile{}, fmt.Errorf("unmarshal weights: %w", err)
	}
	p.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
	p.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedStr)
	return p, nil
}

// LoadOrCreateProfile reads the profile, creating a fresh uniform one on
// first contact.
func (s *Store) LoadOrCreateProfile(userID string, now time.Time) (Profile, error) {
	p, err := s.LoadProfile(userID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, ErrProfileNotFound) {
		return Profile{}, err
	}
	p = NewProfile(userID, now)
	if err := s.SaveProfile(p); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// SaveProfile upserts a profile.
func (s *Store) SaveProfile(p Profile) error {
	traitsJSON, err := json.Marshal(p.Traits)
	if err != nil {
		return fmt.Errorf("marshal traits: %w", err)
	}
	weightsJSON, err := json.Marshal(p.StrategyWeights)
	if err != nil {
		return fmt.Errorf("marshal weights: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO profiles (user_id, traits_json, weights_json, cooldown_factor, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
		   traits_json = excluded.traits_json,
		   weights_json = excluded.weights_json,
		   cooldown_factor = excluded.cooldown_factor,
		   updated_at = excluded.updated_at`,
		p.UserID, string(traitsJSON), string(weightsJSON), p.CooldownFactor,
		p.CreatedAt.UTC().Format(time.RFC3339Nano), p.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save profile %s: %w", p.UserID, err)
	}
	return nil
}

// #endregion profiles

// #region interventions

// AppendIntervention records a new intervention in the user's history.
func (s *Store) AppendIntervention(rec InterventionRecord) error {
	_, err := s.db.Exec(
		`INSERT INTO interventions
		 (id, user_id, strategy_id, receptivity, slot_id, optimal_time, valid_window_sec, status, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.UserID, string(rec.StrategyID), rec.Receptivity, rec.SlotID,
		rec.OptimalTime.UTC().Format(time.RFC3339Nano),
		int64(rec.ValidWindow.Seconds()), string(rec.Status),
		rec.CreatedAt.UTC().Format(time.RFC3339Nano),
		rec.ExpiresAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("append intervention %s: %w", rec.ID, err)
	}
	return nil
}

// GetIntervention retrieves one record by id.
func (s *Store) GetIntervention(id string) (InterventionRecord, error) {
	var rec InterventionRecord
	var stratID, status, optimalStr, createdStr, expiresStr string
	var windowSec int64

	err := s.db.QueryRow(
		`SELECT id, user_id, strategy_id, receptivity, slot_id, optimal_time, valid_window_sec, status, created_at, expires_at
		 FROM interventions WHERE id = ?`, id,
	).Scan(&rec.ID, &rec.UserID, &stratID, &rec.Receptivity, &rec.SlotID,
		&optimalStr, &windowSec, &status, &createdStr, &expiresStr)
	if errors.Is(err, sql.ErrNoRows) {
		return InterventionRecord{}, fmt.Errorf("intervention %s: %w", id, ErrInterventionNotFound)
	}
	if err != nil {
		return InterventionRecord{}, fmt.Errorf("get intervention %s: %w", id, err)
	}

	rec.StrategyID = strategy.ID(stratID)
	rec.Status = Status(status)
	rec.ValidWindow = time.Duration(windowSec) * time.Second
	rec.OptimalTime, _ = time.Parse(time.RFC3339Nano, optimalStr)
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
	rec.ExpiresAt, _ = time.Parse(time.RFC3339Nano, expiresStr)
	return rec, nil
}

// SetInterventionStatus transitions a record's lifecycle state.
func (s *Store) SetInterventionStatus(id string, status Status) error {
	res, err := s.db.Exec(`UPDATE interventions SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("set status %s: %w", id, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("intervention %s: %w", id, ErrInterventionNotFound)
	}
	return nil
}

// Window computes the gate's per-user history facts: last intervention time
// and sliding daily/hourly counts. Expired records still count toward caps;
// they were delivered moments the user experienced.
func (s *Store) Window(userID string, now time.Time) (gate.Window, error) {
	w := gate.Window{CooldownFactor: 1.0}

	var lastStr sql.NullString
	err := s.db.QueryRow(
		`SELECT MAX(created_at) FROM interventions WHERE user_id = ?`, userID,
	).Scan(&lastStr)
	if err != nil {
		return gate.Window{}, fmt.Errorf("window last: %w", err)
	}
	if lastStr.Valid {
		w.LastInterventionAt, _ = time.Parse(time.RFC3339Nano, lastStr.String)
	}

	dayCutoff := now.Add(-24 * time.Hour).UTC().Format(time.RFC3339Nano)
	hourCutoff := now.Add(-time.Hour).UTC().Format(time.RFC3339Nano)

	err = s.db.QueryRow(
		`SELECT
		   COUNT(CASE WHEN created_at > ? THEN 1 END),
		   COUNT(CASE WHEN created_at > ? THEN 1 END)
		 FROM interventions WHERE user_id = ?`,
		dayCutoff, hourCutoff, userID,
	).Scan(&w.DayCount, &w.HourCount)
	if err != nil {
		return gate.Window{}, fmt.Errorf("window counts: %w", err)
	}

	return w, nil
}

// ExpireStale transitions pending/delivered interventions past their expiry
// time to expired. Soft cleanup, never an error path.
func (s *Store) ExpireStale(now time.Time) (int64, error) {
	res, err := s.db.Exec(
		`UPDATE interventions SET status = ?
		 WHERE status IN (?, ?) AND expires_at <= ?`,
		string(StatusExpired), string(StatusPending), string(StatusDelivered),
		now.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("expire stale: %w", err)
	}
	return res.RowsAffected()
}

// PruneHistory evicts intervention records older than the retention window.
func (s *Store) PruneHistory(before time.Time) (int64, error) {
	res, err := s.db.Exec(
		`DELETE FROM interventions WHERE created_at < ?`,
		before.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("prune history: %w", err)
	}
	return res.RowsAffected()
}

// #endregion interventions
