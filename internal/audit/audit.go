package audit

import (
	"database/sql"
	"fmt"
	"time"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS decision_log (
	seq             INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id         TEXT NOT NULL,
	decided_at      TEXT NOT NULL,
	proceed         INTEGER NOT NULL,
	reason          TEXT NOT NULL DEFAULT '',
	receptivity     REAL NOT NULL,
	strategy_id     TEXT NOT NULL DEFAULT '',
	intervention_id TEXT NOT NULL DEFAULT '',
	degraded        INTEGER NOT NULL DEFAULT 0,
	context_json    TEXT NOT NULL DEFAULT '{}'
);

CREATE INDEX IF NOT EXISTS idx_decision_log_user
ON decision_log(user_id, decided_at);
`

// #endregion schema

// #region entry
// Entry is one appended decision. Defer entries carry a reason and no
// strategy; proceed entries carry the strategy and intervention id.
type Entry struct {
	Seq            int64
	UserID         string
	DecidedAt      time.Time
	Proceed        bool
	Reason         string
	Receptivity    float32
	StrategyID     string
	InterventionID string
	Degraded       bool

	// ContextJSON is the submitted raw context, kept verbatim so recorded
	// decisions can be re-run through the pipeline.
	ContextJSON string
}

// #endregion entry

// #region log
// Log is the append-only decision trail. Entries are never updated or
// deleted; the table is the system's own account of why it spoke or
// stayed quiet.
type Log struct {
	db *sql.DB
}

// NewLog creates the decision log over an already-open database.
func NewLog(db *sql.DB) (*Log, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate decision log: %w", err)
	}
	return &Log{db: db}, nil
}

// Append records one decision.
func (l *Log) Append(e Entry) error {
	proceed, degraded := 0, 0
	if e.Proceed {
		proceed = 1
	}
	if e.Degraded {
		degraded = 1
	}
	ctxJSON := e.ContextJSON
	if ctxJSON == "" {
		ctxJSON = "{}"
	}
	_, err := l.db.Exec(
		`INSERT INTO decision_log
		 (user_id, decided_at, proceed, reason, receptivity, strategy_id, intervention_id, degraded, context_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.UserID, e.DecidedAt.UTC().Format(time.RFC3339Nano),
		proceed, e.Reason, e.Receptivity, e.StrategyID, e.InterventionID, degraded, ctxJSON,
	)
	if err != nil {
		return fmt.Errorf("append decision: %w", err)
	}
	return nil
}

// Recent returns the newest entries for a user, most recent first.
func (l *Log) Recent(userID string, limit int) ([]Entry, error) {
	rows, err := l.db.Query(
		`SELECT seq, user_id, decided_at, proceed, reason, receptivity, strategy_id, intervention_id, degraded, context_json
		 FROM decision_log WHERE user_id = ?
		 ORDER BY seq DESC LIMIT ?`, userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query decisions: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var decidedStr string
		var proceed, degraded int
		if err := rows.Scan(&e.Seq, &e.UserID, &decidedStr, &proceed, &e.Reason,
			&e.Receptivity, &e.StrategyID, &e.InterventionID, &degraded, &e.ContextJSON); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		e.DecidedAt, _ = time.Parse(time.RFC3339Nano, decidedStr)
		e.Proceed = proceed == 1
		e.Degraded = degraded == 1
		out = append(out, e)
	}
	return out, rows.Err()
}

// #endregion log
