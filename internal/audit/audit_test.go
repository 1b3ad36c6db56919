package audit

import (
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

func newTestLog(t *testing.T) *Log {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	l, err := NewLog(db)
	if err != nil {
		t.Fatalf("new log: %v", err)
	}
	return l
}

func TestAppendAndRecent(t *testing.T) {
	l := newTestLog(t)
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	entries := []Entry{
		{UserID: "alice", DecidedAt: now, Proceed: false, Reason: "cooldown", Receptivity: 0.7},
		{UserID: "alice", DecidedAt: now.Add(time.Hour), Proceed: true, Receptivity: 0.72,
			StrategyID: "focus_enhancement", InterventionID: "iv-1"},
		{UserID: "bob", DecidedAt: now, Proceed: false, Reason: "low_receptivity", Receptivity: 0.3},
	}
	for _, e := range entries {
		if err := l.Append(e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	got, err := l.Recent("alice", 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d entries, want 2", len(got))
	}
	if !got[0].Proceed || got[0].InterventionID != "iv-1" {
		t.Fatalf("newest-first ordering broken: %+v", got[0])
	}
	if got[1].Reason != "cooldown" {
		t.Fatalf("defer reason lost: %+v", got[1])
	}
	if !got[0].DecidedAt.Equal(now.Add(time.Hour)) {
		t.Fatalf("timestamp round trip: %v", got[0].DecidedAt)
	}
}

func TestRecentRespectsLimit(t *testing.T) {
	l := newTestLog(t)
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		if err := l.Append(Entry{UserID: "alice", DecidedAt: now, Reason: "cooldown"}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	got, err := l.Recent("alice", 3)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("limit ignored: got %d", len(got))
	}
}

func TestRecentUnknownUser(t *testing.T) {
	l := newTestLog(t)
	got, err := l.Recent("nobody", 5)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty trail, got %d", len(got))
	}
}
