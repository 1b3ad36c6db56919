package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/ferrisk/coachd/internal/audit"
	"github.com/ferrisk/coachd/internal/profile"
	"github.com/ferrisk/coachd/internal/replay"
	"github.com/ferrisk/coachd/internal/snapshot"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to coachd.db")
	user := flag.String("user", "", "user id to export")
	last := flag.Int("last", 10, "number of most recent decisions to export")
	outPath := flag.String("out", "", "output fixture JSON path")
	flag.Parse()

	if *dbPath == "" || *user == "" || *outPath == "" {
		fmt.Fprintln(os.Stderr, "usage: fixture-export --db path/to/coachd.db --user id --out path/to/fixture.json [--last N]")
		os.Exit(2)
	}

	if err := run(*dbPath, *user, *last, *outPath); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region export

func run(dbPath, user string, last int, outPath string) error {
	store, err := profile.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer store.Close()

	trail, err := audit.NewLog(store.DB())
	if err != nil {
		return err
	}

	entries, err := trail.Recent(user, last)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return fmt.Errorf("no recorded decisions for user %s", user)
	}

	// Recent returns newest first; fixtures run chronologically.
	steps := make([]replay.FixtureStep, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]

		var raw snapshot.Raw
		if err := json.Unmarshal([]byte(e.ContextJSON), &raw); err != nil {
			return fmt.Errorf("decision %d: parse recorded context: %w", e.Seq, err)
		}

		exp := &replay.FixtureExpected{Action: "defer", Reason: e.Reason}
		if e.Proceed {
			exp = &replay.FixtureExpected{Action: "intervene", Strategy: e.StrategyID}
		}

		steps = append(steps, replay.FixtureStep{
			StepID:   fmt.Sprintf("s%d", e.Seq),
			Kind:     "decide",
			UserID:   e.UserID,
			At:       e.DecidedAt,
			Context:  &raw,
			Expected: exp,
		})
	}

	f := replay.Fixture{
		Description: fmt.Sprintf("exported decision trail for %s (%d steps)", user, len(steps)),
		Steps:       steps,
	}
	if err := f.Validate(); err != nil {
		return fmt.Errorf("exported fixture invalid: %w", err)
	}

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}
	if err := os.WriteFile(outPath, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write fixture: %w", err)
	}

	fmt.Printf("wrote %d steps to %s\n", len(steps), outPath)
	return nil
}

// #endregion export
