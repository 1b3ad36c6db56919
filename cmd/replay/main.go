package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/ferrisk/coachd/internal/replay"
)

// #region main

func main() {
	fixturePath := flag.String("fixture", "", "path to fixture JSON")
	verbose := flag.Bool("v", false, "print every step, not just mismatches")
	flag.Parse()

	if *fixturePath == "" {
		fmt.Fprintln(os.Stderr, "usage: replay --fixture path/to/fixture.json [-v]")
		os.Exit(2)
	}

	f, err := replay.LoadFixture(*fixturePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if f.Description != "" {
		fmt.Printf("fixture: %s\n", f.Description)
	}

	results, err := replay.Replay(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	for _, r := range results {
		if !*verbose && r.Match {
			continue
		}
		printStep(r)
	}

	s := replay.Summarize(results)
	fmt.Printf("\nsteps: %d  interventions: %d  defers: %d  outcomes: %d  mismatches: %d\n",
		s.TotalSteps, s.Interventions, s.Defers, s.Outcomes, s.Mismatches)

	if s.Mismatches > 0 {
		os.Exit(1)
	}
}

// #endregion main

// #region output

func printStep(r replay.StepResult) {
	status := "ok"
	if !r.Match {
		status = "MISMATCH"
	}
	switch r.Kind {
	case "outcome":
		fmt.Printf("  [%s] %-8s outcome", status, r.StepID)
		if r.OutcomeErr != "" {
			fmt.Printf(" (%s)", r.OutcomeErr)
		}
		fmt.Println()
	default:
		fmt.Printf("  [%s] %-8s %-10s reason=%-22s strategy=%-22s receptivity=%.3f\n",
			status, r.StepID, r.Action, r.Reason, r.Strategy, r.Receptivity)
	}
	if r.Mismatch != "" {
		fmt.Printf("           %s\n", r.Mismatch)
	}
}

// #endregion output
