package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ferrisk/coachd/internal/audit"
	"github.com/ferrisk/coachd/internal/profile"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to coachd.db")
	user := flag.String("user", "", "user id to inspect")
	last := flag.Int("last", 20, "show N most recent decisions")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *dbPath == "" || *user == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/coachd.db --user id [--last N] [--json]")
		os.Exit(2)
	}

	store, err := profile.NewStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if err := run(store, *user, *last, *jsonOut); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region inspect

type report struct {
	Profile   profileView   `json:"profile"`
	Decisions []audit.Entry `json:"decisions"`
}

type profileView struct {
	UserID          string             `json:"user_id"`
	Traits          map[string]float32 `json:"traits"`
	StrategyWeights map[string]float32 `json:"strategy_weights"`
	CooldownFactor  float32            `json:"cooldown_factor"`
	UpdatedAt       string             `json:"updated_at"`
}

func run(store *profile.Store, user string, last int, jsonOut bool) error {
	p, err := store.LoadProfile(user)
	if err != nil {
		return err
	}

	trail, err := audit.NewLog(store.DB())
	if err != nil {
		return err
	}
	decisions, err := trail.Recent(user, last)
	if err != nil {
		return err
	}

	weights := make(map[string]float32, len(p.StrategyWeights))
	for id, w := range p.StrategyWeights {
		weights[string(id)] = w
	}

	r := report{
		Profile: profileView{
			UserID:          p.UserID,
			Traits:          p.Traits,
			StrategyWeights: weights,
			CooldownFactor:  p.CooldownFactor,
			UpdatedAt:       p.UpdatedAt.Format("2006-01-02T15:04:05Z"),
		},
		Decisions: decisions,
	}

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}

	printTable(r)
	return nil
}

func printTable(r report) {
	fmt.Printf("user: %s  cooldown_factor: %.2f  updated: %s\n",
		r.Profile.UserID, r.Profile.CooldownFactor, r.Profile.UpdatedAt)

	fmt.Println("\nstrategy weights:")
	ids := make([]string, 0, len(r.Profile.StrategyWeights))
	for id := range r.Profile.StrategyWeights {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		fmt.Printf("  %-22s %.4f\n", id, r.Profile.StrategyWeights[id])
	}

	fmt.Printf("\ndecisions (%d):\n", len(r.Decisions))
	fmt.Printf("  %-24s %-10s %-22s %-22s %s\n", "decided_at", "action", "reason", "strategy", "recept")
	fmt.Println("  " + strings.Repeat("-", 88))
	for _, d := range r.Decisions {
		action := "defer"
		if d.Proceed {
			action = "intervene"
			if d.Degraded {
				action = "degraded"
			}
		}
		fmt.Printf("  %-24s %-10s %-22s %-22s %.3f\n",
			d.DecidedAt.Format("2006-01-02T15:04:05Z"), action, d.Reason, d.StrategyID, d.Receptivity)
	}
}

// #endregion inspect
