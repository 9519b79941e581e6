package domain

import "context"

// Level is the coarse credit rating shown to the UI.
type Level string

const (
	LevelGreen  Level = "green"
	LevelYellow Level = "yellow"
	LevelRed    Level = "red"
)

// Snapshot is the per-user debt picture a rule evaluates.
type Snapshot struct {
	OverdueLoans     int
	NearDueLoans     int
	RejectedPayments int
}

// Rule derives a level from a snapshot. Rules must be deterministic.
type Rule func(Snapshot) Level

// DefaultRule: any overdue loan is red; rejected payments or loans close to
// their due date are yellow; otherwise green.
func DefaultRule(s Snapshot) Level {
	switch {
	case s.OverdueLoans > 0:
		return LevelRed
	case s.RejectedPayments > 0 || s.NearDueLoans > 0:
		return LevelYellow
	default:
		return LevelGreen
	}
}

// ScoreRule weighs the snapshot into a score and cuts at the legacy
// thresholds: 5 and above red, 3 and above yellow.
func ScoreRule(s Snapshot) Level {
	score := 2*s.OverdueLoans + s.NearDueLoans + s.RejectedPayments
	switch {
	case score >= 5:
		return LevelRed
	case score >= 3:
		return LevelYellow
	default:
		return LevelGreen
	}
}

// RuleByName resolves the configured rule name, falling back to DefaultRule.
func RuleByName(name string) Rule {
	if name == "score" {
		return ScoreRule
	}
	return DefaultRule
}

// SnapshotReader reads the current debt snapshot for a user from the ledger.
type SnapshotReader interface {
	Snapshot(ctx context.Context, userID uint64) (Snapshot, error)
}

// LevelWriter persists the derived level on the user record.
type LevelWriter interface {
	SaveLevel(ctx context.Context, userID uint64, level Level) error
}

// LevelCache is a read-through cache over derived levels. Entries are
// refreshed on every recompute, so stale values age out by TTL alone.
type LevelCache interface {
	Get(ctx context.Context, userID uint64) (Level, bool, error)
	Set(ctx context.Context, userID uint64, level Level) error
}
