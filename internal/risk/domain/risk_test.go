package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultRule(t *testing.T) {
	tests := []struct {
		name     string
		snapshot Snapshot
		want     Level
	}{
		{"clean history", Snapshot{}, LevelGreen},
		{"one overdue loan", Snapshot{OverdueLoans: 1}, LevelRed},
		{"overdue trumps everything", Snapshot{OverdueLoans: 1, NearDueLoans: 5, RejectedPayments: 5}, LevelRed},
		{"near due only", Snapshot{NearDueLoans: 1}, LevelYellow},
		{"rejected payment only", Snapshot{RejectedPayments: 1}, LevelYellow},
		{"near due and rejected", Snapshot{NearDueLoans: 2, RejectedPayments: 1}, LevelYellow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DefaultRule(tt.snapshot))
		})
	}
}

func TestScoreRule(t *testing.T) {
	tests := []struct {
		name     string
		snapshot Snapshot
		want     Level
	}{
		{"clean history", Snapshot{}, LevelGreen},
		{"below yellow threshold", Snapshot{OverdueLoans: 1}, LevelGreen},
		{"at yellow threshold", Snapshot{OverdueLoans: 1, NearDueLoans: 1}, LevelYellow},
		{"at red threshold", Snapshot{OverdueLoans: 2, RejectedPayments: 1}, LevelRed},
		{"rejections alone can reach red", Snapshot{RejectedPayments: 5}, LevelRed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ScoreRule(tt.snapshot))
		})
	}
}

func TestRuleByName(t *testing.T) {
	red := Snapshot{OverdueLoans: 1}

	assert.Equal(t, LevelRed, RuleByName("default")(red))
	// ScoreRule weighs a single overdue loan as 2, below the yellow cut.
	assert.Equal(t, LevelGreen, RuleByName("score")(red))
	assert.Equal(t, LevelRed, RuleByName("unknown")(red))
}
