package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newTestGoal() *Goal {
	return &Goal{
		UserID:      primitive.NewObjectID(),
		Title:       "Run 100km",
		TargetValue: 100,
		Status:      GoalActive,
		StartDate:   time.Now(),
		Deadline:    time.Now().AddDate(0, 1, 0),
	}
}

func TestGoalValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Goal)
		wantErr bool
	}{
		{"valid", func(g *Goal) {}, false},
		{"missing user", func(g *Goal) { g.UserID = primitive.NilObjectID }, true},
		{"empty title", func(g *Goal) { g.Title = "" }, true},
		{"zero target", func(g *Goal) { g.TargetValue = 0 }, true},
		{"negative target", func(g *Goal) { g.TargetValue = -5 }, true},
		{"unknown status", func(g *Goal) { g.Status = "dreaming" }, true},
		{"deadline before start", func(g *Goal) { g.Deadline = g.StartDate.AddDate(0, 0, -1) }, true},
		{"no deadline", func(g *Goal) { g.Deadline = time.Time{} }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGoal()
			tt.mutate(g)
			err := g.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrValidation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRecalculateCompletion(t *testing.T) {
	now := time.Now()

	g := newTestGoal()
	g.CurrentValue = 33.333
	g.RecalculateCompletion(now)
	assert.Equal(t, 33.3, g.CompletionPercentage)
	assert.False(t, g.Completed)

	g.CurrentValue = 150
	g.RecalculateCompletion(now)
	assert.Equal(t, 100.0, g.CompletionPercentage)
	assert.True(t, g.Completed)
	assert.Equal(t, GoalCompleted, g.Status)
	require.NotNil(t, g.CompletedAt)
	completedAt := *g.CompletedAt

	// Completion sticks: recomputing later keeps the original timestamp.
	g.RecalculateCompletion(now.Add(time.Hour))
	assert.Equal(t, completedAt, *g.CompletedAt)
}

func TestDaysUntilDeadline(t *testing.T) {
	now := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		deadline time.Time
		want     int
	}{
		{"exactly 24h", now.Add(24 * time.Hour), 1},
		{"just under 24h", now.Add(23 * time.Hour), 1},
		{"exactly 7 days", now.Add(7 * 24 * time.Hour), 7},
		{"six and a half days", now.Add(6*24*time.Hour + 12*time.Hour), 7},
		{"past deadline", now.Add(-time.Hour), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGoal()
			g.Deadline = tt.deadline
			assert.Equal(t, tt.want, g.DaysUntilDeadline(now))
		})
	}
}
