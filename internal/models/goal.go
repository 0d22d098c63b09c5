package models

import (
	"fmt"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GoalStatus is the lifecycle state of a goal.
type GoalStatus string

const (
	GoalActive    GoalStatus = "active"
	GoalPaused    GoalStatus = "paused"
	GoalCompleted GoalStatus = "completed"
	GoalFailed    GoalStatus = "failed"
	GoalCancelled GoalStatus = "cancelled"
)

func (s GoalStatus) IsValid() bool {
	switch s {
	case GoalActive, GoalPaused, GoalCompleted, GoalFailed, GoalCancelled:
		return true
	}
	return false
}

// Goal is a measurable fitness target with a deadline.
type Goal struct {
	ID                   primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	GoalID               string             `bson:"goal_id" json:"goal_id"`
	UserID               primitive.ObjectID `bson:"user_id" json:"user_id"`
	Title                string             `bson:"title" json:"title"`
	Description          string             `bson:"description,omitempty" json:"description,omitempty"`
	Category             string             `bson:"category,omitempty" json:"category,omitempty"`
	Type                 string             `bson:"type,omitempty" json:"type,omitempty"`
	TargetValue          float64            `bson:"target_value" json:"target_value"`
	CurrentValue         float64            `bson:"current_value" json:"current_value"`
	Unit                 string             `bson:"unit,omitempty" json:"unit,omitempty"`
	CompletionPercentage float64            `bson:"completion_percentage" json:"completion_percentage"`
	StartDate            time.Time          `bson:"start_date" json:"start_date"`
	Deadline             time.Time          `bson:"deadline" json:"deadline"`
	Completed            bool               `bson:"completed" json:"completed"`
	CompletedAt          *time.Time         `bson:"completed_at,omitempty" json:"completed_at,omitempty"`
	Status               GoalStatus         `bson:"status" json:"status"`
	CreatedAt            time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt            time.Time          `bson:"updated_at" json:"updated_at"`
}

// Validate checks the fields required at creation.
func (g *Goal) Validate() error {
	if g.UserID.IsZero() {
		return fmt.Errorf("%w: user id is required", ErrValidation)
	}
	if g.Title == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if g.TargetValue <= 0 {
		return fmt.Errorf("%w: target value must be positive", ErrValidation)
	}
	if g.Status != "" && !g.Status.IsValid() {
		return fmt.Errorf("%w: invalid goal status %q", ErrValidation, g.Status)
	}
	if !g.Deadline.IsZero() && !g.StartDate.IsZero() && !g.Deadline.After(g.StartDate) {
		return fmt.Errorf("%w: deadline must be after start date", ErrValidation)
	}
	return nil
}

// RecalculateCompletion recomputes the derived progress fields from the
// current value. Invoked by the write path before every persist.
func (g *Goal) RecalculateCompletion(now time.Time) {
	if g.TargetValue <= 0 {
		g.CompletionPercentage = 0
		return
	}

	pct := g.CurrentValue / g.TargetValue * 100
	g.CompletionPercentage = math.Min(math.Round(pct*10)/10, 100)

	if g.CompletionPercentage >= 100 && !g.Completed {
		g.Completed = true
		g.Status = GoalCompleted
		t := now
		g.CompletedAt = &t
	}
}

// DaysUntilDeadline counts whole days remaining, rounding up as the
// scheduler's deadline task expects.
func (g *Goal) DaysUntilDeadline(now time.Time) int {
	return int(math.Ceil(g.Deadline.Sub(now).Hours() / 24))
}
