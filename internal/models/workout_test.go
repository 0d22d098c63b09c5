package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestWorkoutValidate(t *testing.T) {
	valid := func() *Workout {
		return &Workout{
			UserID:          primitive.NewObjectID(),
			Title:           "Morning Run",
			Type:            "running",
			DurationMinutes: 30,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Workout)
		wantErr bool
	}{
		{"valid", func(w *Workout) {}, false},
		{"missing user", func(w *Workout) { w.UserID = primitive.NilObjectID }, true},
		{"empty title", func(w *Workout) { w.Title = "" }, true},
		{"unknown type", func(w *Workout) { w.Type = "parkour" }, true},
		{"other type", func(w *Workout) { w.Type = "other" }, false},
		{"zero duration", func(w *Workout) { w.DurationMinutes = 0 }, true},
		{"rating out of range", func(w *Workout) { w.Rating = 6 }, true},
		{"rating in range", func(w *Workout) { w.Rating = 5 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := valid()
			tt.mutate(w)
			err := w.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrValidation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNextStreak(t *testing.T) {
	day := func(d int) time.Time {
		return time.Date(2026, 4, d, 10, 0, 0, 0, time.UTC)
	}

	tests := []struct {
		name    string
		current int
		last    time.Time
		date    time.Time
		want    int
	}{
		{"first ever workout", 0, time.Time{}, day(1), 1},
		{"same day keeps streak", 4, day(3), day(3), 4},
		{"same day from zero", 0, day(3), day(3), 1},
		{"next day extends", 4, day(3), day(4), 5},
		{"two day gap resets", 9, day(3), day(5), 1},
		{"week gap resets", 21, day(1), day(8), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextStreak(tt.current, tt.last, tt.date))
		})
	}
}
