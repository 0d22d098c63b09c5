package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var workoutTypes = map[string]bool{
	"cardio": true, "strength": true, "yoga": true, "pilates": true,
	"crossfit": true, "swimming": true, "running": true, "cycling": true,
	"other": true,
}

// Exercise is one entry in a workout plan or log.
type Exercise struct {
	Name     string `bson:"name" json:"name"`
	Sets     int    `bson:"sets,omitempty" json:"sets,omitempty"`
	Reps     int    `bson:"reps,omitempty" json:"reps,omitempty"`
	Duration int    `bson:"duration,omitempty" json:"duration,omitempty"`
	Notes    string `bson:"notes,omitempty" json:"notes,omitempty"`
}

// Workout is one logged or planned training session.
type Workout struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	WorkoutID       string             `bson:"workout_id" json:"workout_id"`
	UserID          primitive.ObjectID `bson:"user_id" json:"user_id"`
	Title           string             `bson:"title" json:"title"`
	Type            string             `bson:"type" json:"type"`
	DurationMinutes int                `bson:"duration_minutes" json:"duration_minutes"`
	Intensity       string             `bson:"intensity,omitempty" json:"intensity,omitempty"`
	CaloriesBurned  int                `bson:"calories_burned,omitempty" json:"calories_burned,omitempty"`
	Exercises       []Exercise         `bson:"exercises,omitempty" json:"exercises,omitempty"`
	Date            time.Time          `bson:"date" json:"date"`
	Completed       bool               `bson:"completed" json:"completed"`
	Rating          int                `bson:"rating,omitempty" json:"rating,omitempty"`
	Notes           string             `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt       time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time          `bson:"updated_at" json:"updated_at"`
}

// Validate checks the fields required at creation.
func (w *Workout) Validate() error {
	if w.UserID.IsZero() {
		return fmt.Errorf("%w: user id is required", ErrValidation)
	}
	if w.Title == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if !workoutTypes[w.Type] {
		return fmt.Errorf("%w: invalid workout type %q", ErrValidation, w.Type)
	}
	if w.DurationMinutes <= 0 {
		return fmt.Errorf("%w: duration must be positive", ErrValidation)
	}
	if w.Rating != 0 && (w.Rating < 1 || w.Rating > 5) {
		return fmt.Errorf("%w: rating must be between 1 and 5", ErrValidation)
	}
	return nil
}

// NextStreak computes the streak after completing a workout on date, given the
// previous completed-workout date. Same-day repeats keep the streak,
// consecutive days extend it, anything longer restarts at 1.
func NextStreak(current int, lastWorkout, date time.Time) int {
	if lastWorkout.IsZero() {
		return 1
	}

	last := lastWorkout.Truncate(24 * time.Hour)
	day := date.Truncate(24 * time.Hour)

	switch day.Sub(last) {
	case 0:
		if current < 1 {
			return 1
		}
		return current
	case 24 * time.Hour:
		return current + 1
	default:
		return 1
	}
}
