package models

import (
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Profile holds the fitness attributes a user fills in once.
type Profile struct {
	Height                float64  `bson:"height,omitempty" json:"height,omitempty"`
	Weight                float64  `bson:"weight,omitempty" json:"weight,omitempty"`
	FitnessLevel          string   `bson:"fitness_level" json:"fitness_level"`
	FitnessGoals          []string `bson:"fitness_goals,omitempty" json:"fitness_goals,omitempty"`
	PreferredWorkoutTypes []string `bson:"preferred_workout_types,omitempty" json:"preferred_workout_types,omitempty"`
}

// Preferences controls how and when the user is notified.
type Preferences struct {
	NotificationsEnabled bool   `bson:"notifications_enabled" json:"notifications_enabled"`
	EmailNotifications   bool   `bson:"email_notifications" json:"email_notifications"`
	ReminderTime         string `bson:"reminder_time" json:"reminder_time"` // HH:MM
	WeeklyGoal           int    `bson:"weekly_goal" json:"weekly_goal"`
}

// Stats is the derived activity summary maintained by the workout service.
type Stats struct {
	TotalWorkouts          int     `bson:"total_workouts" json:"total_workouts"`
	CurrentStreak          int     `bson:"current_streak" json:"current_streak"`
	LongestStreak          int     `bson:"longest_streak" json:"longest_streak"`
	TotalMinutesExercised  int     `bson:"total_minutes_exercised" json:"total_minutes_exercised"`
	AverageWorkoutDuration float64 `bson:"average_workout_duration" json:"average_workout_duration"`
	GoalsCompleted         int     `bson:"goals_completed" json:"goals_completed"`
}

// User represents an account in FitTrack.
type User struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID         string             `bson:"user_id" json:"user_id"`
	Name           string             `bson:"name" json:"name"`
	Email          string             `bson:"email" json:"email"`
	HashedPassword string             `bson:"hashed_password" json:"-"`
	Role           string             `bson:"role" json:"role"`
	Profile        Profile            `bson:"profile" json:"profile"`
	Preferences    Preferences        `bson:"preferences" json:"preferences"`
	Stats          Stats              `bson:"stats" json:"stats"`
	LastActive     time.Time          `bson:"last_active" json:"last_active"`
	IsActive       bool               `bson:"is_active" json:"is_active"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time          `bson:"updated_at" json:"updated_at"`
}

// PublicUser is the profile slice visible to other users.
type PublicUser struct {
	ID     primitive.ObjectID `json:"id"`
	UserID string             `json:"user_id"`
	Name   string             `json:"name"`
	Stats  Stats              `json:"stats"`
}

var reminderTimeRegex = regexp.MustCompile(`^([01]?[0-9]|2[0-3]):[0-5][0-9]$`)

// DefaultPreferences mirrors the schema defaults applied at registration.
func DefaultPreferences() Preferences {
	return Preferences{
		NotificationsEnabled: true,
		EmailNotifications:   true,
		ReminderTime:         "20:00",
		WeeklyGoal:           3,
	}
}

// ValidatePreferences rejects malformed preference updates.
func ValidatePreferences(p Preferences) error {
	if !reminderTimeRegex.MatchString(p.ReminderTime) {
		return fmt.Errorf("%w: reminder time must be in HH:MM format", ErrValidation)
	}
	if p.WeeklyGoal < 1 || p.WeeklyGoal > 7 {
		return fmt.Errorf("%w: weekly goal must be between 1 and 7", ErrValidation)
	}
	return nil
}

// Public returns the shareable projection of the user.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:     u.ID,
		UserID: u.UserID,
		Name:   u.Name,
		Stats:  u.Stats,
	}
}
