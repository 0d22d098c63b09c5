package services

import (
	"context"
	"fmt"
	"time"

	"fittrack/internal/models"
	"fittrack/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WorkoutService encapsulates the business logic for workout operations,
// including the user streak/stat recomputation that runs on completion.
type WorkoutService struct {
	repo     *repository.WorkoutRepository
	userRepo *repository.UserRepository
}

// NewWorkoutService creates a new instance of WorkoutService.
func NewWorkoutService(repo *repository.WorkoutRepository, userRepo *repository.UserRepository) *WorkoutService {
	return &WorkoutService{
		repo:     repo,
		userRepo: userRepo,
	}
}

// CreateWorkout validates and stores a new workout. Completed workouts update
// the user's streak and aggregate stats immediately.
func (s *WorkoutService) CreateWorkout(ctx context.Context, workout *models.Workout) (*models.Workout, error) {
	workout.WorkoutID = uuid.NewString()
	if workout.Date.IsZero() {
		workout.Date = time.Now()
	}
	if err := workout.Validate(); err != nil {
		return nil, err
	}

	created, err := s.repo.CreateWorkout(ctx, workout)
	if err != nil {
		return nil, err
	}

	if created.Completed {
		if err := s.applyCompletion(ctx, created); err != nil {
			logrus.WithError(err).WithField("workout_id", created.WorkoutID).Warn("Failed to update user stats after workout")
		}
	}
	return created, nil
}

// GetWorkout fetches a workout and enforces ownership.
func (s *WorkoutService) GetWorkout(ctx context.Context, userID, workoutID primitive.ObjectID) (*models.Workout, error) {
	workout, err := s.repo.GetWorkoutByID(ctx, workoutID)
	if err != nil {
		return nil, err
	}
	if workout.UserID != userID {
		return nil, fmt.Errorf("workout does not belong to user")
	}
	return workout, nil
}

// GetWorkouts lists the user's workouts.
func (s *WorkoutService) GetWorkouts(ctx context.Context, userID primitive.ObjectID, limit int64) ([]models.Workout, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.repo.GetWorkoutsByUser(ctx, userID, limit)
}

// UpdateWorkout replaces the mutable fields of a workout. Marking a workout
// completed for the first time triggers the stats update.
func (s *WorkoutService) UpdateWorkout(ctx context.Context, userID, workoutID primitive.ObjectID, updated *models.Workout) (*models.Workout, error) {
	workout, err := s.GetWorkout(ctx, userID, workoutID)
	if err != nil {
		return nil, err
	}

	wasCompleted := workout.Completed

	workout.Title = updated.Title
	workout.Type = updated.Type
	workout.DurationMinutes = updated.DurationMinutes
	workout.Intensity = updated.Intensity
	workout.CaloriesBurned = updated.CaloriesBurned
	workout.Exercises = updated.Exercises
	workout.Completed = updated.Completed
	workout.Rating = updated.Rating
	workout.Notes = updated.Notes
	if !updated.Date.IsZero() {
		workout.Date = updated.Date
	}

	if err := workout.Validate(); err != nil {
		return nil, err
	}

	saved, err := s.repo.UpdateWorkout(ctx, workout)
	if err != nil {
		return nil, err
	}

	if saved.Completed && !wasCompleted {
		if err := s.applyCompletion(ctx, saved); err != nil {
			logrus.WithError(err).WithField("workout_id", saved.WorkoutID).Warn("Failed to update user stats after workout")
		}
	}
	return saved, nil
}

// DeleteWorkout removes a workout owned by the user.
func (s *WorkoutService) DeleteWorkout(ctx context.Context, userID, workoutID primitive.ObjectID) error {
	if _, err := s.GetWorkout(ctx, userID, workoutID); err != nil {
		return err
	}
	return s.repo.DeleteWorkout(ctx, workoutID)
}

// applyCompletion recomputes streak and aggregate stats for the workout's
// owner. Explicit write-path logic, not a storage hook.
func (s *WorkoutService) applyCompletion(ctx context.Context, workout *models.Workout) error {
	user, err := s.userRepo.GetUserByID(ctx, workout.UserID)
	if err != nil {
		return err
	}

	streak := models.NextStreak(user.Stats.CurrentStreak, user.LastActive, workout.Date)
	longest := user.Stats.LongestStreak
	if streak > longest {
		longest = streak
	}

	totalWorkouts := user.Stats.TotalWorkouts + 1
	totalMinutes := user.Stats.TotalMinutesExercised + workout.DurationMinutes
	average := float64(totalMinutes) / float64(totalWorkouts)

	_, err = s.userRepo.UpdateUser(ctx, user.ID, map[string]interface{}{
		"stats.total_workouts":           totalWorkouts,
		"stats.current_streak":           streak,
		"stats.longest_streak":           longest,
		"stats.total_minutes_exercised":  totalMinutes,
		"stats.average_workout_duration": average,
		"last_active":                    workout.Date,
	})
	return err
}
