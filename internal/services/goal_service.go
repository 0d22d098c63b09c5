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

// GoalService encapsulates the business logic for goal operations.
type GoalService struct {
	repo     *repository.GoalRepository
	userRepo *repository.UserRepository
}

// NewGoalService creates a new instance of GoalService.
func NewGoalService(repo *repository.GoalRepository, userRepo *repository.UserRepository) *GoalService {
	return &GoalService{
		repo:     repo,
		userRepo: userRepo,
	}
}

// CreateGoal validates and stores a new goal.
func (s *GoalService) CreateGoal(ctx context.Context, goal *models.Goal) (*models.Goal, error) {
	goal.GoalID = uuid.NewString()
	if goal.Status == "" {
		goal.Status = models.GoalActive
	}
	if goal.StartDate.IsZero() {
		goal.StartDate = time.Now()
	}
	if err := goal.Validate(); err != nil {
		return nil, err
	}
	goal.RecalculateCompletion(time.Now())

	return s.repo.CreateGoal(ctx, goal)
}

// GetGoal fetches a goal and enforces ownership.
func (s *GoalService) GetGoal(ctx context.Context, userID, goalID primitive.ObjectID) (*models.Goal, error) {
	goal, err := s.repo.GetGoalByID(ctx, goalID)
	if err != nil {
		return nil, err
	}
	if goal.UserID != userID {
		return nil, fmt.Errorf("goal does not belong to user")
	}
	return goal, nil
}

// GetGoals lists the user's goals.
func (s *GoalService) GetGoals(ctx context.Context, userID primitive.ObjectID, limit int64) ([]models.Goal, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.repo.GetGoalsByUser(ctx, userID, limit)
}

// UpdateGoal replaces the mutable fields of a goal and recomputes progress.
func (s *GoalService) UpdateGoal(ctx context.Context, userID, goalID primitive.ObjectID, updated *models.Goal) (*models.Goal, error) {
	goal, err := s.GetGoal(ctx, userID, goalID)
	if err != nil {
		return nil, err
	}

	goal.Title = updated.Title
	goal.Description = updated.Description
	goal.Category = updated.Category
	goal.Type = updated.Type
	goal.TargetValue = updated.TargetValue
	goal.CurrentValue = updated.CurrentValue
	goal.Unit = updated.Unit
	goal.Deadline = updated.Deadline
	if updated.Status != "" {
		goal.Status = updated.Status
	}

	if err := goal.Validate(); err != nil {
		return nil, err
	}
	goal.RecalculateCompletion(time.Now())

	return s.repo.UpdateGoal(ctx, goal)
}

// UpdateProgress advances the goal's current value and recomputes completion.
func (s *GoalService) UpdateProgress(ctx context.Context, userID, goalID primitive.ObjectID, currentValue float64) (*models.Goal, error) {
	goal, err := s.GetGoal(ctx, userID, goalID)
	if err != nil {
		return nil, err
	}
	if currentValue < 0 {
		return nil, fmt.Errorf("%w: progress cannot be negative", models.ErrValidation)
	}

	wasCompleted := goal.Completed
	goal.CurrentValue = currentValue
	goal.RecalculateCompletion(time.Now())

	if goal.Completed && !wasCompleted {
		logrus.WithField("goal_id", goal.ID.Hex()).Info("Goal completed")
		if err := s.userRepo.IncrementStats(ctx, userID, map[string]interface{}{"stats.goals_completed": 1}); err != nil {
			logrus.WithError(err).Warn("Failed to bump goals completed stat")
		}
	}

	return s.repo.UpdateGoal(ctx, goal)
}

// DeleteGoal removes a goal owned by the user.
func (s *GoalService) DeleteGoal(ctx context.Context, userID, goalID primitive.ObjectID) error {
	if _, err := s.GetGoal(ctx, userID, goalID); err != nil {
		return err
	}
	return s.repo.DeleteGoal(ctx, goalID)
}
