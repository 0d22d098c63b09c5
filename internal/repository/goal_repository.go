package repository

import (
	"context"
	"fmt"
	"time"

	"fittrack/internal/models"

	"fittrack/pkg/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GoalRepository struct handles database operations related to goals
type GoalRepository struct {
	collection *mongo.Collection
}

// NewGoalRepository creates a new instance of GoalRepository
func NewGoalRepository(db *mongo.Database) *GoalRepository {
	return &GoalRepository{
		collection: db.Collection("goals"),
	}
}

// CreateGoal creates a new goal in the database
func (r *GoalRepository) CreateGoal(ctx context.Context, goal *models.Goal) (*models.Goal, error) {
	goal.CreatedAt = time.Now()
	goal.UpdatedAt = time.Now()

	result, err := r.collection.InsertOne(ctx, goal)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to insert goal")
		return nil, fmt.Errorf("failed to insert goal: %v", err)
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		logger.Log.Error("Failed to cast inserted ID")
		return nil, fmt.Errorf("failed to cast inserted ID")
	}
	goal.ID = insertedID

	logger.Log.WithField("goal_id", goal.ID.Hex()).Info("Goal created successfully")
	return goal, nil
}

// GetGoalByID fetches a goal by its ID
func (r *GoalRepository) GetGoalByID(ctx context.Context, id primitive.ObjectID) (*models.Goal, error) {
	var goal models.Goal
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&goal); err != nil {
		logger.Log.WithError(err).WithField("goal_id", id.Hex()).Error("Failed to find goal by ID")
		return nil, fmt.Errorf("failed to fetch goal: %v", err)
	}
	return &goal, nil
}

// GetGoalsByUser fetches all goals belonging to a user, newest first
func (r *GoalRepository) GetGoalsByUser(ctx context.Context, userID primitive.ObjectID, limit int64) ([]models.Goal, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch goals: %v", err)
	}
	defer cursor.Close(ctx)

	var goals []models.Goal
	if err := cursor.All(ctx, &goals); err != nil {
		return nil, fmt.Errorf("failed to decode goals: %v", err)
	}
	return goals, nil
}

// UpdateGoal replaces an existing goal in the database
func (r *GoalRepository) UpdateGoal(ctx context.Context, goal *models.Goal) (*models.Goal, error) {
	goal.UpdatedAt = time.Now()

	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": goal.ID}, goal)
	if err != nil {
		logger.Log.WithError(err).WithField("goal_id", goal.ID.Hex()).Error("Failed to update goal")
		return nil, fmt.Errorf("failed to update goal: %v", err)
	}
	return goal, nil
}

// DeleteGoal removes a goal from the database
func (r *GoalRepository) DeleteGoal(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		logger.Log.WithError(err).WithField("goal_id", id.Hex()).Error("Failed to delete goal")
		return fmt.Errorf("failed to delete goal: %v", err)
	}
	return nil
}

// FindActiveWithDeadlineBetween returns active, incomplete goals whose
// deadline falls inside the window. Used by the goal-deadline task.
func (r *GoalRepository) FindActiveWithDeadlineBetween(ctx context.Context, from, to time.Time) ([]models.Goal, error) {
	filter := bson.M{
		"status":    models.GoalActive,
		"completed": false,
		"deadline":  bson.M{"$gte": from, "$lte": to},
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch goals by deadline: %v", err)
	}
	defer cursor.Close(ctx)

	var goals []models.Goal
	if err := cursor.All(ctx, &goals); err != nil {
		return nil, fmt.Errorf("failed to decode goals: %v", err)
	}
	return goals, nil
}

// FindRecentByUser returns the user's goals created at or after since.
func (r *GoalRepository) FindRecentByUser(ctx context.Context, userID primitive.ObjectID, since time.Time) ([]models.Goal, error) {
	filter := bson.M{
		"user_id":    userID,
		"created_at": bson.M{"$gte": since},
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch recent goals: %v", err)
	}
	defer cursor.Close(ctx)

	var goals []models.Goal
	if err := cursor.All(ctx, &goals); err != nil {
		return nil, fmt.Errorf("failed to decode goals: %v", err)
	}
	return goals, nil
}
