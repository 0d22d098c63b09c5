package repository

import (
	"context"
	"fmt"
	"time"

	"fittrack/internal/models"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// WorkoutRepository handles database operations related to workouts.
type WorkoutRepository struct {
	collection *mongo.Collection
}

// NewWorkoutRepository creates a new instance of WorkoutRepository.
func NewWorkoutRepository(db *mongo.Database) *WorkoutRepository {
	return &WorkoutRepository{
		collection: db.Collection("workouts"),
	}
}

// CreateWorkout inserts a new workout.
func (r *WorkoutRepository) CreateWorkout(ctx context.Context, workout *models.Workout) (*models.Workout, error) {
	workout.CreatedAt = time.Now()
	workout.UpdatedAt = time.Now()

	result, err := r.collection.InsertOne(ctx, workout)
	if err != nil {
		logrus.WithError(err).Error("Failed to insert workout")
		return nil, fmt.Errorf("failed to insert workout: %v", err)
	}

	if insertedID, ok := result.InsertedID.(primitive.ObjectID); ok {
		workout.ID = insertedID
	}
	return workout, nil
}

// GetWorkoutByID fetches a workout by its ID.
func (r *WorkoutRepository) GetWorkoutByID(ctx context.Context, id primitive.ObjectID) (*models.Workout, error) {
	var workout models.Workout
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&workout); err != nil {
		return nil, fmt.Errorf("failed to fetch workout: %v", err)
	}
	return &workout, nil
}

// GetWorkoutsByUser fetches a user's workouts, most recent first.
func (r *WorkoutRepository) GetWorkoutsByUser(ctx context.Context, userID primitive.ObjectID, limit int64) ([]models.Workout, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "date", Value: -1}}).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch workouts: %v", err)
	}
	defer cursor.Close(ctx)

	var workouts []models.Workout
	if err := cursor.All(ctx, &workouts); err != nil {
		return nil, fmt.Errorf("failed to decode workouts: %v", err)
	}
	return workouts, nil
}

// FindByUserSince returns the user's workouts dated at or after since,
// oldest first. Feeds recommendation prompts and weekly stats.
func (r *WorkoutRepository) FindByUserSince(ctx context.Context, userID primitive.ObjectID, since time.Time) ([]models.Workout, error) {
	filter := bson.M{
		"user_id": userID,
		"date":    bson.M{"$gte": since},
	}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch workouts since %s: %v", since.Format(time.RFC3339), err)
	}
	defer cursor.Close(ctx)

	var workouts []models.Workout
	if err := cursor.All(ctx, &workouts); err != nil {
		return nil, fmt.Errorf("failed to decode workouts: %v", err)
	}
	return workouts, nil
}

// UpdateWorkout replaces an existing workout.
func (r *WorkoutRepository) UpdateWorkout(ctx context.Context, workout *models.Workout) (*models.Workout, error) {
	workout.UpdatedAt = time.Now()

	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": workout.ID}, workout)
	if err != nil {
		logrus.WithError(err).WithField("workout_id", workout.ID.Hex()).Error("Failed to update workout")
		return nil, fmt.Errorf("failed to update workout: %v", err)
	}
	return workout, nil
}

// DeleteWorkout removes a workout.
func (r *WorkoutRepository) DeleteWorkout(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete workout: %v", err)
	}
	return nil
}
