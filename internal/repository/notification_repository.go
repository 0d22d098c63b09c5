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

// NotificationRepository handles database operations on the notifications collection.
type NotificationRepository struct {
	collection *mongo.Collection
}

// NewNotificationRepository creates a new instance of NotificationRepository.
func NewNotificationRepository(db *mongo.Database) *NotificationRepository {
	return &NotificationRepository{
		collection: db.Collection("notifications"),
	}
}

// CreateNotification validates, defaults and inserts a new notification.
func (r *NotificationRepository) CreateNotification(ctx context.Context, notif *models.Notification) (*models.Notification, error) {
	now := time.Now()
	notif.ApplyDefaults(now)
	notif.ComputeNextScheduled()
	if err := notif.Validate(); err != nil {
		return nil, err
	}

	result, err := r.collection.InsertOne(ctx, notif)
	if err != nil {
		logrus.WithError(err).Error("Failed to insert notification")
		return nil, fmt.Errorf("failed to create notification: %v", err)
	}

	if insertedID, ok := result.InsertedID.(primitive.ObjectID); ok {
		notif.ID = insertedID
	}
	return notif, nil
}

// UpdateNotification persists in-memory state changes back to the store.
// The write path runs the lazy-expiry and recurrence computations first, so
// every derived transition lives here rather than in scattered callbacks.
func (r *NotificationRepository) UpdateNotification(ctx context.Context, notif *models.Notification) error {
	now := time.Now()
	notif.ExpireIfDue(now)
	notif.ComputeNextScheduled()
	notif.UpdatedAt = now

	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": notif.ID}, notif)
	if err != nil {
		logrus.WithError(err).WithField("notification_id", notif.NotificationID).Error("Failed to update notification")
		return fmt.Errorf("failed to update notification: %v", err)
	}
	return nil
}

// GetNotificationByID fetches a single notification by its storage key.
func (r *NotificationRepository) GetNotificationByID(ctx context.Context, id primitive.ObjectID) (*models.Notification, error) {
	var notif models.Notification
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&notif); err != nil {
		return nil, fmt.Errorf("failed to fetch notification: %v", err)
	}
	return &notif, nil
}

// FindPending returns dispatchable notifications: pending, due, and not yet
// expired, highest priority first, oldest schedule first within a priority.
func (r *NotificationRepository) FindPending(ctx context.Context, limit int64) ([]models.Notification, error) {
	now := time.Now()
	opts := options.Find().
		SetSort(bson.D{{Key: "priority_rank", Value: -1}, {Key: "scheduled_for", Value: 1}}).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, pendingFilter(now), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pending notifications: %v", err)
	}
	defer cursor.Close(ctx)

	var notifications []models.Notification
	if err := cursor.All(ctx, &notifications); err != nil {
		return nil, fmt.Errorf("failed to decode pending notifications: %v", err)
	}
	return notifications, nil
}

// FindUnread returns the user's not-yet-read, unexpired notifications.
func (r *NotificationRepository) FindUnread(ctx context.Context, userID primitive.ObjectID, limit int64) ([]models.Notification, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "priority_rank", Value: -1}, {Key: "scheduled_for", Value: -1}}).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, unreadFilter(userID, time.Now()), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch unread notifications: %v", err)
	}
	defer cursor.Close(ctx)

	var notifications []models.Notification
	if err := cursor.All(ctx, &notifications); err != nil {
		return nil, fmt.Errorf("failed to decode unread notifications: %v", err)
	}
	return notifications, nil
}

// FindByUser lists a user's notifications newest first, optionally filtered by
// status, with limit/skip pagination. Also returns the total match count.
func (r *NotificationRepository) FindByUser(ctx context.Context, userID primitive.ObjectID, status models.NotificationStatus, limit, skip int64) ([]models.Notification, int64, error) {
	filter := bson.M{"user_id": userID}
	if status != "" {
		filter["status"] = status
	}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %v", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit).
		SetSkip(skip)

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch notifications: %v", err)
	}
	defer cursor.Close(ctx)

	var notifications []models.Notification
	if err := cursor.All(ctx, &notifications); err != nil {
		return nil, 0, fmt.Errorf("failed to decode notifications: %v", err)
	}
	return notifications, total, nil
}

// FindLatestByType returns the user's most recent notification of a type
// created at or after since, or nil if none exists.
func (r *NotificationRepository) FindLatestByType(ctx context.Context, userID primitive.ObjectID, notifType models.NotificationType, since time.Time) (*models.Notification, error) {
	filter := bson.M{
		"user_id":    userID,
		"type":       notifType,
		"created_at": bson.M{"$gte": since},
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})

	var notif models.Notification
	err := r.collection.FindOne(ctx, filter, opts).Decode(&notif)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch latest notification: %v", err)
	}
	return &notif, nil
}

// MarkMultipleAsRead bulk-transitions the given notifications to read for the
// owning user. Already-read documents are skipped, so repeating the call with
// the same ids is a no-op. Returns the number of documents modified.
func (r *NotificationRepository) MarkMultipleAsRead(ctx context.Context, userID primitive.ObjectID, notificationIDs []string) (int64, error) {
	now := time.Now()
	result, err := r.collection.UpdateMany(ctx, markManyFilter(userID, notificationIDs), markReadUpdate(now))
	if err != nil {
		logrus.WithError(err).Error("Failed to bulk mark notifications as read")
		return 0, fmt.Errorf("failed to mark notifications as read: %v", err)
	}
	return result.ModifiedCount, nil
}

// DeleteNotification removes a single notification on explicit user request.
func (r *NotificationRepository) DeleteNotification(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete notification: %v", err)
	}
	return nil
}

// CleanupExpired hard-deletes everything past its expiry except read
// notifications, which are retained for analytics. This is the only place
// allowed to bulk-delete notifications.
func (r *NotificationRepository) CleanupExpired(ctx context.Context) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, cleanupFilter(time.Now()))
	if err != nil {
		logrus.WithError(err).Error("Failed to delete expired notifications")
		return 0, fmt.Errorf("failed to delete expired notifications: %v", err)
	}

	logrus.Infof("Deleted %d expired notifications", result.DeletedCount)
	return result.DeletedCount, nil
}

func pendingFilter(now time.Time) bson.M {
	return bson.M{
		"status":        models.StatusPending,
		"scheduled_for": bson.M{"$lte": now},
		"expires_at":    bson.M{"$gt": now},
	}
}

func unreadFilter(userID primitive.ObjectID, now time.Time) bson.M {
	return bson.M{
		"user_id": userID,
		"status": bson.M{"$in": []models.NotificationStatus{
			models.StatusPending, models.StatusSent, models.StatusDelivered,
		}},
		"expires_at": bson.M{"$gt": now},
	}
}

func markManyFilter(userID primitive.ObjectID, notificationIDs []string) bson.M {
	return bson.M{
		"user_id":         userID,
		"notification_id": bson.M{"$in": notificationIDs},
		"status":          bson.M{"$ne": models.StatusRead},
	}
}

func markReadUpdate(now time.Time) bson.M {
	return bson.M{
		"$set": bson.M{
			"status":              models.StatusRead,
			"read_at":             now,
			"analytics.opened":    true,
			"analytics.opened_at": now,
			"updated_at":          now,
		},
	}
}

func cleanupFilter(now time.Time) bson.M {
	return bson.M{
		"expires_at": bson.M{"$lt": now},
		"status":     bson.M{"$nin": []models.NotificationStatus{models.StatusRead}},
	}
}
