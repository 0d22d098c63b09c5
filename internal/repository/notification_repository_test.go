package repository

import (
	"testing"
	"time"

	"fittrack/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestPendingFilter(t *testing.T) {
	now := time.Now()
	filter := pendingFilter(now)

	assert.Equal(t, models.StatusPending, filter["status"])
	assert.Equal(t, bson.M{"$lte": now}, filter["scheduled_for"])
	assert.Equal(t, bson.M{"$gt": now}, filter["expires_at"])
}

func TestUnreadFilter(t *testing.T) {
	now := time.Now()
	userID := primitive.NewObjectID()
	filter := unreadFilter(userID, now)

	assert.Equal(t, userID, filter["user_id"])
	assert.Equal(t, bson.M{"$gt": now}, filter["expires_at"])

	statuses, ok := filter["status"].(bson.M)
	require.True(t, ok)
	in, ok := statuses["$in"].([]models.NotificationStatus)
	require.True(t, ok)
	assert.ElementsMatch(t, []models.NotificationStatus{
		models.StatusPending, models.StatusSent, models.StatusDelivered,
	}, in)
	assert.NotContains(t, in, models.StatusRead)
	assert.NotContains(t, in, models.StatusFailed)
}

func TestMarkManyFilterAndUpdate(t *testing.T) {
	now := time.Now()
	userID := primitive.NewObjectID()
	ids := []string{"n-1", "n-2"}

	filter := markManyFilter(userID, ids)
	assert.Equal(t, userID, filter["user_id"])
	assert.Equal(t, bson.M{"$in": ids}, filter["notification_id"])
	assert.Equal(t, bson.M{"$ne": models.StatusRead}, filter["status"])

	update := markReadUpdate(now)
	set, ok := update["$set"].(bson.M)
	require.True(t, ok)
	assert.Equal(t, models.StatusRead, set["status"])
	assert.Equal(t, now, set["read_at"])
	assert.Equal(t, true, set["analytics.opened"])
}

func TestCleanupFilterKeepsReadNotifications(t *testing.T) {
	now := time.Now()
	filter := cleanupFilter(now)

	assert.Equal(t, bson.M{"$lt": now}, filter["expires_at"])
	statuses, ok := filter["status"].(bson.M)
	require.True(t, ok)
	nin, ok := statuses["$nin"].([]models.NotificationStatus)
	require.True(t, ok)
	assert.Contains(t, nin, models.StatusRead)
}
