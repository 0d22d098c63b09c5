package models

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newTestNotification(t *testing.T) *Notification {
	t.Helper()
	n := &Notification{
		UserID:   primitive.NewObjectID(),
		Type:     TypeReminder,
		Category: CategoryWorkout,
		Title:    "Daily Workout Reminder",
		Message:  "Time to exercise!",
	}
	n.ApplyDefaults(time.Now())
	require.NoError(t, n.Validate())
	return n
}

func TestApplyDefaults(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	n := &Notification{
		UserID:  primitive.NewObjectID(),
		Type:    TypeReminder,
		Title:   "Reminder",
		Message: "Go work out",
	}
	n.ApplyDefaults(now)

	assert.NotEmpty(t, n.NotificationID)
	assert.Equal(t, CategorySystem, n.Category)
	assert.Equal(t, PriorityNormal, n.Priority)
	assert.Equal(t, 2, n.PriorityRank)
	assert.Equal(t, StatusPending, n.Status)
	assert.Equal(t, []Channel{ChannelInApp}, n.Channels)
	assert.Equal(t, now, n.ScheduledFor)
	assert.Equal(t, now.AddDate(0, 0, DefaultExpiryDays), n.ExpiresAt)
	assert.Equal(t, ChannelPending, n.Delivery.DeliveryStatus[ChannelInApp])
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	now := time.Now()
	scheduled := now.Add(2 * time.Hour)
	n := &Notification{
		UserID:       primitive.NewObjectID(),
		Type:         TypeGoalDeadline,
		Category:     CategoryGoal,
		Title:        "Deadline",
		Message:      "Due soon",
		Priority:     PriorityUrgent,
		Channels:     []Channel{ChannelInApp, ChannelEmail},
		ScheduledFor: scheduled,
	}
	n.ApplyDefaults(now)

	assert.Equal(t, PriorityUrgent, n.Priority)
	assert.Equal(t, 4, n.PriorityRank)
	assert.Equal(t, scheduled, n.ScheduledFor)
	assert.Len(t, n.Delivery.DeliveryStatus, 2)
}

func TestValidate(t *testing.T) {
	longString := func(size int) string {
		b := make([]byte, size)
		for i := range b {
			b[i] = 'a'
		}
		return string(b)
	}

	tests := []struct {
		name    string
		mutate  func(*Notification)
		wantErr bool
	}{
		{"valid", func(n *Notification) {}, false},
		{"missing user", func(n *Notification) { n.UserID = primitive.NilObjectID }, true},
		{"unknown type", func(n *Notification) { n.Type = "carrier-pigeon" }, true},
		{"unknown category", func(n *Notification) { n.Category = "gossip" }, true},
		{"unknown priority", func(n *Notification) { n.Priority = "extreme" }, true},
		{"empty title", func(n *Notification) { n.Title = "" }, true},
		{"title too long", func(n *Notification) { n.Title = longString(MaxTitleLength + 1) }, true},
		{"empty message", func(n *Notification) { n.Message = "" }, true},
		{"message too long", func(n *Notification) { n.Message = longString(MaxMessageLength + 1) }, true},
		{"unknown channel", func(n *Notification) { n.Channels = []Channel{"telegraph"} }, true},
		{"unknown related model", func(n *Notification) { n.Metadata.RelatedModel = "Recipe" }, true},
		{"valid related model", func(n *Notification) { n.Metadata.RelatedModel = "Goal" }, false},
		{"too many tags", func(n *Notification) {
			for i := 0; i <= MaxTags; i++ {
				n.Tags = append(n.Tags, fmt.Sprintf("tag%d", i))
			}
		}, true},
		{"recurring without config", func(n *Notification) { n.IsRecurring = true }, true},
		{"recurring bad interval", func(n *Notification) {
			n.IsRecurring = true
			n.Recurring = &RecurringConfig{Frequency: FrequencyDaily, Interval: 0}
		}, true},
		{"recurring bad day of week", func(n *Notification) {
			n.IsRecurring = true
			n.Recurring = &RecurringConfig{Frequency: FrequencyWeekly, Interval: 1, DaysOfWeek: []int{7}}
		}, true},
		{"recurring valid", func(n *Notification) {
			n.IsRecurring = true
			n.Recurring = &RecurringConfig{Frequency: FrequencyDaily, Interval: 1}
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := newTestNotification(t)
			tt.mutate(n)
			err := n.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrValidation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestApplyStatusForwardOnly(t *testing.T) {
	now := time.Now()
	n := newTestNotification(t)

	require.True(t, n.ApplyStatus(StatusSent, now))
	require.NotNil(t, n.SentAt)
	sentAt := *n.SentAt

	// Going backwards is ignored.
	assert.False(t, n.ApplyStatus(StatusPending, now.Add(time.Minute)))
	assert.Equal(t, StatusSent, n.Status)

	// Re-entering the same status does not restamp.
	assert.False(t, n.ApplyStatus(StatusSent, now.Add(time.Minute)))
	assert.Equal(t, sentAt, *n.SentAt)

	require.True(t, n.ApplyStatus(StatusDelivered, now))
	require.True(t, n.ApplyStatus(StatusRead, now))
	assert.NotNil(t, n.ReadAt)
	assert.True(t, n.Analytics.Opened)
	assert.NotNil(t, n.Analytics.OpenedAt)
}

func TestApplyStatusSkipsIntermediate(t *testing.T) {
	// pending straight to read is a legal forward jump.
	n := newTestNotification(t)
	require.True(t, n.ApplyStatus(StatusRead, time.Now()))
	assert.Equal(t, StatusRead, n.Status)
	assert.Nil(t, n.SentAt)
	assert.Nil(t, n.DeliveredAt)
	assert.NotNil(t, n.ReadAt)
}

func TestApplyStatusTerminal(t *testing.T) {
	now := time.Now()

	n := newTestNotification(t)
	require.True(t, n.ApplyStatus(StatusRead, now))
	assert.False(t, n.ApplyStatus(StatusFailed, now))
	assert.Equal(t, StatusRead, n.Status)

	n = newTestNotification(t)
	require.True(t, n.ApplyStatus(StatusFailed, now))
	assert.False(t, n.ApplyStatus(StatusSent, now))
	assert.False(t, n.ApplyStatus(StatusRead, now))
	assert.Equal(t, StatusFailed, n.Status)
}

func TestApplyStatusFailedFromAnyLiveState(t *testing.T) {
	for _, from := range []NotificationStatus{StatusPending, StatusSent, StatusDelivered} {
		n := newTestNotification(t)
		if from != StatusPending {
			require.True(t, n.ApplyStatus(from, time.Now()))
		}
		assert.True(t, n.ApplyStatus(StatusFailed, time.Now()), "from %s", from)
		assert.Equal(t, StatusFailed, n.Status)
	}
}

func TestMarkReadIdempotent(t *testing.T) {
	now := time.Now()
	n := newTestNotification(t)

	require.True(t, n.MarkRead(now))
	readAt := *n.ReadAt

	assert.False(t, n.MarkRead(now.Add(time.Hour)))
	assert.Equal(t, readAt, *n.ReadAt)
}

func TestExpireIfDue(t *testing.T) {
	now := time.Now()

	n := newTestNotification(t)
	n.ExpiresAt = now.Add(-time.Hour)
	assert.True(t, n.ExpireIfDue(now))
	assert.Equal(t, StatusFailed, n.Status)

	// Already-delivered notifications never expire to failed.
	n = newTestNotification(t)
	require.True(t, n.ApplyStatus(StatusDelivered, now))
	n.ExpiresAt = now.Add(-time.Hour)
	assert.False(t, n.ExpireIfDue(now))
	assert.Equal(t, StatusDelivered, n.Status)

	// Not yet expired.
	n = newTestNotification(t)
	assert.False(t, n.ExpireIfDue(now))
	assert.Equal(t, StatusPending, n.Status)
}

func TestRecordDeliveryAttemptSuccess(t *testing.T) {
	now := time.Now()
	n := newTestNotification(t)

	n.RecordDeliveryAttempt(ChannelInApp, true, "", now)

	assert.Equal(t, 1, n.Delivery.Attempts)
	assert.Equal(t, ChannelDelivered, n.Delivery.DeliveryStatus[ChannelInApp])
	assert.Equal(t, StatusDelivered, n.Status)
	assert.NotNil(t, n.DeliveredAt)
	assert.Empty(t, n.Delivery.Errors)
}

func TestRecordDeliveryAttemptSuccessDoesNotDemoteRead(t *testing.T) {
	now := time.Now()
	n := newTestNotification(t)
	require.True(t, n.MarkRead(now))

	n.RecordDeliveryAttempt(ChannelEmail, true, "", now)

	assert.Equal(t, StatusRead, n.Status)
	assert.Equal(t, ChannelDelivered, n.Delivery.DeliveryStatus[ChannelEmail])
}

func TestRecordDeliveryAttemptFailureCapsAtMax(t *testing.T) {
	now := time.Now()
	n := newTestNotification(t)

	for i := 0; i < MaxDeliveryAttempts; i++ {
		n.RecordDeliveryAttempt(ChannelEmail, false, "smtp timeout", now)
	}

	assert.Equal(t, MaxDeliveryAttempts, n.Delivery.Attempts)
	assert.Equal(t, StatusFailed, n.Status)
	assert.Len(t, n.Delivery.Errors, MaxDeliveryAttempts)
	assert.Equal(t, ChannelFailed, n.Delivery.DeliveryStatus[ChannelEmail])

	// Further attempts are no-ops.
	n.RecordDeliveryAttempt(ChannelEmail, false, "smtp timeout", now)
	n.RecordDeliveryAttempt(ChannelEmail, true, "", now)
	assert.Equal(t, MaxDeliveryAttempts, n.Delivery.Attempts)
	assert.Equal(t, StatusFailed, n.Status)
	assert.Len(t, n.Delivery.Errors, MaxDeliveryAttempts)
}

func TestRecordDeliveryAttemptFailureBelowCap(t *testing.T) {
	now := time.Now()
	n := newTestNotification(t)

	n.RecordDeliveryAttempt(ChannelEmail, false, "", now)

	assert.Equal(t, 1, n.Delivery.Attempts)
	assert.Equal(t, StatusPending, n.Status)
	require.Len(t, n.Delivery.Errors, 1)
	assert.Equal(t, "unknown error", n.Delivery.Errors[0].Error)
	assert.NotNil(t, n.Delivery.LastAttempt)
}

func TestMarkClickedOnce(t *testing.T) {
	now := time.Now()
	n := newTestNotification(t)

	n.MarkClicked(now)
	require.NotNil(t, n.Analytics.ClickedAt)
	clickedAt := *n.Analytics.ClickedAt

	n.MarkClicked(now.Add(time.Hour))
	assert.Equal(t, clickedAt, *n.Analytics.ClickedAt)
}

func TestMarkActionTakenOnce(t *testing.T) {
	now := time.Now()
	n := newTestNotification(t)

	n.MarkActionTaken(now)
	require.NotNil(t, n.Analytics.ActionTakenAt)
	takenAt := *n.Analytics.ActionTakenAt

	n.MarkActionTaken(now.Add(time.Hour))
	assert.Equal(t, takenAt, *n.Analytics.ActionTakenAt)
}

func TestComputeNextScheduled(t *testing.T) {
	base := time.Date(2026, 1, 31, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		frequency RecurringFrequency
		interval  int
		want      time.Time
	}{
		{"daily", FrequencyDaily, 1, base.AddDate(0, 0, 1)},
		{"every third day", FrequencyDaily, 3, base.AddDate(0, 0, 3)},
		{"weekly", FrequencyWeekly, 1, base.AddDate(0, 0, 7)},
		{"biweekly", FrequencyWeekly, 2, base.AddDate(0, 0, 14)},
		{"monthly from Jan 31", FrequencyMonthly, 1, base.AddDate(0, 1, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := newTestNotification(t)
			n.ScheduledFor = base
			n.IsRecurring = true
			n.Recurring = &RecurringConfig{Frequency: tt.frequency, Interval: tt.interval}

			n.ComputeNextScheduled()

			require.NotNil(t, n.Recurring.NextScheduled)
			assert.Equal(t, tt.want, *n.Recurring.NextScheduled)
		})
	}
}

func TestComputeNextScheduledNoOp(t *testing.T) {
	n := newTestNotification(t)
	n.ComputeNextScheduled()
	assert.Nil(t, n.Recurring)

	// Already computed slots stay put.
	existing := time.Now().Add(48 * time.Hour)
	n.IsRecurring = true
	n.Recurring = &RecurringConfig{Frequency: FrequencyDaily, Interval: 1, NextScheduled: &existing}
	n.ComputeNextScheduled()
	assert.Equal(t, existing, *n.Recurring.NextScheduled)
}

func TestNewRecurringInstance(t *testing.T) {
	now := time.Now()
	n := newTestNotification(t)
	n.IsRecurring = true
	n.Recurring = &RecurringConfig{Frequency: FrequencyDaily, Interval: 1}
	n.ComputeNextScheduled()

	next := n.NewRecurringInstance(now)
	require.NotNil(t, next)

	assert.Equal(t, n.UserID, next.UserID)
	assert.Equal(t, n.Title, next.Title)
	assert.Equal(t, StatusPending, next.Status)
	assert.Equal(t, *n.Recurring.NextScheduled, next.ScheduledFor)
	assert.NotEqual(t, n.NotificationID, next.NotificationID)
	assert.True(t, next.IsRecurring)
	require.NotNil(t, next.Recurring.NextScheduled)
	assert.Equal(t, next.ScheduledFor.AddDate(0, 0, 1), *next.Recurring.NextScheduled)
}

func TestNewRecurringInstanceEnded(t *testing.T) {
	now := time.Now()
	end := now.Add(-time.Hour)

	n := newTestNotification(t)
	n.IsRecurring = true
	n.Recurring = &RecurringConfig{Frequency: FrequencyDaily, Interval: 1, EndDate: &end}
	n.ComputeNextScheduled()

	assert.Nil(t, n.NewRecurringInstance(now))

	// Non-recurring notifications never spawn.
	plain := newTestNotification(t)
	assert.Nil(t, plain.NewRecurringInstance(now))
}

func TestDeliverySuccessRate(t *testing.T) {
	now := time.Now()
	n := newTestNotification(t)
	n.Channels = []Channel{ChannelInApp, ChannelEmail}

	assert.Equal(t, 0.0, n.DeliverySuccessRate())

	n.RecordDeliveryAttempt(ChannelInApp, true, "", now)
	assert.Equal(t, 50.0, n.DeliverySuccessRate())

	n.RecordDeliveryAttempt(ChannelEmail, true, "", now)
	assert.Equal(t, 100.0, n.DeliverySuccessRate())
}

func TestPriorityRank(t *testing.T) {
	assert.Greater(t, PriorityUrgent.Rank(), PriorityHigh.Rank())
	assert.Greater(t, PriorityHigh.Rank(), PriorityNormal.Rank())
	assert.Greater(t, PriorityNormal.Rank(), PriorityLow.Rank())
	assert.Equal(t, 0, Priority("bogus").Rank())
}

func TestIsOverdue(t *testing.T) {
	now := time.Now()

	n := newTestNotification(t)
	n.ScheduledFor = now.Add(-time.Minute)
	assert.True(t, n.IsOverdue(now))

	n.ScheduledFor = now.Add(time.Minute)
	assert.False(t, n.IsOverdue(now))

	n.ScheduledFor = now.Add(-time.Minute)
	require.True(t, n.ApplyStatus(StatusSent, now))
	assert.False(t, n.IsOverdue(now))
}
