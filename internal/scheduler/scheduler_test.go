package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"fittrack/internal/gemini"
	"fittrack/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeUserSource struct {
	users []models.User
}

func (f *fakeUserSource) GetNotifiableUsers(ctx context.Context) ([]models.User, error) {
	return f.users, nil
}

func (f *fakeUserSource) SampleNotifiableUsers(ctx context.Context, size int) ([]models.User, error) {
	if len(f.users) > size {
		return f.users[:size], nil
	}
	return f.users, nil
}

func (f *fakeUserSource) GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	for i := range f.users {
		if f.users[i].ID == id {
			return &f.users[i], nil
		}
	}
	return nil, errors.New("user not found")
}

type fakeGoalSource struct {
	goals []models.Goal
}

func (f *fakeGoalSource) FindActiveWithDeadlineBetween(ctx context.Context, from, to time.Time) ([]models.Goal, error) {
	return f.goals, nil
}

func (f *fakeGoalSource) FindRecentByUser(ctx context.Context, userID primitive.ObjectID, since time.Time) ([]models.Goal, error) {
	return f.goals, nil
}

type fakeWorkoutSource struct{}

func (fakeWorkoutSource) FindByUserSince(ctx context.Context, userID primitive.ObjectID, since time.Time) ([]models.Workout, error) {
	return nil, nil
}

type fakeNotifier struct {
	created    []models.Notification
	hasRecent  bool
	cleaned    int64
	dispatched int
}

func (f *fakeNotifier) CreateNotification(ctx context.Context, notif *models.Notification) (*models.Notification, error) {
	notif.ApplyDefaults(time.Now())
	if err := notif.Validate(); err != nil {
		return nil, err
	}
	f.created = append(f.created, *notif)
	return notif, nil
}

func (f *fakeNotifier) HasRecentNotification(ctx context.Context, userID primitive.ObjectID, notifType models.NotificationType, since time.Time) (bool, error) {
	return f.hasRecent, nil
}

func (f *fakeNotifier) CleanupExpiredNotifications(ctx context.Context) (int64, error) {
	return f.cleaned, nil
}

func (f *fakeNotifier) DispatchPending(ctx context.Context, limit int64) (int, error) {
	return f.dispatched, nil
}

type fakeRecommender struct {
	rec gemini.Recommendation
}

func (f *fakeRecommender) GenerateRecommendations(ctx context.Context, user *models.User, workouts []models.Workout, goals []models.Goal) gemini.Recommendation {
	return f.rec
}

func notifiableUser(name string) models.User {
	return models.User{
		ID:          primitive.NewObjectID(),
		Name:        name,
		IsActive:    true,
		Preferences: models.DefaultPreferences(),
		LastActive:  time.Now(),
	}
}

func newTestScheduler(users *fakeUserSource, goals *fakeGoalSource, notifier *fakeNotifier, now time.Time) *Scheduler {
	s := NewScheduler(users, goals, fakeWorkoutSource{}, notifier, &fakeRecommender{
		rec: gemini.Recommendation{Source: gemini.SourceFallback, Content: "Keep moving!"},
	})
	s.now = func() time.Time { return now }
	return s
}

func TestReminderDue(t *testing.T) {
	at := func(hour, minute int) time.Time {
		return time.Date(2026, 5, 4, hour, minute, 0, 0, time.UTC)
	}

	tests := []struct {
		name     string
		reminder string
		now      time.Time
		want     bool
	}{
		{"exact match", "20:00", at(20, 0), true},
		{"two minutes early", "20:00", at(19, 58), true},
		{"two minutes late", "20:00", at(20, 2), true},
		{"three minutes off", "20:00", at(20, 3), false},
		{"wrong hour", "20:00", at(19, 0), false},
		{"midnight wraparound before", "00:01", at(23, 59), true},
		{"midnight wraparound after", "23:59", at(0, 1), true},
		{"wraparound out of window", "23:55", at(0, 1), false},
		{"malformed time", "evening", at(20, 0), false},
		{"hour out of range", "25:00", at(1, 0), false},
		{"empty", "", at(20, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ReminderDue(tt.reminder, tt.now))
		})
	}
}

func TestRunDailyReminders(t *testing.T) {
	now := time.Date(2026, 5, 4, 20, 0, 0, 0, time.UTC)

	due := notifiableUser("Alice")
	due.Preferences.ReminderTime = "20:01"
	notDue := notifiableUser("Bob")
	notDue.Preferences.ReminderTime = "07:00"

	users := &fakeUserSource{users: []models.User{due, notDue}}
	notifier := &fakeNotifier{}
	s := newTestScheduler(users, &fakeGoalSource{}, notifier, now)

	require.NoError(t, s.RunDailyReminders(context.Background()))

	require.Len(t, notifier.created, 1)
	created := notifier.created[0]
	assert.Equal(t, due.ID, created.UserID)
	assert.Equal(t, models.TypeReminder, created.Type)
	assert.Equal(t, models.CategoryWorkout, created.Category)
	assert.Contains(t, created.Channels, models.ChannelInApp)
	assert.Contains(t, created.Channels, models.ChannelEmail)
}

func TestRunGoalDeadlines(t *testing.T) {
	now := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	owner := notifiableUser("Carol")

	makeGoal := func(deadline time.Time) models.Goal {
		return models.Goal{
			ID:                   primitive.NewObjectID(),
			GoalID:               "g-1",
			UserID:               owner.ID,
			Title:                "Run 100km",
			TargetValue:          100,
			CurrentValue:         60,
			CompletionPercentage: 60,
			Status:               models.GoalActive,
			Deadline:             deadline,
		}
	}

	tests := []struct {
		name         string
		deadline     time.Time
		wantCount    int
		wantPriority models.Priority
	}{
		{"due tomorrow", now.Add(24 * time.Hour), 1, models.PriorityUrgent},
		{"due in one week", now.Add(7 * 24 * time.Hour), 1, models.PriorityNormal},
		{"due in three days", now.Add(3 * 24 * time.Hour), 0, ""},
		{"due in five days", now.Add(5 * 24 * time.Hour), 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := &fakeUserSource{users: []models.User{owner}}
			goals := &fakeGoalSource{goals: []models.Goal{makeGoal(tt.deadline)}}
			notifier := &fakeNotifier{}
			s := newTestScheduler(users, goals, notifier, now)

			require.NoError(t, s.RunGoalDeadlines(context.Background()))

			require.Len(t, notifier.created, tt.wantCount)
			if tt.wantCount > 0 {
				created := notifier.created[0]
				assert.Equal(t, models.TypeGoalDeadline, created.Type)
				assert.Equal(t, tt.wantPriority, created.Priority)
				assert.Equal(t, "g-1", created.Metadata.RelatedID)
				assert.Equal(t, "Goal", created.Metadata.RelatedModel)
			}
		})
	}
}

func TestRunGoalDeadlinesSkipsOptedOutOwner(t *testing.T) {
	now := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

	owner := notifiableUser("Dave")
	owner.Preferences.NotificationsEnabled = false

	goal := models.Goal{
		ID:          primitive.NewObjectID(),
		UserID:      owner.ID,
		Title:       "Lose 5kg",
		TargetValue: 5,
		Status:      models.GoalActive,
		Deadline:    now.Add(24 * time.Hour),
	}

	users := &fakeUserSource{users: []models.User{owner}}
	notifier := &fakeNotifier{}
	s := newTestScheduler(users, &fakeGoalSource{goals: []models.Goal{goal}}, notifier, now)

	require.NoError(t, s.RunGoalDeadlines(context.Background()))
	assert.Empty(t, notifier.created)
}

func TestRunWorkoutStreaks(t *testing.T) {
	now := time.Date(2026, 5, 4, 20, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		streak     int
		lastActive time.Time
		wantCount  int
		wantType   models.NotificationType
	}{
		{"14 day milestone", 14, now, 1, models.TypeAchievement},
		{"7 day milestone", 7, now, 1, models.TypeAchievement},
		{"21 day milestone", 21, now, 1, models.TypeAchievement},
		{"10 days is no milestone", 10, now, 0, ""},
		{"broken streak gone quiet", 0, now.AddDate(0, 0, -3), 1, models.TypeEncouragement},
		{"broken streak still active", 0, now.Add(-2 * time.Hour), 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := notifiableUser("Eve")
			user.Stats.CurrentStreak = tt.streak
			user.LastActive = tt.lastActive

			users := &fakeUserSource{users: []models.User{user}}
			notifier := &fakeNotifier{}
			s := newTestScheduler(users, &fakeGoalSource{}, notifier, now)

			require.NoError(t, s.RunWorkoutStreaks(context.Background()))

			require.Len(t, notifier.created, tt.wantCount)
			if tt.wantCount > 0 {
				assert.Equal(t, tt.wantType, notifier.created[0].Type)
			}
		})
	}
}

func TestRunWeeklyProgress(t *testing.T) {
	now := time.Date(2026, 5, 3, 18, 0, 0, 0, time.UTC)
	users := &fakeUserSource{users: []models.User{notifiableUser("Fay"), notifiableUser("Gus")}}
	notifier := &fakeNotifier{}
	s := newTestScheduler(users, &fakeGoalSource{}, notifier, now)

	require.NoError(t, s.RunWeeklyProgress(context.Background()))

	require.Len(t, notifier.created, 2)
	for _, created := range notifier.created {
		assert.Equal(t, models.TypeSystem, created.Type)
		assert.Equal(t, models.CategorySystem, created.Category)
	}
}

func TestRunMotivation(t *testing.T) {
	now := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	users := &fakeUserSource{users: []models.User{notifiableUser("Hana")}}

	t.Run("creates encouragement", func(t *testing.T) {
		notifier := &fakeNotifier{}
		s := newTestScheduler(users, &fakeGoalSource{}, notifier, now)

		require.NoError(t, s.RunMotivation(context.Background()))

		require.Len(t, notifier.created, 1)
		created := notifier.created[0]
		assert.Equal(t, models.TypeEncouragement, created.Type)
		assert.Equal(t, models.PriorityLow, created.Priority)
		assert.Equal(t, "Keep moving!", created.Message)
	})

	t.Run("skips already encouraged users", func(t *testing.T) {
		notifier := &fakeNotifier{hasRecent: true}
		s := newTestScheduler(users, &fakeGoalSource{}, notifier, now)

		require.NoError(t, s.RunMotivation(context.Background()))
		assert.Empty(t, notifier.created)
	})
}

func TestStartStopStatus(t *testing.T) {
	s := newTestScheduler(&fakeUserSource{}, &fakeGoalSource{}, &fakeNotifier{}, time.Now())

	status := s.GetStatus()
	assert.False(t, status.Running)
	assert.Empty(t, status.ActiveTasks)

	s.Start()
	defer s.Stop()

	status = s.GetStatus()
	assert.True(t, status.Running)
	assert.Len(t, status.ActiveTasks, 7)
	assert.Contains(t, status.ActiveTasks, "dailyReminders")
	assert.Contains(t, status.ActiveTasks, "dispatch")

	// Second Start is a no-op.
	s.Start()
	assert.True(t, s.GetStatus().Running)

	s.Stop()
	assert.False(t, s.GetStatus().Running)

	// Second Stop is a no-op.
	s.Stop()
	assert.False(t, s.GetStatus().Running)
}
