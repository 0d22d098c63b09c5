package scheduler

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"fittrack/internal/gemini"
	"fittrack/internal/models"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// The scheduler only needs narrow slices of the repositories and services it
// drives; the interfaces keep the task bodies testable in isolation.

type userSource interface {
	GetNotifiableUsers(ctx context.Context) ([]models.User, error)
	SampleNotifiableUsers(ctx context.Context, size int) ([]models.User, error)
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

type goalSource interface {
	FindActiveWithDeadlineBetween(ctx context.Context, from, to time.Time) ([]models.Goal, error)
	FindRecentByUser(ctx context.Context, userID primitive.ObjectID, since time.Time) ([]models.Goal, error)
}

type workoutSource interface {
	FindByUserSince(ctx context.Context, userID primitive.ObjectID, since time.Time) ([]models.Workout, error)
}

type notifier interface {
	CreateNotification(ctx context.Context, notif *models.Notification) (*models.Notification, error)
	HasRecentNotification(ctx context.Context, userID primitive.ObjectID, notifType models.NotificationType, since time.Time) (bool, error)
	CleanupExpiredNotifications(ctx context.Context) (int64, error)
	DispatchPending(ctx context.Context, limit int64) (int, error)
}

type recommender interface {
	GenerateRecommendations(ctx context.Context, user *models.User, workouts []models.Workout, goals []models.Goal) gemini.Recommendation
}

const (
	// ReminderWindowMinutes is the tolerance around a user's reminder time.
	ReminderWindowMinutes = 2
	// MotivationSampleSize is how many users each motivational run considers.
	MotivationSampleSize = 50

	dispatchBatchSize = 100
)

// Scheduler runs the fixed set of recurring notification tasks. It is
// explicitly constructed and injected; process bootstrap owns its lifecycle.
type Scheduler struct {
	users         userSource
	goals         goalSource
	workouts      workoutSource
	notifications notifier
	gemini        recommender

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
	tasks   []string

	now func() time.Time
}

// NewScheduler wires a scheduler to its data sources and clients.
func NewScheduler(users userSource, goals goalSource, workouts workoutSource, notifications notifier, rec recommender) *Scheduler {
	return &Scheduler{
		users:         users,
		goals:         goals,
		workouts:      workouts,
		notifications: notifications,
		gemini:        rec,
		now:           time.Now,
	}
}

// Status reports the scheduler's running flag and active task names.
type Status struct {
	Running     bool     `json:"running"`
	ActiveTasks []string `json:"active_tasks"`
}

// Start registers and starts all cron triggers. Calling Start on a running
// scheduler is a warned no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		logrus.Warn("Notification scheduler already running")
		return
	}

	s.cron = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cronLogger{}),
		cron.Recover(cronLogger{}),
	))
	s.tasks = s.tasks[:0]

	jobs := []struct {
		name string
		spec string
		run  func(context.Context) error
	}{
		{"dailyReminders", "0 * * * *", s.RunDailyReminders},
		{"goalDeadlines", "0 9 * * *", s.RunGoalDeadlines},
		{"workoutStreaks", "0 20 * * *", s.RunWorkoutStreaks},
		{"weeklyProgress", "0 18 * * 0", s.RunWeeklyProgress},
		{"motivation", "0 10,14,18 * * *", s.RunMotivation},
		{"cleanup", "0 2 * * *", s.RunCleanup},
		{"dispatch", "*/5 * * * *", s.RunDispatch},
	}

	for _, job := range jobs {
		name, run := job.name, job.run
		_, err := s.cron.AddFunc(job.spec, func() {
			if err := run(context.Background()); err != nil {
				logrus.WithError(err).Errorf("Scheduled task %s failed", name)
			}
		})
		if err != nil {
			logrus.WithError(err).Errorf("Failed to register task %s", name)
			continue
		}
		s.tasks = append(s.tasks, name)
		logrus.Infof("Registered %s task", name)
	}

	s.cron.Start()
	s.running = true
	logrus.Info("Notification scheduler started")
}

// Stop cancels all triggers. In-flight task bodies run to completion.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		logrus.Warn("Notification scheduler not running")
		return
	}

	s.cron.Stop()
	s.running = false
	logrus.Info("Notification scheduler stopped")
}

// GetStatus reports the running flag and registered task names.
func (s *Scheduler) GetStatus() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Status{
		Running:     s.running,
		ActiveTasks: append([]string(nil), s.tasks...),
	}
}

// RunDailyReminders creates a workout reminder for every notifiable user whose
// preferred reminder time falls within the current tick's window.
func (s *Scheduler) RunDailyReminders(ctx context.Context) error {
	now := s.now()
	users, err := s.users.GetNotifiableUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch users for reminders: %v", err)
	}

	created := 0
	for i := range users {
		user := &users[i]
		if !ReminderDue(user.Preferences.ReminderTime, now) {
			continue
		}

		notif := &models.Notification{
			UserID:   user.ID,
			Type:     models.TypeReminder,
			Category: models.CategoryWorkout,
			Title:    "Daily Workout Reminder",
			Message:  reminderMessage(user),
			Priority: models.PriorityNormal,
			Channels: channelsFor(user),
			Metadata: models.Metadata{
				ActionURL:   "/workouts",
				ActionLabel: "Start Workout",
			},
		}
		if _, err := s.notifications.CreateNotification(ctx, notif); err != nil {
			logrus.WithError(err).WithField("userID", user.ID.Hex()).Warn("Failed to create daily reminder")
			continue
		}
		created++
	}

	logrus.WithField("created", created).Info("Daily reminder task completed")
	return nil
}

// RunGoalDeadlines notifies owners of active, incomplete goals due in exactly
// 1 day (urgent) or exactly 7 days (normal). Other day-counts are skipped.
func (s *Scheduler) RunGoalDeadlines(ctx context.Context) error {
	now := s.now()
	goals, err := s.goals.FindActiveWithDeadlineBetween(ctx, now, now.AddDate(0, 0, 7))
	if err != nil {
		return fmt.Errorf("failed to fetch goals for deadline check: %v", err)
	}

	for i := range goals {
		goal := &goals[i]

		days := goal.DaysUntilDeadline(now)
		if days != 1 && days != 7 {
			continue
		}

		user, err := s.users.GetUserByID(ctx, goal.UserID)
		if err != nil {
			logrus.WithError(err).WithField("goal_id", goal.GoalID).Warn("Failed to load goal owner")
			continue
		}
		if !user.IsActive || !user.Preferences.NotificationsEnabled {
			continue
		}

		priority := models.PriorityNormal
		title := "📅 Goal Deadline Approaching"
		message := fmt.Sprintf("Your goal %q is due in %d days. You're %.0f%% complete.", goal.Title, days, goal.CompletionPercentage)
		if days == 1 {
			priority = models.PriorityUrgent
			title = "⏰ Goal Deadline Tomorrow!"
			message = fmt.Sprintf("Your goal %q is due tomorrow! You're %.0f%% complete.", goal.Title, goal.CompletionPercentage)
		}

		notif := &models.Notification{
			UserID:   goal.UserID,
			Type:     models.TypeGoalDeadline,
			Category: models.CategoryGoal,
			Title:    title,
			Message:  message,
			Priority: priority,
			Channels: channelsFor(user),
			Metadata: models.Metadata{
				RelatedID:    goal.GoalID,
				RelatedModel: "Goal",
				ActionURL:    "/goals/" + goal.ID.Hex(),
				ActionLabel:  "Update Goal",
			},
		}
		if _, err := s.notifications.CreateNotification(ctx, notif); err != nil {
			logrus.WithError(err).WithField("goal_id", goal.GoalID).Warn("Failed to create goal deadline notification")
		}
	}
	return nil
}

// RunWorkoutStreaks congratulates users on weekly streak milestones and nudges
// users whose streak broke and who have gone quiet.
func (s *Scheduler) RunWorkoutStreaks(ctx context.Context) error {
	now := s.now()
	users, err := s.users.GetNotifiableUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch users for streak check: %v", err)
	}

	for i := range users {
		user := &users[i]
		streak := user.Stats.CurrentStreak

		if streak > 0 && streak%7 == 0 {
			notif := &models.Notification{
				UserID:   user.ID,
				Type:     models.TypeAchievement,
				Category: models.CategoryAchievement,
				Title:    fmt.Sprintf("🔥 %d Day Streak!", streak),
				Message:  fmt.Sprintf("Congratulations %s! You've maintained a %d-day workout streak. Keep up the amazing work!", user.Name, streak),
				Priority: models.PriorityHigh,
				Channels: channelsFor(user),
				Metadata: models.Metadata{
					ActionURL:   "/stats",
					ActionLabel: "View Stats",
					CustomData: map[string]interface{}{
						"streak_days":      streak,
						"achievement_type": "streak",
					},
				},
				Personalization: &models.Personalization{
					UserName:      user.Name,
					CurrentStreak: streak,
					WorkoutCount:  user.Stats.TotalWorkouts,
				},
			}
			if _, err := s.notifications.CreateNotification(ctx, notif); err != nil {
				logrus.WithError(err).WithField("userID", user.ID.Hex()).Warn("Failed to create streak celebration")
			}
			continue
		}

		if streak == 0 && user.LastActive.Before(now.AddDate(0, 0, -1)) {
			notif := &models.Notification{
				UserID:   user.ID,
				Type:     models.TypeEncouragement,
				Category: models.CategoryWorkout,
				Title:    "Ready for a Fresh Start?",
				Message:  fmt.Sprintf("%s, every champion has setbacks. Let's get back on track and start a new streak today! 💪", user.Name),
				Priority: models.PriorityNormal,
				Channels: []models.Channel{models.ChannelInApp},
				Metadata: models.Metadata{
					ActionURL:   "/workouts",
					ActionLabel: "Start Workout",
				},
			}
			if _, err := s.notifications.CreateNotification(ctx, notif); err != nil {
				logrus.WithError(err).WithField("userID", user.ID.Hex()).Warn("Failed to create streak recovery notification")
			}
		}
	}
	return nil
}

// RunWeeklyProgress creates one weekly report notification per notifiable user.
func (s *Scheduler) RunWeeklyProgress(ctx context.Context) error {
	users, err := s.users.GetNotifiableUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch users for weekly reports: %v", err)
	}

	for i := range users {
		user := &users[i]
		notif := &models.Notification{
			UserID:   user.ID,
			Type:     models.TypeSystem,
			Category: models.CategorySystem,
			Title:    "📊 Your Weekly Progress Report",
			Message:  fmt.Sprintf("%s, your weekly fitness report is ready! Check out your achievements and get personalized insights.", user.Name),
			Priority: models.PriorityNormal,
			Channels: channelsFor(user),
			Metadata: models.Metadata{
				ActionURL:   "/stats?period=week",
				ActionLabel: "View Report",
			},
		}
		if _, err := s.notifications.CreateNotification(ctx, notif); err != nil {
			logrus.WithError(err).WithField("userID", user.ID.Hex()).Warn("Failed to create weekly progress report")
		}
	}
	return nil
}

// RunMotivation sends AI-backed encouragement to a random sample of users,
// skipping anyone already encouraged today.
func (s *Scheduler) RunMotivation(ctx context.Context) error {
	now := s.now()
	users, err := s.users.SampleNotifiableUsers(ctx, MotivationSampleSize)
	if err != nil {
		return fmt.Errorf("failed to sample users for motivation: %v", err)
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	for i := range users {
		user := &users[i]

		already, err := s.notifications.HasRecentNotification(ctx, user.ID, models.TypeEncouragement, today)
		if err != nil {
			logrus.WithError(err).WithField("userID", user.ID.Hex()).Warn("Failed to check existing encouragement")
			continue
		}
		if already {
			continue
		}

		notif := &models.Notification{
			UserID:   user.ID,
			Type:     models.TypeEncouragement,
			Category: models.CategoryWorkout,
			Title:    "Daily Motivation",
			Message:  s.motivationMessage(ctx, user, now),
			Priority: models.PriorityLow,
			Channels: []models.Channel{models.ChannelInApp},
			Metadata: models.Metadata{
				ActionURL:   "/workouts",
				ActionLabel: "Get Started",
			},
		}
		if _, err := s.notifications.CreateNotification(ctx, notif); err != nil {
			logrus.WithError(err).WithField("userID", user.ID.Hex()).Warn("Failed to create motivational notification")
		}
	}
	return nil
}

func (s *Scheduler) motivationMessage(ctx context.Context, user *models.User, now time.Time) string {
	since := now.AddDate(0, 0, -30)
	workouts, err := s.workouts.FindByUserSince(ctx, user.ID, since)
	if err != nil {
		logrus.WithError(err).WithField("userID", user.ID.Hex()).Warn("Failed to load workouts for motivation prompt")
	}
	goals, err := s.goals.FindRecentByUser(ctx, user.ID, since)
	if err != nil {
		logrus.WithError(err).WithField("userID", user.ID.Hex()).Warn("Failed to load goals for motivation prompt")
	}

	rec := s.gemini.GenerateRecommendations(ctx, user, workouts, goals)
	message := rec.Content
	if rec.Source == gemini.SourceGemini && len([]rune(message)) > 200 {
		message = string([]rune(message)[:200]) + "..."
	}
	return message
}

// RunCleanup deletes expired notifications, keeping read ones.
func (s *Scheduler) RunCleanup(ctx context.Context) error {
	deleted, err := s.notifications.CleanupExpiredNotifications(ctx)
	if err != nil {
		return fmt.Errorf("cleanup failed: %v", err)
	}
	logrus.WithField("deleted", deleted).Info("Cleanup task completed")
	return nil
}

// RunDispatch drains due pending notifications through the delivery path.
// Failed sends are retried here on later ticks, up to the attempt cap.
func (s *Scheduler) RunDispatch(ctx context.Context) error {
	processed, err := s.notifications.DispatchPending(ctx, dispatchBatchSize)
	if err != nil {
		return fmt.Errorf("dispatch failed: %v", err)
	}
	if processed > 0 {
		logrus.WithField("processed", processed).Info("Dispatch task completed")
	}
	return nil
}

// ReminderDue reports whether the HH:MM reminder time falls within the
// tolerance window around now, wrapping across midnight. Times are compared
// in the process's local zone, matching how preferences are entered.
func ReminderDue(reminderTime string, now time.Time) bool {
	parts := strings.SplitN(reminderTime, ":", 2)
	if len(parts) != 2 {
		return false
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 || hours > 23 {
		return false
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return false
	}

	reminder := hours*60 + minutes
	current := now.Hour()*60 + now.Minute()

	diff := reminder - current
	if diff < 0 {
		diff = -diff
	}
	if wrapped := 24*60 - diff; wrapped < diff {
		diff = wrapped
	}
	return diff <= ReminderWindowMinutes
}

func channelsFor(user *models.User) []models.Channel {
	channels := []models.Channel{models.ChannelInApp}
	if user.Preferences.EmailNotifications {
		channels = append(channels, models.ChannelEmail)
	}
	return channels
}

var reminderTemplates = []func(*models.User) string{
	func(u *models.User) string {
		return fmt.Sprintf("Hi %s! Time for your daily workout. Your fitness goals are waiting! 💪", u.Name)
	},
	func(u *models.User) string {
		return fmt.Sprintf("%s, let's keep that %d-day streak going! Time to exercise! 🔥", u.Name, u.Stats.CurrentStreak)
	},
	func(u *models.User) string {
		return fmt.Sprintf("Ready for today's workout, %s? Your future self will thank you! 🏃", u.Name)
	},
	func(u *models.User) string {
		return fmt.Sprintf("%s, consistency is key! Let's make today count with a great workout! ⚡", u.Name)
	},
}

func reminderMessage(user *models.User) string {
	return reminderTemplates[rand.Intn(len(reminderTemplates))](user)
}

// cronLogger adapts the cron logger interface onto logrus.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logrus.WithField("cron", keysAndValues).Debug(msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logrus.WithError(err).WithField("cron", keysAndValues).Error(msg)
}
