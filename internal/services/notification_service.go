package services

import (
	"context"
	"fmt"
	"time"

	"fittrack/internal/models"
	"fittrack/internal/repository"
	"fittrack/pkg/email"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationService owns the notification lifecycle: creation, user-facing
// reads and mark-as-read actions, delivery dispatch, and expiry cleanup.
type NotificationService struct {
	repo     *repository.NotificationRepository
	userRepo *repository.UserRepository
	mailer   *email.Sender
}

// NewNotificationService creates a new instance of NotificationService.
func NewNotificationService(repo *repository.NotificationRepository, userRepo *repository.UserRepository, mailer *email.Sender) *NotificationService {
	return &NotificationService{
		repo:     repo,
		userRepo: userRepo,
		mailer:   mailer,
	}
}

// CreateNotification validates and stores a new notification.
func (s *NotificationService) CreateNotification(ctx context.Context, notif *models.Notification) (*models.Notification, error) {
	return s.repo.CreateNotification(ctx, notif)
}

// GetUserNotifications lists a user's notifications with pagination and an
// optional status filter.
func (s *NotificationService) GetUserNotifications(ctx context.Context, userID primitive.ObjectID, status models.NotificationStatus, limit, page int64) ([]models.Notification, int64, error) {
	if limit <= 0 {
		limit = 20
	}
	if page < 1 {
		page = 1
	}
	if status != "" && !status.IsValid() {
		return nil, 0, fmt.Errorf("%w: invalid status filter %q", models.ErrValidation, status)
	}
	return s.repo.FindByUser(ctx, userID, status, limit, (page-1)*limit)
}

// GetUnreadNotifications returns the user's unread notifications.
func (s *NotificationService) GetUnreadNotifications(ctx context.Context, userID primitive.ObjectID, limit int64) ([]models.Notification, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.repo.FindUnread(ctx, userID, limit)
}

// MarkNotificationAsRead applies the user's explicit read action to one
// notification. The forward-only state machine makes repeat calls no-ops.
func (s *NotificationService) MarkNotificationAsRead(ctx context.Context, userID, notifID primitive.ObjectID) (*models.Notification, error) {
	notif, err := s.repo.GetNotificationByID(ctx, notifID)
	if err != nil {
		return nil, err
	}
	if notif.UserID != userID {
		return nil, fmt.Errorf("notification does not belong to user")
	}

	if notif.MarkRead(time.Now()) {
		if err := s.repo.UpdateNotification(ctx, notif); err != nil {
			return nil, err
		}
	}
	return notif, nil
}

// MarkMultipleAsRead bulk-reads the given notification ids for the user.
func (s *NotificationService) MarkMultipleAsRead(ctx context.Context, userID primitive.ObjectID, notificationIDs []string) (int64, error) {
	if len(notificationIDs) == 0 {
		return 0, nil
	}
	return s.repo.MarkMultipleAsRead(ctx, userID, notificationIDs)
}

// MarkAllAsRead transitions every currently unread notification to read.
func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	unread, err := s.repo.FindUnread(ctx, userID, 0)
	if err != nil {
		return 0, err
	}
	if len(unread) == 0 {
		return 0, nil
	}

	ids := make([]string, 0, len(unread))
	for _, n := range unread {
		ids = append(ids, n.NotificationID)
	}
	return s.repo.MarkMultipleAsRead(ctx, userID, ids)
}

// MarkNotificationClicked sets the clicked analytics flag.
func (s *NotificationService) MarkNotificationClicked(ctx context.Context, userID, notifID primitive.ObjectID) (*models.Notification, error) {
	notif, err := s.repo.GetNotificationByID(ctx, notifID)
	if err != nil {
		return nil, err
	}
	if notif.UserID != userID {
		return nil, fmt.Errorf("notification does not belong to user")
	}

	notif.MarkClicked(time.Now())
	if err := s.repo.UpdateNotification(ctx, notif); err != nil {
		return nil, err
	}
	return notif, nil
}

// MarkNotificationActionTaken records that the user followed the call to action.
func (s *NotificationService) MarkNotificationActionTaken(ctx context.Context, userID, notifID primitive.ObjectID) (*models.Notification, error) {
	notif, err := s.repo.GetNotificationByID(ctx, notifID)
	if err != nil {
		return nil, err
	}
	if notif.UserID != userID {
		return nil, fmt.Errorf("notification does not belong to user")
	}

	notif.MarkActionTaken(time.Now())
	if err := s.repo.UpdateNotification(ctx, notif); err != nil {
		return nil, err
	}
	return notif, nil
}

// DeleteNotification removes a notification owned by the user.
func (s *NotificationService) DeleteNotification(ctx context.Context, userID, notifID primitive.ObjectID) error {
	notif, err := s.repo.GetNotificationByID(ctx, notifID)
	if err != nil {
		return err
	}
	if notif.UserID != userID {
		return fmt.Errorf("notification does not belong to user")
	}
	return s.repo.DeleteNotification(ctx, notifID)
}

// CleanupExpiredNotifications bulk-deletes expired notifications, keeping read
// ones. Called by the scheduler's cleanup task.
func (s *NotificationService) CleanupExpiredNotifications(ctx context.Context) (int64, error) {
	return s.repo.CleanupExpired(ctx)
}

// HasRecentNotification reports whether the user already received a
// notification of the given type since the given time.
func (s *NotificationService) HasRecentNotification(ctx context.Context, userID primitive.ObjectID, notifType models.NotificationType, since time.Time) (bool, error) {
	existing, err := s.repo.FindLatestByType(ctx, userID, notifType, since)
	if err != nil {
		return false, err
	}
	return existing != nil, nil
}

// RecordDeliveryAttempt applies one channel attempt outcome and persists it.
// Delivery failures are recorded as data; only storage faults return an error.
func (s *NotificationService) RecordDeliveryAttempt(ctx context.Context, notif *models.Notification, channel models.Channel, success bool, errMsg string) error {
	notif.RecordDeliveryAttempt(channel, success, errMsg, time.Now())
	return s.repo.UpdateNotification(ctx, notif)
}

// DispatchPending drains due pending notifications and attempts delivery on
// each configured channel. A failure on one notification never aborts the
// batch. Returns how many notifications were processed.
func (s *NotificationService) DispatchPending(ctx context.Context, limit int64) (int, error) {
	pending, err := s.repo.FindPending(ctx, limit)
	if err != nil {
		return 0, err
	}

	processed := 0
	for i := range pending {
		notif := &pending[i]
		if err := s.dispatchOne(ctx, notif); err != nil {
			logrus.WithError(err).WithField("notification_id", notif.NotificationID).Warn("Failed to dispatch notification")
			continue
		}
		processed++
	}
	return processed, nil
}

// channelAttempt is the outcome of one send attempt on one channel.
type channelAttempt struct {
	channel models.Channel
	success bool
	errMsg  string
}

// applyDispatchOutcome folds a dispatch round's channel results into the
// notification. The notification is promoted to sent only when at least one
// channel accepted the message; an all-failed round leaves it pending so the
// next dispatch tick picks it up again, until the attempt cap forces failed.
func applyDispatchOutcome(notif *models.Notification, attempts []channelAttempt, now time.Time) {
	for _, a := range attempts {
		if a.success {
			notif.ApplyStatus(models.StatusSent, now)
			break
		}
	}
	for _, a := range attempts {
		notif.RecordDeliveryAttempt(a.channel, a.success, a.errMsg, now)
	}
}

func (s *NotificationService) dispatchOne(ctx context.Context, notif *models.Notification) error {
	results := make([]channelAttempt, 0, len(notif.Channels))
	for _, channel := range notif.Channels {
		success, errMsg := s.attemptChannel(ctx, notif, channel)
		results = append(results, channelAttempt{channel: channel, success: success, errMsg: errMsg})
	}
	applyDispatchOutcome(notif, results, time.Now())

	if err := s.repo.UpdateNotification(ctx, notif); err != nil {
		return err
	}

	if notif.Status == models.StatusDelivered && notif.IsRecurring {
		if next := notif.NewRecurringInstance(time.Now()); next != nil {
			if _, err := s.repo.CreateNotification(ctx, next); err != nil {
				logrus.WithError(err).WithField("notification_id", notif.NotificationID).Warn("Failed to spawn recurring notification")
			}
		}
	}
	return nil
}

// attemptChannel performs the actual send on a single channel. The result is
// delivery data, never an error.
func (s *NotificationService) attemptChannel(ctx context.Context, notif *models.Notification, channel models.Channel) (bool, string) {
	switch channel {
	case models.ChannelInApp:
		// In-app delivery is the document itself becoming visible.
		return true, ""

	case models.ChannelEmail:
		user, err := s.userRepo.GetUserByID(ctx, notif.UserID)
		if err != nil {
			return false, fmt.Sprintf("failed to load user: %v", err)
		}
		if !user.Preferences.EmailNotifications {
			return false, "email notifications disabled"
		}
		if !s.mailer.Configured() {
			return false, "email sender not configured"
		}

		body := email.NotificationBody(user.Name, notif.Title, notif.Message, notif.Metadata.ActionURL, notif.Metadata.ActionLabel)
		if err := s.mailer.SendHTML(user.Email, notif.Title, body); err != nil {
			return false, err.Error()
		}
		return true, ""

	default:
		// No push/SMS provider is wired up.
		return false, fmt.Sprintf("channel %s not configured", channel)
	}
}
