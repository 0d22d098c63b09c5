package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrValidation marks input the caller must fix; handlers map it to 400.
var ErrValidation = errors.New("validation error")

// NotificationType classifies what a notification is about.
type NotificationType string

const (
	TypeReminder       NotificationType = "reminder"
	TypeAchievement    NotificationType = "achievement"
	TypeRecommendation NotificationType = "recommendation"
	TypeGoalDeadline   NotificationType = "goal-deadline"
	TypeWorkoutStreak  NotificationType = "workout-streak"
	TypeMilestone      NotificationType = "milestone"
	TypeEncouragement  NotificationType = "encouragement"
	TypeWarning        NotificationType = "warning"
	TypeSystem         NotificationType = "system"
	TypeSocial         NotificationType = "social"
	TypeChallenge      NotificationType = "challenge"
	TypeTip            NotificationType = "tip"
)

func (t NotificationType) IsValid() bool {
	switch t {
	case TypeReminder, TypeAchievement, TypeRecommendation, TypeGoalDeadline,
		TypeWorkoutStreak, TypeMilestone, TypeEncouragement, TypeWarning,
		TypeSystem, TypeSocial, TypeChallenge, TypeTip:
		return true
	}
	return false
}

// NotificationCategory groups notifications for filtering.
type NotificationCategory string

const (
	CategoryWorkout     NotificationCategory = "workout"
	CategoryGoal        NotificationCategory = "goal"
	CategoryHealth      NotificationCategory = "health"
	CategorySocial      NotificationCategory = "social"
	CategorySystem      NotificationCategory = "system"
	CategoryAchievement NotificationCategory = "achievement"
)

func (c NotificationCategory) IsValid() bool {
	switch c {
	case CategoryWorkout, CategoryGoal, CategoryHealth, CategorySocial, CategorySystem, CategoryAchievement:
		return true
	}
	return false
}

// Priority orders notifications for delivery and display.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Rank maps priority to a sortable weight (urgent highest). Stored alongside
// the document so Mongo can sort on it.
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 4
	case PriorityHigh:
		return 3
	case PriorityNormal:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

// NotificationStatus is the overall lifecycle state of a notification.
type NotificationStatus string

const (
	StatusPending   NotificationStatus = "pending"
	StatusSent      NotificationStatus = "sent"
	StatusDelivered NotificationStatus = "delivered"
	StatusRead      NotificationStatus = "read"
	StatusFailed    NotificationStatus = "failed"
)

func (s NotificationStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusSent, StatusDelivered, StatusRead, StatusFailed:
		return true
	}
	return false
}

// IsTerminal reports whether a notification can never leave this status.
func (s NotificationStatus) IsTerminal() bool {
	return s == StatusRead || s == StatusFailed
}

func (s NotificationStatus) rank() int {
	switch s {
	case StatusPending:
		return 0
	case StatusSent:
		return 1
	case StatusDelivered:
		return 2
	case StatusRead:
		return 3
	}
	return -1
}

// Channel is a delivery medium.
type Channel string

const (
	ChannelInApp Channel = "in-app"
	ChannelEmail Channel = "email"
	ChannelPush  Channel = "push"
	ChannelSMS   Channel = "sms"
)

func (c Channel) IsValid() bool {
	switch c {
	case ChannelInApp, ChannelEmail, ChannelPush, ChannelSMS:
		return true
	}
	return false
}

// ChannelStatus is the per-channel delivery state.
type ChannelStatus string

const (
	ChannelPending   ChannelStatus = "pending"
	ChannelSent      ChannelStatus = "sent"
	ChannelDelivered ChannelStatus = "delivered"
	ChannelBounced   ChannelStatus = "bounced"
	ChannelFailed    ChannelStatus = "failed"
)

// RecurringFrequency is how often a recurring notification repeats.
type RecurringFrequency string

const (
	FrequencyDaily   RecurringFrequency = "daily"
	FrequencyWeekly  RecurringFrequency = "weekly"
	FrequencyMonthly RecurringFrequency = "monthly"
)

func (f RecurringFrequency) IsValid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		return true
	}
	return false
}

const (
	MaxDeliveryAttempts = 5
	MaxTitleLength      = 100
	MaxMessageLength    = 500
	MaxActionURLLength  = 200
	MaxActionLabel      = 50
	MaxTags             = 10
	DefaultExpiryDays   = 30
)

// DeliveryError is one failed send attempt on a channel.
type DeliveryError struct {
	Channel   Channel   `bson:"channel" json:"channel"`
	Error     string    `bson:"error" json:"error"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}

// DeliveryInfo is the per-notification delivery bookkeeping.
type DeliveryInfo struct {
	Attempts       int                       `bson:"attempts" json:"attempts"`
	LastAttempt    *time.Time                `bson:"last_attempt,omitempty" json:"last_attempt,omitempty"`
	Errors         []DeliveryError           `bson:"errors,omitempty" json:"errors,omitempty"`
	DeliveryStatus map[Channel]ChannelStatus `bson:"delivery_status" json:"delivery_status"`
}

// Analytics flags are monotonic: once set they are never reset.
type Analytics struct {
	Opened        bool       `bson:"opened" json:"opened"`
	Clicked       bool       `bson:"clicked" json:"clicked"`
	ActionTaken   bool       `bson:"action_taken" json:"action_taken"`
	OpenedAt      *time.Time `bson:"opened_at,omitempty" json:"opened_at,omitempty"`
	ClickedAt     *time.Time `bson:"clicked_at,omitempty" json:"clicked_at,omitempty"`
	ActionTakenAt *time.Time `bson:"action_taken_at,omitempty" json:"action_taken_at,omitempty"`
}

// Metadata links a notification to related entities and actions.
type Metadata struct {
	RelatedID    string                 `bson:"related_id,omitempty" json:"related_id,omitempty"`
	RelatedModel string                 `bson:"related_model,omitempty" json:"related_model,omitempty"`
	ActionURL    string                 `bson:"action_url,omitempty" json:"action_url,omitempty"`
	ActionLabel  string                 `bson:"action_label,omitempty" json:"action_label,omitempty"`
	ImageURL     string                 `bson:"image_url,omitempty" json:"image_url,omitempty"`
	CustomData   map[string]interface{} `bson:"custom_data,omitempty" json:"custom_data,omitempty"`
}

// Personalization carries the user context the message was rendered with.
type Personalization struct {
	UserName         string  `bson:"user_name,omitempty" json:"user_name,omitempty"`
	CurrentStreak    int     `bson:"current_streak,omitempty" json:"current_streak,omitempty"`
	GoalProgress     float64 `bson:"goal_progress,omitempty" json:"goal_progress,omitempty"`
	WorkoutCount     int     `bson:"workout_count,omitempty" json:"workout_count,omitempty"`
	AchievementLevel string  `bson:"achievement_level,omitempty" json:"achievement_level,omitempty"`
}

// Template identifies the message template a notification was built from.
type Template struct {
	TemplateID string            `bson:"template_id,omitempty" json:"template_id,omitempty"`
	Variables  map[string]string `bson:"variables,omitempty" json:"variables,omitempty"`
}

// RecurringConfig describes how a recurring notification respawns.
type RecurringConfig struct {
	Frequency     RecurringFrequency `bson:"frequency" json:"frequency"`
	Interval      int                `bson:"interval" json:"interval"`
	DaysOfWeek    []int              `bson:"days_of_week,omitempty" json:"days_of_week,omitempty"`
	EndDate       *time.Time         `bson:"end_date,omitempty" json:"end_date,omitempty"`
	NextScheduled *time.Time         `bson:"next_scheduled,omitempty" json:"next_scheduled,omitempty"`
}

// Notification is one message to a user with its own delivery and read lifecycle.
type Notification struct {
	ID             primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	NotificationID string               `bson:"notification_id" json:"notification_id"`
	UserID         primitive.ObjectID   `bson:"user_id" json:"user_id"`
	Type           NotificationType     `bson:"type" json:"type"`
	Category       NotificationCategory `bson:"category" json:"category"`
	Title          string               `bson:"title" json:"title"`
	Message        string               `bson:"message" json:"message"`
	Priority       Priority             `bson:"priority" json:"priority"`
	PriorityRank   int                  `bson:"priority_rank" json:"-"`
	Status         NotificationStatus   `bson:"status" json:"status"`
	Channels       []Channel            `bson:"channels" json:"channels"`
	ScheduledFor   time.Time            `bson:"scheduled_for" json:"scheduled_for"`
	SentAt         *time.Time           `bson:"sent_at,omitempty" json:"sent_at,omitempty"`
	DeliveredAt    *time.Time           `bson:"delivered_at,omitempty" json:"delivered_at,omitempty"`
	ReadAt         *time.Time           `bson:"read_at,omitempty" json:"read_at,omitempty"`
	ExpiresAt      time.Time            `bson:"expires_at" json:"expires_at"`

	Metadata        Metadata         `bson:"metadata,omitempty" json:"metadata,omitempty"`
	Personalization *Personalization `bson:"personalization,omitempty" json:"personalization,omitempty"`
	Template        *Template        `bson:"template,omitempty" json:"template,omitempty"`
	Delivery        DeliveryInfo     `bson:"delivery" json:"delivery"`
	Analytics       Analytics        `bson:"analytics" json:"analytics"`

	IsRecurring bool             `bson:"is_recurring" json:"is_recurring"`
	Recurring   *RecurringConfig `bson:"recurring_config,omitempty" json:"recurring_config,omitempty"`
	Tags        []string         `bson:"tags,omitempty" json:"tags,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

var relatedModels = map[string]bool{
	"Workout": true, "Goal": true, "User": true, "Achievement": true,
}

// ApplyDefaults fills the fields the store would otherwise default.
func (n *Notification) ApplyDefaults(now time.Time) {
	if n.NotificationID == "" {
		n.NotificationID = uuid.NewString()
	}
	if n.Category == "" {
		n.Category = CategorySystem
	}
	if n.Priority == "" {
		n.Priority = PriorityNormal
	}
	n.PriorityRank = n.Priority.Rank()
	if n.Status == "" {
		n.Status = StatusPending
	}
	if len(n.Channels) == 0 {
		n.Channels = []Channel{ChannelInApp}
	}
	if n.ScheduledFor.IsZero() {
		n.ScheduledFor = now
	}
	if n.ExpiresAt.IsZero() {
		n.ExpiresAt = now.AddDate(0, 0, DefaultExpiryDays)
	}
	if n.Delivery.DeliveryStatus == nil {
		n.Delivery.DeliveryStatus = make(map[Channel]ChannelStatus, len(n.Channels))
	}
	for _, ch := range n.Channels {
		if _, ok := n.Delivery.DeliveryStatus[ch]; !ok {
			n.Delivery.DeliveryStatus[ch] = ChannelPending
		}
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now
	}
	n.UpdatedAt = now
}

// Validate checks required fields and closed enum sets.
func (n *Notification) Validate() error {
	if n.UserID.IsZero() {
		return fmt.Errorf("%w: user id is required", ErrValidation)
	}
	if !n.Type.IsValid() {
		return fmt.Errorf("%w: invalid notification type %q", ErrValidation, n.Type)
	}
	if !n.Category.IsValid() {
		return fmt.Errorf("%w: invalid category %q", ErrValidation, n.Category)
	}
	if !n.Priority.IsValid() {
		return fmt.Errorf("%w: invalid priority %q", ErrValidation, n.Priority)
	}
	if !n.Status.IsValid() {
		return fmt.Errorf("%w: invalid status %q", ErrValidation, n.Status)
	}
	if n.Title == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if len([]rune(n.Title)) > MaxTitleLength {
		return fmt.Errorf("%w: title cannot exceed %d characters", ErrValidation, MaxTitleLength)
	}
	if n.Message == "" {
		return fmt.Errorf("%w: message is required", ErrValidation)
	}
	if len([]rune(n.Message)) > MaxMessageLength {
		return fmt.Errorf("%w: message cannot exceed %d characters", ErrValidation, MaxMessageLength)
	}
	for _, ch := range n.Channels {
		if !ch.IsValid() {
			return fmt.Errorf("%w: invalid channel %q", ErrValidation, ch)
		}
	}
	if n.Metadata.RelatedModel != "" && !relatedModels[n.Metadata.RelatedModel] {
		return fmt.Errorf("%w: invalid related model %q", ErrValidation, n.Metadata.RelatedModel)
	}
	if len(n.Metadata.ActionURL) > MaxActionURLLength {
		return fmt.Errorf("%w: action URL cannot exceed %d characters", ErrValidation, MaxActionURLLength)
	}
	if len(n.Metadata.ActionLabel) > MaxActionLabel {
		return fmt.Errorf("%w: action label cannot exceed %d characters", ErrValidation, MaxActionLabel)
	}
	if n.Delivery.Attempts > MaxDeliveryAttempts {
		return fmt.Errorf("%w: delivery attempts cannot exceed %d", ErrValidation, MaxDeliveryAttempts)
	}
	if len(n.Tags) > MaxTags {
		return fmt.Errorf("%w: cannot have more than %d tags", ErrValidation, MaxTags)
	}
	if n.IsRecurring {
		if n.Recurring == nil || !n.Recurring.Frequency.IsValid() {
			return fmt.Errorf("%w: recurring notifications require a valid frequency", ErrValidation)
		}
		if n.Recurring.Interval < 1 {
			return fmt.Errorf("%w: recurring interval must be at least 1", ErrValidation)
		}
		for _, day := range n.Recurring.DaysOfWeek {
			if day < 0 || day > 6 {
				return fmt.Errorf("%w: days of week must be between 0 and 6", ErrValidation)
			}
		}
	}
	return nil
}

// IsExpired reports whether the notification is past its expiry.
func (n *Notification) IsExpired(now time.Time) bool {
	return now.After(n.ExpiresAt)
}

// IsOverdue reports a pending notification whose scheduled time has passed.
func (n *Notification) IsOverdue(now time.Time) bool {
	return n.Status == StatusPending && now.After(n.ScheduledFor)
}

// ApplyStatus moves the notification forward through the state machine.
// Transitions are monotonic: a lesser status arriving after a greater one is
// ignored, and read/failed are terminal. Timestamps are stamped on the first
// entry into each status only.
func (n *Notification) ApplyStatus(to NotificationStatus, now time.Time) bool {
	if n.Status.IsTerminal() {
		return false
	}
	if to == StatusFailed {
		n.Status = StatusFailed
		return true
	}
	if to.rank() <= n.Status.rank() {
		return false
	}

	n.Status = to
	switch to {
	case StatusSent:
		if n.SentAt == nil {
			t := now
			n.SentAt = &t
		}
	case StatusDelivered:
		if n.DeliveredAt == nil {
			t := now
			n.DeliveredAt = &t
		}
	case StatusRead:
		if n.ReadAt == nil {
			t := now
			n.ReadAt = &t
		}
		if !n.Analytics.Opened {
			n.Analytics.Opened = true
			t := now
			n.Analytics.OpenedAt = &t
		}
	}
	return true
}

// MarkRead is the explicit user "mark as read" action.
func (n *Notification) MarkRead(now time.Time) bool {
	return n.ApplyStatus(StatusRead, now)
}

// ExpireIfDue flips a pending notification past its expiry to failed.
// Lazy expiry on access; bulk deletion is the repository's cleanup job.
func (n *Notification) ExpireIfDue(now time.Time) bool {
	if n.Status == StatusPending && n.IsExpired(now) {
		n.Status = StatusFailed
		return true
	}
	return false
}

// RecordDeliveryAttempt applies the outcome of a send attempt on one channel.
// Business-level failures are data, not errors; only the caller's storage
// write can fail.
func (n *Notification) RecordDeliveryAttempt(channel Channel, success bool, errMsg string, now time.Time) {
	if n.Delivery.Attempts >= MaxDeliveryAttempts {
		return
	}
	n.Delivery.Attempts++
	t := now
	n.Delivery.LastAttempt = &t
	if n.Delivery.DeliveryStatus == nil {
		n.Delivery.DeliveryStatus = make(map[Channel]ChannelStatus)
	}

	if success {
		n.Delivery.DeliveryStatus[channel] = ChannelDelivered
		if n.Status == StatusPending || n.Status == StatusSent {
			n.ApplyStatus(StatusDelivered, now)
		}
		return
	}

	n.Delivery.DeliveryStatus[channel] = ChannelFailed
	if errMsg == "" {
		errMsg = "unknown error"
	}
	n.Delivery.Errors = append(n.Delivery.Errors, DeliveryError{
		Channel:   channel,
		Error:     errMsg,
		Timestamp: now,
	})
	if n.Delivery.Attempts >= MaxDeliveryAttempts {
		n.ApplyStatus(StatusFailed, now)
	}
}

// MarkClicked sets the clicked analytics flag once.
func (n *Notification) MarkClicked(now time.Time) {
	if !n.Analytics.Clicked {
		n.Analytics.Clicked = true
		t := now
		n.Analytics.ClickedAt = &t
	}
}

// MarkActionTaken sets the action-taken analytics flag once.
func (n *Notification) MarkActionTaken(now time.Time) {
	if !n.Analytics.ActionTaken {
		n.Analytics.ActionTaken = true
		t := now
		n.Analytics.ActionTakenAt = &t
	}
}

// ComputeNextScheduled derives the next recurrence from ScheduledFor.
// No-op unless the notification is recurring and the slot is unset.
func (n *Notification) ComputeNextScheduled() {
	if !n.IsRecurring || n.Recurring == nil || !n.Recurring.Frequency.IsValid() || n.Recurring.NextScheduled != nil {
		return
	}

	interval := n.Recurring.Interval
	if interval < 1 {
		interval = 1
	}

	var next time.Time
	switch n.Recurring.Frequency {
	case FrequencyDaily:
		next = n.ScheduledFor.AddDate(0, 0, interval)
	case FrequencyWeekly:
		next = n.ScheduledFor.AddDate(0, 0, 7*interval)
	case FrequencyMonthly:
		next = n.ScheduledFor.AddDate(0, interval, 0)
	}
	n.Recurring.NextScheduled = &next
}

// NewRecurringInstance spawns the follow-up document for a recurring
// notification, scheduled at NextScheduled. Returns nil when the recurrence
// has ended or was never configured.
func (n *Notification) NewRecurringInstance(now time.Time) *Notification {
	if !n.IsRecurring || n.Recurring == nil || n.Recurring.NextScheduled == nil {
		return nil
	}
	if n.Recurring.EndDate != nil && now.After(*n.Recurring.EndDate) {
		return nil
	}

	next := &Notification{
		UserID:          n.UserID,
		Type:            n.Type,
		Category:        n.Category,
		Title:           n.Title,
		Message:         n.Message,
		Priority:        n.Priority,
		Channels:        append([]Channel(nil), n.Channels...),
		ScheduledFor:    *n.Recurring.NextScheduled,
		Metadata:        n.Metadata,
		Personalization: n.Personalization,
		Template:        n.Template,
		IsRecurring:     true,
		Recurring: &RecurringConfig{
			Frequency:  n.Recurring.Frequency,
			Interval:   n.Recurring.Interval,
			DaysOfWeek: append([]int(nil), n.Recurring.DaysOfWeek...),
			EndDate:    n.Recurring.EndDate,
		},
		Tags: append([]string(nil), n.Tags...),
	}
	next.ApplyDefaults(now)
	next.ComputeNextScheduled()
	return next
}

// DeliverySuccessRate is the share of configured channels confirmed delivered,
// as a percentage.
func (n *Notification) DeliverySuccessRate() float64 {
	if len(n.Channels) == 0 {
		return 0
	}
	delivered := 0
	for _, ch := range n.Channels {
		if n.Delivery.DeliveryStatus[ch] == ChannelDelivered {
			delivered++
		}
	}
	return float64(delivered) / float64(len(n.Channels)) * 100
}
