package services

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"golang.org/x/crypto/bcrypt"

	"fittrack/internal/models"
	"fittrack/internal/repository"
	"fittrack/pkg/email"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserService encapsulates the business logic for user operations.
type UserService struct {
	repo   *repository.UserRepository
	mailer *email.Sender
}

// NewUserService creates a new instance of UserService.
func NewUserService(repo *repository.UserRepository, mailer *email.Sender) *UserService {
	return &UserService{
		repo:   repo,
		mailer: mailer,
	}
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// RegisterUser registers a new user after hashing their password.
func (s *UserService) RegisterUser(ctx context.Context, user *models.User) (*models.User, error) {
	logrus.Info("Registering new user")

	if user.Email == "" || user.Name == "" || user.HashedPassword == "" {
		logrus.Warn("Missing required fields during registration")
		return nil, fmt.Errorf("%w: name, email and password are required", models.ErrValidation)
	}

	if !emailRegex.MatchString(user.Email) {
		logrus.WithField("email", user.Email).Warn("Invalid email format during registration")
		return nil, fmt.Errorf("%w: invalid email format", models.ErrValidation)
	}

	// Check if the email is already registered
	existingUser, _ := s.repo.GetUserByEmail(ctx, user.Email)
	if existingUser != nil {
		logrus.WithField("email", user.Email).Warn("Email already in use")
		return nil, fmt.Errorf("email already in use")
	}

	// Hash the user's password.
	hashedPwd, err := bcrypt.GenerateFromPassword([]byte(user.HashedPassword), bcrypt.DefaultCost)
	if err != nil {
		logrus.WithError(err).Error("Password hashing failed")
		return nil, fmt.Errorf("failed to hash password: %v", err)
	}
	user.HashedPassword = string(hashedPwd)

	user.UserID = uuid.NewString()
	if user.Role == "" {
		user.Role = "user"
	}
	if user.Profile.FitnessLevel == "" {
		user.Profile.FitnessLevel = "beginner"
	}
	user.Preferences = models.DefaultPreferences()
	user.IsActive = true
	user.LastActive = time.Now()

	createdUser, err := s.repo.CreateUser(ctx, user)
	if err != nil {
		logrus.WithError(err).Error("User registration failed")
		return nil, fmt.Errorf("failed to register user: %v", err)
	}

	logrus.WithFields(logrus.Fields{
		"userID": createdUser.ID.Hex(),
		"role":   createdUser.Role,
	}).Info("User registered successfully")

	// Registration never fails because the welcome mail did.
	if s.mailer.Configured() {
		body := fmt.Sprintf("Hi %s,\n\nWelcome to FitTrack! Set your goals, log your workouts and we'll keep you on track.\n", createdUser.Name)
		if err := s.mailer.Send(createdUser.Email, "Welcome to FitTrack", body); err != nil {
			logrus.WithError(err).WithField("email", createdUser.Email).Warn("Failed to send welcome email")
		}
	}
	return createdUser, nil
}

// AuthenticateUser verifies credentials and returns the user.
func (s *UserService) AuthenticateUser(ctx context.Context, userEmail, password string) (*models.User, error) {
	user, err := s.repo.GetUserByEmail(ctx, userEmail)
	if err != nil {
		return nil, fmt.Errorf("invalid email or password")
	}
	if !user.IsActive {
		return nil, fmt.Errorf("account is deactivated")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)); err != nil {
		return nil, fmt.Errorf("invalid email or password")
	}
	return user, nil
}

// GetUser fetches a user by hex ID.
func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID")
	}
	return s.repo.GetUserByID(ctx, objID)
}

// UpdateProfile applies a partial profile update.
func (s *UserService) UpdateProfile(ctx context.Context, id primitive.ObjectID, update map[string]interface{}) (*models.User, error) {
	// Never allow credential or role changes through this path.
	delete(update, "hashed_password")
	delete(update, "role")
	delete(update, "email")
	return s.repo.UpdateUser(ctx, id, update)
}

// UpdatePreferences validates and stores notification preferences.
func (s *UserService) UpdatePreferences(ctx context.Context, id primitive.ObjectID, prefs models.Preferences) (*models.User, error) {
	if err := models.ValidatePreferences(prefs); err != nil {
		return nil, err
	}
	return s.repo.UpdateUser(ctx, id, map[string]interface{}{"preferences": prefs})
}

// DeactivateUser disables the account; scheduled tasks skip inactive users.
func (s *UserService) DeactivateUser(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.repo.UpdateUser(ctx, id, map[string]interface{}{"is_active": false})
	if err != nil {
		return err
	}
	logrus.WithField("userID", id.Hex()).Info("User deactivated")
	return nil
}

// UpdateLastActive stamps the user's last activity time.
func (s *UserService) UpdateLastActive(ctx context.Context, id primitive.ObjectID) error {
	return s.repo.UpdateLastActive(ctx, id)
}
