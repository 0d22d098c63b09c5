package handlers

import (
	"encoding/json"
	"net/http"

	"fittrack/internal/config"
	"fittrack/internal/models"
	"fittrack/internal/services"
	"fittrack/pkg/jwt"
	"fittrack/pkg/logger"
	"fittrack/pkg/middleware"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserHandler struct {
	Service *services.UserService
	Config  *config.Config
}

func NewUserHandler(service *services.UserService, cfg *config.Config) *UserHandler {
	return &UserHandler{Service: service, Config: cfg}
}

// POST /users/register
func (h *UserHandler) RegisterUserHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	user := &models.User{
		Name:           req.Name,
		Email:          req.Email,
		HashedPassword: req.Password,
	}
	created, err := h.Service.RegisterUser(r.Context(), user)
	if err != nil {
		logger.Log.Warnf("Registration failed for %s: %v", req.Email, err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	logger.Log.Infof("User registered: %s", created.Email)
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(created.Public())
}

// POST /users/login
func (h *UserHandler) LoginUserHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	user, err := h.Service.AuthenticateUser(r.Context(), req.Email, req.Password)
	if err != nil {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := jwtutil.GenerateToken(user.ID.Hex(), user.Email, user.Role, h.Config.JWTSecret, h.Config.TokenExpiry)
	if err != nil {
		logger.Log.Errorf("Failed to generate token: %v", err)
		http.Error(w, "Failed to login", http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"token": token,
		"user":  user.Public(),
	})
}

// GET /users/me
func (h *UserHandler) GetCurrentUserHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	user, err := h.Service.GetUser(r.Context(), claims.UserID)
	if err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	json.NewEncoder(w).Encode(user)
}

// PUT /users/me
func (h *UserHandler) UpdateProfileHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	userID, _ := primitive.ObjectIDFromHex(claims.UserID)

	var update map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	user, err := h.Service.UpdateProfile(r.Context(), userID, update)
	if err != nil {
		logger.Log.Errorf("Failed to update profile: %v", err)
		http.Error(w, "Failed to update profile", http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(user)
}

// PUT /users/me/preferences
func (h *UserHandler) UpdatePreferencesHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	userID, _ := primitive.ObjectIDFromHex(claims.UserID)

	var prefs models.Preferences
	if err := json.NewDecoder(r.Body).Decode(&prefs); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	user, err := h.Service.UpdatePreferences(r.Context(), userID, prefs)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	json.NewEncoder(w).Encode(user)
}

// DELETE /users/me
func (h *UserHandler) DeactivateUserHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	userID, _ := primitive.ObjectIDFromHex(claims.UserID)

	if err := h.Service.DeactivateUser(r.Context(), userID); err != nil {
		logger.Log.Errorf("Failed to deactivate user: %v", err)
		http.Error(w, "Failed to deactivate account", http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(map[string]string{"message": "Account deactivated"})
}
