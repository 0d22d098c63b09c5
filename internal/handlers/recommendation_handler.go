package handlers

import (
	"encoding/json"
	"net/http"

	"fittrack/internal/gemini"
	"fittrack/internal/services"
	"fittrack/pkg/logger"
	"fittrack/pkg/middleware"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RecommendationHandler serves AI-generated content. Responses always carry a
// source tag so clients can tell generated content from presets.
type RecommendationHandler struct {
	Users    *services.UserService
	Workouts *services.WorkoutService
	Goals    *services.GoalService
	Gemini   *gemini.Client
}

func NewRecommendationHandler(users *services.UserService, workouts *services.WorkoutService, goals *services.GoalService, client *gemini.Client) *RecommendationHandler {
	return &RecommendationHandler{Users: users, Workouts: workouts, Goals: goals, Gemini: client}
}

// GET /recommendations
func (h *RecommendationHandler) GetRecommendationsHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	user, err := h.Users.GetUser(r.Context(), claims.UserID)
	if err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}
	userID, _ := primitive.ObjectIDFromHex(claims.UserID)

	workouts, err := h.Workouts.GetWorkouts(r.Context(), userID, 10)
	if err != nil {
		logger.Log.Warnf("Failed to load workouts for recommendations: %v", err)
	}
	goals, err := h.Goals.GetGoals(r.Context(), userID, 10)
	if err != nil {
		logger.Log.Warnf("Failed to load goals for recommendations: %v", err)
	}

	rec := h.Gemini.GenerateRecommendations(r.Context(), user, workouts, goals)
	json.NewEncoder(w).Encode(rec)
}

// GET /recommendations/workout?type=
func (h *RecommendationHandler) GetWorkoutSuggestionHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	user, err := h.Users.GetUser(r.Context(), claims.UserID)
	if err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	plan := h.Gemini.GenerateWorkoutSuggestion(r.Context(), user, r.URL.Query().Get("type"))
	json.NewEncoder(w).Encode(plan)
}
