package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"fittrack/internal/models"
	"fittrack/internal/services"
	"fittrack/pkg/logger"
	"fittrack/pkg/middleware"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type GoalHandler struct {
	Service *services.GoalService
}

func NewGoalHandler(service *services.GoalService) *GoalHandler {
	return &GoalHandler{Service: service}
}

// POST /goals
func (h *GoalHandler) CreateGoalHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	userID, _ := primitive.ObjectIDFromHex(claims.UserID)

	var goal models.Goal
	if err := json.NewDecoder(r.Body).Decode(&goal); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	goal.UserID = userID

	created, err := h.Service.CreateGoal(r.Context(), &goal)
	if err != nil {
		if errors.Is(err, models.ErrValidation) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		logger.Log.Errorf("Failed to create goal: %v", err)
		http.Error(w, "Failed to create goal", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(created)
}

// GET /goals?limit=
func (h *GoalHandler) GetGoalsHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	userID, _ := primitive.ObjectIDFromHex(claims.UserID)

	limit, _ := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64)

	goals, err := h.Service.GetGoals(r.Context(), userID, limit)
	if err != nil {
		logger.Log.Errorf("Failed to fetch goals: %v", err)
		http.Error(w, "Failed to get goals", http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(goals)
}

// GET /goals/{id}
func (h *GoalHandler) GetGoalHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	userID, _ := primitive.ObjectIDFromHex(claims.UserID)

	goalID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid goal ID", http.StatusBadRequest)
		return
	}

	goal, err := h.Service.GetGoal(r.Context(), userID, goalID)
	if err != nil {
		http.Error(w, "Goal not found", http.StatusNotFound)
		return
	}

	json.NewEncoder(w).Encode(goal)
}

// PUT /goals/{id}
func (h *GoalHandler) UpdateGoalHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	userID, _ := primitive.ObjectIDFromHex(claims.UserID)

	goalID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid goal ID", http.StatusBadRequest)
		return
	}

	var updated models.Goal
	if err := json.NewDecoder(r.Body).Decode(&updated); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	goal, err := h.Service.UpdateGoal(r.Context(), userID, goalID, &updated)
	if err != nil {
		if errors.Is(err, models.ErrValidation) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		logger.Log.Errorf("Failed to update goal: %v", err)
		http.Error(w, "Failed to update goal", http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(goal)
}

// PATCH /goals/{id}/progress
func (h *GoalHandler) UpdateProgressHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	userID, _ := primitive.ObjectIDFromHex(claims.UserID)

	goalID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid goal ID", http.StatusBadRequest)
		return
	}

	var req struct {
		CurrentValue float64 `json:"current_value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	goal, err := h.Service.UpdateProgress(r.Context(), userID, goalID, req.CurrentValue)
	if err != nil {
		if errors.Is(err, models.ErrValidation) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		logger.Log.Errorf("Failed to update goal progress: %v", err)
		http.Error(w, "Failed to update progress", http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(goal)
}

// DELETE /goals/{id}
func (h *GoalHandler) DeleteGoalHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	userID, _ := primitive.ObjectIDFromHex(claims.UserID)

	goalID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid goal ID", http.StatusBadRequest)
		return
	}

	if err := h.Service.DeleteGoal(r.Context(), userID, goalID); err != nil {
		logger.Log.Errorf("Failed to delete goal: %v", err)
		http.Error(w, "Failed to delete goal", http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(map[string]string{"message": "Goal deleted"})
}
