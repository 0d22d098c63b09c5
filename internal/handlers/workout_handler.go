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

type WorkoutHandler struct {
	Service *services.WorkoutService
}

func NewWorkoutHandler(service *services.WorkoutService) *WorkoutHandler {
	return &WorkoutHandler{Service: service}
}

// POST /workouts
func (h *WorkoutHandler) CreateWorkoutHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	userID, _ := primitive.ObjectIDFromHex(claims.UserID)

	var workout models.Workout
	if err := json.NewDecoder(r.Body).Decode(&workout); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	workout.UserID = userID

	created, err := h.Service.CreateWorkout(r.Context(), &workout)
	if err != nil {
		if errors.Is(err, models.ErrValidation) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		logger.Log.Errorf("Failed to create workout: %v", err)
		http.Error(w, "Failed to create workout", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(created)
}

// GET /workouts?limit=
func (h *WorkoutHandler) GetWorkoutsHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	userID, _ := primitive.ObjectIDFromHex(claims.UserID)

	limit, _ := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64)

	workouts, err := h.Service.GetWorkouts(r.Context(), userID, limit)
	if err != nil {
		logger.Log.Errorf("Failed to fetch workouts: %v", err)
		http.Error(w, "Failed to get workouts", http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(workouts)
}

// GET /workouts/{id}
func (h *WorkoutHandler) GetWorkoutHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	userID, _ := primitive.ObjectIDFromHex(claims.UserID)

	workoutID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid workout ID", http.StatusBadRequest)
		return
	}

	workout, err := h.Service.GetWorkout(r.Context(), userID, workoutID)
	if err != nil {
		http.Error(w, "Workout not found", http.StatusNotFound)
		return
	}

	json.NewEncoder(w).Encode(workout)
}

// PUT /workouts/{id}
func (h *WorkoutHandler) UpdateWorkoutHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	userID, _ := primitive.ObjectIDFromHex(claims.UserID)

	workoutID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid workout ID", http.StatusBadRequest)
		return
	}

	var updated models.Workout
	if err := json.NewDecoder(r.Body).Decode(&updated); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	workout, err := h.Service.UpdateWorkout(r.Context(), userID, workoutID, &updated)
	if err != nil {
		if errors.Is(err, models.ErrValidation) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		logger.Log.Errorf("Failed to update workout: %v", err)
		http.Error(w, "Failed to update workout", http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(workout)
}

// DELETE /workouts/{id}
func (h *WorkoutHandler) DeleteWorkoutHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	userID, _ := primitive.ObjectIDFromHex(claims.UserID)

	workoutID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid workout ID", http.StatusBadRequest)
		return
	}

	if err := h.Service.DeleteWorkout(r.Context(), userID, workoutID); err != nil {
		logger.Log.Errorf("Failed to delete workout: %v", err)
		http.Error(w, "Failed to delete workout", http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(map[string]string{"message": "Workout deleted"})
}
