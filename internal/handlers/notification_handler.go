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

type NotificationHandler struct {
	Service *services.NotificationService
}

func NewNotificationHandler(service *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{Service: service}
}

// POST /notifications (admin only)
func (h *NotificationHandler) CreateNotificationHandler(w http.ResponseWriter, r *http.Request) {
	var notif models.Notification
	if err := json.NewDecoder(r.Body).Decode(&notif); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	created, err := h.Service.CreateNotification(r.Context(), &notif)
	if err != nil {
		if errors.Is(err, models.ErrValidation) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		logger.Log.Errorf("Failed to create notification: %v", err)
		http.Error(w, "Failed to create notification", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(created)
}

// GET /notifications?status=&limit=&page=
func (h *NotificationHandler) GetUserNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	userID, _ := primitive.ObjectIDFromHex(claims.UserID)

	query := r.URL.Query()
	status := models.NotificationStatus(query.Get("status"))
	limit, _ := strconv.ParseInt(query.Get("limit"), 10, 64)
	page, _ := strconv.ParseInt(query.Get("page"), 10, 64)

	notifications, total, err := h.Service.GetUserNotifications(r.Context(), userID, status, limit, page)
	if err != nil {
		if errors.Is(err, models.ErrValidation) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		logger.Log.Errorf("Failed to fetch notifications: %v", err)
		http.Error(w, "Failed to get notifications", http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"notifications": notifications,
		"total":         total,
	})
}

// GET /notifications/unread?limit=
func (h *NotificationHandler) GetUnreadNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	userID, _ := primitive.ObjectIDFromHex(claims.UserID)

	limit, _ := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64)

	notifications, err := h.Service.GetUnreadNotifications(r.Context(), userID, limit)
	if err != nil {
		logger.Log.Errorf("Failed to fetch unread notifications: %v", err)
		http.Error(w, "Failed to get notifications", http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(notifications)
}

// POST /notifications/{id}/read
func (h *NotificationHandler) MarkAsReadHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	userID, _ := primitive.ObjectIDFromHex(claims.UserID)

	vars := mux.Vars(r)
	notifID, err := primitive.ObjectIDFromHex(vars["id"])
	if err != nil {
		http.Error(w, "Invalid notification ID", http.StatusBadRequest)
		return
	}

	notif, err := h.Service.MarkNotificationAsRead(r.Context(), userID, notifID)
	if err != nil {
		logger.Log.Errorf("Failed to mark notification as read: %v", err)
		http.Error(w, "Failed to mark as read", http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(notif)
}

// POST /notifications/read
func (h *NotificationHandler) MarkMultipleAsReadHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	userID, _ := primitive.ObjectIDFromHex(claims.UserID)

	var req struct {
		NotificationIDs []string `json:"notification_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if len(req.NotificationIDs) == 0 {
		http.Error(w, "notification_ids is required", http.StatusBadRequest)
		return
	}

	modified, err := h.Service.MarkMultipleAsRead(r.Context(), userID, req.NotificationIDs)
	if err != nil {
		logger.Log.Errorf("Failed to mark notifications as read: %v", err)
		http.Error(w, "Failed to mark as read", http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(map[string]int64{"modified": modified})
}

// POST /notifications/read-all
func (h *NotificationHandler) MarkAllAsReadHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	userID, _ := primitive.ObjectIDFromHex(claims.UserID)

	modified, err := h.Service.MarkAllAsRead(r.Context(), userID)
	if err != nil {
		logger.Log.Errorf("Failed to mark all notifications as read: %v", err)
		http.Error(w, "Failed to mark as read", http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(map[string]int64{"modified": modified})
}

// POST /notifications/{id}/clicked
func (h *NotificationHandler) MarkClickedHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	userID, _ := primitive.ObjectIDFromHex(claims.UserID)

	vars := mux.Vars(r)
	notifID, err := primitive.ObjectIDFromHex(vars["id"])
	if err != nil {
		http.Error(w, "Invalid notification ID", http.StatusBadRequest)
		return
	}

	notif, err := h.Service.MarkNotificationClicked(r.Context(), userID, notifID)
	if err != nil {
		logger.Log.Errorf("Failed to record notification click: %v", err)
		http.Error(w, "Failed to record click", http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(notif)
}

// POST /notifications/{id}/action
func (h *NotificationHandler) MarkActionTakenHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	userID, _ := primitive.ObjectIDFromHex(claims.UserID)

	vars := mux.Vars(r)
	notifID, err := primitive.ObjectIDFromHex(vars["id"])
	if err != nil {
		http.Error(w, "Invalid notification ID", http.StatusBadRequest)
		return
	}

	notif, err := h.Service.MarkNotificationActionTaken(r.Context(), userID, notifID)
	if err != nil {
		logger.Log.Errorf("Failed to record notification action: %v", err)
		http.Error(w, "Failed to record action", http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(notif)
}

// DELETE /notifications/{id}
func (h *NotificationHandler) DeleteNotificationHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	userID, _ := primitive.ObjectIDFromHex(claims.UserID)

	vars := mux.Vars(r)
	notifID, err := primitive.ObjectIDFromHex(vars["id"])
	if err != nil {
		http.Error(w, "Invalid notification ID", http.StatusBadRequest)
		return
	}

	if err := h.Service.DeleteNotification(r.Context(), userID, notifID); err != nil {
		logger.Log.Errorf("Failed to delete notification: %v", err)
		http.Error(w, "Failed to delete notification", http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(map[string]string{"message": "Notification deleted"})
}
