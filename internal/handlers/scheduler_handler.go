package handlers

import (
	"encoding/json"
	"net/http"

	"fittrack/internal/scheduler"
)

// SchedulerHandler exposes admin control over the notification scheduler.
type SchedulerHandler struct {
	Scheduler *scheduler.Scheduler
}

func NewSchedulerHandler(s *scheduler.Scheduler) *SchedulerHandler {
	return &SchedulerHandler{Scheduler: s}
}

// GET /admin/scheduler
func (h *SchedulerHandler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(h.Scheduler.GetStatus())
}

// POST /admin/scheduler/start
func (h *SchedulerHandler) StartHandler(w http.ResponseWriter, r *http.Request) {
	h.Scheduler.Start()
	json.NewEncoder(w).Encode(h.Scheduler.GetStatus())
}

// POST /admin/scheduler/stop
func (h *SchedulerHandler) StopHandler(w http.ResponseWriter, r *http.Request) {
	h.Scheduler.Stop()
	json.NewEncoder(w).Encode(h.Scheduler.GetStatus())
}
