package http

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"toolrent-backend/internal/jobs"
	"toolrent-backend/internal/logger"
)

// opsHandler serves the operational HTTP surface: liveness checking and
// manual job triggering.
type opsHandler struct {
	db   *sql.DB
	jobs *jobs.JobRunner
}

// RegisterOpsRoutes mounts the ops endpoints on the given router
func RegisterOpsRoutes(router *mux.Router, db *sql.DB, jobRunner *jobs.JobRunner) {
	h := &opsHandler{db: db, jobs: jobRunner}
	router.HandleFunc("/healthz", h.health).Methods(http.MethodGet)
	router.HandleFunc("/ops/jobs/{name}", h.runJob).Methods(http.MethodPost)
}

func (h *opsHandler) health(w http.ResponseWriter, r *http.Request) {
	if err := h.db.PingContext(r.Context()); err != nil {
		logger.Error("Health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unhealthy",
			"error":  "database unreachable",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// runJob executes one scheduled job synchronously. Meant for operators; the
// regular cadence comes from the cron scheduler.
func (h *opsHandler) runJob(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	switch name {
	case "send-deposit-notifications":
		h.jobs.SendDepositNotifications()
	case "capture-deposits":
		h.jobs.CaptureDeposits()
	case "purge-deposit-jobs":
		h.jobs.PurgeDepositJobs()
	case "all-deposit-jobs":
		h.jobs.RunAllDepositJobs()
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "unknown job: " + name,
		})
		return
	}

	logger.Info("Job triggered over HTTP", "job", name, "remote", r.RemoteAddr)
	writeJSON(w, http.StatusOK, map[string]string{"status": "completed", "job": name})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}
