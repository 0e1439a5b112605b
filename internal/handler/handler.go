package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/finsight/finance-service/internal/middleware"
	"github.com/finsight/finance-service/internal/models"
	"github.com/finsight/finance-service/internal/repository"
	"github.com/finsight/finance-service/internal/service"
	"github.com/gorilla/mux"
)

type Handler struct {
	svc *service.Service
}

func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// RunFraudCheck triggers a full anomaly detection run
func (h *Handler) RunFraudCheck(w http.ResponseWriter, r *http.Request) {
	created, err := h.svc.RunAnomalyDetection()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to run fraud check.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":          "Fraud check complete.",
		"new_alerts_found": created,
	})
}

// ListFraudAlerts returns all unresolved alerts for review
func (h *Handler) ListFraudAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.svc.ListUnresolvedAlerts()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch fraud alerts.")
		return
	}
	if alerts == nil {
		alerts = []models.AlertView{}
	}
	writeJSON(w, http.StatusOK, alerts)
}

// ResolveFraudAlert marks an alert as resolved
func (h *Handler) ResolveFraudAlert(w http.ResponseWriter, r *http.Request) {
	role, _ := r.Context().Value(middleware.RoleKey).(string)
	if role == "Employee" {
		writeError(w, http.StatusForbidden, "Forbidden: You do not have permission to resolve alerts.")
		return
	}

	actorStr, _ := r.Context().Value(middleware.UserIDKey).(string)
	actorID, err := strconv.ParseInt(actorStr, 10, 64)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid user identity.")
		return
	}

	alertID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Alert ID is required.")
		return
	}

	if err := h.svc.ResolveAlert(alertID, actorID); err != nil {
		if errors.Is(err, repository.ErrAlertNotFound) {
			writeError(w, http.StatusNotFound, "Alert not found.")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to resolve alert.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Alert resolved successfully!"})
}

// DailyTransactions returns the transactions behind one user's flagged day
func (h *Handler) DailyTransactions(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.URL.Query().Get("userId"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "User ID and day are required.")
		return
	}
	day := r.URL.Query().Get("day")

	details, err := h.svc.AlertTransactionDetail(userID, day)
	if err != nil {
		if errors.Is(err, service.ErrInvalidArgument) {
			writeError(w, http.StatusBadRequest, "User ID and day are required.")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to fetch daily transactions.")
		return
	}
	if details == nil {
		details = []models.TransactionDetail{}
	}
	writeJSON(w, http.StatusOK, details)
}

// ExpenseForecast returns historical monthly expenses with a 3-month projection
func (h *Handler) ExpenseForecast(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ExpenseForecast()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to generate forecast.")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Health reports liveness
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
