package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"directory-pass/internal/domain"
	"directory-pass/internal/domain/model"
	"directory-pass/internal/usecase"
)

type purchaseRequest struct {
	UserID       string `json:"user_id"`
	Phone        string `json:"phone"`
	OperatorCode string `json:"operator_code"`
	Amount       int64  `json:"amount"`
}

func (s *Server) handleInitiatePurchase(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	res, err := s.purchaseUC.Initiate(r.Context(), req.UserID, req.Phone, req.OperatorCode, req.Amount)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidArgument),
			errors.Is(err, domain.ErrPriceMismatch),
			errors.Is(err, domain.ErrUnsupportedOperator),
			errors.Is(err, domain.ErrInvalidPhone):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, domain.ErrGatewayRejected):
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		default:
			http.Error(w, "Payment initiation failed, please retry", http.StatusBadGateway)
		}
		return
	}

	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handleWaitActivation(w http.ResponseWriter, r *http.Request) {
	txID := chi.URLParam(r, "txid")

	interval := parseDuration(r.URL.Query().Get("interval"), 3*time.Second)
	timeout := parseDuration(r.URL.Query().Get("timeout"), 3*time.Minute)

	res, err := s.activationUC.WaitForActivation(r.Context(), txID, interval, timeout)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			http.Error(w, "Unknown transaction id", http.StatusBadRequest)
			return
		}
		http.Error(w, "Activation check failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

type passView struct {
	State     string    `json:"state"` // "none" or "active"
	ExpiresAt time.Time `json:"expires_at,omitempty"`
	Remaining int64     `json:"remaining_seconds,omitempty"`
}

func (s *Server) handleGetPass(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	pass, err := s.passUC.ActivePass(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrNoActivePass) {
			writeJSON(w, http.StatusOK, passView{State: "none"})
			return
		}
		if errors.Is(err, domain.ErrInvalidArgument) {
			http.Error(w, "User ID is required", http.StatusBadRequest)
			return
		}
		http.Error(w, "Failed to get pass", http.StatusInternalServerError)
		return
	}

	now := time.Now()
	writeJSON(w, http.StatusOK, passView{
		State:     "active",
		ExpiresAt: pass.ExpiresAt,
		Remaining: int64(pass.Remaining(now).Seconds()),
	})
}

type captureReportRequest struct {
	UserID  string `json:"user_id"`
	Trigger string `json:"trigger"`
}

type captureReportResponse struct {
	State    string `json:"state"`
	Obscured bool   `json:"obscured"`
}

func (s *Server) handleCaptureReport(w http.ResponseWriter, r *http.Request) {
	var req captureReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.UserID == "" {
		http.Error(w, "User ID is required", http.StatusBadRequest)
		return
	}

	guard := s.guardFor(req.UserID)
	state, err := guard.Report(r.Context(), usecase.CaptureTrigger(req.Trigger))
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			http.Error(w, "Unknown trigger", http.StatusBadRequest)
			return
		}
		http.Error(w, "Failed to process report", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, captureReportResponse{
		State:    string(state),
		Obscured: guard.Obscured(),
	})
}

// ----- admin handlers -----

type adminLoginRequest struct {
	Password string `json:"password"`
}

func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	var req adminLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if s.adminPassword == "" || req.Password != s.adminPassword {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	token, err := s.auth.Mint(w)
	if err != nil {
		http.Error(w, "Failed to mint session", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

type adminGrantRequest struct {
	UserID   string `json:"user_id"`
	Duration string `json:"duration,omitempty"` // Go duration string; defaults to the configured pass duration
}

func (s *Server) handleAdminGrant(w http.ResponseWriter, r *http.Request) {
	var req adminGrantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	duration := s.passCfg.Duration
	if req.Duration != "" {
		d, err := time.ParseDuration(req.Duration)
		if err != nil || d <= 0 {
			http.Error(w, "Invalid duration", http.StatusBadRequest)
			return
		}
		duration = d
	}

	// Admin grants are free of charge; amount 0 records that no payment backs the pass.
	pass, err := s.passUC.GrantOrExtend(r.Context(), req.UserID, 0, s.passCfg.Currency, duration)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			http.Error(w, "User ID is required", http.StatusBadRequest)
			return
		}
		http.Error(w, "Failed to grant pass", http.StatusInternalServerError)
		return
	}
	s.endGuardSession(req.UserID)
	writeJSON(w, http.StatusCreated, pass)
}

func (s *Server) handleAdminRevoke(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	if err := s.passUC.Revoke(r.Context(), userID, "admin"); err != nil {
		switch {
		case errors.Is(err, domain.ErrNoActivePass):
			http.NotFound(w, r)
		case errors.Is(err, domain.ErrInvalidArgument):
			http.Error(w, "User ID is required", http.StatusBadRequest)
		default:
			http.Error(w, "Failed to revoke pass", http.StatusInternalServerError)
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAdminListPasses(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	passes, err := s.passUC.ListByUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			http.Error(w, "User ID is required", http.StatusBadRequest)
			return
		}
		http.Error(w, "Failed to list passes", http.StatusInternalServerError)
		return
	}
	if passes == nil {
		passes = []*model.AccessPass{}
	}
	writeJSON(w, http.StatusOK, passes)
}

func (s *Server) handleAdminStats(w http.ResponseWriter, r *http.Request) {
	counts, err := s.passUC.CountByStatus(r.Context())
	if err != nil {
		http.Error(w, "Failed to get stats", http.StatusInternalServerError)
		return
	}

	response := struct {
		Active  int `json:"active"`
		Expired int `json:"expired"`
		Revoked int `json:"revoked"`
	}{
		Active:  counts[model.PassStatusActive],
		Expired: counts[model.PassStatusExpired],
		Revoked: counts[model.PassStatusRevoked],
	}
	writeJSON(w, http.StatusOK, response)
}

// ----- helpers -----

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return fallback
}
