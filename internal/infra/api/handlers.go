package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/hakudoge53/candilingo-sub001/internal/domain"
	"github.com/hakudoge53/candilingo-sub001/internal/domain/model"
	"github.com/hakudoge53/candilingo-sub001/internal/infra/logging"
	"github.com/hakudoge53/candilingo-sub001/internal/infra/metrics"
	red "github.com/hakudoge53/candilingo-sub001/internal/infra/redis"
)

type redeemRequest struct {
	Code string `json:"code"`
}

type redeemResponse struct {
	Success        bool      `json:"success"`
	Message        string    `json:"message"`
	DurationMonths int       `json:"duration_months"`
	ExpiresAt      time.Time `json:"expires_at"`
	Warnings       []string  `json:"warnings,omitempty"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg, details string) {
	writeJSON(w, status, errorResponse{Error: msg, Details: details})
}

// handleRedeem is the single authoritative redemption endpoint. Clients
// never write to the registry or ledger directly.
func (s *Server) handleRedeem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := PrincipalID(ctx)

	if userID != "" && s.limiter != nil {
		ok, err := s.limiter.Allow(ctx, red.RedeemAttemptKey(userID),
			s.cfg.Referral.AttemptLimit, s.cfg.Referral.AttemptWindow)
		if err != nil {
			// Fail open: a rate-limiter outage must not block redemptions.
			logging.With(ctx, s.log).Warn().Err(err).Msg("rate limiter unavailable")
		} else if !ok {
			metrics.IncRedemption(metrics.OutcomeRateLimited)
			writeError(w, http.StatusTooManyRequests, "too many redemption attempts", "retry later")
			return
		}
	}

	var req redeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "")
		return
	}

	res, err := s.referralUC.Redeem(ctx, req.Code, userID)
	if err != nil {
		s.writeRedeemError(w, err)
		return
	}

	msg := "referral code redeemed"
	if res.Degraded() {
		msg = "referral code redeemed; some account updates are still pending"
	}
	writeJSON(w, http.StatusOK, redeemResponse{
		Success:        true,
		Message:        msg,
		DurationMonths: res.DurationMonths,
		ExpiresAt:      res.ExpiresAt,
		Warnings:       res.Warnings,
	})
}

func (s *Server) writeRedeemError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrEmptyCode):
		writeError(w, http.StatusBadRequest, "referral code is required", "")
	case errors.Is(err, domain.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, "authentication required", "")
	case errors.Is(err, domain.ErrInvalidCode):
		writeError(w, http.StatusBadRequest, "invalid referral code", "the code does not exist or is no longer active")
	case errors.Is(err, domain.ErrCodeExhausted):
		writeError(w, http.StatusBadRequest, "referral code exhausted", "the code has reached its usage limit")
	case errors.Is(err, domain.ErrAlreadyRedeemed):
		writeError(w, http.StatusConflict, "referral code already redeemed", "each code can be redeemed once per account")
	default:
		writeError(w, http.StatusInternalServerError, "redemption failed", "temporary storage failure, retry later")
	}
}

type codeCreateRequest struct {
	Code           string `json:"code"`
	DurationMonths int    `json:"duration_months"`
	UsageLimit     *int   `json:"usage_limit"`
	IsActive       *bool  `json:"is_active"`
}

type codeView struct {
	ID             string    `json:"id"`
	Code           string    `json:"code"`
	IsActive       bool      `json:"is_active"`
	DurationMonths int       `json:"duration_months"`
	UsageCount     int       `json:"usage_count"`
	UsageLimit     *int      `json:"usage_limit,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

func toCodeView(rc *model.ReferralCode) codeView {
	return codeView{
		ID:             rc.ID,
		Code:           rc.Code,
		IsActive:       rc.IsActive,
		DurationMonths: rc.DurationMonths,
		UsageCount:     rc.UsageCount,
		UsageLimit:     rc.UsageLimit,
		CreatedAt:      rc.CreatedAt,
	}
}

func (s *Server) handleCreateCode(w http.ResponseWriter, r *http.Request) {
	var req codeCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "")
		return
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	rc, err := s.codeUC.Create(r.Context(), req.Code, req.DurationMonths, req.UsageLimit, active)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			writeError(w, http.StatusBadRequest, "invalid code definition", "duration_months and usage_limit must be positive")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to create code", "")
		return
	}
	writeJSON(w, http.StatusCreated, toCodeView(rc))
}

func (s *Server) handleListCodes(w http.ResponseWriter, r *http.Request) {
	codes, err := s.codeUC.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list codes", "")
		return
	}

	views := make([]codeView, 0, len(codes))
	for _, rc := range codes {
		views = append(views, toCodeView(rc))
	}
	response := struct {
		Data []codeView `json:"data"`
	}{Data: views}
	writeJSON(w, http.StatusOK, response)
}
