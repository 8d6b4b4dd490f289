package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gatekey/gatekey/internal/audit"
	"github.com/gatekey/gatekey/internal/auth"
	"github.com/gatekey/gatekey/internal/handler/dto"
	"github.com/gatekey/gatekey/internal/middleware"
	"github.com/gatekey/gatekey/internal/model"
	"github.com/gatekey/gatekey/internal/service"
)

// AuthHandler handles HTTP requests for registration, login and
// session lifecycle.
type AuthHandler struct {
	svc    *service.AuthService
	logger *slog.Logger
	audit  *audit.Publisher
}

// NewAuthHandler creates a new AuthHandler. The audit publisher is
// optional; pass nil to disable the audit trail.
func NewAuthHandler(svc *service.AuthService, logger *slog.Logger, publisher *audit.Publisher) *AuthHandler {
	return &AuthHandler{
		svc:    svc,
		logger: logger,
		audit:  publisher,
	}
}

// Register handles POST /api/v1/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if err := middleware.ValidateEmail(req.Email); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
		return
	}
	if err := middleware.ValidatePassword(req.Password); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
		return
	}
	if err := middleware.ValidateName(req.Name); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
		return
	}

	result, err := h.svc.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.logger.Info("profile_registered",
		"profile_id", result.Profile.ID,
		"request_id", middleware.GetRequestID(r.Context()),
	)
	h.recordAuthEvent(r, model.AuthEventRegistered, result.Profile.ID, req.Email)

	writeJSON(w, http.StatusCreated, dto.ToAuthResponse(result.Profile, result.Token))
}

// Login handles POST /api/v1/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	result, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			h.recordAuthEvent(r, model.AuthEventLoginFailed, "", req.Email)
		}
		h.handleServiceError(w, r, err)
		return
	}

	h.logger.Info("login_succeeded",
		"profile_id", result.Profile.ID,
		"request_id", middleware.GetRequestID(r.Context()),
	)
	h.recordAuthEvent(r, model.AuthEventLoginSucceeded, result.Profile.ID, req.Email)

	writeJSON(w, http.StatusOK, dto.ToAuthResponse(result.Profile, result.Token))
}

// Logout handles POST /api/v1/auth/logout.
// Requires the session middleware; the token being revoked is the one
// that authenticated the request.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := middleware.BearerToken(r)

	if err := h.svc.Logout(r.Context(), token); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	userID := auth.UserIDFromContext(r.Context())
	h.logger.Info("session_revoked",
		"profile_id", userID,
		"request_id", middleware.GetRequestID(r.Context()),
	)
	if h.audit != nil {
		// Best effort: the audit trail keys on the email hash, which
		// means a profile lookup here. A failed lookup only drops the
		// audit event, never the logout.
		if profile, err := h.svc.Profile(r.Context(), userID); err == nil {
			h.recordAuthEvent(r, model.AuthEventSessionRevoked, userID, profile.Email)
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

// Session handles GET /api/v1/auth/session.
// Requires the session middleware.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	session := auth.MustSessionFromContext(r.Context())
	writeJSON(w, http.StatusOK, dto.ToSessionResponse(session))
}

// handleServiceError maps service errors to HTTP responses.
// Messages stay generic; internal error detail is logged, never sent.
func (h *AuthHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", "Invalid input")
	case errors.Is(err, service.ErrEmailTaken):
		writeError(w, http.StatusConflict, "EMAIL_TAKEN", "Email already registered")
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid credentials")
	case errors.Is(err, service.ErrSessionInvalid):
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or missing session token")
	case errors.Is(err, service.ErrStoreUnavailable):
		h.logger.Error("store_unavailable",
			"error", err,
			"request_id", middleware.GetRequestID(r.Context()),
		)
		writeError(w, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "Service temporarily unavailable")
	default:
		h.logger.Error("internal_error",
			"error", err,
			"request_id", middleware.GetRequestID(r.Context()),
		)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}

// recordAuthEvent publishes an audit event without blocking the request.
func (h *AuthHandler) recordAuthEvent(r *http.Request, eventType, profileID, email string) {
	if h.audit == nil {
		return
	}
	h.audit.PublishAsync(audit.AuthEventPayload{
		Type:       eventType,
		ProfileID:  profileID,
		EmailHash:  audit.HashEmail(email),
		IPHash:     audit.HashClientIP(middleware.ClientIP(r)),
		RequestID:  middleware.GetRequestID(r.Context()),
		OccurredAt: time.Now().UnixMilli(),
	})
}
