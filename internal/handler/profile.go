package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gatekey/gatekey/internal/auth"
	"github.com/gatekey/gatekey/internal/handler/dto"
	"github.com/gatekey/gatekey/internal/middleware"
	"github.com/gatekey/gatekey/internal/service"
)

// ProfileHandler handles HTTP requests for the authenticated profile.
// All routes require the session middleware.
type ProfileHandler struct {
	svc    *service.AuthService
	logger *slog.Logger
	errors *AuthHandler
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(svc *service.AuthService, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{
		svc:    svc,
		logger: logger,
		errors: NewAuthHandler(svc, logger, nil),
	}
}

// Get handles GET /api/v1/profile.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	session := auth.MustSessionFromContext(r.Context())

	view, err := h.svc.Profile(r.Context(), session.UserID)
	if err != nil {
		h.errors.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToProfileResponse(view))
}

// Update handles PATCH /api/v1/profile.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	session := auth.MustSessionFromContext(r.Context())

	var req dto.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if err := middleware.ValidateName(req.Name); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
		return
	}

	view, err := h.svc.UpdateName(r.Context(), session.UserID, req.Name)
	if err != nil {
		h.errors.handleServiceError(w, r, err)
		return
	}

	h.logger.Info("profile_updated",
		"profile_id", session.UserID,
		"request_id", middleware.GetRequestID(r.Context()),
	)

	writeJSON(w, http.StatusOK, dto.ToProfileResponse(view))
}
