package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"loan-engine/internal/api/handler/dto"
	"loan-engine/internal/api/middleware"
	"loan-engine/internal/config"
	"loan-engine/internal/domain/loan"
	"loan-engine/internal/pkg/apperrors"
)

const defaultTokenTTL = 24 * time.Hour

type AuthHandler struct {
	cfg    config.AuthConfig
	now    func() time.Time
	logger *slog.Logger
}

func NewAuthHandler(cfg config.AuthConfig, l *slog.Logger) *AuthHandler {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = defaultTokenTTL
	}
	return &AuthHandler{
		cfg:    cfg,
		now:    time.Now,
		logger: l.With("component", "AuthHandler"),
	}
}

// GenerateBearerToken issues a development JWT for the given user and role.
//
// @Summary Generate a JWT bearer token
// @Description Issues an HS256 token whose subject is the username. Role is CUSTOMER, LOAN_OFFICER or ADMIN and defaults to CUSTOMER.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body dto.TokenRequest true "Username and optional role"
// @Success 200 {object} dto.TokenResponse "Token successfully generated"
// @Failure 400 {object} dto.ErrorResponse "Invalid request parameters"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /auth/token [post]
func (h *AuthHandler) GenerateBearerToken(w http.ResponseWriter, r *http.Request) {
	var req dto.TokenRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode token request", "error", err)
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	username := strings.TrimSpace(req.Username)
	if username == "" {
		respondError(w, apperrors.NewValidationError("username", "is required"))
		return
	}

	role := loan.RoleCustomer
	if req.Role != "" {
		role = loan.Role(strings.ToUpper(strings.TrimSpace(req.Role)))
	}
	if !role.IsValid() || role == loan.RoleSystem {
		respondError(w, apperrors.NewValidationError("role", "must be CUSTOMER, LOAN_OFFICER or ADMIN"))
		return
	}

	token, expiresAt, err := middleware.IssueToken(h.cfg.JWTSecret, loan.Caller{Subject: username, Role: role}, h.cfg.TokenTTL, h.now())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to issue token", "error", err)
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInternalServer, err))
		return
	}

	h.logger.InfoContext(r.Context(), "Issued bearer token", "subject", username, "role", role)
	respondJSON(w, http.StatusOK, dto.TokenResponse{Token: "Bearer " + token, ExpiresAt: expiresAt})
}
