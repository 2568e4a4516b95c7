package controllers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	dto "github.com/dropDatabas3/cognitogate/internal/http/dto/auth"
	httperrors "github.com/dropDatabas3/cognitogate/internal/http/errors"
	"github.com/dropDatabas3/cognitogate/internal/http/helpers"
	mw "github.com/dropDatabas3/cognitogate/internal/http/middlewares"
	svc "github.com/dropDatabas3/cognitogate/internal/http/services/auth"
	"github.com/dropDatabas3/cognitogate/internal/observability/logger"
)

// SessionController handles POST /auth/login, POST /auth/refresh and GET /me.
type SessionController struct {
	service svc.SessionService
}

// NewSessionController creates a new session controller.
func NewSessionController(service svc.SessionService) *SessionController {
	return &SessionController{service: service}
}

// Login handles password authentication.
func (c *SessionController) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("SessionController.Login"))

	var req dto.LoginRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	resp, err := c.service.Login(ctx, req)
	if err != nil {
		c.handleError(w, err, false, log)
		return
	}

	helpers.WriteJSON(w, http.StatusOK, resp)
}

// Refresh renews tokens from a refresh token.
func (c *SessionController) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("SessionController.Refresh"))

	var req dto.RefreshRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	resp, err := c.service.Refresh(ctx, req)
	if err != nil {
		c.handleError(w, err, true, log)
		return
	}

	helpers.WriteJSON(w, http.StatusOK, resp)
}

// Me returns the verified claims of the bearer token.
// RequireAuth already ran: the claims in context are trusted.
func (c *SessionController) Me(w http.ResponseWriter, r *http.Request) {
	claims := mw.GetClaims(r.Context())
	if claims == nil {
		httperrors.WriteError(w, httperrors.ErrUnauthorized)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.ClaimsResponse{Claims: claims})
}

// handleError maps service errors to HTTP responses. Bad credentials on a
// refresh mean a dead refresh token, not a wrong password.
func (c *SessionController) handleError(w http.ResponseWriter, err error, refresh bool, log *zap.Logger) {
	if appErr := mapCommonError(err); appErr != nil {
		httperrors.WriteError(w, appErr)
		return
	}
	switch {
	case errors.Is(err, svc.ErrBadCredentials):
		if refresh {
			httperrors.WriteError(w, httperrors.ErrInvalidRefreshToken)
		} else {
			httperrors.WriteError(w, httperrors.ErrInvalidCredentials)
		}
	case errors.Is(err, svc.ErrNotConfirmed):
		httperrors.WriteError(w, httperrors.ErrAccountNotVerified)
	default:
		log.Error("session operation failed", logger.Err(err))
		httperrors.WriteError(w, infrastructureError(err))
	}
}
