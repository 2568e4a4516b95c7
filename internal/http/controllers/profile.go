package controllers

import (
	"net/http"

	"go.uber.org/zap"

	dto "github.com/dropDatabas3/cognitogate/internal/http/dto/auth"
	httperrors "github.com/dropDatabas3/cognitogate/internal/http/errors"
	"github.com/dropDatabas3/cognitogate/internal/http/helpers"
	mw "github.com/dropDatabas3/cognitogate/internal/http/middlewares"
	svc "github.com/dropDatabas3/cognitogate/internal/http/services/auth"
	"github.com/dropDatabas3/cognitogate/internal/observability/logger"
)

// ProfileController handles GET /profile and POST /profile.
// Both run behind RequireAuth: the raw token in context is already verified.
type ProfileController struct {
	service svc.ProfileService
}

// NewProfileController creates a new profile controller.
func NewProfileController(service svc.ProfileService) *ProfileController {
	return &ProfileController{service: service}
}

// Get returns the pool attributes of the authenticated user.
func (c *ProfileController) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("ProfileController.Get"))

	raw := mw.GetRawToken(ctx)
	if raw == "" {
		httperrors.WriteError(w, httperrors.ErrUnauthorized)
		return
	}

	resp, err := c.service.Get(ctx, raw)
	if err != nil {
		c.handleError(w, err, log)
		return
	}

	helpers.WriteJSON(w, http.StatusOK, resp)
}

// Update writes the allowed attributes from the body and returns the
// refreshed profile.
func (c *ProfileController) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("ProfileController.Update"))

	raw := mw.GetRawToken(ctx)
	if raw == "" {
		httperrors.WriteError(w, httperrors.ErrUnauthorized)
		return
	}

	var req dto.ProfileUpdateRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	resp, err := c.service.Update(ctx, raw, req)
	if err != nil {
		c.handleError(w, err, log)
		return
	}

	helpers.WriteJSON(w, http.StatusOK, resp)
}

// handleError maps service errors to HTTP responses.
func (c *ProfileController) handleError(w http.ResponseWriter, err error, log *zap.Logger) {
	if appErr := mapCommonError(err); appErr != nil {
		httperrors.WriteError(w, appErr)
		return
	}
	log.Error("profile operation failed", logger.Err(err))
	httperrors.WriteError(w, infrastructureError(err))
}
