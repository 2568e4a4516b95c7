package controllers

import (
	"net/http"

	"go.uber.org/zap"

	dto "github.com/dropDatabas3/cognitogate/internal/http/dto/auth"
	httperrors "github.com/dropDatabas3/cognitogate/internal/http/errors"
	"github.com/dropDatabas3/cognitogate/internal/http/helpers"
	svc "github.com/dropDatabas3/cognitogate/internal/http/services/auth"
	"github.com/dropDatabas3/cognitogate/internal/observability/logger"
)

// PasswordController handles POST /auth/forgot-password and POST /auth/reset-password.
type PasswordController struct {
	service svc.PasswordService
}

// NewPasswordController creates a new password controller.
func NewPasswordController(service svc.PasswordService) *PasswordController {
	return &PasswordController{service: service}
}

// Forgot starts the password reset flow. The response shape is identical
// whether or not the account exists.
func (c *PasswordController) Forgot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("PasswordController.Forgot"))

	var req dto.ForgotPasswordRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	resp, err := c.service.Forgot(ctx, req)
	if err != nil {
		c.handleError(w, err, log)
		return
	}

	helpers.WriteJSON(w, http.StatusOK, resp)
}

// Reset completes the reset with code + new password.
func (c *PasswordController) Reset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("PasswordController.Reset"))

	var req dto.ResetPasswordRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	if err := c.service.Reset(ctx, req); err != nil {
		c.handleError(w, err, log)
		return
	}

	helpers.WriteJSON(w, http.StatusOK, dto.MessageResponse{Message: "Password updated"})
}

// handleError maps service errors to HTTP responses.
func (c *PasswordController) handleError(w http.ResponseWriter, err error, log *zap.Logger) {
	if appErr := mapCommonError(err); appErr != nil {
		httperrors.WriteError(w, appErr)
		return
	}
	log.Error("password operation failed", logger.Err(err))
	httperrors.WriteError(w, infrastructureError(err))
}
