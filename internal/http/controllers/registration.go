package controllers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	dto "github.com/dropDatabas3/cognitogate/internal/http/dto/auth"
	httperrors "github.com/dropDatabas3/cognitogate/internal/http/errors"
	"github.com/dropDatabas3/cognitogate/internal/http/helpers"
	svc "github.com/dropDatabas3/cognitogate/internal/http/services/auth"
	"github.com/dropDatabas3/cognitogate/internal/observability/logger"
)

// RegistrationController handles POST /auth/signup and POST /auth/confirm.
type RegistrationController struct {
	service svc.RegistrationService
}

// NewRegistrationController creates a new registration controller.
func NewRegistrationController(service svc.RegistrationService) *RegistrationController {
	return &RegistrationController{service: service}
}

// Signup handles account creation requests.
func (c *RegistrationController) Signup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("RegistrationController.Signup"))

	var req dto.SignupRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	resp, err := c.service.Signup(ctx, req)
	if err != nil {
		c.handleError(w, err, log)
		return
	}

	helpers.WriteJSON(w, http.StatusCreated, resp)
}

// Confirm handles account confirmation with the emailed code.
func (c *RegistrationController) Confirm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("RegistrationController.Confirm"))

	var req dto.ConfirmRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	if err := c.service.Confirm(ctx, req); err != nil {
		c.handleError(w, err, log)
		return
	}

	helpers.WriteJSON(w, http.StatusOK, dto.MessageResponse{Message: "Account confirmed"})
}

// handleError maps service errors to HTTP responses.
func (c *RegistrationController) handleError(w http.ResponseWriter, err error, log *zap.Logger) {
	if appErr := mapCommonError(err); appErr != nil {
		httperrors.WriteError(w, appErr)
		return
	}
	if errors.Is(err, svc.ErrAlreadyExists) {
		httperrors.WriteError(w, httperrors.ErrAlreadyExists)
		return
	}
	log.Error("registration failed", logger.Err(err))
	httperrors.WriteError(w, infrastructureError(err))
}
