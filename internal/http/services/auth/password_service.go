package auth

import (
	"context"
	"errors"

	"github.com/dropDatabas3/cognitogate/internal/cognito"
	dto "github.com/dropDatabas3/cognitogate/internal/http/dto/auth"
	"github.com/dropDatabas3/cognitogate/internal/observability/logger"
)

// resetRequestedMessage es la respuesta única del forgot-password,
// exista o no la cuenta.
const resetRequestedMessage = "If the account exists, a reset code was sent"

// PasswordService maneja el flujo de recuperación de password.
type PasswordService interface {
	Forgot(ctx context.Context, in dto.ForgotPasswordRequest) (*dto.ForgotPasswordResponse, error)
	Reset(ctx context.Context, in dto.ResetPasswordRequest) error
}

// PasswordDeps contiene las dependencias del password service.
type PasswordDeps struct {
	Client *cognito.Client
}

type passwordService struct {
	deps PasswordDeps
}

// NewPasswordService crea un nuevo password service.
func NewPasswordService(deps PasswordDeps) PasswordService {
	return &passwordService{deps: deps}
}

func (s *passwordService) Forgot(ctx context.Context, in dto.ForgotPasswordRequest) (*dto.ForgotPasswordResponse, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.password"),
		logger.Op("Forgot"),
	)

	if in.Email == "" {
		return nil, ErrMissingFields
	}

	_, err := s.deps.Client.ForgotPassword(ctx, in.Email)
	if err != nil {
		// Cuenta inexistente ⇒ misma respuesta que el éxito. Solo queda
		// registro en el log del server.
		if errors.Is(err, cognito.ErrUserNotFound) {
			log.Info("forgot-password for unknown account")
			return &dto.ForgotPasswordResponse{Message: resetRequestedMessage}, nil
		}
		log.Warn("forgot-password failed", logger.Err(err))
		return nil, providerRejected(err)
	}

	log.Info("reset code requested")
	return &dto.ForgotPasswordResponse{Message: resetRequestedMessage}, nil
}

func (s *passwordService) Reset(ctx context.Context, in dto.ResetPasswordRequest) error {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.password"),
		logger.Op("Reset"),
	)

	if in.Email == "" || in.Code == "" || in.NewPassword == "" {
		return ErrMissingFields
	}

	if err := s.deps.Client.ResetPassword(ctx, in.Email, in.Code, in.NewPassword); err != nil {
		log.Info("reset rejected", logger.Err(err))
		return providerRejected(err)
	}

	log.Info("password reset ok")
	return nil
}
