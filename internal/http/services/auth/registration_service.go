package auth

import (
	"context"
	"errors"

	"github.com/dropDatabas3/cognitogate/internal/cognito"
	dto "github.com/dropDatabas3/cognitogate/internal/http/dto/auth"
	"github.com/dropDatabas3/cognitogate/internal/observability/logger"
)

// RegistrationService maneja alta y confirmación de cuentas.
type RegistrationService interface {
	Signup(ctx context.Context, in dto.SignupRequest) (*dto.SignupResponse, error)
	Confirm(ctx context.Context, in dto.ConfirmRequest) error
}

// RegistrationDeps contiene las dependencias del registration service.
type RegistrationDeps struct {
	Client *cognito.Client
}

type registrationService struct {
	deps RegistrationDeps
}

// NewRegistrationService crea un nuevo registration service.
func NewRegistrationService(deps RegistrationDeps) RegistrationService {
	return &registrationService{deps: deps}
}

func (s *registrationService) Signup(ctx context.Context, in dto.SignupRequest) (*dto.SignupResponse, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.registration"),
		logger.Op("Signup"),
	)

	// Validación local: sin red si falta algo.
	if in.Email == "" || in.Password == "" {
		return nil, ErrMissingFields
	}

	resp, err := s.deps.Client.SignUp(ctx, in.Email, in.Password)
	if err != nil {
		if errors.Is(err, cognito.ErrUserExists) {
			log.Info("signup rejected: username taken")
			return nil, ErrAlreadyExists
		}
		log.Warn("signup failed", logger.Err(err))
		return nil, providerRejected(err)
	}

	log.Info("signup accepted", logger.UserSub(resp.UserSub))
	out := &dto.SignupResponse{
		Message:       "Signup ok",
		UserSub:       resp.UserSub,
		UserConfirmed: resp.UserConfirmed,
	}
	if cd := resp.CodeDelivery; cd != nil {
		out.CodeDelivery = &dto.CodeDelivery{
			Destination: cd.Destination,
			Medium:      cd.Medium,
			Attribute:   cd.Attribute,
		}
	}
	return out, nil
}

func (s *registrationService) Confirm(ctx context.Context, in dto.ConfirmRequest) error {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.registration"),
		logger.Op("Confirm"),
	)

	if in.Email == "" || in.Code == "" {
		return ErrMissingFields
	}

	if err := s.deps.Client.ConfirmSignUp(ctx, in.Email, in.Code); err != nil {
		// Código malo/expirado y cuenta ya confirmada caen acá; el provider
		// explica el caso en su mensaje.
		log.Info("confirm rejected", logger.Err(err))
		return providerRejected(err)
	}

	log.Info("account confirmed")
	return nil
}
