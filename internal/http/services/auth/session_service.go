package auth

import (
	"context"
	"errors"

	"github.com/dropDatabas3/cognitogate/internal/cognito"
	dto "github.com/dropDatabas3/cognitogate/internal/http/dto/auth"
	"github.com/dropDatabas3/cognitogate/internal/metrics"
	"github.com/dropDatabas3/cognitogate/internal/observability/logger"
)

// SessionService maneja emisión y renovación de tokens.
type SessionService interface {
	Login(ctx context.Context, in dto.LoginRequest) (*dto.TokenResponse, error)
	Refresh(ctx context.Context, in dto.RefreshRequest) (*dto.TokenResponse, error)
}

// SessionDeps contiene las dependencias del session service.
type SessionDeps struct {
	Client *cognito.Client
}

type sessionService struct {
	deps SessionDeps
}

// NewSessionService crea un nuevo session service.
func NewSessionService(deps SessionDeps) SessionService {
	return &sessionService{deps: deps}
}

func (s *sessionService) Login(ctx context.Context, in dto.LoginRequest) (*dto.TokenResponse, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.session"),
		logger.Op("Login"),
	)

	if in.Email == "" || in.Password == "" {
		return nil, ErrMissingFields
	}

	res, err := s.deps.Client.Login(ctx, in.Email, in.Password)
	if err != nil {
		switch {
		case errors.Is(err, cognito.ErrUserNotConfirmed):
			metrics.Logins.WithLabelValues("not_confirmed").Inc()
			log.Info("login rejected: account not confirmed")
			return nil, ErrNotConfirmed
		case errors.Is(err, cognito.ErrNotAuthorized), errors.Is(err, cognito.ErrUserNotFound):
			// Usuario inexistente y password mala colapsan en la misma
			// respuesta: no enumerar cuentas.
			metrics.Logins.WithLabelValues("bad_credentials").Inc()
			log.Info("login rejected: bad credentials")
			return nil, ErrBadCredentials
		}
		metrics.Logins.WithLabelValues("error").Inc()
		log.Warn("login failed", logger.Err(err))
		return nil, providerRejected(err)
	}

	metrics.Logins.WithLabelValues("ok").Inc()
	log.Info("login ok")
	return tokenResponse(res), nil
}

func (s *sessionService) Refresh(ctx context.Context, in dto.RefreshRequest) (*dto.TokenResponse, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.session"),
		logger.Op("Refresh"),
	)

	if in.Email == "" || in.RefreshToken == "" {
		return nil, ErrMissingFields
	}

	res, err := s.deps.Client.Refresh(ctx, in.Email, in.RefreshToken)
	if err != nil {
		// Refresh token revocado, expirado o de otro cliente.
		if errors.Is(err, cognito.ErrNotAuthorized) {
			log.Info("refresh rejected")
			return nil, ErrBadCredentials
		}
		log.Warn("refresh failed", logger.Err(err))
		return nil, providerRejected(err)
	}

	log.Info("refresh ok")
	return tokenResponse(res), nil
}

func tokenResponse(r *cognito.AuthResult) *dto.TokenResponse {
	return &dto.TokenResponse{
		AccessToken:  r.AccessToken,
		IDToken:      r.IDToken,
		RefreshToken: r.RefreshToken,
		ExpiresIn:    r.ExpiresIn,
		TokenType:    r.TokenType,
	}
}
