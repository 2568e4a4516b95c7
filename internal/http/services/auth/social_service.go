package auth

import (
	"context"

	"github.com/google/uuid"

	"github.com/dropDatabas3/cognitogate/internal/cognito"
	dto "github.com/dropDatabas3/cognitogate/internal/http/dto/auth"
	"github.com/dropDatabas3/cognitogate/internal/observability/logger"
)

// SocialService maneja el login federado vía hosted UI.
type SocialService interface {
	// Start devuelve la URL de authorize para el IdP dado y el state generado.
	Start(ctx context.Context, identityProvider string) (authorizeURL, state string)
	// Exchange canjea el authorization code del callback por tokens.
	Exchange(ctx context.Context, code string) (*dto.TokenResponse, error)
}

// SocialDeps contiene las dependencias del social service.
type SocialDeps struct {
	HostedUI *cognito.HostedUI
}

type socialService struct {
	deps SocialDeps
}

// NewSocialService crea un nuevo social service.
func NewSocialService(deps SocialDeps) SocialService {
	return &socialService{deps: deps}
}

func (s *socialService) Start(ctx context.Context, identityProvider string) (string, string) {
	state := uuid.NewString()
	logger.From(ctx).Info("federated login started",
		logger.Layer("service"),
		logger.Component("auth.social"),
		logger.String("identity_provider", identityProvider),
	)
	return s.deps.HostedUI.AuthorizeURL(identityProvider, state), state
}

func (s *socialService) Exchange(ctx context.Context, code string) (*dto.TokenResponse, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.social"),
		logger.Op("Exchange"),
	)

	if code == "" {
		return nil, ErrMissingCode
	}

	res, err := s.deps.HostedUI.ExchangeCode(ctx, code)
	if err != nil {
		// *cognito.ExchangeError pasa tal cual: el controller decide el
		// status según el rechazo del hosted UI.
		log.Warn("code exchange failed", logger.Err(err))
		return nil, err
	}

	log.Info("code exchange ok")
	return tokenResponse(res), nil
}
