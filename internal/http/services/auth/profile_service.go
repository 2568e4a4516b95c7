package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/dropDatabas3/cognitogate/internal/cognito"
	dto "github.com/dropDatabas3/cognitogate/internal/http/dto/auth"
	"github.com/dropDatabas3/cognitogate/internal/observability/logger"
)

// profileCacheTTL es la ventana del micro-cache de GetUser. Corta a propósito:
// solo amortigua ráfagas, un update la invalida igual.
const profileCacheTTL = 30 * time.Second

// profileAllowedKeys son los únicos atributos que un update puede tocar.
// Todo lo demás del body se descarta en silencio.
var profileAllowedKeys = map[string]bool{
	"name":         true,
	"given_name":   true,
	"family_name":  true,
	"phone_number": true,
	"address":      true,
	"custom:role":  true,
}

// ProfileService lee y actualiza los atributos del usuario autenticado.
type ProfileService interface {
	Get(ctx context.Context, accessToken string) (*dto.ProfileResponse, error)
	Update(ctx context.Context, accessToken string, in dto.ProfileUpdateRequest) (*dto.ProfileResponse, error)
}

// ProfileDeps contiene las dependencias del profile service.
type ProfileDeps struct {
	Client *cognito.Client
}

type profileService struct {
	deps  ProfileDeps
	cache *gocache.Cache
}

// NewProfileService crea un nuevo profile service.
func NewProfileService(deps ProfileDeps) ProfileService {
	return &profileService{
		deps:  deps,
		cache: gocache.New(profileCacheTTL, 2*profileCacheTTL),
	}
}

func (s *profileService) Get(ctx context.Context, accessToken string) (*dto.ProfileResponse, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.profile"),
		logger.Op("Get"),
	)

	key := cacheKey(accessToken)
	if v, ok := s.cache.Get(key); ok {
		return v.(*dto.ProfileResponse), nil
	}

	u, err := s.deps.Client.GetUser(ctx, accessToken)
	if err != nil {
		log.Warn("get user failed", logger.Err(err))
		return nil, providerRejected(err)
	}

	out := &dto.ProfileResponse{Attributes: u.Attributes}
	s.cache.SetDefault(key, out)
	return out, nil
}

func (s *profileService) Update(ctx context.Context, accessToken string, in dto.ProfileUpdateRequest) (*dto.ProfileResponse, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.profile"),
		logger.Op("Update"),
	)

	attrs := make(map[string]string)
	for k, v := range in {
		if !profileAllowedKeys[k] {
			continue
		}
		if sv, ok := v.(string); ok {
			attrs[k] = sv
		}
	}
	if len(attrs) == 0 {
		return nil, ErrMissingFields
	}

	if err := s.deps.Client.UpdateUserAttributes(ctx, accessToken, attrs); err != nil {
		log.Warn("update attributes failed", logger.Err(err))
		return nil, providerRejected(err)
	}
	s.cache.Delete(cacheKey(accessToken))

	log.Info("profile updated", logger.Count(len(attrs)))
	return s.Get(ctx, accessToken)
}

// cacheKey es el hash del access token: el token en sí no queda en memoria
// como key del cache.
func cacheKey(accessToken string) string {
	sum := sha256.Sum256([]byte(accessToken))
	return hex.EncodeToString(sum[:])
}
