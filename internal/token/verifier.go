// Package token valida los bearer tokens emitidos por el user pool.
package token

import (
	"context"
	"errors"
	"fmt"

	jwtv5 "github.com/golang-jwt/jwt/v5"

	"github.com/dropDatabas3/cognitogate/internal/jwks"
	"github.com/dropDatabas3/cognitogate/internal/metrics"
)

// Fallas tipadas de verificación. El gate las mapea a respuestas saneadas;
// el detalle solo va a logs.
var (
	ErrMalformed        = errors.New("token malformed")
	ErrUnknownKeyID     = errors.New("token key id not in key set")
	ErrSignatureInvalid = errors.New("token signature invalid")
	ErrClaimMismatch    = errors.New("token claims mismatch")
)

// Claims es el payload verificado de un token.
type Claims map[string]any

// Sub retorna el subject, o "" si falta.
func (c Claims) Sub() string { return c.str("sub") }

// TokenUse retorna el claim token_use ("access" | "id"), o "".
func (c Claims) TokenUse() string { return c.str("token_use") }

// Email retorna el claim email, o "".
func (c Claims) Email() string { return c.str("email") }

func (c Claims) str(key string) string {
	if v, ok := c[key].(string); ok {
		return v
	}
	return ""
}

// Verifier valida firma, emisor, audiencia y vigencia contra el key set cacheado.
type Verifier struct {
	keys     *jwks.Cache
	issuer   string
	clientID string
}

// New crea un verifier para el issuer y app client configurados.
func New(keys *jwks.Cache, issuer, clientID string) *Verifier {
	return &Verifier{keys: keys, issuer: issuer, clientID: clientID}
}

// Verify valida un token RS256 del pool y retorna sus claims.
//
// Pasos: kid del header → clave del key set (fetch si está frío) → firma con
// método permitido (solo RS256; "none" y cualquier confusión de algoritmo
// quedan fuera por WithValidMethods) → exp/nbf → iss → audiencia. Nunca
// retorna claims parciales: cualquier paso fallido corta con su error tipado.
func (v *Verifier) Verify(ctx context.Context, raw string) (Claims, error) {
	claims, err := v.verify(ctx, raw)
	metrics.TokenVerifications.WithLabelValues(resultLabel(err)).Inc()
	return claims, err
}

var errUnknownKID = errors.New("unknown kid")

func (v *Verifier) verify(ctx context.Context, raw string) (Claims, error) {
	keyfunc := func(t *jwtv5.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errUnknownKID
		}
		key, ok, err := v.keys.Lookup(ctx, kid)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errUnknownKID
		}
		return key, nil
	}

	tok, err := jwtv5.Parse(raw, keyfunc,
		jwtv5.WithValidMethods([]string{"RS256"}),
		jwtv5.WithExpirationRequired(),
	)
	if err != nil {
		return nil, mapParseError(err)
	}

	mc, ok := tok.Claims.(jwtv5.MapClaims)
	if !ok {
		return nil, ErrMalformed
	}
	claims := Claims(mc)

	// iss debe ser exactamente la URL del pool.
	if iss, _ := mc["iss"].(string); iss != v.issuer {
		return nil, fmt.Errorf("%w: issuer %q", ErrClaimMismatch, iss)
	}

	// Audiencia: los ID tokens la traen en aud; los access tokens de Cognito
	// no llevan aud y la ponen en client_id. Cualquiera de las dos debe
	// coincidir con el app client configurado.
	if !v.audienceOK(mc) {
		return nil, fmt.Errorf("%w: audience", ErrClaimMismatch)
	}

	if claims.Sub() == "" || claims.TokenUse() == "" {
		return nil, fmt.Errorf("%w: missing sub or token_use", ErrClaimMismatch)
	}

	return claims, nil
}

func (v *Verifier) audienceOK(mc jwtv5.MapClaims) bool {
	if aud, err := mc.GetAudience(); err == nil && len(aud) > 0 {
		for _, a := range aud {
			if a == v.clientID {
				return true
			}
		}
		return false
	}
	cid, _ := mc["client_id"].(string)
	return cid == v.clientID
}

func mapParseError(err error) error {
	switch {
	case errors.Is(err, jwks.ErrKeyFetch):
		// Falla de infraestructura, no un token inválido.
		return err
	case errors.Is(err, errUnknownKID):
		return fmt.Errorf("%w: %w", ErrUnknownKeyID, err)
	case errors.Is(err, jwtv5.ErrTokenMalformed):
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	case errors.Is(err, jwtv5.ErrTokenExpired),
		errors.Is(err, jwtv5.ErrTokenNotValidYet),
		errors.Is(err, jwtv5.ErrTokenRequiredClaimMissing):
		return fmt.Errorf("%w: %w", ErrClaimMismatch, err)
	default:
		return fmt.Errorf("%w: %w", ErrSignatureInvalid, err)
	}
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrMalformed):
		return "malformed"
	case errors.Is(err, ErrUnknownKeyID):
		return "unknown_kid"
	case errors.Is(err, ErrSignatureInvalid):
		return "bad_signature"
	case errors.Is(err, ErrClaimMismatch):
		return "claim_mismatch"
	default:
		return "key_fetch"
	}
}
