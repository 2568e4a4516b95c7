package middlewares

import (
	stderrors "errors"
	"net/http"
	"strings"

	jwtv5 "github.com/golang-jwt/jwt/v5"

	"github.com/dropDatabas3/cognitogate/internal/http/errors"
	"github.com/dropDatabas3/cognitogate/internal/jwks"
	"github.com/dropDatabas3/cognitogate/internal/observability/logger"
	"github.com/dropDatabas3/cognitogate/internal/token"
)

// RequireAuth valida Authorization: Bearer <token> y guarda token + claims
// en el contexto. Si el token falta o es inválido, responde 401 con un
// mensaje saneado; el detalle de la falla solo va al log del servidor.
func RequireAuth(verifier *token.Verifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ah := strings.TrimSpace(r.Header.Get("Authorization"))
			if ah == "" || !strings.HasPrefix(strings.ToLower(ah), "bearer ") {
				w.Header().Set("WWW-Authenticate", `Bearer realm="api", error="invalid_token", error_description="missing bearer token"`)
				errors.WriteError(w, errors.ErrTokenMissing)
				return
			}
			raw := strings.TrimSpace(ah[len("Bearer "):])

			claims, err := verifier.Verify(r.Context(), raw)
			if err != nil {
				logger.From(r.Context()).Warn("bearer token rejected",
					logger.Layer("middleware"),
					logger.Op("RequireAuth"),
					logger.Err(err),
				)
				w.Header().Set("WWW-Authenticate", `Bearer realm="api", error="invalid_token"`)
				errors.WriteError(w, authError(err))
				return
			}

			ctx := WithClaims(r.Context(), claims)
			ctx = WithRawToken(ctx, raw)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// authError mapea una falla de verificación a un AppError saneado.
// Nunca propaga el texto del error interno al cliente.
func authError(err error) *errors.AppError {
	switch {
	case stderrors.Is(err, jwks.ErrKeyFetch):
		// No pudimos obtener el key set: problema nuestro, no del caller.
		return errors.ErrServiceUnavailable
	case stderrors.Is(err, jwtv5.ErrTokenExpired):
		return errors.ErrTokenExpired
	default:
		return errors.ErrTokenInvalid
	}
}
