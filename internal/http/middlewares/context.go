package middlewares

import (
	"context"

	"github.com/dropDatabas3/cognitogate/internal/token"
)

type ctxKey string

const (
	// ctxClaimsKey guarda las claims verificadas del bearer token
	ctxClaimsKey ctxKey = "claims"
	// ctxRawTokenKey guarda el token crudo (GetUser/UpdateUserAttributes lo necesitan)
	ctxRawTokenKey ctxKey = "raw_token"
	// ctxRequestIDKey guarda el request ID
	ctxRequestIDKey ctxKey = "request_id"
)

// WithClaims inyecta claims verificadas en el contexto.
func WithClaims(ctx context.Context, claims token.Claims) context.Context {
	return context.WithValue(ctx, ctxClaimsKey, claims)
}

// WithRawToken inyecta el bearer token crudo en el contexto.
func WithRawToken(ctx context.Context, raw string) context.Context {
	return context.WithValue(ctx, ctxRawTokenKey, raw)
}

func setRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxRequestIDKey, requestID)
}

// GetClaims obtiene las claims verificadas del contexto.
// Retorna nil si el gate no corrió sobre esta ruta.
func GetClaims(ctx context.Context) token.Claims {
	if v := ctx.Value(ctxClaimsKey); v != nil {
		if c, ok := v.(token.Claims); ok {
			return c
		}
	}
	return nil
}

// GetRawToken obtiene el bearer token crudo del contexto.
func GetRawToken(ctx context.Context) string {
	if v := ctx.Value(ctxRawTokenKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// GetRequestID obtiene el request ID del contexto.
func GetRequestID(ctx context.Context) string {
	if v := ctx.Value(ctxRequestIDKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
