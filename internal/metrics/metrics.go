// Package metrics expone los collectors Prometheus del gateway.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ProviderRequests cuenta llamadas al identity provider por operación y resultado.
	// result: ok | rejected | error
	ProviderRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cognitogate_provider_requests_total",
		Help: "Identity provider API calls by operation and result.",
	}, []string{"op", "result"})

	// ProviderLatency mide la latencia de las llamadas al provider.
	ProviderLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cognitogate_provider_request_seconds",
		Help:    "Identity provider API call latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})

	// TokenVerifications cuenta verificaciones de bearer tokens por resultado.
	// result: ok | malformed | unknown_kid | bad_signature | claim_mismatch | key_fetch
	TokenVerifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cognitogate_token_verifications_total",
		Help: "Bearer token verifications by result.",
	}, []string{"result"})

	// JWKSFetches cuenta fetches del key set remoto.
	JWKSFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cognitogate_jwks_fetches_total",
		Help: "JWKS endpoint fetches by result.",
	}, []string{"result"})

	// Logins cuenta intentos de login por resultado.
	// result: ok | bad_credentials | not_confirmed | rejected | error
	Logins = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cognitogate_logins_total",
		Help: "Login attempts by result.",
	}, []string{"result"})
)
