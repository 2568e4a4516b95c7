// Package router arma el árbol de rutas del gateway.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dropDatabas3/cognitogate/internal/http/controllers"
	httperrors "github.com/dropDatabas3/cognitogate/internal/http/errors"
	mw "github.com/dropDatabas3/cognitogate/internal/http/middlewares"
	"github.com/dropDatabas3/cognitogate/internal/rate"
	"github.com/dropDatabas3/cognitogate/internal/token"
)

// Deps son las dependencias del router.
type Deps struct {
	Controllers *controllers.Controllers
	Verifier    *token.Verifier

	CORSAllowedOrigins []string

	// Limiters por ruta sensible. Nil ⇒ sin límite.
	LoginLimiter  rate.Limiter
	ForgotLimiter rate.Limiter
}

// New construye el http.Handler raíz con la cadena global de middlewares.
func New(d Deps) http.Handler {
	r := chi.NewRouter()

	// La cadena global corre para todas las rutas, /metrics incluida.
	r.Use(
		mw.WithRecover(),
		mw.WithRequestID(),
		mw.WithSecurityHeaders(),
		mw.WithCORS(d.CORSAllowedOrigins),
		mw.WithLogging(),
	)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrRouteNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
	})

	c := d.Controllers

	// Rutas públicas. Todo lo que emite o toca credenciales va con no-store.
	r.Group(func(r chi.Router) {
		r.Use(mw.WithNoStore())

		r.Post("/auth/signup", c.Registration.Signup)
		r.Post("/auth/confirm", c.Registration.Confirm)

		r.With(mw.WithRateLimit(d.LoginLimiter, mw.IPPathRateKey)).
			Post("/auth/login", c.Session.Login)
		r.Post("/auth/refresh", c.Session.Refresh)

		r.With(mw.WithRateLimit(d.ForgotLimiter, mw.IPPathRateKey)).
			Post("/auth/forgot-password", c.Password.Forgot)
		r.Post("/auth/reset-password", c.Password.Reset)

		r.Get("/auth/google/start", c.Social.GoogleStart)
		r.Get("/auth/google/callback", c.Social.GoogleCallback)
	})

	// Rutas protegidas por el gate.
	r.Group(func(r chi.Router) {
		r.Use(mw.WithNoStore(), mw.RequireAuth(d.Verifier))

		r.Get("/me", c.Session.Me)
		r.Get("/profile", c.Profile.Get)
		r.Post("/profile", c.Profile.Update)
	})

	// Operacionales.
	r.Get("/healthz", c.Health.Healthz)
	r.Get("/readyz", c.Health.Readyz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}
