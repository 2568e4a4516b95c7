package controllers

import (
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/dropDatabas3/cognitogate/internal/cognito"
	httperrors "github.com/dropDatabas3/cognitogate/internal/http/errors"
	"github.com/dropDatabas3/cognitogate/internal/http/helpers"
	svc "github.com/dropDatabas3/cognitogate/internal/http/services/auth"
	"github.com/dropDatabas3/cognitogate/internal/observability/logger"
)

const (
	stateCookieName = "oauth_state"
	stateCookieTTL  = 10 * time.Minute
)

// SocialController handles the federated login flow:
// GET /auth/google/start and GET /auth/google/callback.
type SocialController struct {
	service svc.SocialService
}

// NewSocialController creates a new social controller.
func NewSocialController(service svc.SocialService) *SocialController {
	return &SocialController{service: service}
}

// GoogleStart redirects the browser to the hosted UI authorize endpoint.
// The generated state travels in an HttpOnly cookie and is checked on callback.
func (c *SocialController) GoogleStart(w http.ResponseWriter, r *http.Request) {
	authorizeURL, state := c.service.Start(r.Context(), "Google")

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/auth/google",
		MaxAge:   int(stateCookieTTL.Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, authorizeURL, http.StatusFound)
}

// GoogleCallback validates the state and exchanges the authorization code.
func (c *SocialController) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("SocialController.GoogleCallback"))

	q := r.URL.Query()
	if errCode := q.Get("error"); errCode != "" {
		// El IdP abortó el flujo (acceso denegado, scope rechazado, etc).
		log.Info("federated login denied", zap.String("provider_error", errCode))
		httperrors.WriteError(w, httperrors.ErrProviderRejected.WithDetail(errCode))
		return
	}

	cookie, err := r.Cookie(stateCookieName)
	if err != nil || cookie.Value == "" || cookie.Value != q.Get("state") {
		log.Warn("state mismatch on callback")
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("state mismatch"))
		return
	}
	clearStateCookie(w)

	resp, err := c.service.Exchange(ctx, q.Get("code"))
	if err != nil {
		c.handleError(w, err, log)
		return
	}

	helpers.WriteJSON(w, http.StatusOK, resp)
}

// handleError maps service errors to HTTP responses.
func (c *SocialController) handleError(w http.ResponseWriter, err error, log *zap.Logger) {
	var exchangeErr *cognito.ExchangeError
	switch {
	case errors.Is(err, svc.ErrMissingCode):
		httperrors.WriteError(w, httperrors.ErrMissingCode)
	case errors.As(err, &exchangeErr):
		// Canje rechazado: code usado, expirado o redirect_uri distinto.
		// El body del hosted UI va al log, nunca al caller.
		log.Warn("code exchange rejected", zap.Int("status", exchangeErr.Status), zap.String("body", exchangeErr.Body))
		httperrors.WriteError(w, httperrors.ErrProviderRejected)
	default:
		log.Error("federated login failed", logger.Err(err))
		httperrors.WriteError(w, infrastructureError(err))
	}
}

func clearStateCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    "",
		Path:     "/auth/google",
		MaxAge:   -1,
		HttpOnly: true,
	})
}
