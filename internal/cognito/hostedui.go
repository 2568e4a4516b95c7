package cognito

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HostedUI habla con el dominio del hosted UI de Cognito para el login
// federado (authorization code). Es el broker del IdP externo (ej. Google):
// nosotros solo armamos la URL de authorize y canjeamos el code.
type HostedUI struct {
	domain       string
	clientID     string
	clientSecret string
	redirectURL  string
	http         *http.Client
}

// HostedUIConfig configura el flujo federado.
type HostedUIConfig struct {
	// Domain con esquema, sin slash final.
	Domain       string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Timeout      time.Duration
	HTTPClient   *http.Client
}

// NewHostedUI crea el cliente del hosted UI.
func NewHostedUI(cfg HostedUIConfig) *HostedUI {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}
	return &HostedUI{
		domain:       strings.TrimRight(cfg.Domain, "/"),
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		redirectURL:  cfg.RedirectURL,
		http:         hc,
	}
}

// AuthorizeURL construye la URL de /oauth2/authorize para iniciar el login
// con el identity provider dado ("Google").
func (h *HostedUI) AuthorizeURL(identityProvider, state string) string {
	q := url.Values{}
	q.Set("client_id", h.clientID)
	q.Set("response_type", "code")
	q.Set("scope", "openid email")
	q.Set("redirect_uri", h.redirectURL)
	q.Set("identity_provider", identityProvider)
	if state != "" {
		q.Set("state", state)
	}
	return h.domain + "/oauth2/authorize?" + q.Encode()
}

// ExchangeCode canjea el authorization code por tokens en /oauth2/token.
// Un status no-2xx vuelve como *ExchangeError con el body del provider.
func (h *HostedUI) ExchangeCode(ctx context.Context, code string) (*AuthResult, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("client_id", h.clientID)
	form.Set("client_secret", h.clientSecret)
	form.Set("redirect_uri", h.redirectURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.domain+"/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("hostedui: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := h.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("hostedui: exchange: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
		return nil, &ExchangeError{Status: resp.StatusCode, Body: string(raw)}
	}

	var tr struct {
		AccessToken  string `json:"access_token"`
		IDToken      string `json:"id_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int    `json:"expires_in"`
		TokenType    string `json:"token_type"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, fmt.Errorf("hostedui: decode: %w", err)
	}
	return &AuthResult{
		AccessToken:  tr.AccessToken,
		IDToken:      tr.IDToken,
		RefreshToken: tr.RefreshToken,
		ExpiresIn:    tr.ExpiresIn,
		TokenType:    tr.TokenType,
	}, nil
}
