// Package cognito implementa el cliente del user pool de AWS Cognito.
//
// Habla el protocolo JSON 1.1 del API regional (X-Amz-Target). Todas las
// operaciones que expone son las de "app client": van sin firmar, autenticadas
// por ClientId + SecretHash (más el access token donde aplica).
package cognito

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dropDatabas3/cognitogate/internal/metrics"
)

const targetPrefix = "AWSCognitoIdentityProviderService."

// Config configura el cliente del provider.
type Config struct {
	Region       string
	ClientID     string
	ClientSecret string

	// Endpoint pisa la URL regional derivada. Solo para tests.
	Endpoint string

	// Timeout por llamada. Default 10s.
	Timeout time.Duration

	// HTTPClient permite inyectar un cliente propio. Default uno con Timeout.
	HTTPClient *http.Client
}

// Client es el cliente HTTP del identity provider.
// Es seguro para uso concurrente.
type Client struct {
	endpoint     string
	clientID     string
	clientSecret string
	http         *http.Client
}

// New crea un cliente para el user pool configurado.
func New(cfg Config) *Client {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://cognito-idp.%s.amazonaws.com/", cfg.Region)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{
		endpoint:     endpoint,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		http:         hc,
	}
}

// =================================================================================
// TIPOS DE RESULTADO
// =================================================================================

// CodeDelivery describe a dónde mandó el provider un código de verificación.
type CodeDelivery struct {
	Destination string `json:"Destination"`
	Medium      string `json:"DeliveryMedium"`
	Attribute   string `json:"AttributeName"`
}

// SignUpResult es el resultado de un alta de usuario.
type SignUpResult struct {
	UserSub       string
	UserConfirmed bool
	CodeDelivery  *CodeDelivery
}

// AuthResult agrupa los tokens emitidos por el provider.
// RefreshToken viene vacío en el flujo de refresh (Cognito no rota el refresh).
type AuthResult struct {
	AccessToken  string
	IDToken      string
	RefreshToken string
	ExpiresIn    int
	TokenType    string
}

// User son los atributos del usuario tal como los guarda el pool.
type User struct {
	Username   string
	Attributes map[string]string
}

// =================================================================================
// OPERACIONES
// =================================================================================

// SignUp registra un usuario nuevo con email como username.
// Falla con ErrUserExists si el username ya está tomado.
func (c *Client) SignUp(ctx context.Context, email, password string) (*SignUpResult, error) {
	in := map[string]any{
		"ClientId":   c.clientID,
		"SecretHash": c.secretHash(email),
		"Username":   email,
		"Password":   password,
		"UserAttributes": []map[string]string{
			{"Name": "email", "Value": email},
		},
	}
	var out struct {
		UserSub             string        `json:"UserSub"`
		UserConfirmed       bool          `json:"UserConfirmed"`
		CodeDeliveryDetails *CodeDelivery `json:"CodeDeliveryDetails"`
	}
	if err := c.call(ctx, "SignUp", in, &out); err != nil {
		return nil, err
	}
	return &SignUpResult{
		UserSub:       out.UserSub,
		UserConfirmed: out.UserConfirmed,
		CodeDelivery:  out.CodeDeliveryDetails,
	}, nil
}

// ConfirmSignUp confirma la cuenta con el código recibido.
// Un código inválido/expirado o una cuenta ya confirmada vuelven como *APIError.
func (c *Client) ConfirmSignUp(ctx context.Context, email, code string) error {
	in := map[string]any{
		"ClientId":         c.clientID,
		"SecretHash":       c.secretHash(email),
		"Username":         email,
		"ConfirmationCode": code,
	}
	return c.call(ctx, "ConfirmSignUp", in, nil)
}

// Login ejecuta el flujo USER_PASSWORD_AUTH.
// ErrNotAuthorized ⇒ credenciales malas; ErrUserNotConfirmed ⇒ falta confirmar.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	in := map[string]any{
		"ClientId": c.clientID,
		"AuthFlow": "USER_PASSWORD_AUTH",
		"AuthParameters": map[string]string{
			"USERNAME":    email,
			"PASSWORD":    password,
			"SECRET_HASH": c.secretHash(email),
		},
	}
	return c.initiateAuth(ctx, in)
}

// Refresh ejecuta el flujo REFRESH_TOKEN_AUTH.
// El SECRET_HASH se calcula con el username original (el email), no con el sub.
func (c *Client) Refresh(ctx context.Context, email, refreshToken string) (*AuthResult, error) {
	in := map[string]any{
		"ClientId": c.clientID,
		"AuthFlow": "REFRESH_TOKEN_AUTH",
		"AuthParameters": map[string]string{
			"REFRESH_TOKEN": refreshToken,
			"SECRET_HASH":   c.secretHash(email),
		},
	}
	return c.initiateAuth(ctx, in)
}

func (c *Client) initiateAuth(ctx context.Context, in map[string]any) (*AuthResult, error) {
	var out struct {
		AuthenticationResult struct {
			AccessToken  string `json:"AccessToken"`
			IDToken      string `json:"IdToken"`
			RefreshToken string `json:"RefreshToken"`
			ExpiresIn    int    `json:"ExpiresIn"`
			TokenType    string `json:"TokenType"`
		} `json:"AuthenticationResult"`
	}
	if err := c.call(ctx, "InitiateAuth", in, &out); err != nil {
		return nil, err
	}
	r := out.AuthenticationResult
	return &AuthResult{
		AccessToken:  r.AccessToken,
		IDToken:      r.IDToken,
		RefreshToken: r.RefreshToken,
		ExpiresIn:    r.ExpiresIn,
		TokenType:    r.TokenType,
	}, nil
}

// ForgotPassword dispara el envío del código de reset.
// Propaga ErrUserNotFound tal cual; la política de no-enumeración
// (responder éxito genérico igual) vive en la capa de servicio.
func (c *Client) ForgotPassword(ctx context.Context, email string) (*CodeDelivery, error) {
	in := map[string]any{
		"ClientId":   c.clientID,
		"SecretHash": c.secretHash(email),
		"Username":   email,
	}
	var out struct {
		CodeDeliveryDetails *CodeDelivery `json:"CodeDeliveryDetails"`
	}
	if err := c.call(ctx, "ForgotPassword", in, &out); err != nil {
		return nil, err
	}
	return out.CodeDeliveryDetails, nil
}

// ResetPassword completa el reset con código + password nueva.
func (c *Client) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	in := map[string]any{
		"ClientId":         c.clientID,
		"SecretHash":       c.secretHash(email),
		"Username":         email,
		"ConfirmationCode": code,
		"Password":         newPassword,
	}
	return c.call(ctx, "ConfirmForgotPassword", in, nil)
}

// GetUser lee los atributos del usuario dueño del access token.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*User, error) {
	in := map[string]any{"AccessToken": accessToken}
	var out struct {
		Username       string `json:"Username"`
		UserAttributes []struct {
			Name  string `json:"Name"`
			Value string `json:"Value"`
		} `json:"UserAttributes"`
	}
	if err := c.call(ctx, "GetUser", in, &out); err != nil {
		return nil, err
	}
	u := &User{Username: out.Username, Attributes: make(map[string]string, len(out.UserAttributes))}
	for _, a := range out.UserAttributes {
		u.Attributes[a.Name] = a.Value
	}
	return u, nil
}

// UpdateUserAttributes escribe atributos del usuario dueño del access token.
func (c *Client) UpdateUserAttributes(ctx context.Context, accessToken string, attrs map[string]string) error {
	list := make([]map[string]string, 0, len(attrs))
	for k, v := range attrs {
		list = append(list, map[string]string{"Name": k, "Value": v})
	}
	in := map[string]any{
		"AccessToken":    accessToken,
		"UserAttributes": list,
	}
	return c.call(ctx, "UpdateUserAttributes", in, nil)
}

// =================================================================================
// TRANSPORTE
// =================================================================================

// call hace un round trip JSON 1.1 contra el endpoint del provider.
// 2xx ⇒ decodifica out (si no es nil). Cualquier otro status ⇒ *APIError.
func (c *Client) call(ctx context.Context, op string, in any, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("cognito: %s: encode: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("cognito: %s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/x-amz-json-1.1")
	req.Header.Set("X-Amz-Target", targetPrefix+op)

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.ProviderLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ProviderRequests.WithLabelValues(op, "error").Inc()
		return fmt.Errorf("cognito: %s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		apiErr := decodeAPIError(resp)
		metrics.ProviderRequests.WithLabelValues(op, "rejected").Inc()
		return apiErr
	}

	metrics.ProviderRequests.WithLabelValues(op, "ok").Inc()
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("cognito: %s: decode: %w", op, err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) *APIError {
	var body struct {
		Type     string `json:"__type"`
		Message  string `json:"message"`
		MessageU string `json:"Message"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	_ = json.Unmarshal(raw, &body)

	code := normalizeErrorCode(body.Type)
	if code == "" {
		code = normalizeErrorCode(resp.Header.Get("x-amzn-ErrorType"))
	}
	if code == "" {
		code = fmt.Sprintf("HTTP%d", resp.StatusCode)
	}
	msg := body.Message
	if msg == "" {
		msg = body.MessageU
	}
	return &APIError{Code: code, Message: msg, Status: resp.StatusCode}
}
