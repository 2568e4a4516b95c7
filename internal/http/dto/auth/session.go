package auth

// LoginRequest es el login con email + password.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest renueva tokens con un refresh token.
// El email es necesario para recalcular el secret hash del username.
type RefreshRequest struct {
	Email        string `json:"email"`
	RefreshToken string `json:"refresh_token"`
}

// TokenResponse son los tokens emitidos por el provider.
// RefreshToken viene vacío en refresh (el provider no lo rota).
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int    `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// ClaimsResponse devuelve las claims verificadas del bearer token.
type ClaimsResponse struct {
	Claims map[string]any `json:"claims"`
}
