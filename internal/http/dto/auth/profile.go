package auth

// ProfileResponse son los atributos del usuario en el pool.
type ProfileResponse struct {
	Attributes map[string]string `json:"attributes"`
}

// ProfileUpdateRequest es un body libre del que solo se toman
// los atributos permitidos (ver services/auth.profileAllowedKeys).
type ProfileUpdateRequest map[string]any
