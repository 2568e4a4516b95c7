// Package auth contiene los DTOs del API del gateway.
package auth

// SignupRequest es el alta de usuario. El email es el username del pool.
type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CodeDelivery indica a dónde mandó el provider un código de verificación.
type CodeDelivery struct {
	Destination string `json:"destination"`
	Medium      string `json:"medium"`
	Attribute   string `json:"attribute,omitempty"`
}

// SignupResponse confirma el alta y devuelve el sub asignado.
type SignupResponse struct {
	Message       string        `json:"message"`
	UserSub       string        `json:"userSub"`
	UserConfirmed bool          `json:"userConfirmed"`
	CodeDelivery  *CodeDelivery `json:"codeDelivery,omitempty"`
}

// ConfirmRequest confirma la cuenta con el código recibido.
type ConfirmRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// MessageResponse es un acknowledgement plano.
type MessageResponse struct {
	Message string `json:"message"`
}
