package auth

// ForgotPasswordRequest inicia el flujo de reset.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ForgotPasswordResponse siempre tiene la misma forma, exista o no la cuenta.
// No incluye el destino del código: revelarlo confirmaría la existencia.
type ForgotPasswordResponse struct {
	Message string `json:"message"`
}

// ResetPasswordRequest completa el reset con código + password nueva.
type ResetPasswordRequest struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"new_password"`
}
