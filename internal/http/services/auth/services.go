// Package auth contiene los services del gateway: la orquestación de cada
// operación de ciclo de vida contra el identity provider.
//
// Contrato de errores hacia los controllers:
//   - sentinels locales (ErrMissingFields, ErrBadCredentials, ...) para los
//     casos con semántica propia;
//   - *ProviderRejectedError para cualquier otro rechazo explícito del
//     provider (conserva su detalle humano);
//   - cualquier otro error es falla de infraestructura (red, timeout,
//     respuesta inesperada) y el controller lo reporta genérico.
package auth

import (
	"errors"
	"fmt"

	"github.com/dropDatabas3/cognitogate/internal/cognito"
)

// Errores estables de la capa de servicio.
var (
	ErrMissingFields  = fmt.Errorf("missing required fields")
	ErrAlreadyExists  = fmt.Errorf("user already exists")
	ErrBadCredentials = fmt.Errorf("invalid credentials")
	ErrNotConfirmed   = fmt.Errorf("user not confirmed")
	ErrMissingCode    = fmt.Errorf("missing authorization code")
)

// ProviderRejectedError es un rechazo del provider sin categoría propia.
// Reason es el detalle humano del provider, seguro de mostrar al caller.
type ProviderRejectedError struct {
	Reason string
}

func (e *ProviderRejectedError) Error() string {
	return "provider rejected: " + e.Reason
}

// providerRejected convierte un *cognito.APIError en ProviderRejectedError.
// Un 5xx del provider no es un rechazo sino una falla del provider; pasa tal
// cual, igual que los errores que no son APIError (red, timeout).
func providerRejected(err error) error {
	var apiErr *cognito.APIError
	if errors.As(err, &apiErr) && apiErr.Status < 500 {
		reason := apiErr.Message
		if reason == "" {
			reason = apiErr.Code
		}
		return &ProviderRejectedError{Reason: reason}
	}
	return err
}

// Services agrupa todos los services del gateway.
type Services struct {
	Registration RegistrationService
	Session      SessionService
	Password     PasswordService
	Social       SocialService
	Profile      ProfileService
}
