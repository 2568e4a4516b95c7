// Package controllers contiene los handlers HTTP del gateway.
// Cada controller decodifica el request, delega en su service y traduce
// los errores de servicio al contrato de error HTTP.
package controllers

import (
	"errors"

	httperrors "github.com/dropDatabas3/cognitogate/internal/http/errors"
	svc "github.com/dropDatabas3/cognitogate/internal/http/services/auth"
)

// Controllers agrupa todos los controllers del gateway.
type Controllers struct {
	Registration *RegistrationController
	Session      *SessionController
	Password     *PasswordController
	Social       *SocialController
	Profile      *ProfileController
	Health       *HealthController
}

// New arma los controllers a partir de los services.
func New(services svc.Services, health *HealthController) *Controllers {
	return &Controllers{
		Registration: NewRegistrationController(services.Registration),
		Session:      NewSessionController(services.Session),
		Password:     NewPasswordController(services.Password),
		Social:       NewSocialController(services.Social),
		Profile:      NewProfileController(services.Profile),
		Health:       health,
	}
}

// mapCommonError traduce los errores que todos los services comparten.
// Devuelve nil si el error no es de los comunes.
func mapCommonError(err error) *httperrors.AppError {
	var rejected *svc.ProviderRejectedError
	switch {
	case errors.Is(err, svc.ErrMissingFields):
		return httperrors.ErrMissingFields
	case errors.As(err, &rejected):
		return httperrors.ErrProviderRejected.WithDetail(rejected.Reason)
	}
	return nil
}

// infrastructureError envuelve una falla no mapeada (red, timeout, respuesta
// inesperada del provider) como 502 con la causa para el log.
func infrastructureError(err error) *httperrors.AppError {
	return httperrors.ErrUpstreamFailure.WithCause(err)
}
