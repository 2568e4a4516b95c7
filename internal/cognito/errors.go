package cognito

import (
	"errors"
	"fmt"
	"strings"
)

// Errores estables que el resto del gateway puede chequear con errors.Is.
// Cubren los casos del provider que tienen semántica propia; todo lo demás
// queda como *APIError genérico (rechazo del provider con su mensaje).
var (
	ErrUserExists       = errors.New("username already exists")
	ErrNotAuthorized    = errors.New("not authorized")
	ErrUserNotConfirmed = errors.New("user not confirmed")
	ErrUserNotFound     = errors.New("user not found")
)

// APIError es un rechazo explícito del identity provider.
// Code es el nombre de la excepción sin el prefijo del namespace
// (ej. "UsernameExistsException"); Message es el detalle humano del provider.
type APIError struct {
	Code    string
	Message string
	Status  int
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("cognito: %s", e.Code)
	}
	return fmt.Sprintf("cognito: %s: %s", e.Code, e.Message)
}

// Is permite matchear con los sentinels por código del provider.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUserExists:
		return e.Code == "UsernameExistsException"
	case ErrNotAuthorized:
		return e.Code == "NotAuthorizedException"
	case ErrUserNotConfirmed:
		return e.Code == "UserNotConfirmedException"
	case ErrUserNotFound:
		return e.Code == "UserNotFoundException"
	}
	return false
}

// normalizeErrorCode recorta el namespace del __type de AWS.
// "com.amazonaws.cognito#UsernameExistsException" -> "UsernameExistsException"
// El header x-amzn-ErrorType a veces trae ":" al final.
func normalizeErrorCode(t string) string {
	if i := strings.LastIndexByte(t, '#'); i >= 0 {
		t = t[i+1:]
	}
	if i := strings.IndexByte(t, ':'); i >= 0 {
		t = t[:i]
	}
	return strings.TrimSpace(t)
}

// ExchangeError es una falla del token endpoint del hosted UI en el flujo
// federado. Conserva status y body para logging server-side; el caller decide
// qué exponer.
type ExchangeError struct {
	Status int
	Body   string
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("token exchange failed: http %d: %s", e.Status, e.Body)
}
