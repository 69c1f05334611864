package action

import (
	"errors"
	"fmt"
)

// ErrorKind clasifica los fallos de un flow, independiente del proveedor.
type ErrorKind string

const (
	KindInvalidLink           ErrorKind = "invalid_link"
	KindExpiredLink           ErrorKind = "expired_link"
	KindAlreadyConsumed       ErrorKind = "already_consumed"
	KindNotASignInLink        ErrorKind = "not_a_sign_in_link"
	KindEmailMismatch         ErrorKind = "email_mismatch"
	KindWeakCredential        ErrorKind = "weak_credential"
	KindLocalValidationFailed ErrorKind = "local_validation_failed"
	KindMissingParameters     ErrorKind = "missing_parameters"
	KindUnrecognizedAction    ErrorKind = "unrecognized_action"
	KindUnknown               ErrorKind = "unknown"
)

// Errores que un TokenClient devuelve (envueltos) para que los flows los clasifiquen.
var (
	ErrInvalidToken   = errors.New("action token invalid")
	ErrExpiredToken   = errors.New("action token expired")
	ErrTokenConsumed  = errors.New("action token already consumed")
	ErrWeakCredential = errors.New("credential rejected by policy")
	ErrEmailMismatch  = errors.New("email does not match link")
	ErrInvalidEmail   = errors.New("invalid email address")
)

// Errores de uso de los flows.
var (
	// ErrSubmissionRejected: el flow está ocupado o ya terminó.
	ErrSubmissionRejected = errors.New("flow does not accept this submission in its current state")
	// ErrMissingToken: el request no trae token; el flow no sale de Idle.
	ErrMissingToken = errors.New("action request has no token")
)

// ValidationError es un fallo de validación local (nunca llega al proveedor).
// El flow se queda en ReadyForInput.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Classify mapea un error del proveedor a un ErrorKind.
func Classify(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidToken):
		return KindInvalidLink
	case errors.Is(err, ErrExpiredToken):
		return KindExpiredLink
	case errors.Is(err, ErrTokenConsumed):
		return KindAlreadyConsumed
	case errors.Is(err, ErrWeakCredential):
		return KindWeakCredential
	case errors.Is(err, ErrEmailMismatch):
		return KindEmailMismatch
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return KindLocalValidationFailed
	}
	return KindUnknown
}

// Message devuelve el texto para mostrar al usuario. Nunca incluye el payload del proveedor.
func Message(kind ErrorKind) string {
	switch kind {
	case KindInvalidLink:
		return "El link no es válido. Pedí uno nuevo."
	case KindExpiredLink:
		return "El link expiró. Pedí uno nuevo."
	case KindAlreadyConsumed:
		return "Este link ya fue usado. Pedí uno nuevo si lo necesitás."
	case KindNotASignInLink:
		return "El link no es un link de ingreso válido."
	case KindEmailMismatch:
		return "El email no coincide con el del link."
	case KindWeakCredential:
		return "La contraseña es demasiado débil."
	case KindLocalValidationFailed:
		return "Revisá los datos ingresados."
	case KindMissingParameters:
		return "Faltan parámetros: no se pidió ninguna acción."
	case KindUnrecognizedAction:
		return "La acción pedida no es reconocida."
	default:
		return "No pudimos completar la acción. Intentá de nuevo más tarde."
	}
}

func failed(kind ErrorKind) Outcome {
	return Outcome{State: StateError, Kind: kind, Message: Message(kind)}
}
