// Package action contiene los DTOs de los endpoints de links de acción.
package action

import core "github.com/dropDatabas3/actionlink/internal/action"

// FlowResponse es el outcome de un flow tal como lo ve el cliente.
// FlowID está vacío cuando no hay instancia que consultar (sin acción, acción desconocida).
type FlowResponse struct {
	FlowID string `json:"flow_id,omitempty"`
	Flow   string `json:"flow"`
	core.Outcome
}

// FlowResult es lo que devuelve el service al controller.
// Session solo viene con un sign-in exitoso y nunca se serializa.
type FlowResult struct {
	Response FlowResponse
	Session  *core.Session
}

// SubmitPasswordRequest: POST /v2/auth/action/flows/{id}/password
type SubmitPasswordRequest struct {
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// SignInLinkRequest: POST /v2/auth/signin-link
type SignInLinkRequest struct {
	Email          string `json:"email"`
	ContinueTarget string `json:"continue_target"`
}

// CompleteSignInRequest: POST /v2/auth/signin-link/complete
type CompleteSignInRequest struct {
	Link string `json:"link"`
}

// SubmitEmailRequest: POST /v2/auth/signin-link/flows/{id}/email
// Decline=true equivale a cancelar el prompt.
type SubmitEmailRequest struct {
	Email   string `json:"email"`
	Decline bool   `json:"decline"`
}

// PasswordResetSendRequest: POST /v2/auth/password-reset/send
type PasswordResetSendRequest struct {
	Email          string `json:"email"`
	ContinueTarget string `json:"continue_target"`
}

// VerificationSendRequest: POST /v2/auth/verify-email/send
type VerificationSendRequest struct {
	Email          string `json:"email"`
	ContinueTarget string `json:"continue_target"`
}

// AcceptedResponse es la respuesta 202 de los pedidos de link.
type AcceptedResponse struct {
	Status string `json:"status"`
}
