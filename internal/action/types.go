package action

import (
	"net/url"
	"strings"
)

// Mode es el discriminador de la acción que trae el link.
// Modos desconocidos se conservan tal cual para poder reportarlos.
type Mode string

const (
	ModeVerifyEmail   Mode = "verifyEmail"
	ModeResetPassword Mode = "resetPassword"
	ModeSignIn        Mode = "signIn"
)

// Known indica si el modo es uno de los soportados.
func (m Mode) Known() bool {
	switch m {
	case ModeVerifyEmail, ModeResetPassword, ModeSignIn:
		return true
	}
	return false
}

// State es el estado de un flow.
type State string

const (
	StateIdle          State = "idle"
	StateWorking       State = "working"
	StateReadyForInput State = "ready_for_input"
	StateSubmitting    State = "submitting"
	StateSuccess       State = "success"
	StateError         State = "error"
)

// Terminal indica si el estado es final para el request.
func (s State) Terminal() bool {
	return s == StateSuccess || s == StateError
}

// Busy indica que hay una llamada al proveedor en vuelo.
func (s State) Busy() bool {
	return s == StateWorking || s == StateSubmitting
}

// Request es el intento de completar una acción (un click en el link).
// Se construye una vez por navegación y no se persiste.
type Request struct {
	Mode           Mode
	Token          string
	ContinueTarget string
}

// ParseRequest arma un Request desde los query params del link.
// Acepta los nombres del proveedor (oobCode, continueUrl) como alias.
func ParseRequest(q url.Values) Request {
	req := Request{
		Mode:           Mode(strings.TrimSpace(q.Get("mode"))),
		Token:          strings.TrimSpace(q.Get("token")),
		ContinueTarget: strings.TrimSpace(q.Get("continueTarget")),
	}
	if req.Token == "" {
		req.Token = strings.TrimSpace(q.Get("oobCode"))
	}
	if req.ContinueTarget == "" {
		req.ContinueTarget = strings.TrimSpace(q.Get("continueUrl"))
	}
	return req
}

// ParseLink arma un Request desde la URL completa de un link.
// Un link envuelto en ?link= (redirects de apps móviles) se desenvuelve hasta dos
// niveles, igual que la detección de magic links.
func ParseLink(link string) (Request, error) {
	return parseLink(link, 2)
}

func parseLink(link string, depth int) (Request, error) {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return Request{}, err
	}
	q := u.Query()
	req := ParseRequest(q)
	if req.Token == "" && depth > 1 {
		if inner := q.Get("link"); inner != "" {
			return parseLink(inner, depth-1)
		}
	}
	return req, nil
}

// Outcome es lo que un flow reporta a la capa de presentación.
type Outcome struct {
	State          State     `json:"state"`
	Kind           ErrorKind `json:"kind,omitempty"`
	Message        string    `json:"message,omitempty"`
	ResolvedEmail  string    `json:"resolved_email,omitempty"`
	ContinueTarget string    `json:"continue_target,omitempty"`
	// RetryTarget: dónde pedir un link nuevo; solo en Error.
	RetryTarget    string    `json:"retry_target,omitempty"`
}
