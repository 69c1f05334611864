package email

import (
	"bytes"
	"fmt"
	htemplate "html/template"
	ttemplate "text/template"
	"time"
)

// Kind es el tipo de email de acción.
type Kind string

const (
	KindVerifyEmail   Kind = "verify_email"
	KindResetPassword Kind = "reset_password"
	KindSignIn        Kind = "sign_in"
)

// Vars son las variables de los templates.
type Vars struct {
	Email string
	Link  string
	TTL   string
}

type template struct {
	subject string
	html    *htemplate.Template
	text    *ttemplate.Template
}

var templates = map[Kind]template{
	KindVerifyEmail: {
		subject: "Confirmá tu email",
		html:    htemplate.Must(htemplate.New("verify_html").Parse(`<p>Hola {{.Email}},</p><p>Confirmá tu email haciendo click <a href="{{.Link}}">acá</a>.</p><p>El link vence en {{.TTL}}.</p>`)),
		text:    ttemplate.Must(ttemplate.New("verify_text").Parse("Hola {{.Email}},\n\nConfirmá tu email: {{.Link}}\n\nEl link vence en {{.TTL}}.\n")),
	},
	KindResetPassword: {
		subject: "Restablecé tu contraseña",
		html:    htemplate.Must(htemplate.New("reset_html").Parse(`<p>Hola {{.Email}},</p><p>Para elegir una nueva contraseña hacé click <a href="{{.Link}}">acá</a>.</p><p>El link vence en {{.TTL}}. Si no lo pediste, ignorá este email.</p>`)),
		text:    ttemplate.Must(ttemplate.New("reset_text").Parse("Hola {{.Email}},\n\nElegí una nueva contraseña: {{.Link}}\n\nEl link vence en {{.TTL}}. Si no lo pediste, ignorá este email.\n")),
	},
	KindSignIn: {
		subject: "Tu link de ingreso",
		html:    htemplate.Must(htemplate.New("signin_html").Parse(`<p>Hola {{.Email}},</p><p>Ingresá haciendo click <a href="{{.Link}}">acá</a>.</p><p>El link vence en {{.TTL}} y sirve una sola vez.</p>`)),
		text:    ttemplate.Must(ttemplate.New("signin_text").Parse("Hola {{.Email}},\n\nIngresá con este link: {{.Link}}\n\nEl link vence en {{.TTL}} y sirve una sola vez.\n")),
	},
}

// Render devuelve subject, html y texto para kind.
func Render(kind Kind, vars Vars) (subject, html, text string, err error) {
	t, ok := templates[kind]
	if !ok {
		return "", "", "", fmt.Errorf("email: unknown template %q", kind)
	}
	var hb, tb bytes.Buffer
	if err := t.html.Execute(&hb, vars); err != nil {
		return "", "", "", err
	}
	if err := t.text.Execute(&tb, vars); err != nil {
		return "", "", "", err
	}
	return t.subject, hb.String(), tb.String(), nil
}

// FormatTTL formatea una duración para el cuerpo del email.
func FormatTTL(d time.Duration) string {
	hours := int(d.Hours())
	switch {
	case hours >= 48:
		return fmt.Sprintf("%d días", hours/24)
	case hours >= 24:
		return "1 día"
	case hours > 1:
		return fmt.Sprintf("%d horas", hours)
	case hours == 1:
		return "1 hora"
	}
	if m := int(d.Minutes()); m != 1 {
		return fmt.Sprintf("%d minutos", m)
	}
	return "1 minuto"
}
