// Package email entrega los links de acción (verificación, reset, magic link).
// Solo lo usa el proveedor local; un proveedor remoto manda sus propios emails.
package email

import (
	"context"
	"crypto/tls"
	"fmt"

	mail "github.com/go-mail/mail"

	"github.com/dropDatabas3/actionlink/internal/observability/logger"
)

// Sender envía un email con contenido HTML y texto plano.
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody, textBody string) error
}

// SMTPConfig configura el SMTPSender.
type SMTPConfig struct {
	Host               string
	Port               int
	From               string
	User               string
	Pass               string
	TLSMode            string // "auto" | "starttls" | "ssl" | "none"
	InsecureSkipVerify bool
}

// SMTPSender implementa Sender usando SMTP (go-mail).
type SMTPSender struct {
	cfg SMTPConfig
}

// NewSMTPSender crea un SMTPSender. Port 0 = 587, TLSMode vacío = auto.
func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.TLSMode == "" {
		cfg.TLSMode = "auto"
	}
	return &SMTPSender{cfg: cfg}
}

// Send envía el mensaje como multipart/alternative (txt + html).
func (s *SMTPSender) Send(ctx context.Context, to, subject, htmlBody, textBody string) error {
	log := logger.From(ctx).With(
		logger.Component("smtp"),
		logger.String("host", s.cfg.Host),
		logger.Email(to),
	)

	m := mail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)

	switch {
	case textBody != "" && htmlBody != "":
		m.SetBody("text/plain", textBody)
		m.AddAlternative("text/html", htmlBody)
	case htmlBody != "":
		m.SetBody("text/html", htmlBody)
	default:
		m.SetBody("text/plain", textBody)
	}

	d := mail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.User, s.cfg.Pass)
	d.TLSConfig = &tls.Config{
		ServerName:         s.cfg.Host,
		InsecureSkipVerify: s.cfg.InsecureSkipVerify, // solo dev
	}
	switch s.cfg.TLSMode {
	case "ssl":
		d.SSL = true
	case "none":
		d.StartTLSPolicy = mail.NoStartTLS
	default:
		// "auto"/"starttls": go-mail negocia STARTTLS si corresponde
	}

	if err := d.DialAndSend(m); err != nil {
		log.Error("smtp send failed", logger.Err(err))
		return fmt.Errorf("smtp send: %w", err)
	}
	log.Debug("email sent")
	return nil
}

// LogSender no envía nada: loguea el texto del email. Solo para desarrollo.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, to, subject, _, textBody string) error {
	logger.From(ctx).Info("email not sent (dev sender)",
		logger.Component("email"),
		logger.Email(to),
		logger.String("subject", subject),
		logger.String("body", textBody),
	)
	return nil
}
