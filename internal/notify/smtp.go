package notify

import (
	"context"
	"crypto/tls"
	"fmt"

	mail "github.com/go-mail/mail"

	"github.com/chambadev/chamba/internal/domain/repository"
	"github.com/chambadev/chamba/internal/observability/logger"
)

// SMTPConfig configura el sender SMTP.
type SMTPConfig struct {
	Host               string
	Port               int
	From               string
	Username           string
	Password           string
	TLSMode            string // "auto" | "starttls" | "ssl" | "none"
	InsecureSkipVerify bool   // sólo dev
}

// SMTPNotifier envía las notificaciones por email.
type SMTPNotifier struct {
	cfg SMTPConfig
}

// NewSMTP crea un notifier SMTP.
func NewSMTP(cfg SMTPConfig) *SMTPNotifier {
	if cfg.TLSMode == "" {
		cfg.TLSMode = "auto"
	}
	return &SMTPNotifier{cfg: cfg}
}

// SubscriptionLapsed envía el aviso de suscripción vencida.
func (s *SMTPNotifier) SubscriptionLapsed(ctx context.Context, p *repository.Principal) error {
	if p == nil || p.Email == "" {
		return nil
	}
	log := logger.From(ctx).With(
		logger.Component("notify.smtp"),
		logger.OwnerID(p.ID),
	)

	m := mail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", p.Email)
	m.SetHeader("Subject", "Tu suscripción de Chamba venció")
	m.SetBody("text/plain", fmt.Sprintf(
		"Hola %s,\n\nTu suscripción venció y tu perfil dejó de aparecer en las búsquedas.\nRenovala para volver a estar disponible.\n\n— Chamba",
		p.Name,
	))

	d := mail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)
	d.TLSConfig = &tls.Config{
		ServerName:         s.cfg.Host,
		InsecureSkipVerify: s.cfg.InsecureSkipVerify,
	}
	switch s.cfg.TLSMode {
	case "ssl":
		d.SSL = true
	case "none":
		d.TLSConfig = &tls.Config{InsecureSkipVerify: s.cfg.InsecureSkipVerify}
	default:
		// "auto"/"starttls": go-mail negocia STARTTLS si corresponde
	}

	if err := d.DialAndSend(m); err != nil {
		log.Error("smtp send failed", logger.Err(err))
		return fmt.Errorf("smtp send: %w", err)
	}
	log.Debug("lapse notification sent")
	return nil
}
