package mail

import (
	"context"
	"crypto/tls"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/oops"

	"github.com/storefront/credential-service/internal/core/ports"
)

// SMTPConfig holds the outbound mail relay settings.
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

// SMTPMailer implements ports.Mailer over an SMTP relay with PLAIN auth.
type SMTPMailer struct {
	cfg  SMTPConfig
	auth smtp.Auth
	log  zerolog.Logger
}

func NewSMTPMailer(cfg SMTPConfig, log zerolog.Logger) *SMTPMailer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return &SMTPMailer{cfg: cfg, auth: auth, log: log.With().Str("component", "smtp_mailer").Logger()}
}

// Send delivers msg. The dial honours ctx; the SMTP conversation is bounded
// by the configured timeout. Once the relay has accepted the message data a
// failing QUIT is only logged.
func (m *SMTPMailer) Send(ctx context.Context, msg ports.Message) error {
	addr := net.JoinHostPort(m.cfg.Host, m.cfg.Port)
	fail := func(step string, err error) error {
		return oops.Code("MAIL_DELIVERY_FAILED").
			In("smtp").
			With("step", step).
			With("addr", addr).
			Wrap(err)
	}

	dialer := net.Dialer{Timeout: m.cfg.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fail("dial", err)
	}
	_ = conn.SetDeadline(time.Now().Add(m.cfg.Timeout))

	client, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		_ = conn.Close()
		return fail("greeting", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: m.cfg.Host, MinVersion: tls.VersionTLS12}); err != nil {
			return fail("starttls", err)
		}
	}
	if m.auth != nil {
		if err := client.Auth(m.auth); err != nil {
			return fail("auth", err)
		}
	}
	if err := client.Mail(m.cfg.From); err != nil {
		return fail("mail from", err)
	}
	if err := client.Rcpt(msg.To); err != nil {
		return fail("rcpt to", err)
	}

	w, err := client.Data()
	if err != nil {
		return fail("data", err)
	}
	if _, err := w.Write(buildMessage(m.cfg.From, msg)); err != nil {
		_ = w.Close()
		return fail("write body", err)
	}
	if err := w.Close(); err != nil {
		return fail("end data", err)
	}
	if err := client.Quit(); err != nil {
		m.log.Warn().Err(err).Str("addr", addr).Msg("smtp quit failed after message was accepted")
	}
	return nil
}

// buildMessage renders a plain-text RFC 5322 message. Header values are
// stripped of line breaks.
func buildMessage(from string, msg ports.Message) []byte {
	var b strings.Builder
	b.WriteString("From: " + headerValue(from) + "\r\n")
	b.WriteString("To: " + headerValue(msg.To) + "\r\n")
	b.WriteString("Subject: " + headerValue(msg.Subject) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(strings.ReplaceAll(msg.Body, "\r\n", "\n"), "\n", "\r\n"))
	b.WriteString("\r\n")
	return []byte(b.String())
}

func headerValue(v string) string {
	return strings.NewReplacer("\r", "", "\n", "").Replace(v)
}
