package infra

import (
	"errors"
	"fmt"
	"net/smtp"
	"sync"
	"time"

	"github.com/cinsua/masirep-sub002/internal/config"

	"github.com/jordan-wright/email"
)

const (
	conexionesSMTP = 2
	timeoutEnvio   = 20 * time.Second
)

// ErrSMTPNoConfigurado is returned by SendAlerta when SMTP_HOST is empty.
var ErrSMTPNoConfigurado = errors.New("mailer: SMTP_HOST no configurado")

// Mailer sends stock alert emails over a small pool of SMTP connections.
// The pool is dialed on first use, so a server that is down at startup only
// fails the sends (and trips the breaker) instead of the boot.
type Mailer struct {
	host      string
	addr      string
	remitente string
	auth      smtp.Auth

	once sync.Once
	pool *email.Pool
	err  error
}

func NewMailer(cfg *config.Config) *Mailer {
	m := &Mailer{
		host:      cfg.SMTPHost,
		addr:      fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
		remitente: fmt.Sprintf("Masirep Stock <%s>", cfg.SMTPUser),
	}
	if cfg.SMTPUser != "" {
		m.auth = smtp.PlainAuth("", cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPHost)
	}
	return m
}

// Configurado reports whether an SMTP host was provided.
func (m *Mailer) Configurado() bool { return m.host != "" }

// SendAlerta sends a plain-text alert to every recipient, optionally
// attaching a file (the low-stock PDF).
func (m *Mailer) SendAlerta(to []string, subject, body, adjunto string) error {
	if !m.Configurado() {
		return ErrSMTPNoConfigurado
	}
	pool, err := m.conectar()
	if err != nil {
		return err
	}

	e := email.NewEmail()
	e.From = m.remitente
	e.To = to
	e.Subject = subject
	e.Text = []byte(body)
	if adjunto != "" {
		if _, err := e.AttachFile(adjunto); err != nil {
			return fmt.Errorf("mailer: attach %s: %w", adjunto, err)
		}
	}
	if err := pool.Send(e, timeoutEnvio); err != nil {
		return fmt.Errorf("mailer: send %q: %w", subject, err)
	}
	return nil
}

func (m *Mailer) conectar() (*email.Pool, error) {
	m.once.Do(func() {
		m.pool, m.err = email.NewPool(m.addr, conexionesSMTP, m.auth)
		if m.err != nil {
			m.err = fmt.Errorf("mailer: pool %s: %w", m.addr, m.err)
		}
	})
	return m.pool, m.err
}

// Close releases the pooled connections.
func (m *Mailer) Close() {
	if m.pool != nil {
		m.pool.Close()
	}
}
