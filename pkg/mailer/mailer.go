package mailer

import (
	"fmt"
	"net/smtp"

	"github.com/jordan-wright/email"
	"go.uber.org/zap"
)

// Mailer sends transactional email over SMTP. Sends are best-effort: callers
// log failures and record them in email_logs, they never propagate them as
// fatal errors.
type Mailer struct {
	fromAddress string
	fromName    string
	host        string
	port        int
	auth        smtp.Auth
	logger      *zap.Logger
}

// New creates an SMTP mailer. Returns nil when no SMTP host is configured;
// callers treat a nil Mailer as "email disabled".
func New(fromAddress, fromName, host string, port int, user, pass string, logger *zap.Logger) *Mailer {
	if host == "" {
		return nil
	}
	var auth smtp.Auth
	if user != "" {
		auth = smtp.PlainAuth("", user, pass, host)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mailer{
		fromAddress: fromAddress,
		fromName:    fromName,
		host:        host,
		port:        port,
		auth:        auth,
		logger:      logger,
	}
}

// Send delivers one email. text may be empty; html is required.
func (m *Mailer) Send(to, subject, html, text string) error {
	e := email.NewEmail()
	e.From = fmt.Sprintf("%s <%s>", m.fromName, m.fromAddress)
	e.To = []string{to}
	e.Subject = subject
	e.HTML = []byte(html)
	if text != "" {
		e.Text = []byte(text)
	}
	if err := e.Send(fmt.Sprintf("%s:%d", m.host, m.port), m.auth); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
