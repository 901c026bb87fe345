package worker

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/sirupsen/logrus"
)

// Mailer sends verification codes to users.
type Mailer interface {
	SendOTP(email, code string) error
}

// SMTPMailer delivers mail through a plain SMTP relay.
type SMTPMailer struct {
	addr string
	from string
	auth smtp.Auth
}

// NewSMTPMailer configures a mailer for host:port. Username may be empty
// for relays that accept unauthenticated local delivery.
func NewSMTPMailer(host string, port int, username, password, from string) *SMTPMailer {
	var auth smtp.Auth
	if username != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}
	return &SMTPMailer{
		addr: fmt.Sprintf("%s:%d", host, port),
		from: from,
		auth: auth,
	}
}

// SendOTP mails the verification code.
func (m *SMTPMailer) SendOTP(email, code string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.from)
	fmt.Fprintf(&b, "To: %s\r\n", email)
	b.WriteString("Subject: Your verification code\r\n")
	b.WriteString("\r\n")
	fmt.Fprintf(&b, "Your verification code is %s. It expires in 10 minutes.\r\n", code)

	if err := smtp.SendMail(m.addr, m.auth, m.from, []string{email}, []byte(b.String())); err != nil {
		return fmt.Errorf("smtp: send to %s: %w", email, err)
	}
	return nil
}

// LogMailer writes codes to the application log instead of sending mail.
// Used in development and when no SMTP relay is configured.
type LogMailer struct{}

// SendOTP logs the code.
func (m *LogMailer) SendOTP(email, code string) error {
	logrus.WithFields(logrus.Fields{
		"email": email,
		"code":  code,
	}).Info("LogMailer: verification code (SMTP not configured)")
	return nil
}
