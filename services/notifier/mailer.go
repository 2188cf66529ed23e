package notifier

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/jordan-wright/email"
)

type SmtpConfig struct {
	Server       string `json:"server"`
	Port         int    `json:"port"`
	EmailAddress string `json:"email_address"`
	Password     string `json:"password"`
	// sender display name, e.g. "JP Training"
	FromName string `json:"from_name"`
}

// Sender delivers one HTML message to one recipient.
type Sender interface {
	Send(to, subject string, htmlBody []byte) error
}

// Mailer delivers a single HTML message over SMTP. Failures are
// reported to the caller; retry policy is the caller's business.
type Mailer struct {
	config SmtpConfig
}

func NewMailer(config SmtpConfig) Mailer {
	return Mailer{config: config}
}

func (m Mailer) Send(to, subject string, htmlBody []byte) error {
	mail := email.NewEmail()
	mail.From = fmt.Sprintf("%s <%s>", m.config.FromName, m.config.EmailAddress)
	mail.To = []string{to}
	mail.Subject = subject
	mail.HTML = htmlBody

	addr := fmt.Sprintf("%s:%d", m.config.Server, m.config.Port)
	err := mail.Send(
		addr,
		smtp.PlainAuth("", m.config.EmailAddress, m.config.Password, m.config.Server),
	)
	// local relays without AUTH still accept anonymous delivery
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		return mail.Send(addr, nil)
	}
	return err
}
