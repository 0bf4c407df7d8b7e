package mailservice

import (
	"time"

	"github.com/go-mail/mail/v2"
)

const dialTimeout = 5 * time.Second

// NewMailer creates an SMTP mailer that renders messages with tp.
func NewMailer(cfg MailConfig, tp *Template) *Mail {
	dialer := mail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	dialer.Timeout = dialTimeout

	return &Mail{
		dialer: dialer,
		sender: cfg.Sender,
		parser: tp,
	}
}

func (m *Mail) send(recipient string, data any, templateFile string) error {
	subject, plainBody, htmlBody, err := m.parser.ParseTemplate(templateFile, data)
	if err != nil {
		return err
	}

	msg := mail.NewMessage()
	msg.SetHeader("From", m.sender)
	msg.SetHeader("To", recipient)
	msg.SetHeader("Subject", subject.String())
	msg.SetBody("text/plain", plainBody.String())
	msg.AddAlternative("text/html", htmlBody.String())

	// the dialer keeps no connection between sends, one at a time
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.dialer.DialAndSend(msg)
}
