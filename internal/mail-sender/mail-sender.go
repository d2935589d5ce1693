package mailSender

import (
	"context"

	"gopkg.in/gomail.v2"
)

// Mailer delivers e-mail over SMTP.
type Mailer struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

func (m *Mailer) Send(_ context.Context, to, subject, body string) error {
	dialer := gomail.NewDialer(m.Host, m.Port, m.Username, m.Password)
	return dialer.DialAndSend(m.message(to, subject, body))
}

func (m *Mailer) message(to, subject, body string) *gomail.Message {
	from := m.From
	if from == "" {
		from = m.Username
	}

	msg := gomail.NewMessage()
	msg.SetHeader("To", to)
	msg.SetHeader("From", from)
	msg.SetHeader("Subject", subject)

	msg.SetBody("text/plain", body)

	return msg
}
