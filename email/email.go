// Package email sends the plain-text notices that keep the out-of-band
// payment loop running: the admin hears about new orders, buyers hear
// about completed ones.
package email

import (
	"fmt"
	"net/smtp"
	"strings"
)

type Mailer struct {
	address  string
	password string
	host     string
	port     string
}

func New(address, password, host, port string) Mailer {
	return Mailer{
		address:  address,
		password: password,
		host:     host,
		port:     port,
	}
}

func (m Mailer) Send(to, subject, body string) error {
	// No host configured means mail is disabled for this deployment.
	if m.host == "" {
		return nil
	}

	msg := strings.Join([]string{
		"From: " + m.address,
		"To: " + to,
		"Subject: " + subject,
		"",
		body,
	}, "\r\n")

	auth := smtp.PlainAuth("", m.address, m.password, m.host)
	if err := smtp.SendMail(m.host+":"+m.port, auth, m.address, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("sending mail to %s: %w", to, err)
	}

	return nil
}
