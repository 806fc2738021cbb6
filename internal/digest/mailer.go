package digest

import (
	"fmt"
	"net/smtp"
	"strings"
)

// Mailer sends digest emails over SMTP.
type Mailer struct {
	Host      string
	Port      int
	Sender    string
	Username  string
	Password  string
	Recipient string
}

// Send delivers one HTML email. Authentication is skipped when no
// username is configured, which covers local relays.
func (m *Mailer) Send(subject, htmlBody string) error {
	if m.Host == "" || m.Recipient == "" {
		return fmt.Errorf("mailer not configured: host=%q recipient=%q", m.Host, m.Recipient)
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", m.Sender)
	fmt.Fprintf(&msg, "To: %s\r\n", m.Recipient)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(htmlBody)

	var auth smtp.Auth
	if m.Username != "" {
		auth = smtp.PlainAuth("", m.Username, m.Password, m.Host)
	}

	addr := fmt.Sprintf("%s:%d", m.Host, m.Port)
	if err := smtp.SendMail(addr, auth, m.Sender, []string{m.Recipient}, []byte(msg.String())); err != nil {
		return fmt.Errorf("smtp send to %s: %w", m.Recipient, err)
	}
	return nil
}
