package email

import (
	"fmt"
	"net/smtp"
)

// Sender delivers mail through a single SMTP account.
type Sender struct {
	Host     string
	Port     string
	From     string
	Password string
}

// NewSender builds a Sender from SMTP settings.
func NewSender(host, port, from, password string) *Sender {
	return &Sender{
		Host:     host,
		Port:     port,
		From:     from,
		Password: password,
	}
}

// Configured reports whether enough SMTP settings are present to send.
func (s *Sender) Configured() bool {
	return s != nil && s.Host != "" && s.From != ""
}

// Send sends a plain text email.
func (s *Sender) Send(to, subject, body string) error {
	msg := []byte("To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"\r\n" + body + "\r\n")
	return s.send(to, msg)
}

// SendHTML sends an HTML email.
func (s *Sender) SendHTML(to, subject, htmlBody string) error {
	msg := []byte("To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/html; charset=\"UTF-8\"\r\n" +
		"\r\n" + htmlBody + "\r\n")
	return s.send(to, msg)
}

func (s *Sender) send(to string, msg []byte) error {
	auth := smtp.PlainAuth("", s.From, s.Password, s.Host)
	address := s.Host + ":" + s.Port

	if err := smtp.SendMail(address, auth, s.From, []string{to}, msg); err != nil {
		return fmt.Errorf("failed to send email: %v", err)
	}
	return nil
}

// NotificationBody renders the shared notification email template.
func NotificationBody(name, title, message, actionURL, actionLabel string) string {
	action := ""
	if actionURL != "" {
		if actionLabel == "" {
			actionLabel = "Open FitTrack"
		}
		action = fmt.Sprintf(`<p><a href="%s" style="background:#4F46E5;color:#fff;padding:10px 18px;border-radius:6px;text-decoration:none;">%s</a></p>`, actionURL, actionLabel)
	}

	return fmt.Sprintf(`<div style="font-family:Arial,sans-serif;max-width:600px;margin:0 auto;">
<h2 style="color:#111;">%s</h2>
<p>Hi %s,</p>
<p>%s</p>
%s
<p style="color:#888;font-size:12px;">You are receiving this because email notifications are enabled in your FitTrack preferences.</p>
</div>`, title, name, message, action)
}
