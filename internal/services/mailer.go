// internal/services/mailer.go
package services

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/sirupsen/logrus"

	"github.com/javajoker/agriconnect-backend/internal/config"
)

type EmailTemplate struct {
	Subject string
	Body    string
}

// Mailer renders HTML templates and sends them over SMTP. Without an SMTP
// host it only logs what would have been sent.
type Mailer struct {
	cfg      config.EmailConfig
	frontend string
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewMailer(cfg *config.Config) *Mailer {
	return &Mailer{
		cfg:      cfg.Email,
		frontend: cfg.Frontend.BaseURL,
		sendMail: smtp.SendMail,
	}
}

func (m *Mailer) Enabled() bool {
	return m.cfg.Notifications
}

// SendTemplate renders the named template with data and mails it to to.
func (m *Mailer) SendTemplate(to, name string, data map[string]interface{}) error {
	tmpl, ok := emailTemplates[name]
	if !ok {
		return fmt.Errorf("unknown email template %q", name)
	}

	if data == nil {
		data = map[string]interface{}{}
	}
	data["PlatformName"] = "AgriConnect"
	data["FrontendURL"] = m.frontend

	subject, err := m.render(tmpl.Subject, data)
	if err != nil {
		return fmt.Errorf("failed to render email subject: %w", err)
	}
	body, err := m.render(tmpl.Body, data)
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	return m.send(to, subject, body)
}

func (m *Mailer) send(to, subject, body string) error {
	if m.cfg.SMTPHost == "" {
		logrus.WithFields(logrus.Fields{
			"to":      to,
			"subject": subject,
		}).Info("Email not configured, skipping send")
		return nil
	}

	auth := smtp.PlainAuth("", m.cfg.SMTPUsername, m.cfg.SMTPPassword, m.cfg.SMTPHost)

	msg := []byte(fmt.Sprintf("From: %s <%s>\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n%s",
		m.cfg.FromName, m.cfg.FromEmail, to, subject, body))

	addr := fmt.Sprintf("%s:%s", m.cfg.SMTPHost, m.cfg.SMTPPort)
	return m.sendMail(addr, auth, m.cfg.FromEmail, []string{to}, msg)
}

func (m *Mailer) render(templateStr string, data interface{}) (string, error) {
	tmpl, err := template.New("email").Parse(templateStr)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

var emailTemplates = map[string]EmailTemplate{
	"new_order": {
		Subject: "New order on {{.PlatformName}}",
		Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Hello {{.Name}},</h2>
	<p>{{.Message}}</p>
	<a href="{{.FrontendURL}}/dashboard">Review the order</a>
	<p>Best regards,<br>{{.PlatformName}} Team</p>
</body>
</html>`,
	},
	"order_status": {
		Subject: "Your order was updated",
		Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Hello {{.Name}},</h2>
	<p>{{.Message}}</p>
	<a href="{{.FrontendURL}}/orders">View your orders</a>
	<p>Best regards,<br>{{.PlatformName}} Team</p>
</body>
</html>`,
	},
}
