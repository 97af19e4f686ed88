package utils

import (
	"bytes"
	"fmt"
	"html/template"

	"onboardbuddy/config"

	"gopkg.in/gomail.v2"
)

var emailTemplates = template.Must(template.New("activation").Parse(`<html>
<body>
	<h2>Welcome to Onboard Buddy</h2>
	<p>Use the following code to activate your account:</p>
	<h3>{{.Code}}</h3>
	<p>This code expires in 48 hours and can only be used once.</p>
</body>
</html>`))

func init() {
	template.Must(emailTemplates.New("share").Parse(`<html>
<body>
	<h2>{{.From}} shared an onboarding workflow with you</h2>
	<p><a href="{{.URL}}">Open the workflow</a></p>
	{{if .Expires}}<p>The link expires on {{.Expires}}.</p>{{end}}
</body>
</html>`))
}

// Mailer sends transactional email over SMTP.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewMailer(cfg config.Config) *Mailer {
	return &Mailer{
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword),
		from:   cfg.FromEmail,
	}
}

func (m *Mailer) send(to, subject, tmpl string, data interface{}) error {
	if m.dialer.Host == "" {
		return fmt.Errorf("SMTP is not configured")
	}

	var body bytes.Buffer
	if err := emailTemplates.ExecuteTemplate(&body, tmpl, data); err != nil {
		return fmt.Errorf("error executing template: %w", err)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", fmt.Sprintf("Onboard Buddy <%s>", m.from))
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body.String())

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("error sending email: %w", err)
	}
	return nil
}

func (m *Mailer) SendActivationCode(to, code string) error {
	return m.send(to, "Your Onboard Buddy activation code", "activation", struct{ Code string }{code})
}

func (m *Mailer) SendShareInvite(to, from, url, expires string) error {
	return m.send(to, from+" shared an onboarding workflow", "share", struct {
		From, URL, Expires string
	}{from, url, expires})
}
