package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"

	"inventory-api/internal/logging"
)

// Service sends transactional email over SMTP.
type Service struct {
	smtpHost     string
	smtpPort     string
	smtpUser     string
	smtpPassword string
	fromEmail    string
}

func NewService(smtpHost, smtpPort, smtpUser, smtpPassword string) *Service {
	return &Service{
		smtpHost:     smtpHost,
		smtpPort:     smtpPort,
		smtpUser:     smtpUser,
		smtpPassword: smtpPassword,
		fromEmail:    smtpUser,
	}
}

var passwordResetTemplate = template.Must(template.New("passwordReset").Parse(`
<div style="font-family: Arial, sans-serif; font-size: 16px; line-height: 1.6;">
  <h2>Hello {{.Name}}</h2>
  <p>Please use the URL below to reset your password:</p>
  <p>This link is valid for <strong>30 minutes</strong>.</p>
  <a href="{{.ResetURL}}" style="color: #2D89EF; text-decoration: none;">{{.ResetURL}}</a>
  <p>Regards,</p>
  <p><strong>Inventory Management Team</strong></p>
</div>
`))

// SendPasswordReset renders and delivers the password reset email.
// The caller awaits the result: delivery failures surface to the user.
func (s *Service) SendPasswordReset(ctx context.Context, toEmail, userName, resetURL string) error {
	logger := logging.GetLoggerFromContext(ctx)

	var buf bytes.Buffer
	data := struct {
		Name     string
		ResetURL string
	}{
		Name:     userName,
		ResetURL: resetURL,
	}
	if err := passwordResetTemplate.Execute(&buf, data); err != nil {
		return fmt.Errorf("render template: %w", err)
	}

	if err := s.Send(toEmail, s.fromEmail, "Password Reset Request", buf.String()); err != nil {
		logger.Error("failed to send password reset email", "email", toEmail, "error", err)
		return fmt.Errorf("send email: %w", err)
	}

	logger.Info("password reset email sent", "email", toEmail)
	return nil
}

// Send delivers an HTML email to a single recipient.
func (s *Service) Send(to, replyTo, subject, htmlBody string) error {
	auth := smtp.PlainAuth("", s.smtpUser, s.smtpPassword, s.smtpHost)

	msg := []byte(fmt.Sprintf(
		"From: %s\r\n"+
			"To: %s\r\n"+
			"Reply-To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=UTF-8\r\n"+
			"\r\n"+
			"%s\r\n",
		s.fromEmail, to, replyTo, subject, htmlBody,
	))

	addr := fmt.Sprintf("%s:%s", s.smtpHost, s.smtpPort)
	return smtp.SendMail(addr, auth, s.fromEmail, []string{to}, msg)
}
