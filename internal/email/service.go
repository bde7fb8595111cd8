package email

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
	"sync"

	"cropdoc/internal/config"
)

// Sender defines the email-delivery capability consumed by the handlers.
// Delivery is best-effort: callers decide the protocol outcome first and
// only log a failed send.
type Sender interface {
	SendOTPEmail(to, name, code string) error
	SendPasswordChangedEmail(to, name string) error
}

// Service implements the Sender interface over SMTP
type Service struct {
	config config.EmailConfig
	client *smtp.Client
	mu     sync.Mutex
}

// NewService creates a new email service
func NewService(cfg config.EmailConfig) *Service {
	return &Service{config: cfg}
}

// dialSMTP establishes an SMTP connection, reusing a live one if possible
func (s *Service) dialSMTP() (*smtp.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		if err := s.client.Noop(); err == nil {
			return s.client, nil
		}
		s.client.Close()
		s.client = nil
	}

	addr := fmt.Sprintf("%s:%d", s.config.SMTPHost, s.config.SMTPPort)
	client, err := smtp.Dial(addr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial SMTP server: %w", err)
	}

	if err := client.Auth(smtp.PlainAuth("", s.config.SMTPUsername, s.config.SMTPPassword, s.config.SMTPHost)); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to authenticate with SMTP server: %w", err)
	}

	s.client = client
	return client, nil
}

// send delivers one message using a pooled SMTP connection
func (s *Service) send(to, subject, body string) error {
	if s.config.SMTPHost == "" || s.config.SMTPPort == 0 || s.config.FromAddress == "" {
		return fmt.Errorf("incomplete email configuration")
	}

	msg := fmt.Sprintf("To: %s\r\n"+
		"From: %s\r\n"+
		"Subject: %s\r\n"+
		"MIME-Version: 1.0\r\n"+
		"Content-Type: text/html; charset=UTF-8\r\n"+
		"\r\n"+
		"%s", to, s.config.FromAddress, subject, body)

	client, err := s.dialSMTP()
	if err != nil {
		return err
	}

	if err := client.Mail(s.config.SMTPUsername); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("failed to add recipient %s: %w", to, err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to create message writer: %w", err)
	}
	if _, err := w.Write([]byte(msg)); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close message writer: %w", err)
	}

	return nil
}

// Close closes the SMTP connection
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		err := s.client.Quit()
		s.client = nil
		return err
	}
	return nil
}

var otpTemplate = template.Must(template.New("otp").Parse(`
	<h2>Hello {{.Name}},</h2>
	<p>Your {{.App}} verification code is:</p>
	<h1>{{.Code}}</h1>
	<p>This code will expire in 10 minutes.</p>
	<p>If you did not request this code, no further action is required.</p>
`))

var passwordChangedTemplate = template.Must(template.New("changed").Parse(`
	<h2>Hello {{.Name}},</h2>
	<p>Your {{.App}} account password was just changed.</p>
	<p>If this was not you, reset your password immediately.</p>
`))

// SendOTPEmail delivers a one-time verification code
func (s *Service) SendOTPEmail(to, name, code string) error {
	var body bytes.Buffer
	if err := otpTemplate.Execute(&body, map[string]string{
		"Name": name,
		"App":  s.config.AppName,
		"Code": code,
	}); err != nil {
		return fmt.Errorf("failed to execute email template: %w", err)
	}

	subject := fmt.Sprintf("Your %s verification code", s.config.AppName)
	if err := s.send(to, subject, body.String()); err != nil {
		return fmt.Errorf("failed to send verification code: %w", err)
	}
	return nil
}

// SendPasswordChangedEmail notifies the user of a credential change
func (s *Service) SendPasswordChangedEmail(to, name string) error {
	var body bytes.Buffer
	if err := passwordChangedTemplate.Execute(&body, map[string]string{
		"Name": name,
		"App":  s.config.AppName,
	}); err != nil {
		return fmt.Errorf("failed to execute email template: %w", err)
	}

	subject := fmt.Sprintf("Your %s password was changed", s.config.AppName)
	if err := s.send(to, subject, body.String()); err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	return nil
}
