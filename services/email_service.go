package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Dosada05/efootball-cup/models"
	"github.com/matcornic/hermes/v2"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Mailer delivers one rendered email.
type Mailer interface {
	Send(ctx context.Context, toEmail, toName, subject, htmlBody, textBody string) error
}

type sendGridMailer struct {
	client *sendgrid.Client
	from   *mail.Email
}

func NewSendGridMailer(apiKey, fromEmail, fromName string) Mailer {
	return &sendGridMailer{
		client: sendgrid.NewSendClient(apiKey),
		from:   mail.NewEmail(fromName, fromEmail),
	}
}

func (m *sendGridMailer) Send(ctx context.Context, toEmail, toName, subject, htmlBody, textBody string) error {
	message := mail.NewSingleEmail(m.from, subject, mail.NewEmail(toName, toEmail), textBody, htmlBody)
	resp, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid request failed: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid rejected email with status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

type logMailer struct {
	logger *slog.Logger
}

// NewLogMailer only logs outgoing email. Used when no email provider is configured.
func NewLogMailer(logger *slog.Logger) Mailer {
	return &logMailer{logger: logger}
}

func (m *logMailer) Send(ctx context.Context, toEmail, toName, subject, htmlBody, textBody string) error {
	m.logger.Info("email (not delivered, no provider configured)",
		slog.String("to", toEmail),
		slog.String("subject", subject),
		slog.String("body", textBody))
	return nil
}

// EmailService рендерит письма через hermes и отправляет их через Mailer.
type EmailService struct {
	hermes  hermes.Hermes
	mailer  Mailer
	baseURL string
}

func NewEmailService(mailer Mailer, appName, appURL string) *EmailService {
	return &EmailService{
		hermes: hermes.Hermes{
			Product: hermes.Product{
				Name: appName,
				Link: appURL,
			},
		},
		mailer:  mailer,
		baseURL: strings.TrimSuffix(appURL, "/"),
	}
}

func (s *EmailService) render(email hermes.Email) (string, string, error) {
	html, err := s.hermes.GenerateHTML(email)
	if err != nil {
		return "", "", fmt.Errorf("failed to render email html: %w", err)
	}
	text, err := s.hermes.GeneratePlainText(email)
	if err != nil {
		return "", "", fmt.Errorf("failed to render email text: %w", err)
	}
	return html, text, nil
}

func (s *EmailService) SendNotification(ctx context.Context, toEmail, toName string, n models.Notification) error {
	body := hermes.Body{
		Name:   toName,
		Intros: []string{n.Message},
	}
	if n.Link != nil && *n.Link != "" {
		body.Actions = []hermes.Action{{
			Instructions: "Open the tournament site for details:",
			Button: hermes.Button{
				Text: "View",
				Link: s.baseURL + *n.Link,
			},
		}}
	}

	html, text, err := s.render(hermes.Email{Body: body})
	if err != nil {
		return err
	}
	return s.mailer.Send(ctx, toEmail, toName, n.Title, html, text)
}

func (s *EmailService) SendPasswordResetCode(ctx context.Context, toEmail, toName, code string, ttl time.Duration) error {
	email := hermes.Email{
		Body: hermes.Body{
			Name:   toName,
			Intros: []string{"You asked to reset your password."},
			Dictionary: []hermes.Entry{
				{Key: "Code", Value: code},
				{Key: "Valid for", Value: fmt.Sprintf("%d minutes", int(ttl.Minutes()))},
			},
			Outros: []string{"If you did not request a reset, ignore this email."},
		},
	}
	html, text, err := s.render(email)
	if err != nil {
		return err
	}
	return s.mailer.Send(ctx, toEmail, toName, "Password reset code", html, text)
}
