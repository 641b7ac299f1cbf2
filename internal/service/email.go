package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"toolrent-backend/internal/config"
	"toolrent-backend/internal/logger"
)

// sendGridEmailService delivers booking and deposit lifecycle mail through
// SendGrid. With no API key configured, sends are logged and skipped so local
// environments work without an account.
type sendGridEmailService struct {
	apiKey    string
	fromEmail string
	fromName  string
}

func NewEmailService(cfg *config.SendGridConfig) EmailService {
	return &sendGridEmailService{
		apiKey:    cfg.APIKey,
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
	}
}

func (s *sendGridEmailService) send(ctx context.Context, toEmail, subject, plain, html string) error {
	if s.apiKey == "" {
		logger.Info("Email delivery skipped, no SendGrid API key configured",
			"to", toEmail, "subject", subject)
		return nil
	}

	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail("", toEmail)
	message := mail.NewSingleEmail(from, subject, to, plain, html)

	client := sendgrid.NewSendClient(s.apiKey)
	start := time.Now()
	resp, err := client.SendWithContext(ctx, message)
	logger.ExternalServiceResult("sendgrid", "send", err, "duration", time.Since(start))
	if err != nil {
		return fmt.Errorf("sendgrid send failed: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send rejected with status %d: %s", resp.StatusCode, resp.Body)
	}

	logger.Debug("Email sent", "to", toEmail, "subject", subject, "status", resp.StatusCode)
	return nil
}

func (s *sendGridEmailService) SendBookingCreated(ctx context.Context, ownerEmail, renterName, toolName string) error {
	subject := fmt.Sprintf("New booking request for %s", toolName)
	plain := fmt.Sprintf("%s wants to rent your %s. Open the app to accept or decline the request.", renterName, toolName)
	html := fmt.Sprintf("<p><strong>%s</strong> wants to rent your <strong>%s</strong>.</p><p>Open the app to accept or decline the request.</p>", renterName, toolName)
	return s.send(ctx, ownerEmail, subject, plain, html)
}

func (s *sendGridEmailService) SendBookingAccepted(ctx context.Context, renterEmail, toolName, validationCode string) error {
	subject := fmt.Sprintf("Your booking for %s is confirmed", toolName)
	plain := fmt.Sprintf("Your booking for %s has been accepted. Show the owner this pickup code: %s", toolName, validationCode)
	html := fmt.Sprintf("<p>Your booking for <strong>%s</strong> has been accepted.</p><p>Show the owner this pickup code: <strong>%s</strong></p>", toolName, validationCode)
	return s.send(ctx, renterEmail, subject, plain, html)
}

func (s *sendGridEmailService) SendBookingStarted(ctx context.Context, renterEmail, toolName string) error {
	subject := fmt.Sprintf("Your rental of %s has started", toolName)
	plain := fmt.Sprintf("Enjoy your rental of %s. Remember to mark the tool as returned at the end of the rental.", toolName)
	html := fmt.Sprintf("<p>Enjoy your rental of <strong>%s</strong>.</p><p>Remember to mark the tool as returned at the end of the rental.</p>", toolName)
	return s.send(ctx, renterEmail, subject, plain, html)
}

func (s *sendGridEmailService) SendBookingCancelled(ctx context.Context, email, toolName, reason string) error {
	subject := fmt.Sprintf("Booking for %s cancelled", toolName)
	plain := fmt.Sprintf("The booking for %s has been cancelled. Reason: %s", toolName, reason)
	html := fmt.Sprintf("<p>The booking for <strong>%s</strong> has been cancelled.</p><p>Reason: %s</p>", toolName, reason)
	return s.send(ctx, email, subject, plain, html)
}

func (s *sendGridEmailService) SendDepositReminder(ctx context.Context, renterEmail, toolName string, amountCents int64, captureAt time.Time) error {
	subject := fmt.Sprintf("Security deposit for %s", toolName)
	plain := fmt.Sprintf("A security deposit of %s will be charged to your saved payment method on %s for your upcoming rental of %s.",
		formatAmount(amountCents), captureAt.Format("January 2, 2006 at 15:04 MST"), toolName)
	html := fmt.Sprintf("<p>A security deposit of <strong>%s</strong> will be charged to your saved payment method on %s for your upcoming rental of <strong>%s</strong>.</p>",
		formatAmount(amountCents), captureAt.Format("January 2, 2006 at 15:04 MST"), toolName)
	return s.send(ctx, renterEmail, subject, plain, html)
}

func (s *sendGridEmailService) SendDepositCaptured(ctx context.Context, renterEmail, toolName string, amountCents int64) error {
	subject := fmt.Sprintf("Security deposit charged for %s", toolName)
	plain := fmt.Sprintf("Your security deposit of %s for %s has been charged. It will be released after the tool is returned.",
		formatAmount(amountCents), toolName)
	html := fmt.Sprintf("<p>Your security deposit of <strong>%s</strong> for <strong>%s</strong> has been charged.</p><p>It will be released after the tool is returned.</p>",
		formatAmount(amountCents), toolName)
	return s.send(ctx, renterEmail, subject, plain, html)
}

func (s *sendGridEmailService) SendDepositFailed(ctx context.Context, renterEmail, toolName, reason string) error {
	subject := fmt.Sprintf("Security deposit payment failed for %s", toolName)
	plain := fmt.Sprintf("We could not charge the security deposit for your rental of %s (%s). Please update your payment method in the app.", toolName, reason)
	html := fmt.Sprintf("<p>We could not charge the security deposit for your rental of <strong>%s</strong> (%s).</p><p>Please update your payment method in the app.</p>", toolName, reason)
	return s.send(ctx, renterEmail, subject, plain, html)
}

func formatAmount(cents int64) string {
	return fmt.Sprintf("%d.%02d EUR", cents/100, cents%100)
}
