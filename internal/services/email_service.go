package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/rcaluag/registrar/internal/models"
	pkglogger "github.com/rcaluag/registrar/pkg/logger"
)

// EmailService defines the interface for outbound mail
type EmailService interface {
	SendPasswordReset(ctx context.Context, email, resetLink string) error
	SendAdmissionDecision(ctx context.Context, applicant *models.Applicant) error
}

// AWSSESEmailService sends emails using AWS SES
type AWSSESEmailService struct {
	sesClient   *ses.Client
	fromAddress string
	logger      *slog.Logger
}

// NewAWSSESEmailService creates a new AWS SES email service
func NewAWSSESEmailService(region, fromAddress string, logger *slog.Logger) (*AWSSESEmailService, error) {
	cfg, err := config.LoadDefaultConfig(context.Background(), config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &AWSSESEmailService{
		sesClient:   ses.NewFromConfig(cfg),
		fromAddress: fromAddress,
		logger:      logger,
	}, nil
}

// SendPasswordReset mails the reset link to the account address
func (s *AWSSESEmailService) SendPasswordReset(ctx context.Context, email, resetLink string) error {
	textBody := fmt.Sprintf(`Reset your password

We received a request to reset the password for your account.

%s

The link expires in one hour. If you did not request a reset, you can ignore this email; your password will not change.

This is an automated message. Please do not reply.
`, resetLink)

	htmlBody := fmt.Sprintf(`<p>We received a request to reset the password for your account.</p>
<p><a href="%s">Reset your password</a></p>
<p>The link expires in one hour. If you did not request a reset, you can ignore this email; your password will not change.</p>
`, resetLink)

	return s.send(ctx, email, "Reset your password", textBody, htmlBody)
}

// SendAdmissionDecision mails the approve/reject notice to an applicant
func (s *AWSSESEmailService) SendAdmissionDecision(ctx context.Context, applicant *models.Applicant) error {
	var subject, textBody, htmlBody string

	switch applicant.Status {
	case models.ApplicantApproved:
		subject = "Your application has been approved"
		textBody = fmt.Sprintf(`Dear %s %s,

Congratulations! Your application for grade %d has been approved. The registrar's office will follow up with your enrollment details.
`, applicant.FirstName, applicant.LastName, applicant.GradeLevel)
		htmlBody = fmt.Sprintf(`<p>Dear %s %s,</p>
<p>Congratulations! Your application for grade %d has been <strong>approved</strong>. The registrar's office will follow up with your enrollment details.</p>
`, applicant.FirstName, applicant.LastName, applicant.GradeLevel)
	case models.ApplicantRejected:
		subject = "An update on your application"
		textBody = fmt.Sprintf(`Dear %s %s,

Thank you for applying. We are unable to offer you a place at this time.
`, applicant.FirstName, applicant.LastName)
		htmlBody = fmt.Sprintf(`<p>Dear %s %s,</p>
<p>Thank you for applying. We are unable to offer you a place at this time.</p>
`, applicant.FirstName, applicant.LastName)
	default:
		return fmt.Errorf("no decision notice for applicant status %q", applicant.Status)
	}

	return s.send(ctx, applicant.Email, subject, textBody, htmlBody)
}

func (s *AWSSESEmailService) send(ctx context.Context, to, subject, textBody, htmlBody string) error {
	input := &ses.SendEmailInput{
		Source: aws.String(s.fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String(subject),
			},
			Body: &types.Body{
				Html: &types.Content{
					Data: aws.String(htmlBody),
				},
				Text: &types.Content{
					Data: aws.String(textBody),
				},
			},
		},
	}

	result, err := s.sesClient.SendEmail(ctx, input)
	if err != nil {
		s.logger.Error("failed to send email via SES",
			slog.String("email", pkglogger.SanitizedEmail(to)),
			slog.Any("error", err))
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("email sent",
		slog.String("email", pkglogger.SanitizedEmail(to)),
		slog.String("message_id", *result.MessageId))

	return nil
}

// NoopEmailService logs instead of sending; used when EMAIL_ENABLED is off.
type NoopEmailService struct {
	logger *slog.Logger
}

func NewNoopEmailService(logger *slog.Logger) *NoopEmailService {
	return &NoopEmailService{logger: logger}
}

func (s *NoopEmailService) SendPasswordReset(ctx context.Context, email, resetLink string) error {
	s.logger.Info("email disabled, skipping password reset mail",
		slog.String("email", pkglogger.SanitizedEmail(email)))
	return nil
}

func (s *NoopEmailService) SendAdmissionDecision(ctx context.Context, applicant *models.Applicant) error {
	s.logger.Info("email disabled, skipping admission decision mail",
		slog.String("email", pkglogger.SanitizedEmail(applicant.Email)))
	return nil
}
