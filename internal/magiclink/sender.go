package magiclink

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mrz1836/postmark"
)

// Sender delivers a magic-link login URL to an email address.
type Sender interface {
	SendLoginLink(ctx context.Context, email, loginURL string, ttl time.Duration) error
}

// PostmarkConfig configures the Postmark-backed sender.
type PostmarkConfig struct {
	ServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	AccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail  string `env:"SENDER_EMAIL" envDefault:"no-reply@localhost"`
}

// PostmarkSender sends login links through Postmark's transactional API.
type PostmarkSender struct {
	client *postmark.Client
	from   string
}

// NewPostmarkSender creates a Postmark-backed sender.
// Tokens are required here; development environments use NewDevSender instead.
func NewPostmarkSender(cfg PostmarkConfig) (*PostmarkSender, error) {
	if cfg.ServerToken == "" || cfg.AccountToken == "" {
		return nil, errors.New("magiclink: postmark tokens are required")
	}
	if cfg.SenderEmail == "" {
		return nil, errors.New("magiclink: sender email is required")
	}
	return &PostmarkSender{
		client: postmark.NewClient(cfg.ServerToken, cfg.AccountToken),
		from:   cfg.SenderEmail,
	}, nil
}

// SendLoginLink emails the login URL.
func (s *PostmarkSender) SendLoginLink(ctx context.Context, email, loginURL string, ttl time.Duration) error {
	minutes := int(ttl.Minutes())

	resp, err := s.client.SendEmail(ctx, postmark.Email{
		From:     s.from,
		To:       email,
		Subject:  "Your sign-in link",
		Tag:      "magic-link",
		TextBody: fmt.Sprintf("Click to sign in: %s\n\nThe link expires in %d minutes. If you did not request it, ignore this email.", loginURL, minutes),
		HTMLBody: fmt.Sprintf(`<p><a href=%q>Click here to sign in</a>.</p><p>The link expires in %d minutes. If you did not request it, ignore this email.</p>`, loginURL, minutes),
	})
	if err != nil {
		return errors.Join(ErrFailedToSend, err)
	}
	if resp.ErrorCode > 0 {
		return errors.Join(ErrFailedToSend, fmt.Errorf("postmark error: %d - %s", resp.ErrorCode, resp.Message))
	}
	return nil
}

// DevSender logs login links instead of emailing them, for local development.
type DevSender struct {
	log *slog.Logger
}

// NewDevSender creates a sender that writes links to the logger.
func NewDevSender(log *slog.Logger) *DevSender {
	return &DevSender{log: log}
}

// SendLoginLink logs the login URL.
func (s *DevSender) SendLoginLink(ctx context.Context, email, loginURL string, ttl time.Duration) error {
	s.log.InfoContext(ctx, "magic link issued",
		slog.String("email", email),
		slog.String("url", loginURL),
		slog.Duration("ttl", ttl),
	)
	return nil
}
