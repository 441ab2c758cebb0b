package mail

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/nade-api/pkg/config"
	"github.com/noah-isme/nade-api/pkg/logger"
)

// Message is a single outbound email.
type Message struct {
	To      string
	ToName  string
	Subject string
	Text    string
	HTML    string
}

// Sender delivers messages synchronously. Callers that must not block a
// request go through the jobs queue.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// ErrNoRecipient is returned for messages without a destination address.
var ErrNoRecipient = errors.New("mail: message has no recipient")

// New picks the transport named by MAIL_DRIVER.
func New(cfg config.MailConfig, env string, log *zap.Logger) (Sender, error) {
	switch strings.ToLower(cfg.Driver) {
	case config.MailDriverSendGrid:
		if cfg.SendGridAPIKey == "" {
			return nil, errors.New("mail: SENDGRID_API_KEY is required for the sendgrid driver")
		}
		return NewSendGrid(cfg.SendGridAPIKey, cfg.FromName, cfg.From), nil
	case "", config.MailDriverLog:
		return NewLogSender(log, env == config.EnvDevelopment), nil
	default:
		return nil, errors.New("mail: unknown driver " + cfg.Driver)
	}
}

// LogSender writes messages to the log instead of delivering them. Bodies
// are only included when verbose is set, which main enables in development.
type LogSender struct {
	logger  *zap.Logger
	verbose bool
}

func NewLogSender(log *zap.Logger, verbose bool) *LogSender {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogSender{logger: log, verbose: verbose}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	if msg.To == "" {
		return ErrNoRecipient
	}
	fields := []zap.Field{logger.Email("to", msg.To), zap.String("subject", msg.Subject)}
	if s.verbose {
		fields = append(fields, zap.String("text", msg.Text))
	}
	s.logger.Info("mail not delivered (log driver)", fields...)
	return nil
}
