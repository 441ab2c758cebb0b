package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/nade-api/pkg/jobs"
	"github.com/noah-isme/nade-api/pkg/mail"
)

const jobKindMail = "mail"

// MailService delivers outbound mail on a background queue so request
// handlers never wait on the mail provider.
type MailService struct {
	sender  mail.Sender
	queue   *jobs.Queue
	metrics *MetricsService
	logger  *zap.Logger
}

// NewMailService builds the service and its (stopped) queue.
func NewMailService(sender mail.Sender, metrics *MetricsService, cfg jobs.Config) *MailService {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	s := &MailService{sender: sender, metrics: metrics, logger: cfg.Logger}
	s.queue = jobs.NewQueue("mail", s.deliver, cfg)
	return s
}

// Start launches the delivery workers.
func (s *MailService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains in-flight deliveries.
func (s *MailService) Stop() {
	s.queue.Stop()
}

// Enqueue schedules msg for delivery.
func (s *MailService) Enqueue(ctx context.Context, msg mail.Message) error {
	if msg.To == "" {
		return mail.ErrNoRecipient
	}
	return s.queue.Enqueue(ctx, jobs.Job{ID: uuid.NewString(), Kind: jobKindMail, Payload: msg})
}

// SendPasswordReset queues the reset link for a user.
func (s *MailService) SendPasswordReset(ctx context.Context, to, name, link string) error {
	return s.Enqueue(ctx, PasswordResetMessage(to, name, link))
}

func (s *MailService) deliver(ctx context.Context, job jobs.Job) error {
	msg, ok := job.Payload.(mail.Message)
	if !ok {
		s.logger.Error("unexpected mail payload", zap.String("job_id", job.ID))
		return nil
	}
	err := s.sender.Send(ctx, msg)
	s.metrics.MailDelivered(err)
	return err
}

// PasswordResetMessage renders the reset email in Portuguese.
func PasswordResetMessage(to, name, link string) mail.Message {
	greeting := "Olá"
	if name != "" {
		greeting = "Olá, " + name
	}
	text := fmt.Sprintf("%s.\n\nRecebemos uma solicitação para redefinir sua senha no sistema NADE.\n"+
		"Acesse o link abaixo em até 10 minutos:\n\n%s\n\nSe você não fez esta solicitação, ignore este email.\n", greeting, link)
	html := fmt.Sprintf("<p>%s.</p><p>Recebemos uma solicitação para redefinir sua senha no sistema NADE.</p>"+
		"<p><a href=\"%s\">Redefinir senha</a> (válido por 10 minutos)</p>"+
		"<p>Se você não fez esta solicitação, ignore este email.</p>", greeting, link)
	return mail.Message{
		To:      to,
		ToName:  name,
		Subject: "Recuperação de senha - NADE",
		Text:    text,
		HTML:    html,
	}
}
