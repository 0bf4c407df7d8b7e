package mailservice

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sushihentaime/blogify/internal/common"
	"github.com/sushihentaime/blogify/internal/userservice"
	"golang.org/x/exp/rand"
)

func NewMailService(mb common.MessageConsumer, cfg MailConfig, logger *slog.Logger) *MailService {
	ctx, cancel := context.WithCancel(context.Background())
	return &MailService{
		mb:         mb,
		m:          NewMailer(cfg, NewTemplate()),
		logger:     logger,
		siteURL:    strings.TrimRight(cfg.SiteURL, "/"),
		maxRetries: 5,
		baseDelay:  500 * time.Millisecond,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// SendWelcomeEmail consumes user.created messages until Close is called.
func (s *MailService) SendWelcomeEmail() {
	msgs, err := s.mb.Consume(common.UserCreatedKey, common.UserExchange, common.UserCreatedQueue)
	if err != nil {
		s.logger.Error("could not consume message", slog.String("error", err.Error()))
		return
	}

	s.done = make(chan struct{})

	go func() {
		defer close(s.done)

		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				s.handle(msg)

			case <-s.ctx.Done():
				s.logger.Info("stopping SendWelcomeEmail due to context cancellation")
				return
			}
		}
	}()
}

func (s *MailService) handle(msg amqp.Delivery) {
	var data userservice.UserCreatedMessage

	err := json.Unmarshal(msg.Body, &data)
	if err != nil || data.Email == "" {
		s.logger.Error("could not unmarshal message", slog.String("body", string(msg.Body)))
		msg.Ack(false)
		return
	}

	payload := welcomeData{Name: data.Name, SiteURL: s.siteURL}

	// using exponential backoff with jitter
	var attempt int
	for attempt = 0; attempt < s.maxRetries; attempt++ {
		err = s.m.send(data.Email, payload, welcomeTemplate)
		if err == nil {
			s.logger.Info("welcome email sent", slog.String("email", data.Email))
			msg.Ack(false)
			return
		}

		delay := time.Duration(rand.Int63n(int64(s.baseDelay) << uint(attempt)))
		s.logger.Info("delaying welcome email", slog.String("email", data.Email), slog.Int("attempt", attempt), slog.Duration("delay", delay))

		select {
		case <-time.After(delay):
		case <-s.ctx.Done():
			return
		}
	}

	s.logger.Error("could not send welcome email", slog.String("email", data.Email), slog.String("error", err.Error()))
	msg.Ack(false)
}

func (s *MailService) Close() {
	s.cancel()
	if s.done != nil {
		<-s.done
	}
}
