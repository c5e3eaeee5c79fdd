// Package services отправляет письма по событиям из брокера.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/fitprogress/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/fitprogress/internal/lib/sl"
	"github.com/magabrotheeeer/fitprogress/internal/lib/smtp"
	"github.com/magabrotheeeer/fitprogress/internal/models"
)

// Repository нужен, когда в событии нет адреса получателя.
type Repository interface {
	GetUser(ctx context.Context, userUID string) (*models.User, error)
}

// SenderService собирает письмо и передаёт его SMTP-серверу.
type SenderService struct {
	repo      Repository
	transport smtp.TransportInterface
	log       *slog.Logger
}

// NewSenderService создает новый экземпляр SenderService.
func NewSenderService(repo Repository, log *slog.Logger, transport smtp.TransportInterface) *SenderService {
	return &SenderService{
		repo:      repo,
		transport: transport,
		log:       log,
	}
}

// SendEvaluationUnlocked уведомляет пользователя, что раздел фото-оценки открыт.
func (s *SenderService) SendEvaluationUnlocked(ctx context.Context, body []byte) error {
	var event models.EvaluationUnlocked
	if err := json.Unmarshal(body, &event); err != nil {
		s.log.Error("Failed to unmarshal message body", sl.Err(err))
		return fmt.Errorf("%w: error unmarshalling message: %w", rabbitmq.ErrPermanent, err)
	}

	if event.Email == "" {
		if event.UserUID == "" {
			return fmt.Errorf("%w: event without recipient", rabbitmq.ErrPermanent)
		}
		user, err := s.repo.GetUser(ctx, event.UserUID)
		if err != nil {
			s.log.Error("Failed to get user", slog.String("user_uid", event.UserUID), sl.Err(err))
			if errors.Is(err, models.ErrUserNotFound) {
				return fmt.Errorf("%w: failed to get user: %w", rabbitmq.ErrPermanent, err)
			}
			return fmt.Errorf("failed to get user: %w", err)
		}
		event.Email = user.Email
		event.Username = user.Username
	}

	subject := "Раздел фото-оценки открыт"
	bodyText := fmt.Sprintf("Здравствуйте, %s!\n\n"+
		"Прошла первая неделя программы, и раздел фото-оценки теперь доступен.\n"+
		"Загрузите фото, чтобы тренер оценил ваш прогресс.",
		event.Username)

	return s.sendEmail(ctx, []string{event.Email}, subject, bodyText)
}

func (s *SenderService) sendEmail(ctx context.Context, to []string, subject, bodyText string) error {
	msg := strings.Join([]string{
		"From: " + s.transport.GetSMTPUser(),
		"To: " + strings.Join(to, ";"),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect(ctx)
	if err != nil {
		s.log.Error("Failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer client.Close()

	if err := client.Mail(s.transport.GetSMTPUser()); err != nil {
		s.log.Error("Failed to set MAIL FROM", slog.String("from", s.transport.GetSMTPUser()), sl.Err(err))
		return err
	}

	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("Failed to set RCPT TO", slog.String("recipient", addr), sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("Failed to get Data writer", sl.Err(err))
		return err
	}

	if _, err = wc.Write([]byte(msg)); err != nil {
		s.log.Error("Failed to write email body", sl.Err(err))
		return err
	}

	if err = wc.Close(); err != nil {
		s.log.Error("Failed to close Data writer", sl.Err(err))
		return err
	}

	if err = client.Quit(); err != nil {
		s.log.Error("Failed to quit SMTP client", sl.Err(err))
		return err
	}

	s.log.Info("email sent successfully", slog.Any("to", to))
	return nil
}
