// Package sender собирает рассыльщик писем: читает события открытия оценки из RabbitMQ
// и отправляет письма через SMTP.
package sender

import (
	"context"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/fitprogress/internal/config"
	"github.com/magabrotheeeer/fitprogress/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/fitprogress/internal/lib/sl"
	"github.com/magabrotheeeer/fitprogress/internal/lib/smtp"
	senderservice "github.com/magabrotheeeer/fitprogress/internal/services/sender"
	"github.com/magabrotheeeer/fitprogress/internal/storage/repository"
)

// App потребитель очереди событий.
type App struct {
	conn          *amqp.Connection
	ch            *amqp.Channel
	db            *repository.Storage
	senderService *senderservice.SenderService
	logger        *slog.Logger
}

// New подключается к хранилищу и брокеру и объявляет очереди.
func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.Storage.Driver, cfg.DSN)
	if err != nil {
		return nil, err
	}
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logger.Error("failed to close storage", sl.Err(closeErr))
		}
		return nil, err
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetProgressQueues())
	if err != nil {
		if closeErr := conn.Close(); closeErr != nil {
			logger.Error("failed to close connection", sl.Err(closeErr))
		}
		if closeErr := db.Close(); closeErr != nil {
			logger.Error("failed to close storage", sl.Err(closeErr))
		}
		return nil, err
	}

	transport := smtp.NewTransport(cfg.SMTP, logger)
	return &App{
		conn:          conn,
		ch:            ch,
		db:            db,
		senderService: senderservice.NewSenderService(db, logger, transport),
		logger:        logger,
	}, nil
}

// Run читает очередь до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	handler := func(body []byte) error {
		return a.senderService.SendEvaluationUnlocked(ctx, body)
	}
	if err := rabbitmq.ConsumerMessage(ctx, a.logger, a.ch, rabbitmq.QueueEvaluationUnlocked, handler); err != nil {
		a.logger.Error("failed to start consumer", slog.String("queue", rabbitmq.QueueEvaluationUnlocked), sl.Err(err))
		return err
	}
	a.logger.Info("consumer started", slog.String("queue", rabbitmq.QueueEvaluationUnlocked))

	<-ctx.Done()
	a.logger.Info("Sender service shutting down gracefully")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close storage", sl.Err(err))
	}
	return nil
}
