package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/fitprogress/internal/lib/sl"
)

const maxInFlight = 10

// ErrPermanent помечает ошибку обработчика, после которой повторная доставка не поможет:
// битое сообщение или получатель, которого больше нет. Такое сообщение отбрасывается.
var ErrPermanent = errors.New("permanent failure")

// ConsumerMessage запускает чтение очереди queueName. Каждое сообщение обрабатывается
// в отдельной горутине, не больше maxInFlight одновременно. Ошибка обработчика
// возвращает сообщение в очередь, кроме ошибок с ErrPermanent.
func ConsumerMessage(ctx context.Context, log *slog.Logger, ch *amqp.Channel, queueName string, handler func([]byte) error) error {
	const op = "rabbitmq.ConsumerMessage"
	delivery, err := ch.Consume(
		queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	sem := make(chan struct{}, maxInFlight)
	go func() {
		for {
			select {
			case d, ok := <-delivery:
				if !ok {
					return
				}
				sem <- struct{}{}
				go func(d amqp.Delivery) {
					defer func() { <-sem }()
					handleDelivery(log, d, handler)
				}(d)
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

// handleDelivery передаёт тело обработчику и подтверждает доставку по результату.
func handleDelivery(log *slog.Logger, d amqp.Delivery, handler func([]byte) error) {
	const op = "rabbitmq.handleDelivery"

	err := handler(d.Body)
	if err == nil {
		if ackErr := d.Ack(false); ackErr != nil {
			log.Error("failed to ack message", sl.Op(op), sl.Err(ackErr))
		}
		return
	}

	requeue := !errors.Is(err, ErrPermanent)
	if requeue {
		log.Warn("handler failed, requeue", sl.Op(op), sl.Err(err))
	} else {
		log.Error("handler failed permanently, dropping message", sl.Op(op), sl.Err(err))
	}
	if nackErr := d.Nack(false, requeue); nackErr != nil {
		log.Error("failed to nack message", sl.Op(op), sl.Err(nackErr))
	}
}
