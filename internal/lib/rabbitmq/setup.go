package rabbitmq

import (
	"fmt"

	"github.com/streadway/amqp"
)

const (
	// ExchangeProgress обменник событий прогресса.
	ExchangeProgress = "progress"
	// RoutingKeyEvaluationUnlocked ключ события открытия раздела оценки.
	RoutingKeyEvaluationUnlocked = "evaluation.unlocked"
	// QueueEvaluationUnlocked очередь, из которой читает рассыльщик писем.
	QueueEvaluationUnlocked = "progress.evaluation.unlocked"
)

// QueueConfig очередь и ключ, которым она привязана к обменнику.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetProgressQueues очереди событий прогресса.
func GetProgressQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: QueueEvaluationUnlocked, RoutingKey: RoutingKeyEvaluationUnlocked},
	}
}

// SetupChannel открывает канал, объявляет обменник ExchangeProgress и привязывает к нему очереди.
func SetupChannel(conn *amqp.Connection, queues []QueueConfig) (*amqp.Channel, error) {
	const op = "rabbitmq.SetupChannel"

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := ch.Qos(10, 0, false); err != nil {
		return nil, fmt.Errorf("%s: failed to set QoS: %w", op, err)
	}

	err = ch.ExchangeDeclare(
		ExchangeProgress,
		"direct",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for _, q := range queues {
		if _, err := ch.QueueDeclare(q.QueueName, true, false, false, false, nil); err != nil {
			return nil, fmt.Errorf("%s: failed to declare queue %s: %w", op, q.QueueName, err)
		}
		if err := ch.QueueBind(q.QueueName, q.RoutingKey, ExchangeProgress, false, nil); err != nil {
			return nil, fmt.Errorf("%s: failed to bind queue %s with routing key %s: %w", op, q.QueueName, q.RoutingKey, err)
		}
	}

	return ch, nil
}
