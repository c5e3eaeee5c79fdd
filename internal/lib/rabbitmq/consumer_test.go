package rabbitmq

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
)

// recordingAcknowledger запоминает, как была подтверждена доставка.
type recordingAcknowledger struct {
	acked   int
	nacked  int
	requeue bool
}

func (a *recordingAcknowledger) Ack(uint64, bool) error {
	a.acked++
	return nil
}

func (a *recordingAcknowledger) Nack(_ uint64, _ bool, requeue bool) error {
	a.nacked++
	a.requeue = requeue
	return nil
}

func (a *recordingAcknowledger) Reject(_ uint64, requeue bool) error {
	a.nacked++
	a.requeue = requeue
	return nil
}

func TestHandleDelivery(t *testing.T) {
	tests := []struct {
		name        string
		handlerErr  error
		wantAcked   int
		wantNacked  int
		wantRequeue bool
	}{
		{
			name:      "success is acked",
			wantAcked: 1,
		},
		{
			name:        "transient error is requeued",
			handlerErr:  errors.New("smtp: connection refused"),
			wantNacked:  1,
			wantRequeue: true,
		},
		{
			name:        "permanent error is dropped",
			handlerErr:  fmt.Errorf("%w: event without recipient", ErrPermanent),
			wantNacked:  1,
			wantRequeue: false,
		},
		{
			name:        "wrapped permanent error is dropped",
			handlerErr:  fmt.Errorf("sender: %w", fmt.Errorf("%w: bad json", ErrPermanent)),
			wantNacked:  1,
			wantRequeue: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ack := &recordingAcknowledger{}
			d := amqp.Delivery{Acknowledger: ack, DeliveryTag: 1, Body: []byte(`{}`)}
			log := slog.New(slog.NewTextHandler(io.Discard, nil))

			var gotBody []byte
			handleDelivery(log, d, func(body []byte) error {
				gotBody = body
				return tt.handlerErr
			})

			assert.Equal(t, []byte(`{}`), gotBody)
			assert.Equal(t, tt.wantAcked, ack.acked)
			assert.Equal(t, tt.wantNacked, ack.nacked)
			assert.Equal(t, tt.wantRequeue, ack.requeue)
		})
	}
}
