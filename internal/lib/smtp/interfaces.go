// Package smtp подключает рассыльщик писем к SMTP-серверу.
package smtp

import (
	"context"
	"io"
)

// Client минимальный набор команд SMTP, нужный для отправки одного письма.
type Client interface {
	Mail(from string) error
	Rcpt(to string) error
	Data() (io.WriteCloser, error)
	Quit() error
	Close() error
}

// TransportInterface открывает аутентифицированную сессию SMTP.
type TransportInterface interface {
	Connect(ctx context.Context) (Client, error)
	GetSMTPUser() string
}
