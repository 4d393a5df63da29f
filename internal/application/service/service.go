package service

import (
	"context"
	"time"

	"github.com/garyjia/gas-voucher/internal/domain/event"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// EventPublisher hands voucher events to the notification fan-out without
// waiting for delivery
type EventPublisher interface {
	Publish(ctx context.Context, events ...*event.Event)
}

// Clock returns the current time
type Clock func() time.Time
