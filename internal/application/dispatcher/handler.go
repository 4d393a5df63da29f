package dispatcher

import (
	"context"

	"github.com/garyjia/gas-voucher/internal/domain/event"
)

// Handler reacts to a voucher event. Returned errors are logged, never
// propagated back to the mutation that produced the event.
type Handler func(ctx context.Context, evt *event.Event) error

// HandlerInfo describes a registered handler
type HandlerInfo struct {
	Name      string
	EventType event.Type
	Handler   Handler
}
