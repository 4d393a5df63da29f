package event

import (
	"time"

	"github.com/google/uuid"

	"github.com/garyjia/gas-voucher/internal/domain/entity"
)

// Event represents a voucher lifecycle event
type Event struct {
	ID            string          `json:"id"`
	Type          Type            `json:"type"`
	VoucherID     string          `json:"voucher_id"`
	UserID        string          `json:"user_id"`
	Voucher       *entity.Voucher `json:"voucher"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
}

// NewEvent creates a new event for the current state of v
func NewEvent(eventType Type, v *entity.Voucher) *Event {
	id := uuid.NewString()
	return NewEventWithCorrelation(eventType, v, id)
}

// NewEventWithCorrelation creates an event linked to a correlation chain,
// e.g. the specific event and the generic update emitted by one mutation.
func NewEventWithCorrelation(eventType Type, v *entity.Voucher, correlationID string) *Event {
	evt := &Event{
		ID:            uuid.NewString(),
		Type:          eventType,
		Voucher:       v,
		Timestamp:     time.Now(),
		CorrelationID: correlationID,
	}
	if v != nil {
		evt.VoucherID = v.ID
		evt.UserID = v.UserID
	}
	return evt
}

// Derive returns a new event of another type sharing this event's voucher and
// correlation ID
func (e *Event) Derive(eventType Type) *Event {
	return NewEventWithCorrelation(eventType, e.Voucher, e.CorrelationID)
}
