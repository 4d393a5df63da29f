package websocket

import (
	"context"

	"go.uber.org/zap"

	"github.com/garyjia/gas-voucher/internal/application/dispatcher"
	"github.com/garyjia/gas-voucher/internal/domain/entity"
	"github.com/garyjia/gas-voucher/internal/domain/event"
)

// NotifierHandlerName is the dispatcher registration name of the notifier
const NotifierHandlerName = "websocket-notifier"

// Notifier routes voucher events to hub rooms
type Notifier struct {
	hub    *Hub
	logger *zap.Logger
}

// NewNotifier creates a Notifier publishing through hub
func NewNotifier(hub *Hub, logger *zap.Logger) *Notifier {
	return &Notifier{hub: hub, logger: logger}
}

// Register subscribes the notifier to every voucher event
func (n *Notifier) Register(d dispatcher.Dispatcher) {
	d.SubscribeAll(NotifierHandlerName, n.Handle)
}

// Handle pushes evt to the rooms interested in it:
// created goes to admins, approved/rejected/delivered to admins and the
// owner, updated to every connection.
func (n *Notifier) Handle(_ context.Context, evt *event.Event) error {
	name := evt.Type.String()
	payload := evt.Voucher

	var (
		sent int
		err  error
	)
	switch {
	case evt.Type == event.TypeVoucherUpdated:
		sent, err = n.hub.Broadcast(name, payload)
	case evt.Type == event.TypeVoucherCreated:
		sent, err = n.hub.Publish(entity.RoomAdmin, name, payload)
	case evt.Type.NotifiesOwner():
		sent, err = n.hub.Publish(entity.RoomAdmin, name, payload)
		if err == nil && evt.UserID != "" {
			var owner int
			owner, err = n.hub.Publish(entity.UserRoom(evt.UserID), name, payload)
			sent += owner
		}
	default:
		n.logger.Warn("No room route for event", zap.String("event_type", name))
		return nil
	}
	if err != nil {
		return err
	}

	n.logger.Debug("Voucher event pushed",
		zap.String("event_type", name),
		zap.String("voucher_id", evt.VoucherID),
		zap.Int("connections", sent))
	return nil
}
