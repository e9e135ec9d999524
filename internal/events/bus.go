// Package events carries lot lifecycle notifications between the ledger and
// the components that react to a lot closing (machine reference cleanup,
// outbound webhooks).
package events

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// CloseReason says why a lot left circulation.
type CloseReason string

const (
	ReasonCompleted CloseReason = "completed"
	ReasonCancelled CloseReason = "cancelled"
	ReasonDeleted   CloseReason = "deleted"
)

// LotClosed is published whenever a taka becomes terminal or is removed.
type LotClosed struct {
	LotID      primitive.ObjectID
	TakaNumber string
	MachineID  primitive.ObjectID
	Reason     CloseReason
	At         time.Time
}

// LotClosedHandler reacts to a LotClosed event.
type LotClosedHandler func(ctx context.Context, ev LotClosed) error

// Bus is a synchronous in-process publisher. Handler errors are logged, not
// propagated: a failed subscriber must not fail the mutation that already
// committed.
type Bus struct {
	mu       sync.RWMutex
	handlers []LotClosedHandler
	logger   *zap.Logger
}

// NewBus builds an event bus.
func NewBus(logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{logger: logger}
}

// SubscribeLotClosed registers a handler for LotClosed events.
func (b *Bus) SubscribeLotClosed(h LotClosedHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

// PublishLotClosed delivers ev to every subscriber in registration order.
func (b *Bus) PublishLotClosed(ctx context.Context, ev LotClosed) {
	b.mu.RLock()
	handlers := make([]LotClosedHandler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	for _, h := range handlers {
		if err := h(ctx, ev); err != nil {
			b.logger.Error("lot closed handler failed",
				zap.String("lot_id", ev.LotID.Hex()),
				zap.String("reason", string(ev.Reason)),
				zap.Error(err))
		}
	}
}
