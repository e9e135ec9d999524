package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestPublishDeliversInOrder(t *testing.T) {
	bus := NewBus(nil)

	var order []string
	bus.SubscribeLotClosed(func(_ context.Context, _ LotClosed) error {
		order = append(order, "first")
		return nil
	})
	bus.SubscribeLotClosed(func(_ context.Context, _ LotClosed) error {
		order = append(order, "second")
		return nil
	})

	bus.PublishLotClosed(context.Background(), LotClosed{
		LotID:      primitive.NewObjectID(),
		TakaNumber: "T001",
		Reason:     ReasonCompleted,
		At:         time.Now(),
	})

	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Fatalf("delivery order = %v", order)
	}
}

func TestHandlerErrorDoesNotStopDelivery(t *testing.T) {
	bus := NewBus(nil)

	bus.SubscribeLotClosed(func(_ context.Context, _ LotClosed) error {
		return errors.New("webhook down")
	})
	delivered := false
	bus.SubscribeLotClosed(func(_ context.Context, _ LotClosed) error {
		delivered = true
		return nil
	})

	bus.PublishLotClosed(context.Background(), LotClosed{Reason: ReasonCancelled})

	if !delivered {
		t.Fatal("second handler not reached after the first failed")
	}
}

func TestPublishWithoutSubscribers(t *testing.T) {
	bus := NewBus(nil)
	bus.PublishLotClosed(context.Background(), LotClosed{Reason: ReasonDeleted})
}
