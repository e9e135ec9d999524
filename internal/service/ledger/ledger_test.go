package ledger

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/loomworks/loomledger/internal/domain/errs"
	"github.com/loomworks/loomledger/internal/domain/models"
	"github.com/loomworks/loomledger/internal/events"
	"github.com/loomworks/loomledger/internal/testutil"
)

func newLedger(takas *testutil.Takas, bus *events.Bus) *Service {
	return NewService(takas, bus, nil)
}

func TestApplyDeltaRecomputesEarnings(t *testing.T) {
	takas := testutil.NewTakas()
	taka := takas.Seed(models.Taka{TakaNumber: "T001", RatePerMeter: 10})
	svc := newLedger(takas, nil)

	got, err := svc.ApplyDelta(context.Background(), taka.ID, 50)
	if err != nil {
		t.Fatalf("ApplyDelta: %v", err)
	}
	if got.TotalMeters != 50 || got.TotalEarnings != 500 {
		t.Fatalf("got meters=%v earnings=%v, want 50/500", got.TotalMeters, got.TotalEarnings)
	}

	got, err = svc.ApplyDelta(context.Background(), taka.ID, -20)
	if err != nil {
		t.Fatalf("ApplyDelta: %v", err)
	}
	if got.TotalMeters != 30 || got.TotalEarnings != 300 {
		t.Fatalf("got meters=%v earnings=%v, want 30/300", got.TotalMeters, got.TotalEarnings)
	}
}

func TestApplyDeltaUnknownLot(t *testing.T) {
	svc := newLedger(testutil.NewTakas(), nil)

	_, err := svc.ApplyDelta(context.Background(), primitive.NewObjectID(), 10)
	if !errs.IsNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestCompleteFreezesTotalsAndPublishes(t *testing.T) {
	takas := testutil.NewTakas()
	taka := takas.Seed(models.Taka{TakaNumber: "T001", RatePerMeter: 10, TotalMeters: 80, TotalEarnings: 800})

	bus := events.NewBus(nil)
	var published []events.LotClosed
	bus.SubscribeLotClosed(func(_ context.Context, ev events.LotClosed) error {
		published = append(published, ev)
		return nil
	})

	svc := newLedger(takas, bus)
	got, err := svc.Complete(context.Background(), taka.ID)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got.Status != models.LotCompleted {
		t.Fatalf("status = %s, want Completed", got.Status)
	}
	if got.EndDate == nil {
		t.Fatal("end date not stamped")
	}
	if got.TotalMeters != 80 || got.TotalEarnings != 800 {
		t.Fatalf("totals changed on completion: %v/%v", got.TotalMeters, got.TotalEarnings)
	}

	if len(published) != 1 {
		t.Fatalf("published %d events, want 1", len(published))
	}
	if published[0].Reason != events.ReasonCompleted || published[0].LotID != taka.ID {
		t.Fatalf("unexpected event %+v", published[0])
	}
}

func TestCompleteTwiceConflicts(t *testing.T) {
	takas := testutil.NewTakas()
	taka := takas.Seed(models.Taka{TakaNumber: "T001"})
	svc := newLedger(takas, nil)

	if _, err := svc.Complete(context.Background(), taka.ID); err != nil {
		t.Fatalf("first Complete: %v", err)
	}
	_, err := svc.Complete(context.Background(), taka.ID)
	if !errs.IsConflict(err) {
		t.Fatalf("expected conflict on second completion, got %v", err)
	}
}

func TestCancelCompletedLotConflicts(t *testing.T) {
	takas := testutil.NewTakas()
	taka := takas.Seed(models.Taka{TakaNumber: "T001", Status: models.LotCompleted})
	svc := newLedger(takas, nil)

	_, err := svc.Cancel(context.Background(), taka.ID)
	if !errs.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestCancelPublishesCancelledReason(t *testing.T) {
	takas := testutil.NewTakas()
	taka := takas.Seed(models.Taka{TakaNumber: "T001"})

	bus := events.NewBus(nil)
	var reason events.CloseReason
	bus.SubscribeLotClosed(func(_ context.Context, ev events.LotClosed) error {
		reason = ev.Reason
		return nil
	})

	svc := newLedger(takas, bus)
	if _, err := svc.Cancel(context.Background(), taka.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if reason != events.ReasonCancelled {
		t.Fatalf("reason = %s, want cancelled", reason)
	}
}

func TestLockSerializesSameLot(t *testing.T) {
	svc := newLedger(testutil.NewTakas(), nil)
	lotID := primitive.NewObjectID()

	var inCritical atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release := svc.Lock(lotID)
			defer release()

			if inCritical.Add(1) != 1 {
				t.Error("two holders inside the same lot's critical section")
			}
			time.Sleep(time.Millisecond)
			inCritical.Add(-1)
		}()
	}
	wg.Wait()
}
