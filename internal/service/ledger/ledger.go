// Package ledger owns a taka's cumulative meters and earnings. It is the
// only writer of those fields: the recorder applies entry deltas through it,
// and lifecycle transitions go through its status machine.
package ledger

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/loomworks/loomledger/internal/domain/models"
	"github.com/loomworks/loomledger/internal/events"
	"github.com/loomworks/loomledger/internal/repository"
)

// Service is the lot ledger.
type Service struct {
	takas  repository.TakaStore
	bus    *events.Bus
	locks  *lotLocks
	logger *zap.Logger
}

// NewService wires a ledger instance.
func NewService(takas repository.TakaStore, bus *events.Bus, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		takas:  takas,
		bus:    bus,
		locks:  newLotLocks(),
		logger: logger,
	}
}

// Lock serializes mutations against one lot. The caller must hold the
// returned release func for the full span of an entry write plus its delta,
// so no two mutations on the same lot interleave.
func (s *Service) Lock(lotID primitive.ObjectID) (release func()) {
	return s.locks.acquire(lotID)
}

// ApplyDelta adds meterDelta to the lot's running total and recomputes its
// earnings. The adjustment is a single atomic document update; callers
// pairing it with an entry write must hold the lot lock.
func (s *Service) ApplyDelta(ctx context.Context, lotID primitive.ObjectID, meterDelta float64) (*models.Taka, error) {
	taka, err := s.takas.ApplyMeterDelta(ctx, lotID, meterDelta)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("ledger delta applied",
		zap.String("taka_id", lotID.Hex()),
		zap.Float64("delta", meterDelta),
		zap.Float64("total_meters", taka.TotalMeters))
	return taka, nil
}

// Complete moves an Active lot to Completed, stamps its end date and
// publishes the close so machine references get cleared. Completing a lot
// that is already terminal fails with a conflict.
func (s *Service) Complete(ctx context.Context, lotID primitive.ObjectID) (*models.Taka, error) {
	return s.close(ctx, lotID, models.LotCompleted, events.ReasonCompleted)
}

// Cancel moves an Active lot to Cancelled. Same transition rules as
// Complete.
func (s *Service) Cancel(ctx context.Context, lotID primitive.ObjectID) (*models.Taka, error) {
	return s.close(ctx, lotID, models.LotCancelled, events.ReasonCancelled)
}

func (s *Service) close(ctx context.Context, lotID primitive.ObjectID, to models.LotStatus, reason events.CloseReason) (*models.Taka, error) {
	// Closing takes the lot lock so it cannot land in the middle of a
	// recorder mutation; once terminal, the totals never move again.
	release := s.locks.acquire(lotID)
	defer release()

	// The store's Transition guards on status Active in the update filter,
	// so the Active -> terminal table is enforced even under races.
	taka, err := s.takas.Transition(ctx, lotID, to, time.Now())
	if err != nil {
		return nil, err
	}

	s.logger.Info("taka closed",
		zap.String("taka_id", taka.ID.Hex()),
		zap.String("taka_number", taka.TakaNumber),
		zap.String("status", string(to)))

	s.publishClosed(ctx, taka, reason)
	return taka, nil
}

// PublishDeleted announces the out-of-band removal of a lot so the same
// cleanup that follows completion runs for deletion too.
func (s *Service) PublishDeleted(ctx context.Context, taka *models.Taka) {
	s.publishClosed(ctx, taka, events.ReasonDeleted)
}

func (s *Service) publishClosed(ctx context.Context, taka *models.Taka, reason events.CloseReason) {
	if s.bus == nil {
		return
	}
	s.bus.PublishLotClosed(ctx, events.LotClosed{
		LotID:      taka.ID,
		TakaNumber: taka.TakaNumber,
		MachineID:  taka.Machine,
		Reason:     reason,
		At:         time.Now(),
	})
}
