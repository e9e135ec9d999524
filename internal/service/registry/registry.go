// Package registry owns the reference entities the accounting core validates
// against: machines, workers, quality grades and the taka lifecycle outside
// of ledger arithmetic.
package registry

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/loomworks/loomledger/internal/domain/errs"
	"github.com/loomworks/loomledger/internal/events"
	"github.com/loomworks/loomledger/internal/repository"
	"github.com/loomworks/loomledger/internal/service/ledger"
	"github.com/loomworks/loomledger/internal/service/production"
)

// Service is the registry CRUD layer.
type Service struct {
	machines  repository.MachineStore
	workers   repository.WorkerStore
	qualities repository.QualityStore
	takas     repository.TakaStore
	entries   repository.ProductionStore
	ledger    *ledger.Service
	recorder  *production.Service
	logger    *zap.Logger
}

// NewService wires a registry instance.
func NewService(
	machines repository.MachineStore,
	workers repository.WorkerStore,
	qualities repository.QualityStore,
	takas repository.TakaStore,
	entries repository.ProductionStore,
	ledgerSvc *ledger.Service,
	recorder *production.Service,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		machines:  machines,
		workers:   workers,
		qualities: qualities,
		takas:     takas,
		entries:   entries,
		ledger:    ledgerSvc,
		recorder:  recorder,
		logger:    logger,
	}
}

// HandleLotClosed clears the currentTaka reference from any machine still
// pointing at a closed lot. Subscribed to the lot event bus at startup.
func (s *Service) HandleLotClosed(ctx context.Context, ev events.LotClosed) error {
	return s.machines.ClearCurrentTaka(ctx, ev.LotID)
}

func parseID(hex, field string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, errs.Validation("invalid %s id %q", field, hex)
	}
	return id, nil
}

func parseIDs(hexes []string, field string) ([]primitive.ObjectID, error) {
	ids := make([]primitive.ObjectID, 0, len(hexes))
	for _, h := range hexes {
		id, err := parseID(h, field)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
