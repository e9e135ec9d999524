// Package production records dated production entries and keeps the parent
// taka's ledger reconciled with them: every create, meters update and delete
// applies its exact delta to the lot under the lot lock, with rollback when
// the delta cannot be applied.
package production

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/loomworks/loomledger/internal/domain/errs"
	"github.com/loomworks/loomledger/internal/domain/models"
	"github.com/loomworks/loomledger/internal/repository"
	"github.com/loomworks/loomledger/internal/service/ledger"
)

// Service is the production entry recorder.
type Service struct {
	entries   repository.ProductionStore
	takas     repository.TakaStore
	machines  repository.MachineStore
	workers   repository.WorkerStore
	qualities repository.QualityStore
	ledger    *ledger.Service
	logger    *zap.Logger
}

// NewService wires a recorder instance.
func NewService(
	entries repository.ProductionStore,
	takas repository.TakaStore,
	machines repository.MachineStore,
	workers repository.WorkerStore,
	qualities repository.QualityStore,
	ledgerSvc *ledger.Service,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		entries:   entries,
		takas:     takas,
		machines:  machines,
		workers:   workers,
		qualities: qualities,
		ledger:    ledgerSvc,
		logger:    logger,
	}
}

// CreateRequest is the payload for recording a production entry. The
// per-meter rate is never taken from the client; it is snapshotted from the
// referenced taka.
type CreateRequest struct {
	Date           time.Time    `json:"date" binding:"required"`
	MachineID      string       `json:"machine" binding:"required"`
	WorkerID       string       `json:"worker" binding:"required"`
	TakaID         string       `json:"taka" binding:"required"`
	QualityID      string       `json:"qualityType" binding:"required"`
	Shift          models.Shift `json:"shift" binding:"required"`
	MetersProduced *float64     `json:"metersProduced" binding:"required"`
	Notes          string       `json:"notes"`
}

// UpdateRequest carries the mutable fields of an entry. Nil members are left
// untouched. The taka and quality references are immutable once recorded;
// re-homing an entry is a delete plus a create.
type UpdateRequest struct {
	Date           *time.Time    `json:"date"`
	MachineID      *string       `json:"machine"`
	WorkerID       *string       `json:"worker"`
	Shift          *models.Shift `json:"shift"`
	MetersProduced *float64      `json:"metersProduced"`
	Notes          *string       `json:"notes"`
}

// Create validates the references, snapshots the rate from the taka, writes
// the entry and applies its meters to the lot ledger. The entry write and
// the delta run under the lot lock; a failed delta rolls the entry back.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*models.ProductionDetail, error) {
	if !req.Shift.Valid() {
		return nil, errs.Validation("shift must be Day or Night")
	}
	meters := *req.MetersProduced
	if meters < 0 {
		return nil, errs.Validation("meters produced cannot be negative")
	}

	machineID, err := parseID(req.MachineID, "machine")
	if err != nil {
		return nil, err
	}
	workerID, err := parseID(req.WorkerID, "worker")
	if err != nil {
		return nil, err
	}
	takaID, err := parseID(req.TakaID, "taka")
	if err != nil {
		return nil, err
	}
	qualityID, err := parseID(req.QualityID, "qualityType")
	if err != nil {
		return nil, err
	}

	machine, err := s.machines.FindByID(ctx, machineID)
	if err != nil {
		return nil, err
	}
	worker, err := s.workers.FindByID(ctx, workerID)
	if err != nil {
		return nil, err
	}
	quality, err := s.qualities.FindByID(ctx, qualityID)
	if err != nil {
		return nil, err
	}

	release := s.ledger.Lock(takaID)
	defer release()

	// The status read happens under the lot lock, and Complete/Cancel take
	// the same lock, so a close cannot slip in between this check and the
	// insert.
	taka, err := s.takas.FindByID(ctx, takaID)
	if err != nil {
		return nil, err
	}
	if taka.Status != models.LotActive {
		return nil, errs.Conflict("taka %s is %s; production can only be recorded against active takas", taka.TakaNumber, taka.Status)
	}

	rate := taka.RatePerMeter
	entry := &models.Production{
		Date:           req.Date,
		Machine:        machineID,
		Worker:         workerID,
		Taka:           takaID,
		QualityGrade:   qualityID,
		Shift:          req.Shift,
		MetersProduced: meters,
		RatePerMeter:   rate,
		Earnings:       meters * rate,
		Notes:          req.Notes,
	}

	if err := s.entries.Insert(ctx, entry); err != nil {
		return nil, err
	}

	updatedTaka, err := s.ledger.ApplyDelta(ctx, takaID, meters)
	if err != nil {
		// All-or-nothing: take the entry back out so a committed entry never
		// sits next to an unadjusted ledger.
		if delErr := s.entries.Delete(ctx, entry.ID); delErr != nil {
			s.logger.Error("rollback of production entry failed",
				zap.String("entry_id", entry.ID.Hex()),
				zap.Error(delErr))
		}
		return nil, errs.Consistency("ledger delta could not be applied", err)
	}

	detail := &models.ProductionDetail{
		Production: *entry,
		MachineRef: machine.Ref(),
		WorkerRef:  worker.Ref(),
		TakaRef:    updatedTaka.Ref(),
		QualityRef: quality.Ref(),
	}
	return detail, nil
}

// Update mutates an entry. A meters change applies the exact difference to
// the lot under the lot lock; any other change leaves the ledger alone.
func (s *Service) Update(ctx context.Context, id primitive.ObjectID, req UpdateRequest) (*models.ProductionDetail, error) {
	entry, err := s.entries.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	release := s.ledger.Lock(entry.Taka)
	defer release()

	// Re-read under the lock; a concurrent update may have changed meters.
	entry, err = s.entries.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	oldMeters := entry.MetersProduced
	prev := *entry

	if req.Date != nil {
		entry.Date = *req.Date
	}
	if req.MachineID != nil {
		machineID, err := parseID(*req.MachineID, "machine")
		if err != nil {
			return nil, err
		}
		if _, err := s.machines.FindByID(ctx, machineID); err != nil {
			return nil, err
		}
		entry.Machine = machineID
	}
	if req.WorkerID != nil {
		workerID, err := parseID(*req.WorkerID, "worker")
		if err != nil {
			return nil, err
		}
		if _, err := s.workers.FindByID(ctx, workerID); err != nil {
			return nil, err
		}
		entry.Worker = workerID
	}
	if req.Shift != nil {
		if !req.Shift.Valid() {
			return nil, errs.Validation("shift must be Day or Night")
		}
		entry.Shift = *req.Shift
	}
	if req.MetersProduced != nil {
		if *req.MetersProduced < 0 {
			return nil, errs.Validation("meters produced cannot be negative")
		}
		entry.MetersProduced = *req.MetersProduced
	}
	if req.Notes != nil {
		entry.Notes = *req.Notes
	}
	entry.Earnings = entry.MetersProduced * entry.RatePerMeter

	if err := s.entries.Update(ctx, entry); err != nil {
		return nil, err
	}

	if delta := entry.MetersProduced - oldMeters; delta != 0 {
		if _, err := s.ledger.ApplyDelta(ctx, entry.Taka, delta); err != nil {
			if rbErr := s.entries.Update(ctx, &prev); rbErr != nil {
				s.logger.Error("rollback of production update failed",
					zap.String("entry_id", entry.ID.Hex()),
					zap.Error(rbErr))
			}
			return nil, errs.Consistency("ledger delta could not be applied", err)
		}
	}

	return s.populateOne(ctx, entry)
}

// Delete removes an entry and backs its meters out of the lot. A taka that
// was deleted out-of-band does not block the entry delete; the delta is
// skipped with a warning.
func (s *Service) Delete(ctx context.Context, id primitive.ObjectID) error {
	entry, err := s.entries.FindByID(ctx, id)
	if err != nil {
		return err
	}

	release := s.ledger.Lock(entry.Taka)
	defer release()

	entry, err = s.entries.FindByID(ctx, id)
	if err != nil {
		return err
	}

	deltaApplied := false
	if _, err := s.ledger.ApplyDelta(ctx, entry.Taka, -entry.MetersProduced); err != nil {
		if !errs.IsNotFound(err) {
			return errs.Consistency("ledger delta could not be applied", err)
		}
		s.logger.Warn("taka missing during entry delete; skipping ledger adjustment",
			zap.String("entry_id", entry.ID.Hex()),
			zap.String("taka_id", entry.Taka.Hex()))
	} else {
		deltaApplied = true
	}

	if err := s.entries.Delete(ctx, id); err != nil {
		if deltaApplied {
			// Put the meters back so the ledger matches the still-present entry.
			if _, compErr := s.ledger.ApplyDelta(ctx, entry.Taka, entry.MetersProduced); compErr != nil {
				s.logger.Error("compensating ledger delta failed",
					zap.String("entry_id", entry.ID.Hex()),
					zap.Error(compErr))
			}
		}
		return err
	}
	return nil
}

// Get fetches one entry with populated references.
func (s *Service) Get(ctx context.Context, id primitive.ObjectID) (*models.ProductionDetail, error) {
	entry, err := s.entries.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.populateOne(ctx, entry)
}

// List returns entries matching the filter with populated references.
func (s *Service) List(ctx context.Context, f models.ProductionFilter) ([]models.ProductionDetail, error) {
	entries, err := s.entries.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return s.Populate(ctx, entries)
}

// Populate resolves the machine/worker/taka/quality references of a batch of
// entries. References to since-deleted entities come back as bare ids.
func (s *Service) Populate(ctx context.Context, entries []models.Production) ([]models.ProductionDetail, error) {
	machineIDs := make([]primitive.ObjectID, 0, len(entries))
	workerIDs := make([]primitive.ObjectID, 0, len(entries))
	takaIDs := make([]primitive.ObjectID, 0, len(entries))
	qualityIDs := make([]primitive.ObjectID, 0, len(entries))
	seen := make(map[primitive.ObjectID]bool)

	collect := func(dst *[]primitive.ObjectID, id primitive.ObjectID) {
		if !seen[id] {
			seen[id] = true
			*dst = append(*dst, id)
		}
	}
	for _, e := range entries {
		collect(&machineIDs, e.Machine)
		collect(&workerIDs, e.Worker)
		collect(&takaIDs, e.Taka)
		collect(&qualityIDs, e.QualityGrade)
	}

	machines, err := s.machines.FindByIDs(ctx, machineIDs)
	if err != nil {
		return nil, err
	}
	workers, err := s.workers.FindByIDs(ctx, workerIDs)
	if err != nil {
		return nil, err
	}
	takas, err := s.takas.FindByIDs(ctx, takaIDs)
	if err != nil {
		return nil, err
	}
	qualities, err := s.qualities.FindByIDs(ctx, qualityIDs)
	if err != nil {
		return nil, err
	}

	details := make([]models.ProductionDetail, 0, len(entries))
	for _, e := range entries {
		d := models.ProductionDetail{Production: e}
		if m, ok := machines[e.Machine]; ok {
			d.MachineRef = m.Ref()
		} else {
			d.MachineRef = models.MachineRef{ID: e.Machine}
		}
		if w, ok := workers[e.Worker]; ok {
			d.WorkerRef = w.Ref()
		} else {
			d.WorkerRef = models.WorkerRef{ID: e.Worker}
		}
		if t, ok := takas[e.Taka]; ok {
			d.TakaRef = t.Ref()
		} else {
			d.TakaRef = models.TakaRef{ID: e.Taka}
		}
		if q, ok := qualities[e.QualityGrade]; ok {
			d.QualityRef = q.Ref()
		} else {
			d.QualityRef = models.QualityRef{ID: e.QualityGrade}
		}
		details = append(details, d)
	}
	return details, nil
}

func (s *Service) populateOne(ctx context.Context, entry *models.Production) (*models.ProductionDetail, error) {
	details, err := s.Populate(ctx, []models.Production{*entry})
	if err != nil {
		return nil, err
	}
	return &details[0], nil
}

func parseID(hex, field string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, errs.Validation("invalid %s id %q", field, hex)
	}
	return id, nil
}
