package registry

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/loomworks/loomledger/internal/domain/errs"
	"github.com/loomworks/loomledger/internal/domain/models"
)

// TakaCreateRequest is the payload for opening a lot. The per-meter rate is
// snapshotted from the quality grade; the client never supplies it.
type TakaCreateRequest struct {
	TakaNumber   string     `json:"takaNumber" binding:"required"`
	MachineID    string     `json:"machine" binding:"required"`
	QualityID    string     `json:"qualityType" binding:"required"`
	TargetMeters float64    `json:"targetMeters"`
	StartDate    *time.Time `json:"startDate"`
	Notes        string     `json:"notes"`
}

// TakaUpdateRequest carries the mutable non-ledger taka fields; nil members
// are left untouched. Running totals and status are off-limits here.
type TakaUpdateRequest struct {
	TakaNumber   *string    `json:"takaNumber"`
	TargetMeters *float64   `json:"targetMeters"`
	StartDate    *time.Time `json:"startDate"`
	Notes        *string    `json:"notes"`
}

// CreateTaka opens a lot against a machine and quality grade, snapshotting
// the grade's rate, and points the machine at the new lot.
func (s *Service) CreateTaka(ctx context.Context, req TakaCreateRequest) (*models.TakaDetail, error) {
	machineID, err := parseID(req.MachineID, "machine")
	if err != nil {
		return nil, err
	}
	qualityID, err := parseID(req.QualityID, "qualityType")
	if err != nil {
		return nil, err
	}
	if req.TargetMeters < 0 {
		return nil, errs.Validation("target meters cannot be negative")
	}

	if _, err := s.takas.FindByNumber(ctx, req.TakaNumber); err == nil {
		return nil, errs.Conflict("taka number %s already exists", req.TakaNumber)
	} else if !errs.IsNotFound(err) {
		return nil, err
	}

	machine, err := s.machines.FindByID(ctx, machineID)
	if err != nil {
		return nil, err
	}
	quality, err := s.qualities.FindByID(ctx, qualityID)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	if req.StartDate != nil {
		start = *req.StartDate
	}

	t := &models.Taka{
		TakaNumber:   req.TakaNumber,
		Machine:      machineID,
		QualityGrade: qualityID,
		TargetMeters: req.TargetMeters,
		Status:       models.LotActive,
		StartDate:    start,
		RatePerMeter: quality.RatePerMeter,
		Notes:        req.Notes,
	}

	if err := s.takas.Insert(ctx, t); err != nil {
		return nil, err
	}

	if err := s.machines.SetCurrentTaka(ctx, machineID, t.ID); err != nil {
		s.logger.Warn("failed to point machine at new taka",
			zap.String("machine_id", machineID.Hex()),
			zap.String("taka_id", t.ID.Hex()),
			zap.Error(err))
	}

	machineRef := machine.Ref()
	qualityRef := quality.Ref()
	return &models.TakaDetail{
		Taka:       *t,
		MachineRef: &machineRef,
		QualityRef: &qualityRef,
	}, nil
}

// UpdateTaka mutates a taka's non-ledger fields.
func (s *Service) UpdateTaka(ctx context.Context, id primitive.ObjectID, req TakaUpdateRequest) (*models.Taka, error) {
	t, err := s.takas.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.TakaNumber != nil && *req.TakaNumber != t.TakaNumber {
		if existing, err := s.takas.FindByNumber(ctx, *req.TakaNumber); err == nil && existing.ID != id {
			return nil, errs.Conflict("taka number %s already exists", *req.TakaNumber)
		} else if err != nil && !errs.IsNotFound(err) {
			return nil, err
		}
		t.TakaNumber = *req.TakaNumber
	}
	if req.TargetMeters != nil {
		if *req.TargetMeters < 0 {
			return nil, errs.Validation("target meters cannot be negative")
		}
		t.TargetMeters = *req.TargetMeters
	}
	if req.StartDate != nil {
		t.StartDate = *req.StartDate
	}
	if req.Notes != nil {
		t.Notes = *req.Notes
	}

	if err := s.takas.Update(ctx, t); err != nil {
		return nil, err
	}
	return s.takas.FindByID(ctx, id)
}

// GetTaka fetches one taka.
func (s *Service) GetTaka(ctx context.Context, id primitive.ObjectID) (*models.Taka, error) {
	return s.takas.FindByID(ctx, id)
}

// ListTakas returns takas with populated references and per-lot production
// stats.
func (s *Service) ListTakas(ctx context.Context, f models.TakaFilter) ([]models.TakaDetail, error) {
	takas, err := s.takas.List(ctx, f)
	if err != nil {
		return nil, err
	}

	machineIDs := make([]primitive.ObjectID, 0, len(takas))
	qualityIDs := make([]primitive.ObjectID, 0, len(takas))
	for _, t := range takas {
		machineIDs = append(machineIDs, t.Machine)
		qualityIDs = append(qualityIDs, t.QualityGrade)
	}

	machines, err := s.machines.FindByIDs(ctx, machineIDs)
	if err != nil {
		return nil, err
	}
	qualities, err := s.qualities.FindByIDs(ctx, qualityIDs)
	if err != nil {
		return nil, err
	}

	details := make([]models.TakaDetail, 0, len(takas))
	for _, t := range takas {
		takaID := t.ID
		totals, err := s.entries.Totals(ctx, models.ProductionFilter{TakaID: &takaID})
		if err != nil {
			return nil, err
		}

		d := models.TakaDetail{
			Taka:            t,
			ProductionCount: totals.Count,
			ProductionStats: totals,
		}
		if m, ok := machines[t.Machine]; ok {
			ref := m.Ref()
			d.MachineRef = &ref
		}
		if q, ok := qualities[t.QualityGrade]; ok {
			ref := q.Ref()
			d.QualityRef = &ref
		}
		details = append(details, d)
	}
	return details, nil
}

// DeleteTaka removes a lot outright. Machines pointing at it are cleaned up
// through the lot-closed event; production history keeps its entries.
func (s *Service) DeleteTaka(ctx context.Context, id primitive.ObjectID) error {
	t, err := s.takas.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.takas.Delete(ctx, id); err != nil {
		return err
	}

	s.ledger.PublishDeleted(ctx, t)
	return nil
}
