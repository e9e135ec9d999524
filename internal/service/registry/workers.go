package registry

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/loomworks/loomledger/internal/domain/errs"
	"github.com/loomworks/loomledger/internal/domain/models"
)

// WorkerCreateRequest is the payload for registering a worker.
type WorkerCreateRequest struct {
	WorkerCode       string                   `json:"workerCode" binding:"required"`
	Name             string                   `json:"name" binding:"required"`
	WorkerType       models.WorkerType        `json:"workerType"`
	Phone            string                   `json:"phone"`
	Address          string                   `json:"address"`
	JoiningDate      *time.Time               `json:"joiningDate"`
	Shift            models.WorkerShift       `json:"shift"`
	EmergencyContact *models.EmergencyContact `json:"emergencyContact"`
	Notes            string                   `json:"notes"`
}

// WorkerUpdateRequest carries the mutable worker fields; nil members are
// left untouched.
type WorkerUpdateRequest struct {
	WorkerCode       *string                  `json:"workerCode"`
	Name             *string                  `json:"name"`
	WorkerType       *models.WorkerType       `json:"workerType"`
	Phone            *string                  `json:"phone"`
	Address          *string                  `json:"address"`
	JoiningDate      *time.Time               `json:"joiningDate"`
	Shift            *models.WorkerShift      `json:"shift"`
	EmergencyContact *models.EmergencyContact `json:"emergencyContact"`
	Notes            *string                  `json:"notes"`
}

// CreateWorker registers a worker. Worker codes are unique among live
// workers.
func (s *Service) CreateWorker(ctx context.Context, req WorkerCreateRequest) (*models.Worker, error) {
	workerType := req.WorkerType
	if workerType == "" {
		workerType = models.WorkerPermanent
	}
	if !workerType.Valid() {
		return nil, errs.Validation("unknown worker type %q", workerType)
	}

	shift := req.Shift
	if shift == "" {
		shift = models.WorkerShiftNone
	}
	if !shift.Valid() {
		return nil, errs.Validation("unknown worker shift %q", shift)
	}

	if _, err := s.workers.FindByCode(ctx, req.WorkerCode); err == nil {
		return nil, errs.Conflict("worker code %s already exists", req.WorkerCode)
	} else if !errs.IsNotFound(err) {
		return nil, err
	}

	joining := time.Now()
	if req.JoiningDate != nil {
		joining = *req.JoiningDate
	}

	w := &models.Worker{
		WorkerCode:       req.WorkerCode,
		Name:             req.Name,
		WorkerType:       workerType,
		Phone:            req.Phone,
		Address:          req.Address,
		JoiningDate:      joining,
		Shift:            shift,
		EmergencyContact: req.EmergencyContact,
		IsActive:         true,
		Notes:            req.Notes,
	}

	if err := s.workers.Insert(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

// UpdateWorker mutates a worker's fields.
func (s *Service) UpdateWorker(ctx context.Context, id primitive.ObjectID, req WorkerUpdateRequest) (*models.Worker, error) {
	w, err := s.workers.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.WorkerCode != nil && *req.WorkerCode != w.WorkerCode {
		if existing, err := s.workers.FindByCode(ctx, *req.WorkerCode); err == nil && existing.ID != id {
			return nil, errs.Conflict("worker code %s already exists", *req.WorkerCode)
		} else if err != nil && !errs.IsNotFound(err) {
			return nil, err
		}
		w.WorkerCode = *req.WorkerCode
	}
	if req.Name != nil {
		w.Name = *req.Name
	}
	if req.WorkerType != nil {
		if !req.WorkerType.Valid() {
			return nil, errs.Validation("unknown worker type %q", *req.WorkerType)
		}
		w.WorkerType = *req.WorkerType
	}
	if req.Phone != nil {
		w.Phone = *req.Phone
	}
	if req.Address != nil {
		w.Address = *req.Address
	}
	if req.JoiningDate != nil {
		w.JoiningDate = *req.JoiningDate
	}
	if req.Shift != nil {
		if !req.Shift.Valid() {
			return nil, errs.Validation("unknown worker shift %q", *req.Shift)
		}
		w.Shift = *req.Shift
	}
	if req.EmergencyContact != nil {
		w.EmergencyContact = req.EmergencyContact
	}
	if req.Notes != nil {
		w.Notes = *req.Notes
	}

	if err := s.workers.Update(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

// GetWorker fetches one worker.
func (s *Service) GetWorker(ctx context.Context, id primitive.ObjectID) (*models.Worker, error) {
	return s.workers.FindByID(ctx, id)
}

// ListWorkers returns live workers with today's and this month's production
// attached.
func (s *Service) ListWorkers(ctx context.Context, f models.WorkerFilter) ([]models.WorkerDetail, error) {
	workers, err := s.workers.List(ctx, f)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	details := make([]models.WorkerDetail, 0, len(workers))
	for _, w := range workers {
		workerID := w.ID
		today, err := s.entries.Totals(ctx, models.ProductionFilter{From: &todayStart, WorkerID: &workerID})
		if err != nil {
			return nil, err
		}
		month, err := s.entries.Totals(ctx, models.ProductionFilter{From: &monthStart, WorkerID: &workerID})
		if err != nil {
			return nil, err
		}
		total, err := s.entries.Count(ctx, models.ProductionFilter{WorkerID: &workerID})
		if err != nil {
			return nil, err
		}
		details = append(details, models.WorkerDetail{
			Worker:           w,
			TodayProduction:  today,
			MonthProduction:  month,
			TotalProductions: total,
		})
	}
	return details, nil
}

// DeleteWorker soft-deletes a worker, keeping their production history.
func (s *Service) DeleteWorker(ctx context.Context, id primitive.ObjectID) error {
	return s.workers.SoftDelete(ctx, id)
}

// BulkDeleteWorkers soft-deletes a batch of workers.
func (s *Service) BulkDeleteWorkers(ctx context.Context, hexIDs []string) error {
	ids, err := parseIDs(hexIDs, "worker")
	if err != nil {
		return err
	}
	return s.workers.SoftDeleteMany(ctx, ids)
}

// WorkerPerformance returns a worker's entries for a month with the shift
// split totals, most recent first.
func (s *Service) WorkerPerformance(ctx context.Context, id primitive.ObjectID, year int, month time.Month) ([]models.ProductionDetail, models.ReportTotals, error) {
	if _, err := s.workers.FindByID(ctx, id); err != nil {
		return nil, models.ReportTotals{}, err
	}

	start := time.Date(year, month, 1, 0, 0, 0, 0, time.Local)
	end := start.AddDate(0, 1, 0).Add(-time.Nanosecond)

	details, err := s.recorder.List(ctx, models.ProductionFilter{
		From:     &start,
		To:       &end,
		WorkerID: &id,
		SortBy:   "date",
		Order:    "desc",
		Limit:    50,
	})
	if err != nil {
		return nil, models.ReportTotals{}, err
	}

	var totals models.ReportTotals
	for _, d := range details {
		totals.Meters += d.MetersProduced
		totals.Earnings += d.Earnings
		if d.Shift == models.ShiftDay {
			totals.DayShiftMeters += d.MetersProduced
		} else {
			totals.NightShiftMeters += d.MetersProduced
		}
	}
	return details, totals, nil
}
