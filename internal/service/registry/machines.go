package registry

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/loomworks/loomledger/internal/domain/errs"
	"github.com/loomworks/loomledger/internal/domain/models"
)

// MachineCreateRequest is the payload for registering a loom.
type MachineCreateRequest struct {
	MachineCode      string               `json:"machineCode" binding:"required"`
	MachineName      string               `json:"machineName" binding:"required"`
	MachineType      string               `json:"machineType"`
	Status           models.MachineStatus `json:"status"`
	InstallationDate *time.Time           `json:"installationDate"`
	DayShiftWorker   *string              `json:"dayShiftWorker"`
	NightShiftWorker *string              `json:"nightShiftWorker"`
	Location         string               `json:"location"`
	Notes            string               `json:"notes"`
}

// MachineUpdateRequest carries the mutable machine fields; nil members are
// left untouched.
type MachineUpdateRequest struct {
	MachineCode      *string               `json:"machineCode"`
	MachineName      *string               `json:"machineName"`
	MachineType      *string               `json:"machineType"`
	Status           *models.MachineStatus `json:"status"`
	InstallationDate *time.Time            `json:"installationDate"`
	Location         *string               `json:"location"`
	Notes            *string               `json:"notes"`
}

// AssignWorkerRequest binds a worker to one shift slot of a machine.
type AssignWorkerRequest struct {
	WorkerID string       `json:"workerId" binding:"required"`
	Shift    models.Shift `json:"shift" binding:"required"`
}

// CreateMachine registers a loom. Machine codes are unique among live
// machines.
func (s *Service) CreateMachine(ctx context.Context, req MachineCreateRequest) (*models.Machine, error) {
	status := req.Status
	if status == "" {
		status = models.MachineActive
	}
	if !status.Valid() {
		return nil, errs.Validation("unknown machine status %q", status)
	}

	if _, err := s.machines.FindByCode(ctx, req.MachineCode); err == nil {
		return nil, errs.Conflict("machine code %s already exists", req.MachineCode)
	} else if !errs.IsNotFound(err) {
		return nil, err
	}

	m := &models.Machine{
		MachineCode:      req.MachineCode,
		MachineName:      req.MachineName,
		MachineType:      req.MachineType,
		Status:           status,
		InstallationDate: req.InstallationDate,
		Location:         req.Location,
		Notes:            req.Notes,
		IsActive:         true,
	}

	if req.DayShiftWorker != nil {
		id, err := s.resolveWorker(ctx, *req.DayShiftWorker)
		if err != nil {
			return nil, err
		}
		m.DayShiftWorker = &id
	}
	if req.NightShiftWorker != nil {
		id, err := s.resolveWorker(ctx, *req.NightShiftWorker)
		if err != nil {
			return nil, err
		}
		m.NightShiftWorker = &id
	}

	if err := s.machines.Insert(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// UpdateMachine mutates a machine's descriptive fields.
func (s *Service) UpdateMachine(ctx context.Context, id primitive.ObjectID, req MachineUpdateRequest) (*models.Machine, error) {
	m, err := s.machines.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.MachineCode != nil && *req.MachineCode != m.MachineCode {
		if existing, err := s.machines.FindByCode(ctx, *req.MachineCode); err == nil && existing.ID != id {
			return nil, errs.Conflict("machine code %s already exists", *req.MachineCode)
		} else if err != nil && !errs.IsNotFound(err) {
			return nil, err
		}
		m.MachineCode = *req.MachineCode
	}
	if req.MachineName != nil {
		m.MachineName = *req.MachineName
	}
	if req.MachineType != nil {
		m.MachineType = *req.MachineType
	}
	if req.Status != nil {
		if !req.Status.Valid() {
			return nil, errs.Validation("unknown machine status %q", *req.Status)
		}
		m.Status = *req.Status
	}
	if req.InstallationDate != nil {
		m.InstallationDate = req.InstallationDate
	}
	if req.Location != nil {
		m.Location = *req.Location
	}
	if req.Notes != nil {
		m.Notes = *req.Notes
	}

	if err := s.machines.Update(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// GetMachine fetches one machine.
func (s *Service) GetMachine(ctx context.Context, id primitive.ObjectID) (*models.Machine, error) {
	return s.machines.FindByID(ctx, id)
}

// ListMachines returns live machines with today's production attached.
func (s *Service) ListMachines(ctx context.Context, f models.MachineFilter) ([]models.MachineDetail, error) {
	machines, err := s.machines.List(ctx, f)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	details := make([]models.MachineDetail, 0, len(machines))
	for _, m := range machines {
		machineID := m.ID
		today, err := s.entries.Totals(ctx, models.ProductionFilter{From: &todayStart, MachineID: &machineID})
		if err != nil {
			return nil, err
		}
		total, err := s.entries.Count(ctx, models.ProductionFilter{MachineID: &machineID})
		if err != nil {
			return nil, err
		}
		details = append(details, models.MachineDetail{
			Machine:          m,
			TodayProduction:  today,
			TotalProductions: total,
		})
	}
	return details, nil
}

// DeleteMachine soft-deletes a loom, keeping its production history.
func (s *Service) DeleteMachine(ctx context.Context, id primitive.ObjectID) error {
	return s.machines.SoftDelete(ctx, id)
}

// BulkDeleteMachines soft-deletes a batch of looms.
func (s *Service) BulkDeleteMachines(ctx context.Context, hexIDs []string) error {
	ids, err := parseIDs(hexIDs, "machine")
	if err != nil {
		return err
	}
	return s.machines.SoftDeleteMany(ctx, ids)
}

// AssignWorker binds a worker to the day or night slot of a machine.
func (s *Service) AssignWorker(ctx context.Context, machineID primitive.ObjectID, req AssignWorkerRequest) (*models.Machine, error) {
	if !req.Shift.Valid() {
		return nil, errs.Validation("shift must be Day or Night")
	}
	workerID, err := s.resolveWorker(ctx, req.WorkerID)
	if err != nil {
		return nil, err
	}
	return s.machines.SetShiftWorker(ctx, machineID, req.Shift, workerID)
}

// MachineProduction returns a machine's production history with totals.
func (s *Service) MachineProduction(ctx context.Context, id primitive.ObjectID, f models.ProductionFilter) ([]models.ProductionDetail, models.ReportTotals, error) {
	if _, err := s.machines.FindByID(ctx, id); err != nil {
		return nil, models.ReportTotals{}, err
	}

	f.MachineID = &id
	details, err := s.recorder.List(ctx, f)
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

// MachineStats summarizes one machine: today per shift, this month, all
// time, and the last seven days as a daily trend.
func (s *Service) MachineStats(ctx context.Context, id primitive.ObjectID) (map[string]any, error) {
	if _, err := s.machines.FindByID(ctx, id); err != nil {
		return nil, err
	}

	now := time.Now()
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	weekStart := todayStart.AddDate(0, 0, -7)

	today := make(map[models.Shift]models.ProductionTotals, 2)
	for _, shift := range []models.Shift{models.ShiftDay, models.ShiftNight} {
		totals, err := s.entries.Totals(ctx, models.ProductionFilter{From: &todayStart, MachineID: &id, Shift: shift})
		if err != nil {
			return nil, err
		}
		today[shift] = totals
	}

	month, err := s.entries.Totals(ctx, models.ProductionFilter{From: &monthStart, MachineID: &id})
	if err != nil {
		return nil, err
	}
	allTime, err := s.entries.Totals(ctx, models.ProductionFilter{MachineID: &id})
	if err != nil {
		return nil, err
	}
	weekTrend, err := s.entries.GroupTotals(ctx, models.ProductionFilter{From: &weekStart, MachineID: &id}, models.GroupByDay)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"today":     today,
		"month":     month,
		"allTime":   allTime,
		"weekTrend": weekTrend,
	}, nil
}

func (s *Service) resolveWorker(ctx context.Context, hex string) (primitive.ObjectID, error) {
	id, err := parseID(hex, "worker")
	if err != nil {
		return primitive.NilObjectID, err
	}
	if _, err := s.workers.FindByID(ctx, id); err != nil {
		return primitive.NilObjectID, err
	}
	return id, nil
}
