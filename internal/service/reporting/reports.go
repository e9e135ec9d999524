package reporting

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/loomworks/loomledger/internal/domain/errs"
	"github.com/loomworks/loomledger/internal/domain/models"
)

// WorkerReport groups the filtered entries by worker, each group carrying
// the entries and their totals with the day/night split.
func (s *Service) WorkerReport(ctx context.Context, f models.ProductionFilter) ([]models.ReportGroup, error) {
	details, err := s.listDetailed(ctx, f)
	if err != nil {
		return nil, err
	}

	groups := make(map[primitive.ObjectID]*models.ReportGroup)
	order := make([]primitive.ObjectID, 0)
	for _, d := range details {
		g, ok := groups[d.Worker]
		if !ok {
			ref := d.WorkerRef
			g = &models.ReportGroup{Worker: &ref}
			groups[d.Worker] = g
			order = append(order, d.Worker)
		}
		g.Productions = append(g.Productions, d)
		addToTotals(&g.Totals, d)
	}

	return collectGroups(groups, order), nil
}

// MachineReport groups the filtered entries by machine.
func (s *Service) MachineReport(ctx context.Context, f models.ProductionFilter) ([]models.ReportGroup, error) {
	details, err := s.listDetailed(ctx, f)
	if err != nil {
		return nil, err
	}

	groups := make(map[primitive.ObjectID]*models.ReportGroup)
	order := make([]primitive.ObjectID, 0)
	for _, d := range details {
		g, ok := groups[d.Machine]
		if !ok {
			ref := d.MachineRef
			g = &models.ReportGroup{Machine: &ref}
			groups[d.Machine] = g
			order = append(order, d.Machine)
		}
		g.Productions = append(g.Productions, d)
		addToTotals(&g.Totals, d)
	}

	return collectGroups(groups, order), nil
}

// SalaryReport computes every worker's payroll line for the given month,
// ordered by worker code.
func (s *Service) SalaryReport(ctx context.Context, year int, month time.Month) ([]models.SalaryRow, error) {
	start, end := monthRange(year, month, time.Local)
	f := models.ProductionFilter{From: &start, To: &end}

	rows, err := s.entries.GroupTotals(ctx, f, models.GroupByWorker)
	if err != nil {
		return nil, err
	}

	ids := make([]primitive.ObjectID, 0, len(rows))
	for _, r := range rows {
		if id, err := primitive.ObjectIDFromHex(r.Key); err == nil {
			ids = append(ids, id)
		}
	}
	workers, err := s.workers.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	salary := make([]models.SalaryRow, 0, len(rows))
	for _, r := range rows {
		row := models.SalaryRow{
			Metrics: models.SalaryMetrics{
				TotalMeters:      r.Meters,
				DayShiftMeters:   r.DayShiftMeters,
				NightShiftMeters: r.NightShiftMeters,
				TotalEarnings:    r.Earnings,
			},
		}
		if id, err := primitive.ObjectIDFromHex(r.Key); err == nil {
			if w, ok := workers[id]; ok {
				row.Worker = w.Ref()
			} else {
				row.Worker = models.WorkerRef{ID: id}
			}
		}
		salary = append(salary, row)
	}

	sort.SliceStable(salary, func(i, j int) bool {
		return salary[i].Worker.WorkerCode < salary[j].Worker.WorkerCode
	})
	return salary, nil
}

const salaryExportLayout = "2006-01"

// ExportSalary appends the month's payroll lines to the configured
// spreadsheet, one row per worker.
func (s *Service) ExportSalary(ctx context.Context, year int, month time.Month, sheetRange string) (int, error) {
	if s.sheets == nil {
		return 0, errs.Validation("sheet export is not configured")
	}
	if sheetRange == "" {
		return 0, errs.Validation("sheet range must be provided")
	}

	rows, err := s.SalaryReport(ctx, year, month)
	if err != nil {
		return 0, err
	}

	period := time.Date(year, month, 1, 0, 0, 0, 0, time.Local).Format(salaryExportLayout)
	for _, row := range rows {
		values := []interface{}{
			period,
			row.Worker.WorkerCode,
			row.Worker.Name,
			string(row.Worker.WorkerType),
			row.Metrics.TotalMeters,
			row.Metrics.DayShiftMeters,
			row.Metrics.NightShiftMeters,
			row.Metrics.TotalEarnings,
		}
		if err := s.sheets.WriteRow(ctx, sheetRange, values); err != nil {
			return 0, fmt.Errorf("export salary row for %s: %w", row.Worker.WorkerCode, err)
		}
	}

	s.logger.Info("salary report exported",
		zap.String("period", period),
		zap.Int("rows", len(rows)))
	return len(rows), nil
}

func (s *Service) listDetailed(ctx context.Context, f models.ProductionFilter) ([]models.ProductionDetail, error) {
	entries, err := s.entries.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return s.recorder.Populate(ctx, entries)
}

func addToTotals(t *models.ReportTotals, d models.ProductionDetail) {
	t.Meters += d.MetersProduced
	t.Earnings += d.Earnings
	if d.Shift == models.ShiftDay {
		t.DayShiftMeters += d.MetersProduced
	} else {
		t.NightShiftMeters += d.MetersProduced
	}
}

func collectGroups(groups map[primitive.ObjectID]*models.ReportGroup, order []primitive.ObjectID) []models.ReportGroup {
	out := make([]models.ReportGroup, 0, len(order))
	for _, id := range order {
		out = append(out, *groups[id])
	}
	return out
}
