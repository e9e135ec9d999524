package reporting

import (
	"context"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/loomworks/loomledger/internal/domain/models"
)

const leaderboardSize = 5

// ProductionStats answers GET /productions/stats: overall counts, today /
// month / all-time totals, today's shift split and the month's leaderboards.
func (s *Service) ProductionStats(ctx context.Context) (*models.ProductionStats, error) {
	now := time.Now()
	todayStart, todayEnd := dayRange(now)
	monthStart, monthEnd := currentMonthRange(now)

	total, err := s.entries.Count(ctx, models.ProductionFilter{})
	if err != nil {
		return nil, err
	}

	today, err := s.entries.Totals(ctx, models.ProductionFilter{From: &todayStart, To: &todayEnd})
	if err != nil {
		return nil, err
	}
	month, err := s.entries.Totals(ctx, models.ProductionFilter{From: &monthStart, To: &monthEnd})
	if err != nil {
		return nil, err
	}
	allTime, err := s.entries.Totals(ctx, models.ProductionFilter{})
	if err != nil {
		return nil, err
	}

	stats := &models.ProductionStats{
		TotalProductions: total,
		Today:            today,
		Month:            month,
		AllTime: models.AllTimeTotals{
			Meters:   allTime.Meters,
			Earnings: allTime.Earnings,
		},
		ShiftStats: make(map[models.Shift]models.ProductionTotals, 2),
	}
	if allTime.Count > 0 {
		stats.AllTime.AvgMeters = allTime.Meters / float64(allTime.Count)
	}

	for _, shift := range []models.Shift{models.ShiftDay, models.ShiftNight} {
		totals, err := s.entries.Totals(ctx, models.ProductionFilter{From: &todayStart, To: &todayEnd, Shift: shift})
		if err != nil {
			return nil, err
		}
		stats.ShiftStats[shift] = totals
	}

	monthFilter := models.ProductionFilter{From: &monthStart, To: &monthEnd}
	stats.TopMachines, err = s.topPerformers(ctx, monthFilter, models.GroupByMachine)
	if err != nil {
		return nil, err
	}
	stats.TopWorkers, err = s.topPerformers(ctx, monthFilter, models.GroupByWorker)
	if err != nil {
		return nil, err
	}

	return stats, nil
}

// Dashboard answers GET /dashboard/stats.
func (s *Service) Dashboard(ctx context.Context) (*models.DashboardStats, error) {
	now := time.Now()
	todayStart, todayEnd := dayRange(now)
	monthStart, monthEnd := currentMonthRange(now)

	machineCounts, err := s.machines.Counts(ctx)
	if err != nil {
		return nil, err
	}
	workerCount, err := s.workers.CountActive(ctx)
	if err != nil {
		return nil, err
	}
	activeTakas, err := s.takas.CountByStatus(ctx, models.LotActive)
	if err != nil {
		return nil, err
	}

	var shifts [2]models.ProductionTotals
	for i, shift := range []models.Shift{models.ShiftDay, models.ShiftNight} {
		totals, err := s.entries.Totals(ctx, models.ProductionFilter{From: &todayStart, To: &todayEnd, Shift: shift})
		if err != nil {
			return nil, err
		}
		shifts[i] = totals
	}

	month, err := s.entries.Totals(ctx, models.ProductionFilter{From: &monthStart, To: &monthEnd})
	if err != nil {
		return nil, err
	}

	return &models.DashboardStats{
		Machines: machineCounts,
		Workers:  models.WorkerCounts{Total: workerCount},
		Takas:    models.TakaCounts{Active: activeTakas},
		TodayProduction: models.TodayProduction{
			Day:   shifts[0],
			Night: shifts[1],
			Total: models.ProductionTotals{
				Count:    shifts[0].Count + shifts[1].Count,
				Meters:   shifts[0].Meters + shifts[1].Meters,
				Earnings: shifts[0].Earnings + shifts[1].Earnings,
			},
		},
		MonthProduction: month,
	}, nil
}

// MonthlyTrends returns the last n calendar months of production ending at
// ref's month, oldest first.
func (s *Service) MonthlyTrends(ctx context.Context, ref time.Time, n int) ([]models.MonthlyTrend, error) {
	if n <= 0 {
		n = 6
	}

	// Step back from the first of ref's month. Stepping from ref itself
	// skips short months when ref falls on a day they don't have.
	first := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location())
	trends := make([]models.MonthlyTrend, 0, n)
	for i := n - 1; i >= 0; i-- {
		anchor := first.AddDate(0, -i, 0)
		start, end := monthRange(anchor.Year(), anchor.Month(), anchor.Location())

		totals, err := s.entries.Totals(ctx, models.ProductionFilter{From: &start, To: &end})
		if err != nil {
			return nil, err
		}
		trends = append(trends, models.MonthlyTrend{
			Month:    start.Format("Jan 2006"),
			Meters:   totals.Meters,
			Earnings: totals.Earnings,
		})
	}
	return trends, nil
}

// TopPerformers returns this month's top workers and machines by meters.
func (s *Service) TopPerformers(ctx context.Context) (workers, machines []models.TopPerformer, err error) {
	monthStart, monthEnd := currentMonthRange(time.Now())
	f := models.ProductionFilter{From: &monthStart, To: &monthEnd}

	workers, err = s.topPerformers(ctx, f, models.GroupByWorker)
	if err != nil {
		return nil, nil, err
	}
	machines, err = s.topPerformers(ctx, f, models.GroupByMachine)
	if err != nil {
		return nil, nil, err
	}
	return workers, machines, nil
}

// QualityDistribution returns this month's meters and entry counts per
// quality grade.
func (s *Service) QualityDistribution(ctx context.Context) ([]models.QualityShare, error) {
	monthStart, monthEnd := currentMonthRange(time.Now())

	summaries, err := s.Summarize(ctx, models.ProductionFilter{From: &monthStart, To: &monthEnd}, models.GroupByQuality)
	if err != nil {
		return nil, err
	}

	shares := make([]models.QualityShare, 0, len(summaries))
	for _, sum := range summaries {
		shares = append(shares, models.QualityShare{
			Name:   sum.Label,
			Meters: sum.Meters,
			Count:  sum.Count,
		})
	}
	return shares, nil
}

func (s *Service) topPerformers(ctx context.Context, f models.ProductionFilter, groupBy models.GroupKey) ([]models.TopPerformer, error) {
	rows, err := s.entries.GroupTotals(ctx, f, groupBy)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Meters > rows[j].Meters })
	if len(rows) > leaderboardSize {
		rows = rows[:leaderboardSize]
	}

	ids := make([]primitive.ObjectID, 0, len(rows))
	for _, r := range rows {
		if id, err := primitive.ObjectIDFromHex(r.Key); err == nil {
			ids = append(ids, id)
		}
	}

	performers := make([]models.TopPerformer, 0, len(rows))
	switch groupBy {
	case models.GroupByWorker:
		workers, err := s.workers.FindByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			p := models.TopPerformer{Count: r.Count, Meters: r.Meters, Earnings: r.Earnings}
			if id, err := primitive.ObjectIDFromHex(r.Key); err == nil {
				p.ID = id
				if w, ok := workers[id]; ok {
					p.Code = w.WorkerCode
					p.Name = w.Name
				}
			}
			performers = append(performers, p)
		}
	case models.GroupByMachine:
		machines, err := s.machines.FindByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			p := models.TopPerformer{Count: r.Count, Meters: r.Meters, Earnings: r.Earnings}
			if id, err := primitive.ObjectIDFromHex(r.Key); err == nil {
				p.ID = id
				if m, ok := machines[id]; ok {
					p.Code = m.MachineCode
					p.Name = m.MachineName
				}
			}
			performers = append(performers, p)
		}
	}
	return performers, nil
}
