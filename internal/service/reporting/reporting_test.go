package reporting

import (
	"context"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/loomworks/loomledger/internal/domain/errs"
	"github.com/loomworks/loomledger/internal/domain/models"
	"github.com/loomworks/loomledger/internal/service/ledger"
	"github.com/loomworks/loomledger/internal/service/production"
	"github.com/loomworks/loomledger/internal/testutil"
)

type fixture struct {
	entries   *testutil.Productions
	takas     *testutil.Takas
	machines  *testutil.Machines
	workers   *testutil.Workers
	qualities *testutil.Qualities
	svc       *Service
}

func newFixture(sheets SheetWriter) *fixture {
	f := &fixture{
		entries:   testutil.NewProductions(),
		takas:     testutil.NewTakas(),
		machines:  testutil.NewMachines(),
		workers:   testutil.NewWorkers(),
		qualities: testutil.NewQualities(),
	}
	ledgerSvc := ledger.NewService(f.takas, nil, nil)
	recorder := production.NewService(f.entries, f.takas, f.machines, f.workers, f.qualities, ledgerSvc, nil)
	f.svc = NewService(f.entries, f.takas, f.machines, f.workers, f.qualities, recorder, sheets, nil)
	return f
}

func (f *fixture) seedEntry(worker primitive.ObjectID, meters, earnings float64, shift models.Shift, date time.Time) {
	f.entries.Seed(models.Production{
		Date:           date,
		Machine:        primitive.NewObjectID(),
		Worker:         worker,
		Taka:           primitive.NewObjectID(),
		QualityGrade:   primitive.NewObjectID(),
		Shift:          shift,
		MetersProduced: meters,
		Earnings:       earnings,
	})
}

func TestSummarizeByWorker(t *testing.T) {
	f := newFixture(nil)
	date := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)

	workerX := f.workers.Seed(models.Worker{WorkerCode: "W-01", Name: "Worker X", IsActive: true})
	workerY := f.workers.Seed(models.Worker{WorkerCode: "W-02", Name: "Worker Y", IsActive: true})

	f.seedEntry(workerX.ID, 20, 200, models.ShiftDay, date)
	f.seedEntry(workerX.ID, 30, 300, models.ShiftNight, date)
	f.seedEntry(workerY.ID, 10, 150, models.ShiftDay, date)

	summaries, err := f.svc.Summarize(context.Background(), models.ProductionFilter{}, models.GroupByWorker)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("got %d buckets, want 2", len(summaries))
	}

	byKey := map[string]models.GroupSummary{}
	for _, s := range summaries {
		byKey[s.Key] = s
	}

	x := byKey[workerX.ID.Hex()]
	if x.Count != 2 || x.Meters != 50 || x.Earnings != 500 {
		t.Fatalf("worker X bucket = %+v, want count=2 meters=50 earnings=500", x)
	}
	if x.DayShiftMeters != 20 || x.NightShiftMeters != 30 {
		t.Fatalf("worker X shift split = %v/%v", x.DayShiftMeters, x.NightShiftMeters)
	}
	if x.AvgMeters != 25 {
		t.Fatalf("worker X avg = %v, want 25", x.AvgMeters)
	}
	if x.Label != "Worker X" {
		t.Fatalf("worker X label = %q", x.Label)
	}

	y := byKey[workerY.ID.Hex()]
	if y.Count != 1 || y.Meters != 10 || y.Earnings != 150 {
		t.Fatalf("worker Y bucket = %+v, want count=1 meters=10 earnings=150", y)
	}

	// Default order is ascending group key.
	if summaries[0].Key > summaries[1].Key {
		t.Fatalf("buckets not in ascending key order: %s, %s", summaries[0].Key, summaries[1].Key)
	}
}

func TestSummarizeEmptySet(t *testing.T) {
	f := newFixture(nil)

	summaries, err := f.svc.Summarize(context.Background(), models.ProductionFilter{}, models.GroupByDay)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if len(summaries) != 0 {
		t.Fatalf("got %d buckets from an empty store", len(summaries))
	}
}

func TestSummarizeInvalidGroupKey(t *testing.T) {
	f := newFixture(nil)
	_, err := f.svc.Summarize(context.Background(), models.ProductionFilter{}, "loom")
	if !errs.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSummarizeSortByMetersDesc(t *testing.T) {
	f := newFixture(nil)
	date := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)

	a := f.workers.Seed(models.Worker{WorkerCode: "W-01", Name: "A", IsActive: true})
	b := f.workers.Seed(models.Worker{WorkerCode: "W-02", Name: "B", IsActive: true})
	c := f.workers.Seed(models.Worker{WorkerCode: "W-03", Name: "C", IsActive: true})

	f.seedEntry(a.ID, 10, 100, models.ShiftDay, date)
	f.seedEntry(b.ID, 30, 300, models.ShiftDay, date)
	f.seedEntry(c.ID, 20, 200, models.ShiftDay, date)

	summaries, err := f.svc.Summarize(context.Background(),
		models.ProductionFilter{SortBy: "meters", Order: "desc"}, models.GroupByWorker)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if summaries[0].Meters != 30 || summaries[1].Meters != 20 || summaries[2].Meters != 10 {
		t.Fatalf("wrong order: %v, %v, %v", summaries[0].Meters, summaries[1].Meters, summaries[2].Meters)
	}
}

func TestSummarizeSortByRate(t *testing.T) {
	f := newFixture(nil)
	date := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)

	cheap := f.qualities.Seed(models.QualityGrade{Name: "Cotton 40s", RatePerMeter: 8, IsActive: true})
	fine := f.qualities.Seed(models.QualityGrade{Name: "Cotton 80s", RatePerMeter: 15, IsActive: true})

	w := primitive.NewObjectID()
	f.entries.Seed(models.Production{
		Date: date, Machine: primitive.NewObjectID(), Worker: w,
		Taka: primitive.NewObjectID(), QualityGrade: cheap.ID,
		Shift: models.ShiftDay, MetersProduced: 100, Earnings: 800,
	})
	f.entries.Seed(models.Production{
		Date: date, Machine: primitive.NewObjectID(), Worker: w,
		Taka: primitive.NewObjectID(), QualityGrade: fine.ID,
		Shift: models.ShiftDay, MetersProduced: 20, Earnings: 300,
	})

	summaries, err := f.svc.Summarize(context.Background(),
		models.ProductionFilter{SortBy: "rate", Order: "desc"}, models.GroupByQuality)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("got %d buckets, want 2", len(summaries))
	}
	// 300/20 = 15 per meter outranks 800/100 = 8.
	if summaries[0].Label != "Cotton 80s" || summaries[1].Label != "Cotton 40s" {
		t.Fatalf("wrong rate order: %q, %q", summaries[0].Label, summaries[1].Label)
	}
}

func TestSummarizeByDay(t *testing.T) {
	f := newFixture(nil)
	w := primitive.NewObjectID()

	f.seedEntry(w, 10, 100, models.ShiftDay, time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC))
	f.seedEntry(w, 15, 150, models.ShiftDay, time.Date(2026, 8, 20, 14, 0, 0, 0, time.UTC))
	f.seedEntry(w, 20, 200, models.ShiftDay, time.Date(2026, 8, 21, 9, 0, 0, 0, time.UTC))

	summaries, err := f.svc.Summarize(context.Background(), models.ProductionFilter{}, models.GroupByDay)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("got %d day buckets, want 2", len(summaries))
	}
	if summaries[0].Key != "2026-08-20" || summaries[0].Meters != 25 {
		t.Fatalf("first day bucket = %+v", summaries[0])
	}
	if summaries[1].Key != "2026-08-21" || summaries[1].Meters != 20 {
		t.Fatalf("second day bucket = %+v", summaries[1])
	}
}

func TestSalaryReportGroupsByWorker(t *testing.T) {
	f := newFixture(nil)

	w1 := f.workers.Seed(models.Worker{WorkerCode: "W-01", Name: "Ramesh", IsActive: true})
	w2 := f.workers.Seed(models.Worker{WorkerCode: "W-02", Name: "Suresh", IsActive: true})

	aug := time.Date(2026, 8, 10, 0, 0, 0, 0, time.Local)
	f.seedEntry(w1.ID, 100, 1000, models.ShiftDay, aug)
	f.seedEntry(w1.ID, 50, 500, models.ShiftNight, aug.AddDate(0, 0, 1))
	f.seedEntry(w2.ID, 80, 800, models.ShiftDay, aug)
	// Outside the month, must be excluded.
	f.seedEntry(w1.ID, 999, 9990, models.ShiftDay, aug.AddDate(0, -1, 0))

	rows, err := f.svc.SalaryReport(context.Background(), 2026, time.August)
	if err != nil {
		t.Fatalf("SalaryReport: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0].Worker.WorkerCode != "W-01" || rows[1].Worker.WorkerCode != "W-02" {
		t.Fatalf("rows not ordered by worker code: %+v", rows)
	}
	if rows[0].Metrics.TotalMeters != 150 || rows[0].Metrics.TotalEarnings != 1500 {
		t.Fatalf("W-01 metrics = %+v", rows[0].Metrics)
	}
	if rows[0].Metrics.DayShiftMeters != 100 || rows[0].Metrics.NightShiftMeters != 50 {
		t.Fatalf("W-01 shift split = %+v", rows[0].Metrics)
	}
}

type recordingSheet struct {
	ranges []string
	rows   [][]interface{}
}

func (r *recordingSheet) WriteRow(_ context.Context, sheetRange string, values []interface{}) error {
	r.ranges = append(r.ranges, sheetRange)
	r.rows = append(r.rows, values)
	return nil
}

func TestExportSalaryWritesRows(t *testing.T) {
	sheet := &recordingSheet{}
	f := newFixture(sheet)

	w := f.workers.Seed(models.Worker{WorkerCode: "W-01", Name: "Ramesh", IsActive: true})
	f.seedEntry(w.ID, 100, 1000, models.ShiftDay, time.Date(2026, 8, 10, 0, 0, 0, 0, time.Local))

	n, err := f.svc.ExportSalary(context.Background(), 2026, time.August, "Salary!A:G")
	if err != nil {
		t.Fatalf("ExportSalary: %v", err)
	}
	if n != 1 || len(sheet.rows) != 1 {
		t.Fatalf("wrote %d rows, want 1", len(sheet.rows))
	}
	if sheet.ranges[0] != "Salary!A:G" {
		t.Fatalf("range = %q", sheet.ranges[0])
	}
}

func TestExportSalaryUnconfigured(t *testing.T) {
	f := newFixture(nil)
	_, err := f.svc.ExportSalary(context.Background(), 2026, time.August, "Salary!A:G")
	if !errs.IsValidation(err) {
		t.Fatalf("expected validation error without a sheet writer, got %v", err)
	}
}

func TestMonthlyTrendsMonthEndReference(t *testing.T) {
	f := newFixture(nil)
	w := primitive.NewObjectID()

	// November and February have no 31st, so a reference on March 31 must
	// still yield one bucket per calendar month.
	f.seedEntry(w, 40, 400, models.ShiftDay, time.Date(2025, 11, 15, 0, 0, 0, 0, time.UTC))
	f.seedEntry(w, 25, 250, models.ShiftDay, time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC))

	ref := time.Date(2026, 3, 31, 12, 0, 0, 0, time.UTC)
	trends, err := f.svc.MonthlyTrends(context.Background(), ref, 6)
	if err != nil {
		t.Fatalf("MonthlyTrends: %v", err)
	}

	want := []string{"Oct 2025", "Nov 2025", "Dec 2025", "Jan 2026", "Feb 2026", "Mar 2026"}
	if len(trends) != len(want) {
		t.Fatalf("got %d buckets, want %d", len(trends), len(want))
	}
	for i, label := range want {
		if trends[i].Month != label {
			t.Fatalf("bucket %d = %q, want %q", i, trends[i].Month, label)
		}
	}
	if trends[1].Meters != 40 || trends[1].Earnings != 400 {
		t.Fatalf("Nov 2025 bucket = %+v", trends[1])
	}
	if trends[4].Meters != 25 || trends[4].Earnings != 250 {
		t.Fatalf("Feb 2026 bucket = %+v", trends[4])
	}
}

func TestDashboardCounts(t *testing.T) {
	f := newFixture(nil)

	f.machines.Seed(models.Machine{MachineCode: "M-01", Status: models.MachineActive, IsActive: true})
	f.machines.Seed(models.Machine{MachineCode: "M-02", Status: models.MachineInactive, IsActive: true})
	f.workers.Seed(models.Worker{WorkerCode: "W-01", IsActive: true})
	f.takas.Seed(models.Taka{TakaNumber: "T001", Status: models.LotActive})
	f.takas.Seed(models.Taka{TakaNumber: "T002", Status: models.LotCompleted})

	stats, err := f.svc.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if stats.Machines.Total != 2 || stats.Machines.Active != 1 || stats.Machines.Inactive != 1 {
		t.Fatalf("machine counts = %+v", stats.Machines)
	}
	if stats.Workers.Total != 1 {
		t.Fatalf("worker counts = %+v", stats.Workers)
	}
	if stats.Takas.Active != 1 {
		t.Fatalf("taka counts = %+v", stats.Takas)
	}
}
