package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProductionTotals is the common aggregate over a set of production entries.
type ProductionTotals struct {
	Count    int64   `bson:"count" json:"count"`
	Meters   float64 `bson:"totalMeters" json:"totalMeters"`
	Earnings float64 `bson:"totalEarnings" json:"totalEarnings"`
}

// GroupKey selects the bucketing dimension for Summarize.
type GroupKey string

const (
	GroupByWorker  GroupKey = "worker"
	GroupByMachine GroupKey = "machine"
	GroupByQuality GroupKey = "quality"
	GroupByDay     GroupKey = "day"
)

// Valid reports whether the value is one of the known group keys.
func (g GroupKey) Valid() bool {
	switch g {
	case GroupByWorker, GroupByMachine, GroupByQuality, GroupByDay:
		return true
	}
	return false
}

// GroupSummary is one bucket of a grouped production summary. Key is the
// group identity (an entity id hex or a YYYY-MM-DD day), Label a display
// name when the key is an entity.
type GroupSummary struct {
	Key              string  `json:"key"`
	Label            string  `json:"label,omitempty"`
	Count            int64   `json:"count"`
	Meters           float64 `json:"totalMeters"`
	Earnings         float64 `json:"totalEarnings"`
	DayShiftMeters   float64 `json:"dayShiftMeters"`
	NightShiftMeters float64 `json:"nightShiftMeters"`
	AvgMeters        float64 `json:"avgMeters"`
}

// KeyedTotals is one raw bucket of a grouped aggregation as the store
// returns it: the key is an entity id hex or a YYYY-MM-DD day.
type KeyedTotals struct {
	Key              string  `bson:"_id" json:"key"`
	Count            int64   `bson:"count" json:"count"`
	Meters           float64 `bson:"totalMeters" json:"totalMeters"`
	Earnings         float64 `bson:"totalEarnings" json:"totalEarnings"`
	DayShiftMeters   float64 `bson:"dayShiftMeters" json:"dayShiftMeters"`
	NightShiftMeters float64 `bson:"nightShiftMeters" json:"nightShiftMeters"`
}

// ProductionStats is the response of GET /productions/stats.
type ProductionStats struct {
	TotalProductions int64                      `json:"totalProductions"`
	Today            ProductionTotals           `json:"today"`
	Month            ProductionTotals           `json:"month"`
	AllTime          AllTimeTotals              `json:"allTime"`
	ShiftStats       map[Shift]ProductionTotals `json:"shiftStats"`
	TopMachines      []TopPerformer             `json:"topMachines"`
	TopWorkers       []TopPerformer             `json:"topWorkers"`
}

// AllTimeTotals extends the common totals with an average.
type AllTimeTotals struct {
	Meters    float64 `json:"totalMeters"`
	Earnings  float64 `json:"totalEarnings"`
	AvgMeters float64 `json:"avgMeters"`
}

// TopPerformer is one row of a top-machines or top-workers leaderboard.
type TopPerformer struct {
	ID       primitive.ObjectID `json:"id"`
	Code     string             `json:"code"`
	Name     string             `json:"name"`
	Count    int64              `json:"count"`
	Meters   float64            `json:"totalMeters"`
	Earnings float64            `json:"totalEarnings"`
}

// DashboardStats is the response of GET /dashboard/stats.
type DashboardStats struct {
	Machines        MachineCounts    `json:"machines"`
	Workers         WorkerCounts     `json:"workers"`
	Takas           TakaCounts       `json:"takas"`
	TodayProduction TodayProduction  `json:"todayProduction"`
	MonthProduction ProductionTotals `json:"monthProduction"`
}

// MachineCounts breaks the live machine population down by activity.
type MachineCounts struct {
	Total    int64 `json:"total"`
	Active   int64 `json:"active"`
	Inactive int64 `json:"inactive"`
}

// WorkerCounts holds worker headcounts.
type WorkerCounts struct {
	Total int64 `json:"total"`
}

// TakaCounts holds lot counts.
type TakaCounts struct {
	Active int64 `json:"active"`
}

// TodayProduction splits today's output by shift.
type TodayProduction struct {
	Day   ProductionTotals `json:"day"`
	Night ProductionTotals `json:"night"`
	Total ProductionTotals `json:"total"`
}

// MonthlyTrend is one month of the dashboard trend series.
type MonthlyTrend struct {
	Month    string  `json:"month"`
	Meters   float64 `json:"meters"`
	Earnings float64 `json:"earnings"`
}

// QualityShare is one slice of the month's quality distribution.
type QualityShare struct {
	Name   string  `json:"name"`
	Meters float64 `json:"meters"`
	Count  int64   `json:"count"`
}

// ReportGroup is one group of a worker or machine report: the subject, its
// entries and the running totals the client renders.
type ReportGroup struct {
	Worker      *WorkerRef         `json:"worker,omitempty"`
	Machine     *MachineRef        `json:"machine,omitempty"`
	Productions []ProductionDetail `json:"productions"`
	Totals      ReportTotals       `json:"totals"`
}

// ReportTotals carries the per-group sums with shift split.
type ReportTotals struct {
	Meters           float64 `json:"meters"`
	Earnings         float64 `json:"earnings"`
	DayShiftMeters   float64 `json:"dayShiftMeters"`
	NightShiftMeters float64 `json:"nightShiftMeters"`
}

// SalaryRow is one worker's payroll line for a month.
type SalaryRow struct {
	Worker  WorkerRef     `json:"worker"`
	Metrics SalaryMetrics `json:"metrics"`
}

// SalaryMetrics carries the payroll figures.
type SalaryMetrics struct {
	TotalMeters      float64 `json:"totalMeters"`
	DayShiftMeters   float64 `json:"dayShiftMeters"`
	NightShiftMeters float64 `json:"nightShiftMeters"`
	TotalEarnings    float64 `json:"totalEarnings"`
}

// DailySnapshot is the end-of-day production record persisted by the
// scheduler.
type DailySnapshot struct {
	Date        time.Time        `bson:"date" json:"date"`
	Day         ProductionTotals `bson:"day" json:"day"`
	Night       ProductionTotals `bson:"night" json:"night"`
	Total       ProductionTotals `bson:"total" json:"total"`
	ActiveTakas int64            `bson:"activeTakas" json:"activeTakas"`
	CreatedAt   time.Time        `bson:"createdAt" json:"createdAt"`
}
