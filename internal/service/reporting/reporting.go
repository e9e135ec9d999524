// Package reporting is the read-only side of the system: grouped summaries,
// dashboard statistics and payroll reports over production entries. Nothing
// here mutates entries or lots.
package reporting

import (
	"context"
	"sort"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/loomworks/loomledger/internal/domain/errs"
	"github.com/loomworks/loomledger/internal/domain/models"
	"github.com/loomworks/loomledger/internal/repository"
	"github.com/loomworks/loomledger/internal/service/production"
)

// SheetWriter appends rows to an external spreadsheet. Satisfied by the
// Google Sheets repository; nil when export is not configured.
type SheetWriter interface {
	WriteRow(ctx context.Context, sheetRange string, values []interface{}) error
}

// Service answers aggregate queries.
type Service struct {
	entries   repository.ProductionStore
	takas     repository.TakaStore
	machines  repository.MachineStore
	workers   repository.WorkerStore
	qualities repository.QualityStore
	recorder  *production.Service
	sheets    SheetWriter
	logger    *zap.Logger
}

// NewService wires a reporting instance. sheets may be nil.
func NewService(
	entries repository.ProductionStore,
	takas repository.TakaStore,
	machines repository.MachineStore,
	workers repository.WorkerStore,
	qualities repository.QualityStore,
	recorder *production.Service,
	sheets SheetWriter,
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
		recorder:  recorder,
		sheets:    sheets,
		logger:    logger,
	}
}

// Summarize buckets the filtered entries by the given dimension. Zero
// matches yield an empty slice. Buckets come back ordered by ascending group
// key unless the filter requests another sort field or direction.
func (s *Service) Summarize(ctx context.Context, f models.ProductionFilter, groupBy models.GroupKey) ([]models.GroupSummary, error) {
	if !groupBy.Valid() {
		return nil, errs.Validation("groupBy must be one of worker, machine, quality, day")
	}

	rows, err := s.entries.GroupTotals(ctx, f, groupBy)
	if err != nil {
		return nil, err
	}

	summaries := make([]models.GroupSummary, 0, len(rows))
	for _, r := range rows {
		sum := models.GroupSummary{
			Key:              r.Key,
			Count:            r.Count,
			Meters:           r.Meters,
			Earnings:         r.Earnings,
			DayShiftMeters:   r.DayShiftMeters,
			NightShiftMeters: r.NightShiftMeters,
		}
		if r.Count > 0 {
			sum.AvgMeters = r.Meters / float64(r.Count)
		}
		summaries = append(summaries, sum)
	}

	if err := s.attachLabels(ctx, summaries, groupBy); err != nil {
		return nil, err
	}

	sortSummaries(summaries, f.SortBy, f.Order)
	return summaries, nil
}

func (s *Service) attachLabels(ctx context.Context, summaries []models.GroupSummary, groupBy models.GroupKey) error {
	if groupBy == models.GroupByDay {
		return nil
	}

	ids := make([]primitive.ObjectID, 0, len(summaries))
	for _, sum := range summaries {
		if id, err := primitive.ObjectIDFromHex(sum.Key); err == nil {
			ids = append(ids, id)
		}
	}

	labels := make(map[string]string, len(ids))
	switch groupBy {
	case models.GroupByWorker:
		workers, err := s.workers.FindByIDs(ctx, ids)
		if err != nil {
			return err
		}
		for id, w := range workers {
			labels[id.Hex()] = w.Name
		}
	case models.GroupByMachine:
		machines, err := s.machines.FindByIDs(ctx, ids)
		if err != nil {
			return err
		}
		for id, m := range machines {
			labels[id.Hex()] = m.MachineName
		}
	case models.GroupByQuality:
		qualities, err := s.qualities.FindByIDs(ctx, ids)
		if err != nil {
			return err
		}
		for id, q := range qualities {
			labels[id.Hex()] = q.Name
		}
	}

	for i := range summaries {
		summaries[i].Label = labels[summaries[i].Key]
	}
	return nil
}

// sortSummaries orders buckets deterministically: ascending key by default,
// or the caller's field and direction.
func sortSummaries(summaries []models.GroupSummary, sortBy, order string) {
	desc := strings.EqualFold(order, "desc")

	less := func(a, b models.GroupSummary) bool { return a.Key < b.Key }
	switch sortBy {
	case "", "key", "date":
	case "name":
		less = func(a, b models.GroupSummary) bool {
			if a.Label != b.Label {
				return a.Label < b.Label
			}
			return a.Key < b.Key
		}
	case "meters":
		less = func(a, b models.GroupSummary) bool {
			if a.Meters != b.Meters {
				return a.Meters < b.Meters
			}
			return a.Key < b.Key
		}
	case "earnings":
		less = func(a, b models.GroupSummary) bool {
			if a.Earnings != b.Earnings {
				return a.Earnings < b.Earnings
			}
			return a.Key < b.Key
		}
	case "count":
		less = func(a, b models.GroupSummary) bool {
			if a.Count != b.Count {
				return a.Count < b.Count
			}
			return a.Key < b.Key
		}
	case "rate":
		less = func(a, b models.GroupSummary) bool {
			ra, rb := effectiveRate(a), effectiveRate(b)
			if ra != rb {
				return ra < rb
			}
			return a.Key < b.Key
		}
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		if desc {
			return less(summaries[j], summaries[i])
		}
		return less(summaries[i], summaries[j])
	})
}

// effectiveRate is a bucket's earnings per meter. Buckets with no meters
// sort at zero.
func effectiveRate(s models.GroupSummary) float64 {
	if s.Meters == 0 {
		return 0
	}
	return s.Earnings / s.Meters
}
