package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/loomworks/loomledger/internal/domain/errs"
	"github.com/loomworks/loomledger/internal/domain/models"
)

// Takas is an in-memory TakaStore. ApplyMeterDelta and Transition mirror the
// atomicity of the MongoDB pipeline updates by running under the store mutex.
type Takas struct {
	mu   sync.Mutex
	byID map[primitive.ObjectID]models.Taka

	// DeltaErr, when set, makes ApplyMeterDelta fail. Used to exercise the
	// recorder's rollback paths.
	DeltaErr error
}

func NewTakas() *Takas {
	return &Takas{byID: make(map[primitive.ObjectID]models.Taka)}
}

func (f *Takas) Seed(t models.Taka) models.Taka {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t.ID.IsZero() {
		t.ID = primitive.NewObjectID()
	}
	if t.Status == "" {
		t.Status = models.LotActive
	}
	f.byID[t.ID] = t
	return t
}

func (f *Takas) Insert(_ context.Context, t *models.Taka) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.byID {
		if existing.TakaNumber == t.TakaNumber {
			return errs.Conflict("taka number %s already exists", t.TakaNumber)
		}
	}
	if t.ID.IsZero() {
		t.ID = primitive.NewObjectID()
	}
	now := time.Now()
	t.CreatedAt, t.UpdatedAt = now, now
	f.byID[t.ID] = *t
	return nil
}

func (f *Takas) Update(_ context.Context, t *models.Taka) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.byID[t.ID]
	if !ok {
		return errs.NotFound("taka")
	}
	// Ledger fields are owned by ApplyMeterDelta; keep the stored values.
	existing.TakaNumber = t.TakaNumber
	existing.Machine = t.Machine
	existing.QualityGrade = t.QualityGrade
	existing.TargetMeters = t.TargetMeters
	existing.StartDate = t.StartDate
	existing.Notes = t.Notes
	existing.UpdatedAt = time.Now()
	f.byID[t.ID] = existing
	return nil
}

func (f *Takas) FindByID(_ context.Context, id primitive.ObjectID) (*models.Taka, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.byID[id]
	if !ok {
		return nil, errs.NotFound("taka")
	}
	return &t, nil
}

func (f *Takas) FindByIDs(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Taka, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[primitive.ObjectID]models.Taka, len(ids))
	for _, id := range ids {
		if t, ok := f.byID[id]; ok {
			out[id] = t
		}
	}
	return out, nil
}

func (f *Takas) FindByNumber(_ context.Context, number string) (*models.Taka, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.byID {
		if t.TakaNumber == number {
			return &t, nil
		}
	}
	return nil, errs.NotFound("taka")
}

func (f *Takas) List(_ context.Context, filter models.TakaFilter) ([]models.Taka, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Taka
	for _, t := range f.byID {
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		if filter.MachineID != nil && t.Machine != *filter.MachineID {
			continue
		}
		if filter.QualityID != nil && t.QualityGrade != *filter.QualityID {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TakaNumber < out[j].TakaNumber })
	return out, nil
}

func (f *Takas) ApplyMeterDelta(_ context.Context, id primitive.ObjectID, delta float64) (*models.Taka, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.DeltaErr != nil {
		return nil, f.DeltaErr
	}
	t, ok := f.byID[id]
	if !ok {
		return nil, errs.NotFound("taka")
	}
	t.TotalMeters += delta
	t.TotalEarnings = t.TotalMeters * t.RatePerMeter
	t.UpdatedAt = time.Now()
	f.byID[id] = t
	return &t, nil
}

func (f *Takas) Transition(_ context.Context, id primitive.ObjectID, to models.LotStatus, endDate time.Time) (*models.Taka, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.byID[id]
	if !ok {
		return nil, errs.NotFound("taka")
	}
	if t.Status != models.LotActive {
		return nil, errs.Conflict("taka %s is already %s", t.TakaNumber, t.Status)
	}
	t.Status = to
	t.EndDate = &endDate
	t.UpdatedAt = time.Now()
	f.byID[id] = t
	return &t, nil
}

func (f *Takas) Delete(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return errs.NotFound("taka")
	}
	delete(f.byID, id)
	return nil
}

func (f *Takas) CountByStatus(_ context.Context, status models.LotStatus) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, t := range f.byID {
		if t.Status == status {
			n++
		}
	}
	return n, nil
}

// Productions is an in-memory ProductionStore with real (if small) aggregation
// so reporter tests run against the same shapes the pipeline produces.
type Productions struct {
	mu   sync.Mutex
	byID map[primitive.ObjectID]models.Production

	InsertErr error
	UpdateErr error
	DeleteErr error
}

func NewProductions() *Productions {
	return &Productions{byID: make(map[primitive.ObjectID]models.Production)}
}

func (f *Productions) Seed(p models.Production) models.Production {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	f.byID[p.ID] = p
	return p
}

// Get returns the stored entry, or nil when absent. Test helper.
func (f *Productions) Get(id primitive.ObjectID) *models.Production {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.byID[id]; ok {
		return &p
	}
	return nil
}

// Len reports the number of stored entries. Test helper.
func (f *Productions) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byID)
}

func (f *Productions) Insert(_ context.Context, p *models.Production) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.InsertErr != nil {
		return f.InsertErr
	}
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	now := time.Now()
	p.CreatedAt, p.UpdatedAt = now, now
	f.byID[p.ID] = *p
	return nil
}

func (f *Productions) Update(_ context.Context, p *models.Production) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.UpdateErr != nil {
		return f.UpdateErr
	}
	if _, ok := f.byID[p.ID]; !ok {
		return errs.NotFound("production entry")
	}
	p.UpdatedAt = time.Now()
	f.byID[p.ID] = *p
	return nil
}

func (f *Productions) FindByID(_ context.Context, id primitive.ObjectID) (*models.Production, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[id]
	if !ok {
		return nil, errs.NotFound("production entry")
	}
	return &p, nil
}

func (f *Productions) Delete(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	if _, ok := f.byID[id]; !ok {
		return errs.NotFound("production entry")
	}
	delete(f.byID, id)
	return nil
}

func (f *Productions) List(_ context.Context, filter models.ProductionFilter) ([]models.Production, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.match(filter)

	desc := filter.Order != "asc"
	sortBy := filter.SortBy
	if sortBy == "" {
		sortBy = "date"
	}
	sort.SliceStable(out, func(i, j int) bool {
		var less bool
		switch sortBy {
		case "metersProduced":
			less = out[i].MetersProduced < out[j].MetersProduced
		case "earnings":
			less = out[i].Earnings < out[j].Earnings
		default:
			less = out[i].Date.Before(out[j].Date)
		}
		if desc {
			return !less && !datesEqual(out[i], out[j], sortBy)
		}
		return less
	})

	if filter.Limit > 0 && int64(len(out)) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func datesEqual(a, b models.Production, sortBy string) bool {
	switch sortBy {
	case "metersProduced":
		return a.MetersProduced == b.MetersProduced
	case "earnings":
		return a.Earnings == b.Earnings
	default:
		return a.Date.Equal(b.Date)
	}
}

func (f *Productions) Count(_ context.Context, filter models.ProductionFilter) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.match(filter))), nil
}

func (f *Productions) Totals(_ context.Context, filter models.ProductionFilter) (models.ProductionTotals, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var t models.ProductionTotals
	for _, p := range f.match(filter) {
		t.Count++
		t.Meters += p.MetersProduced
		t.Earnings += p.Earnings
	}
	return t, nil
}

func (f *Productions) GroupTotals(_ context.Context, filter models.ProductionFilter, key models.GroupKey) ([]models.KeyedTotals, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	buckets := make(map[string]*models.KeyedTotals)
	for _, p := range f.match(filter) {
		var k string
		switch key {
		case models.GroupByWorker:
			k = p.Worker.Hex()
		case models.GroupByMachine:
			k = p.Machine.Hex()
		case models.GroupByQuality:
			k = p.QualityGrade.Hex()
		case models.GroupByDay:
			k = p.Date.Format("2006-01-02")
		}
		b, ok := buckets[k]
		if !ok {
			b = &models.KeyedTotals{Key: k}
			buckets[k] = b
		}
		b.Count++
		b.Meters += p.MetersProduced
		b.Earnings += p.Earnings
		if p.Shift == models.ShiftDay {
			b.DayShiftMeters += p.MetersProduced
		} else {
			b.NightShiftMeters += p.MetersProduced
		}
	}

	out := make([]models.KeyedTotals, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (f *Productions) ExistsForQuality(_ context.Context, qualityID primitive.ObjectID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.byID {
		if p.QualityGrade == qualityID {
			return true, nil
		}
	}
	return false, nil
}

// match applies the filter; callers hold the mutex.
func (f *Productions) match(filter models.ProductionFilter) []models.Production {
	var out []models.Production
	for _, p := range f.byID {
		if filter.From != nil && p.Date.Before(*filter.From) {
			continue
		}
		if filter.To != nil && p.Date.After(*filter.To) {
			continue
		}
		if filter.Shift != "" && p.Shift != filter.Shift {
			continue
		}
		if filter.MachineID != nil && p.Machine != *filter.MachineID {
			continue
		}
		if filter.WorkerID != nil && p.Worker != *filter.WorkerID {
			continue
		}
		if filter.TakaID != nil && p.Taka != *filter.TakaID {
			continue
		}
		if filter.QualityID != nil && p.QualityGrade != *filter.QualityID {
			continue
		}
		out = append(out, p)
	}
	return out
}
