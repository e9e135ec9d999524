// Package testutil provides in-memory implementations of the repository
// contracts so the services can be tested without a database. The fakes keep
// the same error semantics as the MongoDB stores, including the atomic
// ledger update, and expose error hooks for failure-path tests.
package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/loomworks/loomledger/internal/domain/errs"
	"github.com/loomworks/loomledger/internal/domain/models"
)

// Machines is an in-memory MachineStore.
type Machines struct {
	mu   sync.Mutex
	byID map[primitive.ObjectID]models.Machine
}

func NewMachines() *Machines {
	return &Machines{byID: make(map[primitive.ObjectID]models.Machine)}
}

// Seed inserts a machine directly, filling in an id when missing.
func (f *Machines) Seed(m models.Machine) models.Machine {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m.ID.IsZero() {
		m.ID = primitive.NewObjectID()
	}
	f.byID[m.ID] = m
	return m
}

func (f *Machines) Insert(_ context.Context, m *models.Machine) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.byID {
		if existing.MachineCode == m.MachineCode && existing.IsActive {
			return errs.Conflict("machine code %s already exists", m.MachineCode)
		}
	}
	if m.ID.IsZero() {
		m.ID = primitive.NewObjectID()
	}
	now := time.Now()
	m.CreatedAt, m.UpdatedAt = now, now
	f.byID[m.ID] = *m
	return nil
}

func (f *Machines) Update(_ context.Context, m *models.Machine) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[m.ID]; !ok {
		return errs.NotFound("machine")
	}
	m.UpdatedAt = time.Now()
	f.byID[m.ID] = *m
	return nil
}

func (f *Machines) FindByID(_ context.Context, id primitive.ObjectID) (*models.Machine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.byID[id]
	if !ok {
		return nil, errs.NotFound("machine")
	}
	return &m, nil
}

func (f *Machines) FindByIDs(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Machine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[primitive.ObjectID]models.Machine, len(ids))
	for _, id := range ids {
		if m, ok := f.byID[id]; ok {
			out[id] = m
		}
	}
	return out, nil
}

func (f *Machines) FindByCode(_ context.Context, code string) (*models.Machine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.byID {
		if m.MachineCode == code && m.IsActive {
			return &m, nil
		}
	}
	return nil, errs.NotFound("machine")
}

func (f *Machines) List(_ context.Context, filter models.MachineFilter) ([]models.Machine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Machine
	for _, m := range f.byID {
		if !m.IsActive {
			continue
		}
		if filter.Status != "" && m.Status != filter.Status {
			continue
		}
		if filter.Search != "" {
			s := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(m.MachineCode), s) &&
				!strings.Contains(strings.ToLower(m.MachineName), s) {
				continue
			}
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MachineCode < out[j].MachineCode })
	return out, nil
}

func (f *Machines) SoftDelete(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.byID[id]
	if !ok || !m.IsActive {
		return errs.NotFound("machine")
	}
	m.IsActive = false
	f.byID[id] = m
	return nil
}

func (f *Machines) SoftDeleteMany(ctx context.Context, ids []primitive.ObjectID) error {
	for _, id := range ids {
		if err := f.SoftDelete(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (f *Machines) SetShiftWorker(_ context.Context, id primitive.ObjectID, shift models.Shift, workerID primitive.ObjectID) (*models.Machine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.byID[id]
	if !ok {
		return nil, errs.NotFound("machine")
	}
	if shift == models.ShiftDay {
		m.DayShiftWorker = &workerID
	} else {
		m.NightShiftWorker = &workerID
	}
	m.UpdatedAt = time.Now()
	f.byID[id] = m
	return &m, nil
}

func (f *Machines) SetCurrentTaka(_ context.Context, id, takaID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.byID[id]
	if !ok {
		return errs.NotFound("machine")
	}
	m.CurrentTaka = &takaID
	f.byID[id] = m
	return nil
}

func (f *Machines) ClearCurrentTaka(_ context.Context, takaID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, m := range f.byID {
		if m.CurrentTaka != nil && *m.CurrentTaka == takaID {
			m.CurrentTaka = nil
			f.byID[id] = m
		}
	}
	return nil
}

func (f *Machines) Counts(_ context.Context) (models.MachineCounts, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var c models.MachineCounts
	for _, m := range f.byID {
		if !m.IsActive {
			continue
		}
		c.Total++
		switch m.Status {
		case models.MachineActive:
			c.Active++
		case models.MachineInactive:
			c.Inactive++
		}
	}
	return c, nil
}

// Workers is an in-memory WorkerStore.
type Workers struct {
	mu   sync.Mutex
	byID map[primitive.ObjectID]models.Worker
}

func NewWorkers() *Workers {
	return &Workers{byID: make(map[primitive.ObjectID]models.Worker)}
}

func (f *Workers) Seed(w models.Worker) models.Worker {
	f.mu.Lock()
	defer f.mu.Unlock()
	if w.ID.IsZero() {
		w.ID = primitive.NewObjectID()
	}
	f.byID[w.ID] = w
	return w
}

func (f *Workers) Insert(_ context.Context, w *models.Worker) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.byID {
		if existing.WorkerCode == w.WorkerCode && existing.IsActive {
			return errs.Conflict("worker code %s already exists", w.WorkerCode)
		}
	}
	if w.ID.IsZero() {
		w.ID = primitive.NewObjectID()
	}
	now := time.Now()
	w.CreatedAt, w.UpdatedAt = now, now
	f.byID[w.ID] = *w
	return nil
}

func (f *Workers) Update(_ context.Context, w *models.Worker) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[w.ID]; !ok {
		return errs.NotFound("worker")
	}
	w.UpdatedAt = time.Now()
	f.byID[w.ID] = *w
	return nil
}

func (f *Workers) FindByID(_ context.Context, id primitive.ObjectID) (*models.Worker, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.byID[id]
	if !ok {
		return nil, errs.NotFound("worker")
	}
	return &w, nil
}

func (f *Workers) FindByIDs(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Worker, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[primitive.ObjectID]models.Worker, len(ids))
	for _, id := range ids {
		if w, ok := f.byID[id]; ok {
			out[id] = w
		}
	}
	return out, nil
}

func (f *Workers) FindByCode(_ context.Context, code string) (*models.Worker, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, w := range f.byID {
		if w.WorkerCode == code && w.IsActive {
			return &w, nil
		}
	}
	return nil, errs.NotFound("worker")
}

func (f *Workers) List(_ context.Context, filter models.WorkerFilter) ([]models.Worker, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Worker
	for _, w := range f.byID {
		if !w.IsActive {
			continue
		}
		if filter.WorkerType != "" && w.WorkerType != filter.WorkerType {
			continue
		}
		if filter.Shift != "" && w.Shift != filter.Shift {
			continue
		}
		if filter.Search != "" {
			s := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(w.WorkerCode), s) &&
				!strings.Contains(strings.ToLower(w.Name), s) &&
				!strings.Contains(strings.ToLower(w.Phone), s) {
				continue
			}
		}
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WorkerCode < out[j].WorkerCode })
	return out, nil
}

func (f *Workers) SoftDelete(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.byID[id]
	if !ok || !w.IsActive {
		return errs.NotFound("worker")
	}
	w.IsActive = false
	f.byID[id] = w
	return nil
}

func (f *Workers) SoftDeleteMany(ctx context.Context, ids []primitive.ObjectID) error {
	for _, id := range ids {
		if err := f.SoftDelete(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (f *Workers) CountActive(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, w := range f.byID {
		if w.IsActive {
			n++
		}
	}
	return n, nil
}

// Qualities is an in-memory QualityStore.
type Qualities struct {
	mu   sync.Mutex
	byID map[primitive.ObjectID]models.QualityGrade
}

func NewQualities() *Qualities {
	return &Qualities{byID: make(map[primitive.ObjectID]models.QualityGrade)}
}

func (f *Qualities) Seed(q models.QualityGrade) models.QualityGrade {
	f.mu.Lock()
	defer f.mu.Unlock()
	if q.ID.IsZero() {
		q.ID = primitive.NewObjectID()
	}
	f.byID[q.ID] = q
	return q
}

func (f *Qualities) Insert(_ context.Context, q *models.QualityGrade) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.byID {
		if existing.Name == q.Name && existing.IsActive {
			return errs.Conflict("quality grade %s already exists", q.Name)
		}
	}
	if q.ID.IsZero() {
		q.ID = primitive.NewObjectID()
	}
	now := time.Now()
	q.CreatedAt, q.UpdatedAt = now, now
	f.byID[q.ID] = *q
	return nil
}

func (f *Qualities) Update(_ context.Context, q *models.QualityGrade) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[q.ID]; !ok {
		return errs.NotFound("quality grade")
	}
	q.UpdatedAt = time.Now()
	f.byID[q.ID] = *q
	return nil
}

func (f *Qualities) FindByID(_ context.Context, id primitive.ObjectID) (*models.QualityGrade, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.byID[id]
	if !ok {
		return nil, errs.NotFound("quality grade")
	}
	return &q, nil
}

func (f *Qualities) FindByIDs(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.QualityGrade, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[primitive.ObjectID]models.QualityGrade, len(ids))
	for _, id := range ids {
		if q, ok := f.byID[id]; ok {
			out[id] = q
		}
	}
	return out, nil
}

func (f *Qualities) FindByName(_ context.Context, name string) (*models.QualityGrade, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, q := range f.byID {
		if q.Name == name && q.IsActive {
			return &q, nil
		}
	}
	return nil, errs.NotFound("quality grade")
}

func (f *Qualities) List(_ context.Context, filter models.QualityFilter) ([]models.QualityGrade, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.QualityGrade
	for _, q := range f.byID {
		if !q.IsActive {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(q.Name), strings.ToLower(filter.Search)) {
			continue
		}
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *Qualities) SoftDelete(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.byID[id]
	if !ok || !q.IsActive {
		return errs.NotFound("quality grade")
	}
	q.IsActive = false
	f.byID[id] = q
	return nil
}

// Snapshots is an in-memory SnapshotStore.
type Snapshots struct {
	mu    sync.Mutex
	Saved []models.DailySnapshot
}

func NewSnapshots() *Snapshots { return &Snapshots{} }

func (f *Snapshots) Insert(_ context.Context, s models.DailySnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s.CreatedAt = time.Now()
	f.Saved = append(f.Saved, s)
	return nil
}
