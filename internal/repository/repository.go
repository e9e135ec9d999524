// Package repository defines the persistence contracts the services depend
// on. The mongodb subpackage is the production implementation; tests use the
// in-memory fakes from internal/testutil.
package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/loomworks/loomledger/internal/domain/models"
)

// MachineStore persists looms.
type MachineStore interface {
	Insert(ctx context.Context, m *models.Machine) error
	Update(ctx context.Context, m *models.Machine) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Machine, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Machine, error)
	// FindByCode looks up a live (isActive) machine by its unique code.
	FindByCode(ctx context.Context, code string) (*models.Machine, error)
	List(ctx context.Context, f models.MachineFilter) ([]models.Machine, error)
	SoftDelete(ctx context.Context, id primitive.ObjectID) error
	SoftDeleteMany(ctx context.Context, ids []primitive.ObjectID) error
	SetShiftWorker(ctx context.Context, id primitive.ObjectID, shift models.Shift, workerID primitive.ObjectID) (*models.Machine, error)
	SetCurrentTaka(ctx context.Context, id, takaID primitive.ObjectID) error
	// ClearCurrentTaka drops the currentTaka reference from every machine
	// pointing at the given taka.
	ClearCurrentTaka(ctx context.Context, takaID primitive.ObjectID) error
	Counts(ctx context.Context) (models.MachineCounts, error)
}

// WorkerStore persists workers.
type WorkerStore interface {
	Insert(ctx context.Context, w *models.Worker) error
	Update(ctx context.Context, w *models.Worker) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Worker, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Worker, error)
	FindByCode(ctx context.Context, code string) (*models.Worker, error)
	List(ctx context.Context, f models.WorkerFilter) ([]models.Worker, error)
	SoftDelete(ctx context.Context, id primitive.ObjectID) error
	SoftDeleteMany(ctx context.Context, ids []primitive.ObjectID) error
	CountActive(ctx context.Context) (int64, error)
}

// QualityStore persists quality grades.
type QualityStore interface {
	Insert(ctx context.Context, q *models.QualityGrade) error
	Update(ctx context.Context, q *models.QualityGrade) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.QualityGrade, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.QualityGrade, error)
	FindByName(ctx context.Context, name string) (*models.QualityGrade, error)
	List(ctx context.Context, f models.QualityFilter) ([]models.QualityGrade, error)
	SoftDelete(ctx context.Context, id primitive.ObjectID) error
}

// TakaStore persists lots. ApplyMeterDelta and Transition are the only
// writers of the ledger fields and both are single atomic document updates.
type TakaStore interface {
	Insert(ctx context.Context, t *models.Taka) error
	Update(ctx context.Context, t *models.Taka) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Taka, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Taka, error)
	FindByNumber(ctx context.Context, number string) (*models.Taka, error)
	List(ctx context.Context, f models.TakaFilter) ([]models.Taka, error)
	// ApplyMeterDelta atomically adds delta to totalMeters and recomputes
	// totalEarnings = totalMeters × ratePerMeter in one document update.
	ApplyMeterDelta(ctx context.Context, id primitive.ObjectID, delta float64) (*models.Taka, error)
	// Transition moves an Active taka to a terminal status, setting endDate.
	// It fails with a not-found error for unknown ids and a conflict error
	// when the taka is already terminal.
	Transition(ctx context.Context, id primitive.ObjectID, to models.LotStatus, endDate time.Time) (*models.Taka, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	CountByStatus(ctx context.Context, status models.LotStatus) (int64, error)
}

// ProductionStore persists production entries and answers the read-only
// aggregations the reporter needs.
type ProductionStore interface {
	Insert(ctx context.Context, p *models.Production) error
	Update(ctx context.Context, p *models.Production) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Production, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	List(ctx context.Context, f models.ProductionFilter) ([]models.Production, error)
	Count(ctx context.Context, f models.ProductionFilter) (int64, error)
	Totals(ctx context.Context, f models.ProductionFilter) (models.ProductionTotals, error)
	GroupTotals(ctx context.Context, f models.ProductionFilter, key models.GroupKey) ([]models.KeyedTotals, error)
	ExistsForQuality(ctx context.Context, qualityID primitive.ObjectID) (bool, error)
}

// SnapshotStore persists the scheduler's end-of-day snapshots.
type SnapshotStore interface {
	Insert(ctx context.Context, s models.DailySnapshot) error
}
