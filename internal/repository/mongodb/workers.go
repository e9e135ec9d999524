package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/loomworks/loomledger/internal/domain/errs"
	"github.com/loomworks/loomledger/internal/domain/models"
)

// Workers is the MongoDB-backed worker store.
type Workers struct {
	coll *mongo.Collection
}

// NewWorkers builds the worker store.
func NewWorkers(d *DB) *Workers {
	return &Workers{coll: d.db.Collection(collWorkers)}
}

// Insert writes a new worker, stamping timestamps.
func (s *Workers) Insert(ctx context.Context, w *models.Worker) error {
	now := time.Now()
	w.CreatedAt = now
	w.UpdatedAt = now
	if w.ID.IsZero() {
		w.ID = primitive.NewObjectID()
	}

	if _, err := s.coll.InsertOne(ctx, w); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errs.Conflict("worker code %s already exists", w.WorkerCode)
		}
		return fmt.Errorf("insert worker: %w", err)
	}
	return nil
}

// Update replaces the mutable fields of a worker.
func (s *Workers) Update(ctx context.Context, w *models.Worker) error {
	update := bson.M{"$set": bson.M{
		"workerCode":       w.WorkerCode,
		"name":             w.Name,
		"workerType":       w.WorkerType,
		"phone":            w.Phone,
		"address":          w.Address,
		"joiningDate":      w.JoiningDate,
		"shift":            w.Shift,
		"emergencyContact": w.EmergencyContact,
		"notes":            w.Notes,
		"updatedAt":        time.Now(),
	}}

	res, err := s.coll.UpdateByID(ctx, w.ID, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errs.Conflict("worker code %s already exists", w.WorkerCode)
		}
		return fmt.Errorf("update worker: %w", err)
	}
	if res.MatchedCount == 0 {
		return errs.NotFound("worker")
	}
	return nil
}

// FindByID fetches one worker.
func (s *Workers) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Worker, error) {
	var w models.Worker
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&w)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errs.NotFound("worker")
		}
		return nil, fmt.Errorf("find worker: %w", err)
	}
	return &w, nil
}

// FindByIDs fetches the workers for the given ids, keyed by id.
func (s *Workers) FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Worker, error) {
	out := make(map[primitive.ObjectID]models.Worker, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	cur, err := s.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("find workers: %w", err)
	}
	var workers []models.Worker
	if err := cur.All(ctx, &workers); err != nil {
		return nil, fmt.Errorf("decode workers: %w", err)
	}
	for _, w := range workers {
		out[w.ID] = w
	}
	return out, nil
}

// FindByCode looks up a live worker by its unique code.
func (s *Workers) FindByCode(ctx context.Context, code string) (*models.Worker, error) {
	var w models.Worker
	err := s.coll.FindOne(ctx, bson.M{"workerCode": code, "isActive": true}).Decode(&w)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errs.NotFound("worker")
		}
		return nil, fmt.Errorf("find worker by code: %w", err)
	}
	return &w, nil
}

// List returns live workers matching the filter.
func (s *Workers) List(ctx context.Context, f models.WorkerFilter) ([]models.Worker, error) {
	query := bson.M{"isActive": true}
	if f.WorkerType != "" {
		query["workerType"] = f.WorkerType
	}
	if f.Shift != "" {
		query["shift"] = f.Shift
	}
	if f.Search != "" {
		query["$or"] = bson.A{
			bson.M{"workerCode": bson.M{"$regex": f.Search, "$options": "i"}},
			bson.M{"name": bson.M{"$regex": f.Search, "$options": "i"}},
			bson.M{"phone": bson.M{"$regex": f.Search, "$options": "i"}},
		}
	}

	sortField := f.SortBy
	if sortField == "" {
		sortField = "workerCode"
	}
	opts := options.Find().SetSort(bson.D{{Key: sortField, Value: sortOrder(f.Order, 1)}})

	cur, err := s.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("list workers: %w", err)
	}
	var workers []models.Worker
	if err := cur.All(ctx, &workers); err != nil {
		return nil, fmt.Errorf("decode workers: %w", err)
	}
	return workers, nil
}

// SoftDelete marks a worker inactive, keeping their history intact.
func (s *Workers) SoftDelete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.coll.UpdateByID(ctx, id, bson.M{"$set": bson.M{"isActive": false, "updatedAt": time.Now()}})
	if err != nil {
		return fmt.Errorf("soft delete worker: %w", err)
	}
	if res.MatchedCount == 0 {
		return errs.NotFound("worker")
	}
	return nil
}

// SoftDeleteMany marks a batch of workers inactive.
func (s *Workers) SoftDeleteMany(ctx context.Context, ids []primitive.ObjectID) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.coll.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": ids}},
		bson.M{"$set": bson.M{"isActive": false, "updatedAt": time.Now()}})
	if err != nil {
		return fmt.Errorf("soft delete workers: %w", err)
	}
	return nil
}

// CountActive counts live workers.
func (s *Workers) CountActive(ctx context.Context) (int64, error) {
	n, err := s.coll.CountDocuments(ctx, bson.M{"isActive": true})
	if err != nil {
		return 0, fmt.Errorf("count workers: %w", err)
	}
	return n, nil
}
