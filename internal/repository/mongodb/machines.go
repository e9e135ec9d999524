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

// Machines is the MongoDB-backed machine store.
type Machines struct {
	coll *mongo.Collection
}

// NewMachines builds the machine store.
func NewMachines(d *DB) *Machines {
	return &Machines{coll: d.db.Collection(collMachines)}
}

// Insert writes a new machine, stamping timestamps.
func (s *Machines) Insert(ctx context.Context, m *models.Machine) error {
	now := time.Now()
	m.CreatedAt = now
	m.UpdatedAt = now
	if m.ID.IsZero() {
		m.ID = primitive.NewObjectID()
	}

	if _, err := s.coll.InsertOne(ctx, m); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errs.Conflict("machine code %s already exists", m.MachineCode)
		}
		return fmt.Errorf("insert machine: %w", err)
	}
	return nil
}

// Update replaces the mutable fields of a machine.
func (s *Machines) Update(ctx context.Context, m *models.Machine) error {
	update := bson.M{"$set": bson.M{
		"machineCode":      m.MachineCode,
		"machineName":      m.MachineName,
		"machineType":      m.MachineType,
		"status":           m.Status,
		"installationDate": m.InstallationDate,
		"location":         m.Location,
		"notes":            m.Notes,
		"updatedAt":        time.Now(),
	}}

	res, err := s.coll.UpdateByID(ctx, m.ID, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errs.Conflict("machine code %s already exists", m.MachineCode)
		}
		return fmt.Errorf("update machine: %w", err)
	}
	if res.MatchedCount == 0 {
		return errs.NotFound("machine")
	}
	return nil
}

// FindByID fetches one machine.
func (s *Machines) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Machine, error) {
	var m models.Machine
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&m)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errs.NotFound("machine")
		}
		return nil, fmt.Errorf("find machine: %w", err)
	}
	return &m, nil
}

// FindByIDs fetches the machines for the given ids, keyed by id.
func (s *Machines) FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Machine, error) {
	out := make(map[primitive.ObjectID]models.Machine, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	cur, err := s.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("find machines: %w", err)
	}
	var machines []models.Machine
	if err := cur.All(ctx, &machines); err != nil {
		return nil, fmt.Errorf("decode machines: %w", err)
	}
	for _, m := range machines {
		out[m.ID] = m
	}
	return out, nil
}

// FindByCode looks up a live machine by its unique code.
func (s *Machines) FindByCode(ctx context.Context, code string) (*models.Machine, error) {
	var m models.Machine
	err := s.coll.FindOne(ctx, bson.M{"machineCode": code, "isActive": true}).Decode(&m)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errs.NotFound("machine")
		}
		return nil, fmt.Errorf("find machine by code: %w", err)
	}
	return &m, nil
}

// List returns live machines matching the filter.
func (s *Machines) List(ctx context.Context, f models.MachineFilter) ([]models.Machine, error) {
	query := bson.M{"isActive": true}
	if f.Status != "" {
		query["status"] = f.Status
	}
	if f.Search != "" {
		query["$or"] = bson.A{
			bson.M{"machineCode": bson.M{"$regex": f.Search, "$options": "i"}},
			bson.M{"machineName": bson.M{"$regex": f.Search, "$options": "i"}},
		}
	}

	sortField := f.SortBy
	if sortField == "" {
		sortField = "machineCode"
	}
	opts := options.Find().SetSort(bson.D{{Key: sortField, Value: sortOrder(f.Order, 1)}})

	cur, err := s.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("list machines: %w", err)
	}
	var machines []models.Machine
	if err := cur.All(ctx, &machines); err != nil {
		return nil, fmt.Errorf("decode machines: %w", err)
	}
	return machines, nil
}

// SoftDelete marks a machine inactive, keeping its history intact.
func (s *Machines) SoftDelete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.coll.UpdateByID(ctx, id, bson.M{"$set": bson.M{"isActive": false, "updatedAt": time.Now()}})
	if err != nil {
		return fmt.Errorf("soft delete machine: %w", err)
	}
	if res.MatchedCount == 0 {
		return errs.NotFound("machine")
	}
	return nil
}

// SoftDeleteMany marks a batch of machines inactive.
func (s *Machines) SoftDeleteMany(ctx context.Context, ids []primitive.ObjectID) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.coll.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": ids}},
		bson.M{"$set": bson.M{"isActive": false, "updatedAt": time.Now()}})
	if err != nil {
		return fmt.Errorf("soft delete machines: %w", err)
	}
	return nil
}

// SetShiftWorker assigns a worker to the day or night slot of a machine and
// returns the updated document.
func (s *Machines) SetShiftWorker(ctx context.Context, id primitive.ObjectID, shift models.Shift, workerID primitive.ObjectID) (*models.Machine, error) {
	field := "dayShiftWorker"
	if shift == models.ShiftNight {
		field = "nightShiftWorker"
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var m models.Machine
	err := s.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{field: workerID, "updatedAt": time.Now()}},
		opts).Decode(&m)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errs.NotFound("machine")
		}
		return nil, fmt.Errorf("assign worker: %w", err)
	}
	return &m, nil
}

// SetCurrentTaka points a machine at the lot mounted on it.
func (s *Machines) SetCurrentTaka(ctx context.Context, id, takaID primitive.ObjectID) error {
	res, err := s.coll.UpdateByID(ctx, id, bson.M{"$set": bson.M{"currentTaka": takaID, "updatedAt": time.Now()}})
	if err != nil {
		return fmt.Errorf("set current taka: %w", err)
	}
	if res.MatchedCount == 0 {
		return errs.NotFound("machine")
	}
	return nil
}

// ClearCurrentTaka drops the reference from every machine pointing at the
// given taka.
func (s *Machines) ClearCurrentTaka(ctx context.Context, takaID primitive.ObjectID) error {
	_, err := s.coll.UpdateMany(ctx,
		bson.M{"currentTaka": takaID},
		bson.M{"$unset": bson.M{"currentTaka": 1}})
	if err != nil {
		return fmt.Errorf("clear current taka: %w", err)
	}
	return nil
}

// Counts returns live machine counts broken down by activity.
func (s *Machines) Counts(ctx context.Context) (models.MachineCounts, error) {
	total, err := s.coll.CountDocuments(ctx, bson.M{"isActive": true})
	if err != nil {
		return models.MachineCounts{}, fmt.Errorf("count machines: %w", err)
	}
	active, err := s.coll.CountDocuments(ctx, bson.M{"isActive": true, "status": models.MachineActive})
	if err != nil {
		return models.MachineCounts{}, fmt.Errorf("count active machines: %w", err)
	}
	return models.MachineCounts{Total: total, Active: active, Inactive: total - active}, nil
}
