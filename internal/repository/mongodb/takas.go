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

// Takas is the MongoDB-backed taka store.
type Takas struct {
	coll *mongo.Collection
}

// NewTakas builds the taka store.
func NewTakas(d *DB) *Takas {
	return &Takas{coll: d.db.Collection(collTakas)}
}

// Insert writes a new taka, stamping timestamps.
func (s *Takas) Insert(ctx context.Context, t *models.Taka) error {
	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now
	if t.ID.IsZero() {
		t.ID = primitive.NewObjectID()
	}

	if _, err := s.coll.InsertOne(ctx, t); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errs.Conflict("taka number %s already exists", t.TakaNumber)
		}
		return fmt.Errorf("insert taka: %w", err)
	}
	return nil
}

// Update replaces the mutable non-ledger fields of a taka. The ledger fields
// carried by t are ignored so a stale read can never clobber the running
// totals.
func (s *Takas) Update(ctx context.Context, t *models.Taka) error {
	update := bson.M{"$set": bson.M{
		"takaNumber":   t.TakaNumber,
		"machine":      t.Machine,
		"qualityType":  t.QualityGrade,
		"targetMeters": t.TargetMeters,
		"startDate":    t.StartDate,
		"notes":        t.Notes,
		"updatedAt":    time.Now(),
	}}

	res, err := s.coll.UpdateByID(ctx, t.ID, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errs.Conflict("taka number %s already exists", t.TakaNumber)
		}
		return fmt.Errorf("update taka: %w", err)
	}
	if res.MatchedCount == 0 {
		return errs.NotFound("taka")
	}
	return nil
}

// FindByID fetches one taka.
func (s *Takas) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Taka, error) {
	var t models.Taka
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&t)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errs.NotFound("taka")
		}
		return nil, fmt.Errorf("find taka: %w", err)
	}
	return &t, nil
}

// FindByIDs fetches the takas for the given ids, keyed by id.
func (s *Takas) FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Taka, error) {
	out := make(map[primitive.ObjectID]models.Taka, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	cur, err := s.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("find takas: %w", err)
	}
	var takas []models.Taka
	if err := cur.All(ctx, &takas); err != nil {
		return nil, fmt.Errorf("decode takas: %w", err)
	}
	for _, t := range takas {
		out[t.ID] = t
	}
	return out, nil
}

// FindByNumber fetches a taka by its unique human-assigned number.
func (s *Takas) FindByNumber(ctx context.Context, number string) (*models.Taka, error) {
	var t models.Taka
	err := s.coll.FindOne(ctx, bson.M{"takaNumber": number}).Decode(&t)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errs.NotFound("taka")
		}
		return nil, fmt.Errorf("find taka by number: %w", err)
	}
	return &t, nil
}

// List returns takas matching the filter.
func (s *Takas) List(ctx context.Context, f models.TakaFilter) ([]models.Taka, error) {
	query := bson.M{}
	if f.Status != "" {
		query["status"] = f.Status
	}
	if f.MachineID != nil {
		query["machine"] = *f.MachineID
	}
	if f.QualityID != nil {
		query["qualityType"] = *f.QualityID
	}

	sortField := f.SortBy
	if sortField == "" {
		sortField = "createdAt"
	}
	opts := options.Find().SetSort(bson.D{{Key: sortField, Value: sortOrder(f.Order, -1)}})

	cur, err := s.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("list takas: %w", err)
	}
	var takas []models.Taka
	if err := cur.All(ctx, &takas); err != nil {
		return nil, fmt.Errorf("decode takas: %w", err)
	}
	return takas, nil
}

// ApplyMeterDelta adds delta to totalMeters and recomputes totalEarnings in
// a single pipeline update, so concurrent deltas can never lose an
// increment to a read-modify-write race.
func (s *Takas) ApplyMeterDelta(ctx context.Context, id primitive.ObjectID, delta float64) (*models.Taka, error) {
	pipeline := bson.A{
		bson.M{"$set": bson.M{
			"totalMeters": bson.M{"$add": bson.A{"$totalMeters", delta}},
			"updatedAt":   time.Now(),
		}},
		bson.M{"$set": bson.M{
			"totalEarnings": bson.M{"$multiply": bson.A{"$totalMeters", "$ratePerMeter"}},
		}},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var t models.Taka
	err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, pipeline, opts).Decode(&t)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errs.NotFound("taka")
		}
		return nil, fmt.Errorf("apply meter delta: %w", err)
	}
	return &t, nil
}

// Transition conditionally moves an Active taka to a terminal status. The
// status guard sits in the update filter, so two racing completions can
// never both succeed.
func (s *Takas) Transition(ctx context.Context, id primitive.ObjectID, to models.LotStatus, endDate time.Time) (*models.Taka, error) {
	filter := bson.M{"_id": id, "status": models.LotActive}
	update := bson.M{"$set": bson.M{
		"status":    to,
		"endDate":   endDate,
		"updatedAt": time.Now(),
	}}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var t models.Taka
	err := s.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&t)
	if err == nil {
		return &t, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("transition taka: %w", err)
	}

	// Distinguish a missing taka from one already terminal.
	existing, ferr := s.FindByID(ctx, id)
	if ferr != nil {
		return nil, ferr
	}
	return nil, errs.Conflict("taka %s is already %s", existing.TakaNumber, existing.Status)
}

// Delete removes a taka outright.
func (s *Takas) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete taka: %w", err)
	}
	if res.DeletedCount == 0 {
		return errs.NotFound("taka")
	}
	return nil
}

// CountByStatus counts takas in the given status.
func (s *Takas) CountByStatus(ctx context.Context, status models.LotStatus) (int64, error) {
	n, err := s.coll.CountDocuments(ctx, bson.M{"status": status})
	if err != nil {
		return 0, fmt.Errorf("count takas: %w", err)
	}
	return n, nil
}
