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

// Qualities is the MongoDB-backed quality grade store.
type Qualities struct {
	coll *mongo.Collection
}

// NewQualities builds the quality grade store.
func NewQualities(d *DB) *Qualities {
	return &Qualities{coll: d.db.Collection(collQualities)}
}

// Insert writes a new grade, stamping timestamps.
func (s *Qualities) Insert(ctx context.Context, q *models.QualityGrade) error {
	now := time.Now()
	q.CreatedAt = now
	q.UpdatedAt = now
	if q.ID.IsZero() {
		q.ID = primitive.NewObjectID()
	}

	if _, err := s.coll.InsertOne(ctx, q); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errs.Conflict("quality grade %s already exists", q.Name)
		}
		return fmt.Errorf("insert quality grade: %w", err)
	}
	return nil
}

// Update replaces the mutable fields of a grade.
func (s *Qualities) Update(ctx context.Context, q *models.QualityGrade) error {
	update := bson.M{"$set": bson.M{
		"name":         q.Name,
		"description":  q.Description,
		"ratePerMeter": q.RatePerMeter,
		"updatedAt":    time.Now(),
	}}

	res, err := s.coll.UpdateByID(ctx, q.ID, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errs.Conflict("quality grade %s already exists", q.Name)
		}
		return fmt.Errorf("update quality grade: %w", err)
	}
	if res.MatchedCount == 0 {
		return errs.NotFound("quality grade")
	}
	return nil
}

// FindByID fetches one grade.
func (s *Qualities) FindByID(ctx context.Context, id primitive.ObjectID) (*models.QualityGrade, error) {
	var q models.QualityGrade
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&q)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errs.NotFound("quality grade")
		}
		return nil, fmt.Errorf("find quality grade: %w", err)
	}
	return &q, nil
}

// FindByIDs fetches the grades for the given ids, keyed by id.
func (s *Qualities) FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.QualityGrade, error) {
	out := make(map[primitive.ObjectID]models.QualityGrade, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	cur, err := s.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("find quality grades: %w", err)
	}
	var grades []models.QualityGrade
	if err := cur.All(ctx, &grades); err != nil {
		return nil, fmt.Errorf("decode quality grades: %w", err)
	}
	for _, q := range grades {
		out[q.ID] = q
	}
	return out, nil
}

// FindByName looks up a live grade by its unique name.
func (s *Qualities) FindByName(ctx context.Context, name string) (*models.QualityGrade, error) {
	var q models.QualityGrade
	err := s.coll.FindOne(ctx, bson.M{"name": name, "isActive": true}).Decode(&q)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errs.NotFound("quality grade")
		}
		return nil, fmt.Errorf("find quality grade by name: %w", err)
	}
	return &q, nil
}

// List returns live grades matching the filter.
func (s *Qualities) List(ctx context.Context, f models.QualityFilter) ([]models.QualityGrade, error) {
	query := bson.M{"isActive": true}
	if f.Search != "" {
		query["name"] = bson.M{"$regex": f.Search, "$options": "i"}
	}

	sortField := f.SortBy
	if sortField == "" {
		sortField = "name"
	}
	opts := options.Find().SetSort(bson.D{{Key: sortField, Value: sortOrder(f.Order, 1)}})

	cur, err := s.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("list quality grades: %w", err)
	}
	var grades []models.QualityGrade
	if err := cur.All(ctx, &grades); err != nil {
		return nil, fmt.Errorf("decode quality grades: %w", err)
	}
	return grades, nil
}

// SoftDelete marks a grade inactive.
func (s *Qualities) SoftDelete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.coll.UpdateByID(ctx, id, bson.M{"$set": bson.M{"isActive": false, "updatedAt": time.Now()}})
	if err != nil {
		return fmt.Errorf("soft delete quality grade: %w", err)
	}
	if res.MatchedCount == 0 {
		return errs.NotFound("quality grade")
	}
	return nil
}
