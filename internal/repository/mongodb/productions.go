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

// Productions is the MongoDB-backed production entry store.
type Productions struct {
	coll *mongo.Collection
}

// NewProductions builds the production store.
func NewProductions(d *DB) *Productions {
	return &Productions{coll: d.db.Collection(collProductions)}
}

// Insert writes a new production entry, stamping timestamps.
func (s *Productions) Insert(ctx context.Context, p *models.Production) error {
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}

	if _, err := s.coll.InsertOne(ctx, p); err != nil {
		return fmt.Errorf("insert production: %w", err)
	}
	return nil
}

// Update replaces the mutable fields of an entry.
func (s *Productions) Update(ctx context.Context, p *models.Production) error {
	update := bson.M{"$set": bson.M{
		"date":           p.Date,
		"machine":        p.Machine,
		"worker":         p.Worker,
		"shift":          p.Shift,
		"metersProduced": p.MetersProduced,
		"ratePerMeter":   p.RatePerMeter,
		"earnings":       p.Earnings,
		"notes":          p.Notes,
		"updatedAt":      time.Now(),
	}}

	res, err := s.coll.UpdateByID(ctx, p.ID, update)
	if err != nil {
		return fmt.Errorf("update production: %w", err)
	}
	if res.MatchedCount == 0 {
		return errs.NotFound("production record")
	}
	return nil
}

// FindByID fetches one entry.
func (s *Productions) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Production, error) {
	var p models.Production
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errs.NotFound("production record")
		}
		return nil, fmt.Errorf("find production: %w", err)
	}
	return &p, nil
}

// Delete removes an entry.
func (s *Productions) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete production: %w", err)
	}
	if res.DeletedCount == 0 {
		return errs.NotFound("production record")
	}
	return nil
}

// List returns entries matching the filter, sorted per the filter's sort
// field and order (date descending by default).
func (s *Productions) List(ctx context.Context, f models.ProductionFilter) ([]models.Production, error) {
	sortField := f.SortBy
	switch sortField {
	case "date", "metersProduced", "earnings", "ratePerMeter", "shift", "createdAt":
	default:
		sortField = "date"
	}

	opts := options.Find().SetSort(bson.D{{Key: sortField, Value: sortOrder(f.Order, -1)}})
	if f.Limit > 0 {
		opts.SetLimit(f.Limit)
	}

	cur, err := s.coll.Find(ctx, filterQuery(f), opts)
	if err != nil {
		return nil, fmt.Errorf("list productions: %w", err)
	}
	var entries []models.Production
	if err := cur.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("decode productions: %w", err)
	}
	return entries, nil
}

// Count counts entries matching the filter.
func (s *Productions) Count(ctx context.Context, f models.ProductionFilter) (int64, error) {
	n, err := s.coll.CountDocuments(ctx, filterQuery(f))
	if err != nil {
		return 0, fmt.Errorf("count productions: %w", err)
	}
	return n, nil
}

// Totals sums meters and earnings over the filtered entries.
func (s *Productions) Totals(ctx context.Context, f models.ProductionFilter) (models.ProductionTotals, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: filterQuery(f)}},
		{{Key: "$group", Value: bson.M{
			"_id":           nil,
			"count":         bson.M{"$sum": 1},
			"totalMeters":   bson.M{"$sum": "$metersProduced"},
			"totalEarnings": bson.M{"$sum": "$earnings"},
		}}},
	}

	cur, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return models.ProductionTotals{}, fmt.Errorf("aggregate totals: %w", err)
	}
	var rows []models.ProductionTotals
	if err := cur.All(ctx, &rows); err != nil {
		return models.ProductionTotals{}, fmt.Errorf("decode totals: %w", err)
	}
	if len(rows) == 0 {
		return models.ProductionTotals{}, nil
	}
	return rows[0], nil
}

// GroupTotals buckets the filtered entries by the given dimension, summing
// meters, earnings and the per-shift meter split.
func (s *Productions) GroupTotals(ctx context.Context, f models.ProductionFilter, key models.GroupKey) ([]models.KeyedTotals, error) {
	var groupID any
	switch key {
	case models.GroupByWorker:
		groupID = bson.M{"$toString": "$worker"}
	case models.GroupByMachine:
		groupID = bson.M{"$toString": "$machine"}
	case models.GroupByQuality:
		groupID = bson.M{"$toString": "$qualityType"}
	case models.GroupByDay:
		groupID = bson.M{"$dateToString": bson.M{"format": "%Y-%m-%d", "date": "$date"}}
	default:
		return nil, errs.Validation("unknown group key %q", key)
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: filterQuery(f)}},
		{{Key: "$group", Value: bson.M{
			"_id":           groupID,
			"count":         bson.M{"$sum": 1},
			"totalMeters":   bson.M{"$sum": "$metersProduced"},
			"totalEarnings": bson.M{"$sum": "$earnings"},
			"dayShiftMeters": bson.M{"$sum": bson.M{
				"$cond": bson.A{bson.M{"$eq": bson.A{"$shift", models.ShiftDay}}, "$metersProduced", 0},
			}},
			"nightShiftMeters": bson.M{"$sum": bson.M{
				"$cond": bson.A{bson.M{"$eq": bson.A{"$shift", models.ShiftNight}}, "$metersProduced", 0},
			}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}

	cur, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate group totals: %w", err)
	}
	var rows []models.KeyedTotals
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode group totals: %w", err)
	}
	return rows, nil
}

// ExistsForQuality reports whether any entry references the grade.
func (s *Productions) ExistsForQuality(ctx context.Context, qualityID primitive.ObjectID) (bool, error) {
	err := s.coll.FindOne(ctx, bson.M{"qualityType": qualityID}).Err()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		return false, fmt.Errorf("check quality references: %w", err)
	}
	return true, nil
}

// filterQuery converts a ProductionFilter into a mongo query document.
func filterQuery(f models.ProductionFilter) bson.M {
	query := bson.M{}
	if f.From != nil || f.To != nil {
		dateRange := bson.M{}
		if f.From != nil {
			dateRange["$gte"] = *f.From
		}
		if f.To != nil {
			dateRange["$lte"] = *f.To
		}
		query["date"] = dateRange
	}
	if f.Shift != "" {
		query["shift"] = f.Shift
	}
	if f.MachineID != nil {
		query["machine"] = *f.MachineID
	}
	if f.WorkerID != nil {
		query["worker"] = *f.WorkerID
	}
	if f.TakaID != nil {
		query["taka"] = *f.TakaID
	}
	if f.QualityID != nil {
		query["qualityType"] = *f.QualityID
	}
	return query
}
