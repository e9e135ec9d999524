package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/loomworks/loomledger/internal/domain/models"
)

// Snapshots is the MongoDB-backed daily snapshot store.
type Snapshots struct {
	coll *mongo.Collection
}

// NewSnapshots builds the snapshot store.
func NewSnapshots(d *DB) *Snapshots {
	return &Snapshots{coll: d.db.Collection(collSnapshots)}
}

// Insert writes an end-of-day snapshot.
func (s *Snapshots) Insert(ctx context.Context, snap models.DailySnapshot) error {
	snap.CreatedAt = time.Now()
	if _, err := s.coll.InsertOne(ctx, snap); err != nil {
		return fmt.Errorf("insert daily snapshot: %w", err)
	}
	return nil
}
