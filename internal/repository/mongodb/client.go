// Package mongodb implements the repository contracts on MongoDB. Ledger
// fields are only ever touched through atomic single-document updates.
package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	collMachines    = "machines"
	collWorkers     = "workers"
	collQualities   = "qualitytypes"
	collTakas       = "takas"
	collProductions = "productions"
	collSnapshots   = "daily_snapshots"
)

// DB wraps the MongoDB client and database handle shared by the stores.
type DB struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect establishes and verifies the MongoDB connection.
func Connect(ctx context.Context, uri, dbName string) (*DB, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &DB{client: client, db: client.Database(dbName)}, nil
}

// EnsureIndexes creates the indexes the query paths rely on. Safe to call on
// every startup.
func (d *DB) EnsureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)

	specs := map[string][]mongo.IndexModel{
		collMachines: {
			{Keys: bson.D{{Key: "machineCode", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "status", Value: 1}}},
		},
		collWorkers: {
			{Keys: bson.D{{Key: "workerCode", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "workerType", Value: 1}}},
		},
		collQualities: {
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: unique},
		},
		collTakas: {
			{Keys: bson.D{{Key: "takaNumber", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "machine", Value: 1}}},
		},
		collProductions: {
			{Keys: bson.D{{Key: "date", Value: 1}}},
			{Keys: bson.D{{Key: "machine", Value: 1}}},
			{Keys: bson.D{{Key: "worker", Value: 1}}},
			{Keys: bson.D{{Key: "taka", Value: 1}}},
			{Keys: bson.D{{Key: "shift", Value: 1}}},
		},
	}

	for coll, models := range specs {
		if _, err := d.db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll, err)
		}
	}
	return nil
}

// Close disconnects the underlying client.
func (d *DB) Close(ctx context.Context) error {
	return d.client.Disconnect(ctx)
}
