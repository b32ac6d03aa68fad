// Package database holds the schema-adjacent pieces of the store:
// index definitions and seed data. Collections are created lazily by
// MongoDB; indexes are declared here and ensured at startup or via the
// db:index command.
package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	db "github.com/rajatverma/kirana/pkg/database"
	"github.com/rajatverma/kirana/pkg/logger"
)

type indexSpec struct {
	collection string
	model      mongo.IndexModel
}

var indexes = []indexSpec{
	{
		collection: "users",
		model: mongo.IndexModel{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	},
	{
		collection: "products",
		model: mongo.IndexModel{
			Keys: bson.D{{Key: "category", Value: 1}},
		},
	},
	{
		collection: "products",
		model: mongo.IndexModel{
			Keys: bson.D{{Key: "title", Value: "text"}, {Key: "description", Value: "text"}},
		},
	},
	{
		collection: "orders",
		model: mongo.IndexModel{
			Keys: bson.D{{Key: "user", Value: 1}, {Key: "date", Value: -1}},
		},
	},
	{
		collection: "orders",
		model: mongo.IndexModel{
			Keys: bson.D{{Key: "status", Value: 1}},
		},
	},
}

// RunMigrations ensures every declared index exists. CreateOne is
// idempotent for identical specs, so running this on every boot is safe.
func RunMigrations(ctx context.Context) error {
	for _, spec := range indexes {
		name, err := db.Collection(spec.collection).Indexes().CreateOne(ctx, spec.model)
		if err != nil {
			return fmt.Errorf("ensure index on %s: %w", spec.collection, err)
		}
		logger.Debug("index ensured", "collection", spec.collection, "index", name)
	}
	return nil
}
