// Package database owns the MongoDB client lifecycle.
//
// Connect opens a pooled client once at boot; Collection hands out handles
// into the configured application database.
package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rajatverma/kirana/config"
)

var client *mongo.Client

// Connect opens the MongoDB client and verifies the connection with a ping.
// Returns an error instead of calling log.Fatal so the caller can shut
// down gracefully.
func Connect(ctx context.Context) error {
	opts := options.Client().
		ApplyURI(config.MongoURI()).
		SetConnectTimeout(5 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(25)

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	c, err := mongo.Connect(ctx, opts)
	if err != nil {
		return fmt.Errorf("database: connect: %w", err)
	}

	if err := c.Ping(ctx, nil); err != nil {
		_ = c.Disconnect(context.Background())
		return fmt.Errorf("database: ping: %w", err)
	}

	client = c
	return nil
}

// Disconnect closes the client. Safe to call when Connect never ran.
func Disconnect(ctx context.Context) error {
	if client == nil {
		return nil
	}
	if err := client.Disconnect(ctx); err != nil {
		return fmt.Errorf("database: disconnect: %w", err)
	}
	client = nil
	return nil
}

// Client returns the connected client, or nil before Connect.
func Client() *mongo.Client { return client }

// Collection returns a handle to the named collection in the application
// database. Panics when called before Connect — that is a wiring bug, not
// a runtime condition.
func Collection(name string) *mongo.Collection {
	if client == nil {
		panic("database: Collection called before Connect")
	}
	return client.Database(config.MongoDatabase()).Collection(name)
}
