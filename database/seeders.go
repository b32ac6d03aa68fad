package database

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/rajatverma/kirana/app/models"
	"github.com/rajatverma/kirana/config"
	"github.com/rajatverma/kirana/pkg/auth"
	db "github.com/rajatverma/kirana/pkg/database"
	"github.com/rajatverma/kirana/pkg/logger"
)

// SeederFunc inserts one slice of seed data. Seeders must be idempotent:
// re-running Seed against a populated database inserts nothing.
type SeederFunc func(ctx context.Context) error

type seederEntry struct {
	name string
	fn   SeederFunc
}

var (
	seedMu  sync.Mutex
	seeders []seederEntry
)

// RegisterSeeder adds a seeder to the registry, run in registration order.
func RegisterSeeder(name string, fn SeederFunc) {
	seedMu.Lock()
	defer seedMu.Unlock()
	seeders = append(seeders, seederEntry{name: name, fn: fn})
}

// Seed executes every registered seeder, stopping on the first error.
func Seed(ctx context.Context) error {
	seedMu.Lock()
	current := make([]seederEntry, len(seeders))
	copy(current, seeders)
	seedMu.Unlock()

	for _, e := range current {
		logger.Info("running seeder", "name", e.name)
		if err := e.fn(ctx); err != nil {
			return fmt.Errorf("seeder %s: %w", e.name, err)
		}
	}
	return nil
}

func init() {
	RegisterSeeder("admin", seedAdmin)
	RegisterSeeder("catalog", seedCatalog)
}

// seedAdmin inserts the initial admin account unless one exists.
// Credentials come from ADMIN_EMAIL / ADMIN_PASSWORD with development
// fallbacks.
func seedAdmin(ctx context.Context) error {
	users := db.Collection("users")

	email := config.Get("ADMIN_EMAIL", "admin@kirana.local")
	if err := users.FindOne(ctx, bson.M{"email": email}).Err(); err == nil {
		return nil
	} else if err != mongo.ErrNoDocuments {
		return err
	}

	hash, err := auth.HashPassword(config.Get("ADMIN_PASSWORD", "admin123"))
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	_, err = users.InsertOne(ctx, models.User{
		UserName:     "Administrator",
		Email:        email,
		Password:     hash,
		Role:         models.RoleAdmin,
		PhoneNumber:  "+910000000000",
		City:         "Mumbai",
		PostalCode:   "400001",
		AddressLine1: "Head Office",
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	return err
}

// seedCatalog inserts a small sample catalog into an empty store.
func seedCatalog(ctx context.Context) error {
	categories := db.Collection("categories")

	n, err := categories.CountDocuments(ctx, bson.M{})
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	names := []string{"Groceries", "Beverages", "Household"}
	ids := make(map[string]interface{}, len(names))
	for _, name := range names {
		res, err := categories.InsertOne(ctx, models.Category{Name: name})
		if err != nil {
			return err
		}
		ids[name] = res.InsertedID
	}

	now := time.Now().UTC()
	samples := []interface{}{
		bson.M{
			"title": "Basmati Rice 5kg", "price": 12.50, "category": ids["Groceries"],
			"countInStock": 40, "description": "Long grain basmati rice.",
			"images": []string{}, "rating": 0, "views": 0,
			"createdAt": now, "updatedAt": now,
		},
		bson.M{
			"title": "Masala Chai 250g", "price": 4.20, "category": ids["Beverages"],
			"countInStock": 100, "description": "Spiced black tea blend.",
			"images": []string{}, "rating": 0, "views": 0,
			"createdAt": now, "updatedAt": now,
		},
		bson.M{
			"title": "Dish Soap 1L", "price": 3.00, "category": ids["Household"],
			"countInStock": 60, "description": "Lemon-scented dishwashing liquid.",
			"images": []string{}, "rating": 0, "views": 0,
			"createdAt": now, "updatedAt": now,
		},
	}
	_, err = db.Collection("products").InsertMany(ctx, samples)
	return err
}
