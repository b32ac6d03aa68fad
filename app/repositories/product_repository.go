package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/rajatverma/kirana/app/models"
	"github.com/rajatverma/kirana/pkg/database"
)

// ProductRepository handles the products collection, including the
// conditional stock updates the order workflow relies on.
type ProductRepository struct{}

func NewProductRepository() *ProductRepository { return &ProductRepository{} }

func (r *ProductRepository) col() *mongo.Collection { return database.Collection("products") }

// Create persists a new product and fills in its ID and timestamps.
func (r *ProductRepository) Create(ctx context.Context, product *models.Product) error {
	now := time.Now().UTC()
	product.CreatedAt = now
	product.UpdatedAt = now

	res, err := r.col().InsertOne(ctx, product)
	if err != nil {
		return fmt.Errorf("products: create: %w", err)
	}
	product.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// FindByID looks up a product by ObjectID.
func (r *ProductRepository) FindByID(ctx context.Context, id primitive.ObjectID) (models.Product, error) {
	var product models.Product
	err := r.col().FindOne(ctx, bson.M{"_id": id}).Decode(&product)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Product{}, ErrNotFound
	}
	if err != nil {
		return models.Product{}, fmt.Errorf("products: find by id: %w", err)
	}
	return product, nil
}

// FindByIDs returns the products whose IDs are in ids. Callers compare
// the result length against len(ids) to detect missing references.
func (r *ProductRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Product, error) {
	cur, err := r.col().Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("products: find by ids: %w", err)
	}
	defer cur.Close(ctx)

	var out []models.Product
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("products: decode: %w", err)
	}
	return out, nil
}

// Search returns products matching an optional free-text term (title or
// description, case-insensitive) and an optional category filter.
func (r *ProductRepository) Search(ctx context.Context, term string, category primitive.ObjectID) ([]models.Product, error) {
	filter := bson.M{}
	if term != "" {
		filter["$or"] = bson.A{
			bson.M{"title": bson.M{"$regex": term, "$options": "i"}},
			bson.M{"description": bson.M{"$regex": term, "$options": "i"}},
		}
	}
	if !category.IsZero() {
		filter["category"] = category
	}

	cur, err := r.col().Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("products: search: %w", err)
	}
	defer cur.Close(ctx)

	var out []models.Product
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("products: decode: %w", err)
	}
	return out, nil
}

// Update persists changes to an existing product.
func (r *ProductRepository) Update(ctx context.Context, product *models.Product) error {
	product.UpdatedAt = time.Now().UTC()

	res, err := r.col().ReplaceOne(ctx, bson.M{"_id": product.ID}, product)
	if err != nil {
		return fmt.Errorf("products: update: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a product.
func (r *ProductRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.col().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("products: delete: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DecrementStock atomically subtracts qty from a product's stock, but
// only when enough stock remains. Returns false when the conditional
// update matched nothing — either the product vanished or a concurrent
// order got there first. This single conditional write is what keeps
// stock from ever going negative.
func (r *ProductRepository) DecrementStock(ctx context.Context, id primitive.ObjectID, qty int) (bool, error) {
	res, err := r.col().UpdateOne(ctx,
		bson.M{"_id": id, "countInStock": bson.M{"$gte": qty}},
		bson.M{"$inc": bson.M{"countInStock": -qty}},
	)
	if err != nil {
		return false, fmt.Errorf("products: decrement stock: %w", err)
	}
	return res.MatchedCount > 0, nil
}

// IncrementStock adds qty back to a product's stock (cancellation and
// compensation paths).
func (r *ProductRepository) IncrementStock(ctx context.Context, id primitive.ObjectID, qty int) error {
	_, err := r.col().UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{"countInStock": qty}},
	)
	if err != nil {
		return fmt.Errorf("products: increment stock: %w", err)
	}
	return nil
}

// IncrementViews bumps the product's view counter.
func (r *ProductRepository) IncrementViews(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.col().UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{"views": 1}},
	)
	if err != nil {
		return fmt.Errorf("products: increment views: %w", err)
	}
	return nil
}
