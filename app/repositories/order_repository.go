package repositories

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rajatverma/kirana/app/models"
	"github.com/rajatverma/kirana/pkg/database"
)

// OrderFilter narrows an order listing.
type OrderFilter struct {
	User   primitive.ObjectID // zero value = all users (admin listing)
	Search string             // case-insensitive regex over status
}

func (f OrderFilter) bson() bson.M {
	filter := bson.M{}
	if !f.User.IsZero() {
		filter["user"] = f.User
	}
	if f.Search != "" {
		filter["$or"] = bson.A{
			bson.M{"status": bson.M{"$regex": f.Search, "$options": "i"}},
		}
	}
	return filter
}

// OrderRepository handles the orders collection.
type OrderRepository struct{}

func NewOrderRepository() *OrderRepository { return &OrderRepository{} }

func (r *OrderRepository) col() *mongo.Collection { return database.Collection("orders") }

// Insert persists a new order and fills in its ID.
func (r *OrderRepository) Insert(ctx context.Context, order *models.Order) error {
	res, err := r.col().InsertOne(ctx, order)
	if err != nil {
		return fmt.Errorf("orders: insert: %w", err)
	}
	order.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// FindByID looks up an order by ObjectID.
func (r *OrderRepository) FindByID(ctx context.Context, id primitive.ObjectID) (models.Order, error) {
	var order models.Order
	err := r.col().FindOne(ctx, bson.M{"_id": id}).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Order{}, ErrNotFound
	}
	if err != nil {
		return models.Order{}, fmt.Errorf("orders: find by id: %w", err)
	}
	return order, nil
}

// FindPage returns one page of orders matching filter, newest first,
// together with the total match count for pagination.
func (r *OrderRepository) FindPage(ctx context.Context, filter OrderFilter, page, limit int) ([]models.Order, int64, error) {
	query := filter.bson()

	total, err := r.col().CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("orders: count: %w", err)
	}

	skip := int64((page - 1) * limit)
	opts := options.Find().
		SetSort(bson.D{{Key: "date", Value: -1}}).
		SetSkip(skip).
		SetLimit(int64(limit))

	cur, err := r.col().Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("orders: find page: %w", err)
	}
	defer cur.Close(ctx)

	var out []models.Order
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, fmt.Errorf("orders: decode: %w", err)
	}
	return out, total, nil
}

// UpdateStatus replaces an order's status and returns the updated order.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, status string) (models.Order, error) {
	after := options.After
	opts := options.FindOneAndUpdate().SetReturnDocument(after)

	var order models.Order
	err := r.col().FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": status}},
		opts,
	).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Order{}, ErrNotFound
	}
	if err != nil {
		return models.Order{}, fmt.Errorf("orders: update status: %w", err)
	}
	return order, nil
}

// Delete removes an order.
func (r *OrderRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.col().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("orders: delete: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
