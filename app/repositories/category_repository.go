package repositories

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/rajatverma/kirana/app/models"
	"github.com/rajatverma/kirana/pkg/database"
)

// CategoryRepository handles the categories collection.
type CategoryRepository struct{}

func NewCategoryRepository() *CategoryRepository { return &CategoryRepository{} }

func (r *CategoryRepository) col() *mongo.Collection { return database.Collection("categories") }

// Create persists a new category and fills in its ID.
func (r *CategoryRepository) Create(ctx context.Context, category *models.Category) error {
	res, err := r.col().InsertOne(ctx, category)
	if err != nil {
		return fmt.Errorf("categories: create: %w", err)
	}
	category.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// All returns every category.
func (r *CategoryRepository) All(ctx context.Context) ([]models.Category, error) {
	cur, err := r.col().Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("categories: list: %w", err)
	}
	defer cur.Close(ctx)

	var out []models.Category
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("categories: decode: %w", err)
	}
	return out, nil
}

// FindByID looks up a category by ObjectID.
func (r *CategoryRepository) FindByID(ctx context.Context, id primitive.ObjectID) (models.Category, error) {
	var category models.Category
	err := r.col().FindOne(ctx, bson.M{"_id": id}).Decode(&category)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Category{}, ErrNotFound
	}
	if err != nil {
		return models.Category{}, fmt.Errorf("categories: find by id: %w", err)
	}
	return category, nil
}
