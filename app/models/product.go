package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Product is a catalogue entry. CountInStock is the remaining purchasable
// quantity and must never go negative.
type Product struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title        string             `bson:"title" json:"title"`
	Price        float64            `bson:"price" json:"price"`
	Category     primitive.ObjectID `bson:"category" json:"category"`
	CountInStock int                `bson:"countInStock" json:"countInStock"`
	Description  string             `bson:"description" json:"description"`
	Images       []string           `bson:"images" json:"images"`
	Rating       float64            `bson:"rating" json:"rating"`
	Views        int64              `bson:"views" json:"views"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// ProductSummary is the subset of product fields attached to an order
// response line item.
type ProductSummary struct {
	ID           primitive.ObjectID `bson:"_id" json:"id"`
	Title        string             `bson:"title" json:"title"`
	Price        float64            `bson:"price" json:"price"`
	Images       []string           `bson:"images" json:"images"`
	CountInStock int                `bson:"countInStock" json:"countInStock"`
	Rating       float64            `bson:"rating" json:"rating"`
	Views        int64              `bson:"views" json:"views"`
}

// Summary projects the order-facing subset of a product.
func (p Product) Summary() ProductSummary {
	return ProductSummary{
		ID:           p.ID,
		Title:        p.Title,
		Price:        p.Price,
		Images:       p.Images,
		CountInStock: p.CountInStock,
		Rating:       p.Rating,
		Views:        p.Views,
	}
}
