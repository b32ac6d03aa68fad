package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Order statuses. The status check in change-status is a membership test;
// no transition graph is enforced beyond the cancellation rules.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusShipped    = "shipped"
	StatusDelivered  = "delivered"
	StatusCancelled  = "cancelled"
)

// OrderStatuses lists every valid order status.
var OrderStatuses = []string{
	StatusPending,
	StatusProcessing,
	StatusShipped,
	StatusDelivered,
	StatusCancelled,
}

// ValidStatus reports whether s is a known order status.
func ValidStatus(s string) bool {
	for _, known := range OrderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// OrderItem is one line of an order. Price is the product's unit price
// captured at order time; later product price changes never touch it.
type OrderItem struct {
	Product  primitive.ObjectID `bson:"product" json:"product"`
	Quantity int                `bson:"quantity" json:"quantity"`
	Price    float64            `bson:"price" json:"price"`
}

// Order is a placed order. TotalPrice always equals the sum of
// quantity*price over OrderItems.
type Order struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	User       primitive.ObjectID `bson:"user" json:"user"`
	OrderItems []OrderItem        `bson:"orderItems" json:"orderItems"`
	TotalPrice float64            `bson:"totalPrice" json:"totalPrice"`
	Status     string             `bson:"status" json:"status"`
	Date       time.Time          `bson:"date" json:"date"`
}

// CanCancel reports whether the order may still be cancelled.
// Shipped and delivered are terminal for cancellation purposes.
func (o Order) CanCancel() bool {
	return o.Status != StatusShipped && o.Status != StatusDelivered && o.Status != StatusCancelled
}

// PopulatedOrderItem is an order line enriched with product detail.
type PopulatedOrderItem struct {
	Product  ProductSummary `json:"product"`
	Quantity int            `json:"quantity"`
	Price    float64        `json:"price"`
}

// PopulatedOrder is an order enriched with user and product detail,
// mirroring the shape the API returns from create/get.
type PopulatedOrder struct {
	ID         primitive.ObjectID   `json:"id"`
	User       Profile              `json:"user"`
	OrderItems []PopulatedOrderItem `json:"orderItems"`
	TotalPrice float64              `json:"totalPrice"`
	Status     string               `json:"status"`
	Date       time.Time            `json:"date"`
}
