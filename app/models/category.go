package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Category is a simple reference target for products.
type Category struct {
	ID   primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name string             `bson:"name" json:"name"`
}
