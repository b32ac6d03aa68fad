package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is the identity record. The bcrypt hash never serialises to JSON.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserName     string             `bson:"userName" json:"userName"`
	Email        string             `bson:"email" json:"email"`
	Password     string             `bson:"password" json:"-"`
	Role         string             `bson:"role" json:"role"`
	PhoneNumber  string             `bson:"phoneNumber" json:"phoneNumber"`
	City         string             `bson:"city" json:"city"`
	PostalCode   string             `bson:"postalCode" json:"postalCode"`
	AddressLine1 string             `bson:"addressLine1" json:"addressLine1"`
	AddressLine2 string             `bson:"addressLine2,omitempty" json:"addressLine2,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Roles a user may hold.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Profile is the subset of user fields attached to an order response.
type Profile struct {
	ID           primitive.ObjectID `bson:"_id" json:"id"`
	UserName     string             `bson:"userName" json:"userName"`
	Email        string             `bson:"email" json:"email"`
	PhoneNumber  string             `bson:"phoneNumber" json:"phoneNumber"`
	City         string             `bson:"city" json:"city"`
	PostalCode   string             `bson:"postalCode" json:"postalCode"`
	AddressLine1 string             `bson:"addressLine1" json:"addressLine1"`
	AddressLine2 string             `bson:"addressLine2,omitempty" json:"addressLine2,omitempty"`
}

// Profile projects the order-facing subset of a user.
func (u User) Profile() Profile {
	return Profile{
		ID:           u.ID,
		UserName:     u.UserName,
		Email:        u.Email,
		PhoneNumber:  u.PhoneNumber,
		City:         u.City,
		PostalCode:   u.PostalCode,
		AddressLine1: u.AddressLine1,
		AddressLine2: u.AddressLine2,
	}
}
