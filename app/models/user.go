package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// User is the local record for an identity-provider account. It is created
// on first login and never deleted.
type User struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"         json:"_id"`
	ExternalID  string             `bson:"externalId"            json:"externalId"`
	Email       string             `bson:"email"                 json:"email"`
	Name        string             `bson:"name"                  json:"name"`
	Role        string             `bson:"role"                  json:"role"`
	PhoneNumber string             `bson:"phoneNumber,omitempty" json:"phoneNumber,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt"             json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"             json:"updatedAt"`
}
