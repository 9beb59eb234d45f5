package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Capability levels, higher levels include the lower ones
const (
	CapabilityUser    = 1
	CapabilityAdmin   = 2
	CapabilityManager = 3
)

// AllBranches is the branch sentinel meaning "no branch filter"
const AllBranches = "All Branches"

// User holds the structure for the user collection in mongo
type User struct {
	ID              primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Email           string             `json:"email" bson:"email"`
	Password        string             `json:"-" bson:"password"`
	CapabilityLevel int                `json:"capabilityLevel" bson:"capabilityLevel"`
	Branch          string             `json:"branch" bson:"branch"`
	CreatedAt       time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// UserRequest is the request body used to create or update a user
type UserRequest struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password"`
	CapabilityLevel *int   `json:"capabilityLevel" validate:"omitempty,min=1,max=3"`
	Branch          string `json:"branch"`
}

// LoginRequest is the request body for the login route
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is returned after a successful login
type LoginResponse struct {
	Email           string `json:"email"`
	CapabilityLevel int    `json:"capabilityLevel"`
	Branch          string `json:"branch"`
	Token           string `json:"token"`
}
