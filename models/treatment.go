package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultTreatmentNames are seeded into the treatment catalogue on start-up
var DefaultTreatmentNames = []string{
	"ROOT CANAL TREATMENT",
	"IMPLANTS",
	"ALIGNERS",
	"BRACES",
	"FILLING",
	"EXTRACTION",
	"WISDOM TOOTH",
	"SCALING",
	"VENERS",
	"WHITENING",
	"CROWNS BRIDGES",
}

// CatalogTreatment holds the structure for the treatment catalogue collection in mongo
type CatalogTreatment struct {
	ID              primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Name            string             `json:"name" bson:"name"`
	Description     string             `json:"description" bson:"description"`
	DefaultEstimate Amount             `json:"defaultEstimate" bson:"defaultEstimate"`
	IsActive        bool               `json:"isActive" bson:"isActive"`
	CreatedAt       time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt" bson:"updatedAt"`
}
