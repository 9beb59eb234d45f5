package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Appointment holds the structure for the appointment collection in mongo
type Appointment struct {
	ID              primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	PatientID       int64              `json:"patientId" bson:"patientId" validate:"required"`
	Name            string             `json:"name" bson:"name" validate:"required"`
	Phone           string             `json:"phone" bson:"phone" validate:"required"`
	Age             int                `json:"age" bson:"age" validate:"required"`
	Address         string             `json:"address" bson:"address" validate:"required"`
	AppointmentDate string             `json:"appointmentDate" bson:"appointmentDate" validate:"required"`
	AppointmentTime string             `json:"appointmentTime" bson:"appointmentTime" validate:"required"`
	Treatment       string             `json:"treatment" bson:"treatment" validate:"required"`
	CreatedAt       time.Time          `json:"createdAt" bson:"createdAt"`
}
