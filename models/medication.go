package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Medication holds the structure for the medication collection in mongo. There is one
// document per patient and its history only ever grows.
type Medication struct {
	ID          primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	PatientID   int64              `json:"patientId" bson:"patientId"`
	PatientName string             `json:"patientName" bson:"patientName"`
	Phone       int64              `json:"phone" bson:"phone"`
	Branch      string             `json:"branch" bson:"branch"`
	History     []MedicationEntry  `json:"history" bson:"history"`
}

// MedicationEntry is a single dated clinical note
type MedicationEntry struct {
	Date              time.Time `json:"date" bson:"date"`
	DoctorObservation string    `json:"doctorObservation" bson:"doctorObservation"`
	TreatmentPlan     string    `json:"treatmentPlan" bson:"treatmentPlan"`
	MedicationAdvised string    `json:"medicationAdvised" bson:"medicationAdvised"`
}

// MedicationEntryRequest is the request body used to append a clinical note
type MedicationEntryRequest struct {
	Date              string `json:"date"`
	DoctorObservation string `json:"doctorObservation"`
	TreatmentPlan     string `json:"treatmentPlan"`
	MedicationAdvised string `json:"medicationAdvised"`
}
