package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Warranty holds the structure for the lab warranty collection in mongo. The patient
// fields are a snapshot taken when the warranty was issued.
type Warranty struct {
	ID             primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	WarrantyID     string             `json:"warrantyId" bson:"warrantyId" validate:"required"`
	PatientID      int64              `json:"patientId" bson:"patientId" validate:"required"`
	PatientName    string             `json:"patientName" bson:"patientName" validate:"required"`
	PatientPhone   int64              `json:"patientPhone" bson:"patientPhone" validate:"required"`
	PatientAddress string             `json:"patientAddress" bson:"patientAddress" validate:"required"`
	TreatmentType  string             `json:"treatmentType" bson:"treatmentType" validate:"required"`
	Material       string             `json:"material" bson:"material" validate:"required"`
	Product        string             `json:"product" bson:"product" validate:"required"`
	LabName        string             `json:"labName" bson:"labName" validate:"required"`
	Date           string             `json:"date" bson:"date" validate:"required"`
	WarrantyYears  int                `json:"warrantyYears" bson:"warrantyYears" validate:"gt=0"`
}

// WarrantyWithPatient is a warranty joined with the live address and branch of its patient
type WarrantyWithPatient struct {
	Warranty `bson:",inline"`
	Address  string `json:"address"`
	Branch   string `json:"branch"`
}
