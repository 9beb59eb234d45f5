package databases

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linesmerrill/clinic-api/models"
)

const medicationName = "medications"

// MedicationDatabase contains the methods to use with the medication database
type MedicationDatabase interface {
	FindByPatientID(ctx context.Context, patientID int64) (*models.Medication, error)
	AppendEntry(ctx context.Context, patient *models.Patient, entry models.MedicationEntry) error
}

type medicationDatabase struct {
	db DatabaseHelper
}

// NewMedicationDatabase initializes a new instance of medication database with the provided db connection
func NewMedicationDatabase(db DatabaseHelper) MedicationDatabase {
	return &medicationDatabase{
		db: db,
	}
}

func (m *medicationDatabase) FindByPatientID(ctx context.Context, patientID int64) (*models.Medication, error) {
	medication := &models.Medication{}
	err := m.db.Collection(medicationName).FindOne(ctx, bson.M{"patientId": patientID}).Decode(medication)
	if err != nil {
		return nil, noDocuments(err, "medication history")
	}
	return medication, nil
}

// AppendEntry pushes a note onto the patient's history, creating the document from the
// patient record the first time. History entries are never rewritten.
func (m *medicationDatabase) AppendEntry(ctx context.Context, patient *models.Patient, entry models.MedicationEntry) error {
	filter := bson.M{"patientId": patient.PatientID}
	update := bson.M{
		"$push": bson.M{"history": entry},
		"$setOnInsert": bson.M{
			"patientName": patient.Name,
			"phone":       patient.Phone,
			"branch":      patient.Branch,
		},
	}
	_, err := m.db.Collection(medicationName).UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}
