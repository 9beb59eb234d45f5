package databases

// go generate: mockery --name PatientDatabase

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linesmerrill/clinic-api/models"
)

const patientName = "patients"

// PatientDatabase contains the methods to use with the patient database
type PatientDatabase interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Patient, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Patient, error)
	InsertOne(ctx context.Context, patient *models.Patient) error
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
	NextPatientID(ctx context.Context) (int64, error)
}

type patientDatabase struct {
	db DatabaseHelper
}

// NewPatientDatabase initializes a new instance of patient database with the provided db connection
func NewPatientDatabase(db DatabaseHelper) PatientDatabase {
	return &patientDatabase{
		db: db,
	}
}

func (p *patientDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Patient, error) {
	patient := &models.Patient{}
	err := p.db.Collection(patientName).FindOne(ctx, filter, opts...).Decode(patient)
	if err != nil {
		return nil, noDocuments(err, "patient")
	}
	return patient, nil
}

func (p *patientDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Patient, error) {
	var patients []models.Patient
	curr, err := p.db.Collection(patientName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer curr.Close(ctx)
	err = curr.All(ctx, &patients)
	if err != nil {
		return nil, err
	}
	return patients, nil
}

func (p *patientDatabase) InsertOne(ctx context.Context, patient *models.Patient) error {
	_, err := p.db.Collection(patientName).InsertOne(ctx, patient)
	return err
}

func (p *patientDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	return p.db.Collection(patientName).UpdateOne(ctx, filter, update, opts...)
}

func (p *patientDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	return p.db.Collection(patientName).CountDocuments(ctx, filter, opts...)
}

// NextPatientID returns the highest patientId plus one, or FirstPatientID for an empty
// collection
func (p *patientDatabase) NextPatientID(ctx context.Context) (int64, error) {
	last := &models.Patient{}
	opts := options.FindOne().
		SetSort(bson.M{"patientId": -1}).
		SetProjection(bson.M{"patientId": 1})
	err := p.db.Collection(patientName).FindOne(ctx, bson.M{}, opts).Decode(last)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.FirstPatientID, nil
	}
	if err != nil {
		return 0, err
	}
	if last.PatientID <= 0 {
		return models.FirstPatientID, nil
	}
	return last.PatientID + 1, nil
}
