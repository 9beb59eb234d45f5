package databases

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linesmerrill/clinic-api/models"
)

const treatmentName = "treatments"

// TreatmentDatabase contains the methods to use with the treatment catalogue database
type TreatmentDatabase interface {
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.CatalogTreatment, error)
	Seed(ctx context.Context, names []string) (int, error)
}

type treatmentDatabase struct {
	db DatabaseHelper
}

// NewTreatmentDatabase initializes a new instance of treatment catalogue database with the provided db connection
func NewTreatmentDatabase(db DatabaseHelper) TreatmentDatabase {
	return &treatmentDatabase{
		db: db,
	}
}

func (t *treatmentDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.CatalogTreatment, error) {
	var treatments []models.CatalogTreatment
	curr, err := t.db.Collection(treatmentName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer curr.Close(ctx)
	err = curr.All(ctx, &treatments)
	if err != nil {
		return nil, err
	}
	return treatments, nil
}

// Seed inserts every name that is not in the catalogue yet and returns how many were added
func (t *treatmentDatabase) Seed(ctx context.Context, names []string) (int, error) {
	coll := t.db.Collection(treatmentName)
	added := 0
	for _, name := range names {
		n, err := coll.CountDocuments(ctx, bson.M{"name": name})
		if err != nil {
			return added, err
		}
		if n > 0 {
			continue
		}
		now := time.Now()
		_, err = coll.InsertOne(ctx, models.CatalogTreatment{
			Name:      name,
			IsActive:  true,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			return added, err
		}
		added++
	}
	return added, nil
}
