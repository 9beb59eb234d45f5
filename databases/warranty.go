package databases

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linesmerrill/clinic-api/models"
)

const warrantyName = "labwarranties"

// WarrantyDatabase contains the methods to use with the lab warranty database
type WarrantyDatabase interface {
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Warranty, error)
	InsertOne(ctx context.Context, warranty *models.Warranty) error
}

type warrantyDatabase struct {
	db DatabaseHelper
}

// NewWarrantyDatabase initializes a new instance of lab warranty database with the provided db connection
func NewWarrantyDatabase(db DatabaseHelper) WarrantyDatabase {
	return &warrantyDatabase{
		db: db,
	}
}

func (c *warrantyDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Warranty, error) {
	var warranties []models.Warranty
	curr, err := c.db.Collection(warrantyName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer curr.Close(ctx)
	err = curr.All(ctx, &warranties)
	if err != nil {
		return nil, err
	}
	return warranties, nil
}

func (c *warrantyDatabase) InsertOne(ctx context.Context, warranty *models.Warranty) error {
	_, err := c.db.Collection(warrantyName).InsertOne(ctx, warranty)
	return err
}
