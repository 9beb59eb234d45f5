package databases

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// CollectionIndexes lists the indexes one collection must carry
type CollectionIndexes struct {
	Collection string
	Models     []mongo.IndexModel
}

func uniqueOn(field string) mongo.IndexModel {
	return mongo.IndexModel{
		Keys:    bson.D{{Key: field, Value: 1}},
		Options: options.Index().SetName(field + "_unique").SetUnique(true),
	}
}

// RequiredIndexes are the unique keys the handlers rely on to reject duplicates.
// Patient registration retries on a patientId collision, so that index must exist
// before the first insert.
var RequiredIndexes = []CollectionIndexes{
	{Collection: patientName, Models: []mongo.IndexModel{
		uniqueOn("patientId"),
		{Keys: bson.D{{Key: "phone", Value: 1}}, Options: options.Index().SetName("phone")},
	}},
	{Collection: expenseName, Models: []mongo.IndexModel{
		uniqueOn("txnId"),
		{Keys: bson.D{{Key: "branch", Value: 1}, {Key: "date", Value: -1}}, Options: options.Index().SetName("branch_date")},
	}},
	{Collection: warrantyName, Models: []mongo.IndexModel{uniqueOn("warrantyId")}},
	{Collection: userName, Models: []mongo.IndexModel{uniqueOn("email")}},
	{Collection: medicationName, Models: []mongo.IndexModel{uniqueOn("patientId")}},
}

// EnsureIndexes creates every index in RequiredIndexes. Creating an index that
// already exists with the same options is a no-op on the server.
func EnsureIndexes(ctx context.Context, db DatabaseHelper) error {
	for _, ci := range RequiredIndexes {
		names, err := db.Collection(ci.Collection).CreateIndexes(ctx, ci.Models)
		if err != nil {
			return fmt.Errorf("create indexes on %s: %w", ci.Collection, err)
		}
		zap.S().Debugw("indexes ensured", "collection", ci.Collection, "indexes", names)
	}
	return nil
}
