package databases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/linesmerrill/clinic-api/databases"
	"github.com/linesmerrill/clinic-api/databases/mocks"
	"github.com/linesmerrill/clinic-api/models"
)

func TestExpenseDatabase_SumAmounts(t *testing.T) {

	var dbHelper databases.DatabaseHelper
	var collectionHelper databases.CollectionHelper
	var cursorHelper databases.CursorHelper

	dbHelper = &mocks.DatabaseHelper{}
	collectionHelper = &mocks.CollectionHelper{}
	cursorHelper = &mocks.CursorHelper{}

	cursorHelper.(*mocks.CursorHelper).
		On("All", mock.Anything, mock.Anything).
		Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(1).(*[]models.CategoryTotal)
		*arg = []models.CategoryTotal{{Category: "Rent", Total: 1200}}
	})
	cursorHelper.(*mocks.CursorHelper).On("Close", mock.Anything).Return(nil)

	byType := []bson.M{
		{"$match": bson.M{"branch": "Central"}},
		{"$group": bson.M{"_id": "$type", "total": bson.M{"$sum": "$amount"}}},
	}
	collectionHelper.(*mocks.CollectionHelper).
		On("Aggregate", context.Background(), byType).
		Return(cursorHelper, nil)

	var nilKey interface{}
	overall := []bson.M{
		{"$match": bson.M{"error": true}},
		{"$group": bson.M{"_id": nilKey, "total": bson.M{"$sum": "$amount"}}},
	}
	collectionHelper.(*mocks.CollectionHelper).
		On("Aggregate", context.Background(), overall).
		Return(nil, errors.New("mocked-error"))

	dbHelper.(*mocks.DatabaseHelper).
		On("Collection", "expenses").Return(collectionHelper)

	expenseDba := databases.NewExpenseDatabase(dbHelper)

	totals, err := expenseDba.SumAmounts(context.Background(), bson.M{"branch": "Central"}, "type")
	assert.NoError(t, err)
	assert.Equal(t, []models.CategoryTotal{{Category: "Rent", Total: 1200}}, totals)

	totals, err = expenseDba.SumAmounts(context.Background(), bson.M{"error": true}, "")
	assert.Empty(t, totals)
	assert.EqualError(t, err, "mocked-error")
}

func TestExpenseDatabase_Find(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}
	cursorHelper := &mocks.CursorHelper{}

	cursorHelper.On("All", mock.Anything, mock.Anything).Return(errors.New("mocked-error"))
	cursorHelper.On("Close", mock.Anything).Return(nil)
	collectionHelper.On("Find", context.Background(), bson.M{}).Return(cursorHelper, nil)
	dbHelper.On("Collection", "expenses").Return(collectionHelper)

	expenses, err := databases.NewExpenseDatabase(dbHelper).Find(context.Background(), bson.M{})
	assert.Nil(t, expenses)
	assert.EqualError(t, err, "mocked-error")
}
