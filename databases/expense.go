package databases

// go generate: mockery --name ExpenseDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linesmerrill/clinic-api/models"
)

const expenseName = "expenses"

// ExpenseDatabase contains the methods to use with the expense database
type ExpenseDatabase interface {
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Expense, error)
	InsertOne(ctx context.Context, expense *models.Expense) error
	SumAmounts(ctx context.Context, filter interface{}, groupField string) ([]models.CategoryTotal, error)
}

type expenseDatabase struct {
	db DatabaseHelper
}

// NewExpenseDatabase initializes a new instance of expense database with the provided db connection
func NewExpenseDatabase(db DatabaseHelper) ExpenseDatabase {
	return &expenseDatabase{
		db: db,
	}
}

func (e *expenseDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Expense, error) {
	var expenses []models.Expense
	curr, err := e.db.Collection(expenseName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer curr.Close(ctx)
	err = curr.All(ctx, &expenses)
	if err != nil {
		return nil, err
	}
	return expenses, nil
}

func (e *expenseDatabase) InsertOne(ctx context.Context, expense *models.Expense) error {
	_, err := e.db.Collection(expenseName).InsertOne(ctx, expense)
	return err
}

// SumAmounts matches expenses with filter and sums their amount per distinct value of
// groupField. An empty groupField yields a single row with a null key.
func (e *expenseDatabase) SumAmounts(ctx context.Context, filter interface{}, groupField string) ([]models.CategoryTotal, error) {
	var groupKey interface{}
	if groupField != "" {
		groupKey = "$" + groupField
	}
	pipeline := []bson.M{
		{"$match": filter},
		{"$group": bson.M{"_id": groupKey, "total": bson.M{"$sum": "$amount"}}},
	}

	curr, err := e.db.Collection(expenseName).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer curr.Close(ctx)

	var totals []models.CategoryTotal
	if err := curr.All(ctx, &totals); err != nil {
		return nil, err
	}
	return totals, nil
}
