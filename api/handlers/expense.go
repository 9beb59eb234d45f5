package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/linesmerrill/clinic-api/api"
	"github.com/linesmerrill/clinic-api/databases"
	"github.com/linesmerrill/clinic-api/finance"
	"github.com/linesmerrill/clinic-api/models"
)

// Expense exported for testing purposes
type Expense struct {
	DB       databases.ExpenseDatabase
	Resolver finance.Resolver
	Growth   *finance.Aggregator
}

// CreateExpenseHandler records an expense, generating a transaction id when none is given
func (e Expense) CreateExpenseHandler(w http.ResponseWriter, r *http.Request) {
	var req models.ExpenseRequest
	if err := decodeBody(r, &req); err != nil {
		errorStatus("invalid expense", w, err)
		return
	}
	branch, err := api.ResolveBranch(identity(r), req.Branch)
	if err != nil {
		errorStatus("branch not allowed", w, err)
		return
	}
	if !finance.FiltersBranch(branch) {
		errorStatus("invalid expense", w, models.NewValidationError("branch", "branch required"))
		return
	}
	date, err := e.Resolver.ParseInstant(req.Date)
	if err != nil {
		errorStatus("invalid expense", w, err)
		return
	}

	txnID := strings.TrimSpace(req.TxnID)
	if txnID == "" {
		txnID = "EXP-" + uuid.New().String()
	}
	now := time.Now()
	expense := &models.Expense{
		TxnID:       txnID,
		Branch:      branch,
		Type:        strings.TrimSpace(req.Type),
		Description: strings.TrimSpace(req.Description),
		Amount:      req.Amount,
		PaymentMode: req.PaymentMode,
		Date:        date,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := e.DB.InsertOne(ctx, expense); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			errorStatus("invalid expense", w, models.NewValidationError("txnId", "transaction %s already recorded", expense.TxnID))
			return
		}
		errorStatus("failed to record expense", w, models.NewStoreError("insert expense", err))
		return
	}
	e.Growth.InvalidateGrowth(ctx, expense.Branch, expense.Date)
	zap.S().Infow("expense recorded",
		"txnId", expense.TxnID,
		"branch", expense.Branch,
		"type", expense.Type)
	writeJSON(w, http.StatusCreated, expense)
}

// ExpensesHandler lists expenses of a branch and window, newest first
func (e Expense) ExpensesHandler(w http.ResponseWriter, r *http.Request) {
	branch, err := requestedBranch(r)
	if err != nil {
		errorStatus("branch not allowed", w, err)
		return
	}
	win, err := e.Resolver.Resolve(finance.WindowParamsFromQuery(r.URL.Query()))
	if err != nil {
		errorStatus("invalid date window", w, err)
		return
	}
	limit, page, err := pageParams(r)
	if err != nil {
		errorStatus("invalid pagination", w, err)
		return
	}

	filter := bson.M{}
	if finance.FiltersBranch(branch) {
		filter["branch"] = branch
	}
	if win != nil {
		filter["date"] = bson.M{"$gte": win.Start, "$lte": win.End}
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	opts := databases.PaginatedOpts(limit, page).SetSort(bson.D{{Key: "date", Value: -1}, {Key: "createdAt", Value: -1}})
	expenses, err := e.DB.Find(ctx, filter, opts)
	if err != nil {
		errorStatus("failed to get expenses", w, models.NewStoreError("find expenses", err))
		return
	}
	if expenses == nil {
		expenses = []models.Expense{}
	}
	writeJSON(w, http.StatusOK, expenses)
}
