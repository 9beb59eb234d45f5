package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Expense holds the structure for the expense collection in mongo
type Expense struct {
	ID          primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	TxnID       string             `json:"txnId" bson:"txnId"`
	Branch      string             `json:"branch" bson:"branch"`
	Type        string             `json:"type" bson:"type"`
	Description string             `json:"description" bson:"description"`
	Amount      Amount             `json:"amount" bson:"amount"`
	PaymentMode string             `json:"paymentMode" bson:"paymentMode"`
	Date        time.Time          `json:"date" bson:"date"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// ExpenseRequest is the request body used to record an expense
type ExpenseRequest struct {
	TxnID       string `json:"txnId"`
	Branch      string `json:"branch" validate:"required"`
	Type        string `json:"type" validate:"required"`
	Description string `json:"description" validate:"required"`
	Amount      Amount `json:"amount" validate:"gt=0"`
	PaymentMode string `json:"paymentMode" validate:"oneof=Cash Online"`
	Date        string `json:"date" validate:"required"`
}

// CategoryTotal is one row of the grouped expense sum
type CategoryTotal struct {
	Category string `bson:"_id"`
	Total    Amount `bson:"total"`
}
