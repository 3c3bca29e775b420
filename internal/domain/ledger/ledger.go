package ledger

import (
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
)

// Kind selects which of the two entry tables an operation targets. Income
// and expense entries share a shape but are stored separately.
type Kind string

const (
	KindIncome  Kind = "income"
	KindExpense Kind = "expense"
)

type Entry struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	Amount      float64   `json:"amount"`
	Category    string    `json:"category"`
	CreatedAt   time.Time `json:"createdAt"`
}

var ErrNotFound = errors.New("entry not found")

// ErrInvalidAmount covers the non-finite cases JSON itself cannot express
// but a coerced form value could.
var ErrInvalidAmount = errors.New("amount must be a finite number")

type CreateEntryRequest struct {
	Description string   `json:"description" binding:"required,max=300"`
	Date        string   `json:"date" binding:"required,datetime=2006-01-02"`
	Amount      *float64 `json:"amount" binding:"required"`
	Category    string   `json:"category" binding:"required,max=80"`
}

// Validate runs the checks the binding tags cannot: the amount has to be a
// finite number. A pointer is used so that a legitimate zero amount still
// passes the required check.
func (r CreateEntryRequest) Validate() error {
	if r.Amount == nil {
		return ErrInvalidAmount
	}

	if math.IsNaN(*r.Amount) || math.IsInf(*r.Amount, 0) {
		return ErrInvalidAmount
	}

	return nil
}

func NewFromCreateRequest(userID string, req CreateEntryRequest) Entry {
	now := time.Now().UTC()

	// the date string was validated against 2006-01-02 during binding
	date, _ := time.Parse("2006-01-02", req.Date)

	var amount float64

	if req.Amount != nil {
		amount = *req.Amount
	}

	return Entry{
		ID:          uuid.NewString(),
		UserID:      userID,
		Description: req.Description,
		Date:        date,
		Amount:      amount,
		Category:    req.Category,
		CreatedAt:   now,
	}
}
