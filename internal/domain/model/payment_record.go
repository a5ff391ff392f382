package model

import (
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
)

// PaymentRecord is one completed capture, appended once and never mutated.
type PaymentRecord struct {
	ID         string          `json:"id"` // ULID assigned by the relay
	OrderID    string          `json:"orderId"`
	Status     string          `json:"status"`
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency"`
	PayerID    *string         `json:"payerId"`
	PayerEmail *string         `json:"payerEmail"`
	CreateTime time.Time       `json:"createTime"`
	UpdateTime time.Time       `json:"updateTime"`
}

// NewPaymentRecordID returns a lexicographically sortable record id.
func NewPaymentRecordID() string { return ulid.Make().String() }
