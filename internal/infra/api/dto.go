package api

import (
	"encoding/json"
	"time"

	"paypal-relay/internal/domain/model"
)

// PaymentRecordDTO is the wire shape of a stored record. The amount is a JSON
// number carrying the exact decimal digits.
type PaymentRecordDTO struct {
	ID         string      `json:"id"`
	OrderID    string      `json:"orderId"`
	Status     string      `json:"status"`
	Amount     json.Number `json:"amount"`
	Currency   string      `json:"currency"`
	PayerID    *string     `json:"payerId"`
	PayerEmail *string     `json:"payerEmail"`
	CreateTime time.Time   `json:"createTime"`
	UpdateTime time.Time   `json:"updateTime"`
}

// ToPaymentRecordDTOs converts records for the HTTP and CLI listings.
func ToPaymentRecordDTOs(recs []*model.PaymentRecord) []PaymentRecordDTO {
	out := make([]PaymentRecordDTO, 0, len(recs))
	for _, r := range recs {
		out = append(out, PaymentRecordDTO{
			ID:         r.ID,
			OrderID:    r.OrderID,
			Status:     r.Status,
			Amount:     json.Number(r.Amount.String()),
			Currency:   r.Currency,
			PayerID:    r.PayerID,
			PayerEmail: r.PayerEmail,
			CreateTime: r.CreateTime,
			UpdateTime: r.UpdateTime,
		})
	}
	return out
}
