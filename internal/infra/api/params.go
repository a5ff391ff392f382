package api

import (
	"net/http"

	"github.com/oapi-codegen/runtime"
)

// CreatePaymentLinkParams are the query parameters of GET /create-payment-link.
type CreatePaymentLinkParams struct {
	Amount   *string `form:"amount,omitempty" json:"amount,omitempty"`
	Currency *string `form:"currency,omitempty" json:"currency,omitempty"`
}

func bindCreatePaymentLinkParams(r *http.Request) (CreatePaymentLinkParams, error) {
	var params CreatePaymentLinkParams
	q := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, false, "amount", q, &params.Amount); err != nil {
		return params, err
	}
	if err := runtime.BindQueryParameter("form", true, false, "currency", q, &params.Currency); err != nil {
		return params, err
	}
	return params, nil
}
