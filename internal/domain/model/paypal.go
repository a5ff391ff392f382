package model

import "encoding/json"

// Webhook event types handled by the relay.
const (
	EventCheckoutOrderApproved  = "CHECKOUT.ORDER.APPROVED"
	EventPaymentCaptureComplete = "PAYMENT.CAPTURE.COMPLETED"
)

// OrderRequest carries what the relay needs to open a CAPTURE-intent order.
type OrderRequest struct {
	Amount    string // provider decimal string, passed through uninspected
	Currency  string
	ReturnURL string
	CancelURL string
}

// Link is a HATEOAS entry on provider resources.
type Link struct {
	Href   string `json:"href"`
	Rel    string `json:"rel"`
	Method string `json:"method,omitempty"`
}

// Order is the provider order representation. Raw keeps the response body as returned,
// so the link endpoint can echo the provider object unchanged.
type Order struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Links  []Link          `json:"links"`
	Raw    json.RawMessage `json:"-"`
}

func (o Order) MarshalJSON() ([]byte, error) {
	if len(o.Raw) > 0 {
		return o.Raw, nil
	}
	type plain Order
	return json.Marshal(plain(o))
}

// ApprovalLink returns the href of the link whose rel is "approve".
func (o *Order) ApprovalLink() (string, bool) {
	for _, l := range o.Links {
		if l.Rel == "approve" {
			return l.Href, true
		}
	}
	return "", false
}

// CaptureResult is returned as-is for logging.
type CaptureResult struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Raw    json.RawMessage `json:"-"`
}

// SignatureHeaders are the transmission headers PayPal signs a delivery with.
// Missing headers stay empty; the provider decides whether they are acceptable.
type SignatureHeaders struct {
	AuthAlgo         string
	CertURL          string
	TransmissionID   string
	TransmissionSig  string
	TransmissionTime string
}

type VerificationStatus string

const (
	VerificationSuccess VerificationStatus = "SUCCESS"
	VerificationFailure VerificationStatus = "FAILURE"
)

// WebhookDelivery is one inbound notification as received.
type WebhookDelivery struct {
	Headers SignatureHeaders
	Body    []byte
}

// WebhookEvent is the envelope of a PayPal notification. Resource is decoded per event type.
type WebhookEvent struct {
	ID           string          `json:"id"`
	EventType    string          `json:"event_type"`
	ResourceType string          `json:"resource_type"`
	Summary      string          `json:"summary"`
	CreateTime   string          `json:"create_time"`
	Resource     json.RawMessage `json:"resource"`
}

type CaptureAmount struct {
	Value        string `json:"value"`
	CurrencyCode string `json:"currency_code"`
}

type CapturePayer struct {
	PayerID      string `json:"payer_id"`
	EmailAddress string `json:"email_address"`
}

// CaptureResource is the resource of a PAYMENT.CAPTURE.COMPLETED event.
type CaptureResource struct {
	ID         string         `json:"id"`
	Status     string         `json:"status"`
	Amount     *CaptureAmount `json:"amount"`
	Payer      *CapturePayer  `json:"payer"`
	CreateTime string         `json:"create_time"`
	UpdateTime string         `json:"update_time"`
}

// OrderResource is the resource of a CHECKOUT.ORDER.APPROVED event.
type OrderResource struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// DeliveryOutcome is the terminal state of one webhook delivery.
type DeliveryOutcome string

const (
	OutcomeVerifyFailed  DeliveryOutcome = "verify_failed"
	OutcomeDispatched    DeliveryOutcome = "dispatched"
	OutcomeDispatchError DeliveryOutcome = "dispatch_error"
)

// DispatchReport describes what a verified delivery led to.
type DispatchReport struct {
	Outcome   DeliveryOutcome
	EventType string
	Handled   bool // event type is one the relay acts on
	Record    *PaymentRecord
}
