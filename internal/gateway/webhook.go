package gateway

import "github.com/shopspring/decimal"

const (
	EventChargeCompleted = "charge.completed"
	StatusSuccessful     = "successful"

	// SignatureHeader carries the shared secret on every webhook delivery.
	SignatureHeader = "verif-hash"
)

// WebhookEvent is the body the gateway posts to the webhook endpoint.
type WebhookEvent struct {
	Event string     `json:"event"`
	Data  ChargeData `json:"data"`
}

type ChargeData struct {
	ID       int64            `json:"id"`
	TxRef    string           `json:"tx_ref"`
	FlwRef   string           `json:"flw_ref"`
	Status   string           `json:"status"`
	Amount   *decimal.Decimal `json:"amount,omitempty"`
	Currency string           `json:"currency"`
	Customer *Customer        `json:"customer,omitempty"`
}

// IsSuccessfulCharge reports whether the event settles a payment.
func (e WebhookEvent) IsSuccessfulCharge() bool {
	return e.Event == EventChargeCompleted && e.Data.Status == StatusSuccessful
}
