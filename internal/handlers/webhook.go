package handlers

import (
	"context"

	"sitepay/internal/gateway"
	"sitepay/internal/services/settlement"
	"sitepay/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

type WebhookProcessor interface {
	Handle(ctx context.Context, signature string, body []byte) (settlement.Result, error)
}

type WebhookHandler struct {
	processor WebhookProcessor
}

func NewWebhookHandler(processor WebhookProcessor) *WebhookHandler {
	return &WebhookHandler{processor: processor}
}

// Handle acknowledges every authenticated, well-formed delivery with 200 so
// the gateway stops retrying; only signature and payload errors are
// rejected. Internal failures return 500, which the gateway retries.
func (h *WebhookHandler) Handle(c *fiber.Ctx) error {
	res, err := h.processor.Handle(c.UserContext(), c.Get(gateway.SignatureHeader), c.Body())
	if err != nil {
		return response.FromError(c, err)
	}

	body := fiber.Map{
		"status":  "success",
		"outcome": res.Outcome,
	}
	if res.Reason != "" {
		body["reason"] = res.Reason
	}
	return c.JSON(body)
}
