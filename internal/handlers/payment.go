package handlers

import (
	"context"

	"sitepay/internal/models"
	"sitepay/internal/services/ledger"
	"sitepay/internal/services/payment"
	"sitepay/internal/utils/pagination"
	"sitepay/internal/utils/response"
	"sitepay/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type PaymentService interface {
	InitiatePayment(ctx context.Context, req payment.InitiateRequest) (*payment.InitiateResult, error)
	GetTransaction(ctx context.Context, businessID, txRef string) (*models.Transaction, error)
	ListTransactions(ctx context.Context, businessID string, offset, limit int) ([]models.Transaction, int64, error)
}

type PaymentHandler struct {
	paymentService PaymentService
	validator      *validation.Validator
}

func NewPaymentHandler(paymentService PaymentService, v *validation.Validator) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		validator:      v,
	}
}

type customerRequest struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name" validate:"omitempty,max=120"`
	Phone string `json:"phone" validate:"omitempty,max=20"`
}

// InitiatePaymentRequest accepts amount as a JSON number or string.
type InitiatePaymentRequest struct {
	Amount      decimal.Decimal        `json:"amount"`
	Currency    string                 `json:"currency" validate:"omitempty,len=3,alpha"`
	Customer    customerRequest        `json:"customer"`
	Description string                 `json:"description" validate:"omitempty,max=255"`
	Metadata    map[string]interface{} `json:"metadata"`
}

func (h *PaymentHandler) InitiatePayment(c *fiber.Ctx) error {
	var req InitiatePaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	if errs := h.validator.Check(req); !errs.Valid() {
		return response.ValidationError(c, "invalid payment request", errs.Fields())
	}

	result, err := h.paymentService.InitiatePayment(c.UserContext(), payment.InitiateRequest{
		BusinessID: c.Params("id"),
		Amount:     req.Amount,
		Currency:   req.Currency,
		Customer: ledger.Customer{
			Email: req.Customer.Email,
			Name:  req.Customer.Name,
			Phone: req.Customer.Phone,
		},
		Description: req.Description,
		Metadata:    req.Metadata,
	})
	if err != nil {
		return response.FromError(c, err)
	}
	if result.Duplicate {
		return response.Success(c, "Payment already initiated", result)
	}
	return response.Created(c, "Payment initiated", result)
}

func (h *PaymentHandler) GetTransaction(c *fiber.Ctx) error {
	tx, err := h.paymentService.GetTransaction(c.UserContext(), c.Params("id"), c.Params("txRef"))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Transaction retrieved", tx)
}

func (h *PaymentHandler) ListTransactions(c *fiber.Ctx) error {
	p := pagination.ParseFromRequest(c)
	txs, total, err := h.paymentService.ListTransactions(c.UserContext(), c.Params("id"), p.Offset, p.Limit)
	if err != nil {
		return response.FromError(c, err)
	}
	p.Total = total
	return c.JSON(pagination.Response(p, txs))
}
