package handlers

import (
	"context"

	apperrors "sitepay/internal/errors"
	"sitepay/internal/models"
	"sitepay/internal/services/fees"
	"sitepay/internal/utils/response"
	"sitepay/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type AccountService interface {
	Account(ctx context.Context, businessID string) (*models.PaymentAccount, error)
	ChangeTier(ctx context.Context, businessID, tier string) (*models.PaymentAccount, error)
	Suspend(ctx context.Context, businessID string) (*models.PaymentAccount, error)
	Reactivate(ctx context.Context, businessID string) (*models.PaymentAccount, error)
	QuoteFees(ctx context.Context, businessID string, amount decimal.Decimal) (fees.Breakdown, error)
}

type AccountHandler struct {
	accountService AccountService
	validator      *validation.Validator
}

func NewAccountHandler(accountService AccountService, v *validation.Validator) *AccountHandler {
	return &AccountHandler{accountService: accountService, validator: v}
}

type changeTierRequest struct {
	Tier string `json:"tier" validate:"required,oneof=solo team enterprise"`
}

func (h *AccountHandler) GetAccount(c *fiber.Ctx) error {
	account, err := h.accountService.Account(c.UserContext(), c.Params("id"))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Payment account retrieved", account)
}

func (h *AccountHandler) ChangeTier(c *fiber.Ctx) error {
	var req changeTierRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	if errs := h.validator.Check(req); !errs.Valid() {
		return response.FromError(c, apperrors.ErrUnknownTier.WithFields(errs.Fields()...))
	}
	account, err := h.accountService.ChangeTier(c.UserContext(), c.Params("id"), req.Tier)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Tier updated", account)
}

func (h *AccountHandler) Suspend(c *fiber.Ctx) error {
	account, err := h.accountService.Suspend(c.UserContext(), c.Params("id"))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Payment account suspended", account)
}

func (h *AccountHandler) Reactivate(c *fiber.Ctx) error {
	account, err := h.accountService.Reactivate(c.UserContext(), c.Params("id"))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Payment account reactivated", account)
}

// QuoteFees previews the fee breakdown for ?amount= at the account's tier.
func (h *AccountHandler) QuoteFees(c *fiber.Ctx) error {
	amount, err := decimal.NewFromString(c.Query("amount"))
	if err != nil {
		return response.FromError(c, apperrors.ErrInvalidAmount)
	}
	breakdown, err := h.accountService.QuoteFees(c.UserContext(), c.Params("id"), amount)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Fee quote", breakdown)
}
