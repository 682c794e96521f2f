package handlers

import (
	"context"
	"encoding/json"

	apperrors "sitepay/internal/errors"
	"sitepay/internal/gateway"
	"sitepay/internal/middleware"
	"sitepay/internal/models"
	"sitepay/internal/services/onboarding"
	"sitepay/internal/utils/response"
	"sitepay/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type OnboardingService interface {
	Start(ctx context.Context, businessID, country string) (*onboarding.SessionView, error)
	ProcessStep(ctx context.Context, businessID string, sessionID uuid.UUID, stepID models.StepID, answers json.RawMessage) (*onboarding.StepResult, error)
	Get(ctx context.Context, businessID string, sessionID uuid.UUID) (*onboarding.SessionView, error)
	Abandon(ctx context.Context, businessID string, sessionID uuid.UUID) (*onboarding.SessionView, error)
	Banks(ctx context.Context, country string) ([]gateway.Bank, error)
}

type OnboardingHandler struct {
	service   OnboardingService
	validator *validation.Validator
}

func NewOnboardingHandler(service OnboardingService, v *validation.Validator) *OnboardingHandler {
	return &OnboardingHandler{service: service, validator: v}
}

type startOnboardingRequest struct {
	Country string `json:"country" validate:"required,len=2,alpha"`
}

type processStepRequest struct {
	StepID  models.StepID   `json:"stepId" validate:"required"`
	Answers json.RawMessage `json:"answers"`
}

// businessOf returns the tenant of the caller. Onboarding is always for the
// caller's own business.
func businessOf(c *fiber.Ctx) (string, error) {
	claims := middleware.Claims(c)
	if claims == nil {
		return "", apperrors.ErrUnauthorized
	}
	if claims.BusinessID == "" {
		return "", apperrors.ErrForbidden.WithMessage("token is not scoped to a business")
	}
	return claims.BusinessID, nil
}

func sessionIDParam(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("sessionId"))
	if err != nil {
		return uuid.Nil, apperrors.ErrSessionNotFound
	}
	return id, nil
}

func (h *OnboardingHandler) Start(c *fiber.Ctx) error {
	businessID, err := businessOf(c)
	if err != nil {
		return response.FromError(c, err)
	}
	var req startOnboardingRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	if errs := h.validator.Check(req); !errs.Valid() {
		return response.FromError(c, apperrors.ErrUnsupportedCountry.WithFields(errs.Fields()...))
	}

	session, err := h.service.Start(c.UserContext(), businessID, req.Country)
	if err != nil {
		return response.FromError(c, err)
	}
	if session.Resumed {
		return response.Success(c, "Onboarding session resumed", session)
	}
	return response.Created(c, "Onboarding session started", session)
}

func (h *OnboardingHandler) ProcessStep(c *fiber.Ctx) error {
	businessID, err := businessOf(c)
	if err != nil {
		return response.FromError(c, err)
	}
	sessionID, err := sessionIDParam(c)
	if err != nil {
		return response.FromError(c, err)
	}
	var req processStepRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	if errs := h.validator.Check(req); !errs.Valid() {
		return response.FromError(c, apperrors.ErrInvalidStepData.WithFields(errs.Fields()...))
	}

	result, err := h.service.ProcessStep(c.UserContext(), businessID, sessionID, req.StepID, req.Answers)
	if err != nil {
		if result != nil {
			return response.ErrorWithData(c, err, result)
		}
		return response.FromError(c, err)
	}
	if result.Completed {
		return response.Success(c, "Onboarding completed", result)
	}
	return response.Success(c, "Step completed", result)
}

func (h *OnboardingHandler) Get(c *fiber.Ctx) error {
	businessID, err := businessOf(c)
	if err != nil {
		return response.FromError(c, err)
	}
	sessionID, err := sessionIDParam(c)
	if err != nil {
		return response.FromError(c, err)
	}
	session, err := h.service.Get(c.UserContext(), businessID, sessionID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Onboarding session retrieved", session)
}

func (h *OnboardingHandler) Abandon(c *fiber.Ctx) error {
	businessID, err := businessOf(c)
	if err != nil {
		return response.FromError(c, err)
	}
	sessionID, err := sessionIDParam(c)
	if err != nil {
		return response.FromError(c, err)
	}
	session, err := h.service.Abandon(c.UserContext(), businessID, sessionID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Onboarding session abandoned", session)
}

func (h *OnboardingHandler) Banks(c *fiber.Ctx) error {
	country := c.Query("country")
	if country == "" {
		return response.FromError(c, apperrors.ErrUnsupportedCountry.WithFields("country"))
	}
	banks, err := h.service.Banks(c.UserContext(), country)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Banks retrieved", banks)
}
