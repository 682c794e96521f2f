package response

import (
	"errors"

	apperrors "sitepay/internal/errors"

	"github.com/gofiber/fiber/v2"
)

func Success(c *fiber.Ctx, message string, data interface{}) error {
	return c.JSON(fiber.Map{
		"message": message,
		"data":    data,
	})
}

func Created(c *fiber.Ctx, message string, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": message,
		"data":    data,
	})
}

func Error(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": message,
	})
}

func BadRequest(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusBadRequest, message)
}

func ServerError(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusInternalServerError, message)
}

func Unauthorized(c *fiber.Ctx) error {
	return Error(c, fiber.StatusUnauthorized, "Unauthorized")
}

func Forbidden(c *fiber.Ctx) error {
	return FromError(c, apperrors.ErrForbidden)
}

// ValidationError reports the request fields that failed validation.
func ValidationError(c *fiber.Ctx, message string, fields []string) error {
	return FromError(c, apperrors.ErrInvalidPaymentRequest.WithMessage(message).WithFields(fields...))
}

// FromError writes err with the status of its kind. Errors that are not
// domain errors are reported as a generic 500 so internals never leak.
func FromError(c *fiber.Ctx, err error) error {
	return ErrorWithData(c, err, nil)
}

// ErrorWithData is FromError plus a data payload, used when a failed
// operation still has state worth returning.
func ErrorWithData(c *fiber.Ctx, err error, data interface{}) error {
	de, ok := apperrors.As(err)
	if !ok {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return Error(c, fe.Code, fe.Message)
		}
		return ServerError(c, "internal server error")
	}

	body := fiber.Map{
		"error": de.Message,
		"code":  de.Code,
	}
	if len(de.Fields) > 0 {
		body["fields"] = de.Fields
	}
	if data != nil {
		body["data"] = data
	}
	return c.Status(de.HTTPStatus()).JSON(body)
}
