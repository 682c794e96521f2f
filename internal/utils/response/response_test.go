package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	apperrors "sitepay/internal/errors"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", apperrors.ErrInvalidStepData.WithFields("idNumber"), 400, "INVALID_STEP_DATA"},
		{"not found", apperrors.ErrSessionNotFound, 404, "SESSION_NOT_FOUND"},
		{"conflict wrapped", fmt.Errorf("start: %w", apperrors.ErrAlreadyOnboarded), 409, "ALREADY_ONBOARDED"},
		{"gateway", apperrors.Gateway("Invalid account", nil), 502, "GATEWAY_ERROR"},
		{"unauthorized", apperrors.ErrInvalidSignature, 401, "INVALID_SIGNATURE"},
		{"internal", errors.New("connection refused"), 500, ""},
		{"fiber error", fiber.ErrNotFound, 404, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error { return FromError(c, tt.err) })

			resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			raw, _ := io.ReadAll(resp.Body)
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(raw, &body))
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, body["code"])
			}
			if tt.name == "internal" {
				assert.Equal(t, "internal server error", body["error"])
			}
		})
	}
}

func TestErrorWithData_IncludesFieldsAndData(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return ErrorWithData(c, apperrors.ErrInvalidStepData.WithFields("a", "b"), fiber.Map{"progress": 50})
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	var body struct {
		Fields []string               `json:"fields"`
		Data   map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, []string{"a", "b"}, body.Fields)
	assert.Equal(t, float64(50), body.Data["progress"])
}
