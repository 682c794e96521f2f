package observability

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestLogger_LevelByStatus(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)

	app := fiber.New()
	app.Use(RequestLogger(zap.New(core)))
	app.Get("/ok", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	app.Get("/missing", func(c *fiber.Ctx) error { return fiber.ErrNotFound })
	app.Get("/boom", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusInternalServerError) })

	for _, path := range []string{"/ok", "/missing", "/boom"} {
		resp, err := app.Test(httptest.NewRequest("GET", path, nil))
		require.NoError(t, err)
		resp.Body.Close()
	}

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.EqualValues(t, fiber.StatusNotFound, entries[1].ContextMap()["status"])
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
}

func TestTracing_SetsSpanContext(t *testing.T) {
	_, err := InitTracer("", "test")
	require.NoError(t, err)

	app := fiber.New()
	app.Use(Tracing())
	app.Get("/", func(c *fiber.Ctx) error {
		sc := trace.SpanContextFromContext(c.UserContext())
		return c.SendString(sc.TraceID().String())
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", string(body))
}
