package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/errgroup"
)

// Check reports whether a dependency is reachable.
type Check func(ctx context.Context) error

type HealthHandler struct {
	checks  map[string]Check
	timeout time.Duration
}

func NewHealthHandler(checks map[string]Check) *HealthHandler {
	return &HealthHandler{checks: checks, timeout: 2 * time.Second}
}

// Health runs every dependency check concurrently. Any failure turns the
// response into a 503.
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), h.timeout)
	defer cancel()

	results := make(map[string]string, len(h.checks))
	errs := make([]error, len(h.checks))
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}

	var g errgroup.Group
	for i, name := range names {
		i := i
		check := h.checks[name]
		g.Go(func() error {
			errs[i] = check(ctx)
			return nil
		})
	}
	_ = g.Wait()

	status, code := "ok", fiber.StatusOK
	for i, name := range names {
		if errs[i] != nil {
			results[name] = errs[i].Error()
			status, code = "degraded", fiber.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}

	return c.Status(code).JSON(fiber.Map{
		"status":    status,
		"checks":    results,
		"timestamp": time.Now().UTC(),
	})
}
