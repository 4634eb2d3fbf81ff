package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foxxcyber/fresh-feed/internal/metrics"
)

func TestRequestMetrics(t *testing.T) {
	app := fiber.New()
	app.Use(RequestMetrics())
	app.Get("/items/:id", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusTeapot)
	})

	counter := metrics.APIRequestsTotal.WithLabelValues("GET", "/items/:id", "418")
	before := testutil.ToFloat64(counter)

	for _, id := range []string{"1", "2"} {
		resp, err := app.Test(httptest.NewRequest("GET", "/items/"+id, nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusTeapot, resp.StatusCode)
	}

	assert.Equal(t, before+2, testutil.ToFloat64(counter))
}
