package handlers

import (
	"context"
	"fmt"
	"testing"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foxxcyber/fresh-feed/internal/models"
)

func TestAdminUsers(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()
	adminID, admin := env.tokenFor(t, "admin@example.com", models.RoleAdmin)
	annaID, anna := env.tokenFor(t, "anna@example.com", models.RoleUser)

	env.learning.ForUser(annaID).RecordAdjustment(ctx, "Lax", day(t, "2024-01-03"), day(t, "2024-01-05"), "fisk", "")

	resp, _ := env.do(t, "GET", "/api/admin/users", anna, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, raw := env.do(t, "GET", "/api/admin/users?limit=1", admin, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var users []models.User
	out := decodeEnvelope(t, raw, &users)
	assert.Len(t, users, 1)
	assert.Equal(t, 2, out.Meta.Total)

	annaPath := fmt.Sprintf("/api/admin/users/%d", annaID)
	resp, raw = env.do(t, "GET", annaPath, admin, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var detail struct {
		User     models.User               `json:"user"`
		Learning models.LearningStatistics `json:"learning"`
	}
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, raw, nil).Data, &detail))
	assert.Equal(t, "anna@example.com", detail.User.Email)
	assert.Equal(t, 1, detail.Learning.TotalAdjustments)

	resp, _ = env.do(t, "PUT", annaPath, admin, fiber.Map{"role": "superuser"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = env.do(t, "PUT", annaPath, admin, fiber.Map{"role": "admin"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, models.RoleAdmin, env.users.users[annaID].Role)

	resp, _ = env.do(t, "PUT", fmt.Sprintf("/api/admin/users/%d", adminID), admin, fiber.Map{"role": "user"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = env.do(t, "DELETE", fmt.Sprintf("/api/admin/users/%d", adminID), admin, nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = env.do(t, "DELETE", annaPath, admin, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.NotContains(t, env.users.users, annaID)
	assert.Equal(t, 0, env.learning.ForUser(annaID).Statistics(ctx).TotalAdjustments)

	resp, _ = env.do(t, "DELETE", annaPath, admin, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
