package handlers

import (
	"context"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foxxcyber/fresh-feed/internal/models"
)

func TestEstimateExpiry(t *testing.T) {
	env := newTestEnv(t, false)
	_, token := env.tokenFor(t, "anna@example.com", models.RoleUser)

	resp, raw := env.do(t, "POST", "/api/expiry/estimate", token, fiber.Map{
		"product_name":  "mjölk laktosfri",
		"purchase_date": "2024-01-01",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(raw))

	var got models.ExpiryEstimate
	decodeEnvelope(t, raw, &got)
	assert.Equal(t, models.ExpiryEstimate{
		Date:       "2024-01-08",
		BaseDays:   7,
		Confidence: 80,
		Method:     models.MethodEstimated,
	}, got)
}

func TestEstimateExpiry_BadInput(t *testing.T) {
	env := newTestEnv(t, false)
	_, token := env.tokenFor(t, "anna@example.com", models.RoleUser)

	resp, _ := env.do(t, "POST", "/api/expiry/estimate", token, fiber.Map{"product_name": "mjölk", "purchase_date": "01/02/2024"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = env.do(t, "POST", "/api/expiry/estimate", "", fiber.Map{"product_name": "mjölk"})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestEstimateBaseDaysAndClassify(t *testing.T) {
	env := newTestEnv(t, false)

	resp, raw := env.do(t, "POST", "/api/expiry/base-days", "", fiber.Map{"product_name": "Lax"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var base models.BaseEstimate
	decodeEnvelope(t, raw, &base)
	assert.Equal(t, models.BaseEstimate{Days: 2, Method: models.BaseMethodExact, Category: models.CategoryFish}, base)

	resp, raw = env.do(t, "GET", "/api/expiry/classify?name=Blomk%C3%A5l", "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(raw))
	var classified struct {
		Category    models.Category `json:"category"`
		DefaultDays int             `json:"default_days"`
		HasDefault  bool            `json:"has_default"`
	}
	decodeEnvelope(t, raw, &classified)
	assert.Equal(t, models.CategoryVegetable, classified.Category)
	assert.Equal(t, 7, classified.DefaultDays)
	assert.True(t, classified.HasDefault)

	resp, _ = env.do(t, "GET", "/api/expiry/classify", "", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestRecordAdjustmentAndStatistics(t *testing.T) {
	env := newTestEnv(t, false)
	_, token := env.tokenFor(t, "anna@example.com", models.RoleUser)

	resp, raw := env.do(t, "POST", "/api/expiry/adjustments", token, fiber.Map{
		"product_name":  "Yoghurt",
		"original_date": "2024-01-10",
		"new_date":      "2024-01-13",
		"category":      "mejeri",
		"reason":        "höll längre",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, string(raw))
	var recorded struct {
		Category       models.Category `json:"category"`
		DaysDifference int             `json:"days_difference"`
	}
	decodeEnvelope(t, raw, &recorded)
	assert.Equal(t, models.CategoryDairy, recorded.Category)
	assert.Equal(t, 3, recorded.DaysDifference)

	resp, raw = env.do(t, "GET", "/api/expiry/statistics", token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var stats models.LearningStatistics
	decodeEnvelope(t, raw, &stats)
	assert.Equal(t, 1, stats.TotalAdjustments)
	assert.Equal(t, 1, stats.LearnedProducts)
	assert.Equal(t, "dairy", stats.MostAdjustedCategory)

	for _, body := range []fiber.Map{
		{"product_name": "Yoghurt", "original_date": "igår", "new_date": "2024-01-13"},
		{"product_name": "Yoghurt", "original_date": "2024-01-10"},
		{"original_date": "2024-01-10", "new_date": "2024-01-13"},
	} {
		resp, _ = env.do(t, "POST", "/api/expiry/adjustments", token, body)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode, "%v", body)
	}
}

func TestCleanupLearning(t *testing.T) {
	env := newTestEnv(t, false)
	_, token := env.tokenFor(t, "anna@example.com", models.RoleUser)

	resp, _ := env.do(t, "POST", "/api/expiry/cleanup", token, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = env.do(t, "POST", "/api/expiry/cleanup", token, fiber.Map{"max_age_days": 30})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = env.do(t, "POST", "/api/expiry/cleanup", token, fiber.Map{"max_age_days": -1})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestExportResetImport(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()
	userID, token := env.tokenFor(t, "anna@example.com", models.RoleUser)

	env.learning.ForUser(userID).RecordAdjustment(ctx, "Lax", day(t, "2024-01-03"), day(t, "2024-01-04"), "fisk", "")

	resp, export := env.do(t, "GET", "/api/expiry/learning/export", token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), `filename="expiry-learning-`)
	assert.Contains(t, string(export), `"version":1`)

	resp, _ = env.do(t, "DELETE", "/api/expiry/learning", token, nil)
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.Equal(t, 0, env.learning.ForUser(userID).Statistics(ctx).TotalAdjustments)

	resp, _ = env.do(t, "POST", "/api/expiry/learning/import", token, "inte json")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, 0, env.learning.ForUser(userID).Statistics(ctx).TotalAdjustments)

	resp, raw := env.do(t, "POST", "/api/expiry/learning/import", token, string(export))
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(raw))
	var stats models.LearningStatistics
	decodeEnvelope(t, raw, &stats)
	assert.Equal(t, 1, stats.TotalAdjustments)
}

func TestLearningBackups_NotConfigured(t *testing.T) {
	env := newTestEnv(t, false)
	_, token := env.tokenFor(t, "anna@example.com", models.RoleUser)

	resp, _ := env.do(t, "GET", "/api/expiry/learning/backups", token, nil)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
	resp, _ = env.do(t, "POST", "/api/expiry/learning/backups", token, nil)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
	resp, _ = env.do(t, "POST", "/api/expiry/learning/backups/restore", token, fiber.Map{"key": "x"})
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}

func TestLearningBackups(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := context.Background()
	userID, token := env.tokenFor(t, "anna@example.com", models.RoleUser)
	_, other := env.tokenFor(t, "bo@example.com", models.RoleUser)

	env.learning.ForUser(userID).RecordAdjustment(ctx, "Lax", day(t, "2024-01-03"), day(t, "2024-01-04"), "fisk", "")

	resp, raw := env.do(t, "POST", "/api/expiry/learning/backups", token, nil)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, string(raw))
	var backup models.LearningBackup
	decodeEnvelope(t, raw, &backup)
	assert.True(t, strings.HasPrefix(backup.Key, backupPrefix(userID)), backup.Key)

	resp, raw = env.do(t, "GET", "/api/expiry/learning/backups", token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var list []models.LearningBackup
	decodeEnvelope(t, raw, &list)
	require.Len(t, list, 1)

	env.learning.ForUser(userID).Reset(ctx)

	tests := []struct {
		name   string
		token  string
		key    string
		status int
	}{
		{"other user", other, backup.Key, fiber.StatusForbidden},
		{"missing", token, backupPrefix(userID) + "999.json", fiber.StatusNotFound},
		{"empty key", token, "", fiber.StatusBadRequest},
		{"owner", token, backup.Key, fiber.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, raw := env.do(t, "POST", "/api/expiry/learning/backups/restore", tt.token, fiber.Map{"key": tt.key})
			assert.Equal(t, tt.status, resp.StatusCode, string(raw))
		})
	}

	assert.Equal(t, 1, env.learning.ForUser(userID).Statistics(ctx).TotalAdjustments)
}

func TestLearningBackups_RestoreRejectsBadExport(t *testing.T) {
	env := newTestEnv(t, true)
	userID, token := env.tokenFor(t, "anna@example.com", models.RoleUser)

	key := backupPrefix(userID) + "broken.json"
	env.backups.objects[key] = `{"version":99}`

	resp, _ := env.do(t, "POST", "/api/expiry/learning/backups/restore", token, fiber.Map{"key": key})
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
}

func TestCleanupAllLearning_AdminOnly(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()
	annaID, anna := env.tokenFor(t, "anna@example.com", models.RoleUser)
	_, admin := env.tokenFor(t, "admin@example.com", models.RoleAdmin)

	env.learning.ForUser(annaID).RecordAdjustment(ctx, "Lax", day(t, "2024-01-03"), day(t, "2024-01-04"), "fisk", "")

	resp, _ := env.do(t, "POST", "/api/admin/expiry/cleanup", anna, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, raw := env.do(t, "POST", "/api/admin/expiry/cleanup", admin, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(raw))
	var out struct {
		Stores     int `json:"stores"`
		MaxAgeDays int `json:"max_age_days"`
	}
	decodeEnvelope(t, raw, &out)
	assert.Equal(t, 1, out.Stores)
	assert.Equal(t, 90, out.MaxAgeDays)
	assert.Equal(t, 1, env.learning.ForUser(annaID).Statistics(ctx).TotalAdjustments)
}
