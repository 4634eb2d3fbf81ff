package handlers

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/foxxcyber/fresh-feed/internal/expiry"
	"github.com/foxxcyber/fresh-feed/internal/logging"
	"github.com/foxxcyber/fresh-feed/internal/models"
	"github.com/foxxcyber/fresh-feed/internal/services"
)

const dateLayout = "2006-01-02"

func (h *Handler) learningFor(c *fiber.Ctx) (*expiry.Service, error) {
	userID, err := getUserID(c)
	if err != nil {
		return nil, err
	}
	return h.learning.ForUser(userID), nil
}

func parseDate(s string) (time.Time, error) {
	return time.ParseInLocation(dateLayout, s, time.UTC)
}

// EstimateExpiry returns a smart expiry estimate for a product
func (h *Handler) EstimateExpiry(c *fiber.Ctx) error {
	svc, err := h.learningFor(c)
	if err != nil {
		return Error(c, fiber.StatusUnauthorized, err.Error())
	}

	var req models.EstimateRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	var purchaseDate *time.Time
	if req.PurchaseDate != "" {
		d, err := parseDate(req.PurchaseDate)
		if err != nil {
			return Error(c, fiber.StatusBadRequest, "invalid purchase_date")
		}
		purchaseDate = &d
	}

	return Success(c, svc.CalculateSmartExpiryDate(c.Context(), req.ProductName, req.ProductInfo, purchaseDate))
}

// EstimateBaseDays returns the shelf life before any learning is applied
func (h *Handler) EstimateBaseDays(c *fiber.Ctx) error {
	var req models.EstimateRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	return Success(c, expiry.EstimateBaseDays(req.ProductName, req.ProductInfo))
}

// ClassifyProduct maps a product name (and optional category hint) to a
// category
func (h *Handler) ClassifyProduct(c *fiber.Ctx) error {
	name := c.Query("name")
	if name == "" {
		return Error(c, fiber.StatusBadRequest, "name is required")
	}

	var info *models.ProductInfo
	if hint := c.Query("category"); hint != "" {
		info = &models.ProductInfo{Category: hint}
	}

	category := expiry.Classify(name, info)
	days, hasDefault := expiry.CategoryDefaultDays(category)

	return Success(c, fiber.Map{
		"category":     category,
		"default_days": days,
		"has_default":  hasDefault,
	})
}

// RecordAdjustment stores a user's correction of a suggested expiry date
func (h *Handler) RecordAdjustment(c *fiber.Ctx) error {
	svc, err := h.learningFor(c)
	if err != nil {
		return Error(c, fiber.StatusUnauthorized, err.Error())
	}

	var req models.RecordAdjustmentRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	original, err := parseDate(req.OriginalDate)
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid original_date")
	}
	adjusted, err := parseDate(req.NewDate)
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid new_date")
	}

	svc.RecordAdjustment(c.Context(), req.ProductName, original, adjusted, req.Category, req.Reason)

	return Created(c, fiber.Map{
		"product_name":    req.ProductName,
		"category":        models.ParseCategory(req.Category),
		"days_difference": expiry.DaysBetween(original, adjusted),
	})
}

// GetLearningStatistics summarises what has been learned for the user
func (h *Handler) GetLearningStatistics(c *fiber.Ctx) error {
	svc, err := h.learningFor(c)
	if err != nil {
		return Error(c, fiber.StatusUnauthorized, err.Error())
	}

	return Success(c, svc.Statistics(c.Context()))
}

// CleanupLearning prunes learning entries older than max_age_days
func (h *Handler) CleanupLearning(c *fiber.Ctx) error {
	svc, err := h.learningFor(c)
	if err != nil {
		return Error(c, fiber.StatusUnauthorized, err.Error())
	}

	var req models.CleanupRequest
	if len(c.Body()) > 0 {
		if ok, err := parseBody(c, &req); !ok {
			return err
		}
	}

	svc.Cleanup(c.Context(), req.MaxAgeDays)
	return Success(c, svc.Statistics(c.Context()))
}

// ResetLearning deletes everything learned for the user
func (h *Handler) ResetLearning(c *fiber.Ctx) error {
	svc, err := h.learningFor(c)
	if err != nil {
		return Error(c, fiber.StatusUnauthorized, err.Error())
	}

	svc.Reset(c.Context())
	return c.SendStatus(fiber.StatusNoContent)
}

// ExportLearning downloads the user's learning store
func (h *Handler) ExportLearning(c *fiber.Ctx) error {
	svc, err := h.learningFor(c)
	if err != nil {
		return Error(c, fiber.StatusUnauthorized, err.Error())
	}

	export, err := svc.ExportData(c.Context())
	if err != nil {
		logging.Error().Err(err).Msg("export learning store")
		return Error(c, fiber.StatusInternalServerError, "failed to export learning data")
	}

	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="expiry-learning-%s.json"`, h.now().UTC().Format(dateLayout)))
	c.Type("json")
	return c.SendString(export)
}

// ImportLearning replaces the user's learning store with an uploaded export
func (h *Handler) ImportLearning(c *fiber.Ctx) error {
	svc, err := h.learningFor(c)
	if err != nil {
		return Error(c, fiber.StatusUnauthorized, err.Error())
	}

	if !svc.ImportData(c.Context(), string(c.Body())) {
		return Error(c, fiber.StatusBadRequest, "invalid learning data")
	}
	return Success(c, svc.Statistics(c.Context()))
}

// ListLearningBackups lists the user's uploaded exports
func (h *Handler) ListLearningBackups(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return Error(c, fiber.StatusUnauthorized, err.Error())
	}
	if h.backups == nil {
		return Error(c, fiber.StatusServiceUnavailable, "backup storage is not configured")
	}

	backups, err := h.backups.List(c.Context(), userID)
	if err != nil {
		logging.Error().Err(err).Int("user_id", userID).Msg("list learning backups")
		return Error(c, fiber.StatusBadGateway, "failed to list backups")
	}
	return Success(c, backups)
}

// CreateLearningBackup uploads the current learning store to object storage
func (h *Handler) CreateLearningBackup(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return Error(c, fiber.StatusUnauthorized, err.Error())
	}
	if h.backups == nil {
		return Error(c, fiber.StatusServiceUnavailable, "backup storage is not configured")
	}

	export, err := h.learning.ForUser(userID).ExportData(c.Context())
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to export learning data")
	}

	backup, err := h.backups.Create(c.Context(), userID, export)
	if err != nil {
		logging.Error().Err(err).Int("user_id", userID).Msg("create learning backup")
		return Error(c, fiber.StatusBadGateway, "failed to store backup")
	}
	return Created(c, backup)
}

// RestoreLearningBackup imports one of the user's backups
func (h *Handler) RestoreLearningBackup(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return Error(c, fiber.StatusUnauthorized, err.Error())
	}
	if h.backups == nil {
		return Error(c, fiber.StatusServiceUnavailable, "backup storage is not configured")
	}

	var req models.RestoreBackupRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	export, err := h.backups.Read(c.Context(), userID, req.Key)
	switch {
	case errors.Is(err, services.ErrBackupNotOwned):
		return Error(c, fiber.StatusForbidden, "backup belongs to another user")
	case errors.Is(err, services.ErrBackupNotFound):
		return Error(c, fiber.StatusNotFound, "backup not found")
	case err != nil:
		logging.Error().Err(err).Int("user_id", userID).Msg("read learning backup")
		return Error(c, fiber.StatusBadGateway, "failed to read backup")
	}

	svc := h.learning.ForUser(userID)
	if !svc.ImportData(c.Context(), export) {
		return Error(c, fiber.StatusUnprocessableEntity, "backup does not contain valid learning data")
	}
	return Success(c, svc.Statistics(c.Context()))
}

// CleanupAllLearning sweeps every persisted learning store (admin only)
func (h *Handler) CleanupAllLearning(c *fiber.Ctx) error {
	var req models.CleanupRequest
	if len(c.Body()) > 0 {
		if ok, err := parseBody(c, &req); !ok {
			return err
		}
	}
	if req.MaxAgeDays == 0 {
		req.MaxAgeDays = h.cfg.LearningMaxAgeDays
	}

	visited, err := h.learning.CleanupAll(c.Context(), req.MaxAgeDays)
	if err != nil {
		logging.Error().Err(err).Msg("cleanup all learning stores")
		return Error(c, fiber.StatusInternalServerError, "failed to clean up learning stores")
	}
	return Success(c, fiber.Map{
		"stores":       visited,
		"max_age_days": req.MaxAgeDays,
	})
}
