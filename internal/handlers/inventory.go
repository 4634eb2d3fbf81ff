package handlers

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/foxxcyber/fresh-feed/internal/database"
	"github.com/foxxcyber/fresh-feed/internal/expiry"
	"github.com/foxxcyber/fresh-feed/internal/logging"
	"github.com/foxxcyber/fresh-feed/internal/models"
)

// inventoryEditReason is stored with adjustments learned from inventory edits
const inventoryEditReason = "inventory edit"

func inventoryError(c *fiber.Ctx, err error, action string) error {
	if errors.Is(err, database.ErrInventoryItemNotFound) {
		return Error(c, fiber.StatusNotFound, "inventory item not found")
	}
	if errors.Is(err, database.ErrNotInventoryOwner) {
		return Error(c, fiber.StatusForbidden, "you do not own this inventory item")
	}
	logging.Error().Err(err).Msg(action)
	return Error(c, fiber.StatusInternalServerError, "failed to "+action)
}

// ListInventoryItems returns all inventory items for the current user
func (h *Handler) ListInventoryItems(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return Error(c, fiber.StatusUnauthorized, err.Error())
	}

	// Parse boolean filters
	var expired, expiringSoon *bool
	if exp := c.Query("expired"); exp != "" {
		v := exp == "true"
		expired = &v
	}
	if es := c.Query("expiring_soon"); es != "" {
		v := es == "true"
		expiringSoon = &v
	}

	params := &models.InventoryListParams{
		Limit:        c.QueryInt("limit", 50),
		Offset:       c.QueryInt("offset", 0),
		UserID:       userID,
		Location:     c.Query("location"),
		Search:       c.Query("search"),
		Expired:      expired,
		ExpiringSoon: expiringSoon,
		SortBy:       c.Query("sort_by", "updated"),
		SortOrder:    c.Query("sort_order", "desc"),
	}
	if category := c.Query("category"); category != "" {
		params.Category = models.ParseCategory(category)
	}

	// Validate limits
	if params.Limit < 1 || params.Limit > 100 {
		params.Limit = 50
	}
	if params.Offset < 0 {
		params.Offset = 0
	}

	items, total, err := h.inventory.ListInventoryItems(c.Context(), params)
	if err != nil {
		return inventoryError(c, err, "list inventory items")
	}

	return SuccessWithMeta(c, items, total, params.Limit, params.Offset)
}

// GetInventoryItem returns a single inventory item
func (h *Handler) GetInventoryItem(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return Error(c, fiber.StatusUnauthorized, err.Error())
	}

	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid inventory item id")
	}

	item, err := h.inventory.GetInventoryItemByID(c.Context(), id, userID)
	if err != nil {
		return inventoryError(c, err, "get inventory item")
	}

	return Success(c, item)
}

// CreateInventoryItem adds an item to the pantry. Without an expiration_date
// the smart expiry estimate fills it in and is kept as the suggestion.
func (h *Handler) CreateInventoryItem(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return Error(c, fiber.StatusUnauthorized, err.Error())
	}

	var req models.CreateInventoryItemRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return Error(c, fiber.StatusBadRequest, "name is required")
	}

	item := &models.InventoryItem{
		UserID:         userID,
		Name:           req.Name,
		Brand:          req.Brand,
		Quantity:       req.Quantity,
		Unit:           req.Unit,
		PurchaseDate:   req.PurchaseDate,
		ExpirationDate: req.ExpirationDate,
		Location:       req.Location,
		Notes:          req.Notes,
	}

	info := req.ProductInfo
	if req.Category != "" {
		item.Category = models.ParseCategory(req.Category)
		if info == nil {
			info = &models.ProductInfo{}
		}
		info.Category = req.Category
	}
	if !item.Category.IsKnown() {
		item.Category = expiry.Classify(req.Name, info)
	}

	if item.ExpirationDate == nil {
		estimate := h.learning.ForUser(userID).CalculateSmartExpiryDate(c.Context(), req.Name, info, req.PurchaseDate)
		if suggested, err := parseDate(estimate.Date); err == nil {
			method := string(estimate.Method)
			item.ExpirationDate = &suggested
			item.SuggestedExpiration = &suggested
			item.ExpiryConfidence = &estimate.Confidence
			item.ExpiryMethod = &method
		}
	}

	created, err := h.inventory.CreateInventoryItem(c.Context(), item)
	if err != nil {
		return inventoryError(c, err, "create inventory item")
	}

	return Created(c, created)
}

// UpdateInventoryItem updates an inventory item. Moving the expiration date
// of an item that carries a suggestion teaches the learner.
func (h *Handler) UpdateInventoryItem(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return Error(c, fiber.StatusUnauthorized, err.Error())
	}

	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid inventory item id")
	}

	var req models.UpdateInventoryItemRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	var before *models.InventoryItemWithStatus
	if req.ExpirationDate != nil {
		before, err = h.inventory.GetInventoryItemByID(c.Context(), id, userID)
		if err != nil {
			return inventoryError(c, err, "update inventory item")
		}
	}

	item, err := h.inventory.UpdateInventoryItem(c.Context(), id, userID, &req)
	if err != nil {
		return inventoryError(c, err, "update inventory item")
	}

	if before != nil && learnsFrom(before.InventoryItem, *req.ExpirationDate) {
		reason := req.Reason
		if reason == "" {
			reason = inventoryEditReason
		}
		h.learning.ForUser(userID).RecordAdjustment(c.Context(), before.Name,
			*before.SuggestedExpiration, *req.ExpirationDate, string(before.Category), reason)
	}

	return Success(c, item)
}

// learnsFrom reports whether moving item's expiry to newDate is a correction
// of a suggestion worth recording
func learnsFrom(item models.InventoryItem, newDate time.Time) bool {
	if item.SuggestedExpiration == nil {
		return false
	}
	if item.ExpirationDate != nil && sameDay(*item.ExpirationDate, newDate) {
		return false
	}
	return !sameDay(*item.SuggestedExpiration, newDate)
}

func sameDay(a, b time.Time) bool {
	return a.UTC().Format(dateLayout) == b.UTC().Format(dateLayout)
}

// DeleteInventoryItem deletes an inventory item
func (h *Handler) DeleteInventoryItem(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return Error(c, fiber.StatusUnauthorized, err.Error())
	}

	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid inventory item id")
	}

	if err := h.inventory.DeleteInventoryItem(c.Context(), id, userID); err != nil {
		return inventoryError(c, err, "delete inventory item")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "inventory item deleted successfully",
	})
}

// AdjustInventoryQuantity adjusts the quantity of an inventory item
func (h *Handler) AdjustInventoryQuantity(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return Error(c, fiber.StatusUnauthorized, err.Error())
	}

	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid inventory item id")
	}

	var req models.AdjustInventoryQuantityRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	item, err := h.inventory.AdjustInventoryQuantity(c.Context(), id, userID, req.Adjustment)
	if err != nil {
		return inventoryError(c, err, "adjust inventory quantity")
	}

	return Success(c, item)
}

// GetInventorySummary returns aggregate stats for user's inventory
func (h *Handler) GetInventorySummary(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return Error(c, fiber.StatusUnauthorized, err.Error())
	}

	summary, err := h.inventory.GetInventorySummary(c.Context(), userID)
	if err != nil {
		return inventoryError(c, err, "get inventory summary")
	}

	return Success(c, summary)
}

// GetExpiringItems returns items expiring within specified days
func (h *Handler) GetExpiringItems(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return Error(c, fiber.StatusUnauthorized, err.Error())
	}

	days := c.QueryInt("days", h.cfg.InventoryExpiryDays)
	if days < 1 {
		days = 7
	}
	if days > 365 {
		days = 365
	}

	items, err := h.inventory.GetExpiringItems(c.Context(), userID, days)
	if err != nil {
		return inventoryError(c, err, "get expiring items")
	}

	return Success(c, items)
}

// GetInventoryLocations returns unique locations for a user's inventory
func (h *Handler) GetInventoryLocations(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return Error(c, fiber.StatusUnauthorized, err.Error())
	}

	locations, err := h.inventory.GetInventoryLocations(c.Context(), userID)
	if err != nil {
		return inventoryError(c, err, "get inventory locations")
	}

	return Success(c, locations)
}
