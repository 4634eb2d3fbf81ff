package models

import (
	"time"
)

// InventoryItem is a product in a user's pantry. Expiry dates the user did
// not enter come from the smart expiry calculator.
type InventoryItem struct {
	ID     int     `json:"id"`
	UserID int     `json:"user_id"`
	Name   string  `json:"name"`
	Brand  *string `json:"brand,omitempty"`

	// Inventory tracking
	Quantity float64 `json:"quantity"`
	Unit     *string `json:"unit,omitempty"`

	// Classification used for the expiry estimate
	Category Category `json:"category"`

	// Dates
	PurchaseDate        *time.Time `json:"purchase_date,omitempty"`
	ExpirationDate      *time.Time `json:"expiration_date,omitempty"`
	SuggestedExpiration *time.Time `json:"suggested_expiration,omitempty"`
	ExpiryConfidence    *int       `json:"expiry_confidence,omitempty"`
	ExpiryMethod        *string    `json:"expiry_method,omitempty"`

	// Organization
	Location *string `json:"location,omitempty"`
	Notes    *string `json:"notes,omitempty"`

	// Timestamps
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// InventoryItemWithStatus adds computed expiry flags for display
type InventoryItemWithStatus struct {
	InventoryItem

	IsExpired       bool `json:"is_expired"`
	ExpiresSoon     bool `json:"expires_soon"`
	DaysUntilExpiry *int `json:"days_until_expiry,omitempty"`
}

// InventorySummary provides aggregate stats for the inventory dashboard
type InventorySummary struct {
	TotalItems        int      `json:"total_items"`
	ExpiredCount      int      `json:"expired_count"`
	ExpiringSoonCount int      `json:"expiring_soon_count"`
	UniqueLocations   []string `json:"unique_locations"`
}

// CreateInventoryItemRequest is the request body for adding inventory items
type CreateInventoryItemRequest struct {
	Name           string       `json:"name" validate:"required,max=200"`
	Brand          *string      `json:"brand,omitempty" validate:"omitempty,max=100"`
	Quantity       float64      `json:"quantity" validate:"gte=0"`
	Unit           *string      `json:"unit,omitempty" validate:"omitempty,max=20"`
	Category       string       `json:"category,omitempty" validate:"max=50"`
	ProductInfo    *ProductInfo `json:"product_info,omitempty"`
	PurchaseDate   *time.Time   `json:"purchase_date,omitempty"`
	ExpirationDate *time.Time   `json:"expiration_date,omitempty"`
	Location       *string      `json:"location,omitempty" validate:"omitempty,max=50"`
	Notes          *string      `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

// UpdateInventoryItemRequest is the request body for updating inventory items
type UpdateInventoryItemRequest struct {
	Name           *string    `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Brand          *string    `json:"brand,omitempty" validate:"omitempty,max=100"`
	Quantity       *float64   `json:"quantity,omitempty" validate:"omitempty,gte=0"`
	Unit           *string    `json:"unit,omitempty" validate:"omitempty,max=20"`
	PurchaseDate   *time.Time `json:"purchase_date,omitempty"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty"`
	Location       *string    `json:"location,omitempty" validate:"omitempty,max=50"`
	Notes          *string    `json:"notes,omitempty" validate:"omitempty,max=1000"`

	// Reason is stored with the learned adjustment when the expiry date moves
	Reason string `json:"reason,omitempty" validate:"max=500"`
}

// InventoryListParams contains parameters for listing inventory
type InventoryListParams struct {
	Limit        int
	Offset       int
	UserID       int
	Location     string   // Filter by location
	Search       string   // Search by name
	Category     Category // Filter by category
	Expired      *bool    // Filter for expired items only
	ExpiringSoon *bool    // Filter for items expiring within 7 days
	SortBy       string   // "name", "expiration", "quantity", "updated"
	SortOrder    string   // "asc" or "desc"
}

// AdjustInventoryQuantityRequest for adjusting item quantity
type AdjustInventoryQuantityRequest struct {
	Adjustment float64 `json:"adjustment"`
}
