package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/foxxcyber/fresh-feed/internal/models"
)

var (
	ErrInventoryItemNotFound = errors.New("inventory item not found")
	ErrNotInventoryOwner     = errors.New("not the owner of this inventory item")
)

const inventoryColumns = `
	ii.id, ii.user_id, ii.name, ii.brand,
	ii.quantity, ii.unit, ii.category,
	ii.purchase_date, ii.expiration_date,
	ii.suggested_expiration, ii.expiry_confidence, ii.expiry_method,
	ii.location, ii.notes,
	ii.created_at, ii.updated_at`

const inventoryStatusColumns = inventoryColumns + `,
	CASE
		WHEN ii.expiration_date IS NOT NULL AND ii.expiration_date < CURRENT_DATE THEN true
		ELSE false
	END as is_expired,
	CASE
		WHEN ii.expiration_date IS NOT NULL
			AND ii.expiration_date >= CURRENT_DATE
			AND ii.expiration_date <= CURRENT_DATE + INTERVAL '7 days' THEN true
		ELSE false
	END as expires_soon,
	CASE
		WHEN ii.expiration_date IS NOT NULL THEN (ii.expiration_date - CURRENT_DATE)::int
		ELSE NULL
	END as days_until_expiry`

func inventoryFields(item *models.InventoryItem) []any {
	return []any{
		&item.ID, &item.UserID, &item.Name, &item.Brand,
		&item.Quantity, &item.Unit, &item.Category,
		&item.PurchaseDate, &item.ExpirationDate,
		&item.SuggestedExpiration, &item.ExpiryConfidence, &item.ExpiryMethod,
		&item.Location, &item.Notes,
		&item.CreatedAt, &item.UpdatedAt,
	}
}

func scanInventoryItem(row pgx.Row) (*models.InventoryItem, error) {
	item := &models.InventoryItem{}
	if err := row.Scan(inventoryFields(item)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInventoryItemNotFound
		}
		return nil, err
	}
	return item, nil
}

func scanInventoryStatus(row pgx.Row) (*models.InventoryItemWithStatus, error) {
	item := &models.InventoryItemWithStatus{}
	fields := append(inventoryFields(&item.InventoryItem), &item.IsExpired, &item.ExpiresSoon, &item.DaysUntilExpiry)
	if err := row.Scan(fields...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInventoryItemNotFound
		}
		return nil, err
	}
	return item, nil
}

// ListInventoryItems returns paginated inventory for a user
func (db *DB) ListInventoryItems(ctx context.Context, params *models.InventoryListParams) ([]*models.InventoryItemWithStatus, int, error) {
	// Build where clauses
	whereClauses := []string{"ii.user_id = $1"}
	args := []interface{}{params.UserID}
	argCount := 1

	if params.Location != "" {
		argCount++
		whereClauses = append(whereClauses, fmt.Sprintf("ii.location = $%d", argCount))
		args = append(args, params.Location)
	}

	if params.Search != "" {
		argCount++
		searchPattern := "%" + strings.ToLower(params.Search) + "%"
		whereClauses = append(whereClauses, fmt.Sprintf("(LOWER(ii.name) LIKE $%d OR LOWER(COALESCE(ii.brand, '')) LIKE $%d)", argCount, argCount))
		args = append(args, searchPattern)
	}

	if params.Category != "" {
		argCount++
		whereClauses = append(whereClauses, fmt.Sprintf("ii.category = $%d", argCount))
		args = append(args, string(params.Category))
	}

	if params.Expired != nil && *params.Expired {
		whereClauses = append(whereClauses, "ii.expiration_date IS NOT NULL AND ii.expiration_date < CURRENT_DATE")
	}

	if params.ExpiringSoon != nil && *params.ExpiringSoon {
		whereClauses = append(whereClauses, "ii.expiration_date IS NOT NULL AND ii.expiration_date >= CURRENT_DATE AND ii.expiration_date <= CURRENT_DATE + INTERVAL '7 days'")
	}

	whereClause := strings.Join(whereClauses, " AND ")

	// Determine sort order
	sortColumn := "ii.updated_at"
	sortOrder := "DESC"
	switch params.SortBy {
	case "name":
		sortColumn = "ii.name"
	case "expiration":
		sortColumn = "ii.expiration_date"
	case "quantity":
		sortColumn = "ii.quantity"
	case "updated":
		sortColumn = "ii.updated_at"
	}
	if params.SortOrder == "asc" {
		sortOrder = "ASC"
	}

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM inventory_items ii WHERE %s`, whereClause)
	if err := db.Pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	argCount++
	limitArg := argCount
	argCount++
	offsetArg := argCount
	args = append(args, params.Limit, params.Offset)

	query := fmt.Sprintf(`
		SELECT %s
		FROM inventory_items ii
		WHERE %s
		ORDER BY %s %s NULLS LAST
		LIMIT $%d OFFSET $%d
	`, inventoryStatusColumns, whereClause, sortColumn, sortOrder, limitArg, offsetArg)

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := []*models.InventoryItemWithStatus{}
	for rows.Next() {
		item, err := scanInventoryStatus(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, item)
	}

	return items, total, rows.Err()
}

// GetInventoryItemByID retrieves a single inventory item
func (db *DB) GetInventoryItemByID(ctx context.Context, id int, userID int) (*models.InventoryItemWithStatus, error) {
	item, err := scanInventoryStatus(db.Pool.QueryRow(ctx, `
		SELECT `+inventoryStatusColumns+`
		FROM inventory_items ii
		WHERE ii.id = $1
	`, id))
	if err != nil {
		return nil, err
	}

	// Check ownership
	if item.UserID != userID {
		return nil, ErrNotInventoryOwner
	}

	return item, nil
}

// CreateInventoryItem adds a new item to a user's inventory. The caller
// fills in category and the suggested expiry.
func (db *DB) CreateInventoryItem(ctx context.Context, item *models.InventoryItem) (*models.InventoryItem, error) {
	return scanInventoryItem(db.Pool.QueryRow(ctx, `
		INSERT INTO inventory_items AS ii (
			user_id, name, brand,
			quantity, unit, category,
			purchase_date, expiration_date,
			suggested_expiration, expiry_confidence, expiry_method,
			location, notes,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), NOW()
		)
		RETURNING `+inventoryColumns,
		item.UserID, item.Name, item.Brand,
		item.Quantity, item.Unit, string(item.Category),
		item.PurchaseDate, item.ExpirationDate,
		item.SuggestedExpiration, item.ExpiryConfidence, item.ExpiryMethod,
		item.Location, item.Notes,
	))
}

// UpdateInventoryItem updates an inventory item
func (db *DB) UpdateInventoryItem(ctx context.Context, id int, userID int, req *models.UpdateInventoryItemRequest) (*models.InventoryItem, error) {
	if err := db.checkInventoryOwner(ctx, id, userID); err != nil {
		return nil, err
	}

	return scanInventoryItem(db.Pool.QueryRow(ctx, `
		UPDATE inventory_items ii
		SET
			name = COALESCE($3, name),
			brand = COALESCE($4, brand),
			quantity = COALESCE($5, quantity),
			unit = COALESCE($6, unit),
			purchase_date = COALESCE($7, purchase_date),
			expiration_date = COALESCE($8, expiration_date),
			location = COALESCE($9, location),
			notes = COALESCE($10, notes),
			updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING `+inventoryColumns,
		id, userID,
		req.Name, req.Brand,
		req.Quantity, req.Unit,
		req.PurchaseDate, req.ExpirationDate,
		req.Location, req.Notes,
	))
}

func (db *DB) checkInventoryOwner(ctx context.Context, id int, userID int) error {
	var ownerID int
	err := db.Pool.QueryRow(ctx, `SELECT user_id FROM inventory_items WHERE id = $1`, id).Scan(&ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrInventoryItemNotFound
		}
		return err
	}
	if ownerID != userID {
		return ErrNotInventoryOwner
	}
	return nil
}

// DeleteInventoryItem removes an item from inventory
func (db *DB) DeleteInventoryItem(ctx context.Context, id int, userID int) error {
	result, err := db.Pool.Exec(ctx, `
		DELETE FROM inventory_items WHERE id = $1 AND user_id = $2
	`, id, userID)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return ErrInventoryItemNotFound
	}

	return nil
}

// AdjustInventoryQuantity adds or subtracts from current quantity
func (db *DB) AdjustInventoryQuantity(ctx context.Context, id int, userID int, adjustment float64) (*models.InventoryItem, error) {
	if err := db.checkInventoryOwner(ctx, id, userID); err != nil {
		return nil, err
	}

	return scanInventoryItem(db.Pool.QueryRow(ctx, `
		UPDATE inventory_items ii
		SET quantity = GREATEST(0, quantity + $3), updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING `+inventoryColumns,
		id, userID, adjustment,
	))
}

// GetInventorySummary returns aggregate stats for user's inventory
func (db *DB) GetInventorySummary(ctx context.Context, userID int) (*models.InventorySummary, error) {
	summary := &models.InventorySummary{}

	err := db.Pool.QueryRow(ctx, `
		SELECT
			COUNT(*) as total_items,
			COUNT(*) FILTER (WHERE expiration_date IS NOT NULL AND expiration_date < CURRENT_DATE) as expired_count,
			COUNT(*) FILTER (WHERE expiration_date IS NOT NULL AND expiration_date >= CURRENT_DATE AND expiration_date <= CURRENT_DATE + INTERVAL '7 days') as expiring_soon_count
		FROM inventory_items
		WHERE user_id = $1
	`, userID).Scan(&summary.TotalItems, &summary.ExpiredCount, &summary.ExpiringSoonCount)
	if err != nil {
		return nil, err
	}

	locations, err := db.GetInventoryLocations(ctx, userID)
	if err != nil {
		return nil, err
	}
	summary.UniqueLocations = append([]string{}, locations...)

	return summary, nil
}

// GetExpiringItems returns items expiring within daysAhead days, soonest first
func (db *DB) GetExpiringItems(ctx context.Context, userID int, daysAhead int) ([]*models.InventoryItemWithStatus, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT `+inventoryStatusColumns+`
		FROM inventory_items ii
		WHERE ii.user_id = $1
			AND ii.expiration_date IS NOT NULL
			AND ii.expiration_date <= CURRENT_DATE + make_interval(days => $2)
		ORDER BY ii.expiration_date ASC
	`, userID, daysAhead)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []*models.InventoryItemWithStatus{}
	for rows.Next() {
		item, err := scanInventoryStatus(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

// GetInventoryLocations returns unique locations for a user's inventory
func (db *DB) GetInventoryLocations(ctx context.Context, userID int) ([]string, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT DISTINCT location
		FROM inventory_items
		WHERE user_id = $1 AND location IS NOT NULL AND location != ''
		ORDER BY location
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var locations []string
	for rows.Next() {
		var location string
		if err := rows.Scan(&location); err != nil {
			return nil, err
		}
		locations = append(locations, location)
	}

	return locations, rows.Err()
}
