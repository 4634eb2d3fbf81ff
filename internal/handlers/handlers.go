package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/foxxcyber/fresh-feed/internal/config"
	"github.com/foxxcyber/fresh-feed/internal/database"
	"github.com/foxxcyber/fresh-feed/internal/expiry"
	"github.com/foxxcyber/fresh-feed/internal/logging"
	"github.com/foxxcyber/fresh-feed/internal/models"
	"github.com/foxxcyber/fresh-feed/internal/validation"
)

// UserStore is the user persistence the handlers need
type UserStore interface {
	CreateUser(ctx context.Context, email, passwordHash string, username *string) (*models.User, error)
	GetUserByID(ctx context.Context, id int) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, id int, req *models.UpdateUserRequest) (*models.User, error)
	UpdateUserLastLogin(ctx context.Context, id int) error
	UpdateUserPassword(ctx context.Context, id int, newPasswordHash string) error
	DeleteUser(ctx context.Context, id int) error
	ListUsers(ctx context.Context, limit, offset int) ([]*models.User, int, error)
	SetUserRole(ctx context.Context, id int, role models.Role) (*models.User, error)
}

// InventoryStore is the pantry persistence the handlers need
type InventoryStore interface {
	ListInventoryItems(ctx context.Context, params *models.InventoryListParams) ([]*models.InventoryItemWithStatus, int, error)
	GetInventoryItemByID(ctx context.Context, id int, userID int) (*models.InventoryItemWithStatus, error)
	CreateInventoryItem(ctx context.Context, item *models.InventoryItem) (*models.InventoryItem, error)
	UpdateInventoryItem(ctx context.Context, id int, userID int, req *models.UpdateInventoryItemRequest) (*models.InventoryItem, error)
	DeleteInventoryItem(ctx context.Context, id int, userID int) error
	AdjustInventoryQuantity(ctx context.Context, id int, userID int, adjustment float64) (*models.InventoryItem, error)
	GetInventorySummary(ctx context.Context, userID int) (*models.InventorySummary, error)
	GetExpiringItems(ctx context.Context, userID int, daysAhead int) ([]*models.InventoryItemWithStatus, error)
	GetInventoryLocations(ctx context.Context, userID int) ([]string, error)
}

// BackupStore keeps learning store exports in object storage
type BackupStore interface {
	Create(ctx context.Context, userID int, export string) (*models.LearningBackup, error)
	List(ctx context.Context, userID int) ([]models.LearningBackup, error)
	Read(ctx context.Context, userID int, key string) (string, error)
}

var (
	_ UserStore      = (*database.DB)(nil)
	_ InventoryStore = (*database.DB)(nil)
)

// Handler holds all handler dependencies
type Handler struct {
	cfg       *config.Config
	users     UserStore
	inventory InventoryStore
	learning  *expiry.Registry
	backups   BackupStore
	now       func() time.Time
}

// New creates a new Handler instance. backups may be nil when object storage
// is not configured.
func New(cfg *config.Config, users UserStore, inventory InventoryStore, learning *expiry.Registry, backups BackupStore) *Handler {
	return &Handler{
		cfg:       cfg,
		users:     users,
		inventory: inventory,
		learning:  learning,
		backups:   backups,
		now:       time.Now,
	}
}

// ErrorHandler is a custom error handler for Fiber
func ErrorHandler(c *fiber.Ctx, err error) error {
	// Default to 500
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	// Check if it's a Fiber error
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		message = e.Message
	} else {
		logging.Error().Err(err).Str("path", c.Path()).Msg("unhandled error")
	}

	return c.Status(code).JSON(APIResponse{
		Success: false,
		Error:   message,
	})
}

// APIResponse is a standard API response structure
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Details interface{} `json:"details,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

// Meta contains pagination metadata
type Meta struct {
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// Success returns a successful response
func Success(c *fiber.Ctx, data interface{}) error {
	return c.JSON(APIResponse{
		Success: true,
		Data:    data,
	})
}

// Created returns a 201 with data
func Created(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(APIResponse{
		Success: true,
		Data:    data,
	})
}

// SuccessWithMeta returns a successful response with pagination
func SuccessWithMeta(c *fiber.Ctx, data interface{}, total, limit, offset int) error {
	return c.JSON(APIResponse{
		Success: true,
		Data:    data,
		Meta: &Meta{
			Total:  total,
			Limit:  limit,
			Offset: offset,
		},
	})
}

// Error returns an error response
func Error(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(APIResponse{
		Success: false,
		Error:   message,
	})
}

// ValidationError returns a 400 listing every failed field
func ValidationError(c *fiber.Ctx, verr *validation.RequestValidationError) error {
	return c.Status(fiber.StatusBadRequest).JSON(APIResponse{
		Success: false,
		Error:   verr.Error(),
		Details: verr.Fields,
	})
}

// parseBody decodes and validates a request body. On failure the response
// has already been written and ok is false.
func parseBody(c *fiber.Ctx, out interface{}) (ok bool, err error) {
	if err := c.BodyParser(out); err != nil {
		return false, Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if verr := validation.ValidateStruct(out); verr != nil {
		return false, ValidationError(c, verr)
	}
	return true, nil
}

func getUserID(c *fiber.Ctx) (int, error) {
	userID, ok := c.Locals("user_id").(int)
	if !ok || userID == 0 {
		return 0, errors.New("user not authenticated")
	}
	return userID, nil
}
