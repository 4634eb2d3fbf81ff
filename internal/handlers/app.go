package handlers

import (
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/foxxcyber/fresh-feed/internal/config"
	"github.com/foxxcyber/fresh-feed/internal/middleware"
)

// NewApp builds the fiber app with the shared error handler and global
// middleware. Routes are added by (*Handler).Routes.
func NewApp(cfg *config.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "fresh-feed",
		ErrorHandler: ErrorHandler,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
		BodyLimit:    2 * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(middleware.RequestMetrics())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowedOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	return app
}

// Routes registers the API on app
func (h *Handler) Routes(app *fiber.App) {
	authRequired := middleware.AuthRequired(h.cfg)

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	// Auth routes (public)
	auth := api.Group("/auth")
	auth.Post("/register", h.Register)
	auth.Post("/login", h.Login)
	auth.Post("/logout", h.Logout)
	auth.Get("/me", authRequired, h.GetCurrentUser)
	auth.Post("/refresh", authRequired, h.RefreshToken)

	// Current user
	users := api.Group("/users/me", authRequired)
	users.Get("/", h.GetCurrentUser)
	users.Put("/", h.UpdateCurrentUser)
	users.Delete("/", h.DeleteCurrentUser)
	users.Post("/change-password", h.ChangePassword)

	// Inventory routes (authenticated)
	inventory := api.Group("/inventory", authRequired)
	inventory.Get("/", h.ListInventoryItems)
	inventory.Get("/summary", h.GetInventorySummary)
	inventory.Get("/expiring", h.GetExpiringItems)
	inventory.Get("/locations", h.GetInventoryLocations)
	inventory.Get("/:id", h.GetInventoryItem)
	inventory.Post("/", h.CreateInventoryItem)
	inventory.Put("/:id", h.UpdateInventoryItem)
	inventory.Delete("/:id", h.DeleteInventoryItem)
	inventory.Post("/:id/adjust", h.AdjustInventoryQuantity)

	// Expiry estimation and learning. Base days and classification do not
	// touch per-user state, so they stay public.
	expiry := api.Group("/expiry")
	expiry.Post("/base-days", h.EstimateBaseDays)
	expiry.Get("/classify", h.ClassifyProduct)
	expiry.Post("/estimate", authRequired, h.EstimateExpiry)
	expiry.Post("/adjustments", authRequired, h.RecordAdjustment)
	expiry.Get("/statistics", authRequired, h.GetLearningStatistics)
	expiry.Post("/cleanup", authRequired, h.CleanupLearning)

	learning := expiry.Group("/learning", authRequired)
	learning.Delete("/", h.ResetLearning)
	learning.Get("/export", h.ExportLearning)
	learning.Post("/import", h.ImportLearning)
	learning.Get("/backups", h.ListLearningBackups)
	learning.Post("/backups", h.CreateLearningBackup)
	learning.Post("/backups/restore", h.RestoreLearningBackup)

	// Admin routes (admin only)
	admin := api.Group("/admin", authRequired, middleware.AdminRequired())
	admin.Get("/users", h.AdminListUsers)
	admin.Get("/users/:id", h.AdminGetUser)
	admin.Put("/users/:id", h.AdminUpdateUser)
	admin.Delete("/users/:id", h.AdminDeleteUser)
	admin.Post("/expiry/cleanup", h.CleanupAllLearning)
}
