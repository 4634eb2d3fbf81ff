package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/foxxcyber/fresh-feed/internal/database"
	"github.com/foxxcyber/fresh-feed/internal/middleware"
	"github.com/foxxcyber/fresh-feed/internal/models"
)

// AdminListUsers returns a paginated list of all users
func (h *Handler) AdminListUsers(c *fiber.Ctx) error {
	// Parse pagination params
	limit := c.QueryInt("limit", 20)
	offset := c.QueryInt("offset", 0)

	// Validate limits
	if limit < 1 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	users, total, err := h.users.ListUsers(c.Context(), limit, offset)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to list users")
	}

	return SuccessWithMeta(c, users, total, limit, offset)
}

// AdminGetUser returns a user together with what has been learned for them
func (h *Handler) AdminGetUser(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid user id")
	}

	user, err := h.users.GetUserByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			return Error(c, fiber.StatusNotFound, "user not found")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to get user")
	}

	return Success(c, fiber.Map{
		"user":     user,
		"learning": h.learning.ForUser(id).Statistics(c.Context()),
	})
}

// AdminUpdateUser changes a user's role
func (h *Handler) AdminUpdateUser(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid user id")
	}

	var req models.AdminUpdateUserRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	if id == middleware.GetUserID(c) && req.Role != models.RoleAdmin {
		return Error(c, fiber.StatusBadRequest, "cannot remove your own admin role")
	}

	user, err := h.users.SetUserRole(c.Context(), id, req.Role)
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			return Error(c, fiber.StatusNotFound, "user not found")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to update user")
	}

	return Success(c, user)
}

// AdminDeleteUser deletes a user and their learning store
func (h *Handler) AdminDeleteUser(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid user id")
	}

	if id == middleware.GetUserID(c) {
		return Error(c, fiber.StatusBadRequest, "cannot delete your own account here")
	}

	if err := h.users.DeleteUser(c.Context(), id); err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			return Error(c, fiber.StatusNotFound, "user not found")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to delete user")
	}

	h.learning.ForUser(id).Reset(c.Context())
	h.learning.Forget(id)

	return c.JSON(fiber.Map{
		"message": "user deleted successfully",
	})
}
