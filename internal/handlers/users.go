package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/maimang/backend/internal/middleware"
	"github.com/maimang/backend/internal/models"
	"github.com/maimang/backend/pkg/utils"
	"gorm.io/gorm"
)

type UsersHandler struct {
	DB *gorm.DB
}

func NewUsersHandler(db *gorm.DB) *UsersHandler {
	return &UsersHandler{DB: db}
}

func (h *UsersHandler) List(c *fiber.Ctx) error {
	p := utils.ParsePagination(c)

	query := h.DB.Model(&models.User{})
	if role := strings.TrimSpace(c.Query("role")); role != "" {
		query = query.Where("role = ?", role)
	}
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		value := applySearch(search)
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", value, value)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed counting users")
	}

	var users []models.User
	if err := utils.ApplyPagination(query.Order("created_at DESC"), p).Find(&users).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing users")
	}

	return utils.Paginated(c, users, p.Page, p.PerPage, total)
}

func (h *UsersHandler) Get(c *fiber.Ctx) error {
	userID, err := parseID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid user id")
	}

	var user models.User
	if err := h.DB.First(&user, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "user not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed fetching user")
	}
	return utils.Success(c, fiber.StatusOK, user)
}

type updateUserRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=member reviewer admin"`
}

// UpdateRole promotes or demotes a user. Admins cannot demote themselves,
// so the system always keeps at least one admin.
func (h *UsersHandler) UpdateRole(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	userID, err := parseID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid user id")
	}

	var req updateUserRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := utils.ValidateStruct(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, err.Error())
	}

	if userID == currentUser.ID && models.UserRole(req.Role) != models.UserRoleAdmin {
		return utils.Error(c, fiber.StatusBadRequest, "cannot change your own admin role")
	}

	var user models.User
	if err := h.DB.First(&user, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "user not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed fetching user")
	}

	if err := h.DB.Model(&user).UpdateColumn("role", req.Role).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed updating role")
	}

	user.Role = models.UserRole(req.Role)
	return utils.Success(c, fiber.StatusOK, user)
}
