package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/maimang/backend/internal/middleware"
	"github.com/maimang/backend/internal/models"
	"github.com/maimang/backend/internal/moderation"
	"github.com/maimang/backend/pkg/logger"
	"github.com/maimang/backend/pkg/utils"
	"gorm.io/gorm"
)

type ActivitiesHandler struct {
	DB     *gorm.DB
	Engine *moderation.Engine
	Ledger *moderation.Ledger
}

func NewActivitiesHandler(db *gorm.DB, engine *moderation.Engine, ledger *moderation.Ledger) *ActivitiesHandler {
	return &ActivitiesHandler{DB: db, Engine: engine, Ledger: ledger}
}

func (h *ActivitiesHandler) List(c *fiber.Ctx) error {
	p := utils.ParsePagination(c)

	query := h.DB.Model(&models.Activity{})
	if status := strings.TrimSpace(c.Query("status")); status != "" {
		query = query.Where("status = ?", status)
	}
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		value := applySearch(search)
		query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", value, value)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed counting activities")
	}

	var activities []models.Activity
	if err := utils.ApplyPagination(query.Order("date DESC"), p).Find(&activities).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing activities")
	}

	return utils.Paginated(c, activities, p.Page, p.PerPage, total)
}

func (h *ActivitiesHandler) Get(c *fiber.Ctx) error {
	activityID, err := parseID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid activity id")
	}

	var activity models.Activity
	if err := h.DB.First(&activity, activityID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "activity not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed fetching activity")
	}
	return utils.Success(c, fiber.StatusOK, activity)
}

type activityRequest struct {
	Title           string `json:"title" validate:"required,min=1,max=200"`
	Description     string `json:"description" validate:"omitempty,max=2000"`
	Date            string `json:"date" validate:"required,datetime=2006-01-02"`
	Time            string `json:"time" validate:"omitempty,max=50"`
	Location        string `json:"location" validate:"omitempty,max=200"`
	Instructor      string `json:"instructor" validate:"omitempty,max=100"`
	MaxParticipants int    `json:"maxParticipants" validate:"omitempty,min=0"`
}

func (h *ActivitiesHandler) Create(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req activityRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := utils.ValidateStruct(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, err.Error())
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid date")
	}

	activity := models.Activity{
		Title:           req.Title,
		Description:     req.Description,
		Date:            date,
		Time:            req.Time,
		Location:        req.Location,
		Instructor:      req.Instructor,
		Status:          models.ActivityUpcoming,
		MaxParticipants: req.MaxParticipants,
	}
	if err := h.DB.Create(&activity).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed creating activity")
	}

	logger.InfoWithUser(itoa(currentUser.ID), "activity_created", map[string]interface{}{
		"activity_id": activity.ID,
	})
	return utils.Success(c, fiber.StatusCreated, activity)
}

// Update edits descriptive fields only. Status changes go through
// UpdateStatus so every lifecycle move lands in the ledger.
func (h *ActivitiesHandler) Update(c *fiber.Ctx) error {
	activityID, err := parseID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid activity id")
	}

	var req activityRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := utils.ValidateStruct(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, err.Error())
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid date")
	}

	var activity models.Activity
	if err := h.DB.First(&activity, activityID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "activity not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed fetching activity")
	}

	updates := map[string]interface{}{
		"title":            req.Title,
		"description":      req.Description,
		"date":             date,
		"time":             req.Time,
		"location":         req.Location,
		"instructor":       req.Instructor,
		"max_participants": req.MaxParticipants,
	}
	if err := h.DB.Model(&activity).Updates(updates).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed updating activity")
	}

	h.DB.First(&activity, activityID)
	return utils.Success(c, fiber.StatusOK, activity)
}

type activityStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=upcoming ongoing completed cancelled"`
	Note   string `json:"note,omitempty" validate:"omitempty,max=1000"`
}

func (h *ActivitiesHandler) UpdateStatus(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	activityID, err := parseID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid activity id")
	}

	var req activityStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := utils.ValidateStruct(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, err.Error())
	}

	activity, err := h.Engine.TransitionActivity(c.UserContext(), activityID, models.ActivityStatus(req.Status), currentUser.ID, req.Note)
	if err != nil {
		return moderationError(c, err)
	}

	logger.InfoWithUser(itoa(currentUser.ID), "activity_status_changed", map[string]interface{}{
		"activity_id": activityID,
		"status":      req.Status,
	})
	return utils.Success(c, fiber.StatusOK, activity)
}

func (h *ActivitiesHandler) History(c *fiber.Ctx) error {
	activityID, err := parseID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid activity id")
	}

	entries, err := h.Ledger.History(c.UserContext(), moderation.EntityActivity, activityID)
	if err != nil {
		return moderationError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, entries)
}
