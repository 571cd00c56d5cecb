package handlers

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/maimang/backend/internal/middleware"
	"github.com/maimang/backend/internal/models"
	"github.com/maimang/backend/internal/moderation"
	"github.com/maimang/backend/pkg/logger"
	"github.com/maimang/backend/pkg/utils"
	"gorm.io/gorm"
)

type WorksHandler struct {
	DB     *gorm.DB
	Engine *moderation.Engine
	Ledger *moderation.Ledger
	Batch  *moderation.BatchCoordinator
}

func NewWorksHandler(db *gorm.DB, engine *moderation.Engine, ledger *moderation.Ledger, batch *moderation.BatchCoordinator) *WorksHandler {
	return &WorksHandler{DB: db, Engine: engine, Ledger: ledger, Batch: batch}
}

func (h *WorksHandler) List(c *fiber.Ctx) error {
	p := utils.ParsePagination(c)

	query := h.DB.Model(&models.Work{}).Preload("Author")
	if status := strings.TrimSpace(c.Query("status")); status != "" {
		query = query.Where("status = ?", status)
	}
	if workType := strings.TrimSpace(c.Query("type")); workType != "" {
		if !models.ValidWorkType(models.WorkType(workType)) {
			return utils.Error(c, fiber.StatusBadRequest, "unknown work type")
		}
		query = query.Where("type = ?", workType)
	}
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		value := applySearch(search)
		query = query.Where("LOWER(title) LIKE ? OR LOWER(content) LIKE ?", value, value)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed counting works")
	}

	var works []models.Work
	if err := utils.ApplyPagination(query.Order("created_at DESC"), p).Find(&works).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing works")
	}

	return utils.Paginated(c, works, p.Page, p.PerPage, total)
}

// ListPending is the review queue: oldest submissions first.
func (h *WorksHandler) ListPending(c *fiber.Ctx) error {
	p := utils.ParsePagination(c)

	query := h.DB.Model(&models.Work{}).Preload("Author").Where("status = ?", models.WorkPending)
	if workType := strings.TrimSpace(c.Query("type")); workType != "" {
		if !models.ValidWorkType(models.WorkType(workType)) {
			return utils.Error(c, fiber.StatusBadRequest, "unknown work type")
		}
		query = query.Where("type = ?", workType)
	}
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		value := applySearch(search)
		query = query.Where("LOWER(title) LIKE ? OR LOWER(content) LIKE ?", value, value)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed counting pending works")
	}

	var works []models.Work
	if err := utils.ApplyPagination(query.Order("created_at ASC"), p).Find(&works).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing pending works")
	}

	return utils.Paginated(c, works, p.Page, p.PerPage, total)
}

func (h *WorksHandler) Get(c *fiber.Ctx) error {
	workID, err := parseID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid work id")
	}

	var work models.Work
	if err := h.DB.Preload("Author").Preload("Reviewer").First(&work, workID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "work not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed fetching work")
	}

	h.DB.Model(&work).UpdateColumn("views", gorm.Expr("views + 1"))
	work.Views++

	return utils.Success(c, fiber.StatusOK, work)
}

type createWorkRequest struct {
	Title   string `json:"title" validate:"required,min=1,max=200"`
	Type    string `json:"type" validate:"required,oneof=poetry prose novel photo"`
	Content string `json:"content" validate:"required"`
}

func (h *WorksHandler) Create(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req createWorkRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := utils.ValidateStruct(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, err.Error())
	}

	work := models.Work{
		Title:    req.Title,
		Type:     models.WorkType(req.Type),
		Content:  req.Content,
		Status:   models.WorkPending,
		AuthorID: currentUser.ID,
	}
	if err := h.DB.Create(&work).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed creating work")
	}

	h.DB.Preload("Author").First(&work, work.ID)
	return utils.Success(c, fiber.StatusCreated, work)
}

func (h *WorksHandler) Like(c *fiber.Ctx) error {
	workID, err := parseID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid work id")
	}

	result := h.DB.Model(&models.Work{}).Where("id = ?", workID).
		UpdateColumn("likes", gorm.Expr("likes + 1"))
	if result.Error != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed liking work")
	}
	if result.RowsAffected == 0 {
		return utils.Error(c, fiber.StatusNotFound, "work not found")
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "work liked"})
}

func (h *WorksHandler) Unlike(c *fiber.Ctx) error {
	workID, err := parseID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid work id")
	}

	// likes floor at zero
	result := h.DB.Model(&models.Work{}).Where("id = ? AND likes > 0", workID).
		UpdateColumn("likes", gorm.Expr("likes - 1"))
	if result.Error != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed unliking work")
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "work unliked"})
}

type workReviewRequest struct {
	Action string `json:"action" validate:"required,oneof=approve reject"`
	Note   string `json:"note,omitempty" validate:"omitempty,max=1000"`
}

func workReviewStatus(action string) models.WorkStatus {
	if action == "approve" {
		return models.WorkApproved
	}
	return models.WorkRejected
}

func (h *WorksHandler) Review(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	workID, err := parseID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid work id")
	}

	var req workReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := utils.ValidateStruct(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, err.Error())
	}

	work, err := h.Engine.TransitionWork(c.UserContext(), workID, workReviewStatus(req.Action), currentUser.ID, req.Note)
	if err != nil {
		return moderationError(c, err)
	}

	logger.InfoWithUser(itoa(currentUser.ID), "work_reviewed", map[string]interface{}{
		"work_id": workID,
		"action":  req.Action,
	})
	return utils.Success(c, fiber.StatusOK, work)
}

type amendReviewRequest struct {
	ReviewNote   *string `json:"reviewNote" validate:"omitempty,max=1000"`
	RejectReason *string `json:"rejectReason" validate:"omitempty,max=1000"`
}

func (h *WorksHandler) AmendReview(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	workID, err := parseID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid work id")
	}

	var req amendReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.ReviewNote == nil && req.RejectReason == nil {
		return utils.Error(c, fiber.StatusBadRequest, "no review fields to amend")
	}

	work, err := h.Engine.AmendWorkReview(c.UserContext(), workID, currentUser.ID, req.ReviewNote, req.RejectReason)
	if err != nil {
		return moderationError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, work)
}

type batchWorkReviewRequest struct {
	IDs    []uint `json:"ids" validate:"required,min=1"`
	Action string `json:"action" validate:"required,oneof=approve reject"`
	Note   string `json:"note,omitempty" validate:"omitempty,max=1000"`
}

func (h *WorksHandler) BatchReview(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req batchWorkReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := utils.ValidateStruct(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, err.Error())
	}

	toStatus := workReviewStatus(req.Action)
	result := h.Batch.Apply(c.UserContext(), req.IDs, func(ctx context.Context, id uint) error {
		_, err := h.Engine.TransitionWork(ctx, id, toStatus, currentUser.ID, req.Note)
		return err
	})

	succeeded := result.Succeeded()
	failed := result.Failed()
	logger.InfoWithUser(itoa(currentUser.ID), "work_batch_reviewed", map[string]interface{}{
		"action":    req.Action,
		"total":     result.Len(),
		"succeeded": len(succeeded),
		"failed":    len(failed),
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"total":     result.Len(),
		"succeeded": succeeded,
		"failed":    failed,
	})
}

func (h *WorksHandler) History(c *fiber.Ctx) error {
	workID, err := parseID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid work id")
	}

	entries, err := h.Ledger.History(c.UserContext(), moderation.EntityWork, workID)
	if err != nil {
		return moderationError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, entries)
}
