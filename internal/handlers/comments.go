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

type CommentsHandler struct {
	DB     *gorm.DB
	Engine *moderation.Engine
	Ledger *moderation.Ledger
	Batch  *moderation.BatchCoordinator
}

func NewCommentsHandler(db *gorm.DB, engine *moderation.Engine, ledger *moderation.Ledger, batch *moderation.BatchCoordinator) *CommentsHandler {
	return &CommentsHandler{DB: db, Engine: engine, Ledger: ledger, Batch: batch}
}

func (h *CommentsHandler) List(c *fiber.Ctx) error {
	p := utils.ParsePagination(c)

	query := h.DB.Model(&models.Comment{}).Preload("Author").Preload("Work")
	if status := strings.TrimSpace(c.Query("status")); status != "" {
		query = query.Where("status = ?", status)
	}
	if workID := strings.TrimSpace(c.Query("work_id")); workID != "" {
		id, err := parseID(workID)
		if err != nil {
			return utils.Error(c, fiber.StatusBadRequest, "invalid work_id")
		}
		query = query.Where("work_id = ?", id)
	}
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		query = query.Where("LOWER(content) LIKE ?", applySearch(search))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed counting comments")
	}

	var comments []models.Comment
	if err := utils.ApplyPagination(query.Order("created_at DESC"), p).Find(&comments).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing comments")
	}

	return utils.Paginated(c, comments, p.Page, p.PerPage, total)
}

func (h *CommentsHandler) ListPending(c *fiber.Ctx) error {
	p := utils.ParsePagination(c)

	query := h.DB.Model(&models.Comment{}).Preload("Author").Preload("Work").
		Where("status = ?", models.CommentPending)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed counting pending comments")
	}

	var comments []models.Comment
	if err := utils.ApplyPagination(query.Order("created_at ASC"), p).Find(&comments).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing pending comments")
	}

	return utils.Paginated(c, comments, p.Page, p.PerPage, total)
}

func (h *CommentsHandler) Get(c *fiber.Ctx) error {
	commentID, err := parseID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid comment id")
	}

	var comment models.Comment
	if err := h.DB.Preload("Author").Preload("Work").Preload("Reviewer").First(&comment, commentID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "comment not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed fetching comment")
	}
	return utils.Success(c, fiber.StatusOK, comment)
}

type createCommentRequest struct {
	Content string `json:"content" validate:"required,min=1,max=2000"`
}

// Create posts a comment under a work. New comments always start pending.
func (h *CommentsHandler) Create(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	workID, err := parseID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid work id")
	}

	var req createCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := utils.ValidateStruct(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, err.Error())
	}

	var work models.Work
	if err := h.DB.First(&work, workID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "work not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed fetching work")
	}

	comment := models.Comment{
		Content:  req.Content,
		Status:   models.CommentPending,
		AuthorID: currentUser.ID,
		WorkID:   work.ID,
	}
	if err := h.DB.Create(&comment).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed creating comment")
	}

	h.DB.Preload("Author").First(&comment, comment.ID)
	return utils.Success(c, fiber.StatusCreated, comment)
}

type commentReviewRequest struct {
	Action string `json:"action" validate:"required,oneof=approve reject hide unhide pend"`
	Note   string `json:"note,omitempty" validate:"omitempty,max=1000"`
}

func commentReviewStatus(action string) models.CommentStatus {
	switch action {
	case "approve", "unhide":
		return models.CommentApproved
	case "reject":
		return models.CommentRejected
	case "hide":
		return models.CommentHidden
	default:
		return models.CommentPending
	}
}

func (h *CommentsHandler) Review(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	commentID, err := parseID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid comment id")
	}

	var req commentReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := utils.ValidateStruct(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, err.Error())
	}

	comment, err := h.Engine.TransitionComment(c.UserContext(), commentID, commentReviewStatus(req.Action), currentUser.ID, req.Note)
	if err != nil {
		return moderationError(c, err)
	}

	logger.InfoWithUser(itoa(currentUser.ID), "comment_reviewed", map[string]interface{}{
		"comment_id": commentID,
		"action":     req.Action,
	})
	return utils.Success(c, fiber.StatusOK, comment)
}

func (h *CommentsHandler) AmendReview(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	commentID, err := parseID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid comment id")
	}

	var req amendReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.ReviewNote == nil && req.RejectReason == nil {
		return utils.Error(c, fiber.StatusBadRequest, "no review fields to amend")
	}

	comment, err := h.Engine.AmendCommentReview(c.UserContext(), commentID, currentUser.ID, req.ReviewNote, req.RejectReason)
	if err != nil {
		return moderationError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, comment)
}

type batchCommentReviewRequest struct {
	IDs    []uint `json:"ids" validate:"required,min=1"`
	Action string `json:"action" validate:"required,oneof=approve reject hide unhide pend"`
	Note   string `json:"note,omitempty" validate:"omitempty,max=1000"`
}

func (h *CommentsHandler) BatchReview(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req batchCommentReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := utils.ValidateStruct(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, err.Error())
	}

	toStatus := commentReviewStatus(req.Action)
	result := h.Batch.Apply(c.UserContext(), req.IDs, func(ctx context.Context, id uint) error {
		_, err := h.Engine.TransitionComment(ctx, id, toStatus, currentUser.ID, req.Note)
		return err
	})

	succeeded := result.Succeeded()
	failed := result.Failed()
	logger.InfoWithUser(itoa(currentUser.ID), "comment_batch_reviewed", map[string]interface{}{
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

func (h *CommentsHandler) History(c *fiber.Ctx) error {
	commentID, err := parseID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid comment id")
	}

	entries, err := h.Ledger.History(c.UserContext(), moderation.EntityComment, commentID)
	if err != nil {
		return moderationError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, entries)
}
