package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/maimang/backend/internal/moderation"
	"github.com/maimang/backend/internal/stats"
	"github.com/maimang/backend/pkg/utils"
)

type StatsHandler struct {
	Computer    *stats.Computer
	TrendMonths int
}

func NewStatsHandler(computer *stats.Computer, trendMonths int) *StatsHandler {
	return &StatsHandler{Computer: computer, TrendMonths: trendMonths}
}

func (h *StatsHandler) Dashboard(c *fiber.Ctx) error {
	dashboard, err := h.Computer.Dashboard(c.UserContext())
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed computing dashboard stats")
	}
	return utils.Success(c, fiber.StatusOK, dashboard)
}

func (h *StatsHandler) StatusCounts(c *fiber.Ctx) error {
	entityType := moderation.EntityType(c.Params("entityType"))
	switch entityType {
	case moderation.EntityWork, moderation.EntityComment, moderation.EntityActivity:
	default:
		return utils.Error(c, fiber.StatusBadRequest, "unknown entity type")
	}

	counts, err := h.Computer.StatusCounts(c.UserContext(), entityType)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed computing status counts")
	}
	return utils.Success(c, fiber.StatusOK, counts)
}

func (h *StatsHandler) Monthly(c *fiber.Ctx) error {
	months := c.QueryInt("months", h.TrendMonths)
	if months < 1 || months > 24 {
		months = h.TrendMonths
	}

	buckets, err := h.Computer.MonthlyTrend(c.UserContext(), months)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed computing monthly trend")
	}
	return utils.Success(c, fiber.StatusOK, buckets)
}
