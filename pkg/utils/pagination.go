package utils

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

type Pagination struct {
	Page    int
	PerPage int
}

// ParsePagination reads {page, per_page} with clamping: page floors at 1,
// per_page at 1 and caps at 100. Out-of-range pages simply produce empty
// data, never an error.
func ParsePagination(c *fiber.Ctx) Pagination {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}

	perPage := c.QueryInt("per_page", defaultPerPage)
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}

	return Pagination{Page: page, PerPage: perPage}
}

func ApplyPagination(query *gorm.DB, p Pagination) *gorm.DB {
	return query.Offset((p.Page - 1) * p.PerPage).Limit(p.PerPage)
}
