package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/maimang/backend/internal/moderation"
	"github.com/maimang/backend/internal/models"
	"gorm.io/gorm"
)

// Computer derives aggregate counts from current entity state on every
// call. Nothing is cached or incrementally maintained; batch callers
// re-fetch after mutating.
type Computer struct {
	DB *gorm.DB
}

func NewComputer(db *gorm.DB) *Computer {
	return &Computer{DB: db}
}

type StatusCounts struct {
	EntityType string           `json:"entityType"`
	Total      int64            `json:"total"`
	ByStatus   map[string]int64 `json:"byStatus"`
}

type DashboardStats struct {
	TotalUsers        int64   `json:"totalUsers"`
	NewUsersThisMonth int64   `json:"newUsersThisMonth"`
	UserGrowthRate    float64 `json:"userGrowthRate"`

	TotalWorks        int64   `json:"totalWorks"`
	NewWorksThisMonth int64   `json:"newWorksThisMonth"`
	WorkGrowthRate    float64 `json:"workGrowthRate"`
	PendingWorks      int64   `json:"pendingWorks"`

	TotalViews     int64   `json:"totalViews"`
	ViewsThisMonth int64   `json:"viewsThisMonth"`
	ViewGrowthRate float64 `json:"viewGrowthRate"`

	TotalComments     int64   `json:"totalComments"`
	CommentsThisMonth int64   `json:"commentsThisMonth"`
	CommentGrowthRate float64 `json:"commentGrowthRate"`
	PendingComments   int64   `json:"pendingComments"`

	TotalActivities  int64 `json:"totalActivities"`
	ActiveActivities int64 `json:"activeActivities"`
}

type MonthlyBucket struct {
	Month         string `json:"month"`
	NewUsers      int64  `json:"newUsers"`
	NewWorks      int64  `json:"newWorks"`
	NewComments   int64  `json:"newComments"`
	NewActivities int64  `json:"newActivities"`
	TotalViews    int64  `json:"totalViews"`
}

func entityModel(entityType moderation.EntityType) any {
	switch entityType {
	case moderation.EntityWork:
		return &models.Work{}
	case moderation.EntityComment:
		return &models.Comment{}
	case moderation.EntityActivity:
		return &models.Activity{}
	default:
		return nil
	}
}

// StatusCounts maps every status in the type's enum to its count,
// zero-filled so absent statuses still appear.
func (c *Computer) StatusCounts(ctx context.Context, entityType moderation.EntityType) (*StatusCounts, error) {
	model := entityModel(entityType)
	if model == nil {
		return nil, fmt.Errorf("unknown entity type %q", entityType)
	}

	counts := &StatusCounts{
		EntityType: string(entityType),
		ByStatus:   make(map[string]int64),
	}
	for _, status := range moderation.Statuses(entityType) {
		counts.ByStatus[status] = 0
	}

	var rows []struct {
		Status string
		Count  int64
	}
	err := c.DB.WithContext(ctx).Model(model).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		counts.ByStatus[row.Status] = row.Count
		counts.Total += row.Count
	}
	return counts, nil
}

// growthRate is (current-previous)/previous as a percentage, clamped to 0
// when the previous period is empty so callers never see NaN or Inf.
func growthRate(current, previous int64) float64 {
	if previous <= 0 {
		return 0
	}
	return float64(current-previous) / float64(previous) * 100
}

func (c *Computer) Dashboard(ctx context.Context) (*DashboardStats, error) {
	db := c.DB.WithContext(ctx)

	now := time.Now().UTC()
	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	startOfLastMonth := startOfMonth.AddDate(0, -1, 0)

	var stats DashboardStats
	var lastMonth int64

	if err := db.Model(&models.User{}).Count(&stats.TotalUsers).Error; err != nil {
		return nil, err
	}
	db.Model(&models.User{}).Where("created_at >= ?", startOfMonth).Count(&stats.NewUsersThisMonth)
	db.Model(&models.User{}).Where("created_at >= ? AND created_at < ?", startOfLastMonth, startOfMonth).Count(&lastMonth)
	stats.UserGrowthRate = growthRate(stats.NewUsersThisMonth, lastMonth)

	db.Model(&models.Work{}).Count(&stats.TotalWorks)
	db.Model(&models.Work{}).Where("created_at >= ?", startOfMonth).Count(&stats.NewWorksThisMonth)
	db.Model(&models.Work{}).Where("created_at >= ? AND created_at < ?", startOfLastMonth, startOfMonth).Count(&lastMonth)
	stats.WorkGrowthRate = growthRate(stats.NewWorksThisMonth, lastMonth)
	db.Model(&models.Work{}).Where("status = ?", models.WorkPending).Count(&stats.PendingWorks)

	db.Model(&models.Work{}).Select("COALESCE(SUM(views), 0)").Scan(&stats.TotalViews)
	db.Model(&models.Work{}).Where("created_at >= ?", startOfMonth).Select("COALESCE(SUM(views), 0)").Scan(&stats.ViewsThisMonth)
	db.Model(&models.Work{}).Where("created_at >= ? AND created_at < ?", startOfLastMonth, startOfMonth).Select("COALESCE(SUM(views), 0)").Scan(&lastMonth)
	stats.ViewGrowthRate = growthRate(stats.ViewsThisMonth, lastMonth)

	db.Model(&models.Comment{}).Count(&stats.TotalComments)
	db.Model(&models.Comment{}).Where("created_at >= ?", startOfMonth).Count(&stats.CommentsThisMonth)
	db.Model(&models.Comment{}).Where("created_at >= ? AND created_at < ?", startOfLastMonth, startOfMonth).Count(&lastMonth)
	stats.CommentGrowthRate = growthRate(stats.CommentsThisMonth, lastMonth)
	db.Model(&models.Comment{}).Where("status = ?", models.CommentPending).Count(&stats.PendingComments)

	db.Model(&models.Activity{}).Count(&stats.TotalActivities)
	db.Model(&models.Activity{}).
		Where("status IN ?", []models.ActivityStatus{models.ActivityUpcoming, models.ActivityOngoing}).
		Count(&stats.ActiveActivities)

	return &stats, nil
}

// MonthlyTrend buckets creations by month, oldest first.
func (c *Computer) MonthlyTrend(ctx context.Context, months int) ([]MonthlyBucket, error) {
	if months < 1 {
		months = 1
	}

	db := c.DB.WithContext(ctx)
	now := time.Now().UTC()

	buckets := make([]MonthlyBucket, 0, months)
	for i := months - 1; i >= 0; i-- {
		month := now.AddDate(0, -i, 0)
		start := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
		end := start.AddDate(0, 1, 0)

		bucket := MonthlyBucket{Month: start.Format("2006-01")}
		db.Model(&models.User{}).Where("created_at >= ? AND created_at < ?", start, end).Count(&bucket.NewUsers)
		db.Model(&models.Work{}).Where("created_at >= ? AND created_at < ?", start, end).Count(&bucket.NewWorks)
		db.Model(&models.Comment{}).Where("created_at >= ? AND created_at < ?", start, end).Count(&bucket.NewComments)
		db.Model(&models.Activity{}).Where("created_at >= ? AND created_at < ?", start, end).Count(&bucket.NewActivities)
		db.Model(&models.Work{}).Where("created_at >= ? AND created_at < ?", start, end).Select("COALESCE(SUM(views), 0)").Scan(&bucket.TotalViews)

		buckets = append(buckets, bucket)
	}
	return buckets, nil
}
