package moderation

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/maimang/backend/internal/database"
	"github.com/maimang/backend/internal/models"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed opening in-memory sqlite database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed getting sql.DB from gorm: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed automigrating models: %v", err)
	}

	return db
}

func createReviewer(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()

	user := &models.User{
		Name:         "Reviewer",
		Email:        "reviewer@example.com",
		PasswordHash: "irrelevant",
		Role:         models.UserRoleReviewer,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed creating reviewer: %v", err)
	}
	return user
}

func createAuthor(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()

	user := &models.User{
		Name:         "Author",
		Email:        "author@example.com",
		PasswordHash: "irrelevant",
		Role:         models.UserRoleMember,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed creating author: %v", err)
	}
	return user
}

func createWork(t *testing.T, db *gorm.DB, authorID uint, status models.WorkStatus) *models.Work {
	t.Helper()

	work := &models.Work{
		Title:    "Test Work",
		Type:     models.WorkTypePoetry,
		Content:  "content",
		Status:   status,
		AuthorID: authorID,
	}
	if err := db.Create(work).Error; err != nil {
		t.Fatalf("failed creating work: %v", err)
	}
	return work
}

func createComment(t *testing.T, db *gorm.DB, authorID, workID uint, status models.CommentStatus) *models.Comment {
	t.Helper()

	comment := &models.Comment{
		Content:  "a comment",
		Status:   status,
		AuthorID: authorID,
		WorkID:   workID,
	}
	if err := db.Create(comment).Error; err != nil {
		t.Fatalf("failed creating comment: %v", err)
	}
	return comment
}

func ledgerEntries(t *testing.T, db *gorm.DB, entityType EntityType, entityID uint) []models.ModerationLedgerEntry {
	t.Helper()

	var entries []models.ModerationLedgerEntry
	err := db.Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at ASC, id ASC").
		Find(&entries).Error
	if err != nil {
		t.Fatalf("failed loading ledger entries: %v", err)
	}
	return entries
}
