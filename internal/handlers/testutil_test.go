package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/maimang/backend/internal/database"
	"github.com/maimang/backend/internal/middleware"
	"github.com/maimang/backend/internal/models"
	"github.com/maimang/backend/internal/moderation"
	"github.com/maimang/backend/internal/stats"
	"github.com/maimang/backend/pkg/logger"
	"github.com/maimang/backend/pkg/utils"
	"gorm.io/gorm"
)

type testEnv struct {
	app *fiber.App
	db  *gorm.DB
}

var testSetupOnce sync.Once

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	testSetupOnce.Do(func() {
		logger.Init()
		utils.ConfigureJWT("test-secret", 24)
	})

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

	ledger := moderation.NewLedger(db)
	engine := moderation.NewEngine(db, ledger)
	batch := moderation.NewBatchCoordinator(4, 5*time.Second)
	computer := stats.NewComputer(db)

	authHandler := NewAuthHandler(db)
	usersHandler := NewUsersHandler(db)
	worksHandler := NewWorksHandler(db, engine, ledger, batch)
	commentsHandler := NewCommentsHandler(db, engine, ledger, batch)
	activitiesHandler := NewActivitiesHandler(db, engine, ledger)
	statsHandler := NewStatsHandler(computer, 6)
	notificationsHandler := NewNotificationsHandler()

	authMiddleware := middleware.NewAuthMiddleware(db)

	app := fiber.New(fiber.Config{BodyLimit: 10 * 1024 * 1024})
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(middleware.CORS("http://localhost:3000"))
	app.Use(middleware.RequestLogger())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	authRoutes := api.Group("/auth")
	authRoutes.Post("/login", authHandler.Login)
	authRoutes.Get("/me", authMiddleware.RequireAuth, authHandler.Me)

	userRoutes := api.Group("/users", authMiddleware.RequireAuth, middleware.AdminOnly)
	userRoutes.Get("/", usersHandler.List)
	userRoutes.Get("/:id", usersHandler.Get)
	userRoutes.Put("/:id/role", usersHandler.UpdateRole)

	workRoutes := api.Group("/works", authMiddleware.RequireAuth)
	workRoutes.Get("/", worksHandler.List)
	workRoutes.Post("/", worksHandler.Create)
	workRoutes.Get("/pending", middleware.ModeratorOnly, worksHandler.ListPending)
	workRoutes.Post("/batch-review", middleware.ModeratorOnly, worksHandler.BatchReview)
	workRoutes.Get("/:id", worksHandler.Get)
	workRoutes.Post("/:id/like", worksHandler.Like)
	workRoutes.Delete("/:id/like", worksHandler.Unlike)
	workRoutes.Post("/:id/review", middleware.ModeratorOnly, worksHandler.Review)
	workRoutes.Put("/:id/review", middleware.ModeratorOnly, worksHandler.AmendReview)
	workRoutes.Get("/:id/history", middleware.ModeratorOnly, worksHandler.History)
	workRoutes.Post("/:id/comments", commentsHandler.Create)

	commentRoutes := api.Group("/comments", authMiddleware.RequireAuth)
	commentRoutes.Get("/", commentsHandler.List)
	commentRoutes.Get("/pending", middleware.ModeratorOnly, commentsHandler.ListPending)
	commentRoutes.Post("/batch-review", middleware.ModeratorOnly, commentsHandler.BatchReview)
	commentRoutes.Get("/:id", commentsHandler.Get)
	commentRoutes.Post("/:id/review", middleware.ModeratorOnly, commentsHandler.Review)
	commentRoutes.Put("/:id/review", middleware.ModeratorOnly, commentsHandler.AmendReview)
	commentRoutes.Get("/:id/history", middleware.ModeratorOnly, commentsHandler.History)

	activityRoutes := api.Group("/activities", authMiddleware.RequireAuth)
	activityRoutes.Get("/", activitiesHandler.List)
	activityRoutes.Post("/", middleware.ModeratorOnly, activitiesHandler.Create)
	activityRoutes.Get("/:id", activitiesHandler.Get)
	activityRoutes.Put("/:id", middleware.ModeratorOnly, activitiesHandler.Update)
	activityRoutes.Put("/:id/status", middleware.ModeratorOnly, activitiesHandler.UpdateStatus)
	activityRoutes.Get("/:id/history", middleware.ModeratorOnly, activitiesHandler.History)

	statsRoutes := api.Group("/stats", authMiddleware.RequireAuth, middleware.ModeratorOnly)
	statsRoutes.Get("/dashboard", statsHandler.Dashboard)
	statsRoutes.Get("/monthly", statsHandler.Monthly)
	statsRoutes.Get("/status/:entityType", statsHandler.StatusCounts)

	api.Post("/notifications/resolve", authMiddleware.RequireAuth, notificationsHandler.Resolve)

	return &testEnv{app: app, db: db}
}

func createTestUser(t *testing.T, db *gorm.DB, email, password string, role models.UserRole) (*models.User, string) {
	t.Helper()

	hash, err := utils.HashPassword(password)
	if err != nil {
		t.Fatalf("failed hashing password: %v", err)
	}

	user := &models.User{
		Name:         "Test User",
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed creating test user: %v", err)
	}

	token, err := utils.GenerateToken(user)
	if err != nil {
		t.Fatalf("failed generating auth token: %v", err)
	}

	return user, token
}

func createTestWork(t *testing.T, db *gorm.DB, authorID uint, status models.WorkStatus) *models.Work {
	t.Helper()

	work := &models.Work{
		Title:    "Test Work",
		Type:     models.WorkTypePoetry,
		Content:  "some lines",
		Status:   status,
		AuthorID: authorID,
	}
	if err := db.Create(work).Error; err != nil {
		t.Fatalf("failed creating test work: %v", err)
	}
	return work
}

func createTestComment(t *testing.T, db *gorm.DB, authorID, workID uint, status models.CommentStatus) *models.Comment {
	t.Helper()

	comment := &models.Comment{
		Content:  "a comment",
		Status:   status,
		AuthorID: authorID,
		WorkID:   workID,
	}
	if err := db.Create(comment).Error; err != nil {
		t.Fatalf("failed creating test comment: %v", err)
	}
	return comment
}

func createTestActivity(t *testing.T, db *gorm.DB, status models.ActivityStatus) *models.Activity {
	t.Helper()

	activity := &models.Activity{
		Title:  "Test Activity",
		Date:   time.Now().UTC(),
		Status: status,
	}
	if err := db.Create(activity).Error; err != nil {
		t.Fatalf("failed creating test activity: %v", err)
	}
	return activity
}

func authHeaders(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func performRequest(t *testing.T, app *fiber.App, method, path string, body io.Reader, headers map[string]string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(method, path, body)
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := app.Test(req, int((10 * time.Second).Milliseconds()))
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, path, err)
	}

	return resp
}

func performJSONRequest(t *testing.T, app *fiber.App, method, path string, payload any, headers map[string]string) *http.Response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("failed to marshal payload: %v", err)
		}
		body = bytes.NewReader(encoded)
	}

	requestHeaders := map[string]string{}
	for key, value := range headers {
		requestHeaders[key] = value
	}
	if payload != nil {
		requestHeaders["Content-Type"] = "application/json"
	}

	return performRequest(t, app, method, path, body, requestHeaders)
}

func decodeJSONMap(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed reading response body: %v", err)
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("failed decoding JSON response: %v body=%q", err, string(raw))
	}

	return payload
}

func dataMap(t *testing.T, body map[string]any) map[string]any {
	t.Helper()

	data, ok := body["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected data object, got %+v", body)
	}
	return data
}

func dataList(t *testing.T, body map[string]any) []any {
	t.Helper()

	data, ok := body["data"].([]any)
	if !ok {
		t.Fatalf("expected data array, got %+v", body)
	}
	return data
}

func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Fatalf("expected status %d, got %d", expected, resp.StatusCode)
	}
}

func assertEnvelopeError(t *testing.T, body map[string]any, expected string) {
	t.Helper()
	if success, _ := body["success"].(bool); success {
		t.Fatalf("expected success=false, got %+v", body)
	}
	if got, _ := body["error"].(string); got != expected {
		t.Fatalf("expected error %q, got %q", expected, got)
	}
}
