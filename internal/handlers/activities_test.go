package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/maimang/backend/internal/models"
)

func TestCreateActivity(t *testing.T) {
	env := setupTestEnv(t)
	_, token := createTestUser(t, env.db, "reviewer@example.com", "secret123", models.UserRoleReviewer)

	resp := performJSONRequest(t, env.app, http.MethodPost, "/api/activities", map[string]any{
		"title":           "Open Mic Night",
		"description":     "bring your own poems",
		"date":            "2026-09-15",
		"time":            "19:00",
		"location":        "Library Hall",
		"maxParticipants": 40,
	}, authHeaders(token))
	assertStatus(t, resp, http.StatusCreated)

	data := dataMap(t, decodeJSONMap(t, resp))
	if status, _ := data["status"].(string); status != "upcoming" {
		t.Errorf("new activities must start upcoming, got %q", status)
	}
}

func TestCreateActivityRequiresModerator(t *testing.T) {
	env := setupTestEnv(t)
	_, token := createTestUser(t, env.db, "member@example.com", "secret123", models.UserRoleMember)

	resp := performJSONRequest(t, env.app, http.MethodPost, "/api/activities", map[string]any{
		"title": "Rogue Event",
		"date":  "2026-09-15",
	}, authHeaders(token))
	assertStatus(t, resp, http.StatusForbidden)
}

func TestCreateActivityRejectsBadDate(t *testing.T) {
	env := setupTestEnv(t)
	_, token := createTestUser(t, env.db, "reviewer@example.com", "secret123", models.UserRoleReviewer)

	resp := performJSONRequest(t, env.app, http.MethodPost, "/api/activities", map[string]any{
		"title": "Sometime",
		"date":  "next tuesday",
	}, authHeaders(token))
	assertStatus(t, resp, http.StatusBadRequest)
}

func TestListActivitiesFiltersByStatus(t *testing.T) {
	env := setupTestEnv(t)
	_, token := createTestUser(t, env.db, "member@example.com", "secret123", models.UserRoleMember)

	createTestActivity(t, env.db, models.ActivityUpcoming)
	createTestActivity(t, env.db, models.ActivityOngoing)
	createTestActivity(t, env.db, models.ActivityCancelled)

	resp := performRequest(t, env.app, http.MethodGet, "/api/activities?status=upcoming", nil, authHeaders(token))
	assertStatus(t, resp, http.StatusOK)

	if got := len(dataList(t, decodeJSONMap(t, resp))); got != 1 {
		t.Errorf("expected 1 upcoming activity, got %d", got)
	}
}

func TestUpdateActivityStatusLifecycle(t *testing.T) {
	env := setupTestEnv(t)
	_, token := createTestUser(t, env.db, "reviewer@example.com", "secret123", models.UserRoleReviewer)
	activity := createTestActivity(t, env.db, models.ActivityUpcoming)

	statusPath := fmt.Sprintf("/api/activities/%d/status", activity.ID)

	resp := performJSONRequest(t, env.app, http.MethodPut, statusPath, map[string]any{"status": "ongoing"}, authHeaders(token))
	assertStatus(t, resp, http.StatusOK)

	resp = performJSONRequest(t, env.app, http.MethodPut, statusPath, map[string]any{"status": "completed"}, authHeaders(token))
	assertStatus(t, resp, http.StatusOK)

	// completed is terminal
	resp = performJSONRequest(t, env.app, http.MethodPut, statusPath, map[string]any{"status": "cancelled"}, authHeaders(token))
	assertStatus(t, resp, http.StatusUnprocessableEntity)
}

func TestUpdateActivityStatusSkippingAStage(t *testing.T) {
	env := setupTestEnv(t)
	_, token := createTestUser(t, env.db, "reviewer@example.com", "secret123", models.UserRoleReviewer)
	activity := createTestActivity(t, env.db, models.ActivityUpcoming)

	resp := performJSONRequest(t, env.app, http.MethodPut, fmt.Sprintf("/api/activities/%d/status", activity.ID), map[string]any{
		"status": "completed",
	}, authHeaders(token))
	assertStatus(t, resp, http.StatusUnprocessableEntity)
}

func TestUpdateActivityFieldsDoesNotTouchStatus(t *testing.T) {
	env := setupTestEnv(t)
	_, token := createTestUser(t, env.db, "reviewer@example.com", "secret123", models.UserRoleReviewer)
	activity := createTestActivity(t, env.db, models.ActivityOngoing)

	resp := performJSONRequest(t, env.app, http.MethodPut, fmt.Sprintf("/api/activities/%d", activity.ID), map[string]any{
		"title": "Renamed Event",
		"date":  "2026-10-01",
	}, authHeaders(token))
	assertStatus(t, resp, http.StatusOK)

	data := dataMap(t, decodeJSONMap(t, resp))
	if title, _ := data["title"].(string); title != "Renamed Event" {
		t.Errorf("expected renamed title, got %q", title)
	}
	if status, _ := data["status"].(string); status != "ongoing" {
		t.Errorf("field update must not change status, got %q", status)
	}
}

func TestActivityHistoryRecordsLifecycle(t *testing.T) {
	env := setupTestEnv(t)
	_, token := createTestUser(t, env.db, "reviewer@example.com", "secret123", models.UserRoleReviewer)
	activity := createTestActivity(t, env.db, models.ActivityUpcoming)

	statusPath := fmt.Sprintf("/api/activities/%d/status", activity.ID)
	assertStatus(t, performJSONRequest(t, env.app, http.MethodPut, statusPath, map[string]any{"status": "cancelled", "note": "venue fell through"}, authHeaders(token)), http.StatusOK)

	resp := performRequest(t, env.app, http.MethodGet, fmt.Sprintf("/api/activities/%d/history", activity.ID), nil, authHeaders(token))
	assertStatus(t, resp, http.StatusOK)

	entries := dataList(t, decodeJSONMap(t, resp))
	if len(entries) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(entries))
	}
	entry, _ := entries[0].(map[string]any)
	if note, _ := entry["note"].(string); note != "venue fell through" {
		t.Errorf("expected lifecycle note in ledger, got %q", note)
	}
}
