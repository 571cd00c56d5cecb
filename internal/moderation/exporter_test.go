package moderation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/maimang/backend/internal/models"
)

type recordedUpload struct {
	name        string
	contentType string
	body        []byte
}

type fakeUploader struct {
	uploads []recordedUpload
	err     error
}

func (f *fakeUploader) Upload(_ context.Context, objectName string, reader io.Reader, size int64, contentType string) error {
	if f.err != nil {
		return f.err
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	if int64(len(body)) != size {
		return fmt.Errorf("size mismatch: declared %d, read %d", size, len(body))
	}
	f.uploads = append(f.uploads, recordedUpload{name: objectName, contentType: contentType, body: body})
	return nil
}

func appendLedgerEntry(t *testing.T, ledger *Ledger, entityID uint, from, to string) {
	t.Helper()

	err := ledger.append(ledger.DB, &models.ModerationLedgerEntry{
		EntityType: string(EntityWork),
		EntityID:   entityID,
		FromStatus: from,
		ToStatus:   to,
		ActorID:    1,
	})
	if err != nil {
		t.Fatalf("failed appending ledger entry: %v", err)
	}
}

func loadCursor(t *testing.T, ledger *Ledger) *models.LedgerExportCursor {
	t.Helper()

	var cursor models.LedgerExportCursor
	if err := ledger.DB.First(&cursor).Error; err != nil {
		t.Fatalf("failed loading export cursor: %v", err)
	}
	return &cursor
}

func TestExportEmptyLedgerIsNoOp(t *testing.T) {
	db := openTestDB(t)
	ledger := NewLedger(db)
	uploader := &fakeUploader{}

	ledger.export(uploader)

	if len(uploader.uploads) != 0 {
		t.Errorf("empty ledger must not upload, got %d objects", len(uploader.uploads))
	}

	cursor := loadCursor(t, ledger)
	if cursor.ExportedCount != 0 {
		t.Errorf("expected exported count 0, got %d", cursor.ExportedCount)
	}
}

func TestExportShipsNDJSONAndAdvancesCursor(t *testing.T) {
	db := openTestDB(t)
	ledger := NewLedger(db)
	uploader := &fakeUploader{}

	appendLedgerEntry(t, ledger, 1, "pending", "approved")
	appendLedgerEntry(t, ledger, 2, "pending", "rejected")
	appendLedgerEntry(t, ledger, 3, "pending", "approved")

	ledger.export(uploader)

	if len(uploader.uploads) != 1 {
		t.Fatalf("expected 1 upload, got %d", len(uploader.uploads))
	}
	upload := uploader.uploads[0]
	if !strings.HasPrefix(upload.name, "moderation-ledger/") || !strings.HasSuffix(upload.name, ".ndjson") {
		t.Errorf("unexpected object name %q", upload.name)
	}
	if upload.contentType != "application/x-ndjson" {
		t.Errorf("unexpected content type %q", upload.contentType)
	}

	lines := bytes.Split(bytes.TrimSpace(upload.body), []byte("\n"))
	if len(lines) != 3 {
		t.Fatalf("expected 3 NDJSON lines, got %d", len(lines))
	}
	for i, line := range lines {
		var entry models.ModerationLedgerEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			t.Fatalf("line %d is not valid JSON: %v", i, err)
		}
		if entry.EntityID != uint(i+1) {
			t.Errorf("line %d: expected entity %d, got %d", i, i+1, entry.EntityID)
		}
	}

	cursor := loadCursor(t, ledger)
	if cursor.ExportedCount != 3 {
		t.Errorf("expected exported count 3, got %d", cursor.ExportedCount)
	}

	// nothing new, so a second run ships nothing
	ledger.export(uploader)
	if len(uploader.uploads) != 1 {
		t.Errorf("second run must re-export nothing, got %d uploads", len(uploader.uploads))
	}
}

func TestExportOnlyShipsEntriesPastTheCursor(t *testing.T) {
	db := openTestDB(t)
	ledger := NewLedger(db)
	uploader := &fakeUploader{}

	appendLedgerEntry(t, ledger, 1, "pending", "approved")
	ledger.export(uploader)

	// sqlite timestamps have second precision in comparisons; make the new
	// entry land strictly after the cursor
	later := &models.ModerationLedgerEntry{
		EntityType: string(EntityWork),
		EntityID:   2,
		FromStatus: "pending",
		ToStatus:   "rejected",
		ActorID:    1,
		CreatedAt:  time.Now().UTC().Add(2 * time.Second),
	}
	if err := ledger.append(ledger.DB, later); err != nil {
		t.Fatalf("failed appending ledger entry: %v", err)
	}

	ledger.export(uploader)

	if len(uploader.uploads) != 2 {
		t.Fatalf("expected 2 uploads, got %d", len(uploader.uploads))
	}
	second := uploader.uploads[1]
	lines := bytes.Split(bytes.TrimSpace(second.body), []byte("\n"))
	if len(lines) != 1 {
		t.Fatalf("expected only the new entry, got %d lines", len(lines))
	}
	var entry models.ModerationLedgerEntry
	if err := json.Unmarshal(lines[0], &entry); err != nil {
		t.Fatalf("invalid NDJSON line: %v", err)
	}
	if entry.EntityID != 2 {
		t.Errorf("expected entity 2, got %d", entry.EntityID)
	}
}

func TestExportUploadFailureLeavesCursorAlone(t *testing.T) {
	db := openTestDB(t)
	ledger := NewLedger(db)

	appendLedgerEntry(t, ledger, 1, "pending", "approved")

	broken := &fakeUploader{err: fmt.Errorf("storage unavailable")}
	ledger.export(broken)

	cursor := loadCursor(t, ledger)
	if cursor.ExportedCount != 0 {
		t.Errorf("failed upload must not advance the cursor, got count %d", cursor.ExportedCount)
	}

	// the same entry ships on the next successful run
	working := &fakeUploader{}
	ledger.export(working)
	if len(working.uploads) != 1 {
		t.Fatalf("expected the entry to ship after recovery, got %d uploads", len(working.uploads))
	}
}
