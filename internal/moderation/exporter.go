package moderation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/maimang/backend/internal/models"
	"github.com/maimang/backend/pkg/logger"
	"gorm.io/gorm"
)

// Uploader ships one object to storage. storage.MinIOClient satisfies it.
type Uploader interface {
	Upload(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error
}

// StartExporter runs a background goroutine that periodically ships new
// ledger entries to object storage as NDJSON, tracked by a cursor row so
// each entry is exported once.
func (l *Ledger) StartExporter(uploader Uploader, interval time.Duration) {
	if uploader == nil {
		logger.Info("ledger_exporter_disabled", map[string]interface{}{
			"reason": "no storage client configured",
		})
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for range ticker.C {
			l.export(uploader)
		}
	}()

	logger.Info("ledger_exporter_started", map[string]interface{}{
		"interval": interval.String(),
	})
}

func (l *Ledger) export(uploader Uploader) {
	var cursor models.LedgerExportCursor
	err := l.DB.First(&cursor).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			cursor = models.LedgerExportCursor{
				LastExportAt: time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
			}
			if createErr := l.DB.Create(&cursor).Error; createErr != nil {
				logger.Error("ledger_export_cursor_create_failed", createErr, nil)
				return
			}
		} else {
			logger.Error("ledger_export_cursor_load_failed", err, nil)
			return
		}
	}

	var entries []models.ModerationLedgerEntry
	if err := l.DB.Where("created_at > ?", cursor.LastExportAt).
		Order("created_at ASC, id ASC").
		Limit(10000).
		Find(&entries).Error; err != nil {
		logger.Error("ledger_export_query_failed", err, nil)
		return
	}

	if len(entries) == 0 {
		return
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, entry := range entries {
		if err := enc.Encode(entry); err != nil {
			logger.Error("ledger_export_encode_failed", err, map[string]interface{}{
				"entry_id": entry.ID.String(),
			})
			continue
		}
	}

	now := time.Now().UTC()
	objectName := fmt.Sprintf("moderation-ledger/%s/%s.ndjson",
		now.Format("2006/01/02"),
		now.Format("15-04-05"),
	)

	if err := uploader.Upload(
		context.Background(),
		objectName,
		&buf,
		int64(buf.Len()),
		"application/x-ndjson",
	); err != nil {
		logger.Error("ledger_export_upload_failed", err, map[string]interface{}{
			"object_name": objectName,
			"count":       len(entries),
		})
		return
	}

	lastCreatedAt := entries[len(entries)-1].CreatedAt
	l.DB.Model(&cursor).Updates(map[string]interface{}{
		"last_export_at": lastCreatedAt,
		"exported_count": gorm.Expr("exported_count + ?", len(entries)),
	})

	logger.Info("ledger_export_success", map[string]interface{}{
		"object_name": objectName,
		"count":       len(entries),
	})
}
