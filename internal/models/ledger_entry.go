package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ModerationLedgerEntry is the append-only record behind every status
// transition. It does NOT use BaseModel because ledger rows are never
// updated or deleted; corrections are recorded as further entries.
type ModerationLedgerEntry struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	EntityType string    `json:"entityType" gorm:"type:varchar(20);not null;index:idx_ledger_entity"`
	EntityID   uint      `json:"entityID" gorm:"not null;index:idx_ledger_entity"`
	FromStatus string    `json:"fromStatus" gorm:"type:varchar(20);not null"`
	ToStatus   string    `json:"toStatus" gorm:"type:varchar(20);not null"`
	ActorID    uint      `json:"actorID" gorm:"not null;index"`
	Note       string    `json:"note,omitempty" gorm:"type:varchar(1000)"`
	CreatedAt  time.Time `json:"createdAt" gorm:"not null;index"`
}

// BeforeCreate assigns a v7 (time-ordered) id so sorting by id matches
// insertion order even for entries sharing a created_at.
func (e *ModerationLedgerEntry) BeforeCreate(_ *gorm.DB) error {
	if e.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		e.ID = id
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	return nil
}

func (ModerationLedgerEntry) TableName() string {
	return "moderation_ledger_entries"
}

// LedgerExportCursor tracks the last successful export timestamp so the
// periodic object-storage export only ships new rows.
type LedgerExportCursor struct {
	ID            uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	LastExportAt  time.Time `json:"lastExportAt" gorm:"not null"`
	ExportedCount int64     `json:"exportedCount" gorm:"not null;default:0"`
}

func (c *LedgerExportCursor) BeforeCreate(_ *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (LedgerExportCursor) TableName() string {
	return "ledger_export_cursors"
}
