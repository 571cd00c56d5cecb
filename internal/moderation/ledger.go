package moderation

import (
	"context"

	"github.com/maimang/backend/internal/models"
	"gorm.io/gorm"
)

// Ledger is the append-only history of status transitions. Entries are
// only written through the engine's transactions; nothing updates or
// deletes them.
type Ledger struct {
	DB *gorm.DB
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{DB: db}
}

// append records one entry in a single atomic insert. It takes the db
// handle so the engine can pass its transaction.
func (l *Ledger) append(db *gorm.DB, entry *models.ModerationLedgerEntry) error {
	return db.Create(entry).Error
}

// History returns the full transition history of one entity in creation
// order. Ids are time-ordered, so the (created_at, id) sort keeps entries
// in insertion order even when two share a timestamp.
func (l *Ledger) History(ctx context.Context, entityType EntityType, entityID uint) ([]models.ModerationLedgerEntry, error) {
	var entries []models.ModerationLedgerEntry
	err := l.DB.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at ASC, id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, coerceStoreError("ledger_history", entityType, entityID, err)
	}
	return entries, nil
}
