package moderation

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/maimang/backend/internal/metrics"
	"github.com/maimang/backend/internal/models"
	"gorm.io/gorm"
)

// Engine enforces the transition tables and records every successful
// change in the ledger. All mutations are guarded against concurrent
// writers: the status update only lands if the row still holds the status
// observed at pre-read, and the update plus its ledger entry commit in one
// transaction, so a timeout or conflict leaves no partial write.
type Engine struct {
	DB     *gorm.DB
	Ledger *Ledger
}

func NewEngine(db *gorm.DB, ledger *Ledger) *Engine {
	return &Engine{DB: db, Ledger: ledger}
}

func (e *Engine) TransitionWork(ctx context.Context, id uint, to models.WorkStatus, actorID uint, note string) (*models.Work, error) {
	var work models.Work
	if err := e.DB.WithContext(ctx).First(&work, id).Error; err != nil {
		metrics.RecordTransition(string(EntityWork), metrics.ResultNotFound)
		return nil, coerceStoreError("work_load", EntityWork, id, err)
	}

	if err := e.apply(ctx, EntityWork, &models.Work{}, id, string(work.Status), string(to), actorID, note, true); err != nil {
		return nil, err
	}

	if err := e.DB.WithContext(ctx).Preload("Author").Preload("Reviewer").First(&work, id).Error; err != nil {
		return nil, coerceStoreError("work_reload", EntityWork, id, err)
	}
	return &work, nil
}

func (e *Engine) TransitionComment(ctx context.Context, id uint, to models.CommentStatus, actorID uint, note string) (*models.Comment, error) {
	var comment models.Comment
	if err := e.DB.WithContext(ctx).First(&comment, id).Error; err != nil {
		metrics.RecordTransition(string(EntityComment), metrics.ResultNotFound)
		return nil, coerceStoreError("comment_load", EntityComment, id, err)
	}

	if err := e.apply(ctx, EntityComment, &models.Comment{}, id, string(comment.Status), string(to), actorID, note, true); err != nil {
		return nil, err
	}

	if err := e.DB.WithContext(ctx).Preload("Author").Preload("Reviewer").First(&comment, id).Error; err != nil {
		return nil, coerceStoreError("comment_reload", EntityComment, id, err)
	}
	return &comment, nil
}

func (e *Engine) TransitionActivity(ctx context.Context, id uint, to models.ActivityStatus, actorID uint, note string) (*models.Activity, error) {
	var activity models.Activity
	if err := e.DB.WithContext(ctx).First(&activity, id).Error; err != nil {
		metrics.RecordTransition(string(EntityActivity), metrics.ResultNotFound)
		return nil, coerceStoreError("activity_load", EntityActivity, id, err)
	}

	if err := e.apply(ctx, EntityActivity, &models.Activity{}, id, string(activity.Status), string(to), actorID, note, false); err != nil {
		return nil, err
	}

	if err := e.DB.WithContext(ctx).First(&activity, id).Error; err != nil {
		return nil, coerceStoreError("activity_reload", EntityActivity, id, err)
	}
	return &activity, nil
}

// apply runs one guarded transition. review selects the audit treatment:
// review transitions stamp reviewed_at/reviewer_id and route the note into
// review_note or reject_reason; lifecycle transitions (activities) only
// carry the actor into the ledger.
func (e *Engine) apply(ctx context.Context, entityType EntityType, model any, id uint, from, to string, actorID uint, note string, review bool) error {
	if !CanTransition(entityType, from, to) {
		metrics.RecordTransition(string(entityType), metrics.ResultInvalid)
		return &InvalidTransitionError{EntityType: entityType, From: from, To: to}
	}

	now := time.Now().UTC()
	updates := map[string]interface{}{
		"status":     to,
		"updated_at": now,
	}
	if review {
		updates["reviewed_at"] = now
		updates["reviewer_id"] = actorID
		if rejectClass(to) {
			updates["reject_reason"] = note
		} else {
			updates["review_note"] = note
		}
	}

	err := e.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(model).Where("id = ? AND status = ?", id, from).Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return &ConcurrentModificationError{EntityType: entityType, ID: id}
		}
		return e.Ledger.append(tx, &models.ModerationLedgerEntry{
			EntityType: string(entityType),
			EntityID:   id,
			FromStatus: from,
			ToStatus:   to,
			ActorID:    actorID,
			Note:       note,
			CreatedAt:  now,
		})
	})
	if err != nil {
		var conflict *ConcurrentModificationError
		if errors.As(err, &conflict) {
			metrics.RecordTransition(string(entityType), metrics.ResultConflict)
			return err
		}
		metrics.RecordTransition(string(entityType), metrics.ResultError)
		return coerceStoreError(string(entityType)+"_transition", entityType, id, err)
	}

	metrics.RecordTransition(string(entityType), metrics.ResultSuccess)
	return nil
}

// AmendWorkReview corrects review_note/reject_reason after the fact. It
// never changes status; the edit itself is still recorded as a same-status
// ledger entry.
func (e *Engine) AmendWorkReview(ctx context.Context, id uint, actorID uint, reviewNote, rejectReason *string) (*models.Work, error) {
	var work models.Work
	if err := e.DB.WithContext(ctx).First(&work, id).Error; err != nil {
		return nil, coerceStoreError("work_load", EntityWork, id, err)
	}

	if err := e.amend(ctx, EntityWork, &models.Work{}, id, string(work.Status), actorID, reviewNote, rejectReason); err != nil {
		return nil, err
	}

	if err := e.DB.WithContext(ctx).Preload("Author").Preload("Reviewer").First(&work, id).Error; err != nil {
		return nil, coerceStoreError("work_reload", EntityWork, id, err)
	}
	return &work, nil
}

func (e *Engine) AmendCommentReview(ctx context.Context, id uint, actorID uint, reviewNote, rejectReason *string) (*models.Comment, error) {
	var comment models.Comment
	if err := e.DB.WithContext(ctx).First(&comment, id).Error; err != nil {
		return nil, coerceStoreError("comment_load", EntityComment, id, err)
	}

	if err := e.amend(ctx, EntityComment, &models.Comment{}, id, string(comment.Status), actorID, reviewNote, rejectReason); err != nil {
		return nil, err
	}

	if err := e.DB.WithContext(ctx).Preload("Author").Preload("Reviewer").First(&comment, id).Error; err != nil {
		return nil, coerceStoreError("comment_reload", EntityComment, id, err)
	}
	return &comment, nil
}

func (e *Engine) amend(ctx context.Context, entityType EntityType, model any, id uint, status string, actorID uint, reviewNote, rejectReason *string) error {
	updates := map[string]interface{}{
		"updated_at": time.Now().UTC(),
	}
	if reviewNote != nil {
		updates["review_note"] = *reviewNote
	}
	if rejectReason != nil {
		updates["reject_reason"] = *rejectReason
	}
	if len(updates) == 1 {
		return nil
	}

	err := e.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(model).Where("id = ?", id).Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return &EntityNotFoundError{EntityType: entityType, ID: id}
		}
		return e.Ledger.append(tx, &models.ModerationLedgerEntry{
			EntityType: string(entityType),
			EntityID:   id,
			FromStatus: status,
			ToStatus:   status,
			ActorID:    actorID,
			Note:       amendNote(reviewNote, rejectReason),
		})
	})
	return coerceStoreError(string(entityType)+"_amend", entityType, id, err)
}

func amendNote(reviewNote, rejectReason *string) string {
	parts := make([]string, 0, 2)
	if reviewNote != nil {
		parts = append(parts, "review note amended: "+*reviewNote)
	}
	if rejectReason != nil {
		parts = append(parts, "reject reason amended: "+*rejectReason)
	}
	return strings.Join(parts, "; ")
}
