package moderation

import "github.com/maimang/backend/internal/models"

type EntityType string

const (
	EntityWork     EntityType = "work"
	EntityComment  EntityType = "comment"
	EntityActivity EntityType = "activity"
)

func ValidEntityType(t EntityType) bool {
	switch t {
	case EntityWork, EntityComment, EntityActivity:
		return true
	default:
		return false
	}
}

// transitionTables is the closed set of legal status changes per entity
// type. A status missing from its table, or mapped to an empty list, is
// terminal. Both work review outcomes stay re-reviewable; activity
// completed/cancelled do not.
var transitionTables = map[EntityType]map[string][]string{
	EntityWork: {
		string(models.WorkPending):  {string(models.WorkApproved), string(models.WorkRejected)},
		string(models.WorkApproved): {string(models.WorkRejected)},
		string(models.WorkRejected): {string(models.WorkApproved)},
	},
	EntityComment: {
		string(models.CommentPending):  {string(models.CommentApproved), string(models.CommentRejected), string(models.CommentHidden)},
		string(models.CommentApproved): {string(models.CommentHidden)},
		string(models.CommentHidden):   {string(models.CommentApproved)},
		string(models.CommentRejected): {string(models.CommentPending)},
	},
	EntityActivity: {
		string(models.ActivityUpcoming):  {string(models.ActivityOngoing), string(models.ActivityCancelled)},
		string(models.ActivityOngoing):   {string(models.ActivityCompleted), string(models.ActivityCancelled)},
		string(models.ActivityCompleted): {},
		string(models.ActivityCancelled): {},
	},
}

// CanTransition reports whether from→to is in the entity type's table.
// Self-loops are never listed, so repeating the current status is invalid.
func CanTransition(entityType EntityType, from, to string) bool {
	for _, allowed := range AllowedNext(entityType, from) {
		if allowed == to {
			return true
		}
	}
	return false
}

// AllowedNext returns the statuses reachable from the given one.
func AllowedNext(entityType EntityType, from string) []string {
	table, ok := transitionTables[entityType]
	if !ok {
		return nil
	}
	return table[from]
}

// Statuses returns every status in the entity type's enum, in table order.
func Statuses(entityType EntityType) []string {
	switch entityType {
	case EntityWork:
		return []string{
			string(models.WorkPending),
			string(models.WorkApproved),
			string(models.WorkRejected),
		}
	case EntityComment:
		return []string{
			string(models.CommentPending),
			string(models.CommentApproved),
			string(models.CommentRejected),
			string(models.CommentHidden),
		}
	case EntityActivity:
		return []string{
			string(models.ActivityUpcoming),
			string(models.ActivityOngoing),
			string(models.ActivityCompleted),
			string(models.ActivityCancelled),
		}
	default:
		return nil
	}
}

func KnownStatus(entityType EntityType, status string) bool {
	for _, s := range Statuses(entityType) {
		if s == status {
			return true
		}
	}
	return false
}

// rejectClass statuses take the transition note into reject_reason; every
// other review transition writes review_note. The two are mutually
// exclusive per transition and otherwise sticky.
func rejectClass(to string) bool {
	return to == string(models.WorkRejected) || to == string(models.CommentHidden)
}
