package models

import "time"

type WorkStatus string

const (
	WorkPending  WorkStatus = "pending"
	WorkApproved WorkStatus = "approved"
	WorkRejected WorkStatus = "rejected"
)

type WorkType string

const (
	WorkTypePoetry WorkType = "poetry"
	WorkTypeProse  WorkType = "prose"
	WorkTypeNovel  WorkType = "novel"
	WorkTypePhoto  WorkType = "photo"
)

func ValidWorkType(t WorkType) bool {
	switch t {
	case WorkTypePoetry, WorkTypeProse, WorkTypeNovel, WorkTypePhoto:
		return true
	default:
		return false
	}
}

// Work is a member submission. Status is mutated only through the
// moderation engine; the review fields below are denormalized from the
// ledger for fast reads.
type Work struct {
	BaseModel
	Title    string     `json:"title" gorm:"type:varchar(200);not null;index"`
	Type     WorkType   `json:"type" gorm:"type:varchar(20);not null;index"`
	Content  string     `json:"content" gorm:"type:text;not null"`
	Status   WorkStatus `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	AuthorID uint       `json:"authorID" gorm:"not null;index"`
	Author   *User      `json:"author,omitempty" gorm:"foreignKey:AuthorID"`

	Views int `json:"views" gorm:"not null;default:0;index"`
	Likes int `json:"likes" gorm:"not null;default:0;index"`

	ReviewedAt   *time.Time `json:"reviewedAt,omitempty"`
	ReviewerID   *uint      `json:"reviewerID,omitempty" gorm:"index"`
	Reviewer     *User      `json:"reviewer,omitempty" gorm:"foreignKey:ReviewerID"`
	ReviewNote   string     `json:"reviewNote,omitempty" gorm:"type:varchar(1000)"`
	RejectReason string     `json:"rejectReason,omitempty" gorm:"type:varchar(1000)"`

	Comments []Comment `json:"-" gorm:"foreignKey:WorkID"`
}
