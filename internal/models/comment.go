package models

import "time"

type CommentStatus string

const (
	CommentPending  CommentStatus = "pending"
	CommentApproved CommentStatus = "approved"
	CommentRejected CommentStatus = "rejected"
	CommentHidden   CommentStatus = "hidden"
)

// Comment carries one extra status over Work: approved content can be
// hidden later without being rejected. No transition removes a comment.
type Comment struct {
	BaseModel
	Content  string        `json:"content" gorm:"type:text;not null"`
	Status   CommentStatus `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	AuthorID uint          `json:"authorID" gorm:"not null;index"`
	Author   *User         `json:"author,omitempty" gorm:"foreignKey:AuthorID"`
	WorkID   uint          `json:"workID" gorm:"not null;index"`
	Work     *Work         `json:"work,omitempty" gorm:"foreignKey:WorkID"`

	Likes   int `json:"likes" gorm:"not null;default:0;index"`
	Replies int `json:"replies" gorm:"not null;default:0"`

	ReviewedAt   *time.Time `json:"reviewedAt,omitempty"`
	ReviewerID   *uint      `json:"reviewerID,omitempty" gorm:"index"`
	Reviewer     *User      `json:"reviewer,omitempty" gorm:"foreignKey:ReviewerID"`
	ReviewNote   string     `json:"reviewNote,omitempty" gorm:"type:varchar(1000)"`
	RejectReason string     `json:"rejectReason,omitempty" gorm:"type:varchar(1000)"`
}
