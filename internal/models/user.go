package models

import "time"

type UserRole string

const (
	UserRoleMember   UserRole = "member"
	UserRoleReviewer UserRole = "reviewer"
	UserRoleAdmin    UserRole = "admin"
)

// CanModerate reports whether the role is allowed to run review actions.
func (r UserRole) CanModerate() bool {
	return r == UserRoleReviewer || r == UserRoleAdmin
}

type User struct {
	BaseModel
	Name         string     `json:"name" gorm:"type:varchar(100);not null;index"`
	Email        string     `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash string     `json:"-" gorm:"type:text;not null"`
	Role         UserRole   `json:"role" gorm:"type:varchar(20);not null;default:'member';index"`
	AvatarURL    *string    `json:"avatarURL,omitempty" gorm:"type:text"`
	Bio          string     `json:"bio,omitempty" gorm:"type:varchar(1000)"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty" gorm:"index"`

	Works    []Work    `json:"-" gorm:"foreignKey:AuthorID"`
	Comments []Comment `json:"-" gorm:"foreignKey:AuthorID"`
}
