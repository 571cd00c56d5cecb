package models

import "time"

type ActivityStatus string

const (
	ActivityUpcoming  ActivityStatus = "upcoming"
	ActivityOngoing   ActivityStatus = "ongoing"
	ActivityCompleted ActivityStatus = "completed"
	ActivityCancelled ActivityStatus = "cancelled"
)

// Activity follows a temporal lifecycle rather than a review workflow: an
// operator moves it along based on real-world progress, so it has no
// reviewer fields. Transitions still go through the moderation engine and
// land in the ledger.
type Activity struct {
	BaseModel
	Title               string         `json:"title" gorm:"type:varchar(200);not null;index"`
	Description         string         `json:"description" gorm:"type:varchar(2000)"`
	Date                time.Time      `json:"date" gorm:"not null;index"`
	Time                string         `json:"time" gorm:"type:varchar(50)"`
	Location            string         `json:"location" gorm:"type:varchar(200)"`
	Instructor          string         `json:"instructor" gorm:"type:varchar(100)"`
	Status              ActivityStatus `json:"status" gorm:"type:varchar(20);not null;default:'upcoming';index"`
	MaxParticipants     int            `json:"maxParticipants" gorm:"not null;default:0"`
	CurrentParticipants int            `json:"currentParticipants" gorm:"not null;default:0"`
}

func (Activity) TableName() string {
	return "activities"
}
