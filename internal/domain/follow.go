package domain

import "time"

// Follow records that a user follows a content creator.
type Follow struct {
	FollowerID string    `gorm:"primaryKey;column:follower_id;type:uuid" json:"follower_id"`
	CreatorID  string    `gorm:"primaryKey;column:creator_id;type:uuid" json:"creator_id"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName returns the table name for GORM
func (Follow) TableName() string {
	return "follows"
}
