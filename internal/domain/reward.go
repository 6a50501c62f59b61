package domain

import "time"

// Reward is a creator-defined item redeemable for qubits.
type Reward struct {
	ID          string    `gorm:"primaryKey;column:id;type:uuid" json:"id"`
	CreatorID   string    `gorm:"column:creator_id;type:uuid;not null;index" json:"creator_id"`
	Title       string    `gorm:"column:title;size:200;not null" json:"title"`
	Description string    `gorm:"column:description;type:text" json:"description"`
	QubitCost   int64     `gorm:"column:qubit_cost;not null" json:"qubit_cost"`
	Active      bool      `gorm:"column:active;not null;default:true" json:"active"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName returns the table name for GORM
func (Reward) TableName() string {
	return "rewards"
}
