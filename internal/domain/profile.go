package domain

import "time"

// Profile is a platform user. Qubits is the spendable currency balance,
// mutated only by reward claims; the earned-but-unspent figure shown on the
// dashboard is computed separately by summing LinkRef counters.
type Profile struct {
	ID           string    `gorm:"primaryKey;column:id;type:uuid" json:"id"`
	Username     string    `gorm:"column:username;uniqueIndex;size:64;not null" json:"username"`
	PasswordHash string    `gorm:"column:password_hash;type:text;not null" json:"-"`
	IsCreator    bool      `gorm:"column:is_creator;not null;default:false" json:"is_creator"`
	Qubits       int64     `gorm:"column:qubits;not null;default:0" json:"qubits"`
	AvatarURL    *string   `gorm:"column:avatar_url;type:text" json:"avatar_url,omitempty"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName returns the table name for GORM
func (Profile) TableName() string {
	return "profiles"
}
