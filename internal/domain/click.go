package domain

import "time"

// LinkClick is an append-only ledger entry for a single accepted click.
// Rows are never updated or deleted: the ledger is both the audit trail and
// the data the cooldown and rate-limit checks run against.
type LinkClick struct {
	ID         int64     `gorm:"primaryKey;column:id" json:"id"`
	LinkID     string    `gorm:"column:link_id;type:uuid;not null;index" json:"link_id"`
	UserID     *string   `gorm:"column:user_id;type:uuid;index" json:"user_id,omitempty"`
	IPAddress  *string   `gorm:"column:ip_address;size:64;index" json:"ip_address,omitempty"`
	UserAgent  *string   `gorm:"column:user_agent;type:text" json:"user_agent,omitempty"`
	Referrer   *string   `gorm:"column:referrer;size:64" json:"referrer,omitempty"` // utm_ref attribution tag
	DeviceType *string   `gorm:"column:device_type;size:10" json:"device_type,omitempty"`
	ClickedAt  time.Time `gorm:"column:clicked_at;not null;index" json:"clicked_at"`
}

// TableName returns the table name for GORM
func (LinkClick) TableName() string {
	return "link_clicks"
}
