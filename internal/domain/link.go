package domain

import "time"

// Link is a shortened URL owned by a profile. CreatorID is stamped at creation
// time and never changes; when a link row is copied into another user's account
// the owner differs from the creator, which is how forwarded links are detected.
type Link struct {
	ID          string `gorm:"primaryKey;column:id;type:uuid" json:"id"`
	UserID      string `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	CreatorID   string `gorm:"column:creator_id;type:uuid;not null" json:"creator_id"`
	ShortCode   string `gorm:"column:short_code;uniqueIndex;size:16;not null" json:"short_code"`
	OriginalURL string `gorm:"column:original_url;type:text;not null" json:"original_url"`
	Deleted     bool   `gorm:"column:deleted;not null;default:false" json:"deleted"`
	ClickCount  int64  `gorm:"column:click_count;not null;default:0" json:"click_count"`

	// Cached page preview metadata, filled by an external scraper.
	PageTitle       *string `gorm:"column:page_title;type:text" json:"page_title,omitempty"`
	PageDescription *string `gorm:"column:page_description;type:text" json:"page_description,omitempty"`
	PageImage       *string `gorm:"column:page_image;type:text" json:"page_image,omitempty"`
	PageFavicon     *string `gorm:"column:page_favicon;type:text" json:"page_favicon,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName returns the table name for GORM
func (Link) TableName() string {
	return "links"
}

// IsForwarded reports whether this row is a copy of another creator's link.
func (l *Link) IsForwarded() bool {
	return l.CreatorID != "" && l.CreatorID != l.UserID
}
