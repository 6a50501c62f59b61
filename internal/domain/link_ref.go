package domain

import "time"

// LinkRef is a user's saved copy of another creator's link. Its click counter
// is the unit credited toward the referring user's qubit earnings. At most one
// reference may exist per (user, original link) pair; the unique index makes a
// concurrent duplicate insert fail instead of silently creating a second row.
type LinkRef struct {
	ID             string `gorm:"primaryKey;column:id;type:uuid" json:"id"`
	UserID         string `gorm:"column:user_id;type:uuid;not null;index;uniqueIndex:idx_link_refs_user_original" json:"user_id"`
	OriginalLinkID string `gorm:"column:original_link_id;type:uuid;not null;uniqueIndex:idx_link_refs_user_original" json:"original_link_id"`
	OriginalURL    string `gorm:"column:original_url;type:text;not null" json:"original_url"`
	ShortCode      string `gorm:"column:short_code;size:16;not null;index" json:"short_code"`
	UTMParam       string `gorm:"column:utm_param;size:64" json:"utm_param"`
	ClickCount     int64  `gorm:"column:click_count;not null;default:0" json:"click_count"`

	// Soft-removal flags. RemovedByCreator is set when the original link is
	// archived; RemovedByUser hides the reference from the user's own dashboard.
	RemovedByCreator bool `gorm:"column:removed_by_creator;not null;default:false" json:"removed_by_creator"`
	RemovedByUser    bool `gorm:"column:removed_by_user;not null;default:false" json:"removed_by_user"`

	// Denormalized preview metadata copied from the original link.
	PageTitle       *string `gorm:"column:page_title;type:text" json:"page_title,omitempty"`
	PageDescription *string `gorm:"column:page_description;type:text" json:"page_description,omitempty"`
	PageImage       *string `gorm:"column:page_image;type:text" json:"page_image,omitempty"`
	PageFavicon     *string `gorm:"column:page_favicon;type:text" json:"page_favicon,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName returns the table name for GORM
func (LinkRef) TableName() string {
	return "link_refs"
}
