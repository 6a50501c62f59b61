package domain

import "time"

// LinkKind tags the two shapes a dashboard row can have.
type LinkKind string

const (
	LinkKindOriginal  LinkKind = "original"
	LinkKindReference LinkKind = "reference"
)

// DashboardEntry is the shared read-only projection of a user's own links and
// their saved references, so the two shapes merge into one list without the
// caller inspecting which table a row came from.
type DashboardEntry struct {
	Kind       LinkKind  `json:"kind"`
	ID         string    `json:"id"` // link id for originals, ref id for references
	Title      string    `json:"title"`
	URL        string    `json:"url"`
	ShortCode  string    `json:"short_code"`
	ClickCount int64     `json:"click_count"`
	Archived   bool      `json:"archived"`
	CreatedAt  time.Time `json:"created_at"`
}

// DashboardEntryFromLink projects an original link.
func DashboardEntryFromLink(l *Link) DashboardEntry {
	title := ""
	if l.PageTitle != nil {
		title = *l.PageTitle
	}
	return DashboardEntry{
		Kind:       LinkKindOriginal,
		ID:         l.ID,
		Title:      title,
		URL:        l.OriginalURL,
		ShortCode:  l.ShortCode,
		ClickCount: l.ClickCount,
		Archived:   l.Deleted,
		CreatedAt:  l.CreatedAt,
	}
}

// DashboardEntryFromRef projects a saved reference. A reference counts as
// archived when the user hid it or the original creator removed the link.
func DashboardEntryFromRef(r *LinkRef) DashboardEntry {
	title := ""
	if r.PageTitle != nil {
		title = *r.PageTitle
	}
	return DashboardEntry{
		Kind:       LinkKindReference,
		ID:         r.ID,
		Title:      title,
		URL:        r.OriginalURL,
		ShortCode:  r.ShortCode,
		ClickCount: r.ClickCount,
		Archived:   r.RemovedByUser || r.RemovedByCreator,
		CreatedAt:  r.CreatedAt,
	}
}
