package identity

import (
	"net/http"
	"strings"
)

// UnknownIP is the sentinel used when no forwarded-for header is present.
const UnknownIP = "unknown"

// refParam is the query parameter carrying the sharing user's id on a
// forwarded short link.
const refParam = "utm_ref"

// Identity is the request identity tuple the abuse guard and ledger operate
// on. UserID is the clicker's own id (set only for authenticated sessions);
// ReferrerUserID names whose shared copy was used to reach the link.
type Identity struct {
	IP             string
	UserID         string
	ReferrerUserID string
}

// Resolve derives the identity for an inbound click request. The caller
// supplies userID when the session is authenticated; absent values degrade to
// empty strings or the UnknownIP sentinel, never errors.
func Resolve(r *http.Request, userID string) Identity {
	return Identity{
		IP:             clientIP(r),
		UserID:         userID,
		ReferrerUserID: r.URL.Query().Get(refParam),
	}
}

// clientIP takes the first comma-separated value of X-Forwarded-For, trimmed.
func clientIP(r *http.Request) string {
	forwarded := r.Header.Get("X-Forwarded-For")
	if forwarded == "" {
		return UnknownIP
	}

	first, _, _ := strings.Cut(forwarded, ",")
	first = strings.TrimSpace(first)
	if first == "" {
		return UnknownIP
	}
	return first
}

// Key is the identity used for cooldown lookups: the user id when known,
// the client IP otherwise.
func (id Identity) Key() string {
	if id.UserID != "" {
		return id.UserID
	}
	return id.IP
}
