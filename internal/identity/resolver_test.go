package identity

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	t.Run("forwarded_for_first_value", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/abc123", nil)
		r.Header.Set("X-Forwarded-For", " 1.2.3.4 , 10.0.0.1, 172.16.0.1")

		id := Resolve(r, "")

		assert.Equal(t, "1.2.3.4", id.IP)
	})

	t.Run("missing_header_degrades_to_unknown", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/abc123", nil)

		id := Resolve(r, "")

		assert.Equal(t, UnknownIP, id.IP)
	})

	t.Run("blank_header_degrades_to_unknown", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/abc123", nil)
		r.Header.Set("X-Forwarded-For", "  ,10.0.0.1")

		id := Resolve(r, "")

		assert.Equal(t, UnknownIP, id.IP)
	})

	t.Run("utm_ref_carried", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/abc123?utm_ref=sharer-9", nil)

		id := Resolve(r, "user-1")

		assert.Equal(t, "sharer-9", id.ReferrerUserID)
		assert.Equal(t, "user-1", id.UserID)
	})
}

func TestIdentity_Key(t *testing.T) {
	assert.Equal(t, "user-1", Identity{IP: "1.2.3.4", UserID: "user-1"}.Key())
	assert.Equal(t, "1.2.3.4", Identity{IP: "1.2.3.4"}.Key())
}
