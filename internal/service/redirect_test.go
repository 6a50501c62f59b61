package service

import (
	"Supernova-Backend/internal/attribution"
	"Supernova-Backend/internal/identity"
	"Supernova-Backend/internal/repository/memory"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// captureSubmitter records submitted attribution jobs.
type captureSubmitter struct {
	jobs []*attribution.Job
}

func (c *captureSubmitter) Submit(job *attribution.Job) error {
	c.jobs = append(c.jobs, job)
	return nil
}

type redirectFixture struct {
	storage   *memory.MemStorage
	guard     *AbuseGuard
	clicks    *ClickService
	submitter *captureSubmitter
	redirects *RedirectService
}

func newRedirectFixture(t *testing.T) *redirectFixture {
	t.Helper()
	storage := memory.New()
	submitter := &captureSubmitter{}
	guard := NewAbuseGuard(storage, &stubVerifier{valid: true}, abuseTestConfig(), zap.NewNop())
	clicks := NewClickService(storage, guard, submitter, zap.NewNop())
	return &redirectFixture{
		storage:   storage,
		guard:     guard,
		clicks:    clicks,
		submitter: submitter,
		redirects: NewRedirectService(storage, clicks, zap.NewNop()),
	}
}

// setNow pins both clocks in the pipeline to the same instant.
func (f *redirectFixture) setNow(at time.Time) {
	f.guard.now = func() time.Time { return at }
	f.clicks.now = func() time.Time { return at }
}

func TestRedirectService_FreshClick(t *testing.T) {
	f := newRedirectFixture(t)
	link := seedLink(t, f.storage, "link-1", "abc123")

	result, err := f.redirects.Resolve(context.Background(), "abc123",
		identity.Identity{IP: "1.2.3.4"}, "Mozilla/5.0", "")

	require.NoError(t, err)
	assert.Equal(t, OutcomeRedirect, result.Outcome)
	assert.Equal(t, "https://example.com/page", result.TargetURL)
	assert.False(t, result.Evaluation.Suspicious)

	// One ledger row, counter incremented, attribution queued.
	count, err := f.storage.CountLinkClicks(context.Background(), link.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, int64(1), link.ClickCount)
	require.Len(t, f.submitter.jobs, 1)
	assert.Equal(t, link.ID, f.submitter.jobs[0].LinkID)
}

func TestRedirectService_RepeatClickInCooldown(t *testing.T) {
	f := newRedirectFixture(t)
	link := seedLink(t, f.storage, "link-1", "abc123")

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	f.setNow(base)

	first, err := f.redirects.Resolve(context.Background(), "abc123",
		identity.Identity{IP: "1.2.3.4"}, "", "")
	require.NoError(t, err)
	require.Equal(t, OutcomeRedirect, first.Outcome)

	f.setNow(base.Add(2 * time.Minute))

	second, err := f.redirects.Resolve(context.Background(), "abc123",
		identity.Identity{IP: "1.2.3.4"}, "", "")
	require.NoError(t, err)
	assert.Equal(t, OutcomeCooldown, second.Outcome)
	assert.Equal(t, 8*time.Minute, second.Evaluation.RetryAfter)

	// The rejected click leaves no trace.
	count, err := f.storage.CountLinkClicks(context.Background(), link.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, int64(1), link.ClickCount)
	assert.Len(t, f.submitter.jobs, 1)
}

func TestRedirectService_UnknownCode(t *testing.T) {
	f := newRedirectFixture(t)

	result, err := f.redirects.Resolve(context.Background(), "missing",
		identity.Identity{IP: "1.2.3.4"}, "", "")

	require.NoError(t, err)
	assert.Equal(t, OutcomeNotFound, result.Outcome)
	assert.Nil(t, result.Evaluation)
	assert.Empty(t, f.submitter.jobs)
}

func TestRedirectService_DeletedLink(t *testing.T) {
	f := newRedirectFixture(t)
	link := seedLink(t, f.storage, "link-1", "abc123")
	link.ClickCount = 42
	require.NoError(t, f.storage.SetLinkDeleted(context.Background(), "abc123", true))

	result, err := f.redirects.Resolve(context.Background(), "abc123",
		identity.Identity{IP: "1.2.3.4"}, "", "")

	require.NoError(t, err)
	assert.Equal(t, OutcomeDeleted, result.Outcome)

	// Soft deletion never touches counters or the ledger.
	assert.Equal(t, int64(42), link.ClickCount)
	count, err := f.storage.CountLinkClicks(context.Background(), link.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
	assert.Empty(t, f.submitter.jobs)
}

func TestRedirectService_CaptchaEscalation(t *testing.T) {
	f := newRedirectFixture(t)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	f.setNow(base)

	for i := 0; i < 10; i++ {
		link := seedLink(t, f.storage, fmt.Sprintf("link-%d", i), fmt.Sprintf("code%d", i))
		seedClick(t, f.storage, link.ID, "9.9.9.9", base)
	}
	target := seedLink(t, f.storage, "link-target", "target")

	t.Run("challenge_without_token", func(t *testing.T) {
		result, err := f.redirects.Resolve(context.Background(), "target",
			identity.Identity{IP: "9.9.9.9"}, "", "")

		require.NoError(t, err)
		assert.Equal(t, OutcomeCaptchaRequired, result.Outcome)
		count, err := f.storage.CountLinkClicks(context.Background(), target.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(0), count)
	})

	t.Run("solved_captcha_redirects", func(t *testing.T) {
		result, err := f.redirects.Resolve(context.Background(), "target",
			identity.Identity{IP: "9.9.9.9"}, "", "solved-token")

		require.NoError(t, err)
		assert.Equal(t, OutcomeRedirect, result.Outcome)
		assert.True(t, result.Evaluation.Suspicious)
	})
}

func TestRedirectService_ClickCarriesIdentity(t *testing.T) {
	f := newRedirectFixture(t)
	link := seedLink(t, f.storage, "link-1", "abc123")

	result, err := f.redirects.Resolve(context.Background(), "abc123",
		identity.Identity{IP: "1.2.3.4", UserID: "user-5", ReferrerUserID: "sharer-9"},
		"Mozilla/5.0 (iPhone; CPU iPhone OS 16_0 like Mac OS X)", "")

	require.NoError(t, err)
	require.Equal(t, OutcomeRedirect, result.Outcome)

	last, err := f.storage.LastClick(context.Background(), link.ID, "user-5", "")
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, "user-5", *last.UserID)
	assert.Equal(t, "1.2.3.4", *last.IPAddress)
	assert.Equal(t, "sharer-9", *last.Referrer)
	assert.Equal(t, "mobile", *last.DeviceType)

	require.Len(t, f.submitter.jobs, 1)
	assert.Equal(t, "sharer-9", f.submitter.jobs[0].ReferrerUserID)
}
