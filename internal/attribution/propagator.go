package attribution

import (
	"Supernova-Backend/internal/domain"
	"Supernova-Backend/internal/repository"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Job is a single attribution unit: the link that was clicked and, when the
// URL carried a utm_ref tag, the user whose shared copy was used.
type Job struct {
	LinkID         string
	ReferrerUserID string
}

// Config holds configuration for the propagation worker pool.
type Config struct {
	WorkerCount     int
	BufferSize      int
	RetryAttempts   int
	RetryDelay      time.Duration
	ShutdownTimeout time.Duration
}

// DefaultConfig returns sensible default configuration
func DefaultConfig() Config {
	return Config{
		WorkerCount:     3,
		BufferSize:      1000,
		RetryAttempts:   3,
		RetryDelay:      time.Second,
		ShutdownTimeout: 30 * time.Second,
	}
}

// Propagator credits clicks on forwarded links up the ownership chain to the
// referring user's LinkReference. It runs as a fire-and-forget worker pool:
// the redirect never waits on attribution, and failures here are retried and
// ultimately dropped rather than surfaced to the clicker.
type Propagator struct {
	config   Config
	storage  repository.Storage
	log      *zap.Logger
	jobQueue chan *Job
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
	started  bool
	mu       sync.RWMutex
}

// NewPropagator creates a new attribution propagator.
func NewPropagator(storage repository.Storage, log *zap.Logger, config Config) *Propagator {
	ctx, cancel := context.WithCancel(context.Background())

	return &Propagator{
		config:   config,
		storage:  storage,
		log:      log,
		jobQueue: make(chan *Job, config.BufferSize),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start begins processing attribution jobs.
func (p *Propagator) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return fmt.Errorf("propagator already started")
	}

	p.log.Info("starting attribution propagator",
		zap.Int("workers", p.config.WorkerCount),
		zap.Int("buffer_size", p.config.BufferSize),
		zap.Int("retry_attempts", p.config.RetryAttempts),
	)

	for i := 0; i < p.config.WorkerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	p.started = true
	return nil
}

// Stop gracefully shuts down the propagator, draining queued jobs until the
// shutdown timeout.
func (p *Propagator) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return fmt.Errorf("propagator not started")
	}

	p.log.Info("stopping attribution propagator")

	p.cancel()
	close(p.jobQueue)

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.log.Info("attribution propagator stopped gracefully")
	case <-time.After(p.config.ShutdownTimeout):
		p.log.Warn("attribution propagator shutdown timeout reached")
		return fmt.Errorf("shutdown timeout reached")
	}

	p.started = false
	return nil
}

// Submit queues a job for asynchronous propagation. A full queue drops the
// job: attribution is eventually consistent and must never block a redirect.
func (p *Propagator) Submit(job *Job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.started {
		return fmt.Errorf("propagator not started")
	}

	select {
	case p.jobQueue <- job:
		p.log.Debug("attribution job submitted", zap.String("link_id", job.LinkID))
		return nil
	case <-p.ctx.Done():
		return fmt.Errorf("propagator is shutting down")
	default:
		p.log.Error("attribution queue is full, dropping job",
			zap.String("link_id", job.LinkID),
			zap.Int("queue_size", len(p.jobQueue)),
		)
		return fmt.Errorf("attribution queue is full")
	}
}

func (p *Propagator) worker(workerID int) {
	defer p.wg.Done()

	log := p.log.With(zap.Int("worker_id", workerID))
	log.Info("attribution worker started")

	for {
		select {
		case job := <-p.jobQueue:
			if job == nil {
				log.Info("attribution worker stopped")
				return
			}
			p.propagateWithRetry(log, job)

		case <-p.ctx.Done():
			log.Info("attribution worker received shutdown signal")
			return
		}
	}
}

// propagateWithRetry retries transient failures with exponential backoff.
// After the final attempt the job is logged and dropped, never re-raised.
func (p *Propagator) propagateWithRetry(log *zap.Logger, job *Job) {
	var lastErr error

	for attempt := 1; attempt <= p.config.RetryAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(p.ctx, 30*time.Second)
		err := p.Propagate(ctx, job)
		cancel()

		if err == nil {
			if attempt > 1 {
				log.Info("attribution succeeded after retry",
					zap.String("link_id", job.LinkID),
					zap.Int("attempt", attempt),
				)
			}
			return
		}

		lastErr = err
		log.Warn("attribution attempt failed",
			zap.String("link_id", job.LinkID),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", p.config.RetryAttempts),
			zap.Error(err),
		)

		if attempt == p.config.RetryAttempts {
			break
		}

		delay := p.config.RetryDelay * time.Duration(1<<(attempt-1))
		select {
		case <-time.After(delay):
		case <-p.ctx.Done():
			log.Info("worker shutdown during retry delay")
			return
		}
	}

	log.Error("attribution failed after all retries",
		zap.String("link_id", job.LinkID),
		zap.Int("attempts", p.config.RetryAttempts),
		zap.Error(lastErr),
	)
}

// Propagate walks the ownership chain for one accepted click.
//
// Two paths lead to a credited reference:
//   - the clicked link is a forwarded copy (owner differs from the stamped
//     creator): the owner is the referrer and the creator's canonical link
//     gets the companion counter increment;
//   - the clicked link is the canonical one but the URL carried a utm_ref
//     tag naming another user: that user is the referrer.
//
// When no reference exists yet it is lazily created seeded with one click;
// a concurrent create losing the unique-index race falls back to
// incrementing the winner.
func (p *Propagator) Propagate(ctx context.Context, job *Job) error {
	link, err := p.storage.GetLinkByID(ctx, job.LinkID)
	if err != nil {
		return fmt.Errorf("failed to fetch clicked link: %w", err)
	}

	referrerID := ""
	canonical := link

	if link.IsForwarded() {
		referrerID = link.UserID

		if canon, err := p.storage.FindCreatorLink(ctx, link.OriginalURL, link.CreatorID); err == nil {
			canonical = canon
			if err := p.storage.IncrementLinkClicks(ctx, canonical.ID); err != nil {
				p.log.Warn("failed to increment canonical link counter",
					zap.String("link_id", canonical.ID), zap.Error(err))
			}
		} else if !errors.Is(err, repository.ErrLinkNotFound) {
			return fmt.Errorf("failed to locate canonical link: %w", err)
		}
	} else if job.ReferrerUserID != "" && job.ReferrerUserID != link.UserID {
		referrerID = job.ReferrerUserID
	}

	if referrerID == "" {
		// Creator clicked through their own link; nothing to credit.
		return nil
	}

	ref, err := p.storage.GetLinkRef(ctx, referrerID, canonical.ID)
	if errors.Is(err, repository.ErrRefNotFound) {
		ref, err = p.storage.GetLinkRefByShortCode(ctx, referrerID, link.ShortCode)
	}
	if err != nil && !errors.Is(err, repository.ErrRefNotFound) {
		return fmt.Errorf("failed to look up link ref: %w", err)
	}

	if ref != nil {
		if err := p.storage.IncrementRefClicks(ctx, ref.ID); err != nil {
			return fmt.Errorf("failed to increment ref counter: %w", err)
		}
		p.log.Debug("credited existing link ref",
			zap.String("ref_id", ref.ID),
			zap.String("referrer_id", referrerID))
		return nil
	}

	// First attributed click from this referrer: materialize the reference.
	newRef := &domain.LinkRef{
		ID:              uuid.NewString(),
		UserID:          referrerID,
		OriginalLinkID:  canonical.ID,
		OriginalURL:     canonical.OriginalURL,
		ShortCode:       link.ShortCode,
		UTMParam:        referrerID,
		ClickCount:      1,
		PageTitle:       canonical.PageTitle,
		PageDescription: canonical.PageDescription,
		PageImage:       canonical.PageImage,
		PageFavicon:     canonical.PageFavicon,
	}

	err = p.storage.CreateLinkRef(ctx, newRef)
	if errors.Is(err, repository.ErrRefExists) {
		// Lost the create race; credit the row that won.
		winner, err := p.storage.GetLinkRef(ctx, referrerID, canonical.ID)
		if err != nil {
			return fmt.Errorf("failed to fetch ref after conflict: %w", err)
		}
		if err := p.storage.IncrementRefClicks(ctx, winner.ID); err != nil {
			return fmt.Errorf("failed to increment ref after conflict: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to create link ref: %w", err)
	}

	p.log.Info("materialized link ref from first attributed click",
		zap.String("ref_id", newRef.ID),
		zap.String("referrer_id", referrerID),
		zap.String("original_link_id", canonical.ID))
	return nil
}

// Stats returns propagator queue statistics.
func (p *Propagator) Stats() map[string]interface{} {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return map[string]interface{}{
		"started":        p.started,
		"queue_length":   len(p.jobQueue),
		"queue_capacity": cap(p.jobQueue),
		"worker_count":   p.config.WorkerCount,
	}
}
