package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MKhiriev/chat-guard/internal/config"
	"github.com/MKhiriev/chat-guard/internal/logger"
	"github.com/MKhiriev/chat-guard/internal/metrics"
	"github.com/MKhiriev/chat-guard/internal/store"
	"github.com/MKhiriev/chat-guard/models"
)

// rateLimitService is the concrete implementation of RateLimitService.
//
// Fixed-window throttling over a persisted bucket per (subject, endpoint)
// pair: the first attempt after a window lapses replaces the bucket
// wholesale, every later attempt inside the window increments it. The
// read-then-write pair is not atomic; a burst racing a window boundary can
// land a few attempts over the cap, which is accepted in exchange for O(1)
// state per pair.
type rateLimitService struct {
	// repository is the data-access layer for throttle buckets.
	repository store.RateLimitRepository

	// windowSize is the fixed window length.
	windowSize time.Duration

	// maxRequests is the cap per window.
	maxRequests int

	// metrics records allow/throttle/error decisions.
	metrics *metrics.Metrics

	// now is the clock; injectable for window-boundary tests.
	now func() time.Time

	// logger is the structured logger used for diagnostic and error output.
	logger *logger.Logger
}

// NewRateLimitService constructs a RateLimitService with the window
// parameters from cfg.
//
// The returned service is safe for concurrent use; all state is read-only
// after construction.
func NewRateLimitService(repository store.RateLimitRepository, cfg config.RateLimit, m *metrics.Metrics, logger *logger.Logger) RateLimitService {
	return &rateLimitService{
		repository:  repository,
		windowSize:  cfg.WindowSize,
		maxRequests: cfg.MaxRequests,
		metrics:     m,
		now:         time.Now,
		logger:      logger,
	}
}

// CheckRateLimit records one attempt for (subject, endpoint) and reports
// whether it is allowed.
//
// Cases:
//   - No bucket, or the bucket's window has lapsed → a fresh bucket with
//     count 1 replaces it; allowed.
//   - Bucket live and count below the cap → increment; allowed.
//   - Bucket live and count at the cap → denied with (false, nil).
//
// Fails closed: any storage error returns (false, err) and the gated action
// must not proceed. The non-nil error is what distinguishes a failure from
// an over-limit denial.
func (s *rateLimitService) CheckRateLimit(ctx context.Context, subject, endpoint string) (bool, error) {
	log := logger.FromContext(ctx)
	now := s.now()

	window, err := s.repository.GetWindow(ctx, subject, endpoint)
	if err != nil && !errors.Is(err, store.ErrWindowNotFound) {
		log.Err(err).Str("func", "*rateLimitService.CheckRateLimit").Msg("failed to load throttle bucket")
		s.metrics.RecordRateLimit(endpoint, metrics.DecisionError)
		return false, fmt.Errorf("loading throttle bucket: %w", err)
	}

	if errors.Is(err, store.ErrWindowNotFound) || !now.Before(window.WindowEnd) {
		fresh := models.RateLimitWindow{
			Subject:     subject,
			Endpoint:    endpoint,
			Count:       1,
			WindowStart: now,
			WindowEnd:   now.Add(s.windowSize),
		}
		if err := s.repository.PutWindow(ctx, fresh); err != nil {
			log.Err(err).Str("func", "*rateLimitService.CheckRateLimit").Msg("failed to open throttle window")
			s.metrics.RecordRateLimit(endpoint, metrics.DecisionError)
			return false, fmt.Errorf("opening throttle window: %w", err)
		}

		s.metrics.RecordRateLimit(endpoint, metrics.DecisionAllowed)
		return true, nil
	}

	if window.Count >= s.maxRequests {
		log.Warn().
			Str("subject", subject).
			Str("endpoint", endpoint).
			Time("reset", window.WindowEnd).
			Msg("rate limit exceeded")
		s.metrics.RecordRateLimit(endpoint, metrics.DecisionThrottled)
		return false, nil
	}

	if err := s.repository.IncrementWindow(ctx, subject, endpoint); err != nil {
		log.Err(err).Str("func", "*rateLimitService.CheckRateLimit").Msg("failed to increment throttle bucket")
		s.metrics.RecordRateLimit(endpoint, metrics.DecisionError)
		return false, fmt.Errorf("incrementing throttle bucket: %w", err)
	}

	s.metrics.RecordRateLimit(endpoint, metrics.DecisionAllowed)
	return true, nil
}

// GetRateLimitInfo reports remaining attempts and the reset time for
// (subject, endpoint) without recording an attempt. A missing or lapsed
// bucket reports a full allowance resetting one window from now.
func (s *rateLimitService) GetRateLimitInfo(ctx context.Context, subject, endpoint string) (models.RateLimitInfo, error) {
	log := logger.FromContext(ctx)
	now := s.now()

	window, err := s.repository.GetWindow(ctx, subject, endpoint)
	if err != nil {
		if errors.Is(err, store.ErrWindowNotFound) {
			return models.RateLimitInfo{Remaining: s.maxRequests, ResetTime: now.Add(s.windowSize)}, nil
		}
		log.Err(err).Str("func", "*rateLimitService.GetRateLimitInfo").Msg("failed to load throttle bucket")
		return models.RateLimitInfo{}, fmt.Errorf("loading throttle bucket: %w", err)
	}

	if !now.Before(window.WindowEnd) {
		return models.RateLimitInfo{Remaining: s.maxRequests, ResetTime: now.Add(s.windowSize)}, nil
	}

	remaining := s.maxRequests - window.Count
	if remaining < 0 {
		remaining = 0
	}

	return models.RateLimitInfo{Remaining: remaining, ResetTime: window.WindowEnd}, nil
}
