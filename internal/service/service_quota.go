package service

import (
	"context"
	"fmt"
	"time"

	"github.com/MKhiriev/chat-guard/internal/config"
	"github.com/MKhiriev/chat-guard/internal/logger"
	"github.com/MKhiriev/chat-guard/internal/metrics"
	"github.com/MKhiriev/chat-guard/internal/store"
)

// quotaService is the concrete implementation of QuotaService.
//
// The counter resets lazily: nothing fires at midnight. The first read
// after a local calendar-day boundary zeroes the persisted counter, so it
// resets at most once per day regardless of how many readers race the
// boundary (the extra zero-writes are idempotent).
type quotaService struct {
	// userRepository owns the persisted counter.
	userRepository store.UserRepository

	// cache mirrors counter mutations onto the cached current user.
	cache *sessionCache

	// defaultLimit applies when a user record carries no positive limit.
	defaultLimit int

	// metrics records allow/exceed/error decisions.
	metrics *metrics.Metrics

	// now is the clock; injectable so tests can cross day boundaries.
	now func() time.Time

	// logger is the structured logger used for diagnostic and error output.
	logger *logger.Logger
}

// NewQuotaService constructs a QuotaService with the default daily limit
// from cfg.
func NewQuotaService(userRepository store.UserRepository, cache *sessionCache, cfg config.Quota, m *metrics.Metrics, logger *logger.Logger) QuotaService {
	return &quotaService{
		userRepository: userRepository,
		cache:          cache,
		defaultLimit:   cfg.DefaultUsageLimit,
		metrics:        m,
		now:            time.Now,
		logger:         logger,
	}
}

// CheckChatLimit reports whether userID may start another chat today.
//
// Fails closed: if the user cannot be loaded or the day-boundary reset
// cannot be persisted, the chat must not proceed and the error is returned
// alongside false.
func (s *quotaService) CheckChatLimit(ctx context.Context, userID string) (bool, error) {
	log := logger.FromContext(ctx)

	count, limit, err := s.loadUsage(ctx, userID)
	if err != nil {
		log.Err(err).Str("func", "*quotaService.CheckChatLimit").Msg("failed to load chat usage")
		s.metrics.RecordQuota(metrics.DecisionError)
		return false, err
	}

	if count >= limit {
		log.Info().Str("userID", userID).Int("count", count).Int("limit", limit).Msg("daily chat limit reached")
		s.metrics.RecordQuota(metrics.DecisionExceeded)
		return false, nil
	}

	s.metrics.RecordQuota(metrics.DecisionAllowed)
	return true, nil
}

// IncrementChatUsage records one consumed chat action. A spent allowance
// is refused with [ErrQuotaExceeded] before anything is written, so the
// persisted counter never runs past the limit. The addition itself is
// atomic at the storage layer and the new count is mirrored onto the
// cached current user when present.
func (s *quotaService) IncrementChatUsage(ctx context.Context, userID string) error {
	log := logger.FromContext(ctx)

	current, limit, err := s.loadUsage(ctx, userID)
	if err != nil {
		log.Err(err).Str("func", "*quotaService.IncrementChatUsage").Msg("failed to load chat usage")
		s.metrics.RecordQuota(metrics.DecisionError)
		return err
	}
	if current >= limit {
		log.Info().Str("userID", userID).Int("count", current).Int("limit", limit).Msg("daily chat limit reached")
		s.metrics.RecordQuota(metrics.DecisionExceeded)
		return ErrQuotaExceeded
	}

	count, err := s.userRepository.IncrementChatUsage(ctx, userID)
	if err != nil {
		log.Err(err).Str("func", "*quotaService.IncrementChatUsage").Msg("failed to increment chat usage")
		return fmt.Errorf("incrementing chat usage: %w", err)
	}

	s.cache.bumpChatCount(userID, count)
	return nil
}

// RemainingChats reports how many chats userID has left today, never
// negative. Always computed from a fresh load, never the cache.
func (s *quotaService) RemainingChats(ctx context.Context, userID string) (int, error) {
	log := logger.FromContext(ctx)

	count, limit, err := s.loadUsage(ctx, userID)
	if err != nil {
		log.Err(err).Str("func", "*quotaService.RemainingChats").Msg("failed to load chat usage")
		return 0, err
	}

	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}

	return remaining, nil
}

// loadUsage fetches the user's counter and limit, applying the lazy
// day-boundary reset first.
func (s *quotaService) loadUsage(ctx context.Context, userID string) (count, limit int, err error) {
	user, err := s.userRepository.GetUser(ctx, userID)
	if err != nil {
		return 0, 0, fmt.Errorf("loading user for quota check: %w", err)
	}

	now := s.now()
	count = user.ChatUsage.Count

	if isNewDay(user.ChatUsage.LastReset, now) {
		if err := s.userRepository.ResetChatUsage(ctx, userID, now); err != nil {
			return 0, 0, fmt.Errorf("resetting daily chat usage: %w", err)
		}
		s.cache.resetChatCount(userID, now)
		count = 0
	}

	limit = user.UsageLimit
	if limit <= 0 {
		limit = s.defaultLimit
	}

	return count, limit, nil
}

// isNewDay reports whether now falls on a different local calendar day
// than lastReset. Calendar comparison, not elapsed duration: 23:59 to 00:01
// is a new day, 26 hours inside the same date is not.
func isNewDay(lastReset, now time.Time) bool {
	ly, lm, ld := lastReset.Local().Date()
	ny, nm, nd := now.Local().Date()
	return ly != ny || lm != nm || ld != nd
}
