package workers

import (
	"context"
	"sync"
	"time"

	"github.com/MKhiriev/chat-guard/internal/config"
	"github.com/MKhiriev/chat-guard/internal/logger"
)

// VerificationPoller watches freshly registered accounts until the identity
// provider reports their email verified, then reconciles the local record.
//
// Each watched uid gets its own goroutine ticking at a fixed interval with
// a bounded attempt count; the goroutine terminates itself on success, on
// the cap, or when the lifecycle context is cancelled. Watching the same
// uid twice while a poll is in flight is a no-op.
type VerificationPoller struct {
	syncer      VerificationSyncer
	interval    time.Duration
	maxAttempts int
	logger      *logger.Logger

	mu      sync.Mutex
	base    context.Context
	pending map[string]struct{}
}

// NewVerificationPoller constructs a poller with the interval and attempt
// cap from cfg.
func NewVerificationPoller(syncer VerificationSyncer, cfg config.Workers, logger *logger.Logger) *VerificationPoller {
	return &VerificationPoller{
		syncer:      syncer,
		interval:    cfg.VerifyPollInterval,
		maxAttempts: cfg.VerifyMaxAttempts,
		logger:      logger,
		base:        context.Background(),
		pending:     make(map[string]struct{}),
	}
}

// Run implements [Worker]. It captures the lifecycle context under which
// all subsequently started polls run.
func (p *VerificationPoller) Run(ctx context.Context) {
	p.mu.Lock()
	p.base = ctx
	p.mu.Unlock()

	p.logger.Info().
		Dur("interval", p.interval).
		Int("maxAttempts", p.maxAttempts).
		Msg("verification poller ready")
}

// StartPolling begins watching uid. Returns false when a poll for that uid
// is already in flight.
func (p *VerificationPoller) StartPolling(uid string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, inFlight := p.pending[uid]; inFlight {
		return false
	}
	p.pending[uid] = struct{}{}

	go p.poll(p.base, uid)
	return true
}

func (p *VerificationPoller) poll(ctx context.Context, uid string) {
	defer func() {
		p.mu.Lock()
		delete(p.pending, uid)
		p.mu.Unlock()
	}()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		verified, err := p.syncer.SyncVerification(ctx, uid)
		if err != nil {
			// transient provider failures are expected mid-poll
			p.logger.Debug().Err(err).Str("uid", uid).Int("attempt", attempt).Msg("verification sync failed")
			continue
		}
		if verified {
			p.logger.Info().Str("uid", uid).Int("attempts", attempt).Msg("email verified")
			return
		}
	}

	p.logger.Warn().Str("uid", uid).Int("maxAttempts", p.maxAttempts).Msg("verification polling gave up")
}
