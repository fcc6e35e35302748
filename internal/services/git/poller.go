package git

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Poller refreshes the cached status on a fixed interval
type Poller struct {
	service  *Service
	cache    StatusCache
	interval time.Duration
}

func NewPoller(service *Service, cache StatusCache, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Poller{
		service:  service,
		cache:    cache,
		interval: interval,
	}
}

// Run polls immediately and then on every tick until ctx is done
func (p *Poller) Run(ctx context.Context) {
	log.Info().Dur("interval", p.interval).Msg("Starting git status poller")

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.Refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Git status poller stopped")
			return
		case <-ticker.C:
			p.Refresh(ctx)
		}
	}
}

// Refresh fetches the status once and caches it. Failures are logged and
// leave the previous value in place.
func (p *Poller) Refresh(ctx context.Context) {
	status, err := p.service.Status(ctx)
	if err != nil {
		if ctx.Err() == nil {
			log.Warn().Err(err).Msg("Failed to refresh git status")
		}
		return
	}

	if err := p.cache.Store(ctx, status); err != nil {
		log.Error().Err(err).Msg("Failed to cache git status")
	}
}

// CachedStatus serves the last polled status, fetching it directly when the
// cache is still empty
func (p *Poller) CachedStatus(ctx context.Context) (Status, error) {
	status, ok, err := p.cache.Load(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read cached git status")
	}
	if ok {
		return status, nil
	}

	status, err = p.service.Status(ctx)
	if err != nil {
		return Status{}, err
	}
	if err := p.cache.Store(ctx, status); err != nil {
		log.Error().Err(err).Msg("Failed to cache git status")
	}
	return status, nil
}
