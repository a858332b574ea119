package rules

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

// Provider holds the most recently loaded catalog. A failed refresh keeps
// the previous catalog in force, so classification never stops working
// because a rules source went away.
type Provider struct {
	source  Source
	current atomic.Pointer[Catalog]

	mu       sync.Mutex
	onReload func(c *Catalog, err error)
}

// NewProvider creates a provider seeded with initial. A nil initial seeds
// the empty catalog.
func NewProvider(source Source, initial *Catalog) *Provider {
	if initial == nil {
		initial = Empty()
	}
	p := &Provider{source: source}
	p.current.Store(initial)
	return p
}

// OnReload registers a callback invoked after every refresh attempt.
// err is nil when the catalog was replaced.
func (p *Provider) OnReload(fn func(c *Catalog, err error)) {
	p.mu.Lock()
	p.onReload = fn
	p.mu.Unlock()
}

// Catalog returns the catalog currently in force
func (p *Provider) Catalog() *Catalog {
	return p.current.Load()
}

// Source returns the configured source, or nil
func (p *Provider) Source() Source {
	return p.source
}

// Refresh fetches and compiles the source. On any failure the current
// catalog is left untouched and the error is returned for logging.
func (p *Provider) Refresh(ctx context.Context) error {
	if p.source == nil {
		return nil
	}

	records, err := p.source.Fetch(ctx)
	var c *Catalog
	if err == nil {
		c, err = NewCatalog(records)
	}

	if err != nil {
		log.Warn().Err(err).Str("source", p.source.Name()).Msg("Rule catalog refresh failed, keeping previous catalog")
	} else {
		p.current.Store(c)
		log.Info().Str("source", p.source.Name()).Int("rules", c.Len()).Msg("Rule catalog loaded")
	}

	p.mu.Lock()
	fn := p.onReload
	p.mu.Unlock()
	if fn != nil {
		fn(p.Catalog(), err)
	}
	return err
}

// Run refreshes on every tick until ctx is cancelled. A zero interval
// returns immediately.
func (p *Provider) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 || p.source == nil {
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			_ = p.Refresh(ctx)
		}
	}
}
