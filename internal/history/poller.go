package history

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultPollInterval matches the dashboard refresh cadence
const DefaultPollInterval = 10 * time.Second

// Fetcher loads history from a remote authority, newest first
type Fetcher interface {
	Fetch(ctx context.Context) ([]Event, error)
}

// HTTPFetcher reads a JSON array of events from a URL
type HTTPFetcher struct {
	url    string
	client *http.Client
}

// NewHTTPFetcher creates an HTTPFetcher with a default client
func NewHTTPFetcher(url string) *HTTPFetcher {
	return &HTTPFetcher{
		url: url,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// NewHTTPFetcherWithClient creates an HTTPFetcher with a custom client
func NewHTTPFetcherWithClient(url string, client *http.Client) *HTTPFetcher {
	return &HTTPFetcher{url: url, client: client}
}

// Fetch GETs and decodes the history
func (f *HTTPFetcher) Fetch(ctx context.Context) ([]Event, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create history request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("history request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("history endpoint returned %d", resp.StatusCode)
	}

	var events []Event
	if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
		return nil, fmt.Errorf("decode history response: %w", err)
	}
	return events, nil
}

// Poller keeps a Store in sync with a remote history. A failed fetch
// leaves the store as it was.
type Poller struct {
	store    *Store
	fetcher  Fetcher
	interval time.Duration
	onSync   func(n int, err error)
}

// NewPoller creates a Poller. A non-positive interval uses the default.
func NewPoller(store *Store, fetcher Fetcher, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{store: store, fetcher: fetcher, interval: interval}
}

// OnSync registers fn to run after every poll with the number of events
// received, or the fetch error. Call before Run.
func (p *Poller) OnSync(fn func(n int, err error)) {
	p.onSync = fn
}

// Poll fetches once and replaces the store's contents on success
func (p *Poller) Poll(ctx context.Context) error {
	events, err := p.fetcher.Fetch(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("History fetch failed, keeping previous view")
	} else {
		p.store.Replace(events)
		log.Debug().Int("events", len(events)).Msg("History synced")
	}
	if p.onSync != nil {
		p.onSync(len(events), err)
	}
	return err
}

// Run polls immediately and then on every tick until ctx is cancelled
func (p *Poller) Run(ctx context.Context) error {
	_ = p.Poll(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			_ = p.Poll(ctx)
		}
	}
}
