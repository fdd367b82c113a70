package source

import (
	"context"
	"sync"
	"time"
)

// StaticFetcher serves a fixed queue of messages and drains as it is
// fetched. It backs the ingest API endpoint and tests; production feeds use
// HTTPJSONFetcher.
type StaticFetcher struct {
	ChannelName string

	mu        sync.Mutex
	queue     []RawMessage
	lastFetch *time.Time
}

func NewStaticFetcher(channel string, msgs ...RawMessage) *StaticFetcher {
	return &StaticFetcher{ChannelName: channel, queue: msgs}
}

func (f *StaticFetcher) Name() string { return f.ChannelName }

// Push queues messages for the next fetch.
func (f *StaticFetcher) Push(msgs ...RawMessage) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queue = append(f.queue, msgs...)
}

func (f *StaticFetcher) Fetch(ctx context.Context) ([]RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.queue
	f.queue = nil
	f.lastFetch = &now
	return out, nil
}

func (f *StaticFetcher) Health() HealthStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return HealthStatus{Status: "healthy", LastFetchAt: f.lastFetch}
}
