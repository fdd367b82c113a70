// Package source defines where raw signal text comes from. A Fetcher is one
// channel's feed; the scan pipeline fans out over all registered fetchers in
// parallel with a per-fetch timeout.
package source

import (
	"context"
	"time"
)

// RawMessage is one unprocessed posting from a channel.
type RawMessage struct {
	Channel  string
	Text     string
	PostedAt time.Time
}

type HealthStatus struct {
	Status      string
	LastFetchAt *time.Time
	LastError   *string
}

// Fetcher pulls the messages posted since the previous fetch. Fetch must
// honor ctx cancellation; a failed fetch contributes nothing to the batch
// and does not abort the scan.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context) ([]RawMessage, error)
	Health() HealthStatus
}
