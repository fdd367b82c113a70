package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
)

// wireMessage is the JSON shape the HTTP feed endpoint returns, one element
// per posting.
type wireMessage struct {
	Channel  string    `json:"channel"`
	Text     string    `json:"text"`
	PostedAt time.Time `json:"posted_at"`
}

// HTTPJSONFetcher polls a REST endpoint that returns a JSON array of
// postings. Incremental fetching uses the `since` query parameter with the
// high-water mark of the previous batch.
type HTTPJSONFetcher struct {
	HTTP *http.Client

	ChannelName string
	Endpoint    string

	mu        sync.Mutex
	since     time.Time
	lastFetch *time.Time
	lastError *string
	status    string
}

func NewHTTPJSONFetcher(channel, endpoint string, client *http.Client) *HTTPJSONFetcher {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &HTTPJSONFetcher{
		HTTP:        client,
		ChannelName: channel,
		Endpoint:    endpoint,
		status:      "unknown",
	}
}

func (f *HTTPJSONFetcher) Name() string { return f.ChannelName }

func (f *HTTPJSONFetcher) Fetch(ctx context.Context) ([]RawMessage, error) {
	now := time.Now().UTC()

	f.mu.Lock()
	since := f.since
	f.mu.Unlock()

	endpoint := strings.TrimSpace(f.Endpoint)
	if endpoint == "" {
		err := fmt.Errorf("missing endpoint")
		f.setHealth(now, "down", err)
		return nil, err
	}
	if !since.IsZero() {
		sep := "?"
		if strings.Contains(endpoint, "?") {
			sep = "&"
		}
		endpoint += sep + "since=" + since.Format(time.RFC3339)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		f.setHealth(now, "down", err)
		return nil, err
	}
	resp, err := f.HTTP.Do(req)
	if err != nil {
		f.setHealth(now, "down", err)
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("http %d", resp.StatusCode)
		f.setHealth(now, "down", err)
		return nil, err
	}

	var wire []wireMessage
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		f.setHealth(now, "down", err)
		return nil, err
	}

	out := make([]RawMessage, 0, len(wire))
	mark := since
	for _, w := range wire {
		text := strings.TrimSpace(w.Text)
		if text == "" {
			continue
		}
		channel := w.Channel
		if channel == "" {
			channel = f.ChannelName
		}
		out = append(out, RawMessage{Channel: channel, Text: text, PostedAt: w.PostedAt})
		if w.PostedAt.After(mark) {
			mark = w.PostedAt
		}
	}

	f.mu.Lock()
	f.since = mark
	f.mu.Unlock()
	f.setHealth(now, "healthy", nil)
	return out, nil
}

func (f *HTTPJSONFetcher) Health() HealthStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return HealthStatus{Status: f.status, LastFetchAt: f.lastFetch, LastError: f.lastError}
}

func (f *HTTPJSONFetcher) setHealth(ts time.Time, status string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastFetch = &ts
	f.status = status
	if err != nil {
		msg := err.Error()
		f.lastError = &msg
	} else {
		f.lastError = nil
	}
}
