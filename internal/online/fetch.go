package online

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"media-librarian/internal/logging"
	"media-librarian/internal/metrics"
)

// LoadMode is the fetch depth setting for online ingestion.
type LoadMode string

const (
	// LoadModeAsNeeded caps pagination low for interactive browsing.
	LoadModeAsNeeded LoadMode = "asNeeded"
	// LoadModePreload paginates deeper, with a delay between pages so the
	// remote source is not hammered.
	LoadModePreload LoadMode = "preload"
)

// Fetch error codes. These are returned as data alongside partial results,
// never as Go errors, because partial pagination success is meaningful.
const (
	ErrCodeNetwork     = "network_error"
	ErrCodeInvalidJSON = "invalid_json"
	ErrCodeInvalidXML  = "invalid_xml"
	ErrCodeInvalidURL  = "invalid_url"
)

// httpErrorCode renders a non-2xx status as an "http_<status>" error code.
func httpErrorCode(status int) string {
	return fmt.Sprintf("http_%d", status)
}

// PostMedia is one media URL extracted from a post.
type PostMedia struct {
	URL     string `json:"url"`
	IsVideo bool   `json:"isVideo"`
}

// Post is one remote post with its extracted media. Posts without media are
// never surfaced past the fetch adapters.
type Post struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	User        string      `json:"user"`
	PublishedAt time.Time   `json:"publishedAt,omitempty"`
	Media       []PostMedia `json:"media"`
}

// ResponseLog records one page fetch for observability, success or not.
type ResponseLog struct {
	URL         string `json:"url"`
	Page        int    `json:"page"`
	Status      int    `json:"status"`
	Parsed      bool   `json:"parsed"`
	BodyPreview string `json:"bodyPreview"`
	ByteCount   int    `json:"byteCount"`
	Truncated   bool   `json:"truncated"`
}

// FetchResult carries the collected posts, the per-page response log, and an
// optional error code. ErrorCode is set when pagination aborted early; the
// posts gathered before the failure are still present.
type FetchResult struct {
	Posts     []Post        `json:"posts"`
	Log       []ResponseLog `json:"log"`
	ErrorCode string        `json:"errorCode,omitempty"`
}

// Doer is the HTTP transport surface, satisfied by *http.Client and by test
// fakes.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

const (
	// userAgent is the conventional browser-like agent some sources require.
	userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15"

	// bodyPreviewLimit caps logged body previews.
	bodyPreviewLimit = 512

	// defaultPageDelay spaces preload-mode page fetches.
	defaultPageDelay = 250 * time.Millisecond
)

// Fetcher paginates remote listings into normalized posts. Page fetches
// within one profile are strictly sequential; cursors depend on the prior
// page.
type Fetcher struct {
	client    Doer
	pageDelay time.Duration
}

// NewFetcher creates a Fetcher. A nil client falls back to a default
// http.Client with a sane timeout.
func NewFetcher(client Doer) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Fetcher{client: client, pageDelay: defaultPageDelay}
}

// SetPageDelay overrides the preload inter-page delay. Used by tests.
func (f *Fetcher) SetPageDelay(d time.Duration) {
	f.pageDelay = d
}

// pageCap returns how many pages one fetch may request.
func pageCap(service Service, mode LoadMode) int {
	if mode == LoadModePreload {
		switch service {
		case ServiceDeviantArt:
			return 6
		default:
			return 8
		}
	}
	switch service {
	case ServiceDeviantArt:
		return 1
	default:
		return 2
	}
}

// Fetch paginates the descriptor's listing endpoint and returns normalized,
// deduplicated posts. A non-2xx page, a parse failure, or a network failure
// stops pagination and sets the matching error code while keeping whatever
// posts earlier pages produced.
func (f *Fetcher) Fetch(ctx context.Context, desc Descriptor, mode LoadMode) FetchResult {
	var result FetchResult
	switch desc.Service {
	case ServiceReddit:
		result = f.fetchReddit(ctx, desc, mode)
	case ServiceDeviantArt:
		result = f.fetchRSS(ctx, desc, mode)
	case ServiceCustom:
		result = f.fetchCustom(ctx, desc, mode)
	default:
		result = FetchResult{ErrorCode: ErrCodeInvalidURL}
	}

	metrics.OnlinePostsFetched.WithLabelValues(desc.ServiceName).Add(float64(len(result.Posts)))
	logging.Debug("fetch %s: %d posts, %d pages, errorCode=%q",
		desc.ProfileKey(), len(result.Posts), len(result.Log), result.ErrorCode)
	return result
}

// getPage performs one page request. The returned log entry is recorded by
// the caller after the parse attempt sets Parsed; errCode is empty on a 2xx
// response.
func (f *Fetcher) getPage(ctx context.Context, desc Descriptor, pageURL string, page int) (body []byte, entry ResponseLog, errCode string) {
	entry = ResponseLog{URL: pageURL, Page: page}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		metrics.OnlinePagesFetched.WithLabelValues(desc.ServiceName, "error").Inc()
		return nil, entry, ErrCodeNetwork
	}
	req.Header.Set("User-Agent", userAgent)
	// Always bypass local HTTP caches; cursors must reflect live state.
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := f.client.Do(req)
	if err != nil {
		logging.Warn("page fetch failed for %s: %v", pageURL, err)
		metrics.OnlinePagesFetched.WithLabelValues(desc.ServiceName, "error").Inc()
		return nil, entry, ErrCodeNetwork
	}
	defer resp.Body.Close()

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		metrics.OnlinePagesFetched.WithLabelValues(desc.ServiceName, "error").Inc()
		return nil, entry, ErrCodeNetwork
	}

	entry.Status = resp.StatusCode
	entry.ByteCount = len(body)
	if len(body) > bodyPreviewLimit {
		entry.BodyPreview = string(body[:bodyPreviewLimit])
		entry.Truncated = true
	} else {
		entry.BodyPreview = string(body)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.OnlinePagesFetched.WithLabelValues(desc.ServiceName, "error").Inc()
		return body, entry, httpErrorCode(resp.StatusCode)
	}

	metrics.OnlinePagesFetched.WithLabelValues(desc.ServiceName, "success").Inc()
	return body, entry, ""
}

// interPageDelay sleeps between preload-mode pages, honoring cancellation.
func (f *Fetcher) interPageDelay(ctx context.Context, mode LoadMode) error {
	if mode != LoadModePreload || f.pageDelay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(f.pageDelay):
		return nil
	}
}
