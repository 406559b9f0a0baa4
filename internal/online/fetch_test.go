package online

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"testing"
)

// fakeDoer serves canned responses keyed by substring match on the request
// URL, recording every URL it sees.
type fakeDoer struct {
	responses map[string]fakeResponse
	requests  []string
}

type fakeResponse struct {
	status int
	body   string
}

func (f *fakeDoer) Do(req *http.Request) (*http.Response, error) {
	f.requests = append(f.requests, req.URL.String())
	keys := make([]string, 0, len(f.responses))
	for key := range f.responses {
		keys = append(keys, key)
	}
	// Longest key first so the most specific match wins.
	sort.Slice(keys, func(i, j int) bool { return len(keys[i]) > len(keys[j]) })
	for _, key := range keys {
		if strings.Contains(req.URL.String(), key) {
			resp := f.responses[key]
			status := resp.status
			if status == 0 {
				status = http.StatusOK
			}
			return &http.Response{
				StatusCode: status,
				Body:       io.NopCloser(strings.NewReader(resp.body)),
			}, nil
		}
	}
	return nil, fmt.Errorf("no canned response for %s", req.URL)
}

func newTestFetcher(d Doer) *Fetcher {
	f := NewFetcher(d)
	f.SetPageDelay(0)
	return f
}

func redditDesc() Descriptor {
	return Descriptor{
		Service:     ServiceReddit,
		ServiceName: "reddit",
		UserID:      "jane",
		Origin:      "https://www.reddit.com",
	}
}

func TestFetchRedditStopsOnEmptyPage(t *testing.T) {
	doer := &fakeDoer{responses: map[string]fakeResponse{
		"submitted.json": {body: `{"data":{"after":"","children":[]}}`},
	}}

	result := newTestFetcher(doer).Fetch(context.Background(), redditDesc(), LoadModePreload)

	if result.ErrorCode != "" {
		t.Fatalf("errorCode = %q, want none", result.ErrorCode)
	}
	if len(result.Posts) != 0 {
		t.Errorf("got %d posts, want 0", len(result.Posts))
	}
	if len(doer.requests) != 1 {
		t.Errorf("made %d requests, want 1 (no second page after empty first)", len(doer.requests))
	}
}

func TestFetchRedditExtractsMediaCandidates(t *testing.T) {
	body := `{"data":{"after":"","children":[
		{"data":{
			"id":"p1","title":"direct","author":"jane","created_utc":1700000000,
			"url":"https://i.redd.it/direct.jpg"
		}},
		{"data":{
			"id":"p2","title":"video","author":"jane","created_utc":1700000100,
			"url":"https://v.redd.it/abcd",
			"media":{"reddit_video":{"fallback_url":"https://v.redd.it/abcd/DASH_720.mp4"}}
		}},
		{"data":{
			"id":"p3","title":"gallery","author":"jane","created_utc":1700000200,
			"url":"https://www.reddit.com/gallery/p3",
			"gallery_data":{"items":[{"media_id":"m1"},{"media_id":"m2"}]},
			"media_metadata":{
				"m1":{"s":{"u":"https://i.redd.it/m1.jpg"}},
				"m2":{"s":{"mp4":"https://i.redd.it/m2.mp4"}}
			}
		}},
		{"data":{
			"id":"p4","title":"no media","author":"jane",
			"url":"https://www.reddit.com/r/pics/comments/p4/"
		}}
	]}}`

	doer := &fakeDoer{responses: map[string]fakeResponse{
		"submitted.json": {body: body},
	}}

	result := newTestFetcher(doer).Fetch(context.Background(), redditDesc(), LoadModeAsNeeded)

	if result.ErrorCode != "" {
		t.Fatalf("errorCode = %q, want none", result.ErrorCode)
	}
	if len(result.Posts) != 3 {
		t.Fatalf("got %d posts, want 3 (the link-only post has no media)", len(result.Posts))
	}

	byID := map[string]Post{}
	for _, p := range result.Posts {
		byID[p.ID] = p
	}
	if !byID["p2"].Media[0].IsVideo {
		t.Errorf("fallback_url media should be video")
	}
	if len(byID["p3"].Media) != 2 {
		t.Errorf("gallery post: got %d media, want 2", len(byID["p3"].Media))
	}
	if byID["p1"].PublishedAt.IsZero() {
		t.Errorf("created_utc should populate publishedAt")
	}
}

func TestFetchRedditPaginatesWithAfterCursor(t *testing.T) {
	page1 := `{"data":{"after":"t3_cursor","children":[
		{"data":{"id":"a","title":"one","author":"jane","url":"https://i.redd.it/a.jpg"}}
	]}}`
	page2 := `{"data":{"after":"","children":[
		{"data":{"id":"b","title":"two","author":"jane","url":"https://i.redd.it/b.jpg"}}
	]}}`

	doer := &fakeDoer{responses: map[string]fakeResponse{
		"after=t3_cursor": {body: page2},
		"submitted.json":  {body: page1},
	}}

	result := newTestFetcher(doer).Fetch(context.Background(), redditDesc(), LoadModePreload)

	if len(result.Posts) != 2 {
		t.Fatalf("got %d posts, want 2 across pages", len(result.Posts))
	}
	if len(doer.requests) != 2 {
		t.Fatalf("made %d requests, want 2", len(doer.requests))
	}
	if !strings.Contains(doer.requests[1], "after=t3_cursor") {
		t.Errorf("second request should carry the after cursor, got %s", doer.requests[1])
	}
}

func TestFetchRedditErrorCodes(t *testing.T) {
	tests := []struct {
		name     string
		response fakeResponse
		wantCode string
	}{
		{
			name:     "http status error",
			response: fakeResponse{status: http.StatusNotFound, body: "gone"},
			wantCode: "http_404",
		},
		{
			name:     "invalid json",
			response: fakeResponse{body: "<html>rate limited</html>"},
			wantCode: ErrCodeInvalidJSON,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doer := &fakeDoer{responses: map[string]fakeResponse{
				"submitted.json": tt.response,
			}}

			result := newTestFetcher(doer).Fetch(context.Background(), redditDesc(), LoadModeAsNeeded)

			if result.ErrorCode != tt.wantCode {
				t.Errorf("errorCode = %q, want %q", result.ErrorCode, tt.wantCode)
			}
			if len(result.Log) != 1 {
				t.Fatalf("got %d log entries, want 1", len(result.Log))
			}
			if result.Log[0].Parsed {
				t.Errorf("failed page should not be marked parsed")
			}
		})
	}
}

func TestFetchLogsResponsePreview(t *testing.T) {
	long := strings.Repeat("x", bodyPreviewLimit+100)
	doer := &fakeDoer{responses: map[string]fakeResponse{
		"submitted.json": {body: long},
	}}

	result := newTestFetcher(doer).Fetch(context.Background(), redditDesc(), LoadModeAsNeeded)

	entry := result.Log[0]
	if len(entry.BodyPreview) != bodyPreviewLimit {
		t.Errorf("preview length = %d, want capped at %d", len(entry.BodyPreview), bodyPreviewLimit)
	}
	if !entry.Truncated {
		t.Errorf("preview should be flagged truncated")
	}
	if entry.ByteCount != len(long) {
		t.Errorf("byteCount = %d, want %d", entry.ByteCount, len(long))
	}
}

func TestFetchRSS(t *testing.T) {
	feed := `<?xml version="1.0"?>
<rss version="2.0" xmlns:media="http://search.yahoo.com/mrss/" xmlns:atom="http://www.w3.org/2005/Atom">
<channel>
<item>
<title>First &amp; Finest</title>
<guid isPermaLink="true">https://www.deviantart.com/jane/art/first-1</guid>
<pubDate>Sat, 10 Feb 2024 10:30:00 -0800</pubDate>
<media:credit role="author">jane</media:credit>
<media:content url="https://images.example.com/data/f1.jpg" medium="image"/>
</item>
<item>
<title>No media here</title>
<guid>https://www.deviantart.com/jane/journal/words-2</guid>
<link>https://www.deviantart.com/jane/journal/words-2</link>
</item>
</channel>
</rss>`

	doer := &fakeDoer{responses: map[string]fakeResponse{
		"rss.xml": {body: feed},
	}}

	desc := Descriptor{Service: ServiceDeviantArt, ServiceName: "deviantart", UserID: "jane", Origin: "https://www.deviantart.com"}
	result := newTestFetcher(doer).Fetch(context.Background(), desc, LoadModeAsNeeded)

	if result.ErrorCode != "" {
		t.Fatalf("errorCode = %q, want none", result.ErrorCode)
	}
	if len(result.Posts) != 1 {
		t.Fatalf("got %d posts, want 1 (journal item has no media)", len(result.Posts))
	}

	post := result.Posts[0]
	if post.Title != "First & Finest" {
		t.Errorf("title = %q, want entities decoded", post.Title)
	}
	if post.User != "jane" {
		t.Errorf("user = %q, want media:credit value", post.User)
	}
	if post.PublishedAt.IsZero() {
		t.Errorf("pubDate should populate publishedAt")
	}
	if len(post.Media) != 1 || post.Media[0].URL != "https://images.example.com/data/f1.jpg" {
		t.Errorf("unexpected media: %+v", post.Media)
	}
}

func TestFetchRSSFollowsNextLink(t *testing.T) {
	page1 := `<rss version="2.0" xmlns:atom="http://www.w3.org/2005/Atom">
<channel>
<atom:link rel="next" href="https://backend.deviantart.com/rss.xml?type=deviation&amp;q=gallery%3Ajane&amp;offset=60"/>
<item><title>one</title><guid>g1</guid>
<media:content url="https://images.example.com/data/a.jpg"/></item>
</channel></rss>`
	page2 := `<rss version="2.0">
<channel>
<item><title>two</title><guid>g2</guid>
<media:content url="https://images.example.com/data/b.jpg"/></item>
</channel></rss>`

	doer := &fakeDoer{responses: map[string]fakeResponse{
		"offset=60": {body: page2},
		"rss.xml":   {body: page1},
	}}

	desc := Descriptor{Service: ServiceDeviantArt, ServiceName: "deviantart", UserID: "jane", Origin: "https://www.deviantart.com"}
	result := newTestFetcher(doer).Fetch(context.Background(), desc, LoadModePreload)

	if len(result.Posts) != 2 {
		t.Fatalf("got %d posts, want 2 across pages", len(result.Posts))
	}
	if len(doer.requests) != 2 {
		t.Errorf("made %d requests, want 2", len(doer.requests))
	}
}

func TestFetchRSSInvalidXML(t *testing.T) {
	doer := &fakeDoer{responses: map[string]fakeResponse{
		"rss.xml": {body: `{"error":"not a feed"}`},
	}}

	desc := Descriptor{Service: ServiceDeviantArt, ServiceName: "deviantart", UserID: "jane", Origin: "https://www.deviantart.com"}
	result := newTestFetcher(doer).Fetch(context.Background(), desc, LoadModeAsNeeded)

	if result.ErrorCode != ErrCodeInvalidXML {
		t.Errorf("errorCode = %q, want %q", result.ErrorCode, ErrCodeInvalidXML)
	}
}

func TestFetchCustomEnvelopeShapes(t *testing.T) {
	row := `{"id":"c1","title":"t","user":"bob","published":"2024-02-10T08:00:00",
		"file":{"path":"/data/aa/bb/one.jpg"}}`

	tests := []struct {
		name string
		body string
	}{
		{name: "bare array", body: "[" + row + "]"},
		{name: "results envelope", body: `{"results":[` + row + `]}`},
		{name: "posts envelope", body: `{"posts":[` + row + `]}`},
	}

	desc := Descriptor{Service: ServiceCustom, ServiceName: "foo", UserID: "bob", Origin: "https://archive.example.net"}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doer := &fakeDoer{responses: map[string]fakeResponse{
				"/api/v1/foo/user/bob/posts": {body: tt.body},
			}}

			result := newTestFetcher(doer).Fetch(context.Background(), desc, LoadModeAsNeeded)

			if result.ErrorCode != "" {
				t.Fatalf("errorCode = %q, want none", result.ErrorCode)
			}
			if len(result.Posts) != 1 {
				t.Fatalf("got %d posts, want 1", len(result.Posts))
			}
			post := result.Posts[0]
			if post.Media[0].URL != "https://archive.example.net/data/aa/bb/one.jpg" {
				t.Errorf("relative path should resolve against origin, got %q", post.Media[0].URL)
			}
			if post.PublishedAt.IsZero() {
				t.Errorf("published should parse")
			}
		})
	}
}

func TestFetchCustomStopsOnShortPage(t *testing.T) {
	doer := &fakeDoer{responses: map[string]fakeResponse{
		"o=0": {body: `[{"id":"c1","title":"t","file":{"path":"/data/a.jpg"}}]`},
	}}

	desc := Descriptor{Service: ServiceCustom, ServiceName: "foo", UserID: "bob", Origin: "https://archive.example.net"}
	result := newTestFetcher(doer).Fetch(context.Background(), desc, LoadModePreload)

	if len(doer.requests) != 1 {
		t.Errorf("a short page ends pagination, made %d requests", len(doer.requests))
	}
	if len(result.Posts) != 1 {
		t.Errorf("got %d posts, want 1", len(result.Posts))
	}
}

func TestFetchCustomAttachments(t *testing.T) {
	body := `[{"id":"c1","title":"t","user":"bob",
		"file":{"path":"/data/main.jpg"},
		"attachments":[{"path":"/data/extra1.png"},{"path":"/data/extra2.mp4"}],
		"pgFiles":["/data/page1.jpg"]}]`

	doer := &fakeDoer{responses: map[string]fakeResponse{
		"posts": {body: body},
	}}

	desc := Descriptor{Service: ServiceCustom, ServiceName: "foo", UserID: "bob", Origin: "https://archive.example.net"}
	result := newTestFetcher(doer).Fetch(context.Background(), desc, LoadModeAsNeeded)

	if len(result.Posts) != 1 {
		t.Fatalf("got %d posts, want 1", len(result.Posts))
	}
	if got := len(result.Posts[0].Media); got != 4 {
		t.Errorf("got %d media, want file + attachments + pgFiles = 4", got)
	}
}
