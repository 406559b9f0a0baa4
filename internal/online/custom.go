package online

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// customPageSize is the offset step for the generic JSON endpoints. A page
// returning fewer rows than this ends pagination.
const customPageSize = 50

// customPost tolerates the field naming variants seen across self-hosted
// archive services.
type customPost struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	User        string          `json:"user"`
	Published   string          `json:"published"`
	File        customFile      `json:"file"`
	Attachments []customFile    `json:"attachments"`
	PgFiles     json.RawMessage `json:"pgFiles"`
}

type customFile struct {
	Name string `json:"name"`
	Path string `json:"path"`
	URL  string `json:"url"`
}

func (cf customFile) best() string {
	if cf.URL != "" {
		return cf.URL
	}
	return cf.Path
}

func customPageURL(desc Descriptor, offset int) string {
	return fmt.Sprintf("%s/api/v1/%s/user/%s/posts?o=%d",
		desc.Origin, url.PathEscape(desc.ServiceName), url.PathEscape(desc.UserID), offset)
}

func (f *Fetcher) fetchCustom(ctx context.Context, desc Descriptor, mode LoadMode) FetchResult {
	var result FetchResult
	maxPages := pageCap(desc.Service, mode)

	for page := 1; page <= maxPages; page++ {
		if page > 1 {
			if err := f.interPageDelay(ctx, mode); err != nil {
				result.ErrorCode = ErrCodeNetwork
				break
			}
		}

		offset := (page - 1) * customPageSize
		body, entry, errCode := f.getPage(ctx, desc, customPageURL(desc, offset), page)
		if errCode != "" {
			result.Log = append(result.Log, entry)
			result.ErrorCode = errCode
			break
		}

		rows, err := decodeCustomPage(body)
		if err != nil {
			result.Log = append(result.Log, entry)
			result.ErrorCode = ErrCodeInvalidJSON
			break
		}
		entry.Parsed = true
		result.Log = append(result.Log, entry)

		for _, row := range rows {
			if post, ok := customToPost(row, desc); ok {
				result.Posts = append(result.Posts, post)
			}
		}

		if len(rows) < customPageSize {
			break
		}
	}

	result.Posts = dedupePosts(result.Posts)
	return result
}

// decodeCustomPage accepts the three envelope shapes these services use: a
// bare array, {"results": [...]}, or {"posts": [...]}.
func decodeCustomPage(body []byte) ([]customPost, error) {
	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "[") {
		var rows []customPost
		if err := json.Unmarshal(body, &rows); err != nil {
			return nil, err
		}
		return rows, nil
	}

	var envelope struct {
		Results []customPost `json:"results"`
		Posts   []customPost `json:"posts"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, err
	}
	if envelope.Results != nil {
		return envelope.Results, nil
	}
	return envelope.Posts, nil
}

func customToPost(cp customPost, desc Descriptor) (Post, bool) {
	var candidates []string
	if u := cp.File.best(); u != "" {
		candidates = append(candidates, u)
	}
	for _, att := range cp.Attachments {
		if u := att.best(); u != "" {
			candidates = append(candidates, u)
		}
	}
	// pgFiles shows up either as a list of file objects or as a list of
	// bare path strings.
	if len(cp.PgFiles) > 0 {
		var files []customFile
		if err := json.Unmarshal(cp.PgFiles, &files); err == nil {
			for _, pf := range files {
				if u := pf.best(); u != "" {
					candidates = append(candidates, u)
				}
			}
		} else {
			var paths []string
			if err := json.Unmarshal(cp.PgFiles, &paths); err == nil {
				candidates = append(candidates, paths...)
			}
		}
	}

	media := collectMedia(candidates, desc.Origin)
	if len(media) == 0 {
		return Post{}, false
	}

	user := cp.User
	if user == "" {
		user = desc.UserID
	}
	post := Post{
		ID:    cp.ID,
		Title: cp.Title,
		User:  user,
		Media: media,
	}
	if cp.Published != "" {
		for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, cp.Published); err == nil {
				post.PublishedAt = t.UTC()
				break
			}
		}
	}
	return post, true
}
