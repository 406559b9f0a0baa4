package online

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"
)

// redditListing is the subset of reddit's listing envelope we consume.
type redditListing struct {
	Data struct {
		After    string `json:"after"`
		Children []struct {
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPost struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Author     string  `json:"author"`
	CreatedUTC float64 `json:"created_utc"`
	URL        string  `json:"url"`

	Media struct {
		RedditVideo struct {
			FallbackURL string `json:"fallback_url"`
		} `json:"reddit_video"`
	} `json:"media"`

	GalleryData struct {
		Items []struct {
			MediaID string `json:"media_id"`
		} `json:"items"`
	} `json:"gallery_data"`

	MediaMetadata map[string]struct {
		S struct {
			U   string `json:"u"`
			MP4 string `json:"mp4"`
		} `json:"s"`
	} `json:"media_metadata"`

	Preview struct {
		Images []struct {
			Source struct {
				URL string `json:"url"`
			} `json:"source"`
			Resolutions []struct {
				URL string `json:"url"`
			} `json:"resolutions"`
		} `json:"images"`
	} `json:"preview"`
}

// redditPageSize is the maximum reddit allows per listing request.
const redditPageSize = 100

func redditPageURL(desc Descriptor, after string) string {
	u := fmt.Sprintf("%s/user/%s/submitted.json?limit=%d&raw_json=1",
		desc.Origin, url.PathEscape(desc.UserID), redditPageSize)
	if after != "" {
		u += "&after=" + url.QueryEscape(after)
	}
	return u
}

func (f *Fetcher) fetchReddit(ctx context.Context, desc Descriptor, mode LoadMode) FetchResult {
	var result FetchResult
	maxPages := pageCap(desc.Service, mode)
	after := ""

	for page := 1; page <= maxPages; page++ {
		if page > 1 {
			if err := f.interPageDelay(ctx, mode); err != nil {
				result.ErrorCode = ErrCodeNetwork
				break
			}
		}

		body, entry, errCode := f.getPage(ctx, desc, redditPageURL(desc, after), page)
		if errCode != "" {
			result.Log = append(result.Log, entry)
			result.ErrorCode = errCode
			break
		}

		var listing redditListing
		if err := json.Unmarshal(body, &listing); err != nil {
			result.Log = append(result.Log, entry)
			result.ErrorCode = ErrCodeInvalidJSON
			break
		}
		entry.Parsed = true
		result.Log = append(result.Log, entry)

		for _, child := range listing.Data.Children {
			if post, ok := redditToPost(child.Data, desc); ok {
				result.Posts = append(result.Posts, post)
			}
		}

		after = listing.Data.After
		if after == "" || len(listing.Data.Children) == 0 {
			break
		}
	}

	result.Posts = dedupePosts(result.Posts)
	return result
}

// redditToPost extracts media candidates from one submission in priority
// order: hosted video, gallery items, preview images, then the direct URL.
func redditToPost(rp redditPost, desc Descriptor) (Post, bool) {
	var candidates []string

	if rp.Media.RedditVideo.FallbackURL != "" {
		candidates = append(candidates, rp.Media.RedditVideo.FallbackURL)
	}

	for _, item := range rp.GalleryData.Items {
		meta, ok := rp.MediaMetadata[item.MediaID]
		if !ok {
			continue
		}
		if meta.S.MP4 != "" {
			candidates = append(candidates, meta.S.MP4)
		} else if meta.S.U != "" {
			candidates = append(candidates, meta.S.U)
		}
	}

	for _, img := range rp.Preview.Images {
		if img.Source.URL != "" {
			candidates = append(candidates, img.Source.URL)
		}
		for _, res := range img.Resolutions {
			if res.URL != "" {
				candidates = append(candidates, res.URL)
			}
		}
	}

	if rp.URL != "" {
		candidates = append(candidates, rp.URL)
	}

	media := collectMedia(candidates, desc.Origin)
	if len(media) == 0 {
		return Post{}, false
	}

	user := rp.Author
	if user == "" {
		user = desc.UserID
	}
	post := Post{
		ID:    rp.ID,
		Title: rp.Title,
		User:  user,
		Media: media,
	}
	if rp.CreatedUTC > 0 {
		post.PublishedAt = time.Unix(int64(rp.CreatedUTC), 0).UTC()
	}
	return post, true
}
