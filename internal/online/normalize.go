package online

import (
	"net/url"
	"path"
	"strings"

	"media-librarian/internal/mediatypes"
)

// entityReplacer decodes the HTML entities that show up in listing payloads
// and feed titles.
var entityReplacer = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
	"&#x27;", "'",
	"&#x2F;", "/",
)

// decodeEntities decodes common HTML entities in text fields.
func decodeEntities(s string) string {
	return entityReplacer.Replace(s)
}

// normalizeMediaURL turns a raw candidate URL into an absolute media URL.
// Returns ok=false when the URL does not look like media at all.
//
// Rules: scheme-relative URLs get https:, relative URLs resolve against the
// profile origin, .gifv rewrites to .mp4 and is classified video, and the
// extension must belong to the known image/video sets.
func normalizeMediaURL(raw, origin string) (mediaURL string, isVideo bool, ok bool) {
	raw = strings.TrimSpace(decodeEntities(raw))
	if raw == "" {
		return "", false, false
	}

	switch {
	case strings.HasPrefix(raw, "//"):
		raw = "https:" + raw
	case strings.HasPrefix(raw, "/"):
		raw = strings.TrimSuffix(origin, "/") + raw
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", false, false
	}

	ext := strings.ToLower(path.Ext(u.Path))
	if ext == ".gifv" {
		u.Path = strings.TrimSuffix(u.Path, path.Ext(u.Path)) + ".mp4"
		return u.String(), true, true
	}

	switch mediatypes.GetFileType(ext) {
	case mediatypes.FileTypeImage:
		return u.String(), false, true
	case mediatypes.FileTypeVideo:
		return u.String(), true, true
	}
	return "", false, false
}

// mediaKey derives the dedup key for a media URL: the decoded path,
// case-insensitive, ignoring scheme, host, and query so resolution variants
// of the same asset collapse. When the path contains a /data/ segment the
// key starts there, collapsing CDN prefix variance.
func mediaKey(mediaURL string) string {
	u, err := url.Parse(mediaURL)
	if err != nil {
		return strings.ToLower(mediaURL)
	}

	p := u.Path
	if decoded, err := url.PathUnescape(p); err == nil {
		p = decoded
	}
	if idx := strings.Index(strings.ToLower(p), "/data/"); idx >= 0 {
		p = p[idx:]
	}
	return strings.ToLower(p)
}

// collectMedia normalizes candidate URLs against the origin, deduplicates
// them by mediaKey (first occurrence wins), and returns the surviving
// entries in input order.
func collectMedia(candidates []string, origin string) []PostMedia {
	var out []PostMedia
	seen := map[string]bool{}

	for _, raw := range candidates {
		mediaURL, isVideo, ok := normalizeMediaURL(raw, origin)
		if !ok {
			continue
		}
		key := mediaKey(mediaURL)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, PostMedia{URL: mediaURL, IsVideo: isVideo})
	}

	return out
}

// dedupePosts removes posts with duplicate ids, case-insensitive. First
// occurrence wins, so pagination order determines precedence. Posts with no
// media are dropped entirely.
func dedupePosts(posts []Post) []Post {
	var out []Post
	seen := map[string]bool{}

	for _, p := range posts {
		if len(p.Media) == 0 {
			continue
		}
		key := strings.ToLower(p.ID)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, p)
	}

	return out
}
