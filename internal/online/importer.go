package online

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/mozillazg/go-unidecode"

	"media-librarian/internal/fileops"
	"media-librarian/internal/logging"
	"media-librarian/internal/mediatypes"
	"media-librarian/internal/metrics"
	"media-librarian/internal/store"
)

// ImportResult summarizes one import batch.
type ImportResult struct {
	ImportedFiles    int    `json:"importedFiles"`
	ImportedPosts    int    `json:"importedPosts"`
	BaseRelativePath string `json:"baseRelativePath"`
}

// Importer downloads fetched posts into a deterministic folder layout under
// a library root.
type Importer struct {
	client Doer
}

// NewImporter creates an Importer. A nil client falls back to a default
// http.Client.
func NewImporter(client Doer) *Importer {
	if client == nil {
		client = http.DefaultClient
	}
	return &Importer{client: client}
}

const importBaseFolder = "Online Imports"

// maxComponentLen caps sanitized path components so deep titles cannot
// overflow filesystem name limits.
const maxComponentLen = 80

var illegalComponentChars = regexp.MustCompile(`[/\\:*?"<>|]`)
var whitespaceRun = regexp.MustCompile(`\s+`)

// sanitizeComponent converts an arbitrary string into a safe single path
// component.
func sanitizeComponent(s string) string {
	s = unidecode.Unidecode(s)
	s = illegalComponentChars.ReplaceAllString(s, "")
	s = whitespaceRun.ReplaceAllString(s, " ")
	s = strings.Trim(s, " .")
	if len(s) > maxComponentLen {
		s = strings.TrimRight(s[:maxComponentLen], " .")
	}
	if s == "" {
		return "untitled"
	}
	return s
}

// BaseRelativePath is the deterministic import destination, relative to the
// root, for a profile in the given mode.
func BaseRelativePath(desc Descriptor, mode store.ImportMode) string {
	parts := []string{importBaseFolder, sanitizeComponent(desc.ServiceName)}
	if mode == store.ImportModePosts {
		parts = append(parts, "posts")
	}
	parts = append(parts, sanitizeComponent(desc.UserID))
	return path.Join(parts...)
}

// postPrefix builds the "<YYMMDD>-<user>-<global index>" prefix shared by a
// post's folder name and its file names.
func postPrefix(post Post, globalIndex int) string {
	date := "000000"
	if !post.PublishedAt.IsZero() {
		date = post.PublishedAt.Format("060102")
	}
	user := sanitizeComponent(post.User)
	return fmt.Sprintf("%s-%s-%06d", date, user, globalIndex)
}

// sortNewestFirst orders posts by published date descending, breaking ties
// (and covering absent dates) by post id descending so the ordering stays
// deterministic.
func sortNewestFirst(posts []Post) []Post {
	sorted := make([]Post, len(posts))
	copy(sorted, posts)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if !a.PublishedAt.Equal(b.PublishedAt) {
			return a.PublishedAt.After(b.PublishedAt)
		}
		return a.ID > b.ID
	})
	return sorted
}

// mediaExtension pulls the lowercase extension (without dot) from a media
// URL's path when it is a recognized media extension, defaulting to mp4 for
// video and jpg for images otherwise.
func mediaExtension(media PostMedia) string {
	p := media.URL
	if u, err := url.Parse(media.URL); err == nil {
		p = u.Path
	}
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(p), "."))
	if ext != "" && mediatypes.GetFileType("."+ext) != mediatypes.FileTypeOther {
		return ext
	}
	if media.IsVideo {
		return "mp4"
	}
	return "jpg"
}

// Import writes every post's media under rootPath following the layout
// "<root>/Online Imports/<service>/[posts/]<user>/<post folder>/<file>".
// Posts are assigned a chronological global index with the oldest post at 1,
// so refreshes prepend newer posts without renumbering existing folders.
//
// Per-file download failures (non-2xx, empty body, network errors) are
// skipped. A ConflictError from the abort policy stops the import and is
// returned along with the progress made so far.
func (imp *Importer) Import(ctx context.Context, desc Descriptor, posts []Post, mode store.ImportMode, rootPath string, policy fileops.ConflictPolicy) (ImportResult, error) {
	result := ImportResult{BaseRelativePath: BaseRelativePath(desc, mode)}
	baseAbs := filepath.Join(rootPath, filepath.FromSlash(result.BaseRelativePath))

	sorted := sortNewestFirst(posts)
	total := len(sorted)

	// Names chosen but possibly not yet on disk, for conflict resolution.
	reserved := make(map[string]bool)

	for i, post := range sorted {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		globalIndex := total - i
		prefix := postPrefix(post, globalIndex)
		folderName := fmt.Sprintf("%s - %s", prefix, sanitizeComponent(post.Title))
		postDir := filepath.Join(baseAbs, folderName)

		wrote := 0
		for local, media := range post.Media {
			name := fmt.Sprintf("%s_%06d.%s", prefix, local+1, mediaExtension(media))
			desired := filepath.Join(postDir, name)

			final, err := fileops.Resolve(desired, policy, reserved)
			if err != nil {
				return result, err
			}
			reserved[final] = true

			n, ok := imp.download(ctx, media.URL, final)
			if !ok {
				continue
			}
			metrics.OnlineDownloadBytes.Add(float64(n))
			result.ImportedFiles++
			wrote++
		}

		if wrote > 0 {
			result.ImportedPosts++
		}
	}

	logging.Info("imported %d files across %d posts into %s",
		result.ImportedFiles, result.ImportedPosts, result.BaseRelativePath)
	return result, nil
}

// download fetches one media URL and writes it to dest, creating parent
// directories as needed. Returns bytes written and whether a file was
// produced.
func (imp *Importer) download(ctx context.Context, mediaURL, dest string) (int64, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		metrics.OnlineDownloadsTotal.WithLabelValues("failed").Inc()
		return 0, false
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := imp.client.Do(req)
	if err != nil {
		logging.Warn("download failed for %s: %v", mediaURL, err)
		metrics.OnlineDownloadsTotal.WithLabelValues("failed").Inc()
		return 0, false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logging.Debug("skipping %s: status %d", mediaURL, resp.StatusCode)
		metrics.OnlineDownloadsTotal.WithLabelValues("skipped").Inc()
		return 0, false
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil || len(body) == 0 {
		metrics.OnlineDownloadsTotal.WithLabelValues("skipped").Inc()
		return 0, false
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		metrics.OnlineDownloadsTotal.WithLabelValues("failed").Inc()
		return 0, false
	}
	if err := os.WriteFile(dest, body, 0o644); err != nil {
		logging.Warn("writing %s: %v", dest, err)
		metrics.OnlineDownloadsTotal.WithLabelValues("failed").Inc()
		return 0, false
	}

	metrics.OnlineDownloadsTotal.WithLabelValues("written").Inc()
	return int64(len(body)), true
}
