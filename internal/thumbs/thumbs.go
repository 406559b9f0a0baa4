// Package thumbs generates and caches JPEG thumbnails for library images.
package thumbs

import (
	"bytes"
	"crypto/md5"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"

	"media-librarian/internal/logging"
	"media-librarian/internal/mediatypes"
	"media-librarian/internal/metrics"
	"media-librarian/internal/workers"

	_ "image/gif"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

const (
	thumbSize    = 200
	jpegQuality  = 80
	cacheDirMode = 0755
)

// Generator produces fit-to-box thumbnails backed by a flat disk cache
// keyed on the source path. Decode and resize are CPU-bound, so concurrent
// generation is bounded by a worker-sized semaphore.
type Generator struct {
	cacheDir string
	enabled  bool
	sem      chan struct{}
}

// maxGenerators caps concurrent thumbnail generation on large machines.
const maxGenerators = 8

// New creates a Generator, preparing the cache directory when enabled.
func New(cacheDir string, enabled bool) *Generator {
	if enabled {
		logging.Debug("thumbs: enabled, cache dir: %s", cacheDir)
		if err := os.MkdirAll(cacheDir, cacheDirMode); err != nil {
			logging.Warn("thumbs: failed to create cache dir: %v", err)
		}
	} else {
		logging.Debug("thumbs: disabled")
	}
	return &Generator{
		cacheDir: cacheDir,
		enabled:  enabled,
		sem:      make(chan struct{}, workers.ForCPU(maxGenerators)),
	}
}

func (g *Generator) IsEnabled() bool {
	return g.enabled
}

// Get returns the JPEG thumbnail for an image file, generating and caching
// it on first request. Videos and other kinds are not thumbnailed.
func (g *Generator) Get(filePath string, kind mediatypes.FileType) ([]byte, error) {
	if !g.enabled {
		return nil, fmt.Errorf("thumbnails disabled")
	}
	if kind != mediatypes.FileTypeImage {
		return nil, fmt.Errorf("unsupported file type: %s", kind)
	}
	if _, err := os.Stat(filePath); err != nil {
		return nil, fmt.Errorf("file not accessible: %w", err)
	}

	hash := md5.Sum([]byte(filePath))
	cachePath := filepath.Join(g.cacheDir, fmt.Sprintf("%x.jpg", hash))

	if data, err := os.ReadFile(cachePath); err == nil {
		metrics.ThumbnailCacheHits.Inc()
		logging.Debug("thumbnail cache hit: %s", filePath)
		return data, nil
	}

	g.sem <- struct{}{}
	defer func() { <-g.sem }()

	// Another request may have generated it while we waited for a slot.
	if data, err := os.ReadFile(cachePath); err == nil {
		metrics.ThumbnailCacheHits.Inc()
		return data, nil
	}

	data, err := g.generate(filePath)
	if err != nil {
		metrics.ThumbnailsGenerated.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.ThumbnailsGenerated.WithLabelValues("success").Inc()

	if err := os.WriteFile(cachePath, data, 0644); err != nil {
		logging.Warn("failed to cache thumbnail %s: %v", cachePath, err)
	}
	return data, nil
}

func (g *Generator) generate(filePath string) ([]byte, error) {
	img, err := imaging.Open(filePath, imaging.AutoOrientation(true))
	if err != nil {
		logging.Debug("imaging.Open failed for %s: %v, trying stdlib decode", filePath, err)
		img, err = decodeImageFile(filePath)
		if err != nil {
			return nil, fmt.Errorf("image decode failed for %s: %w", filePath, err)
		}
	}

	thumb := imaging.Fit(img, thumbSize, thumbSize, imaging.Lanczos)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeImageFile(filePath string) (image.Image, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, format, err := image.Decode(file)
	if err != nil {
		return nil, err
	}
	logging.Debug("decoded image format: %s for %s", format, filePath)
	return img, nil
}
