package thumbs

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"media-librarian/internal/mediatypes"
)

func writeTestPNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestGetGeneratesAndCaches(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "photo.png")
	writeTestPNG(t, src, 400, 300)

	g := New(filepath.Join(dir, "cache"), true)

	data, err := g.Get(src, mediatypes.FileTypeImage)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not a JPEG: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() > thumbSize || bounds.Dy() > thumbSize {
		t.Errorf("thumbnail %dx%d exceeds %d box", bounds.Dx(), bounds.Dy(), thumbSize)
	}

	// Second call must serve the cached bytes.
	cached, err := g.Get(src, mediatypes.FileTypeImage)
	if err != nil {
		t.Fatalf("cached Get: %v", err)
	}
	if !bytes.Equal(data, cached) {
		t.Error("cached thumbnail differs from generated one")
	}

	entries, err := os.ReadDir(filepath.Join(dir, "cache"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("cache holds %d files, want 1", len(entries))
	}
}

func TestGetConcurrentRequests(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "photo.png")
	writeTestPNG(t, src, 400, 300)

	g := New(filepath.Join(dir, "cache"), true)

	const callers = 8
	results := make(chan error, callers)
	for i := 0; i < callers; i++ {
		go func() {
			_, err := g.Get(src, mediatypes.FileTypeImage)
			results <- err
		}()
	}
	for i := 0; i < callers; i++ {
		if err := <-results; err != nil {
			t.Errorf("concurrent Get error: %v", err)
		}
	}

	entries, err := os.ReadDir(filepath.Join(dir, "cache"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("got %d cache files, want 1", len(entries))
	}
}

func TestGetRejectsNonImages(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "clip.mp4")
	if err := os.WriteFile(src, []byte("not a video"), 0o644); err != nil {
		t.Fatal(err)
	}

	g := New(filepath.Join(dir, "cache"), true)
	if _, err := g.Get(src, mediatypes.FileTypeVideo); err == nil {
		t.Error("video should not be thumbnailed")
	}
}

func TestGetDisabled(t *testing.T) {
	g := New(t.TempDir(), false)
	if g.IsEnabled() {
		t.Error("IsEnabled should be false")
	}
	if _, err := g.Get("whatever.png", mediatypes.FileTypeImage); err == nil {
		t.Error("disabled generator should error")
	}
}

func TestGetMissingFile(t *testing.T) {
	g := New(t.TempDir(), true)
	if _, err := g.Get(filepath.Join(t.TempDir(), "nope.png"), mediatypes.FileTypeImage); err == nil {
		t.Error("missing file should error")
	}
}
