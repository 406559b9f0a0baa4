package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"media-librarian/internal/fileops"
	"media-librarian/internal/library"
	"media-librarian/internal/online"
	"media-librarian/internal/startup"
	"media-librarian/internal/state"
	"media-librarian/internal/store"
)

// scriptedDoer answers listing requests with a canned reddit page and every
// other request with media bytes.
type scriptedDoer struct {
	listing string
}

func (d *scriptedDoer) Do(req *http.Request) (*http.Response, error) {
	body := "media-bytes"
	if strings.Contains(req.URL.String(), "submitted.json") {
		body = d.listing
	}
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader(body)),
	}, nil
}

const sampleListing = `{"data":{"after":"","children":[
	{"data":{"id":"p1","title":"First","author":"jane","created_utc":1700000000,
		"url":"https://i.redd.it/one.jpg"}}
]}}`

type testFixture struct {
	handlers *Handlers
	lib      *state.Library
	rootDir  string
}

func newTestFixture(t *testing.T, doer online.Doer) *testFixture {
	t.Helper()
	dir := t.TempDir()

	roots, err := store.NewRootStore(filepath.Join(dir, "roots.json"), time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	meta, err := store.NewMetadataStore(filepath.Join(dir, "metadata.json"), time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	prefs, err := store.NewPreferencesStore(filepath.Join(dir, "preferences.json"), time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	profiles, err := store.NewProfileStore(filepath.Join(dir, "profiles.json"), time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}

	// The debounced savers fire after the test body returns; flush them
	// before the temp directory is removed.
	t.Cleanup(func() {
		for _, flush := range []func() error{roots.Flush, meta.Flush, prefs.Flush, profiles.Flush} {
			if err := flush(); err != nil {
				t.Errorf("flush store: %v", err)
			}
		}
	})

	stores := state.Stores{Roots: roots, Metadata: meta, Preferences: prefs, Profiles: profiles}
	ops := fileops.New(filepath.Join(dir, ".trash"), meta)

	fetcher := online.NewFetcher(doer)
	fetcher.SetPageDelay(0)
	lib := state.New(stores, ops, fetcher, online.NewImporter(doer))

	rootDir := filepath.Join(dir, "media")
	if err := os.MkdirAll(rootDir, 0o755); err != nil {
		t.Fatal(err)
	}

	config := &startup.Config{
		ThumbnailDir:      filepath.Join(dir, "thumbnails"),
		ThumbnailsEnabled: true,
	}
	return &testFixture{
		handlers: New(lib, state.NewTaskRegistry(), config),
		lib:      lib,
		rootDir:  rootDir,
	}
}

// addRoot registers the fixture's media directory through the handler.
func (f *testFixture) addRoot(t *testing.T) library.Root {
	t.Helper()
	rec := httptest.NewRecorder()
	f.handlers.AddRoot(rec, jsonRequest(http.MethodPost, "/api/roots", map[string]string{
		"name": "Media",
		"path": f.rootDir,
	}))
	if rec.Code != http.StatusCreated {
		t.Fatalf("AddRoot status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	var root library.Root
	decodeResponse(t, rec, &root)
	return root
}

func (f *testFixture) writeFile(t *testing.T, name string) library.Item {
	t.Helper()
	if err := os.WriteFile(filepath.Join(f.rootDir, name), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	rec := httptest.NewRecorder()
	f.handlers.Rescan(rec, httptest.NewRequest(http.MethodPost, "/api/rescan", http.NoBody))

	snap := f.lib.Snapshot()
	for _, files := range snap.FilesByDirectoryID {
		for _, item := range files {
			if item.Name == name {
				return item
			}
		}
	}
	t.Fatalf("file %q not found in snapshot after rescan", name)
	return library.Item{}
}

func jsonRequest(method, target string, payload interface{}) *http.Request {
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("invalid JSON response %q: %v", rec.Body.String(), err)
	}
}

func TestHealthCheckBeforeAndAfterReady(t *testing.T) {
	f := newTestFixture(t, &scriptedDoer{})

	rec := httptest.NewRecorder()
	f.handlers.HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status before ready = %d, want 503", rec.Code)
	}

	f.handlers.MarkReady()
	rec = httptest.NewRecorder()
	f.handlers.HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))
	if rec.Code != http.StatusOK {
		t.Errorf("status after ready = %d, want 200", rec.Code)
	}

	var resp HealthResponse
	decodeResponse(t, rec, &resp)
	if resp.Status != statusHealthy {
		t.Errorf("status = %q, want %q", resp.Status, statusHealthy)
	}
	if !resp.Ready {
		t.Error("expected ready=true")
	}
}

func TestReadinessCheck(t *testing.T) {
	f := newTestFixture(t, &scriptedDoer{})

	rec := httptest.NewRecorder()
	f.handlers.ReadinessCheck(rec, httptest.NewRequest(http.MethodGet, "/readyz", http.NoBody))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}

	f.handlers.MarkReady()
	rec = httptest.NewRecorder()
	f.handlers.ReadinessCheck(rec, httptest.NewRequest(http.MethodGet, "/readyz", http.NoBody))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestGetVersion(t *testing.T) {
	f := newTestFixture(t, &scriptedDoer{})

	rec := httptest.NewRecorder()
	f.handlers.GetVersion(rec, httptest.NewRequest(http.MethodGet, "/version", http.NoBody))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if cc := rec.Header().Get("Cache-Control"); cc != "no-cache" {
		t.Errorf("Cache-Control = %q, want no-cache", cc)
	}

	var info startup.BuildInfo
	decodeResponse(t, rec, &info)
	if info.Version == "" || info.GoVersion == "" {
		t.Errorf("incomplete build info: %+v", info)
	}
}

func TestRootLifecycle(t *testing.T) {
	f := newTestFixture(t, &scriptedDoer{})
	if err := os.WriteFile(filepath.Join(f.rootDir, "a.jpg"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	root := f.addRoot(t)
	if root.ID == "" || root.Name != "Media" {
		t.Fatalf("unexpected root: %+v", root)
	}

	rec := httptest.NewRecorder()
	f.handlers.ListRoots(rec, httptest.NewRequest(http.MethodGet, "/api/roots", http.NoBody))
	var roots []library.Root
	decodeResponse(t, rec, &roots)
	if len(roots) != 1 {
		t.Fatalf("got %d roots, want 1", len(roots))
	}

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/roots/"+root.ID, http.NoBody)
	req = mux.SetURLVars(req, map[string]string{"id": root.ID})
	f.handlers.RemoveRoot(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("RemoveRoot status = %d: %s", rec.Code, rec.Body.String())
	}

	if got := len(f.lib.Stores().Roots.List()); got != 0 {
		t.Errorf("got %d roots after removal, want 0", got)
	}
	if got := f.lib.Snapshot().FileCount(); got != 0 {
		t.Errorf("snapshot file count = %d after removal, want 0", got)
	}
}

func TestRemoveRootUnknown(t *testing.T) {
	f := newTestFixture(t, &scriptedDoer{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/roots/nope", http.NoBody)
	req = mux.SetURLVars(req, map[string]string{"id": "nope"})
	f.handlers.RemoveRoot(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestGetDirectoryFiltersHidden(t *testing.T) {
	f := newTestFixture(t, &scriptedDoer{})
	f.addRoot(t)
	visible := f.writeFile(t, "visible.jpg")
	hidden := f.writeFile(t, "hidden.jpg")
	f.lib.Stores().Metadata.SetHidden(hidden.MetadataKey(), true)

	dirID := f.lib.Snapshot().RootDirectoryIDs[0]

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/directories/"+dirID, http.NoBody)
	req = mux.SetURLVars(req, map[string]string{"id": dirID})
	f.handlers.GetDirectory(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var listing directoryListing
	decodeResponse(t, rec, &listing)
	if len(listing.Files) != 1 || listing.Files[0].Name != visible.Name {
		t.Errorf("expected only the visible file, got %+v", listing.Files)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/directories/"+dirID+"?includeHidden=true", http.NoBody)
	req = mux.SetURLVars(req, map[string]string{"id": dirID})
	rec = httptest.NewRecorder()
	f.handlers.GetDirectory(rec, req)
	listing = directoryListing{}
	decodeResponse(t, rec, &listing)
	if len(listing.Files) != 2 {
		t.Errorf("got %d files with includeHidden, want 2", len(listing.Files))
	}
}

func TestGetItemNotFound(t *testing.T) {
	f := newTestFixture(t, &scriptedDoer{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/items/missing", http.NoBody)
	req = mux.SetURLVars(req, map[string]string{"id": "missing"})
	f.handlers.GetItem(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestFavoriteAndTagMutations(t *testing.T) {
	f := newTestFixture(t, &scriptedDoer{})
	f.addRoot(t)
	item := f.writeFile(t, "pic.jpg")

	rec := httptest.NewRecorder()
	req := jsonRequest(http.MethodPut, "/api/items/"+item.ID+"/favorite", map[string]bool{"value": true})
	req = mux.SetURLVars(req, map[string]string{"id": item.ID})
	f.handlers.SetFavorite(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("SetFavorite status = %d: %s", rec.Code, rec.Body.String())
	}

	var view itemView
	decodeResponse(t, rec, &view)
	if !view.Metadata.IsFavorite {
		t.Error("expected isFavorite=true")
	}

	req = jsonRequest(http.MethodPost, "/api/items/"+item.ID+"/tags", map[string]string{"tag": "sunset"})
	req = mux.SetURLVars(req, map[string]string{"id": item.ID})
	rec = httptest.NewRecorder()
	f.handlers.AddTag(rec, req)
	view = itemView{}
	decodeResponse(t, rec, &view)
	if len(view.Metadata.Tags) != 1 || view.Metadata.Tags[0] != "sunset" {
		t.Errorf("tags = %v, want [sunset]", view.Metadata.Tags)
	}

	rec = httptest.NewRecorder()
	f.handlers.GetFavorites(rec, httptest.NewRequest(http.MethodGet, "/api/favorites", http.NoBody))
	var favorites []itemView
	decodeResponse(t, rec, &favorites)
	if len(favorites) != 1 {
		t.Errorf("got %d favorites, want 1", len(favorites))
	}
}

func TestGetFavoritesOrderedByLocation(t *testing.T) {
	f := newTestFixture(t, &scriptedDoer{})
	f.addRoot(t)

	if err := os.MkdirAll(filepath.Join(f.rootDir, "albums"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(f.rootDir, "albums", "deep.jpg"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	f.writeFile(t, "b.jpg")
	f.writeFile(t, "a.jpg")

	snap := f.lib.Snapshot()
	for _, files := range snap.FilesByDirectoryID {
		for _, item := range files {
			f.lib.Stores().Metadata.SetFavorite(item.MetadataKey(), true)
		}
	}

	want := []string{"a.jpg", "b.jpg", "deep.jpg"}
	for call := 0; call < 3; call++ {
		rec := httptest.NewRecorder()
		f.handlers.GetFavorites(rec, httptest.NewRequest(http.MethodGet, "/api/favorites", http.NoBody))
		var favorites []itemView
		decodeResponse(t, rec, &favorites)
		if len(favorites) != len(want) {
			t.Fatalf("got %d favorites, want %d", len(favorites), len(want))
		}
		for i, name := range want {
			if favorites[i].Name != name {
				t.Fatalf("favorites[%d] = %q, want %q", i, favorites[i].Name, name)
			}
		}
	}
}

func TestAddTagEmptyRejected(t *testing.T) {
	f := newTestFixture(t, &scriptedDoer{})
	f.addRoot(t)
	item := f.writeFile(t, "pic.jpg")

	req := jsonRequest(http.MethodPost, "/api/items/"+item.ID+"/tags", map[string]string{"tag": ""})
	req = mux.SetURLVars(req, map[string]string{"id": item.ID})
	rec := httptest.NewRecorder()
	f.handlers.AddTag(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestPreferencesRoundTrip(t *testing.T) {
	f := newTestFixture(t, &scriptedDoer{})

	rec := httptest.NewRecorder()
	req := jsonRequest(http.MethodPut, "/api/preferences", store.Preferences{
		ConflictPolicy: "replace",
		Theme:          "dark",
	})
	f.handlers.SetPreferences(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	f.handlers.GetPreferences(rec, httptest.NewRequest(http.MethodGet, "/api/preferences", http.NoBody))
	var prefs store.Preferences
	decodeResponse(t, rec, &prefs)
	if prefs.ConflictPolicy != "replace" {
		t.Errorf("conflictPolicy = %q, want replace", prefs.ConflictPolicy)
	}
}

func TestSetPreferencesInvalidPolicy(t *testing.T) {
	f := newTestFixture(t, &scriptedDoer{})

	rec := httptest.NewRecorder()
	req := jsonRequest(http.MethodPut, "/api/preferences", store.Preferences{ConflictPolicy: "explode"})
	f.handlers.SetPreferences(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestRenameItem(t *testing.T) {
	f := newTestFixture(t, &scriptedDoer{})
	f.addRoot(t)
	item := f.writeFile(t, "old.jpg")

	req := jsonRequest(http.MethodPost, "/api/items/"+item.ID+"/rename", map[string]string{"newName": "new.jpg"})
	req = mux.SetURLVars(req, map[string]string{"id": item.ID})
	rec := httptest.NewRecorder()
	f.handlers.RenameItem(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var resp map[string]string
	decodeResponse(t, rec, &resp)
	if filepath.Base(resp["path"]) != "new.jpg" {
		t.Errorf("path = %q, want basename new.jpg", resp["path"])
	}
	if _, err := os.Stat(filepath.Join(f.rootDir, "new.jpg")); err != nil {
		t.Errorf("renamed file missing: %v", err)
	}
}

func TestRenameItemConflictAbort(t *testing.T) {
	f := newTestFixture(t, &scriptedDoer{})
	f.addRoot(t)
	item := f.writeFile(t, "a.jpg")
	f.writeFile(t, "b.jpg")

	req := jsonRequest(http.MethodPost, "/api/items/"+item.ID+"/rename", map[string]string{
		"newName": "b.jpg",
		"policy":  "abort",
	})
	req = mux.SetURLVars(req, map[string]string{"id": item.ID})
	rec := httptest.NewRecorder()
	f.handlers.RenameItem(rec, req)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409: %s", rec.Code, rec.Body.String())
	}

	var resp map[string]string
	decodeResponse(t, rec, &resp)
	if resp["conflict"] == "" {
		t.Error("expected conflict field in response")
	}
}

func TestReorderItemInvalidDirection(t *testing.T) {
	f := newTestFixture(t, &scriptedDoer{})
	f.addRoot(t)
	item := f.writeFile(t, "a.jpg")

	req := jsonRequest(http.MethodPost, "/api/items/"+item.ID+"/reorder", map[string]string{"direction": "sideways"})
	req = mux.SetURLVars(req, map[string]string{"id": item.ID})
	rec := httptest.NewRecorder()
	f.handlers.ReorderItem(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestReorderItemSkipsHiddenSiblings(t *testing.T) {
	f := newTestFixture(t, &scriptedDoer{})
	f.addRoot(t)
	first := f.writeFile(t, "a.jpg")
	hidden := f.writeFile(t, "b.jpg")
	f.writeFile(t, "c.jpg")
	f.lib.Stores().Metadata.SetHidden(hidden.MetadataKey(), true)

	req := jsonRequest(http.MethodPost, "/api/items/"+first.ID+"/reorder", map[string]string{"direction": "next"})
	req = mux.SetURLVars(req, map[string]string{"id": first.ID})
	rec := httptest.NewRecorder()
	f.handlers.ReorderItem(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	// The swap partner is the next visible file, so a.jpg lands after
	// c.jpg and the hidden file keeps its name.
	var resp map[string]string
	decodeResponse(t, rec, &resp)
	if filepath.Base(resp["path"]) != "002 - a.jpg" {
		t.Errorf("path = %q, want basename %q", resp["path"], "002 - a.jpg")
	}
	if _, err := os.Stat(filepath.Join(f.rootDir, "b.jpg")); err != nil {
		t.Errorf("hidden file was renamed: %v", err)
	}
}

func TestDeleteItem(t *testing.T) {
	f := newTestFixture(t, &scriptedDoer{})
	f.addRoot(t)
	item := f.writeFile(t, "gone.jpg")

	req := httptest.NewRequest(http.MethodDelete, "/api/items/"+item.ID, http.NoBody)
	req = mux.SetURLVars(req, map[string]string{"id": item.ID})
	rec := httptest.NewRecorder()
	f.handlers.DeleteItem(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if _, err := os.Stat(filepath.Join(f.rootDir, "gone.jpg")); !os.IsNotExist(err) {
		t.Errorf("expected file trashed, stat err = %v", err)
	}
}

func TestDeleteDirectoryRootRejected(t *testing.T) {
	f := newTestFixture(t, &scriptedDoer{})
	f.addRoot(t)
	dirID := f.lib.Snapshot().RootDirectoryIDs[0]

	req := httptest.NewRequest(http.MethodDelete, "/api/directories/"+dirID, http.NoBody)
	req = mux.SetURLVars(req, map[string]string{"id": dirID})
	rec := httptest.NewRecorder()
	f.handlers.DeleteDirectory(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400: %s", rec.Code, rec.Body.String())
	}
}

func TestParseSource(t *testing.T) {
	f := newTestFixture(t, &scriptedDoer{})

	rec := httptest.NewRecorder()
	f.handlers.ParseSource(rec, jsonRequest(http.MethodPost, "/api/online/parse", map[string]string{
		"sourceUrl": "https://www.reddit.com/user/jane",
	}))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		ProfileKey string `json:"profileKey"`
	}
	decodeResponse(t, rec, &resp)
	if resp.ProfileKey != "reddit::jane" {
		t.Errorf("profileKey = %q, want reddit::jane", resp.ProfileKey)
	}

	rec = httptest.NewRecorder()
	f.handlers.ParseSource(rec, jsonRequest(http.MethodPost, "/api/online/parse", map[string]string{
		"sourceUrl": "not a url at all ###",
	}))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid source status = %d, want 400", rec.Code)
	}
}

func TestStartImportRunsTask(t *testing.T) {
	f := newTestFixture(t, &scriptedDoer{listing: sampleListing})
	root := f.addRoot(t)

	rec := httptest.NewRecorder()
	f.handlers.StartImport(rec, jsonRequest(http.MethodPost, "/api/online/imports", map[string]interface{}{
		"sourceUrl": "https://www.reddit.com/user/jane",
		"rootId":    root.ID,
	}))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202: %s", rec.Code, rec.Body.String())
	}

	var task state.Task
	decodeResponse(t, rec, &task)
	if task.ID == "" {
		t.Fatal("expected a task id")
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		req := httptest.NewRequest(http.MethodGet, "/api/tasks/"+task.ID, http.NoBody)
		req = mux.SetURLVars(req, map[string]string{"id": task.ID})
		rec = httptest.NewRecorder()
		f.handlers.GetTask(rec, req)
		decodeResponse(t, rec, &task)
		if task.Status != state.TaskRunning {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("task did not finish in time")
		}
		time.Sleep(10 * time.Millisecond)
	}
	if task.Status != state.TaskSucceeded {
		t.Fatalf("task status = %q, error = %q", task.Status, task.Error)
	}

	rec = httptest.NewRecorder()
	f.handlers.ListProfiles(rec, httptest.NewRequest(http.MethodGet, "/api/online/profiles", http.NoBody))
	var profiles []store.ProfileRecord
	decodeResponse(t, rec, &profiles)
	if len(profiles) != 1 || profiles[0].ProfileKey != "reddit::jane" {
		t.Fatalf("profiles = %+v, want one reddit::jane", profiles)
	}
}

func TestStartImportUnknownRoot(t *testing.T) {
	f := newTestFixture(t, &scriptedDoer{})

	rec := httptest.NewRecorder()
	f.handlers.StartImport(rec, jsonRequest(http.MethodPost, "/api/online/imports", map[string]interface{}{
		"sourceUrl": "https://www.reddit.com/user/jane",
		"rootId":    "missing",
	}))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestGetTaskNotFound(t *testing.T) {
	f := newTestFixture(t, &scriptedDoer{})

	req := httptest.NewRequest(http.MethodGet, "/api/tasks/nope", http.NoBody)
	req = mux.SetURLVars(req, map[string]string{"id": "nope"})
	rec := httptest.NewRecorder()
	f.handlers.GetTask(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestThumbnailDisabled(t *testing.T) {
	f := newTestFixture(t, &scriptedDoer{})
	f.addRoot(t)
	item := f.writeFile(t, "pic.jpg")

	disabled := New(f.lib, state.NewTaskRegistry(), &startup.Config{ThumbnailsEnabled: false})
	req := httptest.NewRequest(http.MethodGet, "/api/thumbnail/"+item.ID, http.NoBody)
	req = mux.SetURLVars(req, map[string]string{"id": item.ID})
	rec := httptest.NewRecorder()
	disabled.GetThumbnail(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
