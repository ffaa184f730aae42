package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T, handler http.HandlerFunc) *BunnyStorage {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewBunnyStorage(BunnyConfig{
		StorageZone: "zone",
		AccessKey:   "secret",
		BaseURL:     server.URL,
		CDNUrl:      "https://cdn.example.com",
	})
}

func TestBunnyUpload(t *testing.T) {
	var gotPath, gotAccessKey string
	s := newTestStorage(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAccessKey = r.Header.Get("AccessKey")
		assert.Equal(t, http.MethodPut, r.Method)
		w.WriteHeader(http.StatusCreated)
	})

	url, err := s.Upload(context.Background(), "photos/user/media/a.jpg", []byte("jpeg"))
	require.NoError(t, err)

	assert.Equal(t, "/zone/photos/user/media/a.jpg", gotPath)
	assert.Equal(t, "secret", gotAccessKey)
	assert.Equal(t, "https://cdn.example.com/photos/user/media/a.jpg", url)
}

func TestBunnyUpload_ServerError(t *testing.T) {
	s := newTestStorage(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "zone full", http.StatusInternalServerError)
	})

	_, err := s.Upload(context.Background(), "a.jpg", []byte("x"))
	assert.ErrorContains(t, err, "status 500")
}

func TestBunnyDownload(t *testing.T) {
	s := newTestStorage(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Write([]byte("jpeg bytes"))
	})

	data, err := s.Download(context.Background(), "a.jpg")
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg bytes"), data)
}

func TestBunnyDownload_NotFound(t *testing.T) {
	s := newTestStorage(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := s.Download(context.Background(), "missing.jpg")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

// Deleting an absent object is success: deletes must stay idempotent so a
// replayed cascade cannot fail on work already done.
func TestBunnyDelete_MissingObjectSucceeds(t *testing.T) {
	s := newTestStorage(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	assert.NoError(t, s.Delete(context.Background(), "gone.jpg"))
}

func TestBunnyDelete_ReportsFailedKeys(t *testing.T) {
	s := newTestStorage(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/zone/bad.jpg" {
			http.Error(w, "locked", http.StatusConflict)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	err := s.Delete(context.Background(), "good.jpg", "bad.jpg")

	var partial *PartialDeleteError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, []string{"bad.jpg"}, partial.FailedKeys)
}

func TestBunnyList(t *testing.T) {
	s := newTestStorage(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/zone/photos/user/faces/", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"ObjectName": "a.jpg", "IsDirectory": false},
			{"ObjectName": "nested", "IsDirectory": true},
			{"ObjectName": "b.jpg", "IsDirectory": false}
		]`))
	})

	keys, err := s.List(context.Background(), "photos/user/faces")
	require.NoError(t, err)
	assert.Equal(t, []string{"photos/user/faces/a.jpg", "photos/user/faces/b.jpg"}, keys)
}

func TestBunnyList_MissingDirIsEmpty(t *testing.T) {
	s := newTestStorage(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	keys, err := s.List(context.Background(), "photos/nobody/faces")
	require.NoError(t, err)
	assert.Empty(t, keys)
}
