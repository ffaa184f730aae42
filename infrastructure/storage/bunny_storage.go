package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"facefolio/pkg/logger"
)

type BunnyConfig struct {
	StorageZone string
	AccessKey   string
	BaseURL     string
	CDNUrl      string
}

// BunnyStorage talks to the Bunny Storage HTTP API. Blobs live under
// {BaseURL}/{zone}/{key}; the public URL is {CDNUrl}/{key}.
type BunnyStorage struct {
	config     BunnyConfig
	httpClient *http.Client
}

func NewBunnyStorage(config BunnyConfig) *BunnyStorage {
	return &BunnyStorage{
		config: config,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

func (s *BunnyStorage) storageURL(key string) string {
	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(s.config.BaseURL, "/"), s.config.StorageZone, key)
}

func (s *BunnyStorage) URLForKey(key string) string {
	return fmt.Sprintf("%s/%s", strings.TrimRight(s.config.CDNUrl, "/"), key)
}

func (s *BunnyStorage) KeyForURL(url string) (string, error) {
	base := strings.TrimRight(s.config.CDNUrl, "/") + "/"
	if !strings.HasPrefix(url, base) {
		return "", fmt.Errorf("url %q is not under the configured CDN", url)
	}
	return strings.TrimPrefix(url, base), nil
}

func (s *BunnyStorage) Upload(ctx context.Context, key string, data []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.storageURL(key), bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("AccessKey", s.config.AccessKey)
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to upload object: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("storage upload error (status %d): %s", resp.StatusCode, string(body))
	}

	logger.Store("object_uploaded", "Object uploaded", map[string]interface{}{"key": key, "size": len(data)})
	return s.URLForKey(key), nil
}

func (s *BunnyStorage) Download(ctx context.Context, key string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.storageURL(key), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create download request: %w", err)
	}
	req.Header.Set("AccessKey", s.config.AccessKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download object: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrObjectNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("storage download error (status %d): %s", resp.StatusCode, string(body))
	}

	return io.ReadAll(resp.Body)
}

func (s *BunnyStorage) Delete(ctx context.Context, keys ...string) error {
	var failed []string

	for _, key := range keys {
		if err := s.deleteOne(ctx, key); err != nil {
			logger.StoreError("object_delete_failed", "Failed to delete object", err, map[string]interface{}{"key": key})
			failed = append(failed, key)
		}
	}

	if len(failed) > 0 {
		return &PartialDeleteError{FailedKeys: failed}
	}
	return nil
}

func (s *BunnyStorage) deleteOne(ctx context.Context, key string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, s.storageURL(key), nil)
	if err != nil {
		return fmt.Errorf("failed to create delete request: %w", err)
	}
	req.Header.Set("AccessKey", s.config.AccessKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	defer resp.Body.Close()

	// A missing object is already deleted.
	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("storage delete error (status %d): %s", resp.StatusCode, string(body))
	}

	return nil
}

// bunnyObject is one entry in a directory listing response.
type bunnyObject struct {
	ObjectName  string `json:"ObjectName"`
	Path        string `json:"Path"`
	IsDirectory bool   `json:"IsDirectory"`
}

func (s *BunnyStorage) List(ctx context.Context, dir string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.storageURL(strings.TrimRight(dir, "/")+"/"), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create list request: %w", err)
	}
	req.Header.Set("AccessKey", s.config.AccessKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to list objects: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("storage list error (status %d): %s", resp.StatusCode, string(body))
	}

	var objects []bunnyObject
	if err := json.NewDecoder(resp.Body).Decode(&objects); err != nil {
		return nil, fmt.Errorf("failed to parse list response: %w", err)
	}

	keys := make([]string, 0, len(objects))
	for _, obj := range objects {
		if obj.IsDirectory {
			continue
		}
		keys = append(keys, strings.TrimRight(dir, "/")+"/"+obj.ObjectName)
	}
	return keys, nil
}
