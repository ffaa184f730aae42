package faceapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DetectedFace is one face found in an image: the cropped face image plus its
// embedding. CropJPEG travels base64-encoded in the JSON body.
type DetectedFace struct {
	CropJPEG   []byte    `json:"crop_jpeg"`
	Embedding  []float32 `json:"embedding"`
	Confidence float64   `json:"confidence"`
}

// Detector is the face-detection collaborator: bytes in, zero or more
// (cropped image, embedding) pairs out. Purely functional, no side effects.
type Detector interface {
	Detect(ctx context.Context, imageData []byte, mimeType string) ([]DetectedFace, error)
}

// FaceClient communicates with the face detection HTTP service.
type FaceClient struct {
	baseURL    string
	maxFaces   int
	httpClient *http.Client
}

// detectResponse is the wire response from the detection service.
type detectResponse struct {
	Success bool           `json:"success"`
	Faces   []DetectedFace `json:"faces"`
	Error   string         `json:"error,omitempty"`

	ProcessingTimeMs int `json:"processing_time_ms"`
}

// HealthResponse is the response from health check
type HealthResponse struct {
	Status  string `json:"status"`
	Model   string `json:"model"`
	Version string `json:"version"`
}

// NewFaceClient creates a new face API client. maxFaces bounds how many
// detections a single call may return.
func NewFaceClient(baseURL string, maxFaces int) *FaceClient {
	return &FaceClient{
		baseURL:  baseURL,
		maxFaces: maxFaces,
		httpClient: &http.Client{
			Timeout: 120 * time.Second, // Face processing can take time, especially on CPU
		},
	}
}

// Detect extracts faces from image bytes. An image with no faces returns an
// empty slice and no error.
func (c *FaceClient) Detect(ctx context.Context, imageData []byte, mimeType string) ([]DetectedFace, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/detect", bytes.NewReader(imageData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mimeType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call face API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("face API error (status %d): %s", resp.StatusCode, string(body))
	}

	var result detectResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if !result.Success {
		return nil, fmt.Errorf("face detection failed: %s", result.Error)
	}

	faces := result.Faces
	if c.maxFaces > 0 && len(faces) > c.maxFaces {
		faces = faces[:c.maxFaces]
	}
	return faces, nil
}

// Health checks if the face API is healthy
func (c *FaceClient) Health(ctx context.Context) (*HealthResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call health API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("health check failed with status %d", resp.StatusCode)
	}

	var result HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return &result, nil
}

// IsAvailable checks if the face API is available
func (c *FaceClient) IsAvailable(ctx context.Context) bool {
	health, err := c.Health(ctx)
	if err != nil {
		return false
	}
	return health.Status == "ok"
}
