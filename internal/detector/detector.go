// Package detector talks to the external face detector service, which owns
// the camera and exposes the most recent frame's detection result.
package detector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const defaultDetectorURL = "http://localhost:8100"

// Client fetches detections from the detector service
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a new detector client
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultDetectorURL
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{},
	}
}

// detectResponse represents the response from the detector service
type detectResponse struct {
	FacesCount int             `json:"faces_count"`
	Faces      []faceDetection `json:"faces"`
}

type faceDetection struct {
	Dim       int       `json:"dim"`
	Embedding []float32 `json:"embedding"`
	DetScore  float64   `json:"det_score"`
}

// Detection is the best face found in the current frame. Present is false
// when the frame holds no face; Embedding and Score are only meaningful
// when Present is true.
type Detection struct {
	Present   bool
	Embedding []float32
	Score     float64
}

// Detect fetches the current frame's detection. A frame without a face is a
// normal outcome, not an error. When several faces are detected, the one
// with the highest detection score wins.
func (c *Client) Detect(ctx context.Context) (*Detection, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/detect", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	var detResp detectResponse
	if err := json.Unmarshal(body, &detResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if detResp.FacesCount == 0 || len(detResp.Faces) == 0 {
		return &Detection{}, nil
	}

	best := detResp.Faces[0]
	for _, f := range detResp.Faces[1:] {
		if f.DetScore > best.DetScore {
			best = f
		}
	}
	if len(best.Embedding) == 0 {
		return nil, errors.New("empty embedding returned")
	}

	return &Detection{
		Present:   true,
		Embedding: best.Embedding,
		Score:     best.DetScore,
	}, nil
}
