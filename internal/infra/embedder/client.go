// Package embedder is the HTTP collaborator for the CLIP-style embedding
// service: embed_image for the Embedding Worker (C9), embed_text for
// the Search Planner (C11). Grounded in thizplus's faceapi.FaceClient.
package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/justraqib/semantic-photo/internal/domain/photo"
	"github.com/justraqib/semantic-photo/internal/shared"
)

// Client is the embedder HTTP collaborator.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 120 * time.Second, // embedding can be slow on CPU
		},
	}
}

type imageRequest struct {
	MimeType string `json:"mime_type"`
}

type textRequest struct {
	Text string `json:"text"`
}

type embedResponse struct {
	Success   bool      `json:"success"`
	Embedding []float32 `json:"embedding"`
	Error     string    `json:"error,omitempty"`
}

// EmbedImage sends raw image bytes and expects a vector of length
// photo.EmbedDim back.
func (c *Client) EmbedImage(ctx context.Context, data []byte, mimeType string) ([]float32, error) {
	meta, err := json.Marshal(imageRequest{MimeType: mimeType})
	if err != nil {
		return nil, fmt.Errorf("%w: marshal metadata: %v", shared.ErrEmbedFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embed/image", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", shared.ErrEmbedFailed, err)
	}
	req.Header.Set("Content-Type", mimeType)
	req.Header.Set("X-Image-Metadata", string(meta))

	return c.doEmbed(req)
}

// EmbedText sends a text query and expects a vector of length
// photo.EmbedDim back, for the Search Planner.
func (c *Client) EmbedText(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(textRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %v", shared.ErrEmbedFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embed/text", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", shared.ErrEmbedFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.doEmbed(req)
}

func (c *Client) doEmbed(req *http.Request) ([]float32, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrEmbedFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", shared.ErrEmbedFailed, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", shared.ErrEmbedFailed, resp.StatusCode, string(body))
	}

	var result embedResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("%w: parse response: %v", shared.ErrEmbedFailed, err)
	}
	if !result.Success {
		return nil, fmt.Errorf("%w: %s", shared.ErrEmbedFailed, result.Error)
	}
	if len(result.Embedding) != photo.EmbedDim {
		return nil, fmt.Errorf("%w: expected %d dims, got %d", shared.ErrEmbedFailed, photo.EmbedDim, len(result.Embedding))
	}

	return result.Embedding, nil
}
