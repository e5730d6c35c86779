package embed

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/kozaktomas/facerec/internal/align"
	"github.com/kozaktomas/facerec/internal/imageutil"
	"github.com/kozaktomas/facerec/internal/remote"
)

// batchResponse represents the response from the embedding server
type batchResponse struct {
	Dim        int         `json:"dim"`
	Embeddings [][]float32 `json:"embeddings"`
	Model      string      `json:"model"`
}

// RemoteExtractor computes face embeddings using an embedding server.
type RemoteExtractor struct {
	client *remote.Client
}

// NewRemoteExtractor creates a new remote embedding extractor.
func NewRemoteExtractor(baseURL string, timeout time.Duration) *RemoteExtractor {
	return &RemoteExtractor{client: remote.NewClient(baseURL, timeout)}
}

// Embed posts the faces as PNG parts, in order, and returns the embeddings in the same order.
func (e *RemoteExtractor) Embed(ctx context.Context, faces []*align.Face) ([][]float32, error) {
	if len(faces) == 0 {
		return [][]float32{}, nil
	}

	parts := make([]remote.Part, len(faces))
	for i, f := range faces {
		data, err := imageutil.EncodePNG(f.RGBA())
		if err != nil {
			return nil, fmt.Errorf("face %d: %w", i, err)
		}
		parts[i] = remote.Part{Field: "files", FileName: strconv.Itoa(i) + ".png", Data: data}
	}

	var resp batchResponse
	if err := e.client.PostImages(ctx, "/embed/batch", parts, &resp); err != nil {
		return nil, fmt.Errorf("computing embeddings: %w", err)
	}

	dim, err := Check(resp.Embeddings, len(faces))
	if err != nil {
		return nil, err
	}
	if resp.Dim != 0 && resp.Dim != dim {
		return nil, fmt.Errorf("%w: server reported %d, got %d", ErrDimensionMismatch, resp.Dim, dim)
	}
	return resp.Embeddings, nil
}
