package opencv

import (
	"context"
	"fmt"
	"sync"

	"github.com/kozaktomas/facerec/internal/align"
	"github.com/kozaktomas/facerec/internal/embed"
	"gocv.io/x/gocv"
)

// EmbedderOptions configures an Embedder.
type EmbedderOptions struct {
	Model       string // ONNX, Caffe or TensorFlow weights
	Config      string // optional network description
	Output      string // output layer, empty for the last one
	Standardize bool   // per-image standardization of the input
}

// Embedder computes face embeddings with an OpenCV DNN. The network takes
// aligned RGB faces as a [N, 3, H, W] float tensor.
type Embedder struct {
	mu   sync.Mutex
	net  gocv.Net
	opts EmbedderOptions
}

// NewEmbedder loads the embedding network. Missing weights are an error.
func NewEmbedder(opts EmbedderOptions) (*Embedder, error) {
	net, err := readNet("embedding model", opts.Model, opts.Config)
	if err != nil {
		return nil, err
	}
	return &Embedder{net: net, opts: opts}, nil
}

// Embed implements embed.Extractor. An empty batch returns an empty result
// without running the network.
func (e *Embedder) Embed(ctx context.Context, faces []*align.Face) ([][]float32, error) {
	if len(faces) == 0 {
		return [][]float32{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := embed.PackNCHW(faces, e.opts.Standardize)
	if err != nil {
		return nil, err
	}
	sizes := []int{len(faces), 3, faces[0].Height, faces[0].Width}
	blob, err := gocv.NewMatWithSizesFromBytes(sizes, gocv.MatTypeCV32F, data)
	if err != nil {
		return nil, fmt.Errorf("building input tensor: %w", err)
	}
	defer blob.Close()

	e.mu.Lock()
	defer e.mu.Unlock()

	e.net.SetInput(blob, "")
	out := e.net.Forward(e.opts.Output)
	defer out.Close()

	values, err := outputValues(out)
	if err != nil {
		return nil, err
	}
	vecs, err := embed.Split(values, len(faces))
	if err != nil {
		return nil, err
	}
	if _, err := embed.Check(vecs, len(faces)); err != nil {
		return nil, err
	}
	return vecs, nil
}

// Close releases the network.
func (e *Embedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.net.Close()
}
