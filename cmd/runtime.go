package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kozaktomas/facerec/internal/align"
	"github.com/kozaktomas/facerec/internal/classifier"
	"github.com/kozaktomas/facerec/internal/config"
	"github.com/kozaktomas/facerec/internal/embed"
	"github.com/kozaktomas/facerec/internal/landmarks"
	"github.com/kozaktomas/facerec/internal/opencv"
	"github.com/kozaktomas/facerec/internal/recognition"
	"k8s.io/klog/v2"
)

// backends holds the locator and extractor selected by configuration and
// whatever needs closing when the command ends.
type backends struct {
	locator   landmarks.Locator
	extractor embed.Extractor
	closers   []func() error
}

func (b *backends) Close() {
	for _, c := range b.closers {
		if err := c(); err != nil {
			klog.Warningf("closing backend: %v", err)
		}
	}
}

// loadConfig reads and validates the configuration.
func loadConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// openBackends builds the configured locator and extractor. Missing model
// files fail here, before any work is done.
func openBackends(cfg *config.Config) (*backends, error) {
	b := &backends{}
	timeout := time.Duration(cfg.Remote.TimeoutSeconds) * time.Second

	switch cfg.Backend.Locator {
	case config.BackendOpenCV:
		l, err := opencv.NewLocator(opencv.LocatorOptions{
			CascadePath:   cfg.OpenCV.CascadePath,
			LandmarkModel: cfg.OpenCV.LandmarkModel,
			InputSize:     cfg.OpenCV.LandmarkInputSize,
			MinFaceSize:   cfg.OpenCV.MinFaceSize,
		})
		if err != nil {
			return nil, fmt.Errorf("loading landmark locator: %w", err)
		}
		b.locator = l
		b.closers = append(b.closers, l.Close)
	default:
		b.locator = landmarks.NewRemoteLocator(cfg.Remote.LandmarkURL, timeout)
	}

	switch cfg.Backend.Extractor {
	case config.BackendOpenCV:
		e, err := opencv.NewEmbedder(opencv.EmbedderOptions{
			Model:       cfg.OpenCV.EmbeddingModel,
			Config:      cfg.OpenCV.EmbeddingConfig,
			Output:      cfg.OpenCV.EmbeddingOutput,
			Standardize: cfg.OpenCV.Standardize,
		})
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("loading embedding model: %w", err)
		}
		b.extractor = e
		b.closers = append(b.closers, e.Close)
	default:
		b.extractor = embed.NewRemoteExtractor(cfg.Remote.EmbeddingURL, timeout)
	}

	klog.V(1).Infof("backends: locator=%s extractor=%s", cfg.Backend.Locator, cfg.Backend.Extractor)
	return b, nil
}

// newPreprocessor builds the locate-and-align stage shared by every command.
func newPreprocessor(cfg *config.Config, locator landmarks.Locator, upsample int) (*recognition.Preprocessor, error) {
	r := cfg.Recognition
	aligner, err := align.New(align.Options{
		Width:    r.FaceWidth,
		Height:   r.FaceHeight,
		LeftEyeX: r.LeftEyeX,
		LeftEyeY: r.LeftEyeY,
	})
	if err != nil {
		return nil, err
	}
	return recognition.NewPreprocessor(locator, aligner, upsample)
}

// loadModel loads the saved classifier and label codec.
func loadModel(cfg *config.Config) (*classifier.Model, error) {
	if !classifier.Exists(cfg.Paths.Models) {
		return nil, fmt.Errorf("no trained model in %s, run 'facerec train' first", cfg.Paths.Models)
	}
	model, err := classifier.Load(cfg.Paths.Models)
	if err != nil {
		return nil, fmt.Errorf("loading model: %w", err)
	}
	return model, nil
}

// openPipeline loads the model and the backends and wires the recognition
// pipeline with the configured threshold. The returned backends must be closed.
func openPipeline(cfg *config.Config, upsample int) (*recognition.Pipeline, *backends, error) {
	model, err := loadModel(cfg)
	if err != nil {
		return nil, nil, err
	}
	b, err := openBackends(cfg)
	if err != nil {
		return nil, nil, err
	}
	pre, err := newPreprocessor(cfg, b.locator, upsample)
	if err != nil {
		b.Close()
		return nil, nil, err
	}
	p, err := recognition.New(pre, b.extractor, model, cfg.Recognition.Threshold)
	if err != nil {
		b.Close()
		return nil, nil, err
	}
	return p, b, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
