package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Backend names accepted for the landmark locator and the embedding extractor.
const (
	BackendRemote = "remote"
	BackendOpenCV = "opencv"
)

type Config struct {
	Recognition RecognitionConfig `yaml:"recognition"`
	Paths       PathsConfig       `yaml:"paths"`
	Backend     BackendConfig     `yaml:"backend"`
	OpenCV      OpenCVConfig      `yaml:"opencv"`
	Remote      RemoteConfig      `yaml:"remote"`
	Web         WebConfig         `yaml:"web"`
	Training    TrainingConfig    `yaml:"training"`
}

// RecognitionConfig holds the values every recognition path must agree on.
// Threshold is the single source of the confidence threshold.
type RecognitionConfig struct {
	Threshold        float64 `yaml:"threshold"`
	FaceWidth        int     `yaml:"face_width"`
	FaceHeight       int     `yaml:"face_height"`
	LeftEyeX         float64 `yaml:"left_eye_x"`
	LeftEyeY         float64 `yaml:"left_eye_y"`
	UpsampleBatch    int     `yaml:"upsample_batch"`
	UpsampleRealtime int     `yaml:"upsample_realtime"`
	MaxImageSize     int     `yaml:"max_image_size"` // uploads larger than this are downscaled before detection
}

type PathsConfig struct {
	Dataset string `yaml:"dataset"` // one subdirectory per person
	Models  string `yaml:"models"`  // classifier.json + labels.json
}

type BackendConfig struct {
	Locator   string `yaml:"locator"`   // "remote" or "opencv"
	Extractor string `yaml:"extractor"` // "remote" or "opencv"
}

type OpenCVConfig struct {
	CascadePath       string `yaml:"cascade_path"`
	LandmarkModel     string `yaml:"landmark_model"`
	LandmarkInputSize int    `yaml:"landmark_input_size"`
	EmbeddingModel    string `yaml:"embedding_model"`
	EmbeddingConfig   string `yaml:"embedding_config"` // optional, e.g. a TensorFlow pbtxt
	EmbeddingOutput   string `yaml:"embedding_output"` // output layer name, empty for the last layer
	Standardize       bool   `yaml:"standardize"`      // per-image standardization before embedding
	MinFaceSize       int    `yaml:"min_face_size"`
}

type RemoteConfig struct {
	LandmarkURL    string `yaml:"landmark_url"`
	EmbeddingURL   string `yaml:"embedding_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type WebConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type TrainingConfig struct {
	Cost             float64 `yaml:"cost"`
	BatchSize        int     `yaml:"batch_size"`
	ConflictDistance float64 `yaml:"conflict_distance"`
	Seed             int64   `yaml:"seed"`
}

// envInt reads an environment variable and parses it as a non-negative integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a float.
// Returns the default value if the env var is unset, empty, or invalid.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return defaultVal
}

func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

func envBool(key string, defaultVal bool) bool {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return defaultVal
}

// Defaults returns the configuration embedded in the binary.
func Defaults() *Config {
	var cfg Config
	if err := yaml.Unmarshal(defaultsYAML, &cfg); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded defaults.yaml: " + err.Error())
	}
	return &cfg
}

// Load returns the embedded defaults overridden by environment variables.
func Load() *Config {
	cfg := Defaults()

	r := &cfg.Recognition
	r.Threshold = envFloat("RECOGNITION_THRESHOLD", r.Threshold)
	r.UpsampleBatch = envInt("UPSAMPLE_BATCH", r.UpsampleBatch)
	r.UpsampleRealtime = envInt("UPSAMPLE_REALTIME", r.UpsampleRealtime)
	r.MaxImageSize = envInt("MAX_IMAGE_SIZE", r.MaxImageSize)

	cfg.Paths.Dataset = envString("DATASET_PATH", cfg.Paths.Dataset)
	cfg.Paths.Models = envString("MODELS_PATH", cfg.Paths.Models)

	cfg.Backend.Locator = strings.ToLower(envString("LANDMARK_BACKEND", cfg.Backend.Locator))
	cfg.Backend.Extractor = strings.ToLower(envString("EMBEDDING_BACKEND", cfg.Backend.Extractor))

	cv := &cfg.OpenCV
	cv.CascadePath = envString("OPENCV_CASCADE_PATH", cv.CascadePath)
	cv.LandmarkModel = envString("OPENCV_LANDMARK_MODEL", cv.LandmarkModel)
	cv.EmbeddingModel = envString("OPENCV_EMBEDDING_MODEL", cv.EmbeddingModel)
	cv.EmbeddingConfig = envString("OPENCV_EMBEDDING_CONFIG", cv.EmbeddingConfig)
	cv.EmbeddingOutput = envString("OPENCV_EMBEDDING_OUTPUT", cv.EmbeddingOutput)
	cv.Standardize = envBool("OPENCV_STANDARDIZE", cv.Standardize)

	cfg.Remote.LandmarkURL = envString("LANDMARK_URL", cfg.Remote.LandmarkURL)
	cfg.Remote.EmbeddingURL = envString("EMBEDDING_URL", cfg.Remote.EmbeddingURL)
	cfg.Remote.TimeoutSeconds = envInt("REMOTE_TIMEOUT", cfg.Remote.TimeoutSeconds)

	cfg.Web.Host = envString("WEB_HOST", cfg.Web.Host)
	cfg.Web.Port = envInt("WEB_PORT", cfg.Web.Port)

	cfg.Training.Cost = envFloat("TRAIN_COST", cfg.Training.Cost)
	cfg.Training.BatchSize = envInt("TRAIN_BATCH_SIZE", cfg.Training.BatchSize)
	cfg.Training.ConflictDistance = envFloat("TRAIN_CONFLICT_DISTANCE", cfg.Training.ConflictDistance)

	return cfg
}

// Validate reports the first setting that would make recognition misbehave.
func (c *Config) Validate() error {
	r := c.Recognition
	if r.Threshold < 0 || r.Threshold >= 1 {
		return fmt.Errorf("recognition threshold must be in [0, 1), got %v", r.Threshold)
	}
	if r.FaceWidth <= 0 || r.FaceHeight <= 0 {
		return fmt.Errorf("aligned face size must be positive, got %dx%d", r.FaceWidth, r.FaceHeight)
	}
	if r.LeftEyeX <= 0 || r.LeftEyeX >= 0.5 || r.LeftEyeY <= 0 || r.LeftEyeY >= 1 {
		return fmt.Errorf("desired left eye position out of range: (%v, %v)", r.LeftEyeX, r.LeftEyeY)
	}
	if c.Training.Cost <= 0 {
		return errors.New("training cost must be positive")
	}
	for name, backend := range map[string]string{"landmark": c.Backend.Locator, "embedding": c.Backend.Extractor} {
		if backend != BackendRemote && backend != BackendOpenCV {
			return fmt.Errorf("unknown %s backend %q (expected %q or %q)", name, backend, BackendRemote, BackendOpenCV)
		}
	}
	return nil
}
