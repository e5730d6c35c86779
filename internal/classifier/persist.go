package classifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/google/renameio"
	"github.com/google/uuid"
	"github.com/kozaktomas/facerec/internal/constants"
	"k8s.io/klog/v2"
)

// ErrArtifactMismatch is returned when the classifier and label files were not saved together.
var ErrArtifactMismatch = errors.New("classifier and labels do not belong together")

type machineFile struct {
	Weights []float64 `json:"weights"`
	Bias    float64   `json:"bias"`
	PlattA  float64   `json:"platt_a"`
	PlattB  float64   `json:"platt_b"`
}

type classifierFile struct {
	Version   int           `json:"version"`
	ModelID   uuid.UUID     `json:"model_id"`
	CreatedAt time.Time     `json:"created_at"`
	Dim       int           `json:"dim"`
	Samples   int           `json:"samples"`
	Machines  []machineFile `json:"machines"`
}

type labelsFile struct {
	Version int       `json:"version"`
	ModelID uuid.UUID `json:"model_id"`
	Labels  []string  `json:"labels"`
}

// Paths returns the classifier and label file locations inside dir.
func Paths(dir string) (classifierPath, labelsPath string) {
	return filepath.Join(dir, constants.ClassifierFileName), filepath.Join(dir, constants.LabelsFileName)
}

// Exists reports whether both artifact files are present in dir.
func Exists(dir string) bool {
	cp, lp := Paths(dir)
	for _, p := range []string{cp, lp} {
		if _, err := os.Stat(p); err != nil {
			return false
		}
	}
	return true
}

// Save writes the classifier and its label codec to dir. Each file is
// replaced atomically and both carry the model ID so Load can tell a
// matching pair from a mixed one. A crash between the two renames leaves a
// mixed pair, which LoadExisting treats as no model.
func (m *Model) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating models directory: %w", err)
	}

	cf := classifierFile{
		Version:   constants.ArtifactFormatVersion,
		ModelID:   m.ID,
		CreatedAt: m.CreatedAt,
		Dim:       m.Dim,
		Samples:   m.Samples,
		Machines:  make([]machineFile, len(m.machines)),
	}
	for i, mc := range m.machines {
		cf.Machines[i] = machineFile{Weights: mc.W, Bias: mc.B, PlattA: mc.Platt.A, PlattB: mc.Platt.B}
	}
	lf := labelsFile{
		Version: constants.ArtifactFormatVersion,
		ModelID: m.ID,
		Labels:  m.Codec.Labels(),
	}

	cp, lp := Paths(dir)
	if err := writeJSON(cp, cf); err != nil {
		return err
	}
	return writeJSON(lp, lf)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}
	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// LoadExisting returns the model saved in dir, or nil when there is no
// complete pair: either file missing, or files left from two different saves.
// Any other problem with the files is an error.
func LoadExisting(dir string) (*Model, error) {
	if !Exists(dir) {
		return nil, nil
	}
	m, err := Load(dir)
	if errors.Is(err, ErrArtifactMismatch) {
		klog.Warningf("ignoring incomplete model in %s: %v", dir, err)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Load reads a classifier and label codec saved by Save.
func Load(dir string) (*Model, error) {
	cp, lp := Paths(dir)

	var cf classifierFile
	if err := readJSON(cp, &cf); err != nil {
		return nil, err
	}
	var lf labelsFile
	if err := readJSON(lp, &lf); err != nil {
		return nil, err
	}

	if cf.Version != constants.ArtifactFormatVersion || lf.Version != constants.ArtifactFormatVersion {
		return nil, fmt.Errorf("unsupported artifact version (classifier %d, labels %d)", cf.Version, lf.Version)
	}
	if cf.ModelID != lf.ModelID {
		return nil, fmt.Errorf("%w: classifier %s, labels %s", ErrArtifactMismatch, cf.ModelID, lf.ModelID)
	}
	codec := NewCodec(lf.Labels)
	if !slices.Equal(codec.labels, lf.Labels) {
		return nil, errors.New("labels file is not a sorted list of distinct labels")
	}
	if codec.Len() != len(cf.Machines) {
		return nil, fmt.Errorf("%w: %d labels for %d machines", ErrArtifactMismatch, codec.Len(), len(cf.Machines))
	}

	machines := make([]machine, len(cf.Machines))
	for i, mf := range cf.Machines {
		if len(mf.Weights) != cf.Dim {
			return nil, fmt.Errorf("%w: machine %d has %d weights, expected %d", ErrDimension, i, len(mf.Weights), cf.Dim)
		}
		machines[i] = machine{
			linearMachine: linearMachine{W: mf.Weights, B: mf.Bias},
			Platt:         sigmoid{A: mf.PlattA, B: mf.PlattB},
		}
	}

	return &Model{
		ID:        cf.ModelID,
		Codec:     codec,
		Dim:       cf.Dim,
		Samples:   cf.Samples,
		CreatedAt: cf.CreatedAt,
		machines:  machines,
	}, nil
}
