package dataset

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kozaktomas/facerec/internal/constants"
	"github.com/kozaktomas/facerec/internal/imageutil"
)

// ErrInvalidLabel is returned for labels that cannot be used as a directory name.
var ErrInvalidLabel = errors.New("invalid label")

// ValidateLabel rejects labels that would escape the dataset root or be hidden.
func ValidateLabel(label string) error {
	switch {
	case strings.TrimSpace(label) == "":
		return fmt.Errorf("%w: empty", ErrInvalidLabel)
	case label != strings.TrimSpace(label):
		return fmt.Errorf("%w: leading or trailing whitespace in %q", ErrInvalidLabel, label)
	case strings.ContainsAny(label, `/\`) || label == "." || label == "..":
		return fmt.Errorf("%w: %q is not a plain directory name", ErrInvalidLabel, label)
	case strings.HasPrefix(label, "."):
		return fmt.Errorf("%w: %q starts with a dot", ErrInvalidLabel, label)
	}
	return nil
}

// Writer saves captured frames as sequentially numbered JPEG files in one label directory.
type Writer struct {
	dir  string
	next int
}

// NewWriter creates root/label if needed and continues numbering after the
// highest existing NNN.jpg so earlier captures are never overwritten.
func NewWriter(root, label string) (*Writer, error) {
	if err := ValidateLabel(label); err != nil {
		return nil, err
	}
	dir := filepath.Join(root, label)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", dir, err)
	}

	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}
	highest := -1
	for _, f := range files {
		name := f.Name()
		if f.IsDir() || !strings.EqualFold(filepath.Ext(name), ".jpg") {
			continue
		}
		if n, err := strconv.Atoi(strings.TrimSuffix(name, filepath.Ext(name))); err == nil && n > highest {
			highest = n
		}
	}
	return &Writer{dir: dir, next: highest + 1}, nil
}

// Dir returns the label directory.
func (w *Writer) Dir() string {
	return w.dir
}

// NextPath returns the path the next Save will write to.
func (w *Writer) NextPath() string {
	return filepath.Join(w.dir, fmt.Sprintf("%0*d.jpg", constants.CaptureFileDigits, w.next))
}

// Save writes img to the next sequential file and returns its path.
func (w *Writer) Save(img image.Image) (string, error) {
	path := w.NextPath()
	if err := imageutil.SaveJPEG(img, path); err != nil {
		return "", err
	}
	w.next++
	return path, nil
}
