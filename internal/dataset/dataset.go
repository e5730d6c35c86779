// Package dataset reads and writes the enrollment image tree: one
// subdirectory per person, named after the label, holding that person's images.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/kozaktomas/facerec/internal/align"
	"github.com/kozaktomas/facerec/internal/imageutil"
	"k8s.io/klog/v2"
)

// ErrNoLabels is returned when the dataset root has no label directories.
var ErrNoLabels = errors.New("dataset has no label directories")

// imageExtensions lists the accepted file extensions, compared case-insensitively.
var imageExtensions = []string{".jpg", ".jpeg", ".png", ".bmp", ".tiff", ".tif"}

// IsImageFile reports whether name has an accepted image extension.
func IsImageFile(name string) bool {
	return slices.Contains(imageExtensions, strings.ToLower(filepath.Ext(name)))
}

// Sample is one aligned face with its label.
type Sample struct {
	Face  *align.Face
	Label string
	Path  string
}

// Stats counts what happened to the files of a dataset.
type Stats struct {
	Labels     []string
	Files      int // image files found
	Aligned    int // files that produced a sample
	NoFace     int // files without an alignable face
	Unreadable int // files that could not be decoded
}

// Skipped returns the number of files that did not produce a sample.
func (s Stats) Skipped() int {
	return s.NoFace + s.Unreadable
}

// FaceAligner prepares the face of one image. A nil face means the image has
// no usable face.
type FaceAligner interface {
	PrepareFace(ctx context.Context, img image.Image) (*align.Face, error)
}

// FaceAlignerFunc adapts a function to the FaceAligner interface.
type FaceAlignerFunc func(ctx context.Context, img image.Image) (*align.Face, error)

func (f FaceAlignerFunc) PrepareFace(ctx context.Context, img image.Image) (*align.Face, error) {
	return f(ctx, img)
}

// Entry is an image file and the label it belongs to.
type Entry struct {
	Path  string
	Label string
}

// Labels returns the sorted names of the label directories under root.
func Labels(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("reading dataset %s: %w", root, err)
	}
	var labels []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			labels = append(labels, e.Name())
		}
	}
	slices.Sort(labels)
	return labels, nil
}

// Scan lists the image files of every label directory, in label then file name order.
func Scan(root string) ([]Entry, []string, error) {
	labels, err := Labels(root)
	if err != nil {
		return nil, nil, err
	}
	if len(labels) == 0 {
		return nil, nil, fmt.Errorf("%w: %s", ErrNoLabels, root)
	}

	var entries []Entry
	for _, label := range labels {
		dir := filepath.Join(root, label)
		files, err := os.ReadDir(dir)
		if err != nil {
			return nil, nil, fmt.Errorf("reading %s: %w", dir, err)
		}
		for _, f := range files {
			if f.IsDir() || !IsImageFile(f.Name()) {
				continue
			}
			entries = append(entries, Entry{Path: filepath.Join(dir, f.Name()), Label: label})
		}
	}
	return entries, labels, nil
}

// Load reads every image under root, aligns its largest face and pairs it
// with the directory label. Unreadable files and files without a usable face
// are logged and counted, never fatal. progress, when set, is called once per file.
func Load(ctx context.Context, root string, aligner FaceAligner, progress func()) ([]Sample, Stats, error) {
	entries, labels, err := Scan(root)
	if err != nil {
		return nil, Stats{}, err
	}

	stats := Stats{Labels: labels, Files: len(entries)}
	samples := make([]Sample, 0, len(entries))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}

		face, err := loadOne(ctx, e.Path, aligner)
		switch {
		case errors.Is(err, imageutil.ErrDecode):
			klog.Warningf("could not read image %s, skipping: %v", e.Path, err)
			stats.Unreadable++
		case err != nil:
			return nil, stats, fmt.Errorf("preparing %s: %w", e.Path, err)
		case face == nil:
			klog.Warningf("no face detected or aligned in %s, skipping", e.Path)
			stats.NoFace++
		default:
			samples = append(samples, Sample{Face: face, Label: e.Label, Path: e.Path})
			stats.Aligned++
		}

		if progress != nil {
			progress()
		}
	}

	return samples, stats, nil
}

func loadOne(ctx context.Context, path string, aligner FaceAligner) (*align.Face, error) {
	img, err := imageutil.Open(path)
	if err != nil {
		return nil, err
	}
	return aligner.PrepareFace(ctx, img)
}

// Faces returns the faces and labels of samples as parallel slices.
func Faces(samples []Sample) ([]*align.Face, []string) {
	faces := make([]*align.Face, len(samples))
	labels := make([]string, len(samples))
	for i, s := range samples {
		faces[i] = s.Face
		labels[i] = s.Label
	}
	return faces, labels
}
