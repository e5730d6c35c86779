package imageutil

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"path/filepath"
	"testing"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestDecode_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"text", []byte("definitely not an image")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(bytes.NewReader(tt.data))
			if !errors.Is(err, ErrDecode) {
				t.Errorf("expected ErrDecode, got %v", err)
			}
		})
	}
}

func TestDecode_PNGRoundTrip(t *testing.T) {
	src := solid(8, 4, color.RGBA{R: 200, G: 10, B: 30, A: 255})
	data, err := EncodePNG(src)
	if err != nil {
		t.Fatalf("EncodePNG failed: %v", err)
	}

	img, err := Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if img.Bounds().Dx() != 8 || img.Bounds().Dy() != 4 {
		t.Errorf("expected 8x4, got %v", img.Bounds())
	}
	r, g, b, _ := img.At(3, 2).RGBA()
	if r>>8 != 200 || g>>8 != 10 || b>>8 != 30 {
		t.Errorf("unexpected pixel (%d, %d, %d)", r>>8, g>>8, b>>8)
	}
}

func TestDecode_JPEG(t *testing.T) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, solid(16, 16, color.RGBA{R: 128, G: 128, B: 128, A: 255}), nil); err != nil {
		t.Fatalf("jpeg.Encode failed: %v", err)
	}
	img, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if img.Bounds().Dx() != 16 {
		t.Errorf("expected width 16, got %d", img.Bounds().Dx())
	}
}

func TestFit(t *testing.T) {
	tests := []struct {
		name       string
		w, h, max  int
		wantW      int
		wantH      int
		wantFactor float64
	}{
		{"already fits", 100, 50, 200, 100, 50, 1},
		{"landscape", 400, 200, 100, 100, 50, 0.25},
		{"portrait", 200, 400, 100, 50, 100, 0.5},
		{"disabled", 4000, 3000, 0, 4000, 3000, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, factor := Fit(image.NewRGBA(image.Rect(0, 0, tt.w, tt.h)), tt.max)
			if img.Bounds().Dx() != tt.wantW || img.Bounds().Dy() != tt.wantH {
				t.Errorf("expected %dx%d, got %v", tt.wantW, tt.wantH, img.Bounds())
			}
			if factor != tt.wantFactor {
				t.Errorf("expected factor %v, got %v", tt.wantFactor, factor)
			}
		})
	}
}

func TestScale(t *testing.T) {
	img := Scale(image.NewRGBA(image.Rect(0, 0, 10, 6)), 2)
	if img.Bounds().Dx() != 20 || img.Bounds().Dy() != 12 {
		t.Errorf("expected 20x12, got %v", img.Bounds())
	}

	same := image.NewRGBA(image.Rect(0, 0, 3, 3))
	if Scale(same, 1) != image.Image(same) {
		t.Error("factor 1 should return the input")
	}
}

func TestSaveJPEG_Open(t *testing.T) {
	path := filepath.Join(t.TempDir(), "001.jpg")
	if err := SaveJPEG(solid(12, 12, color.RGBA{R: 90, G: 90, B: 90, A: 255}), path); err != nil {
		t.Fatalf("SaveJPEG failed: %v", err)
	}
	img, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if img.Bounds().Dx() != 12 {
		t.Errorf("expected width 12, got %d", img.Bounds().Dx())
	}
}

func TestOpen_Missing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.png"))
	if !errors.Is(err, ErrDecode) {
		t.Errorf("expected ErrDecode, got %v", err)
	}
}
