// Package camera runs the interactive webcam loops: live recognition and
// dataset capture.
package camera

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// Keys handled by the loops.
const (
	keySpace = 32
	keyEsc   = 27
)

// ErrReadFailed is returned when the webcam stops delivering frames.
var ErrReadFailed = errors.New("failed to read frame from webcam")

// Overlay colors by recognition outcome.
var (
	colorKnown   = color.RGBA{R: 0, G: 255, B: 0, A: 0}
	colorUnknown = color.RGBA{R: 255, G: 165, B: 0, A: 0}
	colorNoFace  = color.RGBA{R: 0, G: 0, B: 255, A: 0}
	colorHint    = color.RGBA{R: 255, G: 255, B: 255, A: 0}
)

// device wraps an open webcam and its preview window.
type device struct {
	capture *gocv.VideoCapture
	window  *gocv.Window
	frame   gocv.Mat
}

func openDevice(id int, title string) (*device, error) {
	capture, err := gocv.OpenVideoCapture(id)
	if err != nil {
		return nil, fmt.Errorf("opening video capture device %d: %w", id, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("video capture device %d is not available", id)
	}
	return &device{
		capture: capture,
		window:  gocv.NewWindow(title),
		frame:   gocv.NewMat(),
	}, nil
}

// read grabs the next frame into d.frame.
func (d *device) read() error {
	if ok := d.capture.Read(&d.frame); !ok || d.frame.Empty() {
		return ErrReadFailed
	}
	return nil
}

// snapshot returns the current frame as an RGBA image.
func (d *device) snapshot() (image.Image, error) {
	img, err := d.frame.ToImage()
	if err != nil {
		return nil, fmt.Errorf("converting frame: %w", err)
	}
	return img, nil
}

// show displays the frame and returns the key pressed within 1ms, or -1.
func (d *device) show() int {
	d.window.IMShow(d.frame)
	return d.window.WaitKey(1)
}

func (d *device) Close() {
	d.frame.Close()
	d.window.Close()
	d.capture.Close()
}

func isQuit(key int) bool {
	return key == 'q' || key == 'Q' || key == keyEsc
}

func drawText(mat *gocv.Mat, text string, at image.Point, c color.RGBA) {
	gocv.PutText(mat, text, at, gocv.FontHersheySimplex, 0.6, c, 2)
}

// checkContext reports a cancelled context so the loops exit on SIGINT too.
func checkContext(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
