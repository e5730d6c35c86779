package camera

import (
	"context"
	"errors"
	"image"
	"image/color"

	"github.com/kozaktomas/facerec/internal/recognition"
	"gocv.io/x/gocv"
	"k8s.io/klog/v2"
)

// RunRealtime recognizes every face in the webcam stream and draws a box and
// a "name (confidence)" caption per face until Q is pressed or ctx ends.
func RunRealtime(ctx context.Context, deviceID int, pipeline *recognition.Pipeline) error {
	d, err := openDevice(deviceID, "Face Recognition")
	if err != nil {
		return err
	}
	defer d.Close()

	klog.Infof("realtime recognition on device %d, threshold %.2f, press Q to quit", deviceID, pipeline.Threshold())

	for {
		if err := checkContext(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		if err := d.read(); err != nil {
			return err
		}

		img, err := d.snapshot()
		if err != nil {
			return err
		}
		results, err := pipeline.Recognize(ctx, img)
		if err != nil {
			klog.Errorf("recognizing frame: %v", err)
		}
		for _, r := range results {
			drawResult(&d.frame, r)
		}

		if isQuit(d.show()) {
			return nil
		}
	}
}

func drawResult(frame *gocv.Mat, r recognition.Result) {
	c := statusColor(r.Status)
	gocv.Rectangle(frame, r.Box, c, 2)
	y := r.Box.Min.Y - 10
	if y < 15 {
		y = r.Box.Max.Y + 20
	}
	drawText(frame, r.Caption(), image.Pt(r.Box.Min.X, y), c)
}

func statusColor(s recognition.Status) color.RGBA {
	switch s {
	case recognition.StatusKnown:
		return colorKnown
	case recognition.StatusUnknown:
		return colorUnknown
	default:
		return colorNoFace
	}
}
