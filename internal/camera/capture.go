package camera

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/kozaktomas/facerec/internal/constants"
	"github.com/kozaktomas/facerec/internal/dataset"
	"k8s.io/klog/v2"
)

// RunCapture shows the webcam stream and saves the current frame into the
// writer's directory on SPACE until Q is pressed. onSaved is called with each
// written path. It returns the number of saved images.
func RunCapture(ctx context.Context, deviceID int, w *dataset.Writer, onSaved func(path string)) (int, error) {
	d, err := openDevice(deviceID, fmt.Sprintf("Capture: %s", w.Dir()))
	if err != nil {
		return 0, err
	}
	defer d.Close()

	saved := 0
	for {
		if err := checkContext(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return saved, nil
			}
			return saved, err
		}
		if err := d.read(); err != nil {
			return saved, err
		}

		// Grab the frame before the hint is drawn onto it.
		img, err := d.snapshot()
		if err != nil {
			return saved, err
		}
		drawText(&d.frame, fmt.Sprintf("SPACE save  Q quit  (%d saved)", saved), image.Pt(10, 25), colorHint)

		key := d.show()
		switch {
		case isQuit(key):
			return saved, nil
		case key == keySpace:
			path, err := w.Save(img)
			if err != nil {
				return saved, err
			}
			saved++
			klog.V(1).Infof("saved %s", path)
			if onSaved != nil {
				onSaved(path)
			}
			time.Sleep(constants.CaptureDebounceMillis * time.Millisecond)
		}
	}
}
