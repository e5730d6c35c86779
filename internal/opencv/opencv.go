// Package opencv provides local face locator and embedding backends built on
// OpenCV through gocv. It needs OpenCV 4 with the dnn module at build time.
package opencv

import (
	"fmt"
	"image"
	"os"

	"gocv.io/x/gocv"
)

// checkFile fails early with a readable error when a model file is missing.
func checkFile(kind, path string) error {
	if path == "" {
		return fmt.Errorf("%s path is not configured", kind)
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", kind, path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s %s is a directory", kind, path)
	}
	return nil
}

// toMat converts an image to a BGR Mat the way OpenCV expects it.
func toMat(img image.Image) (gocv.Mat, error) {
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("converting image to Mat: %w", err)
	}
	if mat.Empty() {
		mat.Close()
		return gocv.Mat{}, fmt.Errorf("converted image Mat is empty")
	}
	return mat, nil
}

// readNet loads a DNN model and its optional config file.
func readNet(kind, model, config string) (gocv.Net, error) {
	if err := checkFile(kind, model); err != nil {
		return gocv.Net{}, err
	}
	if config != "" {
		if err := checkFile(kind+" config", config); err != nil {
			return gocv.Net{}, err
		}
	}
	net := gocv.ReadNet(model, config)
	if net.Empty() {
		return gocv.Net{}, fmt.Errorf("failed to load %s from %s", kind, model)
	}
	return net, nil
}

// outputValues copies a network output into a Go slice.
func outputValues(out gocv.Mat) ([]float32, error) {
	data, err := out.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("reading network output: %w", err)
	}
	return append([]float32(nil), data...), nil
}
