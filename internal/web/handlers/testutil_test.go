package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kozaktomas/facerec/internal/classifier"
	"github.com/kozaktomas/facerec/internal/recognition"
)

// fakeRecognizer returns a canned result and records the image it was given.
type fakeRecognizer struct {
	result *recognition.Result
	err    error
	model  *classifier.Model
	seen   image.Image
}

func (f *fakeRecognizer) RecognizeLargest(_ context.Context, img image.Image) (*recognition.Result, error) {
	f.seen = img
	return f.result, f.err
}

func (f *fakeRecognizer) Model() *classifier.Model {
	return f.model
}

// testModel trains a tiny two-person model.
func testModel(t *testing.T) *classifier.Model {
	t.Helper()
	x := [][]float32{{1, 0}, {0.9, 0.1}, {0.95, 0.05}, {0, 1}, {0.1, 0.9}, {0.05, 0.95}}
	y := []string{"alice", "alice", "alice", "bob", "bob", "bob"}
	model, err := classifier.Train(x, y, classifier.DefaultTrainOptions())
	if err != nil {
		t.Fatalf("failed to train test model: %v", err)
	}
	return model
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.RGBA{R: 200, G: 150, B: 100, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return buf.Bytes()
}

// multipartRequest builds a POST with one file part. An empty fileName sends
// the part without a file name, the way browsers submit an empty file input.
func multipartRequest(t *testing.T, path, field, fileName string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	var (
		part io.Writer
		err  error
	)
	if fileName == "" {
		part, err = mw.CreateFormField(field)
	} else {
		part, err = mw.CreateFormFile(field, fileName)
	}
	if err != nil {
		t.Fatalf("failed to create part: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("failed to write part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

// parseJSONResponse parses a JSON response body into the target type
func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nBody: %s", err, recorder.Body.String())
	}
}

// assertStatusCode checks if the response has the expected status code
func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("expected status %d, got %d\nBody: %s", expected, recorder.Code, recorder.Body.String())
	}
}

// assertContentType checks if the response has the expected content type
func assertContentType(t *testing.T, recorder *httptest.ResponseRecorder, expected string) {
	t.Helper()
	ct := recorder.Header().Get("Content-Type")
	if ct != expected {
		t.Errorf("expected Content-Type '%s', got '%s'", expected, ct)
	}
}

// assertJSONError checks if the response is a JSON error with the expected message
func assertJSONError(t *testing.T, recorder *httptest.ResponseRecorder, expectedMessage string) {
	t.Helper()
	var result map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse error response: %v\nBody: %s", err, recorder.Body.String())
	}
	if result["error"] != expectedMessage {
		t.Errorf("expected error '%s', got '%s'", expectedMessage, result["error"])
	}
}
