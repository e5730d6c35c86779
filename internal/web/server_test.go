package web

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kozaktomas/facerec/internal/classifier"
	"github.com/kozaktomas/facerec/internal/config"
	"github.com/kozaktomas/facerec/internal/constants"
	"github.com/kozaktomas/facerec/internal/recognition"
	"github.com/kozaktomas/facerec/internal/web/handlers"
)

type stubRecognizer struct {
	model *classifier.Model
}

func (s *stubRecognizer) RecognizeLargest(context.Context, image.Image) (*recognition.Result, error) {
	return &recognition.Result{Status: recognition.StatusKnown, Name: "alice", Label: "alice", Confidence: 0.9}, nil
}

func (s *stubRecognizer) Model() *classifier.Model {
	return s.model
}

type panickingRecognizer struct {
	stubRecognizer
}

func (p *panickingRecognizer) RecognizeLargest(context.Context, image.Image) (*recognition.Result, error) {
	panic("boom")
}

func newTestServer(t *testing.T, recognizer handlers.Recognizer) *Server {
	t.Helper()
	return NewServer(config.Defaults(), recognizer, "127.0.0.1", 0)
}

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

func uploadRequest(t *testing.T, path string) *http.Request {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	img.Set(1, 1, color.White)
	var data bytes.Buffer
	if err := png.Encode(&data, img); err != nil {
		t.Fatal(err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(constants.RecognizeFormField, "face.png")
	if err != nil {
		t.Fatal(err)
	}
	part.Write(data.Bytes())
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestRoutes(t *testing.T) {
	s := newTestServer(t, &stubRecognizer{model: testModel(t)})

	tests := []struct {
		name   string
		req    *http.Request
		status int
		ctype  string
	}{
		{"Home", httptest.NewRequest(http.MethodGet, "/", nil), http.StatusOK, "text/plain; charset=utf-8"},
		{"Health", httptest.NewRequest(http.MethodGet, "/api/v1/health", nil), http.StatusOK, "application/json"},
		{"Labels", httptest.NewRequest(http.MethodGet, "/api/v1/labels", nil), http.StatusOK, "application/json"},
		{"RecognizeFace", uploadRequest(t, "/recognize_face"), http.StatusOK, "application/json"},
		{"RecognizeV1", uploadRequest(t, "/api/v1/recognize"), http.StatusOK, "application/json"},
		{"RecognizeWrongMethod", httptest.NewRequest(http.MethodGet, "/recognize_face", nil), http.StatusMethodNotAllowed, ""},
		{"NotFound", httptest.NewRequest(http.MethodGet, "/nope", nil), http.StatusNotFound, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			s.Router().ServeHTTP(recorder, tc.req)

			if recorder.Code != tc.status {
				t.Errorf("expected status %d, got %d\nBody: %s", tc.status, recorder.Code, recorder.Body.String())
			}
			if tc.ctype != "" && recorder.Header().Get("Content-Type") != tc.ctype {
				t.Errorf("expected Content-Type %q, got %q", tc.ctype, recorder.Header().Get("Content-Type"))
			}
		})
	}
}

func TestRecognizeResponseShape(t *testing.T) {
	s := newTestServer(t, &stubRecognizer{model: testModel(t)})
	recorder := httptest.NewRecorder()
	s.Router().ServeHTTP(recorder, uploadRequest(t, "/recognize_face"))

	var resp map[string]any
	if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	want := map[string]any{"recognized_name": "alice", "confidence": float64(90), "is_known": true}
	for k, v := range want {
		if resp[k] != v {
			t.Errorf("%s = %v, want %v", k, resp[k], v)
		}
	}
	if len(resp) != len(want) {
		t.Errorf("unexpected fields in response: %v", resp)
	}
}

func TestPanicBecomesJSONError(t *testing.T) {
	s := newTestServer(t, &panickingRecognizer{stubRecognizer{model: testModel(t)}})
	recorder := httptest.NewRecorder()
	s.Router().ServeHTTP(recorder, uploadRequest(t, "/recognize_face"))

	if recorder.Code != http.StatusInternalServerError {
		t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, recorder.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp["error"] != "boom" {
		t.Errorf("expected error 'boom', got %q", resp["error"])
	}
}
