package handlers

import (
	"errors"
	"image"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kozaktomas/facerec/internal/constants"
	"github.com/kozaktomas/facerec/internal/recognition"
)

func TestRecognize_KnownFace(t *testing.T) {
	fake := &fakeRecognizer{result: &recognition.Result{
		Box:        image.Rect(10, 10, 50, 50),
		Status:     recognition.StatusKnown,
		Name:       "alice",
		Label:      "alice",
		Confidence: 0.912345,
	}}
	h := NewFacesHandler(fake, 0)

	recorder := httptest.NewRecorder()
	h.Recognize(recorder, multipartRequest(t, "/recognize_face", "image", "face.png", pngBytes(t, 20, 20)))

	assertStatusCode(t, recorder, http.StatusOK)
	assertContentType(t, recorder, "application/json")

	var resp RecognizeResponse
	parseJSONResponse(t, recorder, &resp)
	if resp.RecognizedName != "alice" {
		t.Errorf("expected recognized_name 'alice', got '%s'", resp.RecognizedName)
	}
	if resp.Confidence != 91.23 {
		t.Errorf("expected confidence 91.23, got %v", resp.Confidence)
	}
	if !resp.IsKnown {
		t.Error("expected is_known true")
	}
}

func TestRecognize_UnknownFace(t *testing.T) {
	fake := &fakeRecognizer{result: &recognition.Result{
		Status:     recognition.StatusUnknown,
		Name:       constants.UnknownName,
		Label:      "bob",
		Confidence: 0.7,
	}}
	h := NewFacesHandler(fake, 0)

	recorder := httptest.NewRecorder()
	h.Recognize(recorder, multipartRequest(t, "/recognize_face", "image", "face.png", pngBytes(t, 20, 20)))

	assertStatusCode(t, recorder, http.StatusOK)
	var resp map[string]any
	parseJSONResponse(t, recorder, &resp)
	if resp["recognized_name"] != "Unknown" {
		t.Errorf("expected recognized_name 'Unknown', got '%v'", resp["recognized_name"])
	}
	if resp["confidence"] != float64(70) {
		t.Errorf("expected confidence 70, got %v", resp["confidence"])
	}
	if resp["is_known"] != false {
		t.Errorf("expected is_known false, got %v", resp["is_known"])
	}
}

func TestRecognize_NoFace(t *testing.T) {
	tests := []struct {
		name   string
		result *recognition.Result
	}{
		{"NothingLocated", nil},
		{"NotAligned", &recognition.Result{Status: recognition.StatusNoFaceData, Name: constants.NoFaceDataName}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := NewFacesHandler(&fakeRecognizer{result: tc.result}, 0)
			recorder := httptest.NewRecorder()
			h.Recognize(recorder, multipartRequest(t, "/recognize_face", "image", "face.png", pngBytes(t, 20, 20)))

			assertStatusCode(t, recorder, http.StatusOK)
			var resp map[string]string
			parseJSONResponse(t, recorder, &resp)
			if resp["result"] != constants.NoFaceResult {
				t.Errorf("expected result %q, got %q", constants.NoFaceResult, resp["result"])
			}
		})
	}
}

func TestRecognize_BadRequests(t *testing.T) {
	tests := []struct {
		name    string
		request func(t *testing.T) *http.Request
		message string
	}{
		{
			name: "NotMultipart",
			request: func(t *testing.T) *http.Request {
				return httptest.NewRequest(http.MethodPost, "/recognize_face", strings.NewReader("hello"))
			},
			message: "No image file provided",
		},
		{
			name: "WrongField",
			request: func(t *testing.T) *http.Request {
				return multipartRequest(t, "/recognize_face", "file", "face.png", pngBytes(t, 4, 4))
			},
			message: "No image file provided",
		},
		{
			name: "EmptyFileName",
			request: func(t *testing.T) *http.Request {
				return multipartRequest(t, "/recognize_face", "image", "", nil)
			},
			message: "No selected file",
		},
		{
			name: "NotAnImage",
			request: func(t *testing.T) *http.Request {
				return multipartRequest(t, "/recognize_face", "image", "face.png", []byte("definitely not a png"))
			},
			message: "Could not decode image",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fake := &fakeRecognizer{}
			h := NewFacesHandler(fake, 0)
			recorder := httptest.NewRecorder()
			h.Recognize(recorder, tc.request(t))

			assertStatusCode(t, recorder, http.StatusBadRequest)
			assertJSONError(t, recorder, tc.message)
			if fake.seen != nil {
				t.Error("recognizer should not be called for a bad request")
			}
		})
	}
}

func TestRecognize_PipelineError(t *testing.T) {
	h := NewFacesHandler(&fakeRecognizer{err: errors.New("embedding server unavailable")}, 0)
	recorder := httptest.NewRecorder()
	h.Recognize(recorder, multipartRequest(t, "/recognize_face", "image", "face.png", pngBytes(t, 8, 8)))

	assertStatusCode(t, recorder, http.StatusInternalServerError)
	assertJSONError(t, recorder, "embedding server unavailable")
}

func TestRecognize_NonFiniteConfidence(t *testing.T) {
	fake := &fakeRecognizer{result: &recognition.Result{
		Status:     recognition.StatusUnknown,
		Name:       constants.UnknownName,
		Confidence: math.NaN(),
	}}
	h := NewFacesHandler(fake, 0)
	recorder := httptest.NewRecorder()
	h.Recognize(recorder, multipartRequest(t, "/recognize_face", "image", "face.png", pngBytes(t, 8, 8)))

	assertStatusCode(t, recorder, http.StatusInternalServerError)
	assertContentType(t, recorder, "application/json")
	if recorder.Body.Len() == 0 {
		t.Fatal("expected a JSON error body")
	}
}

func TestRecognize_DownscalesLargeImages(t *testing.T) {
	fake := &fakeRecognizer{}
	h := NewFacesHandler(fake, 32)
	recorder := httptest.NewRecorder()
	h.Recognize(recorder, multipartRequest(t, "/recognize_face", "image", "big.png", pngBytes(t, 128, 64)))

	assertStatusCode(t, recorder, http.StatusOK)
	if fake.seen == nil {
		t.Fatal("recognizer was not called")
	}
	if got := fake.seen.Bounds().Size(); got != image.Pt(32, 16) {
		t.Errorf("expected downscaled size 32x16, got %v", got)
	}
}

func TestLabels(t *testing.T) {
	model := testModel(t)
	h := NewFacesHandler(&fakeRecognizer{model: model}, 0)
	recorder := httptest.NewRecorder()
	h.Labels(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/labels", nil))

	assertStatusCode(t, recorder, http.StatusOK)
	var resp LabelsResponse
	parseJSONResponse(t, recorder, &resp)
	if len(resp.Labels) != 2 || resp.Labels[0] != "alice" || resp.Labels[1] != "bob" {
		t.Errorf("expected labels [alice bob], got %v", resp.Labels)
	}
	if resp.ModelID != model.ID.String() {
		t.Errorf("expected model_id %s, got %s", model.ID, resp.ModelID)
	}
}

func TestHealth(t *testing.T) {
	h := NewFacesHandler(&fakeRecognizer{model: testModel(t)}, 0)
	recorder := httptest.NewRecorder()
	h.Health(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	assertStatusCode(t, recorder, http.StatusOK)
	assertContentType(t, recorder, "application/json")
	var resp HealthResponse
	parseJSONResponse(t, recorder, &resp)
	if resp.Status != "ok" {
		t.Errorf("expected status 'ok', got '%s'", resp.Status)
	}
	if resp.Labels != 2 {
		t.Errorf("expected 2 labels, got %d", resp.Labels)
	}
}

func TestPercent(t *testing.T) {
	tests := map[float64]float64{
		0:        0,
		1:        100,
		0.70001:  70,
		0.123456: 12.35,
	}
	for in, want := range tests {
		if got := percent(in); got != want {
			t.Errorf("percent(%v) = %v, want %v", in, got, want)
		}
	}
}
