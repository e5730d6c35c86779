package handlers

import (
	"context"
	"errors"
	"image"
	"log"
	"math"
	"net/http"

	"github.com/kozaktomas/facerec/internal/classifier"
	"github.com/kozaktomas/facerec/internal/constants"
	"github.com/kozaktomas/facerec/internal/imageutil"
	"github.com/kozaktomas/facerec/internal/recognition"
)

// Recognizer is the part of the recognition pipeline the HTTP API needs.
type Recognizer interface {
	RecognizeLargest(ctx context.Context, img image.Image) (*recognition.Result, error)
	Model() *classifier.Model
}

// FacesHandler serves recognition requests.
type FacesHandler struct {
	recognizer   Recognizer
	maxImageSize int
}

// NewFacesHandler creates a new faces handler. Images wider or taller than
// maxImageSize are downscaled before detection; 0 disables downscaling.
func NewFacesHandler(recognizer Recognizer, maxImageSize int) *FacesHandler {
	return &FacesHandler{
		recognizer:   recognizer,
		maxImageSize: maxImageSize,
	}
}

// RecognizeResponse is the body returned for a recognized (or unknown) face.
type RecognizeResponse struct {
	RecognizedName string  `json:"recognized_name"`
	Confidence     float64 `json:"confidence"`
	IsKnown        bool    `json:"is_known"`
}

// NoFaceResponse is the body returned when no face could be aligned.
type NoFaceResponse struct {
	Result string `json:"result"`
}

// LabelsResponse lists the identities the loaded model knows.
type LabelsResponse struct {
	Labels  []string `json:"labels"`
	ModelID string   `json:"model_id"`
}

// HealthResponse reports that the server is up and how many identities it knows.
type HealthResponse struct {
	Status string `json:"status"`
	Labels int    `json:"labels"`
}

// Recognize identifies the largest face in the uploaded image.
func (h *FacesHandler) Recognize(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxUploadSize)
	if err := r.ParseMultipartForm(constants.MaxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "Image too large")
			return
		}
		respondError(w, http.StatusBadRequest, "No image file provided")
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File[constants.RecognizeFormField]
	if len(headers) == 0 {
		// A part sent without a file name is parsed as a plain form value.
		if _, ok := r.MultipartForm.Value[constants.RecognizeFormField]; ok {
			respondError(w, http.StatusBadRequest, "No selected file")
			return
		}
		respondError(w, http.StatusBadRequest, "No image file provided")
		return
	}
	if headers[0].Filename == "" {
		respondError(w, http.StatusBadRequest, "No selected file")
		return
	}

	file, err := headers[0].Open()
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer file.Close()

	img, err := imageutil.Decode(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Could not decode image")
		return
	}
	img, _ = imageutil.Fit(img, h.maxImageSize)

	result, err := h.recognizer.RecognizeLargest(r.Context(), img)
	if err != nil {
		log.Printf("recognizing %s: %v", sanitizeForLog(headers[0].Filename), err)
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if result == nil || result.Status == recognition.StatusNoFaceData {
		respondJSON(w, http.StatusOK, NoFaceResponse{Result: constants.NoFaceResult})
		return
	}

	respondJSON(w, http.StatusOK, RecognizeResponse{
		RecognizedName: result.Name,
		Confidence:     percent(result.Confidence),
		IsKnown:        result.Known(),
	})
}

// Labels lists the identities of the loaded model.
func (h *FacesHandler) Labels(w http.ResponseWriter, r *http.Request) {
	model := h.recognizer.Model()
	respondJSON(w, http.StatusOK, LabelsResponse{
		Labels:  model.Codec.Labels(),
		ModelID: model.ID.String(),
	})
}

// Health handles the health check endpoint.
func (h *FacesHandler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Labels: h.recognizer.Model().Classes(),
	})
}

// percent converts a probability to a percentage rounded to two decimals.
func percent(p float64) float64 {
	return math.Round(p*10000) / 100
}
