// Package constants provides shared constants used across the codebase.
package constants

// File upload constants
const (
	// MaxUploadSize is the maximum file upload size in bytes (100MB)
	MaxUploadSize = 100 << 20

	// RecognizeFormField is the multipart field carrying the image to recognize
	RecognizeFormField = "image"
)

// Endpoint result messages
const (
	// NoFaceResult is returned in the "result" field when nothing could be recognized
	NoFaceResult = "No face detected or aligned"

	// HomeBanner is served on the root route
	HomeBanner = "Face Recognition API is running! Send POST request to /recognize_face"
)
