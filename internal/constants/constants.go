// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures every caller (training, evaluation,
// the real-time loop and the HTTP endpoint) applies the same rules.
package constants

// Recognition constants
const (
	// DefaultRecognitionThreshold is the minimum calibrated probability for a
	// prediction to be reported as a known identity. The comparison is strict:
	// a confidence exactly equal to the threshold is Unknown.
	DefaultRecognitionThreshold = 0.70

	// UnknownName is reported when the best probability does not exceed the threshold
	UnknownName = "Unknown"

	// NoFaceDataName is reported when a face was located but could not be aligned
	NoFaceDataName = "No Face Data"

	// NotAvailable is displayed instead of a confidence when there is none
	NotAvailable = "N/A"
)

// Alignment constants
const (
	// AlignedFaceWidth is the width of the aligned face fed to the embedding network
	AlignedFaceWidth = 160

	// AlignedFaceHeight is the height of the aligned face fed to the embedding network
	AlignedFaceHeight = 160

	// DesiredLeftEyeX is the horizontal position of the left eye center in the
	// aligned face as a fraction of its width
	DesiredLeftEyeX = 0.35

	// DesiredLeftEyeY is the vertical position of both eye centers as a fraction of the height
	DesiredLeftEyeY = 0.35
)

// Landmark location constants
const (
	// DefaultUpsampleBatch is the detector upsample count for dataset images and uploads
	DefaultUpsampleBatch = 1

	// DefaultUpsampleRealtime is the detector upsample count for webcam frames
	DefaultUpsampleRealtime = 0

	// MaxUpsample bounds the upsample count; every step doubles both image dimensions
	MaxUpsample = 3

	// SuppressionIoU is the overlap above which two detections are treated as the same face
	SuppressionIoU = 0.3
)

// Processing constants
const (
	// MaxImageSize is the maximum dimension (width or height) for image processing
	MaxImageSize = 1920

	// DefaultEmbeddingBatchSize is the number of aligned faces embedded per call during training
	DefaultEmbeddingBatchSize = 32
)

// Classifier constants
const (
	// DefaultSVMCost is the soft-margin penalty of the linear machines
	DefaultSVMCost = 1.0

	// SVMTolerance is the stopping tolerance on the projected gradient gap
	SVMTolerance = 0.1

	// SVMMaxIterations bounds the coordinate descent passes per machine
	SVMMaxIterations = 1000

	// CalibrationFolds is the number of cross-validation folds used to produce
	// decision values for probability calibration
	CalibrationFolds = 5

	// DefaultTrainingSeed makes sample ordering reproducible between runs
	DefaultTrainingSeed = 1

	// DefaultConflictDistance is the cosine distance under which two training
	// embeddings with different labels are reported as a likely labelling mistake
	DefaultConflictDistance = 0.05
)

// Artifact constants
const (
	// ClassifierFileName holds the trained machines and calibration parameters
	ClassifierFileName = "classifier.json"

	// LabelsFileName holds the label codec saved together with the classifier
	LabelsFileName = "labels.json"

	// ArtifactFormatVersion is bumped when the JSON layout of the artifacts changes
	ArtifactFormatVersion = 1
)

// Capture constants
const (
	// CaptureDebounceMillis is the pause after each saved capture
	CaptureDebounceMillis = 100

	// CaptureFileDigits is the zero padding of sequential capture file names
	CaptureFileDigits = 3
)
