package entity

import "time"

// ProcessRequest is the body of POST /process_image. Image is a data URL.
type ProcessRequest struct {
	Image      string         `json:"image"`
	Operations OperationState `json:"operations"`
}

// ProcessResponse carries either ProcessedImage (base64) or Error.
type ProcessResponse struct {
	ProcessedImage string `json:"processed_image,omitempty"`
	Error          string `json:"error,omitempty"`
}

type Page struct {
	ID   int    `json:"id"`
	Data string `json:"data"`
}

type UploadResponse struct {
	Images []Page `json:"images,omitempty"`
	Error  string `json:"error,omitempty"`
}

type TemplateInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// Artifact is an exported image ready for delivery.
type Artifact struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Sequence  uint64    `json:"sequence"`
	Filename  string    `json:"filename"`
	MimeType  string    `json:"mime_type"`
	Size      int       `json:"size"`
	CreatedAt time.Time `json:"created_at"`
	Data      []byte    `json:"-"`
}

// ShareMessage is published for the share delivery path.
type ShareMessage struct {
	ArtifactID string    `json:"artifact_id"`
	SessionID  string    `json:"session_id"`
	Filename   string    `json:"filename"`
	MimeType   string    `json:"mime_type"`
	Data       string    `json:"data"`
	CreatedAt  time.Time `json:"created_at"`
}
