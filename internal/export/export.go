// Package export turns a session's latest processed image into a deliverable artifact.
package export

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/ds124wfegd/pagestudio/internal/editor"
	"github.com/ds124wfegd/pagestudio/internal/entity"
	"github.com/ds124wfegd/pagestudio/internal/pkg/dataurl"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Source is the published state the adapter reads. Session satisfies it.
type Source interface {
	SessionID() string
	LastProcessed() *editor.Result
}

// Sink delivers an artifact and reports where it went.
type Sink interface {
	Deliver(ctx context.Context, artifact *entity.Artifact) (string, error)
}

type Adapter struct {
	filename string
}

func NewAdapter(filename string) *Adapter {
	if filename == "" {
		filename = "instagram-image.png"
	}
	return &Adapter{filename: filename}
}

// ExportCurrent snapshots the latest published result. It fails with NotReadyError before the
// first successful round trip.
func (a *Adapter) ExportCurrent(src Source) (*entity.Artifact, error) {
	res := src.LastProcessed()
	if res == nil {
		return nil, &entity.NotReadyError{SessionID: src.SessionID()}
	}

	data := make([]byte, len(res.Data))
	copy(data, res.Data)

	mime := dataurl.MimeType(data)
	return &entity.Artifact{
		ID:        uuid.New().String(),
		SessionID: src.SessionID(),
		Sequence:  res.Sequence,
		Filename:  a.filenameFor(mime),
		MimeType:  mime,
		Size:      len(data),
		CreatedAt: time.Now(),
		Data:      data,
	}, nil
}

// Export snapshots the current result and hands it to sink.
func (a *Adapter) Export(ctx context.Context, src Source, sink Sink) (*entity.Artifact, string, error) {
	artifact, err := a.ExportCurrent(src)
	if err != nil {
		return nil, "", err
	}
	location, err := sink.Deliver(ctx, artifact)
	if err != nil {
		return nil, "", fmt.Errorf("failed to deliver %s: %w", artifact.ID, err)
	}

	logrus.WithFields(logrus.Fields{
		"session_id":  artifact.SessionID,
		"artifact_id": artifact.ID,
		"seq":         artifact.Sequence,
		"location":    location,
	}).Info("artifact exported")
	return artifact, location, nil
}

// filenameFor swaps the configured extension for one matching the detected type.
func (a *Adapter) filenameFor(mime string) string {
	ext := ""
	switch mime {
	case "image/png":
		ext = ".png"
	case "image/jpeg":
		ext = ".jpg"
	case "image/gif":
		ext = ".gif"
	default:
		return a.filename
	}
	return strings.TrimSuffix(a.filename, filepath.Ext(a.filename)) + ext
}
