package export

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/ds124wfegd/pagestudio/internal/database"
	"github.com/ds124wfegd/pagestudio/internal/entity"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Archiver stores artifacts received from the share topic in the export repository.
type Archiver struct {
	repo database.ExportRepository
}

func NewArchiver(repo database.ExportRepository) *Archiver {
	return &Archiver{repo: repo}
}

// HandleMessage decodes one share message and saves it. A redelivered artifact is skipped.
func (a *Archiver) HandleMessage(_ context.Context, value []byte) error {
	var msg entity.ShareMessage
	if err := json.Unmarshal(value, &msg); err != nil {
		return fmt.Errorf("failed to parse share message: %w", err)
	}
	if _, err := uuid.Parse(msg.ArtifactID); err != nil {
		return fmt.Errorf("invalid artifact id %q: %w", msg.ArtifactID, err)
	}

	log := logrus.WithFields(logrus.Fields{"artifact_id": msg.ArtifactID, "session_id": msg.SessionID})

	existing, err := a.repo.FindByID(msg.ArtifactID)
	if err != nil {
		return err
	}
	if existing != nil {
		log.Debug("artifact already archived")
		return nil
	}

	data, err := base64.StdEncoding.DecodeString(msg.Data)
	if err != nil {
		return fmt.Errorf("failed to decode artifact %s: %w", msg.ArtifactID, err)
	}

	location, err := a.repo.Save(&entity.Artifact{
		ID:        msg.ArtifactID,
		SessionID: msg.SessionID,
		Filename:  msg.Filename,
		MimeType:  msg.MimeType,
		Size:      len(data),
		CreatedAt: msg.CreatedAt,
		Data:      data,
	})
	if err != nil {
		return err
	}
	log.WithField("location", location).Info("shared artifact archived")
	return nil
}
