package export

import (
	"context"
	"encoding/base64"

	"github.com/ds124wfegd/pagestudio/internal/database"
	"github.com/ds124wfegd/pagestudio/internal/entity"
	"github.com/ds124wfegd/pagestudio/internal/pkg/kafka"
)

// FileSink saves artifacts through the export repository.
type FileSink struct {
	repo database.ExportRepository
}

func NewFileSink(repo database.ExportRepository) *FileSink {
	return &FileSink{repo: repo}
}

func (s *FileSink) Deliver(_ context.Context, artifact *entity.Artifact) (string, error) {
	return s.repo.Save(artifact)
}

// ShareSink publishes artifacts for the share flow.
type ShareSink struct {
	producer kafka.Producer
	topic    string
}

func NewShareSink(producer kafka.Producer, topic string) *ShareSink {
	return &ShareSink{producer: producer, topic: topic}
}

func (s *ShareSink) Deliver(ctx context.Context, artifact *entity.Artifact) (string, error) {
	msg := entity.ShareMessage{
		ArtifactID: artifact.ID,
		SessionID:  artifact.SessionID,
		Filename:   artifact.Filename,
		MimeType:   artifact.MimeType,
		Data:       base64.StdEncoding.EncodeToString(artifact.Data),
		CreatedAt:  artifact.CreatedAt,
	}
	if err := s.producer.SendMessage(ctx, artifact.SessionID, msg); err != nil {
		return "", err
	}
	return "kafka://" + s.topic + "/" + artifact.ID, nil
}
