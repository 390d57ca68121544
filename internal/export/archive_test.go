package export

import (
	"context"
	"io"
	"testing"

	"github.com/ds124wfegd/pagestudio/internal/database"
	"github.com/ds124wfegd/pagestudio/internal/pkg/kafka"
	"github.com/ds124wfegd/pagestudio/internal/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArchiverStoresSharedArtifact(t *testing.T) {
	producer := kafka.NewMockProducer("image-shares")
	session := settledSession(t, encodePNG(t, 6, 6))

	artifact, _, err := NewAdapter("").Export(context.Background(), session, NewShareSink(producer, "image-shares"))
	require.NoError(t, err)

	repo := database.NewExportRepository(storage.NewFileStorage(t.TempDir()))
	archiver := NewArchiver(repo)

	msg := producer.Messages()[0]
	require.NoError(t, archiver.HandleMessage(context.Background(), msg.Value))
	// redelivery is a no-op
	require.NoError(t, archiver.HandleMessage(context.Background(), msg.Value))

	meta, err := repo.FindByID(artifact.ID)
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Equal(t, session.ID, meta.SessionID)
	assert.Equal(t, artifact.Size, meta.Size)

	rc, err := repo.Open(artifact.ID)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, artifact.Data, data)
}

func TestArchiverRejectsBadMessages(t *testing.T) {
	archiver := NewArchiver(database.NewExportRepository(storage.NewFileStorage(t.TempDir())))

	tests := []struct {
		name  string
		value string
	}{
		{"not json", "{"},
		{"path in id", `{"artifact_id":"../../etc","data":""}`},
		{"bad payload", `{"artifact_id":"6f1c2b1e-3a4d-4c5e-9f70-1a2b3c4d5e6f","data":"%%%"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, archiver.HandleMessage(context.Background(), []byte(tt.value)))
		})
	}
}
