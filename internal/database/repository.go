package database

import (
	"io"

	"github.com/ds124wfegd/pagestudio/internal/entity"
	"github.com/ds124wfegd/pagestudio/internal/pkg/storage"
)

// ExportRepository keeps exported artifacts and their metadata.
type ExportRepository interface {
	Save(artifact *entity.Artifact) (string, error)
	FindByID(id string) (*entity.Artifact, error)
	Open(id string) (io.ReadCloser, error)
	Delete(id string) error
}

type fileExportRepository struct {
	storage storage.FileStorage
}
