package database

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ds124wfegd/pagestudio/internal/entity"
	"github.com/ds124wfegd/pagestudio/internal/pkg/storage"
)

func NewExportRepository(storage storage.FileStorage) ExportRepository {
	return &fileExportRepository{storage: storage}
}

// Save writes the image under exports/<id>/<filename> and its metadata next to it. The image
// goes first so metadata never points at a missing file. It returns the image's path.
func (r *fileExportRepository) Save(artifact *entity.Artifact) (string, error) {
	imagePath := r.imagePath(artifact)
	if err := r.storage.Save(imagePath, bytes.NewReader(artifact.Data)); err != nil {
		return "", fmt.Errorf("failed to save artifact %s: %w", artifact.ID, err)
	}

	data, err := json.Marshal(artifact)
	if err != nil {
		return "", err
	}
	if err := r.storage.Save(r.metadataPath(artifact.ID), bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("failed to save metadata for %s: %w", artifact.ID, err)
	}

	return r.storage.Path(imagePath), nil
}

// FindByID returns the artifact metadata without image bytes, or nil when unknown.
func (r *fileExportRepository) FindByID(id string) (*entity.Artifact, error) {
	reader, err := r.storage.Get(r.metadataPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer reader.Close()

	var artifact entity.Artifact
	if err := json.NewDecoder(reader).Decode(&artifact); err != nil {
		return nil, err
	}
	return &artifact, nil
}

func (r *fileExportRepository) Open(id string) (io.ReadCloser, error) {
	artifact, err := r.FindByID(id)
	if err != nil {
		return nil, err
	}
	if artifact == nil {
		return nil, os.ErrNotExist
	}
	return r.storage.Get(r.imagePath(artifact))
}

func (r *fileExportRepository) Delete(id string) error {
	if err := r.storage.Delete(filepath.Join("exports", id)); err != nil && !os.IsNotExist(err) {
		return err
	}
	if err := r.storage.Delete(r.metadataPath(id)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (r *fileExportRepository) imagePath(a *entity.Artifact) string {
	return filepath.Join("exports", a.ID, filepath.Base(a.Filename))
}

func (r *fileExportRepository) metadataPath(id string) string {
	return filepath.Join("metadata", id+".json")
}
