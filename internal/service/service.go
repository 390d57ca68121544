package service

import (
	"context"
	"io"

	"github.com/ds124wfegd/pagestudio/internal/database/redis"
	"github.com/ds124wfegd/pagestudio/internal/entity"
	"github.com/ds124wfegd/pagestudio/internal/pkg/processor"
)

type ImageService interface {
	ProcessImage(ctx context.Context, image string, ops entity.OperationState) (string, error)
	UploadImage(ctx context.Context, filename string, file io.Reader) ([]entity.Page, error)
	Templates() []entity.TemplateInfo
}

type imageService struct {
	processor     processor.ImageProcessor
	cache         redis.ResultCache
	maxUploadSize int64
}

func NewImageService(processor processor.ImageProcessor, cache redis.ResultCache, maxUploadSize int64) ImageService {
	if cache == nil {
		cache = redis.NoopCache{}
	}
	return &imageService{
		processor:     processor,
		cache:         cache,
		maxUploadSize: maxUploadSize,
	}
}
