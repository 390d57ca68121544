package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/ds124wfegd/pagestudio/internal/database/redis"
	"github.com/ds124wfegd/pagestudio/internal/entity"
	"github.com/ds124wfegd/pagestudio/internal/pkg/dataurl"
	"github.com/ds124wfegd/pagestudio/internal/pkg/processor"
	"github.com/sirupsen/logrus"
)

// ProcessImage applies ops to the image (data URL or base64) and returns the PNG result as
// base64.
func (s *imageService) ProcessImage(ctx context.Context, image string, ops entity.OperationState) (string, error) {
	original, err := dataurl.Decode(image)
	if err != nil {
		return "", err
	}
	if len(original) == 0 {
		return "", entity.ErrEmptyImage
	}

	key, err := redis.Key(original, ops)
	if err != nil {
		return "", err
	}
	log := logrus.WithField("key", key[:12])

	if cached, ok, err := s.cache.Get(ctx, key); err != nil {
		log.Warnf("cache lookup failed: %v", err)
	} else if ok {
		log.Debug("processed image served from cache")
		return base64.StdEncoding.EncodeToString(cached), nil
	}

	img, err := processor.Decode(original)
	if err != nil {
		return "", err
	}
	processed, err := s.processor.Process(ctx, img, ops)
	if err != nil {
		return "", err
	}
	data, err := processor.EncodePNG(processed)
	if err != nil {
		return "", err
	}

	if err := s.cache.Set(ctx, key, data); err != nil {
		log.Warnf("cache store failed: %v", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// UploadImage splits an uploaded file into page images, each returned as base64 PNG.
func (s *imageService) UploadImage(ctx context.Context, filename string, file io.Reader) ([]entity.Page, error) {
	data, err := io.ReadAll(io.LimitReader(file, s.maxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}
	if int64(len(data)) > s.maxUploadSize {
		return nil, entity.ErrFileTooLarge
	}
	if !dataurl.IsImage(data) {
		return nil, fmt.Errorf("%w: %s", entity.ErrUnsupportedFormat, dataurl.MimeType(data))
	}

	images, format, err := s.processor.Pages(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	pages := make([]entity.Page, 0, len(images))
	for i, img := range images {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		encoded, err := processor.EncodePNG(img)
		if err != nil {
			return nil, err
		}
		pages = append(pages, entity.Page{ID: i, Data: base64.StdEncoding.EncodeToString(encoded)})
	}

	logrus.WithFields(logrus.Fields{"file": filename, "format": format, "pages": len(pages)}).Info("upload split into pages")
	return pages, nil
}

func (s *imageService) Templates() []entity.TemplateInfo {
	return s.processor.Templates()
}
