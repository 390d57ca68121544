package transport

import (
	"github.com/ds124wfegd/pagestudio/internal/service"
)

type ImageHandler struct {
	service       service.ImageService
	maxUploadSize int64
}

func NewImageHandler(service service.ImageService, maxUploadSize int64) *ImageHandler {
	return &ImageHandler{service: service, maxUploadSize: maxUploadSize}
}
