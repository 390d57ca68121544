package transport

import (
	"errors"
	"net/http"

	"github.com/ds124wfegd/pagestudio/internal/entity"
	"github.com/ds124wfegd/pagestudio/internal/pkg/dataurl"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func (h *ImageHandler) ProcessImage(c *gin.Context) {
	req := entity.ProcessRequest{Operations: entity.DefaultOperations()}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if req.Image == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No image provided"})
		return
	}

	processed, err := h.service.ProcessImage(c.Request.Context(), req.Image, req.Operations)
	if err != nil {
		status, msg := processStatus(err)
		logrus.WithField("request_id", c.GetString(requestIDKey)).Errorf("error processing image: %v", err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusOK, entity.ProcessResponse{ProcessedImage: processed})
}

func (h *ImageHandler) UploadImage(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadSize+1<<20)

	file, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusBadRequest, gin.H{"error": entity.ErrFileTooLarge.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
		return
	}
	if file.Filename == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file selected"})
		return
	}
	if file.Size > h.maxUploadSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": entity.ErrFileTooLarge.Error()})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error reading upload"})
		return
	}
	defer src.Close()

	pages, err := h.service.UploadImage(c.Request.Context(), file.Filename, src)
	if err != nil {
		switch {
		case errors.Is(err, entity.ErrUnsupportedFormat):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid file type. Supported: png, jpeg, gif"})
		case errors.Is(err, entity.ErrFileTooLarge):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			logrus.WithField("file", file.Filename).Errorf("error processing upload: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error processing file"})
		}
		return
	}

	c.JSON(http.StatusOK, entity.UploadResponse{Images: pages})
}

func (h *ImageHandler) ListTemplates(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"templates": h.service.Templates()})
}

// processStatus maps a processing failure to the status and message sent to the client.
func processStatus(err error) (int, string) {
	switch {
	case errors.Is(err, dataurl.ErrMalformed),
		errors.Is(err, entity.ErrEmptyImage),
		errors.Is(err, entity.ErrUnsupportedFormat):
		return http.StatusBadRequest, "Invalid image data"
	case errors.Is(err, entity.ErrUnknownTemplate):
		return http.StatusBadRequest, entity.ErrUnknownTemplate.Error()
	default:
		return http.StatusInternalServerError, "Error processing image"
	}
}
