// Package processing talks to the remote image processor over HTTP.
package processing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/ds124wfegd/pagestudio/internal/entity"
	"github.com/ds124wfegd/pagestudio/internal/pkg/dataurl"
	"github.com/sirupsen/logrus"
)

// maxResponseSize bounds how much of a response body is read.
const maxResponseSize = 64 << 20

type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Process sends the original image with the full operation snapshot and returns the processed
// image bytes. Failures are ProcessingError, TransportError or DecodeError. No retries.
func (c *Client) Process(ctx context.Context, original []byte, ops entity.OperationState) ([]byte, error) {
	body, err := json.Marshal(entity.ProcessRequest{
		Image:      dataurl.Encode(original),
		Operations: ops,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/process_image", bytes.NewReader(body))
	if err != nil {
		return nil, &entity.TransportError{Op: "process", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	var resp entity.ProcessResponse
	if err := c.do(req, "process", &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, &entity.ProcessingError{Message: resp.Error}
	}
	if resp.ProcessedImage == "" {
		return nil, &entity.DecodeError{Err: errors.New("response has neither processed_image nor error")}
	}

	data, err := dataurl.Decode(resp.ProcessedImage)
	if err != nil {
		return nil, &entity.DecodeError{Err: err}
	}
	return data, nil
}

// Upload sends a file to the extraction endpoint and returns one image per page.
func (c *Client) Upload(ctx context.Context, filename string, file io.Reader) ([][]byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", &buf)
	if err != nil {
		return nil, &entity.TransportError{Op: "upload", Err: err}
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var resp entity.UploadResponse
	if err := c.do(req, "upload", &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, &entity.ProcessingError{Message: resp.Error}
	}

	pages := make([][]byte, 0, len(resp.Images))
	for i, img := range resp.Images {
		data, err := dataurl.Decode(img.Data)
		if err != nil {
			return nil, &entity.DecodeError{Err: fmt.Errorf("page %d: %w", i, err)}
		}
		pages = append(pages, data)
	}
	return pages, nil
}

// Templates lists the overlay templates the processor offers.
func (c *Client) Templates(ctx context.Context) ([]entity.TemplateInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/templates", nil)
	if err != nil {
		return nil, &entity.TransportError{Op: "templates", Err: err}
	}

	var resp struct {
		Templates []entity.TemplateInfo `json:"templates"`
		Error     string                `json:"error"`
	}
	if err := c.do(req, "templates", &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, &entity.ProcessingError{Message: resp.Error}
	}
	return resp.Templates, nil
}

// do sends req and decodes the JSON body into out. A body that is not JSON is a DecodeError on
// success statuses and a TransportError otherwise; a JSON error body is left for the caller.
func (c *Client) do(req *http.Request, op string, out interface{}) error {
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return &entity.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return &entity.TransportError{Op: op, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	logrus.WithFields(logrus.Fields{
		"op":       op,
		"status":   resp.StatusCode,
		"bytes":    len(body),
		"duration": time.Since(start),
	}).Debug("processor responded")

	if err := json.Unmarshal(body, out); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return &entity.TransportError{Op: op, Err: fmt.Errorf("received non-2xx status code: %d", resp.StatusCode)}
		}
		return &entity.DecodeError{Err: fmt.Errorf("failed to decode response body: %w", err)}
	}
	return nil
}
