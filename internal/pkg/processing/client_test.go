package processing

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ds124wfegd/pagestudio/config"
	"github.com/ds124wfegd/pagestudio/internal/entity"
	"github.com/ds124wfegd/pagestudio/internal/pkg/processor"
	"github.com/ds124wfegd/pagestudio/internal/service"
	"github.com/ds124wfegd/pagestudio/internal/transport"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngOf(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func TestProcessRequestShape(t *testing.T) {
	original := pngOf(t, 3, 3)
	processed := []byte("X-processed-bytes")

	var got map[string]json.RawMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/process_image", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(map[string]string{"processed_image": base64.StdEncoding.EncodeToString(processed)})
	}))
	defer srv.Close()

	ops := entity.DefaultOperations()
	ops.Brightness = 1.4
	ops.Contrast = 0.8
	ops.Grayscale = true

	data, err := New(srv.URL, time.Second).Process(context.Background(), original, ops)
	require.NoError(t, err)
	assert.Equal(t, processed, data)

	var sent string
	require.NoError(t, json.Unmarshal(got["image"], &sent))
	assert.Equal(t, "data:image/png;base64,"+base64.StdEncoding.EncodeToString(original), sent)
	assert.JSONEq(t, `{"brightness":1.4,"contrast":0.8,"grayscale":true,"enhance":false,"template":null,
		"crop":null,"perspective_correction":false,"show_boundaries":true}`, string(got["operations"]))
}

func TestProcessErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		checkAs func(t *testing.T, err error)
	}{
		{"explicit error", http.StatusInternalServerError, `{"error":"Error processing image"}`, func(t *testing.T, err error) {
			var pe *entity.ProcessingError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, "Error processing image", pe.Message)
		}},
		{"malformed body", http.StatusOK, `<html>`, func(t *testing.T, err error) {
			var de *entity.DecodeError
			assert.ErrorAs(t, err, &de)
		}},
		{"bad base64", http.StatusOK, `{"processed_image":"%%%"}`, func(t *testing.T, err error) {
			var de *entity.DecodeError
			assert.ErrorAs(t, err, &de)
		}},
		{"empty object", http.StatusOK, `{}`, func(t *testing.T, err error) {
			var de *entity.DecodeError
			assert.ErrorAs(t, err, &de)
		}},
		{"gateway failure", http.StatusBadGateway, `upstream down`, func(t *testing.T, err error) {
			var te *entity.TransportError
			assert.ErrorAs(t, err, &te)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			_, err := New(srv.URL, time.Second).Process(context.Background(), pngOf(t, 1, 1), entity.DefaultOperations())
			require.Error(t, err)
			assert.True(t, entity.IsProcessorFailure(err))
			tt.checkAs(t, err)
		})
	}
}

func TestProcessTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url, time.Second).Process(context.Background(), pngOf(t, 1, 1), entity.DefaultOperations())
	var te *entity.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "process", te.Op)
}

func newProcessorServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	p := processor.NewImageProcessor(config.ProcessorConfig{PageSize: 48, EnhanceClip: 0.01, BoundaryWidth: 2, MinQuadArea: 0.1})
	svc := service.NewImageService(p, nil, 1<<20)
	srv := httptest.NewServer(transport.InitRoutes(transport.NewImageHandler(svc, 1<<20), 5))
	t.Cleanup(srv.Close)
	return srv
}

func TestClientAgainstProcessorService(t *testing.T) {
	srv := newProcessorServer(t)
	c := New(srv.URL+"/", 5*time.Second)
	ctx := context.Background()

	pages, err := c.Upload(ctx, "page.png", bytes.NewReader(pngOf(t, 20, 10)))
	require.NoError(t, err)
	require.Len(t, pages, 1)

	ops := entity.DefaultOperations()
	ops.Template = "minimal"
	out, err := c.Process(ctx, pages[0], ops)
	require.NoError(t, err)
	cfg, err := png.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 48, cfg.Width)

	ops.Template = "missing"
	_, err = c.Process(ctx, pages[0], ops)
	var pe *entity.ProcessingError
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, pe.Message, "unknown template")

	_, err = c.Upload(ctx, "doc.pdf", strings.NewReader("%PDF-1.7\n"))
	require.ErrorAs(t, err, &pe)

	templates, err := c.Templates(ctx)
	require.NoError(t, err)
	assert.Len(t, templates, 4)
}
