package transport

import (
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ds124wfegd/pagestudio/config"
	"github.com/ds124wfegd/pagestudio/internal/entity"
	"github.com/ds124wfegd/pagestudio/internal/pkg/dataurl"
	"github.com/ds124wfegd/pagestudio/internal/pkg/processor"
	"github.com/ds124wfegd/pagestudio/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	p := processor.NewImageProcessor(config.ProcessorConfig{PageSize: 32, EnhanceClip: 0.01, BoundaryWidth: 2, MinQuadArea: 0.1})
	svc := service.NewImageService(p, nil, 1<<20)
	return InitRoutes(NewImageHandler(svc, 1<<20), 5)
}

func samplePNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 6))))
	return buf.Bytes()
}

func postJSON(router http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestProcessImageEndpoint(t *testing.T) {
	router := newTestRouter(t)

	ops := entity.DefaultOperations()
	ops.Crop = entity.RectCrop{Left: 1, Top: 1, Width: 4, Height: 2}
	w := postJSON(router, "/process_image", entity.ProcessRequest{Image: dataurl.Encode(samplePNG(t)), Operations: ops})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp entity.ProcessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Error)

	data, err := dataurl.Decode(resp.ProcessedImage)
	require.NoError(t, err)
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Width)
	assert.Equal(t, 2, cfg.Height)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestProcessImageErrorsUseErrorShape(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name   string
		body   interface{}
		status int
	}{
		{"missing image", map[string]interface{}{"operations": map[string]interface{}{}}, http.StatusBadRequest},
		{"garbage image", map[string]interface{}{"image": "data:image/png;base64,!!"}, http.StatusBadRequest},
		{"unknown template", map[string]interface{}{
			"image":      dataurl.Encode(samplePNG(t)),
			"operations": map[string]interface{}{"template": "neon"},
		}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(router, "/process_image", tt.body)
			assert.Equal(t, tt.status, w.Code)

			var resp map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp["error"])
		})
	}
}

func uploadRequest(t *testing.T, filename string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadEndpoint(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, uploadRequest(t, "page.png", samplePNG(t)))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp entity.UploadResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Images, 1)

	data, err := dataurl.Decode(resp.Images[0].Data)
	require.NoError(t, err)
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 32, cfg.Width)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, uploadRequest(t, "doc.pdf", []byte("%PDF-1.7\n")))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/upload", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTemplatesAndHealth(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/templates", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Templates []entity.TemplateInfo `json:"templates"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Templates, 4)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/process_image", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
