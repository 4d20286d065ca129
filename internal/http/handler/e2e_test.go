package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"imgdrop/internal/http/middleware"
	"imgdrop/internal/repository"
	"imgdrop/internal/service"
	"imgdrop/internal/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var uploadURL = regexp.MustCompile(`^http://localhost:8000/uploads/([0-9a-f]{32}\.(png|jpg|jpeg))$`)

// newTestApp wires the real service over a temp directory, the way cmd/api does.
func newTestApp(t *testing.T) (*fiber.App, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewLocal(dir)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	metrics, err := middleware.NewUploadMetrics(reg)
	require.NoError(t, err)

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	app.Use(middleware.RequestID())
	app.Use(middleware.CORS())
	RegisterRoutes(app, service.NewImageService(store, repository.Discard), Options{
		URLs:     testURLs,
		Metrics:  metrics,
		Gatherer: reg,
	})
	return app, dir
}

func decodeURL(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body["url"]
}

func TestUploadAndFetch(t *testing.T) {
	app, dir := newTestApp(t)

	resp, err := app.Test(uploadRequest(t, "photo.JPG", []byte("abc")))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	raw := decodeURL(t, resp)
	m := uploadURL.FindStringSubmatch(raw)
	require.NotNil(t, m, "unexpected url %q", raw)
	assert.Equal(t, "jpg", m[2])

	onDisk, err := os.ReadFile(filepath.Join(dir, m[1]))
	require.NoError(t, err)
	assert.Equal(t, "abc", string(onDisk))

	u, err := url.Parse(raw)
	require.NoError(t, err)
	get, err := app.Test(httptest.NewRequest(http.MethodGet, u.Path, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, get.StatusCode)
	assert.Equal(t, "image/jpeg", get.Header.Get("Content-Type"))
	body, _ := io.ReadAll(get.Body)
	assert.Equal(t, "abc", string(body))

	head, err := app.Test(httptest.NewRequest(http.MethodHead, u.Path, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, head.StatusCode)
	assert.Equal(t, "3", head.Header.Get("Content-Length"))
}

func TestUploadAllowedExtensions(t *testing.T) {
	app, dir := newTestApp(t)
	content := []byte{0x89, 'P', 'N', 'G', 0x00, 0xff}

	for _, name := range []string{"a.png", "b.PNG", "c.jpg", "d.Jpeg", "e.JPEG"} {
		t.Run(name, func(t *testing.T) {
			resp, err := app.Test(uploadRequest(t, name, content))
			require.NoError(t, err)
			require.Equal(t, http.StatusOK, resp.StatusCode)

			m := uploadURL.FindStringSubmatch(decodeURL(t, resp))
			require.NotNil(t, m)
			onDisk, err := os.ReadFile(filepath.Join(dir, m[1]))
			require.NoError(t, err)
			assert.Equal(t, content, onDisk)
		})
	}
}

func TestUploadRejectedExtensions(t *testing.T) {
	app, dir := newTestApp(t)

	for _, name := range []string{"anim.gif", "notes.txt", "noext", "photo.png.exe", "../../etc/passwd", ".png", ".JPG"} {
		t.Run(name, func(t *testing.T) {
			resp, err := app.Test(uploadRequest(t, name, []byte("data")))
			require.NoError(t, err)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

			var res errorPayload
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
			assert.NotEmpty(t, res.Error)
			assert.NotEmpty(t, res.RequestID)
		})
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestUploadIgnoresClientPath(t *testing.T) {
	app, dir := newTestApp(t)

	resp, err := app.Test(uploadRequest(t, "../../escape.png", []byte("abc")))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	m := uploadURL.FindStringSubmatch(decodeURL(t, resp))
	require.NotNil(t, m)
	_, err = os.Stat(filepath.Join(dir, m[1]))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(filepath.Dir(dir), "escape.png"))
	assert.True(t, os.IsNotExist(err))
}

func TestFetchMissing(t *testing.T) {
	app, _ := newTestApp(t)

	for _, p := range []string{"/uploads/0123456789abcdef0123456789abcdef.png", "/uploads/..%2Fsecret.png"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, p, nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, p)
	}
}

func TestUploadCORS(t *testing.T) {
	app, _ := newTestApp(t)

	req := uploadRequest(t, "a.png", []byte("abc"))
	req.Header.Set("Origin", "http://unity.local")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
