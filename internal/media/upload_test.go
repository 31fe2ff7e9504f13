package media

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

var (
	pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), bytes.Repeat([]byte{0}, 32)...)
	gifBytes = append([]byte("GIF89a"), bytes.Repeat([]byte{1}, 32)...)
)

func newUploader(t *testing.T, maxBytes int64) *Uploader {
	t.Helper()
	u, err := NewUploader(logs.GetLoggerFromLevel(slog.LevelError), filepath.Join(t.TempDir(), "uploads"), maxBytes)
	require.NoError(t, err)
	u.now = func() time.Time { return time.UnixMilli(1714564800000) }
	return u
}

func multipartRequest(t *testing.T, field, filename string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("caption", "ignored"))
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	r := httptest.NewRequest(http.MethodPost, "/upload-image", &body)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	return r
}

func serve(u *Uploader, r *http.Request) (int, uploadResponse) {
	rr := httptest.NewRecorder()
	u.ServeHTTP(rr, r)
	var resp uploadResponse
	_ = json.Unmarshal(rr.Body.Bytes(), &resp)
	return rr.Code, resp
}

func TestUploader_StoresImages(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		content  []byte
		pattern  string
	}{
		{"keeps the client extension", "cat.PNG", pngBytes, `^/uploads/img-1714564800000-\d+\.png$`},
		{"uses the sniffed extension without one", "blob", gifBytes, `^/uploads/img-1714564800000-\d+\.gif$`},
		{"replaces an unusual extension", "x.p n g", pngBytes, `^/uploads/img-1714564800000-\d+\.png$`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			u := newUploader(t, 0)

			status, resp := serve(u, multipartRequest(t, FieldName, tt.filename, tt.content))

			req.Equal(http.StatusOK, status)
			req.Empty(resp.Error)
			req.Regexp(regexp.MustCompile(tt.pattern), resp.URL)

			stored, err := os.ReadFile(filepath.Join(u.Dir(), strings.TrimPrefix(resp.URL, URLPrefix)))
			req.NoError(err)
			req.Equal(tt.content, stored)
		})
	}
}

func TestUploader_Rejects(t *testing.T) {
	t.Run("should reject a missing file field", func(t *testing.T) {
		status, resp := serve(newUploader(t, 0), multipartRequest(t, "file", "cat.png", pngBytes))

		require.Equal(t, http.StatusBadRequest, status)
		require.Equal(t, ErrNoFile.Error(), resp.Error)
	})

	t.Run("should reject a body that is not multipart", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/upload-image", strings.NewReader(`{"image":"x"}`))
		r.Header.Set("Content-Type", "application/json")

		status, resp := serve(newUploader(t, 0), r)

		require.Equal(t, http.StatusBadRequest, status)
		require.Equal(t, ErrNoFile.Error(), resp.Error)
	})

	t.Run("should reject files that are not images", func(t *testing.T) {
		u := newUploader(t, 0)

		status, resp := serve(u, multipartRequest(t, FieldName, "notes.png", []byte("just some text")))

		require.Equal(t, http.StatusBadRequest, status)
		require.Contains(t, resp.Error, ErrNotImage.Error())
		entries, err := os.ReadDir(u.Dir())
		require.NoError(t, err)
		require.Empty(t, entries)
	})

	t.Run("should reject svg", func(t *testing.T) {
		svg := []byte(`<svg xmlns="http://www.w3.org/2000/svg"><script>alert(1)</script></svg>`)

		status, resp := serve(newUploader(t, 0), multipartRequest(t, FieldName, "x.svg", svg))

		require.Equal(t, http.StatusBadRequest, status)
		require.Contains(t, resp.Error, ErrNotImage.Error())
	})

	t.Run("should reject files over the limit", func(t *testing.T) {
		u := newUploader(t, 16)

		status, resp := serve(u, multipartRequest(t, FieldName, "big.png", pngBytes))

		require.Equal(t, http.StatusRequestEntityTooLarge, status)
		require.Contains(t, resp.Error, ErrTooLarge.Error())
	})
}

func TestNewUploader_DefaultLimit(t *testing.T) {
	u := newUploader(t, -1)
	require.Equal(t, DefaultMaxBytes, u.maxBytes)

	info, err := os.Stat(u.Dir())
	require.NoError(t, err)
	require.True(t, info.IsDir())
}
