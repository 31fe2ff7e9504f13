// Package media stores images posted by clients so they can be placed on the
// shared drawing.
package media

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"math/rand/v2"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

const (
	// FieldName is the multipart field carrying the image.
	FieldName = "image"
	// URLPrefix is where the upload directory is mounted.
	URLPrefix = "/uploads/"

	DefaultMaxBytes int64 = 10 << 20

	// multipart headers and boundaries on top of the file itself
	formOverhead int64 = 1 << 20
)

var (
	ErrNoFile   = errors.New("no file uploaded")
	ErrTooLarge = errors.New("file too large")
	ErrNotImage = errors.New("file is not an image")
)

var cleanExt = regexp.MustCompile(`^\.[a-z0-9]{1,10}$`)

type uploadResponse struct {
	URL   string `json:"url,omitempty"`
	Error string `json:"error,omitempty"`
}

// Uploader is the POST /upload-image handler.
type Uploader struct {
	log      *slog.Logger
	dir      string
	maxBytes int64
	now      func() time.Time
}

// NewUploader creates dir if needed. A non-positive maxBytes uses
// DefaultMaxBytes.
func NewUploader(log *slog.Logger, dir string, maxBytes int64) (*Uploader, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir %s: %w", dir, err)
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Uploader{log: log, dir: dir, maxBytes: maxBytes, now: time.Now}, nil
}

// Dir returns the directory files are written to.
func (u *Uploader) Dir() string {
	return u.dir
}

func (u *Uploader) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, u.maxBytes+formOverhead)

	name, err := u.save(r)
	if err != nil {
		var pathErr *fs.PathError
		status := http.StatusBadRequest
		switch {
		case errors.Is(err, ErrTooLarge):
			status = http.StatusRequestEntityTooLarge
		case errors.As(err, &pathErr):
			status = http.StatusInternalServerError
		}
		u.log.Warn("Image upload rejected", "remote", r.RemoteAddr, "error", err)
		writeJSON(w, status, uploadResponse{Error: err.Error()})
		return
	}

	u.log.Info("Image uploaded", "remote", r.RemoteAddr, "file", name)
	writeJSON(w, http.StatusOK, uploadResponse{URL: URLPrefix + name})
}

func (u *Uploader) save(r *http.Request) (string, error) {
	part, err := u.imagePart(r)
	if err != nil {
		return "", err
	}
	defer func() { _ = part.Close() }()

	data, err := io.ReadAll(io.LimitReader(part, u.maxBytes+1))
	if err != nil {
		return "", classify(err)
	}
	if int64(len(data)) > u.maxBytes {
		return "", fmt.Errorf("%w: limit is %d bytes", ErrTooLarge, u.maxBytes)
	}
	if len(data) == 0 {
		return "", ErrNoFile
	}

	detected := mimetype.Detect(data)
	if !strings.HasPrefix(detected.String(), "image/") || detected.Is("image/svg+xml") {
		return "", fmt.Errorf("%w: detected %s", ErrNotImage, detected.String())
	}

	name := fmt.Sprintf("img-%d-%d%s", u.now().UnixMilli(), rand.IntN(1e9), extension(part.FileName(), detected))
	if err := os.WriteFile(filepath.Join(u.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	return name, nil
}

// imagePart returns the first part named FieldName that carries a file.
func (u *Uploader) imagePart(r *http.Request) (*multipart.Part, error) {
	reader, err := r.MultipartReader()
	if err != nil {
		return nil, ErrNoFile
	}
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, ErrNoFile
		}
		if err != nil {
			return nil, classify(err)
		}
		if part.FormName() == FieldName && part.FileName() != "" {
			return part, nil
		}
		_ = part.Close()
	}
}

// extension keeps the client's extension when it is plain, otherwise uses
// the one matching the sniffed type.
func extension(filename string, detected *mimetype.MIME) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if cleanExt.MatchString(ext) {
		return ext
	}
	return detected.Extension()
}

func classify(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return fmt.Errorf("%w: limit is %d bytes", ErrTooLarge, maxErr.Limit)
	}
	return fmt.Errorf("read upload: %w", err)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
