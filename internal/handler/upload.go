package handler

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxUploadSize caps proof documents at 10MB.
const maxUploadSize = 10 << 20

var allowedTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/jpg":       true,
	"image/png":       true,
}

// UploadHandler receives proof documents and stores them on disk under
// a random name, returning an absolute URL to the stored file.
type UploadHandler struct {
	Dir string
	Log *zap.Logger
}

func NewUploadHandler(dir string, log *zap.Logger) *UploadHandler {
	return &UploadHandler{Dir: dir, Log: log}
}

func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, "File size exceeds 10MB limit")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer file.Close()

	if header.Size > maxUploadSize {
		writeError(w, http.StatusBadRequest, "File size exceeds 10MB limit")
		return
	}
	if !allowedTypes[strings.ToLower(header.Header.Get("Content-Type"))] {
		writeError(w, http.StatusBadRequest, "Only JPG, JPEG, PNG, and PDF files are allowed")
		return
	}

	// Random name, original extension. The original name never touches
	// the filesystem.
	ext := strings.ToLower(filepath.Ext(header.Filename))
	name := uuid.NewString() + ext

	if err := os.MkdirAll(h.Dir, 0o755); err != nil {
		h.Log.Error("creating upload dir failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to store file")
		return
	}
	dst, err := os.Create(filepath.Join(h.Dir, name))
	if err != nil {
		h.Log.Error("creating upload file failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to store file")
		return
	}
	defer dst.Close()
	if _, err := io.Copy(dst, file); err != nil {
		h.Log.Error("writing upload failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to store file")
		return
	}

	h.Log.Info("stored upload",
		zap.String("file", name),
		zap.Int64("size", header.Size))
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data": map[string]string{
			"url":      absoluteURL(r, "/uploads/"+name),
			"filename": name,
		},
	})
}

// absoluteURL builds a client-reachable URL for path, honoring proxy
// headers when the server sits behind one.
func absoluteURL(r *http.Request, path string) string {
	scheme := r.Header.Get("X-Forwarded-Proto")
	if scheme == "" {
		scheme = "http"
		if r.TLS != nil {
			scheme = "https"
		}
	}
	host := r.Header.Get("X-Forwarded-Host")
	if host == "" {
		host = r.Host
	}
	return fmt.Sprintf("%s://%s%s", scheme, host, path)
}
