package receipt

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/zombor/fns-bill/internal/fns"
	"github.com/zombor/fns-bill/internal/qr"
)

// maxUploadSize bounds multipart uploads; phone photos stay well below it
const maxUploadSize = int64(20 << 20)

func writeJSON(w http.ResponseWriter, v any, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

func writeError(w http.ResponseWriter, message string, code int) {
	writeJSON(w, map[string]string{"error": message}, code)
}

// statusFor maps a resolution error to a response code. Bad input and
// unreadable QR codes are the caller's fault; workflow failures are upstream.
func statusFor(err error) int {
	var (
		qrErr  *qr.Error
		fnsErr *fns.Error
	)
	switch {
	case errors.Is(err, ErrEmptyQuery), errors.As(err, &qrErr):
		return http.StatusBadRequest
	case errors.As(err, &fnsErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeResolution(w http.ResponseWriter, bill *fns.Bill, err error) {
	if err != nil {
		code := statusFor(err)
		msg := err.Error()
		if code == http.StatusInternalServerError {
			msg = "Internal server error"
		}
		writeError(w, msg, code)
		return
	}
	writeJSON(w, bill, http.StatusOK)
}

type queryRequest struct {
	Query string `json:"query"`
}

func (s *Server) handleBillQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	bill, err := s.service.ResolveQuery(r.Context(), req.Query)
	if err != nil {
		slog.Error("Error resolving query", "error", err)
	}
	s.writeResolution(w, bill, err)
}

func (s *Server) handleBillQR(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		msg := "Error parsing form"
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			msg = "File is too large. Maximum size is 20MB."
		}
		writeError(w, msg, http.StatusBadRequest)
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		slog.Error("Error getting file from form", "error", err)
		writeError(w, "No file provided", http.StatusBadRequest)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading file data", "error", err, "filename", header.Filename)
		writeError(w, "Error reading file. Please try again.", http.StatusInternalServerError)
		return
	}

	contentType := uploadContentType(header.Header.Get("Content-Type"), header.Filename)

	bill, err := s.service.ResolveImage(r.Context(), header.Filename, data, contentType)
	if err != nil {
		slog.Error("Error resolving QR image", "filename", header.Filename, "error", err)
	}
	s.writeResolution(w, bill, err)
}

func uploadContentType(declared, filename string) string {
	declared = strings.ToLower(strings.TrimSpace(declared))
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".pdf":
		return "application/pdf"
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	default:
		return "application/octet-stream"
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}
