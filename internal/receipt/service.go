package receipt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/zombor/fns-bill/internal/fns"
)

// ErrEmptyQuery is returned when the query string is blank
var ErrEmptyQuery = errors.New("query is required")

// Resolver turns a query string into a bill
type Resolver interface {
	Resolve(ctx context.Context, query string) (*fns.Bill, error)
}

// QRDecoder extracts the query string from an image on disk. contentType
// is the declared upload type and may be empty.
type QRDecoder interface {
	DecodeFileWithType(path, contentType string) (string, error)
}

// IDGenerator generates unique prefixes for scratch files
type IDGenerator interface {
	Generate() string
}

type uuidGenerator struct{}

func (uuidGenerator) Generate() string {
	return uuid.NewString()
}

// Service resolves bills from typed queries or uploaded QR images
type Service struct {
	resolver    Resolver
	decoder     QRDecoder
	storage     Storage
	idGenerator IDGenerator
}

// NewService creates a new Service with uuid scratch names
func NewService(resolver Resolver, decoder QRDecoder, storage Storage) *Service {
	return NewServiceWithDeps(resolver, decoder, storage, uuidGenerator{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(resolver Resolver, decoder QRDecoder, storage Storage, idGen IDGenerator) *Service {
	return &Service{
		resolver:    resolver,
		decoder:     decoder,
		storage:     storage,
		idGenerator: idGen,
	}
}

var (
	unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	whitespace  = regexp.MustCompile(`\s+`)
)

// sanitizeFilename strips everything but word characters from the base name
// and caps it at 50 characters. The extension is kept so the loader can sniff
// the format from the name if it needs to.
func sanitizeFilename(filename string) string {
	filename = filepath.Base(filename)
	ext := strings.ToLower(filepath.Ext(filename))
	if unsafeChars.MatchString(strings.TrimPrefix(ext, ".")) {
		ext = ""
	}
	base := strings.TrimSuffix(filename, filepath.Ext(filename))

	base = unsafeChars.ReplaceAllString(base, "")
	base = whitespace.ReplaceAllString(base, "_")
	base = strings.Trim(base, "_")

	if len(base) > 50 {
		base = base[:50]
	}
	if base == "" {
		base = "qr"
	}
	return base + ext
}

// ResolveQuery resolves a typed query string
func (s *Service) ResolveQuery(ctx context.Context, query string) (*fns.Bill, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	return s.resolver.Resolve(ctx, query)
}

// ResolveImage decodes the QR code in an uploaded image and resolves its
// payload verbatim. The upload only lives in scratch storage while it is
// decoded.
func (s *Service) ResolveImage(ctx context.Context, filename string, data []byte, contentType string) (*fns.Bill, error) {
	name := fmt.Sprintf("%s_%s", s.idGenerator.Generate(), sanitizeFilename(filename))

	saved, err := s.storage.Save(name, data)
	if err != nil {
		return nil, fmt.Errorf("saving file: %w", err)
	}

	query, err := s.decoder.DecodeFileWithType(s.storage.Path(saved), contentType)
	if delErr := s.storage.Delete(saved); delErr != nil {
		slog.Warn("Failed to delete scratch file", "filename", saved, "error", delErr)
	}
	if err != nil {
		slog.Error("Failed to decode QR",
			"filename", filename,
			"content_type", contentType,
			"file_size", len(data),
			"error", err,
		)
		return nil, err
	}

	slog.Debug("Decoded QR", "filename", filename, "query", query)
	return s.resolver.Resolve(ctx, query)
}
