package qr

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/gen2brain/heic"
)

// loadImage decodes raster data into an image. PDFs are rendered from their
// first page; HEIC/HEIF (common on iPhones) uses a pure Go decoder.
// Magic bytes win over contentType; the hint only routes data that no
// registered decoder recognizes.
func loadImage(data []byte, contentType string) (image.Image, error) {
	switch {
	case isPDFFormat(data):
		return pdfToImage(data)
	case isHEICFormat(data):
		return heicToImage(data)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err == nil {
		return img, nil
	}
	if !errors.Is(err, image.ErrFormat) {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	mimeType := strings.ToLower(strings.TrimSpace(contentType))
	switch {
	case mimeType == "application/pdf":
		return pdfToImage(data)
	case isHEICMimeType(mimeType):
		return heicToImage(data)
	}
	return nil, fmt.Errorf("unsupported image format. Supported formats: JPEG, PNG, GIF, HEIC, HEIF, PDF. Error: %w", err)
}

func heicToImage(data []byte) (image.Image, error) {
	img, err := heic.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding HEIC/HEIF image: %w", err)
	}
	return img, nil
}

// pdfToImage renders the first page of a PDF
func pdfToImage(data []byte) (image.Image, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	img, err := doc.Image(0)
	if err != nil {
		return nil, fmt.Errorf("rendering PDF page: %w", err)
	}
	return img, nil
}

func isPDFFormat(data []byte) bool {
	return bytes.HasPrefix(data, []byte("%PDF-"))
}

// isHEICFormat checks for an ftyp box with a HEIC-related brand at offset 4
func isHEICFormat(data []byte) bool {
	if len(data) < 12 || string(data[4:8]) != "ftyp" {
		return false
	}
	switch string(data[8:12]) {
	case "heic", "heix", "heif", "mif1", "msf1":
		return true
	}
	return false
}

func isHEICMimeType(mimeType string) bool {
	return strings.Contains(mimeType, "heic") || strings.Contains(mimeType, "heif")
}
