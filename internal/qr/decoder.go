package qr

import (
	"image"
	"log/slog"
	"os"

	"github.com/zombor/fns-bill/internal/metrics"
)

// Decoder extracts a single text payload from a QR image
type Decoder struct {
	detector Detector
	policy   Policy
}

// NewDecoder creates a Decoder with the gozxing detector and the given policy.
// A nil policy means LastSuccess.
func NewDecoder(policy Policy) *Decoder {
	return NewDecoderWithDetector(ZXingDetector{}, policy)
}

// NewDecoderWithDetector creates a Decoder with a custom detector for testing
func NewDecoderWithDetector(detector Detector, policy Policy) *Decoder {
	if policy == nil {
		policy = LastSuccess
	}
	return &Decoder{
		detector: detector,
		policy:   policy,
	}
}

// DecodeFile reads the image at path and decodes it, sniffing the format
func (d *Decoder) DecodeFile(path string) (string, error) {
	return d.DecodeFileWithType(path, "")
}

// DecodeFileWithType is DecodeFile with a content type hint for data whose
// format cannot be sniffed
func (d *Decoder) DecodeFileWithType(path, contentType string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		metrics.QRDecodes.WithLabelValues("io_error").Inc()
		return "", ioError(err)
	}
	return d.Decode(data, contentType)
}

// Decode decodes in-memory image data. contentType is a hint and may be empty.
func (d *Decoder) Decode(data []byte, contentType string) (string, error) {
	img, err := loadImage(data, contentType)
	if err != nil {
		metrics.QRDecodes.WithLabelValues("io_error").Inc()
		return "", ioError(err)
	}
	slog.Debug("Image read", "bounds", img.Bounds().String())

	text, err := d.decodeImage(img)
	if err != nil {
		metrics.QRDecodes.WithLabelValues(outcome(err)).Inc()
		return "", err
	}
	metrics.QRDecodes.WithLabelValues("success").Inc()
	return text, nil
}

func (d *Decoder) decodeImage(img image.Image) (string, error) {
	grids, err := d.detector.Detect(img)
	if err != nil {
		slog.Error("Grid detection failed", "error", err)
		return "", ErrNotFound
	}
	if len(grids) == 0 {
		slog.Error("Could not find grids")
		return "", ErrNotFound
	}

	candidates := make([]Candidate, 0, len(grids))
	for i, grid := range grids {
		c, err := grid.Decode()
		if err != nil {
			slog.Error("Could not decode grid", "grid", i, "error", err)
			continue
		}
		slog.Info("Successfully decoded grid", "grid", i)
		candidates = append(candidates, c)
	}

	if len(candidates) == 0 {
		return "", ErrDecodeFailed
	}
	return d.policy(candidates).Text, nil
}

func outcome(err error) string {
	switch {
	case err == ErrNotFound:
		return "not_found"
	case err == ErrDecodeFailed:
		return "decode_failed"
	default:
		return "error"
	}
}
