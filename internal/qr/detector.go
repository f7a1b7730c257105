package qr

import (
	"image"

	"github.com/makiuchi-d/gozxing"
	multidetector "github.com/makiuchi-d/gozxing/multi/qrcode/detector"
	"github.com/makiuchi-d/gozxing/qrcode/decoder"
	"github.com/makiuchi-d/gozxing/qrcode/detector"
)

// Candidate is the payload of one successfully decoded grid
type Candidate struct {
	Text string
	// ErrorsCorrected is the number of codewords Reed-Solomon had to fix.
	// Fewer means a cleaner read.
	ErrorsCorrected int
}

// Grid is one detected QR region that may or may not decode
type Grid interface {
	Decode() (Candidate, error)
}

// Detector finds candidate QR regions in an image, in detection order.
// An empty result means nothing was found.
type Detector interface {
	Detect(img image.Image) ([]Grid, error)
}

// ZXingDetector detects grids with gozxing: the multi-code detector first,
// then the single-code detector when the former finds nothing.
type ZXingDetector struct{}

// Detect binarizes the luminance of img and returns every sampled grid
func (ZXingDetector) Detect(img image.Image) ([]Grid, error) {
	bmp, err := gozxing.NewBinaryBitmap(gozxing.NewHybridBinarizer(gozxing.NewLuminanceSourceFromImage(img)))
	if err != nil {
		return nil, err
	}
	matrix, err := bmp.GetBlackMatrix()
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	results, err := multidetector.NewMultiDetector(matrix).DetectMulti(nil)
	if err != nil && !isNotFound(err) {
		return nil, err
	}

	grids := make([]Grid, 0, len(results))
	for _, r := range results {
		grids = append(grids, &zxingGrid{bits: r.GetBits()})
	}
	if len(grids) > 0 {
		return grids, nil
	}

	single, err := detector.NewDetector(matrix).Detect(nil)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return []Grid{&zxingGrid{bits: single.GetBits()}}, nil
}

type zxingGrid struct {
	bits *gozxing.BitMatrix
}

func (g *zxingGrid) Decode() (Candidate, error) {
	res, err := decoder.NewDecoder().Decode(g.bits, nil)
	if err != nil {
		return Candidate{}, err
	}
	return Candidate{Text: res.GetText(), ErrorsCorrected: res.GetErrorsCorrected()}, nil
}

func isNotFound(err error) bool {
	_, ok := err.(gozxing.NotFoundException)
	return ok
}
