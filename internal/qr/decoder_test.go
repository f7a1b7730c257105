package qr_test

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"github.com/makiuchi-d/gozxing"
	zxingqr "github.com/makiuchi-d/gozxing/qrcode"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zombor/fns-bill/internal/qr"
)

type mockGrid struct {
	candidate qr.Candidate
	decodeErr error
}

func (m *mockGrid) Decode() (qr.Candidate, error) {
	return m.candidate, m.decodeErr
}

type mockDetector struct {
	grids     []qr.Grid
	detectErr error
	called    bool
}

func (m *mockDetector) Detect(image.Image) ([]qr.Grid, error) {
	m.called = true
	return m.grids, m.detectErr
}

func encodePNG(img image.Image) []byte {
	var buf bytes.Buffer
	Expect(png.Encode(&buf, img)).To(Succeed())
	return buf.Bytes()
}

func blankPNG() []byte {
	img := image.NewGray(image.Rect(0, 0, 64, 64))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	return encodePNG(img)
}

func qrMatrix(text string, size int) *gozxing.BitMatrix {
	matrix, err := zxingqr.NewQRCodeWriter().Encode(text, gozxing.BarcodeFormat_QR_CODE, size, size, nil)
	Expect(err).NotTo(HaveOccurred())
	return matrix
}

func qrPNG(text string) []byte {
	matrix := qrMatrix(text, 200)

	img := image.NewGray(image.Rect(0, 0, matrix.GetWidth(), matrix.GetHeight()))
	for y := 0; y < matrix.GetHeight(); y++ {
		for x := 0; x < matrix.GetWidth(); x++ {
			c := color.Gray{Y: 0xff}
			if matrix.Get(x, y) {
				c = color.Gray{Y: 0}
			}
			img.SetGray(x, y, c)
		}
	}
	return encodePNG(img)
}

var _ = Describe("Decoder", func() {
	var (
		detector *mockDetector
		policy   qr.Policy
		data     []byte
		text     string
		err      error
	)

	BeforeEach(func() {
		detector = &mockDetector{}
		policy = nil
		data = blankPNG()
	})

	JustBeforeEach(func() {
		text, err = qr.NewDecoderWithDetector(detector, policy).Decode(data, "image/png")
	})

	When("some grids fail to decode", func() {
		BeforeEach(func() {
			detector.grids = []qr.Grid{
				&mockGrid{decodeErr: errors.New("bad format")},
				&mockGrid{candidate: qr.Candidate{Text: "X"}},
				&mockGrid{candidate: qr.Candidate{Text: "Y"}},
			}
		})

		It("returns the last successful payload", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal("Y"))
		})

		When("the first success policy is used", func() {
			BeforeEach(func() {
				policy = qr.FirstSuccess
			})

			It("returns the first successful payload", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(text).To(Equal("X"))
			})
		})
	})

	When("every grid fails to decode", func() {
		BeforeEach(func() {
			detector.grids = []qr.Grid{&mockGrid{decodeErr: errors.New("checksum")}}
		})

		It("returns ErrDecodeFailed", func() {
			Expect(err).To(MatchError(qr.ErrDecodeFailed))
			Expect(err.Error()).To(Equal("Failed to decode any qr"))
			Expect(text).To(BeEmpty())
		})
	})

	When("no grids are detected", func() {
		It("returns ErrNotFound", func() {
			Expect(err).To(MatchError(qr.ErrNotFound))
			Expect(err.Error()).To(Equal("Could not detect qr on image"))
		})
	})

	When("detection errors", func() {
		BeforeEach(func() {
			detector.detectErr = errors.New("boom")
		})

		It("returns ErrNotFound", func() {
			Expect(err).To(MatchError(qr.ErrNotFound))
		})
	})

	When("the data is not an image", func() {
		BeforeEach(func() {
			data = []byte("definitely not an image")
		})

		It("returns an io error without detecting", func() {
			Expect(err).To(MatchError(qr.ErrIO))
			Expect(err.Error()).To(HavePrefix("Could not load qr from file: "))
			Expect(detector.called).To(BeFalse())
		})
	})
})

// qrPDF draws the code as filled rectangles on a single page, 4pt per
// module, with a hand-built xref table
func qrPDF(text string) []byte {
	matrix := qrMatrix(text, 0)
	const scale = 4
	w, h := matrix.GetWidth()*scale, matrix.GetHeight()*scale

	var content bytes.Buffer
	content.WriteString("0 g\n")
	for y := 0; y < matrix.GetHeight(); y++ {
		for x := 0; x < matrix.GetWidth(); x++ {
			if matrix.Get(x, y) {
				fmt.Fprintf(&content, "%d %d %d %d re f\n", x*scale, h-(y+1)*scale, scale, scale)
			}
		}
	}

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %d %d] /Contents 4 0 R /Resources << >> >>", w, h),
		fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", content.Len(), content.String()),
	}

	var pdf bytes.Buffer
	pdf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = pdf.Len()
		fmt.Fprintf(&pdf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := pdf.Len()
	fmt.Fprintf(&pdf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&pdf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&pdf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return pdf.Bytes()
}

var _ = Describe("Decoder with gozxing", func() {
	var decoder *qr.Decoder

	BeforeEach(func() {
		decoder = qr.NewDecoder(nil)
	})

	It("decodes a generated QR code", func() {
		payload := "t=20200727T1117&s=4850.00&fn=9287440300634471&i=13571&fp=3730902192&n=1"
		text, err := decoder.Decode(qrPNG(payload), "image/png")
		Expect(err).NotTo(HaveOccurred())
		Expect(text).To(Equal(payload))
	})

	It("returns ErrNotFound for a blank image", func() {
		_, err := decoder.Decode(blankPNG(), "image/png")
		Expect(err).To(MatchError(qr.ErrNotFound))
	})

	Describe("PDF input", func() {
		It("decodes a code drawn on the first page", func() {
			text, err := decoder.Decode(qrPDF("fn=9287440300634471&i=13571"), "")
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal("fn=9287440300634471&i=13571"))
		})

		It("returns an io error for a broken PDF", func() {
			_, err := decoder.Decode([]byte("%PDF-1.4\nnot really a pdf"), "")
			Expect(err).To(MatchError(qr.ErrIO))
			Expect(err.Error()).To(ContainSubstring("PDF"))
		})
	})

	Describe("HEIC input", func() {
		It("returns an io error for a truncated HEIC file", func() {
			truncated := append([]byte("\x00\x00\x00\x18ftypheic"), make([]byte, 16)...)
			_, err := decoder.Decode(truncated, "")
			Expect(err).To(MatchError(qr.ErrIO))
			Expect(err.Error()).To(ContainSubstring("decoding HEIC/HEIF image"))
		})
	})

	Describe("content type hints", func() {
		unknown := []byte("these bytes match no known image signature")

		It("routes unrecognized data by the declared HEIC type", func() {
			_, err := decoder.Decode(unknown, "image/heic")
			Expect(err).To(MatchError(qr.ErrIO))
			Expect(err.Error()).To(ContainSubstring("decoding HEIC/HEIF image"))
		})

		It("routes unrecognized data by the declared PDF type", func() {
			_, err := decoder.Decode(unknown, "Application/PDF")
			Expect(err).To(MatchError(qr.ErrIO))
			Expect(err.Error()).To(ContainSubstring("opening PDF"))
		})

		It("reports unsupported data without a hint", func() {
			_, err := decoder.Decode(unknown, "")
			Expect(err).To(MatchError(qr.ErrIO))
			Expect(err.Error()).To(ContainSubstring("unsupported image format"))
		})

		It("prefers the sniffed format over a wrong hint", func() {
			text, err := decoder.Decode(qrPNG("fn=1"), "image/heic")
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal("fn=1"))
		})

		It("passes the hint through DecodeFileWithType", func() {
			path := filepath.Join(GinkgoT().TempDir(), "upload")
			Expect(os.WriteFile(path, unknown, 0o644)).To(Succeed())

			_, err := decoder.DecodeFileWithType(path, "image/heif")
			Expect(err.Error()).To(ContainSubstring("decoding HEIC/HEIF image"))
		})
	})

	Describe("DecodeFile", func() {
		var dir string

		BeforeEach(func() {
			dir = GinkgoT().TempDir()
		})

		It("decodes an image on disk", func() {
			path := filepath.Join(dir, "qr.png")
			Expect(os.WriteFile(path, qrPNG("fn=1&i=2&fp=3"), 0o644)).To(Succeed())

			text, err := decoder.DecodeFile(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal("fn=1&i=2&fp=3"))
		})

		It("returns an io error for a missing file", func() {
			_, err := decoder.DecodeFile(filepath.Join(dir, "missing.png"))
			Expect(err).To(MatchError(qr.ErrIO))
			Expect(errors.Is(err, os.ErrNotExist)).To(BeTrue())
		})

		It("returns an io error for a corrupt file", func() {
			path := filepath.Join(dir, "corrupt.png")
			Expect(os.WriteFile(path, []byte("\x89PNG\r\n\x1a\nbroken"), 0o644)).To(Succeed())

			_, err := decoder.DecodeFile(path)
			Expect(err).To(MatchError(qr.ErrIO))
		})
	})
})
