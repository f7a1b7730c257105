package qr

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("format sniffing", func() {
	DescribeTable("isPDFFormat",
		func(data string, want bool) {
			Expect(isPDFFormat([]byte(data))).To(Equal(want))
		},
		Entry("pdf header", "%PDF-1.7\n", true),
		Entry("leading whitespace", "\n%PDF-1.7", false),
		Entry("png", "\x89PNG\r\n\x1a\n", false),
		Entry("empty", "", false),
	)

	DescribeTable("isHEICFormat",
		func(data string, want bool) {
			Expect(isHEICFormat([]byte(data))).To(Equal(want))
		},
		Entry("heic brand", "\x00\x00\x00\x18ftypheic", true),
		Entry("mif1 brand", "\x00\x00\x00\x1cftypmif1", true),
		Entry("heix brand", "\x00\x00\x00\x18ftypheix", true),
		Entry("mp4 brand", "\x00\x00\x00\x18ftypisom", false),
		Entry("too short", "\x00\x00\x00\x18ftyp", false),
		Entry("no ftyp box", "\x00\x00\x00\x18moovheic", false),
	)

	DescribeTable("isHEICMimeType",
		func(mime string, want bool) {
			Expect(isHEICMimeType(mime)).To(Equal(want))
		},
		Entry("heic", "image/heic", true),
		Entry("heif sequence", "image/heif-sequence", true),
		Entry("jpeg", "image/jpeg", false),
	)
})
