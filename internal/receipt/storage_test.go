package receipt

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LocalStorage", func() {
	var (
		tmpDir  string
		storage Storage
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		var err error
		storage, err = NewLocalStorage(filepath.Join(tmpDir, "scratch"))
		Expect(err).NotTo(HaveOccurred())
	})

	It("creates the base directory", func() {
		Expect(filepath.Join(tmpDir, "scratch")).To(BeADirectory())
	})

	Describe("Save", func() {
		var (
			filename string
			saved    string
			err      error
		)

		BeforeEach(func() {
			filename = "test.jpg"
		})

		JustBeforeEach(func() {
			saved, err = storage.Save(filename, []byte("test file content"))
		})

		It("writes the file under the base directory", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(saved).To(Equal("test.jpg"))
			data, readErr := os.ReadFile(storage.Path(saved))
			Expect(readErr).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal("test file content"))
		})

		When("the name tries to escape the directory", func() {
			BeforeEach(func() {
				filename = "../outside.jpg"
			})

			It("keeps the file inside", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(saved).To(Equal("outside.jpg"))
				Expect(filepath.Join(tmpDir, "scratch", "outside.jpg")).To(BeAnExistingFile())
				Expect(filepath.Join(tmpDir, "outside.jpg")).NotTo(BeAnExistingFile())
			})
		})
	})

	Describe("Delete", func() {
		It("removes a saved file", func() {
			saved, err := storage.Save("gone.png", []byte("x"))
			Expect(err).NotTo(HaveOccurred())

			Expect(storage.Delete(saved)).To(Succeed())
			Expect(storage.Path(saved)).NotTo(BeAnExistingFile())
		})

		It("returns an error for a missing file", func() {
			err := storage.Delete("missing.png")
			Expect(err).To(MatchError(ContainSubstring("deleting file")))
		})
	})

	When("no base path is given", func() {
		It("uses a temp directory", func() {
			local, err := NewLocalStorage("")
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(os.RemoveAll, filepath.Dir(local.Path("x")))
			Expect(filepath.Dir(local.Path("x"))).To(BeADirectory())
		})
	})
})
