package trace_test

import (
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/bpsim/trace"
)

func readAll(r *trace.Reader) ([]trace.Branch, error) {
	var out []trace.Branch
	for {
		b, err := r.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, b)
	}
}

var _ = Describe("Reader", func() {
	It("should parse short conditional records", func() {
		b, err := trace.ParseLine("0x40a3c8 1")
		Expect(err).NotTo(HaveOccurred())
		Expect(b).To(Equal(trace.Branch{
			PC: 0x40a3c8, Taken: true, Conditional: true, Direct: true,
		}))
	})

	It("should parse full records", func() {
		b, err := trace.ParseLine("0x1000 0x2000 0 1 0 0 1")
		Expect(err).NotTo(HaveOccurred())
		Expect(b).To(Equal(trace.Branch{
			PC: 0x1000, Target: 0x2000, Conditional: true, Direct: true,
		}))

		b, err = trace.ParseLine("4096 8192 1 0 1 0 1")
		Expect(err).NotTo(HaveOccurred())
		Expect(b.PC).To(Equal(uint32(4096)))
		Expect(b.Call).To(BeTrue())
		Expect(b.Conditional).To(BeFalse())
	})

	It("should reject malformed records", func() {
		for _, line := range []string{
			"0x1000",
			"0x1000 2",
			"zz 1",
			"0x1FFFFFFFF 1",
			"0x1000 0x2000 1 1 0 0",
		} {
			_, err := trace.ParseLine(line)
			Expect(err).To(MatchError(trace.ErrMalformedLine), line)
		}
	})

	It("should skip blanks and comments and report line numbers", func() {
		r := trace.NewReader(strings.NewReader("# header\n\n0x10 1\n0x14 0\nbad\n"))

		branches, err := readAll(r)
		Expect(branches).To(HaveLen(2))
		Expect(err).To(MatchError(trace.ErrMalformedLine))
		Expect(err.Error()).To(ContainSubstring("line 5"))
		Expect(r.Line()).To(Equal(5))
	})

	Describe("Open", func() {
		var dir string

		BeforeEach(func() {
			dir = GinkgoT().TempDir()
		})

		It("should read plain files", func() {
			path := filepath.Join(dir, "plain.trace")
			Expect(os.WriteFile(path, []byte("0x10 1\n0x20 0\n"), 0644)).To(Succeed())

			f, err := trace.Open(path)
			Expect(err).NotTo(HaveOccurred())
			defer f.Close()

			branches, err := readAll(f.Reader)
			Expect(err).NotTo(HaveOccurred())
			Expect(branches).To(HaveLen(2))
		})

		It("should decompress gzip files", func() {
			path := filepath.Join(dir, "trace.gz")
			out, err := os.Create(path)
			Expect(err).NotTo(HaveOccurred())
			gz := gzip.NewWriter(out)
			_, err = gz.Write([]byte("0x10 1\n0x20 0\n0x30 1\n"))
			Expect(err).NotTo(HaveOccurred())
			Expect(gz.Close()).To(Succeed())
			Expect(out.Close()).To(Succeed())

			f, err := trace.Open(path)
			Expect(err).NotTo(HaveOccurred())

			branches, err := readAll(f.Reader)
			Expect(err).NotTo(HaveOccurred())
			Expect(branches).To(HaveLen(3))
			Expect(branches[2].PC).To(Equal(uint32(0x30)))
			Expect(f.Close()).To(Succeed())
		})

		It("should fail on a missing file", func() {
			_, err := trace.Open(filepath.Join(dir, "missing.trace"))
			Expect(err).To(MatchError(os.ErrNotExist))
		})
	})
})
