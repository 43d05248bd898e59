package predictor_test

import (
	"encoding/json"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/bpsim/predictor"
)

var _ = Describe("Config", func() {
	Describe("Defaults", func() {
		It("should match the reference geometry", func() {
			config := predictor.DefaultConfig(predictor.Gshare)
			Expect(config.GHistoryBits).To(Equal(17))
			Expect(config.PCIndexBits).To(Equal(13))
			Expect(config.LHistoryBits).To(Equal(15))
			Expect(config.PHistoryBits).To(Equal(14))
			Expect(config.BaseBits).To(Equal(14))
			Expect(config.TagShift).To(Equal(5))
			Expect(config.TaggedTables).To(HaveLen(4))
		})

		It("should grow history geometrically across tagged tables", func() {
			tables := predictor.DefaultTaggedTables()
			for i := 1; i < len(tables); i++ {
				Expect(tables[i].HistoryBits).To(Equal(2 * tables[i-1].HistoryBits))
			}
		})

		It("should validate for every variant", func() {
			for _, v := range []predictor.Variant{
				predictor.Static, predictor.Gshare, predictor.Tournament, predictor.Custom,
			} {
				Expect(predictor.DefaultConfig(v).Validate()).To(Succeed())
			}
		})
	})

	Describe("Validate", func() {
		It("should reject zero and negative widths", func() {
			config := predictor.DefaultConfig(predictor.Gshare)
			config.GHistoryBits = 0
			Expect(config.Validate()).To(MatchError(predictor.ErrInvalidConfig))

			config.GHistoryBits = -3
			Expect(config.Validate()).To(MatchError(predictor.ErrInvalidConfig))
		})

		It("should reject oversized tables", func() {
			config := predictor.DefaultConfig(predictor.Tournament)
			config.LHistoryBits = predictor.MaxIndexBits + 1
			Expect(config.Validate()).To(MatchError(predictor.ErrInvalidConfig))
		})

		It("should only check the widths of the selected variant", func() {
			config := predictor.DefaultConfig(predictor.Gshare)
			config.PCIndexBits = 0
			config.TaggedTables = nil
			Expect(config.Validate()).To(Succeed())
		})

		It("should reject an undefined variant", func() {
			config := predictor.DefaultConfig(predictor.Variant(9))
			err := config.Validate()
			Expect(err).To(MatchError(predictor.ErrInvalidConfig))
			Expect(err).To(MatchError(predictor.ErrUnknownVariant))
		})

		It("should reject a custom predictor without tagged tables", func() {
			config := predictor.DefaultConfig(predictor.Custom)
			config.TaggedTables = nil
			Expect(config.Validate()).To(MatchError(predictor.ErrInvalidConfig))
		})

		It("should reject tagged tables whose history does not grow", func() {
			config := predictor.DefaultConfig(predictor.Custom)
			config.TaggedTables[2].HistoryBits = config.TaggedTables[1].HistoryBits
			Expect(config.Validate()).To(MatchError(predictor.ErrInvalidConfig))
		})

		It("should reject tags wider than an entry can hold", func() {
			config := predictor.DefaultConfig(predictor.Custom)
			config.TaggedTables[0].TagBits = predictor.MaxTagBits + 1
			Expect(config.Validate()).To(MatchError(predictor.ErrInvalidConfig))
		})
	})

	Describe("ParseVariantSpec", func() {
		It("should parse static and custom", func() {
			config, err := predictor.ParseVariantSpec("static")
			Expect(err).NotTo(HaveOccurred())
			Expect(config.Variant).To(Equal(predictor.Static))

			config, err = predictor.ParseVariantSpec("Custom")
			Expect(err).NotTo(HaveOccurred())
			Expect(config.Variant).To(Equal(predictor.Custom))
		})

		It("should parse gshare history bits", func() {
			config, err := predictor.ParseVariantSpec("gshare:13")
			Expect(err).NotTo(HaveOccurred())
			Expect(config.Variant).To(Equal(predictor.Gshare))
			Expect(config.GHistoryBits).To(Equal(13))
		})

		It("should parse tournament widths in reference order", func() {
			config, err := predictor.ParseVariantSpec("tournament:9:10:11")
			Expect(err).NotTo(HaveOccurred())
			Expect(config.PHistoryBits).To(Equal(9))
			Expect(config.LHistoryBits).To(Equal(10))
			Expect(config.PCIndexBits).To(Equal(11))
		})

		It("should keep defaults for omitted widths", func() {
			config, err := predictor.ParseVariantSpec("tournament:9")
			Expect(err).NotTo(HaveOccurred())
			Expect(config.LHistoryBits).To(Equal(15))
		})

		It("should reject bad specs", func() {
			_, err := predictor.ParseVariantSpec("perceptron")
			Expect(err).To(MatchError(predictor.ErrUnknownVariant))

			_, err = predictor.ParseVariantSpec("gshare:x")
			Expect(err).To(MatchError(predictor.ErrInvalidConfig))

			_, err = predictor.ParseVariantSpec("gshare:0")
			Expect(err).To(MatchError(predictor.ErrInvalidConfig))

			_, err = predictor.ParseVariantSpec("static:3")
			Expect(err).To(MatchError(predictor.ErrInvalidConfig))
		})
	})

	Describe("JSON", func() {
		var dir string

		BeforeEach(func() {
			dir = GinkgoT().TempDir()
		})

		It("should encode the variant by name", func() {
			data, err := json.Marshal(predictor.DefaultConfig(predictor.Tournament))
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(ContainSubstring(`"variant":"tournament"`))
		})

		It("should round trip through a file", func() {
			path := filepath.Join(dir, "predictor.json")
			config := predictor.DefaultConfig(predictor.Custom)
			config.BaseBits = 12
			config.Seed = 42

			Expect(config.SaveConfig(path)).To(Succeed())

			loaded, err := predictor.LoadConfig(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(Equal(config))
		})

		It("should keep defaults for absent fields", func() {
			path := filepath.Join(dir, "partial.json")
			Expect(os.WriteFile(path, []byte(`{"variant":"gshare","ghistory_bits":11}`), 0644)).
				To(Succeed())

			loaded, err := predictor.LoadConfig(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.Variant).To(Equal(predictor.Gshare))
			Expect(loaded.GHistoryBits).To(Equal(11))
			Expect(loaded.PHistoryBits).To(Equal(14))
		})

		It("should report unknown variant names", func() {
			path := filepath.Join(dir, "bad.json")
			Expect(os.WriteFile(path, []byte(`{"variant":"oracle"}`), 0644)).To(Succeed())

			_, err := predictor.LoadConfig(path)
			Expect(err).To(MatchError(predictor.ErrUnknownVariant))
		})

		It("should report a missing file", func() {
			_, err := predictor.LoadConfig(filepath.Join(dir, "missing.json"))
			Expect(err).To(MatchError(os.ErrNotExist))
		})
	})

	It("should deep copy tagged tables on Clone", func() {
		config := predictor.DefaultConfig(predictor.Custom)
		clone := config.Clone()
		clone.TaggedTables[0].TagBits = 3
		Expect(config.TaggedTables[0].TagBits).To(Equal(8))
	})
})
