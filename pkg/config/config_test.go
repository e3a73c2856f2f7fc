package config

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/sharky-compress/sharky/pkg/log"
	"github.com/sharky-compress/sharky/pkg/types"
)

func TestConfig(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Config Suite")
}

func intPtr(i int) *int { return &i }
func boolPtr(b bool) *bool { return &b }
func strPtr(s string) *string { return &s }
func durationPtr(d time.Duration) *time.Duration { return &d }

var _ = Describe("Config", func() {
	log.LogWriter = GinkgoWriter

	Describe("Loading a profile", func() {
		var tmpDir string

		BeforeEach(func() {
			var err error
			tmpDir, err = ioutil.TempDir("", "sharky-config")
			Expect(err).ToNot(HaveOccurred())
		})

		AfterEach(func() { os.RemoveAll(tmpDir) })

		write := func(body string) string {
			file := filepath.Join(tmpDir, DefaultFileName)
			Expect(ioutil.WriteFile(file, []byte(body), 0644)).To(Succeed())
			return file
		}

		It("Should read every field", func() {
			profile, err := Load(write(`
algorithm: xz
level: 9
progress: false
progressFormat: "{{ .Stage }}"
progressInterval: 1s
`), false)
			Expect(err).ToNot(HaveOccurred())
			Expect(profile.Algorithm).To(Equal("xz"))
			Expect(*profile.Level).To(Equal(9))
			Expect(*profile.Progress).To(BeFalse())
			Expect(profile.ProgressFormat).To(Equal("{{ .Stage }}"))
			Expect(profile.ProgressInterval).To(Equal("1s"))
		})

		It("Should return an empty profile for a missing optional file", func() {
			profile, err := Load(filepath.Join(tmpDir, "missing.yaml"), true)
			Expect(err).ToNot(HaveOccurred())
			Expect(*profile).To(Equal(Profile{}))
		})

		It("Should fail on a missing required file", func() {
			_, err := Load(filepath.Join(tmpDir, "missing.yaml"), false)
			Expect(types.IsIO(err)).To(BeTrue())
		})

		It("Should reject unknown keys", func() {
			_, err := Load(write("zstdLevel: 3\n"), false)
			Expect(types.IsInvalidParameter(err)).To(BeTrue())
		})

		It("Should reject malformed yaml", func() {
			_, err := Load(write("level: [1, 2\n"), false)
			Expect(types.IsInvalidParameter(err)).To(BeTrue())
		})
	})

	Describe("Resolving settings", func() {
		var (
			profile  *Profile
			flags    Overrides
			settings *Settings
			err      error
		)

		BeforeEach(func() {
			profile = nil
			flags = Overrides{}
		})

		JustBeforeEach(func() { settings, err = Resolve(profile, flags) })

		Context("With no profile and no flags", func() {
			It("Should use the canonical pipeline", func() {
				Expect(err).ToNot(HaveOccurred())
				Expect(settings.Pipeline.String()).To(Equal("tar -> deflate(9) -> zstd(7)"))
				Expect(settings.Progress).To(BeTrue())
				Expect(settings.ProgressInterval).To(BeZero())
			})
		})

		Context("With a profile", func() {
			BeforeEach(func() {
				profile = &Profile{Algorithm: "xz", Level: intPtr(9), Progress: boolPtr(false), ProgressInterval: "500ms"}
			})

			It("Should apply the profile", func() {
				Expect(err).ToNot(HaveOccurred())
				Expect(settings.Pipeline.String()).To(Equal("tar -> deflate(9) -> xz(9)"))
				Expect(settings.Progress).To(BeFalse())
				Expect(settings.ProgressInterval).To(Equal(500 * time.Millisecond))
			})

			Context("And flags overriding it", func() {
				BeforeEach(func() {
					flags.Level = intPtr(2)
					flags.Progress = boolPtr(true)
					flags.ProgressInterval = durationPtr(time.Second)
				})
				It("Should prefer the flags", func() {
					Expect(err).ToNot(HaveOccurred())
					Expect(settings.Pipeline.String()).To(Equal("tar -> deflate(9) -> xz(2)"))
					Expect(settings.Progress).To(BeTrue())
					Expect(settings.ProgressInterval).To(Equal(time.Second))
				})
			})

			Context("And a flag switching the algorithm", func() {
				BeforeEach(func() { flags.Algorithm = strPtr("lz4") })
				It("Should drop the profile level", func() {
					Expect(err).ToNot(HaveOccurred())
					Expect(settings.Pipeline.String()).To(Equal("tar -> deflate(9) -> lz4(0)"))
				})
			})

			Context("And a flag naming the same algorithm", func() {
				BeforeEach(func() { flags.Algorithm = strPtr("XZ") })
				It("Should keep the profile level", func() {
					Expect(err).ToNot(HaveOccurred())
					Expect(settings.Pipeline.String()).To(Equal("tar -> deflate(9) -> xz(9)"))
				})
			})

			Context("And a malformed interval", func() {
				BeforeEach(func() { profile.ProgressInterval = "soon" })
				It("Should fail with an invalid parameter error", func() {
					Expect(types.IsInvalidParameter(err)).To(BeTrue())
				})
			})
		})

		Context("With an out of range level", func() {
			BeforeEach(func() { flags.Level = intPtr(23) })
			It("Should fail with an invalid parameter error", func() {
				Expect(err).To(HaveOccurred())
				Expect(types.IsInvalidParameter(err)).To(BeTrue())
				Expect(settings).To(BeNil())
			})
		})

		Context("With an unknown algorithm", func() {
			BeforeEach(func() { flags.Algorithm = strPtr("brotli") })
			It("Should fail with an invalid parameter error", func() {
				Expect(types.IsInvalidParameter(err)).To(BeTrue())
			})
		})

		Context("With a negative interval", func() {
			BeforeEach(func() { flags.ProgressInterval = durationPtr(-time.Second) })
			It("Should fail with an invalid parameter error", func() {
				Expect(types.IsInvalidParameter(err)).To(BeTrue())
			})
		})

		Context("With a progress format", func() {
			BeforeEach(func() { flags.ProgressFormat = strPtr("{{ .Done }}") })
			It("Should carry it through", func() {
				Expect(err).ToNot(HaveOccurred())
				Expect(settings.ProgressFormat).To(Equal("{{ .Done }}"))
			})
		})
	})
})
