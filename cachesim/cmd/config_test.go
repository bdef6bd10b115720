package cmd

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Config", func() {
	lookupIn := func(env map[string]string) func(string) (string, bool) {
		return func(key string) (string, bool) {
			v, ok := env[key]
			return v, ok
		}
	}

	It("should use the defaults without variables", func() {
		cfg, err := configFromEnv(lookupIn(nil))

		Expect(err).NotTo(HaveOccurred())
		Expect(cfg).To(Equal(DefaultConfig()))
		Expect(cfg.BlockSize).To(Equal(32))
		Expect(cfg.AddressBits).To(Equal(48))
	})

	It("should read the variables", func() {
		cfg, err := configFromEnv(lookupIn(map[string]string{
			EnvWorkers:     "3",
			EnvOutput:      "out.csv",
			EnvBlockSize:   "64",
			EnvAddressBits: "32",
			EnvMonitorPort: "8123",
		}))

		Expect(err).NotTo(HaveOccurred())
		Expect(cfg).To(Equal(Config{
			Workers:     3,
			Output:      "out.csv",
			BlockSize:   64,
			AddressBits: 32,
			MonitorPort: 8123,
		}))
	})

	It("should reject non-numeric values", func() {
		_, err := configFromEnv(lookupIn(map[string]string{
			EnvWorkers: "many",
		}))

		Expect(err).To(MatchError(ContainSubstring(EnvWorkers)))
	})

	It("should load an env file", func() {
		path := filepath.Join(GinkgoT().TempDir(), ".env")
		Expect(os.WriteFile(path,
			[]byte("CACHESIM_TEST_UNUSED=1\nCACHESIM_OUTPUT=from-file.json\n"),
			0o644)).To(Succeed())

		if _, set := os.LookupEnv(EnvOutput); set {
			Skip(EnvOutput + " is set in the environment")
		}

		cfg, err := LoadConfig(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Output).To(Equal("from-file.json"))
	})

	It("should ignore a missing env file", func() {
		_, err := LoadConfig(filepath.Join(GinkgoT().TempDir(), ".env"))
		Expect(err).NotTo(HaveOccurred())
	})
})
