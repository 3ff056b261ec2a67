package config

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func setenv(key, value string) {
	Expect(os.Setenv(key, value)).To(Succeed())
	DeferCleanup(os.Unsetenv, key)
}

var _ = Describe("Parse", func() {
	It("decodes a full config file", func() {
		cfg, err := Parse([]byte(`
apiVersion: gopherdoctor.dev/v1alpha1
kind: DoctorConfig
enabled: false
typeWriterSpeed: 5
showOriginalError: false
requestTimeout: 45s
model:
  provider: hosted
  apiKey: sk-file
  model: glm-4-flash
  temperature: 0.2
report:
  github:
    repo: acme/widgets
    number: 42
metrics:
  textfilePath: /var/lib/node_exporter/gopherdoctor.prom
`))
		Expect(err).NotTo(HaveOccurred())
		Expect(*cfg.Enabled).To(BeFalse())
		Expect(*cfg.TypeWriterSpeed).To(Equal(5))
		Expect(*cfg.ShowOriginalError).To(BeFalse())
		Expect(cfg.RequestTimeout.Duration).To(Equal(45 * time.Second))
		Expect(cfg.Model.Provider).To(BeEquivalentTo("hosted"))
		Expect(cfg.Model.APIKey).To(Equal("sk-file"))
		Expect(cfg.Model.Model).To(Equal("glm-4-flash"))
		Expect(*cfg.Model.Temperature).To(Equal(0.2))
		Expect(cfg.Report.GitHub.Repo).To(Equal("acme/widgets"))
		Expect(cfg.Report.GitHub.Number).To(Equal(42))
		Expect(cfg.Metrics.TextfilePath).To(HaveSuffix("gopherdoctor.prom"))
	})

	It("leaves unset optional fields nil", func() {
		cfg, err := Parse([]byte("model:\n  provider: local\n"))
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Enabled).To(BeNil())
		Expect(cfg.TypeWriterSpeed).To(BeNil())
		Expect(cfg.RequestTimeout).To(BeNil())
	})

	It("treats a bare number timeout as seconds", func() {
		cfg, err := Parse([]byte("requestTimeout: 0\n"))
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.RequestTimeout).NotTo(BeNil())
		Expect(cfg.RequestTimeout.Duration).To(BeZero())
	})

	It("rejects unknown keys", func() {
		_, err := Parse([]byte("typewriterSpeedz: 3\n"))
		Expect(err).To(MatchError(ContainSubstring("failed to unmarshal config")))
	})

	It("rejects malformed durations", func() {
		_, err := Parse([]byte("requestTimeout: soon\n"))
		Expect(err).To(HaveOccurred())
	})

	It("lets environment variables override the file", func() {
		setenv("GOPHERDOCTOR_MODEL_API_KEY", "sk-env")
		setenv("GOPHERDOCTOR_ENABLED", "false")
		setenv("GOPHERDOCTOR_TYPEWRITER_SPEED", "0")
		setenv("GOPHERDOCTOR_REQUEST_TIMEOUT", "10s")
		setenv("GOPHERDOCTOR_NOT_A_SETTING", "ignored")

		cfg, err := Parse([]byte("enabled: true\nmodel:\n  provider: hosted\n  apiKey: sk-file\n"))
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Model.APIKey).To(Equal("sk-env"))
		Expect(cfg.Model.Provider).To(BeEquivalentTo("hosted"))
		Expect(*cfg.Enabled).To(BeFalse())
		Expect(*cfg.TypeWriterSpeed).To(BeZero())
		Expect(cfg.RequestTimeout.Duration).To(Equal(10 * time.Second))
	})

	It("builds a config from the environment alone", func() {
		setenv("GOPHERDOCTOR_MODEL_PROVIDER", "local")
		setenv("GOPHERDOCTOR_MODEL_NAME", "qwen2")

		cfg, err := Parse(nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Model.Provider).To(BeEquivalentTo("local"))
		Expect(cfg.Model.Model).To(Equal("qwen2"))
	})
})

var _ = Describe("Load", func() {
	It("reads the named file", func() {
		path := filepath.Join(GinkgoT().TempDir(), "doctor.yaml")
		Expect(os.WriteFile(path, []byte("model:\n  provider: local\n"), 0o600)).To(Succeed())

		cfg, err := Load(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Model.Provider).To(BeEquivalentTo("local"))
	})

	It("fails when an explicit path is missing", func() {
		_, err := Load(filepath.Join(GinkgoT().TempDir(), "nope.yaml"))
		Expect(err).To(MatchError(ContainSubstring("failed to open config file")))
	})
})
