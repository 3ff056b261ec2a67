package llm

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type fakeSecrets struct {
	values map[string]string
	calls  int
}

func (f *fakeSecrets) ReadSecretKey(_ context.Context, namespace, name, key string) (string, error) {
	f.calls++
	v, ok := f.values[namespace+"/"+name+"/"+key]
	if !ok {
		return "", errors.New("not found")
	}
	return v, nil
}

// unknownConfig satisfies ModelConfig from inside the package to exercise
// the factory's default branch.
type unknownConfig struct{}

func (unknownConfig) Kind() ProviderKind { return "mystery" }
func (unknownConfig) isModelConfig()     {}

var _ = Describe("Factory", func() {
	var (
		ctx     context.Context
		secrets *fakeSecrets
		f       *Factory
	)

	BeforeEach(func() {
		ctx = context.Background()
		secrets = &fakeSecrets{values: map[string]string{"ci/llm/apiKey": "sk-from-secret"}}
		f = &Factory{Secrets: secrets}
	})

	It("builds a hosted client with defaults", func() {
		m, err := f.Create(ctx, HostedConfig{APIKey: "sk"})
		Expect(err).NotTo(HaveOccurred())
		h, ok := m.(*HostedClient)
		Expect(ok).To(BeTrue())
		Expect(h.Model).To(Equal("glm-4"))
		Expect(h.BaseURL).To(Equal(DefaultHostedURL))
		Expect(h.Temperature).To(Equal(0.7))
		Expect(secrets.calls).To(BeZero())
	})

	It("reads the hosted API key from a secret at create time", func() {
		m, err := f.Create(ctx, HostedConfig{APIKeyFrom: &SecretKeyRef{Namespace: "ci", Name: "llm"}})
		Expect(err).NotTo(HaveOccurred())
		Expect(m.(*HostedClient).APIKey).To(Equal("sk-from-secret"))
		Expect(secrets.calls).To(Equal(1))
	})

	It("wraps secret lookup failures", func() {
		_, err := f.Create(ctx, HostedConfig{APIKeyFrom: &SecretKeyRef{Namespace: "ci", Name: "missing"}})
		Expect(err).To(MatchError(ContainSubstring(`reading LLM API key secret "missing"`)))
	})

	It("rejects a hosted config without any key", func() {
		_, err := f.Create(ctx, HostedConfig{})
		var cerr *ConfigurationError
		Expect(errors.As(err, &cerr)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("model.apiKey"))
	})

	It("needs a secret reader for secret references", func() {
		_, err := (&Factory{}).Create(ctx, HostedConfig{APIKeyFrom: &SecretKeyRef{Name: "llm"}})
		var cerr *ConfigurationError
		Expect(errors.As(err, &cerr)).To(BeTrue())
	})

	It("builds a local client", func() {
		t := 0.1
		m, err := f.Create(ctx, LocalConfig{Model: "qwen2.5-coder", Temperature: &t})
		Expect(err).NotTo(HaveOccurred())
		o := m.(*OllamaClient)
		Expect(o.Model).To(Equal("qwen2.5-coder"))
		Expect(o.BaseURL).To(Equal(DefaultOllamaURL))
		Expect(o.Temperature).To(Equal(0.1))
	})

	It("passes a custom instance through untouched", func() {
		custom := ChatModelFunc(func(context.Context, Conversation) (Reply, error) {
			return Reply{Content: "ok"}, nil
		})
		m, err := f.Create(ctx, CustomConfig{Instance: custom})
		Expect(err).NotTo(HaveOccurred())
		reply, err := m.Invoke(ctx, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(reply.Content).To(Equal("ok"))
	})

	It("rejects a custom config without an instance", func() {
		_, err := f.Create(ctx, CustomConfig{})
		var cerr *ConfigurationError
		Expect(errors.As(err, &cerr)).To(BeTrue())
	})

	It("rejects a nil config", func() {
		_, err := f.Create(ctx, nil)
		var cerr *ConfigurationError
		Expect(errors.As(err, &cerr)).To(BeTrue())
	})

	It("fails immediately on an unrecognised variant", func() {
		_, err := f.Create(ctx, unknownConfig{})
		var cerr *ConfigurationError
		Expect(errors.As(err, &cerr)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("mystery"))
	})

	Describe("optional integrations", func() {
		AfterEach(func() {
			registryMu.Lock()
			delete(registry, ProviderOpenAI)
			registryMu.Unlock()
		})

		It("reports a missing integration only when it is first used", func() {
			Expect(Registered(ProviderOpenAI)).To(BeFalse())
			_, err := f.Create(ctx, OpenAIConfig{APIKey: "sk"})
			var derr *DependencyMissingError
			Expect(errors.As(err, &derr)).To(BeTrue())
			Expect(derr.Package).To(Equal(OpenAIPackage))
			Expect(err.Error()).To(ContainSubstring(OpenAIPackage))
		})

		It("hands the registered builder a resolved config", func() {
			var seen OpenAIConfig
			Register(ProviderOpenAI, func(_ context.Context, cfg ModelConfig) (ChatModel, error) {
				seen = cfg.(OpenAIConfig)
				return ChatModelFunc(func(context.Context, Conversation) (Reply, error) { return Reply{}, nil }), nil
			})

			_, err := f.Create(ctx, OpenAIConfig{APIKeyFrom: &SecretKeyRef{Namespace: "ci", Name: "llm"}})
			Expect(err).NotTo(HaveOccurred())
			Expect(seen.APIKey).To(Equal("sk-from-secret"))
			Expect(seen.Model).To(Equal("gpt-4o-mini"))
			Expect(seen.Temperature).NotTo(BeNil())
			Expect(*seen.Temperature).To(Equal(0.7))
		})
	})
})
