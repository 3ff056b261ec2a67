package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("HostedClient", func() {
	var (
		server   *httptest.Server
		handler  http.HandlerFunc
		captured *http.Request
		body     map[string]any
	)

	BeforeEach(func() {
		captured, body = nil, nil
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			captured = r
			raw, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(raw, &body)
			handler(w, r)
		}))
		DeferCleanup(server.Close)
	})

	conv := Conversation{
		{Role: RoleInstruction, Content: "guide"},
		{Role: RoleQuery, Content: "query"},
		{Role: RoleAssistant, Content: "earlier"},
	}

	It("posts a non-streaming chat completion with a bearer token", func() {
		handler = func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, `{"choices":[{"message":{"role":"assistant","content":"fix your import"}}]}`)
		}
		c := NewHostedClient("glm-4", "sk-test", server.URL+"/", 0.2)

		reply, err := c.Invoke(context.Background(), conv)
		Expect(err).NotTo(HaveOccurred())
		Expect(reply.Content).To(Equal("fix your import"))

		Expect(captured.Method).To(Equal(http.MethodPost))
		Expect(captured.URL.Path).To(Equal("/chat/completions"))
		Expect(captured.Header.Get("Authorization")).To(Equal("Bearer sk-test"))
		Expect(captured.Header.Get("Content-Type")).To(Equal("application/json"))

		Expect(body).To(HaveKeyWithValue("model", "glm-4"))
		Expect(body).To(HaveKeyWithValue("temperature", 0.2))
		Expect(body).To(HaveKeyWithValue("stream", false))
		Expect(body["messages"]).To(Equal([]any{
			map[string]any{"role": "system", "content": "guide"},
			map[string]any{"role": "user", "content": "query"},
			map[string]any{"role": "assistant", "content": "earlier"},
		}))
	})

	It("reports the status code and raw body of a rejected call", func() {
		handler = func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"error":{"message":"invalid api key"}}`)
		}
		_, err := NewHostedClient("glm-4", "bad", server.URL, 0.7).Invoke(context.Background(), conv)

		var perr *ProviderError
		Expect(errors.As(err, &perr)).To(BeTrue())
		Expect(perr.Provider).To(Equal(ProviderHosted))
		Expect(perr.StatusCode).To(Equal(http.StatusUnauthorized))
		Expect(err.Error()).To(ContainSubstring("401"))
		Expect(err.Error()).To(ContainSubstring("invalid api key"))
	})

	It("fails when the response has no choices", func() {
		handler = func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, `{"choices":[]}`)
		}
		_, err := NewHostedClient("glm-4", "k", server.URL, 0.7).Invoke(context.Background(), conv)
		Expect(err).To(MatchError(ContainSubstring("no choices")))
		var perr *ProviderError
		Expect(errors.As(err, &perr)).To(BeTrue())
	})

	It("fails on an undecodable body", func() {
		handler = func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, `<html>gateway</html>`)
		}
		_, err := NewHostedClient("glm-4", "k", server.URL, 0.7).Invoke(context.Background(), conv)
		Expect(err).To(MatchError(ContainSubstring("decoding response")))
	})

	It("wraps transport failures", func() {
		handler = func(http.ResponseWriter, *http.Request) {}
		url := server.URL
		server.Close()

		_, err := NewHostedClient("glm-4", "k", url, 0.7).Invoke(context.Background(), conv)
		var perr *ProviderError
		Expect(errors.As(err, &perr)).To(BeTrue())
		Expect(perr.StatusCode).To(BeZero())
	})

	It("defaults the base URL", func() {
		Expect(NewHostedClient("m", "k", "", 0.7).BaseURL).To(Equal(DefaultHostedURL))
	})
})
