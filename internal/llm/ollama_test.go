package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("OllamaClient", func() {
	It("defaults to the loopback address", func() {
		Expect(NewOllamaClient("llama3", "", 0.7).BaseURL).To(Equal(DefaultOllamaURL))
	})

	It("posts to /api/chat and returns the message content", func() {
		var got ollamaRequest
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			Expect(r.URL.Path).To(Equal("/api/chat"))
			Expect(r.Header.Get("Authorization")).To(BeEmpty())
			raw, _ := io.ReadAll(r.Body)
			Expect(json.Unmarshal(raw, &got)).To(Succeed())
			_, _ = io.WriteString(w, `{"message":{"role":"assistant","content":"run go mod tidy"},"done":true}`)
		}))
		defer server.Close()

		reply, err := NewOllamaClient("llama3", server.URL, 0.1).Invoke(context.Background(),
			NewConversation("guide", "query"))
		Expect(err).NotTo(HaveOccurred())
		Expect(reply.Content).To(Equal("run go mod tidy"))
		Expect(got.Model).To(Equal("llama3"))
		Expect(got.Stream).To(BeFalse())
		Expect(got.Options.Temperature).To(Equal(0.1))
		Expect(got.Messages).To(Equal([]chatMessage{
			{Role: "system", Content: "guide"},
			{Role: "user", Content: "query"},
		}))
	})

	It("surfaces an ollama error field", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, `{"error":"model 'llama3' not found, try pulling it first"}`)
		}))
		defer server.Close()

		_, err := NewOllamaClient("llama3", server.URL, 0.7).Invoke(context.Background(), NewConversation("g", "q"))
		Expect(err).To(MatchError(ContainSubstring("try pulling it first")))
	})

	It("turns connection refused into a ProviderError", func() {
		l, err := net.Listen("tcp", "127.0.0.1:0")
		Expect(err).NotTo(HaveOccurred())
		addr := l.Addr().String()
		Expect(l.Close()).To(Succeed())

		_, err = NewOllamaClient("llama3", "http://"+addr, 0.7).Invoke(context.Background(), NewConversation("g", "q"))
		var perr *ProviderError
		Expect(errors.As(err, &perr)).To(BeTrue())
		Expect(perr.Provider).To(Equal(ProviderLocal))
	})
})
