package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/tonyjoanes/gopher-doctor/internal/failure"
	"github.com/tonyjoanes/gopher-doctor/internal/llm"
)

func diagnosis() *llm.Diagnosis {
	return &llm.Diagnosis{
		ID:       "d-123",
		Provider: llm.ProviderHosted,
		Failure: failure.Context{
			Message:  "undefined: foo",
			Stack:    "main.go:10",
			Location: "./cmd/api",
			Name:     "ExitError",
		},
		Advice:    "Declare foo before use.",
		CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

var _ = Describe("CommentClient", func() {
	var (
		mux     *http.ServeMux
		srv     *httptest.Server
		client  *CommentClient
		auth    string
		created []string
		edited  map[string]string
		listed  string
	)

	BeforeEach(func() {
		created = nil
		edited = map[string]string{}
		listed = `[]`
		mux = http.NewServeMux()
		mux.HandleFunc("/api/v3/repos/acme/widgets/issues/7/comments", func(w http.ResponseWriter, r *http.Request) {
			auth = r.Header.Get("Authorization")
			switch r.Method {
			case http.MethodGet:
				fmt.Fprint(w, listed)
			case http.MethodPost:
				var c struct{ Body string }
				Expect(json.NewDecoder(r.Body).Decode(&c)).To(Succeed())
				created = append(created, c.Body)
				w.WriteHeader(http.StatusCreated)
				fmt.Fprint(w, `{"id": 1}`)
			}
		})
		mux.HandleFunc("/api/v3/repos/acme/widgets/issues/comments/99", func(w http.ResponseWriter, r *http.Request) {
			Expect(r.Method).To(Equal(http.MethodPatch))
			var c struct{ Body string }
			Expect(json.NewDecoder(r.Body).Decode(&c)).To(Succeed())
			edited["99"] = c.Body
			fmt.Fprint(w, `{"id": 99}`)
		})
		srv = httptest.NewServer(mux)
		DeferCleanup(srv.Close)

		var err error
		client, err = NewCommentClient("ghp_test", "acme/widgets", 7, srv.URL+"/")
		Expect(err).NotTo(HaveOccurred())
	})

	It("creates a comment when none exists", func() {
		Expect(client.Report(context.Background(), diagnosis())).To(Succeed())
		Expect(created).To(HaveLen(1))
		Expect(created[0]).To(HavePrefix(Marker))
		Expect(created[0]).To(ContainSubstring("Declare foo before use."))
		Expect(auth).To(Equal("Bearer ghp_test"))
	})

	It("updates the earlier diagnosis comment", func() {
		listed = `[{"id": 5, "body": "LGTM"}, {"id": 99, "body": "` + Marker + ` old"}]`
		Expect(client.Report(context.Background(), diagnosis())).To(Succeed())
		Expect(created).To(BeEmpty())
		Expect(edited["99"]).To(ContainSubstring("Declare foo before use."))
	})

	It("surfaces API errors", func() {
		mux.HandleFunc("/api/v3/repos/acme/widgets/issues/8/comments", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			fmt.Fprint(w, `{"message": "Resource not accessible by integration"}`)
		})
		c, err := NewCommentClient("t", "acme/widgets", 8, srv.URL+"/")
		Expect(err).NotTo(HaveOccurred())
		Expect(c.Report(context.Background(), diagnosis())).To(MatchError(ContainSubstring("listing comments on acme/widgets#8")))
	})
})

var _ = Describe("BuildCommentBody", func() {
	It("includes the failure, advice and provenance", func() {
		body := BuildCommentBody(diagnosis())
		Expect(body).To(ContainSubstring("**Failure:** `ExitError` in `./cmd/api`"))
		Expect(body).To(ContainSubstring("```text\nundefined: foo\n```"))
		Expect(body).To(ContainSubstring("### Suggested fix\nDeclare foo before use."))
		Expect(body).To(ContainSubstring("Diagnosis `d-123` by the hosted provider at 2026-03-01 12:00 UTC"))
	})
})

var _ = Describe("SplitRepo", func() {
	It("splits owner/repo", func() {
		owner, repo, err := SplitRepo("acme/widgets")
		Expect(err).NotTo(HaveOccurred())
		Expect(owner).To(Equal("acme"))
		Expect(repo).To(Equal("widgets"))
	})

	It("rejects malformed input", func() {
		for _, in := range []string{"", "acme", "/widgets", "acme/"} {
			_, _, err := SplitRepo(in)
			Expect(err).To(HaveOccurred(), in)
		}
	})
})
