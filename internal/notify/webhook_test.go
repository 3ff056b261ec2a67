package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/tonyjoanes/gopher-doctor/internal/failure"
	"github.com/tonyjoanes/gopher-doctor/internal/llm"
)

func diagnosis() *llm.Diagnosis {
	return &llm.Diagnosis{
		ID:        "d-1",
		Provider:  llm.ProviderLocal,
		Failure:   failure.Context{Message: "exit status 2", Location: "./...", Name: "ExitError", Stack: "-"},
		Advice:    "Run go mod tidy.",
		CreatedAt: time.Now(),
	}
}

var _ = Describe("NotificationClient", func() {
	var (
		srv    *httptest.Server
		body   []byte
		status int
	)

	BeforeEach(func() {
		status = http.StatusOK
		srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			Expect(r.Header.Get("Content-Type")).To(Equal("application/json"))
			body, _ = io.ReadAll(r.Body)
			w.WriteHeader(status)
		}))
		DeferCleanup(srv.Close)
	})

	It("is a no-op without a URL", func() {
		Expect(NewNotificationClient("").Report(context.Background(), diagnosis())).To(Succeed())
	})

	It("posts Slack blocks with the advice", func() {
		Expect(NewNotificationClient(srv.URL+"/services/T/B/X").Report(context.Background(), diagnosis())).To(Succeed())

		var p slackPayload
		Expect(json.Unmarshal(body, &p)).To(Succeed())
		Expect(p.Text).To(ContainSubstring("./..."))
		Expect(p.Blocks).To(HaveLen(5))
		Expect(p.Blocks[3].Text.Text).To(ContainSubstring("Run go mod tidy."))
	})

	It("reports non-2xx responses", func() {
		status = http.StatusNotFound
		err := NewNotificationClient(srv.URL).Report(context.Background(), diagnosis())
		Expect(err).To(MatchError("webhook returned HTTP 404"))
	})
})

var _ = Describe("payloads", func() {
	It("builds a Discord embed", func() {
		p := buildDiscordPayload(diagnosis())
		Expect(p.Username).To(Equal("GopherDoctor"))
		Expect(p.Embeds).To(HaveLen(1))
		Expect(p.Embeds[0].Description).To(Equal("Run go mod tidy."))
		Expect(p.Embeds[0].Fields[2].Value).To(Equal("local"))
	})

	It("truncates long advice for Slack", func() {
		d := diagnosis()
		d.Advice = strings.Repeat("é", maxSlackText+10)
		p := buildSlackPayload(d)
		Expect([]rune(p.Blocks[3].Text.Text)).To(HaveLen(len([]rune("*💡 AI diagnosis:*\n")) + maxSlackText + 1))
	})
})
