package llm

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/tonyjoanes/gopher-doctor/internal/failure"
)

var _ = Describe("BuildConversation", func() {
	It("carries the message, location and stack in the query", func() {
		fc := failure.Derive(&failure.Failure{
			Message: `Could not resolve "./non-existent-file"`,
			ID:      "src/test-error.ts",
			Stack:   "at resolveId (rollup.js:1)",
		})
		conv := BuildConversation(fc)
		Expect(conv).To(HaveLen(2))
		Expect(conv[0].Role).To(Equal(RoleInstruction))
		Expect(conv[0].Content).To(Equal(SystemPrompt))
		Expect(conv[1].Role).To(Equal(RoleQuery))
		Expect(conv[1].Content).To(ContainSubstring(`Could not resolve "./non-existent-file"`))
		Expect(conv[1].Content).To(ContainSubstring("src/test-error.ts"))
		Expect(conv[1].Content).To(ContainSubstring("at resolveId (rollup.js:1)"))
	})

	It("keeps the tail of an oversized stack", func() {
		stack := strings.Repeat("x", maxStackChars) + "FATAL"
		q := BuildUserPrompt(failure.Derive(&failure.Failure{Message: "m", Stack: stack}))
		Expect(q).To(ContainSubstring("...[truncated]..."))
		Expect(q).To(ContainSubstring("FATAL"))
	})
})
