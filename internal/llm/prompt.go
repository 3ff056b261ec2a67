package llm

import (
	"fmt"
	"strings"

	"github.com/tonyjoanes/gopher-doctor/internal/failure"
)

// SystemPrompt is sent as the instruction entry on every diagnosis.
const SystemPrompt = `You are GopherDoctor, a senior build engineer who diagnoses failed builds.

Answer in plain language and go straight to the fix. No preamble, no filler.

If the fix involves build configuration (go.mod, Makefile, Dockerfile, bundler config, CI workflow), include a short example snippet.

Analyse the following build failure and give a remedy:`

// maxStackChars caps the stack/output section to stay within context limits.
const maxStackChars = 6000

// BuildUserPrompt assembles the query entry from a failure context.
func BuildUserPrompt(fc failure.Context) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "\nError (%s):\n%s\n", fc.Name, fc.Message)
	fmt.Fprintf(&sb, "\nLocation:\n%s\n", fc.Location)
	fmt.Fprintf(&sb, "\nStack trace / build output:\n%s\n", trimHead(fc.Stack, maxStackChars))

	return sb.String()
}

// BuildConversation returns the instruction+query conversation for fc.
func BuildConversation(fc failure.Context) Conversation {
	return NewConversation(SystemPrompt, BuildUserPrompt(fc))
}

// trimHead caps s to maxChars, keeping the tail, where the fatal error usually is.
func trimHead(s string, maxChars int) string {
	if len(s) <= maxChars {
		return s
	}
	return "...[truncated]...\n" + s[len(s)-maxChars:]
}
