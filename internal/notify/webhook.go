// Package notify sends build diagnoses to Slack or Discord via incoming
// webhooks. The webhook URL is never hardcoded: it comes from the config,
// the environment, or a Kubernetes Secret.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tonyjoanes/gopher-doctor/internal/llm"
)

const (
	// Slack rejects section text longer than 3000 characters.
	maxSlackText = 2900
	// Discord caps embed descriptions at 4096 characters.
	maxDiscordText = 4000
)

// NotificationClient sends webhook messages to Slack or Discord.
// Auto-detected from the URL: discord.com → Discord format, otherwise Slack.
type NotificationClient struct {
	WebhookURL string
	http       *http.Client
}

// NewNotificationClient creates a client. An empty URL silently no-ops all sends.
func NewNotificationClient(webhookURL string) *NotificationClient {
	return &NotificationClient{
		WebhookURL: webhookURL,
		http:       &http.Client{Timeout: 10 * time.Second},
	}
}

// Report posts a formatted diagnosis to the configured webhook.
// Returns nil (no-op) when WebhookURL is empty.
func (n *NotificationClient) Report(ctx context.Context, d *llm.Diagnosis) error {
	if n.WebhookURL == "" {
		return nil
	}

	var payload any
	if strings.Contains(n.WebhookURL, "discord.com") {
		payload = buildDiscordPayload(d)
	} else {
		payload = buildSlackPayload(d)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshalling webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.http.Do(req)
	if err != nil {
		return fmt.Errorf("sending webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned HTTP %d", resp.StatusCode)
	}
	return nil
}

// --- Slack Block Kit payload ---

type slackPayload struct {
	Text   string       `json:"text"`
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type string     `json:"type"`
	Text *slackText `json:"text,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func buildSlackPayload(d *llm.Diagnosis) slackPayload {
	header := fmt.Sprintf("🚨 *Build failed* in `%s` (%s)", d.Failure.Location, d.Failure.Name)
	errLine := fmt.Sprintf("*Error:* ```%s```", truncate(d.Failure.Message, 500))

	return slackPayload{
		// Fallback for notifications and clients without Block Kit.
		Text: "GopherDoctor diagnosed a failed build in " + d.Failure.Location,
		Blocks: []slackBlock{
			{Type: "header", Text: &slackText{Type: "plain_text", Text: "🩺 GopherDoctor Build Diagnosis"}},
			{Type: "section", Text: &slackText{Type: "mrkdwn", Text: header}},
			{Type: "section", Text: &slackText{Type: "mrkdwn", Text: errLine}},
			{Type: "section", Text: &slackText{Type: "mrkdwn", Text: "*💡 AI diagnosis:*\n" + truncate(d.Advice, maxSlackText)}},
			{Type: "divider"},
		},
	}
}

// --- Discord webhook payload ---

type discordPayload struct {
	Username string         `json:"username"`
	Embeds   []discordEmbed `json:"embeds"`
}

type discordEmbed struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Color       int            `json:"color"` // decimal RGB
	Fields      []discordField `json:"fields,omitempty"`
	Footer      *discordFooter `json:"footer,omitempty"`
}

type discordField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type discordFooter struct {
	Text string `json:"text"`
}

func buildDiscordPayload(d *llm.Diagnosis) discordPayload {
	embed := discordEmbed{
		Title:       "🚨 Build failed in " + d.Failure.Location,
		Description: truncate(d.Advice, maxDiscordText),
		Color:       0xED4245, // red
		Fields: []discordField{
			{Name: "Error", Value: truncate(d.Failure.Message, 1000), Inline: false},
			{Name: "Kind", Value: d.Failure.Name, Inline: true},
			{Name: "Provider", Value: string(d.Provider), Inline: true},
		},
		Footer: &discordFooter{Text: "GopherDoctor • " + d.CreatedAt.UTC().Format("2006-01-02 15:04 UTC")},
	}

	return discordPayload{
		Username: "GopherDoctor",
		Embeds:   []discordEmbed{embed},
	}
}

// truncate caps s at max runes, marking the cut.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "…"
}
