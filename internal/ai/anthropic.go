package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	defaultModel          = "claude-sonnet-4-20250514"
	defaultChatMaxTokens  = 500
	summaryMaxTokens      = 150
	insightsMaxTokens     = 2000
	maxInsightEntries     = 15
	maxInsightSampleChars = 2500
)

const systemPrompt = `You are Mira, an empathetic AI journaling companion. Your role is to:
- Listen actively and respond with genuine understanding
- Ask thoughtful follow-up questions (one at a time)
- Help users reflect on their thoughts and feelings
- Maintain a warm, supportive, non-judgmental tone
- Keep responses concise (2-3 sentences typically)
- Never provide medical or therapeutic advice
- If someone expresses crisis thoughts, gently suggest professional help

Remember: You're a reflective companion, not a therapist.`

// AnthropicCompanion calls the Anthropic Messages API.
type AnthropicCompanion struct {
	client anthropic.Client
	model  string
}

// NewAnthropicCompanion builds a companion on the official SDK.
func NewAnthropicCompanion(apiKey, model string) *AnthropicCompanion {
	if model == "" {
		model = defaultModel
	}
	return &AnthropicCompanion{
		client: anthropic.NewClient(
			option.WithAPIKey(strings.TrimSpace(apiKey)),
			option.WithHTTPClient(&http.Client{Timeout: 90 * time.Second}),
		),
		model: model,
	}
}

// Chat returns the companion's reply to the conversation so far.
func (a *AnthropicCompanion) Chat(ctx context.Context, turns []Turn, opts ChatOptions) (string, error) {
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultChatMaxTokens
	}

	system := systemPrompt
	if opts.ContextSummary != "" {
		system += "\n\nEarlier in this conversation:\n" + opts.ContextSummary
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: int64(maxTokens),
		System:    []anthropic.TextBlockParam{{Text: system}},
		Messages:  toSDKMessages(turns),
	}

	resp, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic chat: %w", err)
	}
	return responseText(resp), nil
}

// Summarize condenses conversation history into a few sentences.
func (a *AnthropicCompanion) Summarize(ctx context.Context, turns []Turn) (string, error) {
	var sb strings.Builder
	sb.WriteString("Summarize this journal conversation in 2-3 concise sentences. ")
	sb.WriteString("Capture themes, feelings, and key points. Output only the summary.\n\n")
	for _, t := range turns {
		sb.WriteString(t.Role)
		sb.WriteString(": ")
		sb.WriteString(t.Content)
		sb.WriteString("\n")
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: summaryMaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(sb.String())),
		},
	}

	resp, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic summarize: %w", err)
	}
	return strings.TrimSpace(responseText(resp)), nil
}

// CanGenerateInsights reports that a real model is available.
func (a *AnthropicCompanion) CanGenerateInsights() bool {
	return true
}

// GenerateInsights produces the unified word-cloud and constellation analysis.
func (a *AnthropicCompanion) GenerateInsights(ctx context.Context, req InsightsRequest) (*UnifiedInsights, error) {
	prompt := buildInsightsPrompt(req)

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: insightsMaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}

	resp, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic insights: %w", err)
	}

	var insights UnifiedInsights
	if err := json.Unmarshal([]byte(stripCodeFences(responseText(resp))), &insights); err != nil {
		return nil, fmt.Errorf("decode insights response: %w", err)
	}
	return &insights, nil
}

func toSDKMessages(turns []Turn) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(turns))
	for _, t := range turns {
		if t.Content == "" {
			continue
		}
		block := anthropic.NewTextBlock(t.Content)
		if t.Role == "assistant" {
			out = append(out, anthropic.NewAssistantMessage(block))
		} else {
			out = append(out, anthropic.NewUserMessage(block))
		}
	}
	return out
}

func responseText(msg *anthropic.Message) string {
	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String()
}

// stripCodeFences removes a markdown code fence the model sometimes wraps
// JSON output in.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func buildInsightsPrompt(req InsightsRequest) string {
	entries := req.Entries
	if len(entries) > maxInsightEntries {
		entries = entries[len(entries)-maxInsightEntries:]
	}

	var allMessages []string
	var entriesContext []string
	for idx, entry := range entries {
		allMessages = append(allMessages, entry.SampleMessages...)

		samples := entry.SampleMessages
		if len(samples) > 5 {
			samples = samples[:5]
		}
		quoted := make([]string, len(samples))
		for i, msg := range samples {
			quoted[i] = fmt.Sprintf("- %q", msg)
		}
		entriesContext = append(entriesContext, fmt.Sprintf(
			"Entry %d (%s, %d messages):\n  %s",
			idx+1, entry.Date, entry.MessageCount, strings.Join(quoted, "\n  ")))
	}

	fullText := strings.Join(allMessages, " ")
	if len(fullText) > maxInsightSampleChars {
		fullText = fullText[:maxInsightSampleChars]
	}

	return fmt.Sprintf(`Analyze this person's journal entries to create a comprehensive insight dashboard with BOTH a word cloud and theme constellation.

JOURNAL ENTRIES (%d total, over %d days):

%s

FULL TEXT FOR WORD ANALYSIS:
%s

Provide TWO types of analysis in one JSON response:

1. WORD CLOUD (Central Theme Focus):
   - Identify the SINGLE most dominant theme
   - Name it specifically (2-4 words)
   - Choose perfect emoji
   - Write 1-sentence description
   - Extract 12-15 related words from their actual text
   - Assign sizes (1-5) based on frequency
   - Pick a theme color (hex) matching the mood

2. CONSTELLATION (Multiple Themes & Connections):
   - Identify 3-5 core themes (can include the central theme)
   - For each: name, emoji, frequency, sentiment, dates
   - Map 3-5 connections between themes (strength 1-5)
   - Write narrative (3-4 sentences)
   - Identify hidden pattern (2-3 sentences)
   - Provide thoughtful future prompt question

IMPORTANT:
- Use their ACTUAL words
- Be specific and personal to their content
- If work stress appears 2+ times: make it prominent
- Connect themes meaningfully

Respond with ONLY valid JSON:
{
  "central_theme": "Most Dominant Theme",
  "central_emoji": "🎯",
  "theme_description": "This theme recurs because...",
  "theme_color": "#9333ea",
  "related_words": [
    {"word": "actual-word", "size": 5},
    {"word": "another", "size": 4}
  ],
  "core_themes": [
    {"theme": "Theme Name", "emoji": "⏰", "frequency": 3, "sentiment": "negative", "dates": ["Jan 15", "Jan 17"]}
  ],
  "connections": [
    {"from_theme": "Theme1", "to_theme": "Theme2", "strength": 5}
  ],
  "narrative": "Your journal reveals...",
  "hidden_pattern": "You might not have noticed...",
  "future_prompt": "What would it look like if...?"
}`,
		len(req.Entries), req.TotalDaysActive, strings.Join(entriesContext, "\n\n"), fullText)
}
