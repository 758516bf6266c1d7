// Package ai provides the journaling companion service: an Anthropic-backed
// implementation and a canned-response mock for development without a key.
package ai

import "context"

// Turn is one conversational turn as sent to the AI service.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatOptions tunes a single companion call.
type ChatOptions struct {
	// MaxTokens caps the reply length; 0 uses the service default.
	MaxTokens int
	// ContextSummary carries a condensed version of older conversation
	// history, appended to the system prompt.
	ContextSummary string
}

// Companion generates journaling replies and insights.
type Companion interface {
	// Chat returns the companion's reply to the conversation so far.
	Chat(ctx context.Context, turns []Turn, opts ChatOptions) (string, error)

	// Summarize condenses conversation history into a few sentences.
	Summarize(ctx context.Context, turns []Turn) (string, error)

	// CanGenerateInsights reports whether a real model is available for
	// insight generation.
	CanGenerateInsights() bool

	// GenerateInsights produces the unified word-cloud and constellation
	// analysis from journal history.
	GenerateInsights(ctx context.Context, req InsightsRequest) (*UnifiedInsights, error)
}

// OpeningPrompt is the companion's fixed conversation opener.
const OpeningPrompt = "Hi! I'm Mira, your journaling companion. I'm here to listen and help you reflect. What's on your mind today?"

// JournalEntry summarizes one day of journaling for insight generation.
type JournalEntry struct {
	Date           string   `json:"date"`
	MessageCount   int      `json:"message_count"`
	SampleMessages []string `json:"sample_messages"`
}

// InsightsRequest is the input to unified insight generation.
type InsightsRequest struct {
	Entries         []JournalEntry `json:"entries"`
	TotalDaysActive int            `json:"total_days_active"`
	TotalMessages   int            `json:"total_messages"`
}

// WordCloudWord is a single weighted word in the cloud.
type WordCloudWord struct {
	Word string `json:"word"`
	Size int    `json:"size"`
}

// ThemeNode is one recurring theme in the constellation.
type ThemeNode struct {
	Theme     string   `json:"theme"`
	Emoji     string   `json:"emoji"`
	Frequency int      `json:"frequency"`
	Sentiment string   `json:"sentiment"`
	Dates     []string `json:"dates"`
}

// ThoughtConnection links two themes with a strength weight.
type ThoughtConnection struct {
	FromTheme string `json:"from_theme"`
	ToTheme   string `json:"to_theme"`
	Strength  int    `json:"strength"`
}

// UnifiedInsights is the combined word-cloud and constellation analysis.
type UnifiedInsights struct {
	CentralTheme     string          `json:"central_theme"`
	CentralEmoji     string          `json:"central_emoji"`
	ThemeDescription string          `json:"theme_description"`
	ThemeColor       string          `json:"theme_color"`
	RelatedWords     []WordCloudWord `json:"related_words"`

	CoreThemes    []ThemeNode         `json:"core_themes"`
	Connections   []ThoughtConnection `json:"connections"`
	Narrative     string              `json:"narrative"`
	HiddenPattern string              `json:"hidden_pattern"`
	FuturePrompt  string              `json:"future_prompt"`
}
