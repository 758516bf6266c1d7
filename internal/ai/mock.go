package ai

import (
	"context"
	"errors"
	"math/rand"
	"strings"
)

// ErrInsightsUnavailable is returned when insight generation needs a real
// model and none is configured.
var ErrInsightsUnavailable = errors.New("ai service not available")

// mockResponses are canned empathetic replies for keyless development.
var mockResponses = []string{
	"I hear you. That sounds really challenging. What aspect of this is affecting you the most?",
	"Thank you for sharing that with me. How long have you been feeling this way?",
	"That's completely understandable. It's okay to feel this way. What would help you feel better right now?",
	"I appreciate you opening up about this. What do you think triggered these feelings?",
	"That must be difficult to deal with. Have you noticed any patterns in when you feel this way?",
	"It sounds like you're going through a lot. What's been your biggest source of support lately?",
	"I'm here to listen. Is there something specific you'd like to talk through?",
	"That's a valid feeling. What would you say to a friend going through the same thing?",
	"Thanks for trusting me with this. What's one small thing that made you smile today?",
	"I understand. Sometimes just expressing these thoughts can help. How are you taking care of yourself?",
}

// MockCompanion returns predefined responses; used when no API key is set.
type MockCompanion struct{}

// NewMockCompanion creates the keyless companion.
func NewMockCompanion() *MockCompanion {
	return &MockCompanion{}
}

// Chat returns a random empathetic response.
func (m *MockCompanion) Chat(_ context.Context, _ []Turn, _ ChatOptions) (string, error) {
	return mockResponses[rand.Intn(len(mockResponses))], nil
}

// Summarize builds a heuristic summary from the user's messages.
func (m *MockCompanion) Summarize(_ context.Context, turns []Turn) (string, error) {
	var snippets []string
	for _, t := range turns {
		if t.Role != "user" {
			continue
		}
		content := t.Content
		if len(content) > 80 {
			content = content[:80]
		}
		snippets = append(snippets, content)
		if len(snippets) == 5 {
			break
		}
	}

	summary := "User shared thoughts including: " + strings.Join(snippets, "; ")
	if len(turns) > 5 {
		summary += "..."
	}
	return summary, nil
}

// CanGenerateInsights reports that no real model is available.
func (m *MockCompanion) CanGenerateInsights() bool {
	return false
}

// GenerateInsights always fails; insights need a real model.
func (m *MockCompanion) GenerateInsights(context.Context, InsightsRequest) (*UnifiedInsights, error) {
	return nil, ErrInsightsUnavailable
}
