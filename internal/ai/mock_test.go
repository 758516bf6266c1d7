package ai

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestMockChatReturnsCannedResponse(t *testing.T) {
	m := NewMockCompanion()

	reply, err := m.Chat(context.Background(), []Turn{{Role: "user", Content: "hi"}}, ChatOptions{})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}

	found := false
	for _, r := range mockResponses {
		if reply == r {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("reply %q not in canned set", reply)
	}
}

func TestMockSummarizeUsesUserMessages(t *testing.T) {
	m := NewMockCompanion()
	turns := []Turn{
		{Role: "assistant", Content: "What's on your mind?"},
		{Role: "user", Content: "work has been stressful"},
		{Role: "assistant", Content: "Tell me more."},
		{Role: "user", Content: "deadlines keep slipping"},
	}

	summary, err := m.Summarize(context.Background(), turns)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if !strings.Contains(summary, "work has been stressful") {
		t.Errorf("summary %q missing first user message", summary)
	}
	if !strings.Contains(summary, "deadlines keep slipping") {
		t.Errorf("summary %q missing second user message", summary)
	}
}

func TestMockInsightsUnavailable(t *testing.T) {
	m := NewMockCompanion()

	if m.CanGenerateInsights() {
		t.Error("mock reports insights capability")
	}
	if _, err := m.GenerateInsights(context.Background(), InsightsRequest{}); !errors.Is(err, ErrInsightsUnavailable) {
		t.Errorf("err = %v, want ErrInsightsUnavailable", err)
	}
}

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
	}
	for _, tt := range tests {
		if got := stripCodeFences(tt.in); got != tt.want {
			t.Errorf("stripCodeFences(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBuildInsightsPromptBoundsInput(t *testing.T) {
	req := InsightsRequest{
		TotalDaysActive: 20,
		TotalMessages:   400,
	}
	for i := 0; i < 20; i++ {
		req.Entries = append(req.Entries, JournalEntry{
			Date:           "Jan 1",
			MessageCount:   10,
			SampleMessages: []string{strings.Repeat("x", 300)},
		})
	}

	prompt := buildInsightsPrompt(req)
	if !strings.Contains(prompt, "Entry 15") {
		t.Error("prompt missing last bounded entry")
	}
	if strings.Contains(prompt, "Entry 16") {
		t.Error("prompt includes more than 15 entries")
	}
}
