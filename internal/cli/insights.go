package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/mindspacehq/mindspace/internal/ai"
	"github.com/mindspacehq/mindspace/internal/domain"
)

const samplesPerDay = 5

var insightsCmd = &cobra.Command{
	Use:   "insights",
	Short: "Generate a word cloud and theme constellation from your journal",
	Long: `Analyze your journal history with Mira. Requires a server running with a
real model; the keyless mock cannot generate insights.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		sessions, err := a.store.Sessions(cmd.Context(), a.userID)
		if err != nil {
			return fmt.Errorf("list entries: %w", err)
		}

		req := buildInsightsRequest(sessions)
		if len(req.Entries) == 0 {
			fmt.Println(headerStyle.Render("Nothing to analyze yet — journal a little first"))
			return nil
		}

		insights, err := a.api.UnifiedInsights(cmd.Context(), req)
		if err != nil {
			return fmt.Errorf("generate insights: %w", err)
		}
		displayInsights(insights)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(insightsCmd)
}

// buildInsightsRequest condenses journal history into per-day entries: a
// message count plus a few samples of what the user wrote.
func buildInsightsRequest(sessions []domain.Session) ai.InsightsRequest {
	byDate := map[string]*ai.JournalEntry{}
	total := 0

	for _, s := range sessions {
		for _, m := range s.Messages {
			if m.Role != domain.RoleUser {
				continue
			}
			date := m.Timestamp.Local().Format("2006-01-02")
			entry, ok := byDate[date]
			if !ok {
				entry = &ai.JournalEntry{Date: date}
				byDate[date] = entry
			}
			entry.MessageCount++
			if len(entry.SampleMessages) < samplesPerDay {
				entry.SampleMessages = append(entry.SampleMessages, m.Content)
			}
			total++
		}
	}

	entries := make([]ai.JournalEntry, 0, len(byDate))
	for _, e := range byDate {
		entries = append(entries, *e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Date < entries[j].Date })

	return ai.InsightsRequest{
		Entries:         entries,
		TotalDaysActive: len(entries),
		TotalMessages:   total,
	}
}

func displayInsights(in *ai.UnifiedInsights) {
	accent := lipgloss.NewStyle().Foreground(lipgloss.Color("62")).Bold(true)

	fmt.Println(headerStyle.Render(fmt.Sprintf("%s  %s", in.CentralEmoji, in.CentralTheme)))
	fmt.Println(in.ThemeDescription)
	fmt.Println()

	if len(in.RelatedWords) > 0 {
		words := make([]string, 0, len(in.RelatedWords))
		for _, w := range in.RelatedWords {
			words = append(words, w.Word)
		}
		fmt.Println(accent.Render("Words that keep coming back: ") + strings.Join(words, ", "))
		fmt.Println()
	}

	for _, theme := range in.CoreThemes {
		fmt.Printf("%s %s  %s (%s, %d mentions)\n",
			theme.Emoji,
			titleStyle.Render(theme.Theme),
			dateStyle.Render(strings.Join(theme.Dates, ", ")),
			theme.Sentiment,
			theme.Frequency,
		)
	}
	if len(in.CoreThemes) > 0 {
		fmt.Println()
	}

	if in.Narrative != "" {
		fmt.Println(in.Narrative)
	}
	if in.HiddenPattern != "" {
		fmt.Println(accent.Render("A pattern you might not have noticed: ") + in.HiddenPattern)
	}
	if in.FuturePrompt != "" {
		fmt.Println(hintStyle.Render("Next time: " + in.FuturePrompt))
	}
}
