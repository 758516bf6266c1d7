package cli

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/mindspacehq/mindspace/internal/domain"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true)

	countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	dateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))
)

var entriesCmd = &cobra.Command{
	Use:   "entries",
	Short: "List your journal entries",
	Long:  `List journal entries from the active backend, most recent first.`,
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
		displayEntries(sessions)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(entriesCmd)
}

func displayEntries(sessions []domain.Session) {
	if len(sessions) == 0 {
		fmt.Println(headerStyle.Render("No entries yet — start one with `mindspace chat`"))
		return
	}

	fmt.Println(headerStyle.Render(fmt.Sprintf("Found %d entr%s", len(sessions), plural(len(sessions)))))
	fmt.Println()

	w := tabwriter.NewWriter(lipgloss.DefaultRenderer().Output(), 0, 0, 3, ' ', tabwriter.AlignRight)
	_, _ = fmt.Fprintln(w, titleStyle.Render("ID")+"\t"+titleStyle.Render("Title")+"\t"+titleStyle.Render("Messages")+"\t"+titleStyle.Render("Updated")+"\t")
	_, _ = fmt.Fprintln(w, strings.Repeat("─", 90))

	for _, s := range sessions {
		title := s.Title
		if title == "" {
			title = domain.DefaultTitle
		}
		if len(title) > 50 {
			title = title[:47] + "..."
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t\n",
			idStyle.Render(shortID(s.ID)),
			title,
			countStyle.Render(strconv.Itoa(len(s.Messages))),
			dateStyle.Render(relativeDate(s.UpdatedAt)),
		)
	}

	_ = w.Flush()
	fmt.Println()
	fmt.Println(idStyle.Render("Tip: `mindspace show ") +
		lipgloss.NewStyle().Foreground(lipgloss.Color("62")).Render(sessions[0].ID) +
		idStyle.Render("` re-reads an entry"))
}

func shortID(id string) string {
	if len(id) > 13 {
		return id[:13]
	}
	return id
}

func plural(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}

func relativeDate(t time.Time) string {
	if t.IsZero() {
		return "—"
	}
	t = t.Local()
	diff := time.Since(t)
	switch {
	case diff < 24*time.Hour:
		return t.Format("Today 15:04")
	case diff < 7*24*time.Hour:
		return t.Format("Mon 15:04")
	case diff < 365*24*time.Hour:
		return t.Format("Jan 02 15:04")
	default:
		return t.Format("2006-01-02")
	}
}
