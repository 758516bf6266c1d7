package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/mindspacehq/mindspace/internal/ai"
	"github.com/mindspacehq/mindspace/internal/domain"
	"github.com/mindspacehq/mindspace/internal/history"
)

var chatNew bool

var (
	miraStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	promptStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62"))

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start or continue a journal entry",
	Long: `Open an interactive conversation with Mira. The last-viewed entry is
resumed unless --new is given. Type "exit" or press Ctrl-D to stop;
everything you write is saved as you go.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()
		return runChat(cmd.Context(), a)
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().BoolVar(&chatNew, "new", false, "Start a fresh entry instead of resuming the last one")
}

func runChat(ctx context.Context, a *app) error {
	sessionID, messages, err := resumeOrCreate(ctx, a)
	if err != nil {
		return err
	}

	if len(messages) == 0 {
		opener := fetchOpeningPrompt(ctx, a)
		messages = append(messages, domain.ChatMessage{
			ID:        domain.NewID(),
			Role:      domain.RoleAssistant,
			Content:   opener,
			Timestamp: time.Now().UTC(),
		})
		if err := a.store.SaveMessages(ctx, sessionID, a.userID, messages); err != nil {
			return fmt.Errorf("save entry: %w", err)
		}
	}

	for _, m := range messages {
		printMessage(m)
	}
	fmt.Println(hintStyle.Render(`(type "exit" or press Ctrl-D to finish)`))

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		fmt.Print(promptStyle.Render("you") + " > ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			break
		}

		messages = append(messages, domain.ChatMessage{
			ID:        domain.NewID(),
			Role:      domain.RoleUser,
			Content:   input,
			Timestamp: time.Now().UTC(),
		})
		if err := a.store.SaveMessages(ctx, sessionID, a.userID, messages); err != nil {
			return fmt.Errorf("save entry: %w", err)
		}

		reply, err := a.api.Chat(ctx, a.userID, toTurns(history.Truncate(messages, history.MaxContextMessages)), "")
		if err != nil {
			fmt.Println(hintStyle.Render("Mira is unreachable right now; your entry is saved. (" + err.Error() + ")"))
			continue
		}

		replyMsg := domain.ChatMessage{
			ID:        domain.NewID(),
			Role:      domain.RoleAssistant,
			Content:   reply,
			Timestamp: time.Now().UTC(),
		}
		messages = append(messages, replyMsg)
		printMessage(replyMsg)

		if err := a.store.SaveMessages(ctx, sessionID, a.userID, messages); err != nil {
			return fmt.Errorf("save entry: %w", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	fmt.Println(hintStyle.Render("Entry saved. See you next time."))
	return nil
}

// resumeOrCreate picks up the last-viewed entry, or creates a fresh one when
// --new is set or no pointer exists.
func resumeOrCreate(ctx context.Context, a *app) (string, []domain.ChatMessage, error) {
	if !chatNew {
		if id := a.store.CurrentSessionID(); id != "" {
			messages, err := a.store.Session(ctx, id, a.userID)
			if err != nil {
				return "", nil, fmt.Errorf("load entry: %w", err)
			}
			if messages != nil {
				return id, messages, nil
			}
		}
	}

	id, err := a.store.CreateSession(ctx, a.userID, "")
	if err != nil {
		return "", nil, fmt.Errorf("create entry: %w", err)
	}
	if err := a.store.SetCurrentSessionID(id); err != nil {
		return "", nil, err
	}
	return id, nil, nil
}

// fetchOpeningPrompt asks the API for Mira's opener, falling back to the
// built-in one offline.
func fetchOpeningPrompt(ctx context.Context, a *app) string {
	opener, err := a.api.OpeningPrompt(ctx)
	if err != nil || opener == "" {
		return ai.OpeningPrompt
	}
	return opener
}

func printMessage(m domain.ChatMessage) {
	label := promptStyle.Render("you")
	if m.Role == domain.RoleAssistant {
		label = miraStyle.Render("mira")
	}
	fmt.Printf("%s > %s\n", label, m.Content)
}

func toTurns(messages []domain.ChatMessage) []ai.Turn {
	turns := make([]ai.Turn, 0, len(messages))
	for _, m := range messages {
		turns = append(turns, ai.Turn{Role: m.Role, Content: m.Content})
	}
	return turns
}
