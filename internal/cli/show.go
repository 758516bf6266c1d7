package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <entry-id>",
	Short: "Re-read one journal entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		messages, err := a.store.Session(cmd.Context(), args[0], a.userID)
		if err != nil {
			return fmt.Errorf("load entry: %w", err)
		}
		if messages == nil {
			return fmt.Errorf("entry %s not found", args[0])
		}

		for _, m := range messages {
			fmt.Println(dateStyle.Render(m.Timestamp.Local().Format("Jan 02 15:04")))
			printMessage(m)
			fmt.Println()
		}
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <entry-id>",
	Short: "Delete a journal entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.store.DeleteSession(cmd.Context(), args[0], a.userID); err != nil {
			return fmt.Errorf("delete entry: %w", err)
		}
		if a.store.CurrentSessionID() == args[0] {
			// Dangling pointer would resume a deleted entry.
			if err := a.store.SetCurrentSessionID(""); err != nil {
				return err
			}
		}
		fmt.Println(hintStyle.Render("Entry deleted."))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(deleteCmd)
}
