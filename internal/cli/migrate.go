package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mindspacehq/mindspace/internal/migrate"
	"github.com/mindspacehq/mindspace/internal/storage"
)

var migrateReset bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Move device-local entries into the backend",
	Long: `Move journal entries stored on this device into the active backend.
Runs at most once per device: after a fully successful run the local
copies are removed and a completion flag prevents re-runs. A failed run
leaves everything local and can simply be retried.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if a.store.Mode() == storage.ModeLocalOnly {
			return fmt.Errorf("nothing to migrate to in --local mode")
		}

		if migrateReset {
			if err := a.local.ClearMigrationFlag(); err != nil {
				return fmt.Errorf("clear migration flag: %w", err)
			}
		}

		engineCfg := migrate.Config{Local: a.local, API: a.api}
		if a.hosted != nil {
			// Assigning the typed pointer unconditionally would make a nil
			// *HostedClient look like a live SessionClient.
			engineCfg.Hosted = a.hosted
		}
		engine := migrate.New(engineCfg)

		status := migrate.StatusRunning
		result := engine.Run(cmd.Context(), a.userID)
		if result.Err != nil {
			status = migrate.StatusError
			fmt.Println(hintStyle.Render(fmt.Sprintf("Migration %s: %v", status, result.Err)))
			if result.Imported > 0 {
				fmt.Printf("%d entries were confirmed before the failure; retrying will not duplicate them.\n", result.Imported)
			}
			return fmt.Errorf("migration aborted")
		}
		status = migrate.StatusDone

		fmt.Println(headerStyle.Render("Migration " + status.String()))
		fmt.Printf("  imported: %d\n  skipped:  %d\n", result.Imported, result.Skipped)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.Flags().BoolVar(&migrateReset, "reset", false, "Clear the completion flag and migrate again")
}
