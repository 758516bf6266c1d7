// Package cli implements the MindSpace journaling commands.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mindspacehq/mindspace/internal/config"
	"github.com/mindspacehq/mindspace/internal/domain"
	"github.com/mindspacehq/mindspace/internal/localstore"
	"github.com/mindspacehq/mindspace/internal/remote"
	"github.com/mindspacehq/mindspace/internal/storage"
)

var (
	flagUser     string
	flagStateDir string
	flagLocal    bool
	flagVerbose  bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "mindspace",
	Short: "Journal with Mira, your AI companion",
	Long: `MindSpace is a journaling companion. Talk through your day with Mira,
keep your entries on this device or in a durable backend, and revisit
them whenever you need to.

Quick Start:
  mindspace chat                 # Start or continue a journal entry
  mindspace entries              # List your entries
  mindspace show <entry-id>      # Re-read one entry
  mindspace migrate              # Move device-local entries to the backend`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		if flagVerbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		})))
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagUser, "user", "", "User ID sent to the backend (defaults to the shared anonymous identity)")
	rootCmd.PersistentFlags().StringVar(&flagStateDir, "state-dir", "", "Directory for device-local journal state")
	rootCmd.PersistentFlags().BoolVar(&flagLocal, "local", false, "Keep everything on this device; never contact a backend")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable verbose logging")
}

// app carries the wired collaborators every command needs. The storage mode
// is resolved once here, not re-checked per operation.
type app struct {
	cfg    *config.Config
	store  *storage.Facade
	api    *remote.APIClient
	local  *localstore.Store
	hosted *remote.HostedClient
	userID string
}

func newApp() (*app, error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	stateDir := cfg.StateDir
	if flagStateDir != "" {
		stateDir = flagStateDir
	}
	if stateDir == "" {
		stateDir, err = localstore.DefaultDir()
		if err != nil {
			return nil, err
		}
	}
	local, err := localstore.New(stateDir)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:    cfg,
		api:    remote.NewAPIClient(cfg.APIBaseURL, nil),
		local:  local,
		userID: domain.AnonymousUserID,
	}
	if flagUser != "" {
		a.userID = flagUser
	}

	// Backend ranking: hosted database, then HTTP API, then device-only.
	switch {
	case flagLocal:
		a.store = storage.New(storage.ModeLocalOnly, nil, local, slog.Default())
	case cfg.HostedConfigured():
		hosted, err := remote.NewHostedClient(cfg.HostedDBPath)
		if err != nil {
			return nil, fmt.Errorf("open hosted database: %w", err)
		}
		a.hosted = hosted
		a.store = storage.New(storage.ModeHosted, hosted, local, slog.Default())
	default:
		a.store = storage.New(storage.ModeAPI, a.api, local, slog.Default())
	}
	return a, nil
}

func (a *app) Close() {
	if a.hosted != nil {
		if err := a.hosted.Close(); err != nil {
			slog.Warn("failed to close hosted database", "error", err)
		}
	}
}
