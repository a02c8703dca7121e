// Package main provides the rollscope CLI: an interactive viewer for
// rollout trace files written during RL training, plus a generator for
// synthetic traces.
package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"rollscope/cmd/rollscope/ui"
	"rollscope/internal/config"
)

var (
	// Global flags
	verbose    bool
	watchFlag  bool
	configPath string

	// Logger
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "rollscope [rollouts.jsonl]",
	Short: "View rollouts recorded during RL training",
	Long: `rollscope replays the rollouts.jsonl trace written by a training run.

One record is shown at a time: the conversation with channel-colored
segments (text, thinking, tool calls, tool results), the per-message
token breakdown, and the reward decomposition. With --watch the viewer
follows the file as the run appends to it.`,
	Args: cobra.ExactArgs(1),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// The TUI owns stdout, so logs go to stderr.
		cfg := zap.NewProductionConfig()
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		cfg.OutputPaths = []string{"stderr"}
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runViewer,
}

func runViewer(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	opts := []ui.Option{
		ui.WithStyles(ui.NewStyles(cfg.Theme)),
		ui.WithDebounce(cfg.Debounce()),
	}
	if watchFlag || cfg.Follow {
		opts = append(opts, ui.WithFollow())
	}

	model := ui.New(args[0], logger, opts...)
	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("viewer error: %w", err)
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default ~/.rollscope.yaml)")
	rootCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Auto-refresh on trace file changes")

	rootCmd.AddCommand(genCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
