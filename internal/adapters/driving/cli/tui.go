package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/docforge/internal/adapters/driving/tui"
	"github.com/custodia-labs/docforge/internal/logger"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive terminal UI",
	Long: `Launch the interactive terminal user interface.

Browse your group's sessions, check their readiness, preview the rendered
markdown or canonical output, and abort sessions you no longer need.

Controls:
  ↑/k, ↓/j - Navigate
  Enter    - Open
  p        - Preview
  f        - Switch preview format
  x        - Abort session
  Esc      - Back
  q        - Quit`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	svc, err := requireServices()
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	// The TUI is long-running, so the sweep runs alongside it.
	if svc.Scheduler != nil && svc.SchedulerConfig.Enabled {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		go func() {
			if err := svc.Scheduler.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("scheduler stopped: %v", err)
			}
		}()

		defer func() {
			if err := svc.Scheduler.Stop(); err != nil {
				logger.Warn("scheduler stop: %v", err)
			}
		}()
	}

	app, err := tui.NewApp(&tui.Ports{
		Sessions: svc.Sessions,
		Render:   svc.Render,
		Catalog:  svc.Catalog,
		Group:    group(),
	})
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}

	if err := app.WithContext(cmd.Context()).Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
