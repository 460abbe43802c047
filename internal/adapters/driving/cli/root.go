// Package cli provides the docforge command-line interface.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docforge/internal/core/domain"
	"github.com/custodia-labs/docforge/internal/core/ports/driven"
	"github.com/custodia-labs/docforge/internal/core/ports/driving"
	"github.com/custodia-labs/docforge/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// skipBootstrap marks commands that run without services.
const skipBootstrap = "skip-bootstrap"

// Services holds everything the commands call into.
type Services struct {
	Sessions        driving.SessionService
	Render          driving.RenderService
	Proxy           driving.ProxyService
	Catalog         driving.CatalogService
	Settings        driving.SettingsService
	Scheduler       driving.Scheduler
	SchedulerConfig domain.SchedulerConfig
	Resolver        driven.GroupResolver

	// Watch reloads the catalog until ctx is done. Nil when watching is off.
	Watch func(ctx context.Context) error

	// ServerAddr is the default listen address of serve.
	ServerAddr string

	// Close releases storage. May be nil.
	Close func() error
}

// Options are the persistent flags handed to the bootstrap function.
type Options struct {
	// ConfigDir overrides ~/.docforge.
	ConfigDir string

	// Ephemeral keeps settings and state in memory.
	Ephemeral bool
}

// BootstrapFunc builds the services once flags are parsed.
type BootstrapFunc func(Options) (*Services, error)

var (
	services  *Services
	bootstrap BootstrapFunc

	verbose     bool
	callerGroup string
	rootOpts    Options
)

var rootCmd = &cobra.Command{
	Use:   "docforge",
	Short: "Build documents from fragments and render them",
	Long: `docforge assembles documents from templates and validated fragments,
and renders them as canonical HTML, PDF or markdown.

Sessions are scoped to a group; local commands act as --group (default
"public"). Run "docforge serve" to expose proxy artifacts and the MCP
endpoint over HTTP.`,
	SilenceUsage:      true,
	PersistentPreRunE: prepare,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&callerGroup, "group", "g", domain.PublicGroup, "group to act as")
	rootCmd.PersistentFlags().StringVar(&rootOpts.ConfigDir, "config-dir", "", "configuration directory (default ~/.docforge)")
	rootCmd.PersistentFlags().BoolVar(&rootOpts.Ephemeral, "ephemeral", false, "keep settings and sessions in memory only")
}

// SetBootstrap registers the function that builds the services.
func SetBootstrap(fn BootstrapFunc) {
	bootstrap = fn
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command and releases services afterwards.
func Execute(ctx context.Context) error {
	defer closeServices()
	return rootCmd.ExecuteContext(ctx)
}

func prepare(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	if cmd.Annotations[skipBootstrap] == "true" || services != nil || bootstrap == nil {
		return nil
	}

	s, err := bootstrap(rootOpts)
	if err != nil {
		return err
	}
	services = s
	return nil
}

func closeServices() {
	if services == nil || services.Close == nil {
		return
	}
	if err := services.Close(); err != nil {
		logger.Warn("closing storage: %v", err)
	}
}

// requireServices returns the services or an error when none are configured.
func requireServices() (*Services, error) {
	if services == nil {
		return nil, errors.New("services not configured")
	}
	return services, nil
}

// group returns the group local commands act as.
func group() string {
	if callerGroup == "" {
		return domain.PublicGroup
	}
	return callerGroup
}
