package cli

import (
	"sort"

	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and change storage, catalog, proxy, embed, server and auth settings.

Settings are stored in ~/.docforge/config.toml.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Change a setting",
	Long: `Change a single setting by its dotted key.

Examples:
  docforge settings set storage.backend memory
  docforge settings set proxy.max_age 48h
  docforge settings set auth.tokens "tok-a=finance,tok-b=legal"`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List recognised setting keys",
	Args:  cobra.NoArgs,
	RunE:  runSettingsKeys,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsKeysCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	svc, err := requireServices()
	if err != nil {
		return err
	}

	settings, err := svc.Settings.Get()
	if err != nil {
		return err
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Storage]")
	cmd.Printf("  Backend: %s\n", settings.Storage.Backend.Description())
	cmd.Printf("  Data dir: %s\n", orDefault(settings.Storage.DataDir, "(config dir)"))
	cmd.Println()

	cmd.Println("[Catalog]")
	cmd.Printf("  Dir: %s\n", orDefault(settings.Catalog.Dir, "(built-in only)"))
	cmd.Printf("  Watch: %s\n", yesNo(settings.Catalog.Watch))
	cmd.Println()

	cmd.Println("[Render]")
	cmd.Printf("  Default style: %s\n", settings.Render.DefaultStyle)
	cmd.Println()

	cmd.Println("[Proxy]")
	cmd.Printf("  Max age: %s\n", settings.Proxy.MaxAge)
	if settings.Proxy.TTL > 0 {
		cmd.Printf("  TTL: %s\n", settings.Proxy.TTL)
	} else {
		cmd.Println("  TTL: (none)")
	}
	cmd.Printf("  Sweep interval: %s\n", settings.Proxy.SweepInterval)
	cmd.Println()

	cmd.Println("[Embed]")
	cmd.Printf("  Enabled: %s\n", yesNo(settings.Embed.Enabled))
	if settings.Embed.Enabled {
		cmd.Printf("  Timeout: %s\n", settings.Embed.Timeout)
		cmd.Printf("  Max bytes: %d\n", settings.Embed.MaxBytes)
		cmd.Printf("  Require HTTPS: %s\n", yesNo(settings.Embed.RequireHTTPS))
		cmd.Printf("  Rate: %g/s (burst %d)\n", settings.Embed.Rate, settings.Embed.Burst)
	}
	cmd.Println()

	cmd.Println("[Server]")
	cmd.Printf("  Addr: %s\n", settings.Server.Addr)
	cmd.Println()

	cmd.Println("[Auth]")
	cmd.Printf("  Enabled: %s\n", yesNo(settings.Auth.Enabled))
	tokens := make([]string, 0, len(settings.Auth.Tokens))
	for token := range settings.Auth.Tokens {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)
	for _, token := range tokens {
		cmd.Printf("  %s -> %s\n", maskToken(token), settings.Auth.Tokens[token])
	}

	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	svc, err := requireServices()
	if err != nil {
		return err
	}

	if err := svc.Settings.Set(args[0], args[1]); err != nil {
		return err
	}

	cmd.Printf("Set %s\n", args[0])
	return nil
}

func runSettingsKeys(cmd *cobra.Command, _ []string) error {
	svc, err := requireServices()
	if err != nil {
		return err
	}

	for _, key := range svc.Settings.Keys() {
		cmd.Println(key)
	}
	return nil
}

// maskToken masks a bearer token for display.
func maskToken(token string) string {
	if len(token) <= 8 {
		return "****"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
