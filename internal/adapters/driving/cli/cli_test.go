package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docforge/internal/adapters/driven/auth"
	"github.com/custodia-labs/docforge/internal/adapters/driven/catalog"
	"github.com/custodia-labs/docforge/internal/adapters/driven/storage/memory"
	coreservices "github.com/custodia-labs/docforge/internal/core/services"
	"github.com/custodia-labs/docforge/internal/render"
	"github.com/custodia-labs/docforge/internal/validation"
)

// newTestServices wires the real services over in-memory stores.
func newTestServices(t *testing.T) *Services {
	t.Helper()
	cat := catalog.Builtin()
	artifacts := memory.NewArtifactStore()
	sessions := coreservices.NewSessionService(memory.NewSessionStore(), artifacts, cat,
		validation.New(nil, validation.Options{Embed: false}))
	proxy := coreservices.NewProxyService(artifacts, time.Hour, 0)

	svc := &Services{
		Sessions:   sessions,
		Render:     coreservices.NewRenderService(sessions, cat, render.New(cat), proxy, ""),
		Proxy:      proxy,
		Catalog:    coreservices.NewCatalogService(cat, cat),
		Settings:   coreservices.NewSettingsService(memory.NewConfigStore()),
		Resolver:   auth.NewNullResolver(),
		ServerAddr: "127.0.0.1:0",
	}
	return svc
}

// useTestServices installs newTestServices for the duration of the test.
func useTestServices(t *testing.T) *Services {
	t.Helper()
	svc := newTestServices(t)
	prev := services
	services = svc
	t.Cleanup(func() { services = prev })
	return svc
}

// execute runs the root command with args and returns what it printed.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(new(bytes.Buffer))
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}

// mustExecute is execute that fails the test on error.
func mustExecute(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execute(t, args...)
	require.NoError(t, err, out)
	return out
}

// resetFlags restores every flag in the tree to its default, since cobra
// keeps flag state between executions.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// createReadySession creates q4-report in group public with globals and a paragraph.
func createReadySession(t *testing.T) {
	t.Helper()
	mustExecute(t, "session", "create", "basic_report", "q4-report")
	mustExecute(t, "session", "globals", "q4-report", "-p", "title=Q4 Review", "-p", "author=X")
	mustExecute(t, "session", "add", "q4-report", "paragraph", "-p", "text=Revenue grew.")
}

