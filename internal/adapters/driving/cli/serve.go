package cli

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/docforge/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/docforge/internal/adapters/driving/mcp"
	"github.com/custodia-labs/docforge/internal/logger"
)

var (
	serveAddr  string
	serveNoMCP bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve proxy artifacts and MCP over HTTP",
	Long: `Start the HTTP server.

Routes:
  GET  /health          liveness check
  GET  /proxy           list your group's artifacts
  GET  /proxy/{guid}    fetch an artifact
       /mcp             streamable MCP endpoint

Callers authenticate with "Authorization: Bearer <token>" when auth is
enabled; the token selects the group. The proxy sweep and catalog
watcher run alongside the server.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from server.addr)")
	serveCmd.Flags().BoolVar(&serveNoMCP, "no-mcp", false, "do not mount the /mcp endpoint")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	svc, err := requireServices()
	if err != nil {
		return err
	}
	if svc.Resolver == nil {
		return errors.New("group resolver not configured")
	}

	addr := serveAddr
	if addr == "" {
		addr = svc.ServerAddr
	}

	var handler httpapi.MCPHandler
	if !serveNoMCP {
		server, err := mcp.NewServer(mcpPorts(svc), group(), mcp.Options{
			ProxyBaseURL: baseURL(addr),
		})
		if err != nil {
			return err
		}
		handler = server
	}

	g, ctx := errgroup.WithContext(cmd.Context())

	g.Go(func() error {
		cmd.Printf("Listening on http://%s\n", addr)
		return httpapi.New(svc.Proxy, svc.Resolver, handler).ListenAndServe(ctx, addr)
	})

	if svc.Scheduler != nil && svc.SchedulerConfig.Enabled {
		defer func() {
			if err := svc.Scheduler.Stop(); err != nil {
				logger.Warn("scheduler stop: %v", err)
			}
		}()
		g.Go(func() error {
			err := svc.Scheduler.Start(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	if svc.Watch != nil {
		g.Go(func() error {
			if err := svc.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
				// Stale catalog beats no server.
				logger.Warn("catalog watcher stopped: %v", err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// baseURL turns a listen address into the URL clients reach it at.
func baseURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://" + addr
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port)
}
