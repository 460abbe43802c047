package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/docforge/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server over stdio",
	Long: `Start the Model Context Protocol server on stdin/stdout.

The server acts as --group for every tool call. To serve several groups
over HTTP with bearer tokens, use "docforge serve" instead.

Examples:
  docforge mcp serve
  docforge mcp serve --group finance

Client configuration:
  {
    "mcpServers": {
      "docforge": {
        "command": "/path/to/docforge",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	Args: cobra.NoArgs,
	RunE: runMCPServe,
}

func init() {
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	svc, err := requireServices()
	if err != nil {
		return err
	}

	server, err := mcp.NewServer(mcpPorts(svc), group(), mcp.Options{})
	if err != nil {
		return err
	}
	return server.Run(cmd.Context())
}

func mcpPorts(svc *Services) *mcp.Ports {
	return &mcp.Ports{
		Sessions: svc.Sessions,
		Render:   svc.Render,
		Proxy:    svc.Proxy,
		Catalog:  svc.Catalog,
	}
}
