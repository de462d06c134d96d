package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/s8r-framework/s8r"
	"github.com/s8r-framework/s8r/internal/cli"
	mcpAdapter "github.com/s8r-framework/s8r/pkg/adapters/mcp"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts the s8r framework as an MCP server, exposing read-only
introspection over components, machines and lifecycle states to AI agents.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	Run: func(cmd *cobra.Command, args []string) {
		configPath, _ := cmd.Flags().GetString("config")
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		fw, err := cli.Setup(configPath)
		if err != nil {
			log.Fatalf("Error initializing s8r: %v", err)
		}
		defer fw.Close()

		srv := mcpAdapter.NewServer(s8r.Version, fw.Components(), fw.Machines(), fw.DataFlow(),
			mcpAdapter.WithLogger(fw.Logger()))

		switch transport {
		case "stdio":
			// Ensure logs don't corrupt JSON-RPC on Stdout
			log.SetOutput(os.Stderr)
			fw.Logger().Info("starting MCP server (stdio)")
			if err := srv.ServeStdio(); err != nil {
				fw.Logger().Error("MCP server execution failed", "err", err)
				os.Exit(1)
			}
		case "sse":
			fw.Logger().Info("starting MCP server (SSE)", "port", port)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := srv.ServeSSE(ctx, port); err != nil && !errors.Is(err, http.ErrServerClosed) {
				fw.Logger().Error("MCP server execution failed", "err", err)
				os.Exit(1)
			}
			fw.Logger().Info("MCP server stopped gracefully")
		default:
			log.Fatalf("Unknown transport: %s. Supported: stdio, sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8081, "Port to listen on (only for SSE)")
}
