package cmd

import (
	"github.com/spf13/cobra"
	mcpserver "github.com/wesm/rosterview/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run MCP server for AI assistant integration",
	Long: `Start an MCP (Model Context Protocol) server over stdio.

This allows any MCP client to query the roster using the query_records,
get_record, get_stats and reload_records tools.

Add to an MCP client config:
  {
    "mcpServers": {
      "rosterview": {
        "command": "rosterview",
        "args": ["mcp"]
      }
    }
  }`,
	RunE: func(cmd *cobra.Command, args []string) error {
		provider, closeProvider, err := openProvider(cfg)
		if err != nil {
			return err
		}
		defer closeProvider()

		vopts, err := viewOptions(cfg)
		if err != nil {
			return err
		}
		return mcpserver.Serve(cmd.Context(), provider, mcpserver.Options{
			PageSize: vopts.PageSize,
			Mode:     vopts.Mode,
			Logger:   logger,
		})
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
