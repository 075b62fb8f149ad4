// Command tabledash serves the people table: a paginated, sortable,
// filterable view of a remote users API whose state lives in the URL.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/tabledash/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		errors.Fprint(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tabledash",
		Short: "A live, URL-synchronized data table",
		Long: `tabledash serves a table of people read from a remote users API.

Pagination, sorting, and filters are kept in the page URL, so every
view can be bookmarked, shared, and restored with the back button.
The table is rendered on the server and kept live over a WebSocket.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(
		serveCmd(),
		configCmd(),
		versionCmd(),
	)
	return cmd
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}
