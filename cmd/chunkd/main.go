// chunkd is the chunk resolution daemon: it owns the Postgres store, the
// render cache, the HTTP API, and the background invalidation and snapshot
// workers.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "chunkd <command>",
	Short: "Chunk resolution and caching daemon",
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
