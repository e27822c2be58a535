package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var updateCmd = &cobra.Command{
	Use:     "update <key> [content]",
	Short:   "Update the content of a global chunk",
	GroupID: "chunks",
	Args:    cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]

		content, err := chunkContent(cmd, args, 1)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		chunk, err := chunkClient.UpdateChunk(context.Background(), key, content)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if jsonOutput {
			printJSON(chunk)
		} else {
			printChunkTable(chunk)
		}
		return nil
	},
}

func init() {
	updateCmd.Flags().StringP("file", "f", "", "read content from file (- for stdin)")
}
