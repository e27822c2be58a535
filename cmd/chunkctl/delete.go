package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:     "delete <key>",
	Short:   "Delete a global chunk",
	GroupID: "chunks",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]

		if err := chunkClient.DeleteChunk(context.Background(), key); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if jsonOutput {
			printJSON(map[string]string{"deleted": key})
		} else {
			fmt.Printf("Deleted chunk %s\n", key)
		}
		return nil
	},
}
