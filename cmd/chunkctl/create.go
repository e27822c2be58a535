package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/chunkworks/chunkd/internal/client"
)

// chunkContent returns the chunk content from the positional arg, --file, or
// stdin ("-"). Exactly one source must be used.
func chunkContent(cmd *cobra.Command, args []string, argIndex int) (string, error) {
	file, _ := cmd.Flags().GetString("file")

	if file != "" {
		if len(args) > argIndex {
			return "", fmt.Errorf("content given both as argument and --file")
		}
		if file == "-" {
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				return "", fmt.Errorf("reading stdin: %w", err)
			}
			return string(data), nil
		}
		data, err := os.ReadFile(file)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	if len(args) <= argIndex {
		return "", fmt.Errorf("content required (argument or --file)")
	}
	return args[argIndex], nil
}

var createCmd = &cobra.Command{
	Use:     "create <key> [content]",
	Short:   "Create a new global chunk",
	GroupID: "chunks",
	Args:    cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]

		content, err := chunkContent(cmd, args, 1)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		chunk, err := chunkClient.CreateChunk(context.Background(), &client.CreateChunkRequest{
			Key:       key,
			Content:   content,
			CreatedBy: actor,
		})
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
	createCmd.Flags().StringP("file", "f", "", "read content from file (- for stdin)")
}
