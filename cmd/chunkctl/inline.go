package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chunkworks/chunkd/internal/client"
)

var inlineCmd = &cobra.Command{
	Use:     "inline <command>",
	Short:   "Manage inline chunks scoped to an owner",
	GroupID: "chunks",
}

var inlineCreateCmd = &cobra.Command{
	Use:   "create <owner> <key> [content]",
	Short: "Create an inline chunk for an owner",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		owner, err := parseOwner(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		key := args[1]

		content, err := chunkContent(cmd, args, 2)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		chunk, err := chunkClient.CreateInlineChunk(context.Background(), owner, &client.CreateChunkRequest{
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
			printInlineChunkTable(chunk)
		}
		return nil
	},
}

var inlineShowCmd = &cobra.Command{
	Use:   "show <owner> <key>",
	Short: "Show details of an inline chunk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		owner, err := parseOwner(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		chunk, err := chunkClient.GetInlineChunk(context.Background(), owner, args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if jsonOutput {
			printJSON(chunk)
		} else {
			printInlineChunkTable(chunk)
		}
		return nil
	},
}

var inlineListCmd = &cobra.Command{
	Use:   "list <owner>",
	Short: "List all inline chunks of an owner",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		owner, err := parseOwner(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		chunks, err := chunkClient.ListInlineChunks(context.Background(), owner)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if jsonOutput {
			printJSON(chunks)
		} else {
			printInlineChunkListTable(chunks)
		}
		return nil
	},
}

var inlineUpdateCmd = &cobra.Command{
	Use:   "update <owner> <key> [content]",
	Short: "Update the content of an inline chunk",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		owner, err := parseOwner(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		key := args[1]

		content, err := chunkContent(cmd, args, 2)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		chunk, err := chunkClient.UpdateInlineChunk(context.Background(), owner, key, content)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if jsonOutput {
			printJSON(chunk)
		} else {
			printInlineChunkTable(chunk)
		}
		return nil
	},
}

var inlineDeleteCmd = &cobra.Command{
	Use:   "delete <owner> <key>",
	Short: "Delete an inline chunk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		owner, err := parseOwner(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		key := args[1]

		if err := chunkClient.DeleteInlineChunk(context.Background(), owner, key); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if jsonOutput {
			printJSON(map[string]string{"deleted": key, "owner": owner.String()})
		} else {
			fmt.Printf("Deleted inline chunk %s of %s\n", key, owner)
		}
		return nil
	},
}

func init() {
	inlineCreateCmd.Flags().StringP("file", "f", "", "read content from file (- for stdin)")
	inlineUpdateCmd.Flags().StringP("file", "f", "", "read content from file (- for stdin)")

	inlineCmd.AddCommand(inlineCreateCmd)
	inlineCmd.AddCommand(inlineShowCmd)
	inlineCmd.AddCommand(inlineListCmd)
	inlineCmd.AddCommand(inlineUpdateCmd)
	inlineCmd.AddCommand(inlineDeleteCmd)
}
