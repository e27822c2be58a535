package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chunkworks/chunkd/internal/client"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Short:   "List global chunks",
	GroupID: "chunks",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		search, _ := cmd.Flags().GetString("search")
		sort, _ := cmd.Flags().GetString("sort")
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		resp, err := chunkClient.ListChunks(context.Background(), &client.ListChunksRequest{
			Search: search,
			Sort:   sort,
			Limit:  limit,
			Offset: offset,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if jsonOutput {
			printJSON(resp)
		} else {
			printChunkListTable(resp.Chunks, resp.Total)
		}
		return nil
	},
}

func init() {
	listCmd.Flags().StringP("search", "s", "", "filter by key or content substring")
	listCmd.Flags().String("sort", "", "sort order (key, created_at, updated_at)")
	listCmd.Flags().Int("limit", 50, "maximum number of chunks to return")
	listCmd.Flags().Int("offset", 0, "number of chunks to skip")
}
