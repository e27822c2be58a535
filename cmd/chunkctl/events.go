package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chunkworks/chunkd/internal/model"
)

var eventsCmd = &cobra.Command{
	Use:     "events <key>",
	Short:   "Show the event history of a chunk",
	GroupID: "chunks",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]
		limit, _ := cmd.Flags().GetInt("limit")
		ownerArg, _ := cmd.Flags().GetString("owner")

		var evs []*model.Event
		var err error
		if ownerArg != "" {
			var owner model.OwnerRef
			owner, err = parseOwner(ownerArg)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			evs, err = chunkClient.InlineChunkEvents(context.Background(), owner, key, limit)
		} else {
			evs, err = chunkClient.ChunkEvents(context.Background(), key, limit)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if jsonOutput {
			printJSON(evs)
		} else {
			printEventListTable(evs)
		}
		return nil
	},
}

func init() {
	eventsCmd.Flags().Int("limit", 50, "maximum number of events to return")
	eventsCmd.Flags().String("owner", "", "owner reference (type:id) for inline chunk events")
}
