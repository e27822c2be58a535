package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var aggregateCmd = &cobra.Command{
	Use:     "aggregate <owner>",
	Short:   "Resolve all inline chunks of an owner at once",
	GroupID: "chunks",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		owner, err := parseOwner(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		chunks, err := chunkClient.Aggregate(context.Background(), owner)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if jsonOutput {
			printJSON(chunks)
			return nil
		}

		keys := make([]string, 0, len(chunks))
		for k := range chunks {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "KEY\tTEXT")
		for _, k := range keys {
			fmt.Fprintf(w, "%s\t%s\n", k, truncate(chunks[k], 70))
		}
		w.Flush()
		return nil
	},
}
