package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var resolveCmd = &cobra.Command{
	Use:     "resolve <key>",
	Short:   "Resolve a chunk to its rendered text",
	GroupID: "chunks",
	Long: `Resolve a chunk to its rendered text.

Without --owner the key is looked up among global chunks. With --owner the
owner's inline chunks are consulted first, then global chunks, then the
--default key as a global fallback. A missing chunk resolves to empty text.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]
		ttl, _ := cmd.Flags().GetInt("ttl")
		ownerArg, _ := cmd.Flags().GetString("owner")
		defaultKey, _ := cmd.Flags().GetString("default")

		var text string
		var err error
		if ownerArg != "" {
			owner, perr := parseOwner(ownerArg)
			if perr != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", perr)
				os.Exit(1)
			}
			text, err = chunkClient.ResolveInlineChunk(context.Background(), owner, key, ttl, defaultKey)
		} else {
			if defaultKey != "" {
				fmt.Fprintln(os.Stderr, "Error: --default requires --owner")
				os.Exit(1)
			}
			text, err = chunkClient.ResolveChunk(context.Background(), key, ttl)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if jsonOutput {
			printJSON(map[string]string{"text": text})
		} else {
			fmt.Println(text)
		}
		return nil
	},
}

func init() {
	resolveCmd.Flags().Int("ttl", 0, "cache TTL in seconds (0 skips the cache write)")
	resolveCmd.Flags().String("owner", "", "owner reference (type:id) for inline resolution")
	resolveCmd.Flags().String("default", "", "fallback global key when nothing resolves")
}
