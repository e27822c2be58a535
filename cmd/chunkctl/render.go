package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chunkworks/chunkd/internal/client"
	"github.com/chunkworks/chunkd/internal/model"
)

// parseOwnerBindings converts --owner name=type:id pairs into a binding map.
func parseOwnerBindings(pairs []string) (map[string]model.OwnerRef, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	owners := make(map[string]model.OwnerRef, len(pairs))
	for _, p := range pairs {
		name, ref, ok := strings.Cut(p, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid owner binding %q: expected name=type:id", p)
		}
		owner, err := parseOwner(ref)
		if err != nil {
			return nil, fmt.Errorf("invalid owner binding %q: %w", p, err)
		}
		owners[name] = owner
	}
	return owners, nil
}

// parseVars converts --var key=value pairs into template variables.
func parseVars(pairs []string) map[string]any {
	if len(pairs) == 0 {
		return nil
	}
	vars := make(map[string]any, len(pairs))
	for _, p := range pairs {
		k, v, _ := strings.Cut(p, "=")
		vars[k] = v
	}
	return vars
}

var renderCmd = &cobra.Command{
	Use:     "render [file]",
	Short:   "Render a page body with chunk directives",
	GroupID: "pages",
	Long: `Render a page body with chunk directives.

The body is read from the file argument, or from stdin when the argument is
omitted or "-". Owner bindings make page variables available to
{% object_chunk %} and {% object_chunks_list %} directives.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var body []byte
		var err error
		if len(args) == 0 || args[0] == "-" {
			body, err = io.ReadAll(os.Stdin)
		} else {
			body, err = os.ReadFile(args[0])
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		ownerPairs, _ := cmd.Flags().GetStringArray("owner")
		owners, err := parseOwnerBindings(ownerPairs)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		varPairs, _ := cmd.Flags().GetStringArray("var")

		output, err := chunkClient.RenderPage(context.Background(), &client.RenderPageRequest{
			Body:   string(body),
			Vars:   parseVars(varPairs),
			Owners: owners,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if jsonOutput {
			printJSON(map[string]string{"output": output})
		} else {
			fmt.Print(output)
			if !strings.HasSuffix(output, "\n") {
				fmt.Println()
			}
		}
		return nil
	},
}

func init() {
	renderCmd.Flags().StringArrayP("owner", "o", nil, "owner binding (name=type:id, repeatable)")
	renderCmd.Flags().StringArrayP("var", "v", nil, "template variable (key=value, repeatable)")
}
