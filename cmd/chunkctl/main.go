// chunkctl is the CLI client for the chunkd service.
package main

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chunkworks/chunkd/internal/client"
	"github.com/chunkworks/chunkd/internal/model"
)

var (
	serverURL  string
	authToken  string
	jsonOutput bool
	actor      string

	chunkClient client.ChunkClient
)

func defaultActor() string {
	out, err := exec.Command("git", "config", "user.name").Output()
	if err == nil {
		name := strings.TrimSpace(string(out))
		if name != "" {
			return name
		}
	}
	return "unknown"
}

func defaultServerURL() string {
	if s := os.Getenv("CHUNKD_URL"); s != "" {
		return s
	}
	if u := activeRemoteURL(); u != "" {
		return u
	}
	return "http://localhost:8084"
}

func defaultAuthToken() string {
	// CHUNKD_AUTH_TOKEN matches the daemon; CHUNKD_TOKEN is accepted too.
	if s := os.Getenv("CHUNKD_AUTH_TOKEN"); s != "" {
		return s
	}
	if s := os.Getenv("CHUNKD_TOKEN"); s != "" {
		return s
	}
	return activeRemoteToken()
}

// parseOwner parses a "type:id" owner reference.
func parseOwner(s string) (model.OwnerRef, error) {
	typ, id, ok := strings.Cut(s, ":")
	if !ok || typ == "" || id == "" {
		return model.OwnerRef{}, fmt.Errorf("owner must be in type:id form, got %q", s)
	}
	owner := model.OwnerRef{Type: typ, ID: id}
	if err := model.ValidateOwnerRef(owner); err != nil {
		return model.OwnerRef{}, err
	}
	return owner, nil
}

var rootCmd = &cobra.Command{
	Use:   "chunkctl <command>",
	Short: "CLI client for the chunkd service",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		chunkClient = client.NewHTTPClient(serverURL, authToken)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if chunkClient != nil {
			chunkClient.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "url", defaultServerURL(), "chunkd server URL")
	rootCmd.PersistentFlags().StringVar(&authToken, "token", defaultAuthToken(), "bearer token for authentication")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().StringVar(&actor, "actor", defaultActor(), "actor name for created_by fields")

	rootCmd.AddGroup(
		&cobra.Group{ID: "chunks", Title: "Chunks:"},
		&cobra.Group{ID: "pages", Title: "Pages:"},
		&cobra.Group{ID: "system", Title: "System:"},
	)

	cobra.EnableCommandSorting = false
	rootCmd.SetHelpFunc(colorizedHelpFunc())

	// Chunks
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(inlineCmd)
	rootCmd.AddCommand(aggregateCmd)
	rootCmd.AddCommand(eventsCmd)

	// Pages
	rootCmd.AddCommand(renderCmd)

	// System
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(remoteCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
