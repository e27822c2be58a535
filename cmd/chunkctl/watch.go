package main

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

// sseField returns the value when line carries the named SSE field.
// Per the SSE spec a single space after the colon is not part of the value.
func sseField(line, name string) (string, bool) {
	v, ok := strings.CutPrefix(line, name+":")
	if !ok {
		return "", false
	}
	return strings.TrimPrefix(v, " "), true
}

var watchCmd = &cobra.Command{
	Use:     "watch",
	Short:   "Stream live chunk events from the server",
	GroupID: "system",
	Long: `Stream live chunk events from the server over SSE.

Events are printed as they arrive; press Ctrl-C to stop. Topic filters use
NATS-style wildcards, e.g. "chunks.chunk.*" or "chunks.>".`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		topics, _ := cmd.Flags().GetStringSlice("topics")

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		streamURL := strings.TrimRight(serverURL, "/") + "/v1/events/stream"
		if len(topics) > 0 {
			q := url.Values{}
			q.Set("topics", strings.Join(topics, ","))
			streamURL += "?" + q.Encode()
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, streamURL, nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		req.Header.Set("Accept", "text/event-stream")
		if authToken != "" {
			req.Header.Set("Authorization", "Bearer "+authToken)
		}

		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			fmt.Fprintf(os.Stderr, "Error: HTTP %d from event stream\n", resp.StatusCode)
			os.Exit(1)
		}

		fmt.Fprintf(os.Stderr, "Watching events from %s (Ctrl-C to stop)\n", serverURL)

		var id, topic string
		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Text()
			if v, ok := sseField(line, "id"); ok {
				id = v
			} else if v, ok := sseField(line, "event"); ok {
				topic = v
			} else if data, ok := sseField(line, "data"); ok {
				if jsonOutput {
					fmt.Printf(`{"id":%s,"topic":%q,"payload":%s}`+"\n", id, topic, data)
				} else {
					fmt.Printf("[%s] %s %s\n", time.Now().Format("15:04:05"), topic, data)
				}
			}
		}
		if err := scanner.Err(); err != nil && ctx.Err() == nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return nil
	},
}

func init() {
	watchCmd.Flags().StringSlice("topics", nil, "topic filters (comma separated, wildcards allowed)")
}
