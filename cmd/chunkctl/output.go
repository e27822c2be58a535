package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/chunkworks/chunkd/internal/model"
)

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling JSON: %v\n", err)
		return
	}
	fmt.Println(string(data))
}

func printChunkTable(chunk *model.Chunk) {
	fmt.Printf("Key:         %s\n", chunk.Key)
	fmt.Printf("Content:     %s\n", chunk.Content)
	if chunk.CreatedBy != "" {
		fmt.Printf("Created By:  %s\n", chunk.CreatedBy)
	}
	fmt.Printf("Created At:  %s\n", chunk.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Updated At:  %s\n", chunk.UpdatedAt.Format("2006-01-02 15:04:05"))
}

func printChunkListTable(chunks []*model.Chunk, total int) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tCONTENT\tUPDATED")
	for _, c := range chunks {
		fmt.Fprintf(w, "%s\t%s\t%s\n",
			c.Key,
			truncate(c.Content, 50),
			c.UpdatedAt.Format("2006-01-02 15:04"),
		)
	}
	w.Flush()
	fmt.Printf("\n%d chunks (%d total)\n", len(chunks), total)
}

func printInlineChunkTable(chunk *model.InlineChunk) {
	fmt.Printf("ID:          %s\n", chunk.ID)
	fmt.Printf("Owner:       %s:%s\n", chunk.OwnerType, chunk.OwnerID)
	fmt.Printf("Key:         %s\n", chunk.Key)
	fmt.Printf("Content:     %s\n", chunk.Content)
	if chunk.CreatedBy != "" {
		fmt.Printf("Created By:  %s\n", chunk.CreatedBy)
	}
	fmt.Printf("Created At:  %s\n", chunk.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Updated At:  %s\n", chunk.UpdatedAt.Format("2006-01-02 15:04:05"))
}

func printInlineChunkListTable(chunks []*model.InlineChunk) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tKEY\tCONTENT\tUPDATED")
	for _, c := range chunks {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			c.ID,
			c.Key,
			truncate(c.Content, 50),
			c.UpdatedAt.Format("2006-01-02 15:04"),
		)
	}
	w.Flush()
	fmt.Printf("\n%d inline chunks\n", len(chunks))
}

func printEventListTable(evs []*model.Event) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTOPIC\tKEY\tACTOR\tCREATED")
	for _, e := range evs {
		key := e.Key
		if e.OwnerType != "" {
			key = e.OwnerType + ":" + e.OwnerID + "/" + e.Key
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			e.ID,
			e.Topic,
			key,
			e.Actor,
			e.CreatedAt.Format("2006-01-02 15:04:05"),
		)
	}
	w.Flush()
	fmt.Printf("\n%d events\n", len(evs))
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max-3] + "..."
	}
	return s
}
