package main

import "testing"

func TestSSEField(t *testing.T) {
	for _, tc := range []struct {
		line   string
		name   string
		want   string
		wantOK bool
	}{
		{"id:5", "id", "5", true},
		{"id: 5", "id", "5", true},
		{"event:chunks.chunk.created", "event", "chunks.chunk.created", true},
		{"data: {\"key\":\"footer\"}", "data", `{"key":"footer"}`, true},
		{"data:  two spaces", "data", " two spaces", true},
		{"id:5", "event", "", false},
		{": comment line", "id", "", false},
		{"", "data", "", false},
	} {
		got, ok := sseField(tc.line, tc.name)
		if ok != tc.wantOK || got != tc.want {
			t.Errorf("sseField(%q, %q) = %q, %v; want %q, %v", tc.line, tc.name, got, ok, tc.want, tc.wantOK)
		}
	}
}
