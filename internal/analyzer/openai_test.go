package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/jackzampolin/stockpilot/internal/enhance"
)

func TestParseResponse(t *testing.T) {
	t.Run("well-formed response", func(t *testing.T) {
		res, err := parseResponse("TITLE: Golden retriever on a beach\nDESCRIPTION: A happy dog running along the shore at sunset.")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Title != "Golden retriever on a beach" {
			t.Errorf("unexpected title: %q", res.Title)
		}
		if res.Description != "A happy dog running along the shore at sunset." {
			t.Errorf("unexpected description: %q", res.Description)
		}
	})

	t.Run("case-insensitive labels with quotes", func(t *testing.T) {
		res, err := parseResponse(`title: "Misty forest at dawn"` + "\n" + `description: 'Fog drifting between pines.'`)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Title != "Misty forest at dawn" {
			t.Errorf("unexpected title: %q", res.Title)
		}
		if res.Description != "Fog drifting between pines." {
			t.Errorf("unexpected description: %q", res.Description)
		}
	})

	t.Run("overlong title is shortened", func(t *testing.T) {
		res, err := parseResponse("TITLE: " + strings.Repeat("a", 200) + "\nDESCRIPTION: Something.")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if utf8.RuneCountInString(res.Title) > enhance.MaxTitleLength {
			t.Errorf("title too long: %d runes", utf8.RuneCountInString(res.Title))
		}
		if !strings.HasSuffix(res.Title, "...") {
			t.Errorf("expected ellipsis suffix, got %q", res.Title)
		}
	})

	t.Run("missing labels", func(t *testing.T) {
		cases := []string{
			"",
			"The model rambled about the image instead.",
			"TITLE: Only a title",
			"DESCRIPTION: Only a description",
		}
		for _, text := range cases {
			if _, err := parseResponse(text); !errors.Is(err, ErrUnparseable) {
				t.Errorf("expected ErrUnparseable for %q, got %v", text, err)
			}
		}
	})
}

func TestAnalyze(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
				t.Errorf("unexpected path: %s", r.URL.Path)
			}
			var req map[string]any
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("failed to decode request: %v", err)
			}
			if req["model"] != "gpt-4o" {
				t.Errorf("unexpected model: %v", req["model"])
			}

			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{
				"id":     "chatcmpl-test",
				"object": "chat.completion",
				"choices": []map[string]any{
					{
						"index": 0,
						"message": map[string]any{
							"role":    "assistant",
							"content": "TITLE: Red tulip field\nDESCRIPTION: Rows of red tulips under a clear sky.",
						},
						"finish_reason": "stop",
					},
				},
			})
		}))
		defer srv.Close()

		c := New(Config{APIKey: "test-key", BaseURL: srv.URL})
		res, err := c.Analyze(context.Background(), []byte("png-bytes"))
		if err != nil {
			t.Fatalf("analyze failed: %v", err)
		}
		if res.Title != "Red tulip field" {
			t.Errorf("unexpected title: %q", res.Title)
		}
	})

	t.Run("unparseable content", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{
				"id":     "chatcmpl-test",
				"object": "chat.completion",
				"choices": []map[string]any{
					{
						"index": 0,
						"message": map[string]any{
							"role":    "assistant",
							"content": "I cannot help with that.",
						},
						"finish_reason": "stop",
					},
				},
			})
		}))
		defer srv.Close()

		c := New(Config{APIKey: "test-key", BaseURL: srv.URL})
		_, err := c.Analyze(context.Background(), []byte("png-bytes"))
		if !errors.Is(err, ErrUnparseable) {
			t.Errorf("expected ErrUnparseable, got %v", err)
		}
	})
}
