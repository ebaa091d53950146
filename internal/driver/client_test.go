package driver

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHealthCheck(t *testing.T) {
	t.Run("healthy driver", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/health-check" {
				t.Errorf("unexpected path: %s", r.URL.Path)
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		c := NewClient(srv.URL)
		if err := c.HealthCheck(context.Background()); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("unhealthy driver", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		c := NewClient(srv.URL)
		err := c.HealthCheck(context.Background())
		if !errors.Is(err, ErrUnhealthy) {
			t.Errorf("expected ErrUnhealthy, got %v", err)
		}
	})

	t.Run("unreachable driver", func(t *testing.T) {
		c := NewClient("http://127.0.0.1:1")
		err := c.HealthCheck(context.Background())
		if !errors.Is(err, ErrUnhealthy) {
			t.Errorf("expected ErrUnhealthy, got %v", err)
		}
	})
}

func TestClientCommands(t *testing.T) {
	var (
		gotPath string
		gotBody map[string]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotBody = nil
		if r.Method == http.MethodPost {
			_ = json.NewDecoder(r.Body).Decode(&gotBody)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL + "/")
	ctx := context.Background()

	t.Run("navigate", func(t *testing.T) {
		if err := c.Navigate(ctx, "https://example.com"); err != nil {
			t.Fatalf("navigate failed: %v", err)
		}
		if gotPath != "/navigate" {
			t.Errorf("unexpected path: %s", gotPath)
		}
		if gotBody["url"] != "https://example.com" {
			t.Errorf("unexpected body: %v", gotBody)
		}
	})

	t.Run("click", func(t *testing.T) {
		if err := c.Click(ctx, "#submit"); err != nil {
			t.Fatalf("click failed: %v", err)
		}
		if gotPath != "/click" || gotBody["selector"] != "#submit" {
			t.Errorf("unexpected request: %s %v", gotPath, gotBody)
		}
	})

	t.Run("type sends delay in milliseconds", func(t *testing.T) {
		if err := c.Type(ctx, "input", "hello", 100*time.Millisecond); err != nil {
			t.Fatalf("type failed: %v", err)
		}
		if gotPath != "/type" {
			t.Errorf("unexpected path: %s", gotPath)
		}
		if gotBody["delay_ms"] != float64(100) {
			t.Errorf("unexpected delay: %v", gotBody["delay_ms"])
		}
	})

	t.Run("press and hold sends hold in milliseconds", func(t *testing.T) {
		if err := c.PressAndHold(ctx, "text=Press & Hold", 5*time.Second); err != nil {
			t.Fatalf("press-hold failed: %v", err)
		}
		if gotPath != "/press-hold" {
			t.Errorf("unexpected path: %s", gotPath)
		}
		if gotBody["hold_ms"] != float64(5000) {
			t.Errorf("unexpected hold: %v", gotBody["hold_ms"])
		}
	})
}

func TestClientQueries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/text":
			json.NewEncoder(w).Encode(map[string]string{"text": "42 images"})
		case "/value":
			json.NewEncoder(w).Encode(map[string]string{"value": "My title"})
		case "/count":
			json.NewEncoder(w).Encode(map[string]int{"count": 7})
		case "/visible":
			json.NewEncoder(w).Encode(map[string]bool{"visible": true})
		case "/location":
			json.NewEncoder(w).Encode(map[string]string{"url": "https://example.com/upload"})
		case "/screenshot":
			data := base64.StdEncoding.EncodeToString([]byte("png-bytes"))
			json.NewEncoder(w).Encode(map[string]string{"data": data})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	ctx := context.Background()

	if text, err := c.Text(ctx, "span"); err != nil || text != "42 images" {
		t.Errorf("text: got %q, %v", text, err)
	}
	if value, err := c.Value(ctx, "input"); err != nil || value != "My title" {
		t.Errorf("value: got %q, %v", value, err)
	}
	if count, err := c.Count(ctx, "div"); err != nil || count != 7 {
		t.Errorf("count: got %d, %v", count, err)
	}
	if visible, err := c.Visible(ctx, "button"); err != nil || !visible {
		t.Errorf("visible: got %v, %v", visible, err)
	}
	if loc, err := c.Location(ctx); err != nil || loc != "https://example.com/upload" {
		t.Errorf("location: got %q, %v", loc, err)
	}
	if img, err := c.Screenshot(ctx, "img"); err != nil || string(img) != "png-bytes" {
		t.Errorf("screenshot: got %q, %v", img, err)
	}
}

func TestClientErrorResponses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"element not found: #missing"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	err := c.Click(context.Background(), "#missing")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "element not found: #missing") {
		t.Errorf("expected server error surfaced, got %v", err)
	}
}
