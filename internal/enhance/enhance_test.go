package enhance

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/jackzampolin/stockpilot/internal/run"
)

func TestSanitizeTitle(t *testing.T) {
	t.Run("replaces colons with commas", func(t *testing.T) {
		got := SanitizeTitle("Sunset: golden hour: beach")
		if strings.Contains(got, ":") {
			t.Errorf("expected no colons, got %q", got)
		}
		if got != "Sunset, golden hour, beach" {
			t.Errorf("unexpected result: %q", got)
		}
	})

	t.Run("truncates to max length", func(t *testing.T) {
		long := strings.Repeat("a", 300)
		got := SanitizeTitle(long)
		if utf8.RuneCountInString(got) != MaxTitleLength {
			t.Errorf("expected %d runes, got %d", MaxTitleLength, utf8.RuneCountInString(got))
		}
	})

	t.Run("counts runes not bytes", func(t *testing.T) {
		long := strings.Repeat("é", 200)
		got := SanitizeTitle(long)
		if utf8.RuneCountInString(got) != MaxTitleLength {
			t.Errorf("expected %d runes, got %d", MaxTitleLength, utf8.RuneCountInString(got))
		}
	})

	t.Run("short titles pass through", func(t *testing.T) {
		if got := SanitizeTitle("A calm lake"); got != "A calm lake" {
			t.Errorf("unexpected result: %q", got)
		}
	})
}

func TestApply(t *testing.T) {
	base := Input{Title: "Mountain trail", Description: "A trail in the Alps"}

	t.Run("no template keeps original", func(t *testing.T) {
		cfg := run.Config{Template: run.TemplateNone}
		res := Apply(base, cfg, nil)
		if res.Title != "Mountain trail" {
			t.Errorf("unexpected title: %q", res.Title)
		}
		if res.Description != "A trail in the Alps" {
			t.Errorf("unexpected description: %q", res.Description)
		}
	})

	t.Run("template appends a phrase", func(t *testing.T) {
		cfg := run.Config{Template: run.TemplateOne}
		res := Apply(base, cfg, nil)
		if !strings.HasPrefix(res.Description, "A trail in the Alps, ") {
			t.Errorf("expected phrase appended after comma, got %q", res.Description)
		}
		if len(res.Description) <= len(base.Description) {
			t.Error("expected description to grow")
		}
	})

	t.Run("manual suffix is appended last", func(t *testing.T) {
		cfg := run.Config{Template: run.TemplateNone, ManualDescription: "shot on film"}
		res := Apply(base, cfg, nil)
		if !strings.HasSuffix(res.Description, "shot on film") {
			t.Errorf("expected manual suffix, got %q", res.Description)
		}
	})

	t.Run("ai result wins over empty fields", func(t *testing.T) {
		cfg := run.Config{Template: run.TemplateNone}
		ai := &AIResult{Title: "Generated title", Description: "Generated description"}
		res := Apply(Input{}, cfg, ai)
		if res.Title != "Generated title" {
			t.Errorf("unexpected title: %q", res.Title)
		}
		if res.Description != "Generated description" {
			t.Errorf("unexpected description: %q", res.Description)
		}
	})

	t.Run("partial ai result falls back per field", func(t *testing.T) {
		cfg := run.Config{Template: run.TemplateNone}
		ai := &AIResult{Description: "Generated description"}
		res := Apply(base, cfg, ai)
		if res.Title != "Mountain trail" {
			t.Errorf("expected original title kept, got %q", res.Title)
		}
		if res.Description != "Generated description" {
			t.Errorf("unexpected description: %q", res.Description)
		}
	})

	t.Run("empty title derived from description", func(t *testing.T) {
		cfg := run.Config{Template: run.TemplateNone}
		res := Apply(Input{Description: "A foggy morning near the pier"}, cfg, nil)
		if res.Title == "" {
			t.Error("expected title derived from description")
		}
	})

	t.Run("final title never exceeds limit or contains colons", func(t *testing.T) {
		cfg := run.Config{Template: run.TemplateTwo, ManualDescription: "extra: context"}
		in := Input{Title: strings.Repeat("Sunset: over the bay ", 20), Description: "desc"}
		res := Apply(in, cfg, nil)
		if utf8.RuneCountInString(res.Title) > MaxTitleLength {
			t.Errorf("title too long: %d runes", utf8.RuneCountInString(res.Title))
		}
		if strings.Contains(res.Title, ":") {
			t.Errorf("title contains colon: %q", res.Title)
		}
	})
}

func TestPhrase(t *testing.T) {
	t.Run("unknown template yields nothing", func(t *testing.T) {
		if got := Phrase(run.TemplateNone); got != "" {
			t.Errorf("expected empty phrase, got %q", got)
		}
	})

	t.Run("phrases start with comma separator", func(t *testing.T) {
		for i := 0; i < 20; i++ {
			for _, tmpl := range []run.Template{run.TemplateOne, run.TemplateTwo} {
				p := Phrase(tmpl)
				if !strings.HasPrefix(p, ", ") {
					t.Fatalf("phrase %q does not start with comma separator", p)
				}
			}
		}
	})

	t.Run("template sets hold forty phrases each", func(t *testing.T) {
		if len(templateOne) != 40 {
			t.Errorf("templateOne has %d phrases", len(templateOne))
		}
		if len(templateTwo) != 40 {
			t.Errorf("templateTwo has %d phrases", len(templateTwo))
		}
	})
}
