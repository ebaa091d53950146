// Package enhance produces the final title and description for an item from
// its raw metadata, the run configuration, and an optional AI analysis
// result. All functions are pure apart from template phrase selection.
package enhance

import (
	"strings"

	"github.com/jackzampolin/stockpilot/internal/run"
)

// MaxTitleLength is the portal's title length limit.
const MaxTitleLength = 115

// Input is the raw metadata read from the submission form.
type Input struct {
	Title       string
	Description string
}

// AIResult is a best-effort title/description pair from image analysis.
// Either field may be empty when the analyzer could not produce it.
type AIResult struct {
	Title       string
	Description string
}

// Result is the final metadata to write back to the form.
type Result struct {
	Title       string
	Description string
}

// SanitizeTitle replaces colons (the portal rejects them in titles) and hard
// truncates to MaxTitleLength characters.
func SanitizeTitle(title string) string {
	if title == "" {
		return ""
	}
	sanitized := strings.ReplaceAll(title, ":", ",")
	runes := []rune(sanitized)
	if len(runes) > MaxTitleLength {
		sanitized = string(runes[:MaxTitleLength])
	}
	return sanitized
}

// Apply computes the final title and description.
//
// Description precedence: AI description when available, else the raw
// description. A template phrase (if selected) is appended next, then the
// manual suffix last. The title prefers the AI title, falls back to the raw
// title, and as a last resort derives from the enhanced description; the
// result is always sanitized.
func Apply(in Input, cfg run.Config, ai *AIResult) Result {
	desc := in.Description
	title := in.Title

	if ai != nil {
		if ai.Description != "" {
			desc = ai.Description
		}
		if ai.Title != "" {
			title = ai.Title
		}
	}

	if phrase := Phrase(cfg.Template); phrase != "" {
		desc += phrase
	}

	if suffix := strings.TrimSpace(cfg.ManualDescription); suffix != "" {
		if desc == "" {
			desc = suffix
		} else {
			desc = desc + " " + suffix
		}
	}

	if strings.TrimSpace(title) == "" {
		title = desc
	}

	return Result{
		Title:       SanitizeTitle(title),
		Description: desc,
	}
}
