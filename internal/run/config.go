package run

import "fmt"

// Template selects which phrase set (if any) is appended to descriptions.
type Template string

const (
	TemplateNone Template = "none"
	TemplateOne  Template = "template1"
	TemplateTwo  Template = "template2"
)

// SpeedProfile selects the inter-item delay range.
type SpeedProfile string

const (
	SpeedFast SpeedProfile = "fast"
	SpeedSlow SpeedProfile = "slow"
)

// DuplicatePolicy controls behavior when an already-processed item recurs.
type DuplicatePolicy string

const (
	DuplicateSkip DuplicatePolicy = "skip"
	DuplicateStop DuplicatePolicy = "stop"
)

// Config is the immutable configuration for a single run.
// Zero values are filled by ApplyDefaults before validation.
type Config struct {
	Template          Template        `json:"template" yaml:"template"`
	ManualDescription string          `json:"manual_description,omitempty" yaml:"manual_description"`
	AIGenerated       bool            `json:"ai_generated" yaml:"ai_generated"`
	ModelRelease      bool            `json:"model_release" yaml:"model_release"`
	Exclusive         bool            `json:"exclusive" yaml:"exclusive"`
	Speed             SpeedProfile    `json:"speed" yaml:"speed"`
	TargetCount       int             `json:"target_count" yaml:"target_count"`
	PauseEvery        int             `json:"pause_every" yaml:"pause_every"`
	PauseSeconds      int             `json:"pause_seconds" yaml:"pause_seconds"`
	OnDuplicate       DuplicatePolicy `json:"on_duplicate" yaml:"on_duplicate"`
}

// DefaultConfig returns the run configuration used when a start request
// omits fields.
func DefaultConfig() Config {
	return Config{
		Template:     TemplateOne,
		Speed:        SpeedFast,
		TargetCount:  999,
		PauseEvery:   0,
		PauseSeconds: 60,
		OnDuplicate:  DuplicateSkip,
	}
}

// ApplyDefaults fills unset fields from DefaultConfig.
func (c *Config) ApplyDefaults() {
	d := DefaultConfig()
	if c.Template == "" {
		c.Template = d.Template
	}
	if c.Speed == "" {
		c.Speed = d.Speed
	}
	if c.TargetCount == 0 {
		c.TargetCount = d.TargetCount
	}
	if c.PauseSeconds == 0 {
		c.PauseSeconds = d.PauseSeconds
	}
	if c.OnDuplicate == "" {
		c.OnDuplicate = d.OnDuplicate
	}
}

// Validate checks the configuration for values the orchestrator cannot run with.
func (c Config) Validate() error {
	switch c.Template {
	case TemplateNone, TemplateOne, TemplateTwo:
	default:
		return fmt.Errorf("unknown template %q", c.Template)
	}
	switch c.Speed {
	case SpeedFast, SpeedSlow:
	default:
		return fmt.Errorf("unknown speed profile %q", c.Speed)
	}
	switch c.OnDuplicate {
	case DuplicateSkip, DuplicateStop:
	default:
		return fmt.Errorf("unknown duplicate policy %q", c.OnDuplicate)
	}
	if c.TargetCount <= 0 {
		return fmt.Errorf("target_count must be positive, got %d", c.TargetCount)
	}
	if c.PauseEvery < 0 {
		return fmt.Errorf("pause_every must be non-negative, got %d", c.PauseEvery)
	}
	if c.PauseSeconds <= 0 {
		return fmt.Errorf("pause_seconds must be positive, got %d", c.PauseSeconds)
	}
	return nil
}
