package stages

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/DebjyotiRay/orchids-challenge/internal/workflow"
)

// Config describes one stage to build: its type, display name, and
// execution policy. MaxRetries is a pointer so that an explicit zero
// retry budget stays distinct from "unset"; nil and a zero Timeout take
// the defaults below.
type Config struct {
	Type       workflow.StageType `yaml:"type"`
	Name       string             `yaml:"name"`
	MaxRetries *int               `yaml:"maxRetries,omitempty"`
	Timeout    time.Duration      `yaml:"timeout,omitempty"`
}

const (
	defaultMaxRetries = 3
	defaultTimeout    = 60 * time.Second
)

// UnmarshalYAML decodes a stage config, accepting timeouts in
// time.ParseDuration notation ("30s", "2m").
func (c *Config) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Type       workflow.StageType `yaml:"type"`
		Name       string             `yaml:"name"`
		MaxRetries *int               `yaml:"maxRetries"`
		Timeout    string             `yaml:"timeout"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	c.Type = raw.Type
	c.Name = raw.Name
	c.MaxRetries = raw.MaxRetries
	if raw.Timeout != "" {
		d, err := time.ParseDuration(raw.Timeout)
		if err != nil {
			return fmt.Errorf("stages: invalid timeout %q: %w", raw.Timeout, err)
		}
		c.Timeout = d
	}
	return nil
}

// Options carries the shared knobs stage constructors need.
type Options struct {
	CaptureScreenshot bool
	PassThreshold     float64
}

// Factory is a constructor for one stage type.
type Factory func(opts Options) workflow.Stage

// Registry maps stage types to their factories.
type Registry struct {
	factories map[workflow.StageType]Factory
}

// NewRegistry creates a Registry pre-registered with all six pipeline
// stages.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[workflow.StageType]Factory)}
	r.factories[workflow.StageScraper] = func(opts Options) workflow.Stage { return NewScraper(opts.CaptureScreenshot) }
	r.factories[workflow.StageParser] = func(Options) workflow.Stage { return NewParser() }
	r.factories[workflow.StageStyle] = func(Options) workflow.Stage { return NewStyleExtractor() }
	r.factories[workflow.StageLayout] = func(Options) workflow.Stage { return NewLayoutGenerator() }
	r.factories[workflow.StageSynthesizer] = func(Options) workflow.Stage { return NewSynthesizer() }
	r.factories[workflow.StageValidation] = func(opts Options) workflow.Stage { return NewValidator(opts.PassThreshold) }
	return r
}

// Register adds or replaces the factory for a stage type.
func (r *Registry) Register(t workflow.StageType, f Factory) {
	r.factories[t] = f
}

// Build creates stage descriptors from the given configs in order.
// Stage ids are assigned here from the type and one-based position.
func (r *Registry) Build(configs []Config, opts Options) ([]workflow.StageDescriptor, error) {
	descriptors := make([]workflow.StageDescriptor, 0, len(configs))
	for i, cfg := range configs {
		factory, ok := r.factories[cfg.Type]
		if !ok {
			return nil, fmt.Errorf("stages: unknown stage type %q", cfg.Type)
		}

		retries := defaultMaxRetries
		if cfg.MaxRetries != nil {
			if *cfg.MaxRetries < 0 {
				return nil, fmt.Errorf("stages: negative maxRetries %d for %q", *cfg.MaxRetries, cfg.Type)
			}
			retries = *cfg.MaxRetries
		}
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = defaultTimeout
		}
		name := cfg.Name
		if name == "" {
			name = string(cfg.Type)
		}

		descriptors = append(descriptors, workflow.StageDescriptor{
			ID:         workflow.MakeStageID(cfg.Type, i+1),
			Type:       cfg.Type,
			Name:       name,
			MaxRetries: retries,
			Timeout:    timeout,
			Stage:      factory(opts),
		})
	}
	return descriptors, nil
}

// DefaultConfigs returns the standard six-stage pipeline in execution
// order.
func DefaultConfigs() []Config {
	return []Config{
		{Type: workflow.StageScraper, Name: "ScrapeWebsite"},
		{Type: workflow.StageParser, Name: "ParseStructure"},
		{Type: workflow.StageStyle, Name: "GenerateDesignSystem"},
		{Type: workflow.StageLayout, Name: "GenerateLayout"},
		{Type: workflow.StageSynthesizer, Name: "GenerateComponents"},
		{Type: workflow.StageValidation, Name: "ValidateWebsite"},
	}
}
