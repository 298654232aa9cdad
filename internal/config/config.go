package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/DebjyotiRay/orchids-challenge/internal/stages"
)

// Config holds service-level settings loaded from clone.yml.
type Config struct {
	ListenAddr        string          `yaml:"listenAddr,omitempty"`
	OutputDir         string          `yaml:"outputDir,omitempty"`
	MaxConcurrentRuns int             `yaml:"maxConcurrentRuns,omitempty"`
	QualityThreshold  float64         `yaml:"qualityThreshold,omitempty"`
	CaptureScreenshot bool            `yaml:"captureScreenshot,omitempty"`
	Verbose           bool            `yaml:"verbose,omitempty"`
	Stages            []stages.Config `yaml:"stages,omitempty"`
}

// Defaults fills in zero-valued fields.
func (c *Config) Defaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = ":8080"
	}
	if c.OutputDir == "" {
		c.OutputDir = "generated"
	}
	if c.MaxConcurrentRuns == 0 {
		c.MaxConcurrentRuns = 4
	}
	if c.QualityThreshold == 0 {
		c.QualityThreshold = 90
	}
	if len(c.Stages) == 0 {
		c.Stages = stages.DefaultConfigs()
	}
}

// Load attempts to read clone.yml or clone.yaml from the given
// directory. Returns a defaulted config (not an error) if no config
// file exists.
func Load(dir string) (*Config, error) {
	var cfg Config
	for _, name := range []string{"clone.yml", "clone.yaml"} {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
		break
	}
	cfg.Defaults()
	return &cfg, nil
}
