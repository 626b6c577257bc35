// Package config loads run settings from defaults, an optional YAML file
// and MUTSPEC_* environment variables, in that order of precedence.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
	yaml "gopkg.in/yaml.v2"

	"github.com/aria-lang/mutspec-go/internal/kmer"
	"github.com/aria-lang/mutspec-go/internal/mutation"
	"github.com/aria-lang/mutspec-go/internal/mutpos"
	"github.com/aria-lang/mutspec-go/internal/probe"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "MUTSPEC"

// Config holds every tunable of a run.
type Config struct {
	Reference    string  `yaml:"reference" split_words:"true"`
	K            int     `yaml:"kmer" envconfig:"KMER"`
	Notation     string  `yaml:"notation" split_words:"true"`
	Format       string  `yaml:"format" split_words:"true"`
	MinDepth     int     `yaml:"min_depth" split_words:"true"`
	ClonalityMin float64 `yaml:"clonality_min" split_words:"true"`
	ClonalityMax float64 `yaml:"clonality_max" split_words:"true"`
	Sample       string  `yaml:"sample" split_words:"true"`
	// Region is "chrom" or "chrom:start-end", zero-based and end exclusive.
	Region string `yaml:"region" split_words:"true"`

	// Splits are "chrom:threshold" shorthands resolved against the probe
	// reference; SplitRules name both probes explicitly.
	Splits     []string          `yaml:"splits" split_words:"true"`
	SplitRules []probe.SplitRule `yaml:"split_rules" ignored:"true"`

	Host     string `yaml:"host" split_words:"true"`
	Port     int    `yaml:"port" split_words:"true"`
	LogLevel string `yaml:"log_level" split_words:"true"`
	Jobs     int    `yaml:"jobs" split_words:"true"`
}

// Default returns the settings used when nothing overrides them.
func Default() *Config {
	return &Config{
		K:            3,
		Notation:     mutation.Pyrimidine.String(),
		Format:       mutpos.Essigmann.String(),
		MinDepth:     100,
		ClonalityMin: 0,
		ClonalityMax: 1,
		Sample:       "JME",
		Host:         "localhost",
		Port:         8080,
		LogLevel:     "info",
		Jobs:         4,
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty) and the environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening config: %w", err)
		}
		defer f.Close()

		if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
			return nil, fmt.Errorf("decoding config %s: %w", path, err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}
	return cfg, nil
}

// Validate rejects settings that would only fail later, mid-run.
func (c *Config) Validate() error {
	if _, err := c.ParsedNotation(); err != nil {
		return err
	}
	if _, err := c.ParsedFormat(); err != nil {
		return err
	}
	if _, err := kmer.Mid.Resolve(c.K); err != nil {
		return err
	}
	if c.MinDepth < 0 {
		return fmt.Errorf("min_depth must be non-negative, got %d", c.MinDepth)
	}
	for _, b := range []float64{c.ClonalityMin, c.ClonalityMax} {
		if b < 0 || b > 1 {
			return fmt.Errorf("clonality bounds must lie in [0, 1], got %g", b)
		}
	}
	if _, err := c.ParsedRegion(); err != nil {
		return err
	}
	for _, s := range c.Splits {
		if _, _, err := probe.ParseSplit(s); err != nil {
			return err
		}
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.Jobs < 1 {
		return fmt.Errorf("jobs must be at least 1, got %d", c.Jobs)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParsedNotation returns Notation as a mutation.Notation.
func (c *Config) ParsedNotation() (mutation.Notation, error) {
	return mutation.ParseNotation(c.Notation)
}

// ParsedFormat returns Format as a mutpos.Format.
func (c *Config) ParsedFormat() (mutpos.Format, error) {
	return mutpos.ParseFormat(c.Format)
}

// ParsedRegion returns Region as a mutpos.Region. An empty Region admits
// every position.
func (c *Config) ParsedRegion() (mutpos.Region, error) {
	if c.Region == "" {
		return mutpos.Region{}, nil
	}
	if !strings.Contains(c.Region, ":") {
		return mutpos.Region{Chrom: c.Region}, nil
	}
	p, err := probe.ParseLabel(c.Region)
	if err != nil {
		return mutpos.Region{}, fmt.Errorf("region: %w", err)
	}
	return mutpos.Region{Chrom: p.Chrom, Start: p.Start, End: p.End}, nil
}

// Filter returns the mutpos filter described by c.
func (c *Config) Filter() (mutpos.Filter, error) {
	region, err := c.ParsedRegion()
	if err != nil {
		return mutpos.Filter{}, err
	}
	return mutpos.Filter{
		MinDepth:  c.MinDepth,
		Clonality: [2]float64{c.ClonalityMin, c.ClonalityMax},
		Region:    region,
	}, nil
}

// ParseOptions returns mutpos options for c. Validate should have passed.
func (c *Config) ParseOptions(logger logrus.FieldLogger) (mutpos.Options, error) {
	n, err := c.ParsedNotation()
	if err != nil {
		return mutpos.Options{}, err
	}
	f, err := c.ParsedFormat()
	if err != nil {
		return mutpos.Options{}, err
	}
	filter, err := c.Filter()
	if err != nil {
		return mutpos.Options{}, err
	}
	return mutpos.Options{
		Format:   f,
		Notation: n,
		K:        c.K,
		Filter:   filter,
		Logger:   logger,
	}, nil
}

// ProbeMap returns m with every configured split applied.
func (c *Config) ProbeMap(m *probe.Map) (*probe.Map, error) {
	rules := append([]probe.SplitRule(nil), c.SplitRules...)
	for _, s := range c.Splits {
		chrom, threshold, err := probe.ParseSplit(s)
		if err != nil {
			return nil, err
		}
		r, err := probe.SplitAt(m, chrom, threshold)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	if len(rules) == 0 {
		return m, nil
	}
	return m.WithRules(rules...)
}
