// Package config is for app wide settings that are unmarshalled
// from Viper (see: /cmd)
package config

import (
	"runtime"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// FoldConfig is settings for the external RNA folding executable
type FoldConfig struct {
	// path to, or name on PATH of, the RNAfold executable
	Binary string `mapstructure:"binary"`

	// arguments passed to the folding executable. "-p" makes it emit the
	// pairing probability lines, "--noPS" disables its structure plots
	Args []string `mapstructure:"args"`

	// how often the result file is re-read to report progress
	PollInterval time.Duration `mapstructure:"poll-interval"`

	// how often the working directory is swept for plot byproducts
	SweepInterval time.Duration `mapstructure:"sweep-interval"`

	// how long the sweeper keeps running after the folding process exits
	Grace time.Duration `mapstructure:"grace"`

	// glob patterns, relative to the working directory, of files to sweep
	SweepPatterns []string `mapstructure:"sweep-patterns"`
}

// AnnotateConfig is settings for the external structure annotation executable
type AnnotateConfig struct {
	// path to the parse_secondary_structure executable
	Binary string `mapstructure:"binary"`

	// number of annotation processes run at once
	Workers int `mapstructure:"workers"`

	// whether a truncated trailing record in the fold result is an error
	Strict bool `mapstructure:"strict"`

	// directory for the annotation scratch files, os.TempDir() if empty
	TempDir string `mapstructure:"temp-dir"`
}

// DatasetConfig is settings for tensor store generation
type DatasetConfig struct {
	// the number of columns in every one-hot matrix
	MaxLength int `mapstructure:"max-length"`
}

// CatalogConfig is settings for the catalog of materialized stores
type CatalogConfig struct {
	// path to the sqlite catalog, disabled if empty
	Path string `mapstructure:"path"`
}

// LogConfig is settings for the logger
type LogConfig struct {
	// minimum level logged: debug, info, warn or error
	Level string `mapstructure:"level"`

	// human readable rather than JSON output
	Console bool `mapstructure:"console"`
}

// Config is the root-level settings struct and is a mix
// of settings available in music.yaml and those
// available from the command line
type Config struct {
	Fold     FoldConfig     `mapstructure:"fold"`
	Annotate AnnotateConfig `mapstructure:"annotate"`
	Dataset  DatasetConfig  `mapstructure:"dataset"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Log      LogConfig      `mapstructure:"log"`
}

// SetDefaults registers the default settings on v
func SetDefaults(v *viper.Viper) {
	workers := runtime.NumCPU() - 1
	if workers < 1 {
		workers = 1
	}

	v.SetDefault("fold.binary", "RNAfold")
	v.SetDefault("fold.args", []string{"-p", "--noPS"})
	v.SetDefault("fold.poll-interval", time.Second)
	v.SetDefault("fold.sweep-interval", 2*time.Second)
	v.SetDefault("fold.grace", 2*time.Second)
	v.SetDefault("fold.sweep-patterns", []string{"*.ps"})

	v.SetDefault("annotate.binary", "parse_secondary_structure_v2")
	v.SetDefault("annotate.workers", workers)
	v.SetDefault("annotate.strict", true)
	v.SetDefault("annotate.temp-dir", "")

	v.SetDefault("dataset.max-length", 200)

	v.SetDefault("catalog.path", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.console", true)
}

// New returns a new Config struct populated by
// Viper settings (either from the local music.yaml)
// and/or command line arguments
func New() (*Config, error) {
	return From(viper.GetViper())
}

// From unmarshals a Config out of v
func From(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, errors.Wrap(err, "unable to decode settings")
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) validate() error {
	switch {
	case c.Fold.Binary == "":
		return errors.New("fold.binary is empty")
	case c.Fold.PollInterval <= 0:
		return errors.Errorf("fold.poll-interval must be positive, got %v", c.Fold.PollInterval)
	case c.Fold.SweepInterval <= 0:
		return errors.Errorf("fold.sweep-interval must be positive, got %v", c.Fold.SweepInterval)
	case c.Fold.Grace < 0:
		return errors.Errorf("fold.grace is negative: %v", c.Fold.Grace)
	case c.Annotate.Binary == "":
		return errors.New("annotate.binary is empty")
	case c.Annotate.Workers < 1:
		return errors.Errorf("annotate.workers must be at least 1, got %d", c.Annotate.Workers)
	case c.Dataset.MaxLength < 1:
		return errors.Errorf("dataset.max-length must be at least 1, got %d", c.Dataset.MaxLength)
	}
	return nil
}
