// Package config defines the run configuration of the graph command. A Config
// is built once from flags and an optional YAML file, validated, and passed
// explicitly to the pipeline.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/surveygraph/graph/internal/fetch"
	"github.com/surveygraph/graph/internal/render"
	"github.com/surveygraph/graph/internal/survey"
)

// DefaultSourceURL is the published CSV export of the survey responses.
const DefaultSourceURL = "https://docs.google.com/spreadsheets/d/e/2PACX-1vTOHDQBlfxZ9wKL5_80fPcM5uJcm6ftUSBSi1y9pvIONMtygAw_YtWWNWIdxZvndRy-0W-sU1dH3dLf/pub?gid=1668449075&single=true&output=csv"

// Config keys, shared by flags and the YAML file.
const (
	KeySourceURL    = "source_url"
	KeyDataFile     = "data_file"
	KeyOutputDir    = "output_dir"
	KeyQuestions    = "questions"
	KeyParallelism  = "parallelism"
	KeyHTTPTimeout  = "http_timeout"
	KeyRetryMax     = "retry.max_attempts"
	KeyRetryInitial = "retry.initial_delay"
	KeyRetryMaxWait = "retry.max_delay"
	KeyRetryFactor  = "retry.backoff_factor"
	KeyRetryJitter  = "retry.jitter"
)

// Config is the complete configuration of one run.
type Config struct {
	// URL of the CSV export to download when the data file is missing.
	SourceURL string `mapstructure:"source_url" yaml:"source_url" json:"source_url"`
	// Local cache of the CSV export. An existing file is used as is.
	DataFile string `mapstructure:"data_file" yaml:"data_file" json:"data_file"`
	// Directory receiving one chart per question.
	OutputDir string `mapstructure:"output_dir" yaml:"output_dir" json:"output_dir"`
	// Question slugs to process; empty means the whole catalog.
	Questions []string `mapstructure:"questions" yaml:"questions,omitempty" json:"questions,omitempty"`
	// Number of charts rendered at the same time.
	Parallelism int `mapstructure:"parallelism" yaml:"parallelism" json:"parallelism"`
	// Timeout of a single download attempt.
	HTTPTimeout time.Duration `mapstructure:"http_timeout" yaml:"http_timeout" json:"http_timeout"`
	// Download retry policy.
	Retry fetch.RetryConfig `mapstructure:"retry" yaml:"retry" json:"retry"`

	// ChartType comes from the command line only.
	ChartType render.ChartType `mapstructure:"-" yaml:"-" json:"-"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		SourceURL:   DefaultSourceURL,
		DataFile:    "data.csv",
		OutputDir:   "build",
		Parallelism: 1,
		HTTPTimeout: 30 * time.Second,
		Retry:       fetch.DefaultRetryConfig(),
	}
}

// SetDefaults registers the values of Default on v.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault(KeySourceURL, d.SourceURL)
	v.SetDefault(KeyDataFile, d.DataFile)
	v.SetDefault(KeyOutputDir, d.OutputDir)
	v.SetDefault(KeyQuestions, []string{})
	v.SetDefault(KeyParallelism, d.Parallelism)
	v.SetDefault(KeyHTTPTimeout, d.HTTPTimeout)
	v.SetDefault(KeyRetryMax, d.Retry.MaxAttempts)
	v.SetDefault(KeyRetryInitial, d.Retry.InitialDelay)
	v.SetDefault(KeyRetryMaxWait, d.Retry.MaxDelay)
	v.SetDefault(KeyRetryFactor, d.Retry.BackoffFactor)
	v.SetDefault(KeyRetryJitter, d.Retry.Jitter)
}

// Load reads an optional YAML file into v and decodes the result. An empty
// file path means flags and defaults only.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", file, err)
		}
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	cfg.Questions = splitList(cfg.Questions)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.SourceURL) == "" {
		errs = append(errs, errors.New("source_url must not be empty"))
	}
	if strings.TrimSpace(c.DataFile) == "" {
		errs = append(errs, errors.New("data_file must not be empty"))
	}
	if strings.TrimSpace(c.OutputDir) == "" {
		errs = append(errs, errors.New("output_dir must not be empty"))
	}
	if c.Parallelism < 1 {
		errs = append(errs, fmt.Errorf("parallelism must be at least 1, got %d", c.Parallelism))
	}
	if c.HTTPTimeout <= 0 {
		errs = append(errs, fmt.Errorf("http_timeout must be positive, got %s", c.HTTPTimeout))
	}
	if err := c.Retry.Validate(); err != nil {
		errs = append(errs, err)
	}
	if _, err := survey.Select(c.Questions); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// splitList accepts both repeated values and comma separated lists.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
