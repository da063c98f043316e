package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

const (
	defaultListen = ":3100"

	defaultInferenceModel     = "llama3:8b"
	defaultEvaluatorModel     = "llama-guard3:8b"
	defaultInferenceMockModel = "inference-mock"
	defaultEvaluatorMockModel = "evaluator-mock"

	defaultRuntimeBaseURL = "http://localhost:11434"

	defaultLogPath       = "logs/adapter.log"
	defaultLogMaxBackups = 30
	defaultLogMaxSizeMB  = 100

	VariantLegacy = "legacy"
	VariantChat   = "chat"

	LogFormatText = "text"
	LogFormatJSON = "json"
)

type Config struct {
	Listen   string        `yaml:"listen"`
	Models   ModelIDs      `yaml:"models"`
	Variants RouteVariants `yaml:"variants"`
	Runtime  RuntimeParams `yaml:"runtime"`
	Log      LogParams     `yaml:"log"`
	History  HistoryParams `yaml:"history"`
}

// ModelIDs holds the concrete model identifiers each selector resolves to.
// The mock entries are sentinels that never reach the runtime.
type ModelIDs struct {
	Inference     string `yaml:"inference"`
	Evaluator     string `yaml:"evaluator"`
	InferenceMock string `yaml:"inference_mock"`
	EvaluatorMock string `yaml:"evaluator_mock"`
}

// RouteVariants picks the inbound body shape accepted by /inference and /evaluate.
type RouteVariants struct {
	Inference string `yaml:"inference"`
	Evaluate  string `yaml:"evaluate"`
}

type RuntimeParams struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type LogParams struct {
	Path       string `yaml:"path"`
	Format     string `yaml:"format"`
	Level      string `yaml:"level"`
	MaxBackups int    `yaml:"max_backups"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
}

type HistoryParams struct {
	DBPath string `yaml:"db_path"`
}

func Load(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(content)
}

func Parse(content []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(content))
	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

func (c *Config) ApplyDefaults() {
	setDefault(&c.Listen, defaultListen)

	setDefault(&c.Models.Inference, defaultInferenceModel)
	setDefault(&c.Models.Evaluator, defaultEvaluatorModel)
	setDefault(&c.Models.InferenceMock, defaultInferenceMockModel)
	setDefault(&c.Models.EvaluatorMock, defaultEvaluatorMockModel)

	setDefault(&c.Variants.Inference, VariantLegacy)
	setDefault(&c.Variants.Evaluate, VariantChat)

	setDefault(&c.Runtime.BaseURL, defaultRuntimeBaseURL)

	setDefault(&c.Log.Path, defaultLogPath)
	setDefault(&c.Log.Format, LogFormatText)
	setDefault(&c.Log.Level, "debug")
	if c.Log.MaxBackups == 0 {
		c.Log.MaxBackups = defaultLogMaxBackups
	}
	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = defaultLogMaxSizeMB
	}
}

func (c *Config) Validate() error {
	var result *multierror.Error

	for _, id := range []struct{ key, value string }{
		{"models.inference", c.Models.Inference},
		{"models.evaluator", c.Models.Evaluator},
		{"models.inference_mock", c.Models.InferenceMock},
		{"models.evaluator_mock", c.Models.EvaluatorMock},
	} {
		if strings.TrimSpace(id.value) == "" {
			result = multierror.Append(result, fmt.Errorf("%s is required", id.key))
		}
	}

	mock := c.Models.InferenceMock
	if mock != "" && (mock == c.Models.EvaluatorMock || mock == c.Models.Inference || mock == c.Models.Evaluator) {
		result = multierror.Append(result, fmt.Errorf("models.inference_mock must not collide with another model id: %s", mock))
	}
	mock = c.Models.EvaluatorMock
	if mock != "" && (mock == c.Models.Inference || mock == c.Models.Evaluator) {
		result = multierror.Append(result, fmt.Errorf("models.evaluator_mock must not collide with another model id: %s", mock))
	}

	c.Variants.Inference = strings.ToLower(strings.TrimSpace(c.Variants.Inference))
	c.Variants.Evaluate = strings.ToLower(strings.TrimSpace(c.Variants.Evaluate))
	if !isVariant(c.Variants.Inference) {
		result = multierror.Append(result, fmt.Errorf("variants.inference must be legacy or chat"))
	}
	if !isVariant(c.Variants.Evaluate) {
		result = multierror.Append(result, fmt.Errorf("variants.evaluate must be legacy or chat"))
	}

	u, err := url.Parse(c.Runtime.BaseURL)
	switch {
	case err != nil || u.Scheme == "" || u.Host == "":
		result = multierror.Append(result, fmt.Errorf("runtime.base_url is invalid: %s", c.Runtime.BaseURL))
	case u.Scheme != "http" && u.Scheme != "https":
		result = multierror.Append(result, fmt.Errorf("runtime.base_url must use http/https"))
	}
	if c.Runtime.Timeout < 0 {
		result = multierror.Append(result, fmt.Errorf("runtime.timeout must not be negative"))
	}

	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
	switch c.Log.Format {
	case LogFormatText, LogFormatJSON:
	default:
		result = multierror.Append(result, fmt.Errorf("log.format must be text or json"))
	}
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	switch c.Log.Level {
	case "debug", "info":
	default:
		result = multierror.Append(result, fmt.Errorf("log.level must be debug or info"))
	}
	if c.Log.MaxBackups < 0 {
		result = multierror.Append(result, fmt.Errorf("log.max_backups must not be negative"))
	}
	if c.Log.MaxSizeMB < 0 {
		result = multierror.Append(result, fmt.Errorf("log.max_size_mb must not be negative"))
	}

	return result.ErrorOrNil()
}

func isVariant(v string) bool {
	return v == VariantLegacy || v == VariantChat
}

func setDefault(field *string, value string) {
	if strings.TrimSpace(*field) == "" {
		*field = value
	}
}
