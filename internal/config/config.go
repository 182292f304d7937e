package config

import (
	"os"

	env "github.com/Netflix/go-env"
	"gopkg.in/yaml.v3"
)

// Config holds analyzer configuration.
type Config struct {
	Model  ModelConfig  `yaml:"model"`
	Report ReportConfig `yaml:"report"`
	Job    JobConfig    `yaml:"job"`
}

type ModelConfig struct {
	Dir          string `yaml:"dir" env:"NLP_PHISHING_MODEL_DIR" validate:"required"`
	SeqLen       int    `yaml:"seq_len" env:"NLP_PHISHING_SEQ_LEN" validate:"gte=8,lte=4096"`
	MaxChars     int    `yaml:"max_chars" env:"NLP_PHISHING_MAX_CHARS" validate:"gte=0"` // 0 disables character truncation
	IntraThreads int    `yaml:"intra_threads" env:"NLP_PHISHING_INTRA_THREADS" validate:"gte=0"`
	InterThreads int    `yaml:"inter_threads" env:"NLP_PHISHING_INTER_THREADS" validate:"gte=0"`
}

type ReportConfig struct {
	Namespace      string           `yaml:"namespace" validate:"required"`
	Predicate      string           `yaml:"predicate" validate:"required"`
	PhishingLabels []string         `yaml:"phishing_labels" validate:"min=1,dive,required"`
	Thresholds     ThresholdsConfig `yaml:"thresholds"`
}

// ThresholdsConfig holds the warn/block cutoffs applied to the phishing class score.
type ThresholdsConfig struct {
	Warn  float64 `yaml:"warn" validate:"gte=0,lte=1"`
	Block float64 `yaml:"block" validate:"gte=0,lte=1,gtefield=Warn"`
}

type JobConfig struct {
	Dir string `yaml:"dir" env:"NLP_PHISHING_JOB_DIR"` // host job directory, e.g. "/job"
}

// Load reads configuration from a YAML file and applies environment overrides.
// If the file doesn't exist, defaults are used.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	case os.IsNotExist(err):
	default:
		return nil, err
	}

	if _, err := env.UnmarshalFromEnviron(cfg); err != nil {
		return nil, err
	}

	applyDefaults(cfg)

	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Model: ModelConfig{
			SeqLen:       512,
			MaxChars:     512,
			IntraThreads: 1,
			InterThreads: 1,
		},
		Report: ReportConfig{
			Namespace:      "NLP",
			Predicate:      "Phishing",
			PhishingLabels: []string{"spam", "phishing", "LABEL_1"},
			Thresholds: ThresholdsConfig{
				Warn:  0.5,
				Block: 0.8,
			},
		},
		Job: JobConfig{
			Dir: "/job",
		},
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Model.SeqLen == 0 {
		cfg.Model.SeqLen = 512
	}
	if cfg.Report.Namespace == "" {
		cfg.Report.Namespace = "NLP"
	}
	if cfg.Report.Predicate == "" {
		cfg.Report.Predicate = "Phishing"
	}
	if len(cfg.Report.PhishingLabels) == 0 {
		cfg.Report.PhishingLabels = []string{"spam", "phishing", "LABEL_1"}
	}
	if cfg.Job.Dir == "" {
		cfg.Job.Dir = "/job"
	}
}
