// Package config loads application configuration from YAML files and
// environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/vakalapa/codesteward/internal/application"
)

// LLMConfig holds generation settings for the reviewer LLM.
type LLMConfig struct {
	Model        string `yaml:"model"`
	MaxTokens    int    `yaml:"max_tokens"`
	MaxDiffChars int    `yaml:"max_diff_chars"`
}

// Config holds the application configuration. Fields map one-to-one onto
// the YAML config file; secrets come from the environment.
type Config struct {
	Repo               string   `yaml:"repo"`
	DefaultAreas       []string `yaml:"default_areas"`
	IngestWindowDays   int      `yaml:"ingest_window_days"`
	MaxPRs             int      `yaml:"max_prs"`
	ReviewerCount      int      `yaml:"reviewer_count"`
	StrictEvidenceMode bool     `yaml:"strict_evidence_mode"`
	DBPath             string   `yaml:"db_path"`
	OutputDir          string   `yaml:"output_dir"`
	RedactQuotes       bool     `yaml:"redact_quotes"`

	GitHubToken  string `yaml:"-"`
	GeminiAPIKey string `yaml:"-"`

	LLM      LLMConfig                  `yaml:"llm"`
	PRFilter application.PRFilterPolicy `yaml:"pr_filter"`
}

// HasGitHubToken reports whether GitHub API access is configured.
func (c *Config) HasGitHubToken() bool { return c.GitHubToken != "" }

// HasGeminiKey reports whether LLM-backed simulation is configured.
func (c *Config) HasGeminiKey() bool { return c.GeminiAPIKey != "" }

func defaults() Config {
	home, _ := os.UserHomeDir()
	return Config{
		IngestWindowDays:   180,
		MaxPRs:             300,
		ReviewerCount:      5,
		StrictEvidenceMode: true,
		DBPath:             filepath.Join(home, ".codesteward", "db.sqlite"),
		OutputDir:          "./out",
		LLM: LLMConfig{
			Model:        "gemini-2.0-flash",
			MaxTokens:    4096,
			MaxDiffChars: 12000,
		},
		PRFilter: application.DefaultPRFilterPolicy(),
	}
}

// defaultConfigPaths in lookup order; the first existing file wins.
func defaultConfigPaths() []string {
	home, _ := os.UserHomeDir()
	return []string{
		"codesteward.yaml",
		filepath.Join(home, ".codesteward", "config.yaml"),
	}
}

// Load reads configuration with the priority: defaults, then the YAML file,
// then environment variables (GITHUB_TOKEN, GEMINI_API_KEY, CODESTEWARD_DB).
// configPath may be empty, in which case the default locations are tried;
// a missing default file is not an error.
func Load(configPath string) (*Config, error) {
	cfg := defaults()

	paths := defaultConfigPaths()
	explicit := configPath != ""
	if explicit {
		paths = []string{configPath}
	}

	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			if os.IsNotExist(err) && !explicit {
				continue
			}
			return nil, fmt.Errorf("read config %s: %w", p, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", p, err)
		}
		break
	}

	cfg.GitHubToken = os.Getenv("GITHUB_TOKEN")
	cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	if db := os.Getenv("CODESTEWARD_DB"); db != "" {
		cfg.DBPath = db
	}

	return &cfg, nil
}
