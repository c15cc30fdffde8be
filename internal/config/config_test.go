package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("CODESTEWARD_DB", "")

	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 180, cfg.IngestWindowDays)
	assert.Equal(t, 300, cfg.MaxPRs)
	assert.Equal(t, 5, cfg.ReviewerCount)
	assert.True(t, cfg.StrictEvidenceMode)
	assert.Equal(t, "gemini-2.0-flash", cfg.LLM.Model)
	assert.Equal(t, 4096, cfg.LLM.MaxTokens)
	assert.True(t, cfg.PRFilter.Enabled)
	assert.False(t, cfg.HasGitHubToken())
	assert.False(t, cfg.HasGeminiKey())
}

func TestLoadYAMLOverrides(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("CODESTEWARD_DB", "")

	path := filepath.Join(t.TempDir(), "codesteward.yaml")
	data := `
repo: kubernetes/kubernetes
default_areas: [sig-api, sig-testing]
ingest_window_days: 90
reviewer_count: 3
strict_evidence_mode: false
output_dir: /tmp/reports
llm:
  model: gemini-2.5-pro
  max_tokens: 8192
pr_filter:
  allowlist_authors: [trusted-bot]
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "kubernetes/kubernetes", cfg.Repo)
	assert.Equal(t, []string{"sig-api", "sig-testing"}, cfg.DefaultAreas)
	assert.Equal(t, 90, cfg.IngestWindowDays)
	assert.Equal(t, 3, cfg.ReviewerCount)
	assert.False(t, cfg.StrictEvidenceMode)
	assert.Equal(t, "/tmp/reports", cfg.OutputDir)
	assert.Equal(t, "gemini-2.5-pro", cfg.LLM.Model)
	assert.Equal(t, 8192, cfg.LLM.MaxTokens)
	// Untouched fields keep their defaults.
	assert.Equal(t, 300, cfg.MaxPRs)
	assert.Equal(t, 12000, cfg.LLM.MaxDiffChars)
	assert.Equal(t, []string{"trusted-bot"}, cfg.PRFilter.AllowlistAuthors)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "ghp_test")
	t.Setenv("GEMINI_API_KEY", "gm_test")
	t.Setenv("CODESTEWARD_DB", "/tmp/alt.sqlite")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Nil(t, cfg)

	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "ghp_test", cfg.GitHubToken)
	assert.Equal(t, "gm_test", cfg.GeminiAPIKey)
	assert.Equal(t, "/tmp/alt.sqlite", cfg.DBPath)
}

func TestLoadExplicitMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
