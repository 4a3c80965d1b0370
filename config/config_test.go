package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"microblog/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "microblog.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadSampleConfig(t *testing.T) {
	cfg, err := config.LoadConfig("microblog.toml")
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, 24*time.Hour, cfg.Server.SessionExpiration)
	assert.Equal(t, 10, cfg.Feed.PostsPerPage)
	assert.Equal(t, []string{"en", "es", "de", "fr"}, cfg.Languages.Detect)
	assert.Equal(t, 10*time.Second, cfg.Translator.Timeout)
	assert.Empty(t, cfg.Translator.Key)
}

func TestLoadConfigKeepsDefaults(t *testing.T) {
	cfg, err := config.LoadConfig(writeConfig(t, `
[feed]
posts_per_page = 25
`))
	require.NoError(t, err)

	assert.Equal(t, 25, cfg.Feed.PostsPerPage)
	assert.Equal(t, config.Default().Tasks, cfg.Tasks)
	assert.Equal(t, config.Default().Server, cfg.Server)
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "malformed", content: "[feed"},
		{name: "zero page size", content: "[feed]\nposts_per_page = 0"},
		{name: "no workers", content: "[tasks]\nworkers = 0"},
		{name: "empty export dir", content: "[tasks]\nexport_dir = \"\""},
		{name: "zero tidy interval", content: "[tasks]\ntidy_interval = \"0s\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.LoadConfig(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}

	_, err := config.LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
