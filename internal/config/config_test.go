package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig_ValidJSON(t *testing.T) {
	path := writeFile(t, "config.json", `{
		"dataset_path": "data/schools.yaml",
		"load_latency": "0s",
		"advice_timeout": "30s",
		"model": "gemini-2.0-flash",
		"port": 9000,
		"verbose": true
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "data/schools.yaml", cfg.DatasetPath)
	require.NotNil(t, cfg.LoadLatency)
	assert.Equal(t, time.Duration(0), cfg.LoadLatency.Std())
	assert.Equal(t, 30*time.Second, cfg.AdviceTimeout.Std())
	assert.Equal(t, "gemini-2.0-flash", cfg.Model)
	assert.Equal(t, 9000, cfg.Port)
	assert.True(t, cfg.Verbose)
}

func TestLoadConfig_ValidYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", "load_latency: 250ms\nadvice_timeout: 1m\nport: 8081\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.LoadLatency)
	assert.Equal(t, 250*time.Millisecond, cfg.LoadLatency.Std())
	assert.Equal(t, time.Minute, cfg.AdviceTimeout.Std())
	assert.Equal(t, 8081, cfg.Port)
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		path    func(t *testing.T) string
		errText string
	}{
		{
			name:    "invalid JSON",
			path:    func(t *testing.T) string { return writeFile(t, "config.json", `{ invalid json }`) },
			errText: "failed to parse config JSON",
		},
		{
			name:    "invalid YAML",
			path:    func(t *testing.T) string { return writeFile(t, "config.yml", "port: [") },
			errText: "failed to parse config YAML",
		},
		{
			name:    "bad duration",
			path:    func(t *testing.T) string { return writeFile(t, "config.json", `{"advice_timeout": "soon"}`) },
			errText: "invalid duration",
		},
		{
			name:    "file not found",
			path:    func(_ *testing.T) string { return "/nonexistent/path/config.json" },
			errText: "failed to read config file",
		},
		{
			name:    "empty path",
			path:    func(_ *testing.T) string { return "" },
			errText: "config path is empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadConfig(tt.path(t))
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tt.errText)
		})
	}
}

func TestValidate(t *testing.T) {
	dataset := writeFile(t, "schools.json", "[]")
	negative := Duration(-time.Second)

	tests := []struct {
		name    string
		cfg     Config
		errText string
	}{
		{name: "empty config", cfg: Config{}},
		{name: "existing dataset", cfg: Config{DatasetPath: dataset}},
		{name: "bad port", cfg: Config{Port: 70000}, errText: "'port'"},
		{name: "negative latency", cfg: Config{LoadLatency: &negative}, errText: "'load_latency'"},
		{name: "negative advice timeout", cfg: Config{AdviceTimeout: negative}, errText: "'advice_timeout'"},
		{name: "negative session ttl", cfg: Config{SessionTTL: negative}, errText: "'session_ttl'"},
		{name: "missing dataset", cfg: Config{DatasetPath: "/nonexistent/schools.json"}, errText: "dataset file not found"},
		{name: "unsupported dataset", cfg: Config{DatasetPath: writeFile(t, "schools.csv", "")}, errText: "must be .json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.errText == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errText)
		})
	}
}

func TestMergeWithDefaults(t *testing.T) {
	t.Run("built-in defaults", func(t *testing.T) {
		merged := (&Config{}).MergeWithDefaults(Config{})
		assert.Equal(t, DefaultPort, merged.Port)
		assert.Equal(t, DefaultAdviceTimeout, merged.AdviceTimeout.Std())
		assert.Equal(t, DefaultLoadTimeout, merged.LoadTimeout.Std())
		assert.Equal(t, DefaultSessionTTL, merged.SessionTTL.Std())
		require.NotNil(t, merged.LoadLatency)
		assert.Equal(t, DefaultLoadLatency, merged.LoadLatency.Std())
	})

	t.Run("file values win over defaults", func(t *testing.T) {
		zero := Duration(0)
		cfg := &Config{Port: 9000, LoadLatency: &zero, APIKey: "from-file"}
		merged := cfg.MergeWithDefaults(Config{Port: 1234, APIKey: "from-env", DatasetPath: "x.json"})

		assert.Equal(t, 9000, merged.Port)
		assert.Equal(t, "from-file", merged.APIKey)
		assert.Equal(t, "x.json", merged.DatasetPath)
		require.NotNil(t, merged.LoadLatency)
		assert.Equal(t, time.Duration(0), merged.LoadLatency.Std(), "explicit zero disables latency")
	})

	t.Run("does not modify receiver", func(t *testing.T) {
		cfg := &Config{}
		_ = cfg.MergeWithDefaults(Config{APIKey: "k"})
		assert.Empty(t, cfg.APIKey)
		assert.Nil(t, cfg.LoadLatency)
	})
}

func TestDuration_JSONRoundTrip(t *testing.T) {
	data, err := json.Marshal(Duration(1500 * time.Millisecond))
	require.NoError(t, err)
	assert.Equal(t, `"1.5s"`, string(data))

	var d Duration
	require.NoError(t, json.Unmarshal([]byte(`2000000`), &d))
	assert.Equal(t, 2*time.Millisecond, d.Std())
}
