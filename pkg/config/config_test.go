package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
postgres:
  dsn: postgres://localhost/preproc
ttp:
  url: https://ttp.example.org/api/v1
wikifier:
  url: https://wikifier.example.org
`))
	require.NoError(t, err)

	assert.Equal(t, "PROCESSING.MATERIAL.TEXT", cfg.Broker.TextTopic)
	assert.Equal(t, "STORING.MATERIAL.COMPLETE", cfg.Broker.CompleteTopic)
	assert.Equal(t, "STORING.MATERIAL.PARTIAL", cfg.Broker.PartialTopic)
	assert.Equal(t, "material_process_pipeline", cfg.Postgres.ProcessTable)
	assert.Equal(t, []string{"en", "es", "sl", "de"}, cfg.TTP.Languages)
	assert.Equal(t, "en", cfg.TTP.Pivot)
	assert.Equal(t, 2*time.Second, cfg.TTP.PollInterval())
	assert.Equal(t, 10*time.Minute, cfg.TTP.PollTimeout())
	assert.Equal(t, 1, cfg.Workers.Default)
	assert.Equal(t, 4, cfg.Workers.Transcription)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
broker:
  text_topic: INPUT.TOPIC
postgres:
  dsn: postgres://localhost/preproc
ttp:
  url: https://ttp.example.org/api/v1
  languages: [en, fr]
  pivot: fr
  poll_interval_seconds: 5
wikifier:
  url: https://wikifier.example.org
workers:
  default: 2
`))
	require.NoError(t, err)

	assert.Equal(t, "INPUT.TOPIC", cfg.Broker.TextTopic)
	assert.Equal(t, []string{"en", "fr"}, cfg.TTP.Languages)
	assert.Equal(t, "fr", cfg.TTP.Pivot)
	assert.Equal(t, 5*time.Second, cfg.TTP.PollInterval())
	assert.Equal(t, 2, cfg.Workers.Default)
}

func TestLoad_RequiredFields(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"missing postgres dsn", `
ttp:
  url: https://ttp.example.org
wikifier:
  url: https://wikifier.example.org
`},
		{"missing ttp url", `
postgres:
  dsn: postgres://localhost/preproc
wikifier:
  url: https://wikifier.example.org
`},
		{"missing wikifier url", `
postgres:
  dsn: postgres://localhost/preproc
ttp:
  url: https://ttp.example.org
`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
