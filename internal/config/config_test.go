package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("FOLLOWBOT_AGENT_SCREEN_NAME", "someone")
	t.Setenv("FOLLOWBOT_TWITTER_CONSUMER_KEY", "ck")
	t.Setenv("FOLLOWBOT_TWITTER_CONSUMER_SECRET", "cs")
	t.Setenv("FOLLOWBOT_TWITTER_ACCESS_TOKEN", "at")
	t.Setenv("FOLLOWBOT_TWITTER_ACCESS_TOKEN_SECRET", "ats")
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DefaultLogLevel, cfg.Logger.Level)
	assert.Equal(t, DefaultCollection, cfg.Database.Collection)
	assert.Equal(t, DefaultIgnoreIDsPerShard, cfg.Agent.IgnoreIDsPerShard)
	assert.Equal(t, time.Hour, cfg.Agent.MinDelay)
	assert.Equal(t, 0, cfg.Agent.FollowLimit)
	assert.True(t, cfg.Agent.LikeLatestPost)
	assert.Equal(t, DefaultTwitterBaseURL, cfg.Twitter.BaseURL)
	assert.Equal(t, DefaultSubject, cfg.Notify.Subject)
	assert.Equal(t, DefaultSMTPPort, cfg.Notify.Email.SMTPPort)
	assert.Empty(t, cfg.Server.Addr)

	require.Contains(t, cfg.Scheduler.Tasks, "follow_sync")
	assert.False(t, cfg.Scheduler.Tasks["follow_sync"].Enabled)
	assert.Equal(t, DefaultFollowSyncSchedule, cfg.Scheduler.Tasks["follow_sync"].Schedule)
	assert.True(t, cfg.Scheduler.Tasks["sql_maintenance"].Enabled)
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("FOLLOWBOT_AGENT_UNFOLLOW_LIMIT", "7")

	path := writeConfig(t, `
logger:
  level: debug
  json: true
database:
  path: /tmp/followbot.db
  project: acct-a
agent:
  follow_limit: 3
  unfollow_limit: 2
  min_delay: 30m
server:
  addr: ":8080"
  trigger_key: "0123456789abcdef0123456789abcdef"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.True(t, cfg.Logger.JSON)
	assert.Equal(t, "/tmp/followbot.db", cfg.Database.Path)
	assert.Equal(t, "acct-a", cfg.Database.Project)
	assert.Equal(t, 3, cfg.Agent.FollowLimit)
	assert.Equal(t, 7, cfg.Agent.UnfollowLimit, "environment beats file")
	assert.Equal(t, 30*time.Minute, cfg.Agent.MinDelay)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultDBPath, cfg.Database.Path)
}

func TestLoadMalformedFile(t *testing.T) {
	setRequiredEnv(t)

	_, err := Load(writeConfig(t, "agent: [unclosed"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrValidation)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
		env  map[string]string
	}{
		{
			name: "missing credentials",
			env:  map[string]string{"FOLLOWBOT_TWITTER_ACCESS_TOKEN": ""},
		},
		{
			name: "negative follow limit",
			body: "agent:\n  follow_limit: -1\n",
		},
		{
			name: "zero shard size",
			body: "agent:\n  ignore_ids_per_shard: 0\n",
		},
		{
			name: "unknown log level",
			body: "logger:\n  level: verbose\n",
		},
		{
			name: "short trigger key",
			body: "server:\n  addr: \":8080\"\n  trigger_key: \"0123456789abcdef0123456789abcd\"\n",
		},
		{
			name: "server without key",
			body: "server:\n  addr: \":8080\"\n",
		},
		{
			name: "bad recipient",
			body: "notify:\n  email:\n    recipient: not-an-address\n",
		},
		{
			name: "enabled task without schedule",
			body: "scheduler:\n  tasks:\n    follow_sync:\n      enabled: true\n      schedule: \"\"\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			path := ""
			if tt.body != "" {
				path = writeConfig(t, tt.body)
			}

			_, err := Load(path)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestLoadMinDelayUnits(t *testing.T) {
	tests := []struct {
		name string
		env  string
		body string
		want time.Duration
	}{
		{name: "env milliseconds", env: "3600000", want: time.Hour},
		{name: "env duration", env: "45m", want: 45 * time.Minute},
		{name: "file milliseconds", body: "agent:\n  min_delay: 90000\n", want: 90 * time.Second},
		{name: "file quoted milliseconds", body: "agent:\n  min_delay: \"1500\"\n", want: 1500 * time.Millisecond},
		{name: "file duration", body: "agent:\n  min_delay: 2h\n", want: 2 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			if tt.env != "" {
				t.Setenv("FOLLOWBOT_AGENT_MIN_DELAY", tt.env)
			}
			path := ""
			if tt.body != "" {
				path = writeConfig(t, tt.body)
			}

			cfg, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Agent.MinDelay)
		})
	}
}

func TestLoadRejectsMalformedDelay(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("FOLLOWBOT_AGENT_MIN_DELAY", "soon")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config")
}
