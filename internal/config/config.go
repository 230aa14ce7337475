// Package config loads the agent configuration from defaults, an optional
// YAML file and FOLLOWBOT_* environment variables, then validates it.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// ErrValidation wraps every configuration validation failure.
var ErrValidation = errors.New("validation error")

// EnvPrefix prefixes every environment variable, e.g. FOLLOWBOT_AGENT_FOLLOW_LIMIT.
const EnvPrefix = "FOLLOWBOT"

// Config is the complete application configuration.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Agent     AgentConfig     `mapstructure:"agent"`
	Twitter   TwitterConfig   `mapstructure:"twitter"`
	Notify    NotifyConfig    `mapstructure:"notify"`
	Server    ServerConfig    `mapstructure:"server"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// LoggerConfig selects the log level and output format.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// DatabaseConfig locates the record store. Project scopes every record so
// several accounts can share one database; Collection is the logical table.
type DatabaseConfig struct {
	Path       string `mapstructure:"path"       validate:"required"`
	Project    string `mapstructure:"project"    validate:"required"`
	Collection string `mapstructure:"collection" validate:"required"`
}

// AgentConfig holds the reconciliation limits and run gating. MinDelay takes
// a duration string or a bare integer of milliseconds.
type AgentConfig struct {
	ScreenName        string        `mapstructure:"screen_name"          validate:"required"`
	FollowLimit       int           `mapstructure:"follow_limit"         validate:"min=0"`
	UnfollowLimit     int           `mapstructure:"unfollow_limit"       validate:"min=0"`
	IgnoreIDsPerShard int           `mapstructure:"ignore_ids_per_shard" validate:"min=1"`
	MinDelay          time.Duration `mapstructure:"min_delay"            validate:"min=0"`
	LikeLatestPost    bool          `mapstructure:"like_latest_post"`
}

// TwitterConfig holds API credentials and transport settings.
type TwitterConfig struct {
	ConsumerKey       string        `mapstructure:"consumer_key"        validate:"required"`
	ConsumerSecret    string        `mapstructure:"consumer_secret"     validate:"required"`
	AccessToken       string        `mapstructure:"access_token"        validate:"required"`
	AccessTokenSecret string        `mapstructure:"access_token_secret" validate:"required"`
	BaseURL           string        `mapstructure:"base_url"            validate:"required,url"`
	Timeout           time.Duration `mapstructure:"timeout"             validate:"min=1s,max=10m"`
}

// NotifyConfig configures the summary notification channels.
type NotifyConfig struct {
	Subject  string         `mapstructure:"subject" validate:"required"`
	Email    EmailConfig    `mapstructure:"email"`
	Telegram TelegramConfig `mapstructure:"telegram"`
}

// EmailConfig configures SMTP delivery. Email is skipped unless username,
// password and recipient are set.
type EmailConfig struct {
	SMTPHost  string `mapstructure:"smtp_host" validate:"required"`
	SMTPPort  int    `mapstructure:"smtp_port" validate:"min=1,max=65535"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	Recipient string `mapstructure:"recipient" validate:"omitempty,email"`
}

// TelegramConfig configures chat delivery. Skipped unless both are set.
type TelegramConfig struct {
	Token  string `mapstructure:"token"`
	ChatID int64  `mapstructure:"chat_id"`
}

// ServerConfig configures the HTTP trigger. An empty Addr disables it.
type ServerConfig struct {
	Addr       string `mapstructure:"addr"`
	TriggerKey string `mapstructure:"trigger_key" validate:"omitempty,min=31"`
}

// SchedulerConfig maps task names to their schedules.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks"`
}

// TaskConfig enables a task on a six-field (seconds first) cron schedule.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

// Load reads configuration from defaults, the YAML file at path (optional,
// missing is fine when path is empty or the file does not exist) and the
// environment, then validates it.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !isNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every struct constraint.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if c.Server.Addr != "" && c.Server.TriggerKey == "" {
		return fmt.Errorf("%w: server.trigger_key is required when server.addr is set", ErrValidation)
	}
	for name, task := range c.Scheduler.Tasks {
		if task.Enabled && task.Schedule == "" {
			return fmt.Errorf("%w: scheduler task %q is enabled without a schedule", ErrValidation, name)
		}
	}
	return nil
}
