package config

import (
	"errors"
	"io/fs"
	"time"

	"github.com/spf13/viper"
)

// Default values for configuration
const (
	DefaultLogLevel = "info"

	DefaultDBPath     = "storage.db"
	DefaultProject    = "default"
	DefaultCollection = "twitter-meta-data"

	DefaultIgnoreIDsPerShard = 5000
	DefaultMinDelay          = time.Hour

	DefaultTwitterBaseURL = "https://api.twitter.com/1.1/"
	DefaultTwitterTimeout = 60 * time.Second

	DefaultSubject  = "Twitter Update"
	DefaultSMTPHost = "smtp.gmail.com"
	DefaultSMTPPort = 587

	DefaultFollowSyncSchedule  = "0 */15 * * * *"
	DefaultMaintenanceSchedule = "0 0 4 * * 0"
)

// setDefaults sets default values for optional configuration parameters.
// Every key is registered so AutomaticEnv can override it.
func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", DefaultLogLevel)
	v.SetDefault("logger.json", false)

	v.SetDefault("database.path", DefaultDBPath)
	v.SetDefault("database.project", DefaultProject)
	v.SetDefault("database.collection", DefaultCollection)

	v.SetDefault("agent.screen_name", "")
	v.SetDefault("agent.follow_limit", 0)
	v.SetDefault("agent.unfollow_limit", 0)
	v.SetDefault("agent.ignore_ids_per_shard", DefaultIgnoreIDsPerShard)
	v.SetDefault("agent.min_delay", DefaultMinDelay)
	v.SetDefault("agent.like_latest_post", true)

	v.SetDefault("twitter.consumer_key", "")
	v.SetDefault("twitter.consumer_secret", "")
	v.SetDefault("twitter.access_token", "")
	v.SetDefault("twitter.access_token_secret", "")
	v.SetDefault("twitter.base_url", DefaultTwitterBaseURL)
	v.SetDefault("twitter.timeout", DefaultTwitterTimeout)

	v.SetDefault("notify.subject", DefaultSubject)
	v.SetDefault("notify.email.smtp_host", DefaultSMTPHost)
	v.SetDefault("notify.email.smtp_port", DefaultSMTPPort)
	v.SetDefault("notify.email.username", "")
	v.SetDefault("notify.email.password", "")
	v.SetDefault("notify.email.recipient", "")
	v.SetDefault("notify.telegram.token", "")
	v.SetDefault("notify.telegram.chat_id", 0)

	v.SetDefault("server.addr", "")
	v.SetDefault("server.trigger_key", "")

	v.SetDefault("scheduler.tasks.follow_sync.enabled", false)
	v.SetDefault("scheduler.tasks.follow_sync.schedule", DefaultFollowSyncSchedule)
	v.SetDefault("scheduler.tasks.sql_maintenance.enabled", true)
	v.SetDefault("scheduler.tasks.sql_maintenance.schedule", DefaultMaintenanceSchedule)
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
