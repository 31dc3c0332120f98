package config

const (
	defaultLogDir               = "~/.local/share/broom/logs"
	defaultGracePeriod          = 300
	defaultPollInterval         = 2
	defaultPkillTimeout         = 30
	defaultNotifyRequestTimeout = 10
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultHistoryRetentionDays = 90
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Watch: Watch{
			GracePeriod:  defaultGracePeriod,
			PollInterval: defaultPollInterval,
		},
		Killer: Killer{
			PkillTimeout: defaultPkillTimeout,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
		},
		Paths: Paths{
			LogDir: defaultLogDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		History: History{
			Enabled:       true,
			RetentionDays: defaultHistoryRetentionDays,
		},
	}
}
