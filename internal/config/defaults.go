package config

const (
	defaultDataDir               = "~/.local/share/barsync"
	defaultLogDir                = "~/.local/share/barsync/logs"
	defaultBackendRequestTimeout = 30
	defaultProbeInterval         = 15
	defaultProbeTimeout          = 5
	defaultSyncedBannerSeconds   = 2
	defaultNtfyRequestTimeout    = 10
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Backend: Backend{
			RequestTimeout: defaultBackendRequestTimeout,
		},
		Network: Network{
			ProbeInterval: defaultProbeInterval,
			ProbeTimeout:  defaultProbeTimeout,
		},
		Sync: Sync{
			SyncedBannerSeconds: defaultSyncedBannerSeconds,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyRequestTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
