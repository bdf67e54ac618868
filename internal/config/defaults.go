package config

const (
	defaultDataDir        = "~/.local/share/diana/data"
	defaultLogDir         = "~/.local/share/diana/logs"
	defaultProxyURL       = "http://localhost:8042"
	defaultAETitle        = "DIANA"
	defaultSourceTimeout  = 30
	defaultPoolSize       = 0
	defaultDelaySeconds   = 0.1
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Source: Source{
			URL:            defaultProxyURL,
			AETitle:        defaultAETitle,
			TimeoutSeconds: defaultSourceTimeout,
		},
		Collector: Collector{
			PoolSize:      defaultPoolSize,
			DelaySeconds:  defaultDelaySeconds,
			Anonymize:     true,
			SaveAsImages:  false,
			InlineReports: true,
			RetryLedger:   true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
