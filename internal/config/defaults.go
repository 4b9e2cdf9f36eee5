package config

import "time"

const (
	defaultLogLevel      = "info"
	defaultLogFormat     = "text"
	defaultLogOutput     = "stderr"
	defaultShutdownGrace = 30 * time.Second
)

func (c *Config) applyDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	if c.Logging.Output == "" {
		c.Logging.Output = defaultLogOutput
	}
	if c.Scheduler.ShutdownGrace == 0 {
		c.Scheduler.ShutdownGrace = Duration(defaultShutdownGrace)
	}
}
