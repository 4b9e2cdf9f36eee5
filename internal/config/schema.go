// Package config provides configuration loading and validation for
// crontick. It supports TOML and YAML configuration files with
// environment variable expansion, default values, and validation.
//
// Configuration structure:
//   - [logging]: level, format, and output destination
//   - [scheduler]: metrics listener, working directory, shutdown grace
//   - [[tasks]]: one entry per scheduled task
//
// Environment variables can be referenced in task commands and the
// logging output using ${VAR} or ${VAR:default} syntax.
package config

// Config is the root of the application configuration.
type Config struct {
	Logging   LoggingConfig   `toml:"logging" yaml:"logging"`
	Scheduler SchedulerConfig `toml:"scheduler" yaml:"scheduler"`
	Tasks     []TaskConfig    `toml:"tasks" yaml:"tasks"`
}

// LoggingConfig mirrors logger.Config.
type LoggingConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"`
	Output string `toml:"output" yaml:"output"`
}

// SchedulerConfig holds daemon-level settings.
type SchedulerConfig struct {
	// MetricsListen is the address of the Prometheus /metrics listener.
	// Empty disables the listener.
	MetricsListen string `toml:"metrics_listen" yaml:"metrics_listen"`
	// WorkDir is the working directory for task commands. Empty means
	// the daemon's working directory.
	WorkDir string `toml:"work_dir" yaml:"work_dir"`
	// ShutdownGrace bounds how long a stopping daemon waits for
	// in-flight task runs.
	ShutdownGrace Duration `toml:"shutdown_grace" yaml:"shutdown_grace"`
	// Reload enables config file watching and hot reload.
	Reload bool `toml:"reload" yaml:"reload"`
}

// TaskConfig defines one scheduled task.
type TaskConfig struct {
	Name     string   `toml:"name" yaml:"name"`
	Schedule string   `toml:"schedule" yaml:"schedule"`
	Command  string   `toml:"command" yaml:"command"`
	Timeout  Duration `toml:"timeout" yaml:"timeout"`
}
