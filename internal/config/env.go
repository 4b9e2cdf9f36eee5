package config

import (
	"os"
	"strings"
)

// expandEnv substitutes ${VAR} and ${VAR:default} references in the
// fields where operators commonly parameterize a config: task
// commands, the working directory, and the log output path.
func (c *Config) expandEnv() {
	c.Logging.Output = expandValue(c.Logging.Output)
	c.Scheduler.WorkDir = expandValue(c.Scheduler.WorkDir)
	for i := range c.Tasks {
		c.Tasks[i].Command = expandValue(c.Tasks[i].Command)
	}
}

func expandValue(s string) string {
	return os.Expand(s, func(name string) string {
		name, fallback, hasFallback := strings.Cut(name, ":")
		if value, ok := os.LookupEnv(name); ok {
			return value
		}
		if hasFallback {
			return fallback
		}
		return ""
	})
}
