package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/crontick/crontick/internal/crontab"
)

// Load reads, expands, and decodes the configuration file at path.
// The decoder is chosen by file extension: .toml, or .yaml/.yml.
// Defaults are applied after decoding; call Validate separately.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := &Config{}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse toml config: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse yaml config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config extension %q (want .toml, .yaml or .yml)", ext)
	}

	cfg.applyDefaults()
	cfg.expandEnv()

	return cfg, nil
}

// Validate checks the configuration for errors and returns all of
// them, not just the first.
func (c *Config) Validate() []error {
	var errs []error

	switch c.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("logging.format: unknown format %q (want json or text)", c.Logging.Format))
	}

	if len(c.Tasks) == 0 {
		errs = append(errs, fmt.Errorf("tasks: at least one task is required"))
	}

	seen := make(map[string]bool, len(c.Tasks))
	for i, task := range c.Tasks {
		label := task.Name
		if label == "" {
			label = fmt.Sprintf("#%d", i)
			errs = append(errs, fmt.Errorf("tasks[%s]: name is required", label))
		}
		if seen[task.Name] && task.Name != "" {
			errs = append(errs, fmt.Errorf("tasks[%s]: duplicate task name", label))
		}
		seen[task.Name] = true

		if task.Command == "" {
			errs = append(errs, fmt.Errorf("tasks[%s]: command is required", label))
		}
		if task.Schedule == "" {
			errs = append(errs, fmt.Errorf("tasks[%s]: schedule is required", label))
		} else if _, err := crontab.Parse(task.Schedule); err != nil {
			errs = append(errs, fmt.Errorf("tasks[%s]: %w", label, err))
		}
		if task.Timeout < 0 {
			errs = append(errs, fmt.Errorf("tasks[%s]: timeout must not be negative", label))
		}
	}

	return errs
}
