package config

import (
	"os"
	"strconv"
	"strings"

	"schedconvert/internal/services"
)

// fileKeys records which environment-backed keys the config file set.
type fileKeys struct {
	Dispatch struct {
		Directory  *string `toml:"directory"`
		BatchCount *int    `toml:"batch_count"`
		Worker     *string `toml:"worker"`
	} `toml:"dispatch"`
}

// applyEnv fills values the config file left unset from SCHEDCONVERT_*
// variables. An empty directory in the file also counts as unset. It runs
// once per Load, before command-line overrides.
func (c *Config) applyEnv(set fileKeys) error {
	d := &c.Dispatch

	if set.Dispatch.Directory == nil || strings.TrimSpace(*set.Dispatch.Directory) == "" {
		if value := envValue("SCHEDCONVERT_DIRECTORY"); value != "" {
			d.Directory = value
		}
	}

	if set.Dispatch.BatchCount == nil {
		if value := envValue("SCHEDCONVERT_BATCH_COUNT"); value != "" {
			parsed, err := strconv.Atoi(value)
			if err != nil {
				return services.Wrap(services.ErrConfiguration, "config", "SCHEDCONVERT_BATCH_COUNT", "not an integer", err)
			}
			d.BatchCount = parsed
		}
	}

	if set.Dispatch.Worker == nil {
		if value := envValue("SCHEDCONVERT_WORKER"); value != "" {
			d.Worker = value
		}
	}
	return nil
}

func envValue(key string) string {
	value, _ := os.LookupEnv(key)
	return strings.TrimSpace(value)
}
