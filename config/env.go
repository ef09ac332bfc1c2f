package config

import (
	"fmt"
	"os"
	"strconv"
)

// EnvPrefix starts the names of the environment variables that override the
// config.
const EnvPrefix = "TLMBRIDGE_"

type envBinding struct {
	name  string
	apply func(c *Config, value string) error
}

var envBindings = []envBinding{
	{"CHANNELS", func(c *Config, v string) error {
		return setInt(&c.Channels, v)
	}},
	{"SYSTEM_PORT", func(c *Config, v string) error {
		return setBool(&c.SystemPort, v)
	}},
	{"REQUESTS_PER_CORE", func(c *Config, v string) error {
		return setInt(&c.Traffic.RequestsPerCore, v)
	}},
	{"SEED", func(c *Config, v string) error {
		n, err := strconv.ParseInt(v, 10, 64)
		c.Traffic.Seed = n
		return err
	}},
	{"WRITE_RATIO", func(c *Config, v string) error {
		f, err := strconv.ParseFloat(v, 64)
		c.Traffic.WriteRatio = f
		return err
	}},
	{"REFUSE_EVERY", func(c *Config, v string) error {
		return setInt(&c.Traffic.RefuseEvery, v)
	}},
	{"TRACE_DB", func(c *Config, v string) error {
		c.TraceDB = v
		return nil
	}},
	{"MONITOR", func(c *Config, v string) error {
		return setBool(&c.Monitor.Enabled, v)
	}},
	{"MONITOR_PORT", func(c *Config, v string) error {
		return setInt(&c.Monitor.Port, v)
	}},
	{"DEBUG", func(c *Config, v string) error {
		return setBool(&c.Router.Debug, v)
	}},
	{"LOG_EVENTS", func(c *Config, v string) error {
		return setBool(&c.LogEvents, v)
	}},
	{"PARALLEL_IDS", func(c *Config, v string) error {
		return setBool(&c.ParallelIDs, v)
	}},
	{"PRELOAD", func(c *Config, v string) error {
		return setBool(&c.Traffic.Preload, v)
	}},
}

func setInt(dst *int, v string) error {
	n, err := strconv.Atoi(v)
	if err != nil {
		return err
	}

	*dst = n

	return nil
}

func setBool(dst *bool, v string) error {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return err
	}

	*dst = b

	return nil
}

// ApplyEnv overrides fields with the TLMBRIDGE_ variables that are set.
func (c *Config) ApplyEnv() error {
	for _, b := range envBindings {
		v, ok := os.LookupEnv(EnvPrefix + b.name)
		if !ok {
			continue
		}

		err := b.apply(c, v)
		if err != nil {
			return fmt.Errorf("%s%s=%q: %w", EnvPrefix, b.name, v, err)
		}
	}

	return nil
}
