// Package config loads the description of a bridge platform from YAML files
// and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Core lists the requestor identities of one core.
type Core struct {
	Name       string `yaml:"name"`
	Requestors []int  `yaml:"requestors"`
}

// Memory is the range served by the local memory of every router.
type Memory struct {
	Start uint64 `yaml:"start"`
	Size  uint64 `yaml:"size"`
}

// Contains returns true if addr falls into the range.
func (m Memory) Contains(addr uint64) bool {
	return addr >= m.Start && addr-m.Start < m.Size
}

// BusTarget is a functional store attached to the bus at [Start, End].
type BusTarget struct {
	Name      string  `yaml:"name"`
	Start     uint64  `yaml:"start"`
	End       uint64  `yaml:"end"`
	LatencyNS float64 `yaml:"latency_ns"`
}

// Router holds the timing of the routers, in nanoseconds.
type Router struct {
	EndRequestDelayNS float64 `yaml:"end_request_delay_ns"`
	LatencyNS         float64 `yaml:"latency_ns"`
	ResponseDelayNS   float64 `yaml:"response_delay_ns"`
	ExecuteDelayNS    float64 `yaml:"execute_delay_ns"`
	Debug             bool    `yaml:"debug"`
}

// Traffic describes the requests issued by the traffic source.
type Traffic struct {
	RequestsPerCore int     `yaml:"requests_per_core"`
	Start           uint64  `yaml:"start"`
	Span            uint64  `yaml:"span"`
	Stride          uint64  `yaml:"stride"`
	Size            int     `yaml:"size"`
	WriteRatio      float64 `yaml:"write_ratio"`
	Seed            int64   `yaml:"seed"`
	FreqGHz         float64 `yaml:"freq_ghz"`
	RefuseEvery     int     `yaml:"refuse_every"`
	Preload         bool    `yaml:"preload"`
}

// Monitor configures the web monitor.
type Monitor struct {
	Enabled     bool `yaml:"enabled"`
	Port        int  `yaml:"port"`
	OpenBrowser bool `yaml:"open_browser"`
}

// Config describes a whole platform.
type Config struct {
	Name          string        `yaml:"name"`
	Channels      int           `yaml:"channels"`
	SystemPort    bool          `yaml:"system_port"`
	SocketCoreMap map[int][]int `yaml:"socket_core_map,omitempty"`
	Cores         []Core        `yaml:"cores"`
	Memory        Memory        `yaml:"memory"`
	BusTargets    []BusTarget   `yaml:"bus_targets"`
	Router        Router        `yaml:"router"`
	Traffic       Traffic       `yaml:"traffic"`
	TraceDB       string        `yaml:"trace_db"`
	Monitor       Monitor       `yaml:"monitor"`
	LogEvents     bool          `yaml:"log_events"`
	ParallelIDs   bool          `yaml:"parallel_ids"`
}

// Default returns a platform with two cores, each on its own channel, and a
// memory of 1 MB with one device above it.
func Default() *Config {
	return &Config{
		Name:     "Bridge",
		Channels: 2,
		Cores: []Core{
			{Name: "cpu0", Requestors: []int{1, 2}},
			{Name: "cpu1", Requestors: []int{3, 4}},
		},
		Memory: Memory{Start: 0, Size: 1 << 20},
		BusTargets: []BusTarget{
			{Name: "DRAM", Start: 0, End: 1<<20 - 1},
			{Name: "Device", Start: 1 << 20, End: 1<<20 + 0xffff, LatencyNS: 5},
		},
		Router: Router{
			EndRequestDelayNS: 10,
			LatencyNS:         15,
			ResponseDelayNS:   10,
			ExecuteDelayNS:    10,
		},
		Traffic: Traffic{
			RequestsPerCore: 64,
			Start:           0,
			Span:            1<<20 + 0x10000,
			Stride:          64,
			Size:            4,
			WriteRatio:      0.5,
			Seed:            1,
			FreqGHz:         1,
		},
		Monitor: Monitor{Port: 0},
	}
}

// Load reads a YAML file over the defaults, applies the environment and
// validates the result. An empty path uses the defaults only.
func Load(path string) (*Config, error) {
	c := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}

		err = yaml.Unmarshal(data, c)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	err := c.ApplyEnv()
	if err != nil {
		return nil, err
	}

	err = c.Validate()
	if err != nil {
		return nil, err
	}

	return c, nil
}

// LoadDotEnv loads environment variables from the given files, or from .env
// when no file is given. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}

	existing := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}

	if len(existing) == 0 {
		return nil
	}

	return godotenv.Load(existing...)
}

// Marshal returns the YAML form of the config.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// NumSockets returns the number of downstream sockets the platform needs.
// The system port takes one socket in addition to the channels.
func (c *Config) NumSockets() int {
	if c.SystemPort {
		return c.Channels + 1
	}

	return c.Channels
}

// Validate checks that the config describes a platform that can be built.
func (c *Config) Validate() error {
	if c.Channels < 1 {
		return fmt.Errorf("channel count must be positive, got %d", c.Channels)
	}

	if len(c.Cores) == 0 {
		return errors.New("no core is configured")
	}

	err := c.validateCores()
	if err != nil {
		return err
	}

	err = c.validateRanges()
	if err != nil {
		return err
	}

	return c.validateTraffic()
}

func (c *Config) validateCores() error {
	names := make(map[string]bool)
	for _, core := range c.Cores {
		if core.Name == "" {
			return errors.New("core without name")
		}

		if names[core.Name] {
			return fmt.Errorf("core %s is configured twice", core.Name)
		}
		names[core.Name] = true
	}

	if len(c.SocketCoreMap) == 0 && len(c.Cores) > c.Channels {
		return fmt.Errorf("%d cores need a socket core map to share "+
			"%d channels", len(c.Cores), c.Channels)
	}

	for ch, cores := range c.SocketCoreMap {
		if ch < 0 || ch >= c.Channels {
			return fmt.Errorf("socket core map names channel %d, "+
				"only %d channels", ch, c.Channels)
		}

		for _, idx := range cores {
			if idx < 0 || idx >= len(c.Cores) {
				return fmt.Errorf("channel %d names unknown core %d", ch, idx)
			}
		}
	}

	return nil
}

func (c *Config) validateRanges() error {
	if c.Memory.Size == 0 {
		return errors.New("memory size must be positive")
	}

	if c.Memory.Start+c.Memory.Size < c.Memory.Start {
		return errors.New("memory range overflows the address space")
	}

	targets := make([]BusTarget, len(c.BusTargets))
	copy(targets, c.BusTargets)
	sort.Slice(targets, func(i, j int) bool {
		return targets[i].Start < targets[j].Start
	})

	for i, t := range targets {
		if t.End < t.Start {
			return fmt.Errorf("bus target %s has malformed range "+
				"[0x%x, 0x%x]", t.Name, t.Start, t.End)
		}

		if i > 0 && t.Start <= targets[i-1].End {
			return fmt.Errorf("bus targets %s and %s overlap",
				targets[i-1].Name, t.Name)
		}
	}

	if _, found := c.MemoryTarget(); !found {
		return fmt.Errorf("no bus target covers memory [0x%x, 0x%x)",
			c.Memory.Start, c.Memory.Start+c.Memory.Size)
	}

	return nil
}

// MemoryTarget returns the index of the bus target that covers the whole
// memory range.
func (c *Config) MemoryTarget() (int, bool) {
	last := c.Memory.Start + c.Memory.Size - 1
	for i, t := range c.BusTargets {
		if t.Start <= c.Memory.Start && last <= t.End {
			return i, true
		}
	}

	return 0, false
}

func (c *Config) validateTraffic() error {
	t := c.Traffic

	if t.RequestsPerCore < 0 {
		return fmt.Errorf("negative request count %d", t.RequestsPerCore)
	}

	if t.Size < 1 {
		return fmt.Errorf("request size must be positive, got %d", t.Size)
	}

	if t.Stride == 0 {
		return errors.New("traffic stride must be positive")
	}

	if t.Span < uint64(t.Size) {
		return fmt.Errorf("traffic span 0x%x is smaller than a request",
			t.Span)
	}

	if t.WriteRatio < 0 || t.WriteRatio > 1 {
		return fmt.Errorf("write ratio %f is not in [0, 1]", t.WriteRatio)
	}

	if t.FreqGHz <= 0 {
		return fmt.Errorf("traffic frequency must be positive, got %f",
			t.FreqGHz)
	}

	if t.RefuseEvery < 0 {
		return fmt.Errorf("negative refusal period %d", t.RefuseEvery)
	}

	return nil
}
