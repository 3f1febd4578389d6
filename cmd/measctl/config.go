package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is measctl's instrument configuration, the YAML equivalent of the
// teacher's direwolf.conf text grammar (see config.go in the teacher repo)
// centralizing every tunable the simulator needs in one load path.
type Config struct {
	Backend string `yaml:"backend"` // "synthetic" or "hardware"

	VNA struct {
		StartHz float64 `yaml:"start_hz"`
		StopHz  float64 `yaml:"stop_hz"`
		Points  int     `yaml:"points"`
	} `yaml:"vna"`

	SA struct {
		CenterHz   float64 `yaml:"center_hz"`
		SampleRate float64 `yaml:"sample_rate"`
		FFTLength  int     `yaml:"fft_length"`
	} `yaml:"sa"`

	CalibrationFile string `yaml:"calibration_file"`

	Hardware struct {
		SerialDevice  string `yaml:"serial_device"`
		SerialBaud    int    `yaml:"serial_baud"`
		GPIOChip      string `yaml:"gpio_chip"`
		GPIOOffsets   []int  `yaml:"gpio_offsets"`
		HamlibModel   int    `yaml:"hamlib_model"`
		HamlibPort    string `yaml:"hamlib_port"`
	} `yaml:"hardware"`

	DNSSD struct {
		Enabled bool   `yaml:"enabled"`
		Name    string `yaml:"name"`
		Port    int    `yaml:"port"`
	} `yaml:"dns_sd"`
}

// defaultConfig is used when no config file is given, sized for the
// synthetic backend's bundled signal path.
func defaultConfig() Config {
	var c Config
	c.Backend = "synthetic"
	c.VNA.StartHz = 1_000_000
	c.VNA.StopHz = 100_000_000
	c.VNA.Points = 21
	c.SA.CenterHz = 2_450_000_000
	c.SA.SampleRate = 48_000
	c.SA.FFTLength = 1024
	c.DNSSD.Name = "meascore-sim"
	c.DNSSD.Port = 7373
	return c
}

// loadConfig reads and parses a YAML config file, falling back to
// defaultConfig() when path is empty.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("measctl: read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("measctl: parse config %s: %w", path, err)
	}
	return cfg, nil
}
