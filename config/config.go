// Package config holds the settings of a discovery pass.
package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
	"machinerun.io/blockfacts/linux"
)

// DefaultCommandTimeout bounds each external tool run.
const DefaultCommandTimeout = 30 * time.Second

// Config - settings of a discovery pass.
type Config struct {
	// SysRoot is the sysfs mount point.
	SysRoot string `yaml:"sys_root"`

	// DevRoot is the directory holding the device nodes.
	DevRoot string `yaml:"dev_root"`

	// SearchPath are directories searched for tools after $PATH and the
	// system directories.
	SearchPath []string `yaml:"search_path"`

	CommandTimeout time.Duration `yaml:"command_timeout"`

	// KnownVendors extend the vendor lexicon.
	KnownVendors []string `yaml:"known_vendors"`

	// Patterns are the sysfs block entries that are scanned.
	Patterns []string `yaml:"patterns"`

	PrimaryDevice string `yaml:"primary_device"`

	// PCILookup enables naming host adapters from the pci database.
	PCILookup bool `yaml:"pci_lookup"`
}

// Default returns the settings used without a config file.
func Default() Config {
	return Config{
		SysRoot:        "/sys",
		DevRoot:        "/dev",
		SearchPath:     []string{},
		CommandTimeout: DefaultCommandTimeout,
		KnownVendors:   []string{},
		Patterns:       append([]string{}, linux.DefaultPatterns...),
		PrimaryDevice:  linux.PrimaryDevice,
		PCILookup:      true,
	}
}

// Load reads the yaml file at path over the defaults. An empty path gives
// the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "reading config")
	}

	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parsing config %s", path)
	}

	return cfg, cfg.Validate()
}

// Validate - check that the settings can be used for a scan.
func (c Config) Validate() error {
	switch {
	case c.SysRoot == "":
		return errors.New("sys_root must not be empty")
	case c.DevRoot == "":
		return errors.New("dev_root must not be empty")
	case c.CommandTimeout <= 0:
		return errors.Errorf("command_timeout must be positive, got %s", c.CommandTimeout)
	case len(c.Patterns) == 0:
		return errors.New("patterns must not be empty")
	case c.PrimaryDevice == "":
		return errors.New("primary_device must not be empty")
	}

	return nil
}
