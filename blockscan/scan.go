package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-logr/logr"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
	"machinerun.io/blockfacts"
	"machinerun.io/blockfacts/config"
	"machinerun.io/blockfacts/linux"
	"machinerun.io/blockfacts/mockos"
)

//nolint:gochecknoglobals
var scanCommand = cli.Command{
	Name:   "scan",
	Usage:  "Run a discovery pass and print the facts",
	Action: scan,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Value:   "facts",
			Usage:   "output format: facts, json or yaml",
		},
	},
}

//nolint:gochecknoglobals
var devicesCommand = cli.Command{
	Name:   "devices",
	Usage:  "Run a discovery pass and show the devices (human)",
	Action: devices,
}

// loadConfig reads the config file and applies the global flags over it.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return cfg, err
	}

	if c.IsSet("sys-root") {
		cfg.SysRoot = c.String("sys-root")
	}

	if c.IsSet("dev-root") {
		cfg.DevRoot = c.String("dev-root")
	}

	if c.IsSet("timeout") {
		cfg.CommandTimeout = c.Duration("timeout")
	}

	return cfg, cfg.Validate()
}

func newRunner(c *cli.Context, cfg config.Config, log logr.Logger) (blockfacts.Runner, error) {
	if fixture := c.String("commands"); fixture != "" {
		return mockos.Load(fixture)
	}

	return linux.Runner(linux.NewLocator(cfg.SearchPath...), cfg.CommandTimeout, log), nil
}

func runScan(c *cli.Context) (blockfacts.Topology, error) {
	log, err := newLogger(c.Bool("debug"))
	if err != nil {
		return blockfacts.Topology{}, err
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return blockfacts.Topology{}, err
	}

	blockfacts.AddVendors(cfg.KnownVendors...)

	runner, err := newRunner(c, cfg, log)
	if err != nil {
		return blockfacts.Topology{}, err
	}

	scanner := linux.NewScanner(linux.NewSysfs(cfg.SysRoot, log), cfg.DevRoot, runner, log)
	scanner.Patterns = cfg.Patterns
	scanner.PrimaryDevice = cfg.PrimaryDevice

	if cfg.PCILookup {
		adapters, err := linux.PCIAdapters()
		if err != nil {
			log.Info("pci lookup disabled", "error", err.Error())
		} else {
			scanner.Adapters = adapters
		}
	}

	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}

	topo, err := scanner.Scan(ctx)
	if err != nil {
		return topo, errors.Wrap(err, "scan failed")
	}

	log.V(1).Info("scan complete", "scan", topo.ScanID, "devices", len(topo.Devices))

	return topo, nil
}

func scan(c *cli.Context) error {
	topo, err := runScan(c)
	if err != nil {
		return err
	}

	switch format := c.String("format"); format {
	case "facts":
		for _, f := range topo.Facts() {
			fmt.Printf("%s => %s\n", f.Name, f.Value)
		}
	case "json":
		jbytes, err := json.MarshalIndent(&topo, "", "  ")
		if err != nil {
			return err
		}

		fmt.Printf("%s\n", string(jbytes))
	case "yaml":
		ybytes, err := yaml.Marshal(&topo)
		if err != nil {
			return err
		}

		fmt.Print(string(ybytes))
	default:
		return fmt.Errorf("unknown format '%s'", format)
	}

	return nil
}

func devices(c *cli.Context) error {
	topo, err := runScan(c)
	if err != nil {
		return err
	}

	data := [][]string{{"Name", "Driver", "Vendor", "Adapter", "Controller", "Raid", "Disks"}}

	for _, d := range topo.Devices {
		ctrl := ""
		if d.Controller != nil {
			ctrl = strconv.Itoa(*d.Controller)
		}

		raid := "-"
		if d.IsRAID() {
			raid = d.RAIDType
			if raid == "" {
				raid = "yes"
			}
		}

		data = append(data, []string{d.Name, d.Driver.Value, d.Vendor.Value, d.Adapter,
			ctrl, raid, strings.Join(d.DiskIDs(), ",")})
	}

	printTextTable(data)

	for _, d := range topo.Devices {
		if d.Driver.Value == blockfacts.SoftwareRAIDDriver || len(d.Disks) == 0 {
			continue
		}

		fmt.Printf("\n%s:\n", d.Name)

		disks := [][]string{{"ID", "Vendor", "Model", "Serial", "Slot", "Media"}}
		for _, disk := range d.Disks {
			disks = append(disks, []string{disk.ID, disk.Vendor, disk.Model, disk.Serial, disk.Slot, disk.Media})
		}

		printTextTable(disks)
	}

	return nil
}
