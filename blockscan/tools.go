package main

import (
	"fmt"

	"github.com/urfave/cli/v2"
	"machinerun.io/blockfacts"
	"machinerun.io/blockfacts/linux"
)

//nolint:gochecknoglobals
var splitVendorCommand = cli.Command{
	Name:      "split-vendor",
	Usage:     "Split identity strings into vendor and model",
	ArgsUsage: "string...",
	Action:    splitVendor,
}

//nolint:gochecknoglobals
var toolsCommand = cli.Command{
	Name:   "tools",
	Usage:  "Show where the probing tools are found",
	Action: tools,
}

func splitVendor(c *cli.Context) error {
	if c.Args().Len() == 0 {
		return fmt.Errorf("need at least one string to split")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	blockfacts.AddVendors(cfg.KnownVendors...)

	data := [][]string{{"Input", "Vendor", "Model"}}

	for _, s := range c.Args().Slice() {
		vendor, model := blockfacts.SplitVendor(s)
		data = append(data, []string{s, vendor, model})
	}

	printTextTable(data)

	return nil
}

func tools(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	locator := linux.NewLocator(cfg.SearchPath...)
	data := [][]string{{"Tool", "Path"}}

	for _, tool := range []blockfacts.Tool{blockfacts.SmartCtl, blockfacts.TwCli, blockfacts.ArcConf, blockfacts.StorCli} {
		found, err := locator.Find(tool)
		if err != nil {
			found = "-"
		}

		data = append(data, []string{string(tool), found})
	}

	printTextTable(data)

	return nil
}
