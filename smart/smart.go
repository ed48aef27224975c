// Package smart reads the identity of a disk out of smartctl -i output.
package smart

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"machinerun.io/blockfacts"
)

// Device types accepted by smartctl -d.
const (
	TypeATA  = "ata"
	TypeSCSI = "scsi"
	TypeAuto = "auto"
)

var (
	deviceModelRe = regexp.MustCompile(`(?m)^Device Model: +(.*)$`)
	productRe     = regexp.MustCompile(`(?m)^Product: +(.*)$`)
	serialRe      = regexp.MustCompile(`(?m)^Serial [Nn]umber: +(.*)$`)
)

// Smart - identify disks with smartctl.
type Smart interface {
	// Identify runs smartctl -i -d devType devPath and returns the disk
	// identified as id.
	Identify(ctx context.Context, id, devPath, devType string) (blockfacts.Disk, error)
}

type smartCtl struct {
	runner blockfacts.Runner
}

// SmartCtl returns a Smart running smartctl through runner.
func SmartCtl(runner blockfacts.Runner) Smart {
	return &smartCtl{runner: runner}
}

// MegaRAID returns the device type for physical disk n behind a megaraid
// controller.
func MegaRAID(n int) string {
	return "megaraid," + strconv.Itoa(n)
}

// MegaRAIDID returns the device id of a megaraid,N device type.
func MegaRAIDID(devType string) (int, bool) {
	n, found := strings.CutPrefix(devType, "megaraid,")
	if !found {
		return 0, false
	}

	id, err := strconv.Atoi(n)

	return id, err == nil
}

func (sc *smartCtl) Identify(ctx context.Context, id, devPath, devType string) (blockfacts.Disk, error) {
	out, err := sc.runner.Run(ctx, blockfacts.SmartCtl, "-i", "-d", devType, devPath)
	if err != nil {
		return blockfacts.Disk{}, errors.Wrapf(err, "smartctl %s on %s", devType, devPath)
	}

	disk, err := parseInfo(id, string(out))
	disk.Source.Locator = devPath
	disk.Source.Type = devType

	return disk, err
}

// parseInfo extracts vendor, model and serial from smartctl -i output.
// An ata disk reports "Device Model", a scsi disk "Product".
func parseInfo(id string, out string) (blockfacts.Disk, error) {
	disk := blockfacts.Disk{ID: id, Source: blockfacts.Source{Kind: blockfacts.SourceSmart}}

	vendorModel := firstMatch(deviceModelRe, out)
	if vendorModel == "" {
		vendorModel = firstMatch(productRe, out)
	}

	if vendorModel != "" {
		disk.Vendor, disk.Model = blockfacts.SplitVendor(vendorModel)
	}

	disk.Serial = firstMatch(serialRe, out)

	return disk, disk.Validate()
}

func firstMatch(re *regexp.Regexp, out string) string {
	toks := re.FindStringSubmatch(out)
	if toks == nil {
		return ""
	}

	return strings.TrimRight(toks[1], " \t\r")
}
