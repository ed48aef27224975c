// Package aacraid queries Adaptec controllers with arcconf.
package aacraid

import (
	"context"
	"errors"

	"machinerun.io/blockfacts"
)

// PhysicalDevice is one "Device #N" entry of arcconf GETCONFIG PD.
type PhysicalDevice struct {
	ID           int
	HardDrive    bool
	State        string
	Vendor       string
	Model        string
	SerialNumber string
}

// LogicalDevice is one "Logical Device number N" entry of arcconf GETCONFIG LD.
type LogicalDevice struct {
	ID        int
	Name      string
	RAIDLevel string
}

// AacRaid - basic interface
type AacRaid interface {
	// RAIDType - Return the numeric raid level of the first logical device
	RAIDType(ctx context.Context, cID int) (string, error)

	// Disks - Return the hard drives of controller cID, named <dev>_<N>
	Disks(ctx context.Context, dev string, cID int) ([]blockfacts.Disk, error)
}

// ErrNoRAIDType - no logical device reports a numeric raid level.
var ErrNoRAIDType = errors.New("unable to detect raidtype")

// ErrNoPhysicalDevice - no Device entry found in arcconf output.
var ErrNoPhysicalDevice = errors.New("no physical device in arcconf output")
