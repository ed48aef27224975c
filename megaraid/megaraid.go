// Package megaraid finds disks behind LSI/Broadcom megaraid_sas controllers.
package megaraid

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

// Controller - a Megaraid controller
type Controller struct {
	ID         int
	Drives     DriveSet
	VirtDrives VirtDriveSet
}

// VirtDrive - represents a virtual drive.
type VirtDrive struct {
	// the Virtual Drive Number / ID
	ID int
	// the Drive Group ID
	DriveGroup int
	// Path in linux - may be empty if "Exposed to OS" != "Yes"
	Path string
	// "Name" in output - exposed in cimc UI
	RaidName string
	// Type RAID type (RAID0, RAID1...)
	Type  string
	State string
	// "VD0 Properties" as a map
	Properties map[string]string
}

var raidTypeRe = regexp.MustCompile(`^RAID([0-9]+)$`)

// RAIDLevel - the numeric raid level of the virtual drive, RAID5 -> 5.
// Types without a plain level give "".
func (vd *VirtDrive) RAIDLevel() string {
	toks := raidTypeRe.FindStringSubmatch(vd.Type)
	if toks == nil {
		return ""
	}

	return toks[1]
}

// VirtDriveSet - a map of VirtDrives by their Number.
type VirtDriveSet map[int]*VirtDrive

// Drive - a megaraid (physical) Drive. ID is the device id that smartctl
// addresses as megaraid,ID.
type Drive struct {
	ID         int
	DriveGroup int
	EID        int
	Slot       int
	State      string
	MediaType  MediaType
	Model      string
}

// SlotPath - storcli path of the drive, /cC/eE/sS.
func (d *Drive) SlotPath(cID int) string {
	return fmt.Sprintf("/c%d/e%d/s%d", cID, d.EID, d.Slot)
}

// DriveSet - just a map of Drives by ID
type DriveSet map[int]*Drive

// MediaType - a disk "Media"
type MediaType int

const (
	// UnknownMedia - indicates an unknown media
	UnknownMedia MediaType = iota

	// HDD - Spinning hard disk.
	HDD

	// SSD - Solid State Disk
	SSD
)

func (t MediaType) String() string {
	return []string{"UNKNOWN", "HDD", "SSD"}[t]
}

// MegaRaid - basic interface
type MegaRaid interface {
	// Query - Query the controller provided
	Query(ctx context.Context, cID int) (Controller, error)
}

// ErrNoController - Error reported by Query if no controller is found.
var ErrNoController = errors.New("megaraid Controller not found")

// ErrUnsupported - Error reported by Query if controller is not supported.
var ErrUnsupported = errors.New("megaraid Controller unsupported")

// ErrNoStorcli - Error reported by Query if no storcli binary in PATH
var ErrNoStorcli = errors.New("no 'storcli' command in PATH")

// ErrNoVirtDrive - no controller exposes a virtual drive at the path.
var ErrNoVirtDrive = errors.New("no megaraid virtual drive for path")
