package blockfacts

import (
	"path"
	"strings"

	"github.com/pkg/errors"
	uuid "github.com/satori/go.uuid"
)

// Attribute is a sysfs derived value that is either unresolved or resolved.
// A resolved Attribute may still hold an empty Value (a device on a pseudo
// bus has no driver).
type Attribute struct {
	Value    string
	Resolved bool
}

// Resolve returns the Attribute in the resolved state holding v.
func Resolve(v string) Attribute {
	return Attribute{Value: v, Resolved: true}
}

// Known is true when the attribute was resolved to a non-empty value.
func (a Attribute) Known() bool {
	return a.Resolved && a.Value != ""
}

// DriverCategory is the closed set of driver families the scanner knows how
// to query.
type DriverCategory int

const (
	// Unresolved - the driver could not be determined (pseudo bus).
	Unresolved DriverCategory = iota

	// Unknown - a driver that is not in the dispatch table.
	Unknown

	// ATA - plain (s)ata host adapters, queried with smartctl directly.
	ATA

	// SAS - sas host bus adapters, queried with smartctl auto detection.
	SAS

	// MegaRAID - LSI megaraid_sas, swept through smartctl megaraid,N.
	MegaRAID

	// ThreeWare - 3ware controllers, queried with tw-cli.
	ThreeWare

	// AACRAID - Adaptec controllers, queried with arcconf.
	AACRAID

	// SCSIRAID - LSI mptspi, a plain scsi disk or a raid volume.
	SCSIRAID

	// SoftwareRAID - linux md arrays.
	SoftwareRAID

	// USB - pluggable usb storage, dropped from the result.
	USB
)

func (c DriverCategory) String() string {
	return []string{
		"unresolved", "unknown", "ata", "sas", "megaraid", "3ware",
		"aacraid", "scsiraid", "swraid", "usb"}[c]
}

// MarshalText for string output rather than int
func (c DriverCategory) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// SoftwareRAIDDriver is the pseudo driver name given to md arrays.
const SoftwareRAIDDriver = "swraid"

// SoftwareRAIDVendor is the vendor reported for md arrays.
const SoftwareRAIDVendor = "Linux"

// BlockDevice is a top level block device as the kernel sees it.
type BlockDevice struct {
	// Name is the device identifier, e.g. sda, md0 or cciss_c0d0.
	Name string

	Driver   Attribute
	Vendor   Attribute
	Category DriverCategory

	// PCIAddress of the host adapter, empty when not on a pci bus.
	PCIAddress string `json:",omitempty" yaml:",omitempty"`

	// Adapter is the "Vendor Product" name of the host adapter.
	Adapter string `json:",omitempty" yaml:",omitempty"`

	RAIDType   string `json:",omitempty" yaml:",omitempty"`
	Controller *int   `json:",omitempty" yaml:",omitempty"`

	Disks []Disk
}

// NewBlockDevice returns an unresolved BlockDevice named name.
func NewBlockDevice(name string) BlockDevice {
	return BlockDevice{Name: name, Disks: []Disk{}}
}

// DevPath returns the device node of d below devRoot.
//
//	cciss_c0d0 -> <devRoot>/cciss/c0d0
func (d *BlockDevice) DevPath(devRoot string) string {
	return path.Join(devRoot, strings.Replace(d.Name, "_", "/", 1))
}

// SysName returns the entry name of d in the sysfs block directory.
//
//	cciss_c0d0 -> cciss!c0d0
func (d *BlockDevice) SysName() string {
	return strings.Replace(d.Name, "_", "!", 1)
}

// SetController records the controller index owning d.
func (d *BlockDevice) SetController(c int) {
	d.Controller = &c
}

// IsRAID - a device backed by more than one disk is a raid aggregate.
func (d *BlockDevice) IsRAID() bool {
	return len(d.Disks) > 1
}

// DiskIDs returns the disk ids in order.
func (d *BlockDevice) DiskIDs() []string {
	ids := make([]string, 0, len(d.Disks))
	for _, disk := range d.Disks {
		ids = append(ids, disk.ID)
	}

	return ids
}

// SourceKind tells where the information of a Disk came from.
type SourceKind int

const (
	// SourceMember - a software raid member, no vendor/model/serial exists.
	SourceMember SourceKind = iota

	// SourceSmart - queried with smartctl.
	SourceSmart

	// SourceCLI - reported by a raid controller cli.
	SourceCLI
)

func (k SourceKind) String() string {
	return []string{"member", "smart", "cli"}[k]
}

// MarshalText for string output rather than int
func (k SourceKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Source identifies the query that produced a Disk.
type Source struct {
	Kind SourceKind

	// Locator is the device path (smart) or tool path (cli) that was queried.
	Locator string `json:",omitempty" yaml:",omitempty"`

	// Type is the smartctl -d argument (ata, scsi, megaraid,N ...) or the
	// cli tool name.
	Type string `json:",omitempty" yaml:",omitempty"`
}

// Disk is a physical or logical drive backing a BlockDevice.
type Disk struct {
	ID     string
	Source Source
	Vendor string `json:",omitempty" yaml:",omitempty"`
	Model  string `json:",omitempty" yaml:",omitempty"`
	Serial string `json:",omitempty" yaml:",omitempty"`

	// Slot is the controller path of the bay holding the disk, when the
	// raid tool reports one (/c0/e134/s2).
	Slot string `json:",omitempty" yaml:",omitempty"`

	// Media is HDD or SSD when the raid tool reports it.
	Media string `json:",omitempty" yaml:",omitempty"`
}

// MemberDisk returns a software raid member disk.
func MemberDisk(id string) Disk {
	return Disk{ID: id, Source: Source{Kind: SourceMember}}
}

// CLIDisk returns a disk reported by a raid controller tool. When vendor is
// empty it is split off the model string.
func CLIDisk(id, tool, vendor, model, serial string) (Disk, error) {
	if vendor == "" {
		vendor, model = SplitVendor(model)
	}

	d := Disk{
		ID:     id,
		Source: Source{Kind: SourceCLI, Type: tool},
		Vendor: vendor,
		Model:  model,
		Serial: serial,
	}

	return d, d.Validate()
}

// Validate - a smart or cli disk needs both a model and a serial.
func (d Disk) Validate() error {
	if d.Source.Kind == SourceMember {
		return nil
	}

	if d.Model == "" {
		return errors.Errorf("model not found for %s", d.ID)
	}

	if d.Serial == "" {
		return errors.Errorf("serial not found for %s", d.ID)
	}

	return nil
}

// Topology is the result of one discovery pass.
type Topology struct {
	ScanID  string
	Devices []BlockDevice
}

// NewTopology returns an empty Topology with a fresh scan id.
func NewTopology() Topology {
	return Topology{
		ScanID:  uuid.NewV4().String(),
		Devices: []BlockDevice{},
	}
}

// Device returns the device named name.
func (t *Topology) Device(name string) (BlockDevice, bool) {
	for _, d := range t.Devices {
		if d.Name == name {
			return d, true
		}
	}

	return BlockDevice{}, false
}
