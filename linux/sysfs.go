package linux

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/go-logr/logr"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"machinerun.io/blockfacts"
)

// DefaultPatterns are the block device entries that are scanned.
//nolint:gochecknoglobals
var DefaultPatterns = []string{"sd?", "md?", "cciss!c?d?"}

var (
	pciAddrRe   = regexp.MustCompile(`(?i)^[0-9a-f:.]+$`)
	raidLevelRe = regexp.MustCompile(`^raid(\d+)`)
)

// Sysfs reads the block topology out of a sysfs tree.
type Sysfs struct {
	fs  afero.Fs
	log logr.Logger
}

// GenericSCSI is a scsi generic node that no block device claims.
type GenericSCSI struct {
	Index   int
	DevPath string
}

// NewSysfs returns a Sysfs reading the tree below root (normally /sys).
func NewSysfs(root string, log logr.Logger) *Sysfs {
	return NewSysfsFs(afero.NewBasePathFs(afero.NewOsFs(), root), log)
}

// NewSysfsFs returns a Sysfs reading fs, whose root is the sysfs root.
func NewSysfsFs(fs afero.Fs, log logr.Logger) *Sysfs {
	return &Sysfs{fs: fs, log: log}
}

// Enumerate lists block devices matching patterns, in pattern order. An
// entry name such as cciss!c0d0 becomes the device name cciss_c0d0.
func (s *Sysfs) Enumerate(patterns []string) ([]blockfacts.BlockDevice, error) {
	devs := []blockfacts.BlockDevice{}

	for _, pattern := range patterns {
		matches, err := afero.Glob(s.fs, path.Join("block", pattern))
		if err != nil {
			return devs, errors.Wrapf(err, "bad pattern %s", pattern)
		}

		for _, m := range matches {
			name := strings.Replace(filepath.Base(m), "!", "_", 1)
			devs = append(devs, blockfacts.NewBlockDevice(name))
		}
	}

	return devs, nil
}

func (s *Sysfs) readlink(name string) (string, error) {
	lr, ok := s.fs.(afero.LinkReader)
	if !ok {
		return "", &os.PathError{Op: "readlink", Path: name, Err: afero.ErrNoReadlink}
	}

	return lr.ReadlinkIfPossible(name)
}

// ResolveDriver determines the kernel driver of the host adapter owning dev
// by following its sysfs link. It returns the driver (empty for a device on
// the platform bus) and the pci address of the adapter, if any.
func (s *Sysfs) ResolveDriver(dev *blockfacts.BlockDevice) (string, string, error) {
	link, err := s.readlink(path.Join("block", dev.SysName()))
	if err != nil {
		return "", "", errors.Wrapf(err, "no sysfs link for %s", dev.Name)
	}

	parts := strings.Split(link, "/")
	if len(parts) < 3 || parts[0] != ".." || parts[1] != "devices" {
		return "", "", errors.Errorf("bad sysfs link for %s: %s", dev.Name, link)
	}

	parts = parts[2:]

	switch {
	case parts[0] == "virtual":
		if strings.HasPrefix(dev.Name, "md") {
			return blockfacts.SoftwareRAIDDriver, "", nil
		}

		return "", "", errors.Errorf("unknown driver for virtual device %s", dev.Name)
	case parts[0] == "platform":
		s.log.V(1).Info("platform device, no driver", "device", dev.Name, "link", link)
		return "", "", nil
	case !strings.HasPrefix(parts[0], "pci"):
		return "", "", errors.Errorf("non-pci device %s", dev.Name)
	}

	driverLink := []string{"devices", parts[0]}
	addr := ""

	for _, p := range parts[1:] {
		if !pciAddrRe.MatchString(p) {
			break
		}

		driverLink = append(driverLink, p)
		addr = p
	}

	driverLink = append(driverLink, "driver")

	target, err := s.readlink(path.Join(driverLink...))
	if err != nil || target == "" {
		return "", addr, errors.Errorf("no driver for %s", dev.Name)
	}

	return path.Base(target), addr, nil
}

// ResolveVendor returns the vendor of dev. Software raid arrays are always
// made by "Linux".
func (s *Sysfs) ResolveVendor(dev *blockfacts.BlockDevice) (string, error) {
	if dev.Driver.Value == blockfacts.SoftwareRAIDDriver {
		return blockfacts.SoftwareRAIDVendor, nil
	}

	content, err := afero.ReadFile(s.fs, path.Join("block", dev.SysName(), "device", "vendor"))
	if err != nil {
		return "", errors.Wrapf(err, "no vendor for %s", dev.Name)
	}

	return strings.TrimRight(string(content), " \t\r\n"), nil
}

// RAIDLevel returns the numeric raid level of a software raid array. Levels
// without a number (linear, container) give "".
func (s *Sysfs) RAIDLevel(dev *blockfacts.BlockDevice) (string, error) {
	content, err := afero.ReadFile(s.fs, path.Join("block", dev.SysName(), "md", "level"))
	if err != nil {
		return "", errors.Wrapf(err, "no raid level for %s", dev.Name)
	}

	toks := raidLevelRe.FindStringSubmatch(strings.TrimSpace(string(content)))
	if toks == nil {
		return "", nil
	}

	return toks[1], nil
}

// Members lists the member device names of a software raid array.
func (s *Sysfs) Members(dev *blockfacts.BlockDevice) ([]string, error) {
	matches, err := afero.Glob(s.fs, path.Join("block", dev.SysName(), "slaves", "*"))
	if err != nil {
		return nil, errors.Wrapf(err, "reading members of %s", dev.Name)
	}

	members := make([]string, 0, len(matches))
	for _, m := range matches {
		members = append(members, filepath.Base(m))
	}

	sort.Strings(members)

	return members, nil
}

// UnclaimedGenericSCSI lists the scsi generic nodes whose device has no
// block device attached. devRoot is the directory holding the sgN nodes.
func (s *Sysfs) UnclaimedGenericSCSI(devRoot string) ([]GenericSCSI, error) {
	matches, err := afero.Glob(s.fs, "class/scsi_generic/sg?/device")
	if err != nil {
		return nil, err
	}

	found := []GenericSCSI{}

	for _, m := range matches {
		if ok, _ := afero.Exists(s.fs, path.Join(m, "block")); ok {
			continue
		}

		sg := filepath.Base(filepath.Dir(m))

		var n int
		if _, err := fmt.Sscanf(sg, "sg%d", &n); err != nil {
			continue
		}

		found = append(found, GenericSCSI{Index: n, DevPath: path.Join(devRoot, sg)})
	}

	return found, nil
}
