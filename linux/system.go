package linux

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
	"github.com/pkg/errors"
	"machinerun.io/blockfacts"
	"machinerun.io/blockfacts/aacraid"
	"machinerun.io/blockfacts/megaraid"
	"machinerun.io/blockfacts/smart"
	"machinerun.io/blockfacts/twcli"
)

// aacraidController is the arcconf controller assumed to back the primary
// device.
const aacraidController = 1

// Scanner discovers the block devices of a host and the disks behind them.
type Scanner struct {
	// Patterns are the sysfs block entries scanned, see DefaultPatterns.
	Patterns []string

	// PrimaryDevice is the only device whose raid controller is guessed.
	PrimaryDevice string

	// Adapters names pci host adapters. nil disables the lookup.
	Adapters AdapterNamer

	sysfs    *Sysfs
	devRoot  string
	smart    smart.Smart
	twCli    twcli.TwCli
	arcConf  aacraid.AacRaid
	megaRaid megaraid.MegaRaid
	log      logr.Logger
}

// NewScanner returns a Scanner reading sysfs, addressing device nodes below
// devRoot and running every external tool through runner.
func NewScanner(sysfs *Sysfs, devRoot string, runner blockfacts.Runner, log logr.Logger) *Scanner {
	return &Scanner{
		Patterns:      DefaultPatterns,
		PrimaryDevice: PrimaryDevice,
		sysfs:         sysfs,
		devRoot:       devRoot,
		smart:         smart.SmartCtl(runner),
		twCli:         twcli.New(runner, log),
		arcConf:       aacraid.ArcConf(runner, log),
		megaRaid:      megaraid.CachingStorCli(runner),
		log:           log,
	}
}

// Scan runs one discovery pass. A failure while querying a device is logged
// and the device is kept with what was found so far. Usb devices and devices
// whose driver cannot be resolved are left out. Only a failure to list the
// devices fails the scan.
func (s *Scanner) Scan(ctx context.Context) (blockfacts.Topology, error) {
	topo := blockfacts.NewTopology()

	devs, err := s.sysfs.Enumerate(s.Patterns)
	if err != nil {
		return topo, err
	}

	for i := range devs {
		dev := devs[i]

		s.log.V(1).Info("Running for device", "device", dev.Name)

		keep, err := s.scanDevice(ctx, &dev)
		if err != nil {
			s.log.V(1).Info("exception while processing device", "device", dev.Name, "error", err.Error())
		}

		if !keep {
			continue
		}

		s.log.V(1).Info("Finished information retrieval for device", "device", dev.Name,
			"driver", dev.Driver.Value, "disks", dev.DiskIDs())
		topo.Devices = append(topo.Devices, dev)
	}

	return topo, nil
}

func (s *Scanner) scanDevice(ctx context.Context, dev *blockfacts.BlockDevice) (bool, error) {
	driver, addr, err := s.sysfs.ResolveDriver(dev)
	if err != nil {
		return false, err
	}

	dev.Driver = blockfacts.Resolve(driver)
	dev.PCIAddress = addr
	dev.Category = Categorize(driver)

	if dev.Category == blockfacts.USB {
		s.log.V(1).Info("usb device, ignoring", "device", dev.Name, "driver", driver)
		return false, nil
	}

	if vendor, err := s.sysfs.ResolveVendor(dev); err != nil {
		s.log.V(1).Info("vendor unknown", "device", dev.Name, "error", err.Error())
	} else {
		dev.Vendor = blockfacts.Resolve(vendor)
	}

	if s.Adapters != nil && addr != "" {
		dev.Adapter = s.Adapters.AdapterName(addr)
	}

	return true, s.inspect(ctx, dev)
}

func (s *Scanner) inspect(ctx context.Context, dev *blockfacts.BlockDevice) error {
	devPath := dev.DevPath(s.devRoot)

	//exhaustive:ignore
	switch dev.Category {
	case blockfacts.ATA:
		return s.querySmart(ctx, dev, devPath, smart.TypeATA)
	case blockfacts.SAS:
		return s.querySmart(ctx, dev, devPath, smart.TypeAuto)
	case blockfacts.MegaRAID:
		return s.queryMegaRAID(ctx, dev, devPath)
	case blockfacts.ThreeWare:
		return s.queryThreeWare(ctx, dev)
	case blockfacts.AACRAID:
		return s.queryAACRAID(ctx, dev)
	case blockfacts.SCSIRAID:
		return s.querySCSIRAID(ctx, dev, devPath)
	case blockfacts.SoftwareRAID:
		return s.querySoftwareRAID(dev)
	case blockfacts.Unresolved:
		s.log.V(1).Info("no driver", "device", dev.Name)
	default:
		s.log.V(1).Info("unknown driver", "device", dev.Name, "driver", dev.Driver.Value)
	}

	return nil
}

func (s *Scanner) querySmart(ctx context.Context, dev *blockfacts.BlockDevice, devPath, devType string) error {
	disk, err := s.smart.Identify(ctx, dev.Name, devPath, devType)
	if err != nil {
		return err
	}

	dev.Disks = append(dev.Disks, disk)

	return nil
}

func (s *Scanner) queryMegaRAID(ctx context.Context, dev *blockfacts.BlockDevice, devPath string) error {
	disks, sweepErr := megaraid.Sweep(ctx, s.smart, dev.Name, devPath)
	dev.Disks = append(dev.Disks, disks...)

	ctrl, vd, err := megaraid.VirtDriveByPath(ctx, s.megaRaid, devPath)

	switch {
	case err == nil:
		dev.SetController(ctrl.ID)
		dev.RAIDType = vd.RAIDLevel()
		megaraid.Annotate(dev.Disks, ctrl)
	case err == megaraid.ErrNoStorcli, errors.Is(err, megaraid.ErrNoVirtDrive):
		s.log.V(1).Info("no storcli virtual drive", "device", dev.Name, "error", err.Error())
	default:
		s.log.V(1).Info("storcli failed", "device", dev.Name, "error", err.Error())
	}

	return sweepErr
}

func (s *Scanner) primaryOnly(dev *blockfacts.BlockDevice) error {
	if dev.Name != s.PrimaryDevice {
		return errors.Wrapf(blockfacts.ErrUnknownBackingDevice, "%s for %s", dev.Name, dev.Driver.Value)
	}

	return nil
}

func (s *Scanner) queryThreeWare(ctx context.Context, dev *blockfacts.BlockDevice) error {
	if err := s.primaryOnly(dev); err != nil {
		return err
	}

	controllers, err := s.twCli.List(ctx)
	if err != nil {
		return err
	}

	// sda is taken to be the first listed controller.
	cID := controllers[0]
	s.log.V(1).Info("3ware controllers", "controllers", controllers, "controller", cID)

	if dev.RAIDType, err = s.twCli.RAIDType(ctx, cID); err != nil {
		return err
	}

	disks, err := s.twCli.Disks(ctx, dev.Name, cID)
	if err != nil {
		return err
	}

	dev.Disks = disks
	dev.SetController(cID)

	return nil
}

func (s *Scanner) queryAACRAID(ctx context.Context, dev *blockfacts.BlockDevice) error {
	if err := s.primaryOnly(dev); err != nil {
		return err
	}

	raidType, err := s.arcConf.RAIDType(ctx, aacraidController)
	if err != nil {
		return err
	}

	dev.RAIDType = raidType

	disks, err := s.arcConf.Disks(ctx, dev.Name, aacraidController)
	if err != nil {
		return err
	}

	dev.Disks = disks

	return nil
}

// querySCSIRAID - an mptspi device is a plain scsi disk or a raid volume.
// If it does not identify as a disk, every scsi generic node without a
// block device is taken to be a member of the volume.
func (s *Scanner) querySCSIRAID(ctx context.Context, dev *blockfacts.BlockDevice, devPath string) error {
	err := s.querySmart(ctx, dev, devPath, smart.TypeSCSI)
	if err == nil {
		return nil
	}

	s.log.V(1).Info("mptspi device appears not to be a disk", "device", dev.Name, "error", err.Error())

	nodes, err := s.sysfs.UnclaimedGenericSCSI(s.devRoot)
	if err != nil {
		return err
	}

	for _, sg := range nodes {
		disk, err := s.smart.Identify(ctx, fmt.Sprintf("%s_%d", dev.Name, sg.Index), sg.DevPath, smart.TypeSCSI)
		if err != nil {
			// processors, enclosures and such
			continue
		}

		dev.Disks = append(dev.Disks, disk)
	}

	return nil
}

func (s *Scanner) querySoftwareRAID(dev *blockfacts.BlockDevice) error {
	level, err := s.sysfs.RAIDLevel(dev)
	if err != nil {
		return err
	}

	dev.RAIDType = level

	members, err := s.sysfs.Members(dev)
	if err != nil {
		return err
	}

	for _, m := range members {
		dev.Disks = append(dev.Disks, blockfacts.MemberDisk(m))
	}

	return nil
}
