package megaraid

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"machinerun.io/blockfacts"
	"machinerun.io/blockfacts/smart"
)

// maxControllers bounds the controller walk of VirtDriveByPath.
const maxControllers = 16

// osDriveName is the virtual drive property holding its linux device path.
const osDriveName = "OS Drive Name"

type storCli struct {
	runner blockfacts.Runner
}

// StorCli returns a storcli specific implementation of Query
func StorCli(runner blockfacts.Runner) MegaRaid {
	return &storCli{runner: runner}
}

func (sc *storCli) storcli(ctx context.Context, args ...string) (string, error) {
	out, err := sc.runner.Run(ctx, blockfacts.StorCli, append(args, "nolog")...)
	if errors.Is(err, blockfacts.ErrToolNotFound) {
		return "", ErrNoStorcli
	} else if err != nil {
		return "", err
	}

	return string(out), nil
}

// Query reads the drives of controller cID from 'storcli /cN show' and the
// linux paths of its virtual drives from 'storcli /cN/vall show all'.
func (sc *storCli) Query(ctx context.Context, cID int) (Controller, error) {
	showOut, err := sc.storcli(ctx, fmt.Sprintf("/c%d", cID), "show")
	if err != nil {
		return Controller{}, err
	}

	vallOut, err := sc.storcli(ctx, fmt.Sprintf("/c%d/vall", cID), "show", "all")
	if err != nil {
		return Controller{}, err
	}

	return newController(cID, showOut, vallOut)
}

func newController(cID int, showOut, vallOut string) (Controller, error) {
	ctrl := Controller{ID: cID}

	vds, pds, err := parseShow(showOut)
	if err != nil {
		return ctrl, err
	}

	props, err := parseVirtProps(vallOut)
	if err == ErrUnsupported {
		props = map[int]map[string]string{}
	} else if err != nil {
		return ctrl, err
	}

	for vID, p := range props {
		if vd, ok := vds[vID]; ok {
			vd.Properties = p
			vd.Path = p[osDriveName]
		}
	}

	ctrl.VirtDrives = vds
	ctrl.Drives = pds

	return ctrl, nil
}

type cachingStorCli struct {
	mr    MegaRaid
	cache *cache.Cache
}

// CachingStorCli - just a cache for a MegaRaid
func CachingStorCli(runner blockfacts.Runner) MegaRaid {
	return NewCaching(StorCli(runner))
}

// NewCaching wraps mr so that each controller is queried once.
func NewCaching(mr MegaRaid) MegaRaid {
	const longTime = 5 * time.Minute

	return &cachingStorCli{
		mr:    mr,
		cache: cache.New(longTime, longTime),
	}
}

func (csc *cachingStorCli) Query(ctx context.Context, cID int) (Controller, error) {
	type qresult struct {
		ctrl Controller
		err  error
	}

	cacheName := fmt.Sprintf("query-%d", cID)
	if cached, found := csc.cache.Get(cacheName); found {
		ret := cached.(qresult)
		return ret.ctrl, ret.err
	}

	ctrl, err := csc.mr.Query(ctx, cID)
	csc.cache.Set(cacheName, qresult{ctrl: ctrl, err: err}, cache.DefaultExpiration)

	return ctrl, err
}

// VirtDriveByPath - find the virtual drive that the OS sees as devPath and
// the controller exposing it. Controllers are walked from 0 until one is
// not found.
func VirtDriveByPath(ctx context.Context, mr MegaRaid, devPath string) (Controller, VirtDrive, error) {
	for cID := 0; cID < maxControllers; cID++ {
		ctrl, err := mr.Query(ctx, cID)
		if err == ErrNoController {
			break
		} else if err == ErrUnsupported {
			continue
		} else if err != nil {
			return Controller{}, VirtDrive{}, err
		}

		for _, vd := range ctrl.VirtDrives {
			if vd.Path == devPath {
				return ctrl, *vd, nil
			}
		}
	}

	return Controller{}, VirtDrive{}, errors.Wrapf(ErrNoVirtDrive, "%s", devPath)
}

// Annotate fills the slot and media of disks swept with smartctl
// megaraid,N from the physical drive N of ctrl.
func Annotate(disks []blockfacts.Disk, ctrl Controller) {
	for i := range disks {
		did, ok := smart.MegaRAIDID(disks[i].Source.Type)
		if !ok {
			continue
		}

		drive, ok := ctrl.Drives[did]
		if !ok {
			continue
		}

		disks[i].Slot = drive.SlotPath(ctrl.ID)

		if drive.MediaType != UnknownMedia {
			disks[i].Media = drive.MediaType.String()
		}
	}
}
