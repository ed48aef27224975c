package megaraid

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"machinerun.io/blockfacts"
	"machinerun.io/blockfacts/smart"
)

// MaxDeviceID is the last megaraid device id queried with smartctl.
const MaxDeviceID = 32

// Sweep runs smartctl -d megaraid,N on devPath for N in 0..MaxDeviceID.
// Disks are named <dev>_<N>. Finding no disk at all is an error.
func Sweep(ctx context.Context, sm smart.Smart, dev, devPath string) ([]blockfacts.Disk, error) {
	res := blockfacts.Sweep(0, MaxDeviceID, func(n int) (blockfacts.Disk, error) {
		return sm.Identify(ctx, fmt.Sprintf("%s_%d", dev, n), devPath, smart.MegaRAID(n))
	})

	if res.Empty() {
		return res.Disks, errors.Wrapf(blockfacts.ErrNoDisks, "%s: %v", dev, res.LastErr)
	}

	return res.Disks, nil
}
