// Package twcli queries 3ware controllers with tw-cli.
package twcli

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-logr/logr"
	pkgerrors "github.com/pkg/errors"
	"machinerun.io/blockfacts"
)

// ErrNoController - tw-cli show listed no controller.
var ErrNoController = errors.New("no tw-cli controllers found")

// ErrNoRAIDType - no unit of the controller reports a raid level.
var ErrNoRAIDType = errors.New("unable to detect raidtype")

var (
	controllerRe = regexp.MustCompile(`(?m)^c([0-9]+)`)
	unitRAIDRe   = regexp.MustCompile(`(?m)^u[0-9]+ +RAID-([0-9]+)`)
	okPortRe     = regexp.MustCompile(`(?m)^p([0-9]+) +OK`)
	valueRe      = regexp.MustCompile(` = (.*)`)
)

// TwCli - basic interface
type TwCli interface {
	// List - Return list of Controller IDs
	List(ctx context.Context) ([]int, error)

	// RAIDType - Return the raid level of the first unit of the controller
	RAIDType(ctx context.Context, cID int) (string, error)

	// Disks - Return the disks on the OK ports of controller cID, named
	// <dev>_<port>
	Disks(ctx context.Context, dev string, cID int) ([]blockfacts.Disk, error)
}

type twCli struct {
	runner blockfacts.Runner
	log    logr.Logger
}

// New returns a TwCli running tw-cli through runner.
func New(runner blockfacts.Runner, log logr.Logger) TwCli {
	return &twCli{runner: runner, log: log}
}

func (tc *twCli) run(ctx context.Context, args ...string) (string, error) {
	out, err := tc.runner.Run(ctx, blockfacts.TwCli, args...)
	if err != nil {
		return "", err
	}

	return string(out), nil
}

func (tc *twCli) List(ctx context.Context) ([]int, error) {
	out, err := tc.run(ctx, "show")
	if err != nil {
		return nil, err
	}

	ids := parseControllers(out)
	if len(ids) == 0 {
		return nil, ErrNoController
	}

	return ids, nil
}

func (tc *twCli) RAIDType(ctx context.Context, cID int) (string, error) {
	cpath := fmt.Sprintf("/c%d", cID)

	out, err := tc.run(ctx, cpath, "show", "unitstatus")
	if err != nil {
		return "", err
	}

	raidType := parseRAIDType(out)
	if raidType == "" {
		return "", pkgerrors.Wrapf(ErrNoRAIDType, "%s", cpath)
	}

	return raidType, nil
}

func (tc *twCli) Disks(ctx context.Context, dev string, cID int) ([]blockfacts.Disk, error) {
	out, err := tc.run(ctx, fmt.Sprintf("/c%d", cID), "show", "drivestatus")
	if err != nil {
		return nil, err
	}

	disks := []blockfacts.Disk{}

	for _, port := range parseOKPorts(out) {
		disk, err := tc.portDisk(ctx, dev, cID, port)
		if err != nil {
			tc.log.V(1).Info("skipping port", "controller", cID, "port", port, "error", err.Error())
			continue
		}

		disks = append(disks, disk)
	}

	return disks, nil
}

func (tc *twCli) portDisk(ctx context.Context, dev string, cID, port int) (blockfacts.Disk, error) {
	portPath := fmt.Sprintf("/c%d/p%d", cID, port)
	id := fmt.Sprintf("%s_%d", dev, port)

	tc.log.V(1).Info("found port", "port", portPath)

	model, err := tc.portValue(ctx, portPath, "model")
	if err != nil {
		return blockfacts.Disk{}, err
	}

	serial, err := tc.portValue(ctx, portPath, "serial")
	if err != nil {
		return blockfacts.Disk{}, err
	}

	disk, err := blockfacts.CLIDisk(id, string(blockfacts.TwCli), "", model, serial)
	disk.Source.Locator = portPath

	return disk, err
}

func (tc *twCli) portValue(ctx context.Context, portPath, name string) (string, error) {
	out, err := tc.run(ctx, portPath, "show", name)
	if err != nil {
		return "", err
	}

	value := parseValue(out)
	if value == "" {
		return "", pkgerrors.Errorf("no %s found for tw-cli %s", name, portPath)
	}

	return value, nil
}

func parseControllers(out string) []int {
	ids := []int{}

	for _, toks := range controllerRe.FindAllStringSubmatch(out, -1) {
		if id, err := strconv.Atoi(toks[1]); err == nil {
			ids = append(ids, id)
		}
	}

	return ids
}

func parseRAIDType(out string) string {
	toks := unitRAIDRe.FindStringSubmatch(out)
	if toks == nil {
		return ""
	}

	return toks[1]
}

func parseOKPorts(out string) []int {
	ports := []int{}

	for _, toks := range okPortRe.FindAllStringSubmatch(out, -1) {
		if port, err := strconv.Atoi(toks[1]); err == nil {
			ports = append(ports, port)
		}
	}

	return ports
}

func parseValue(out string) string {
	toks := valueRe.FindStringSubmatch(out)
	if toks == nil {
		return ""
	}

	return strings.TrimSpace(toks[1])
}
