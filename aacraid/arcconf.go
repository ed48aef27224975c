package aacraid

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-logr/logr"
	"github.com/pkg/errors"
	"machinerun.io/blockfacts"
)

var (
	deviceStartRe = regexp.MustCompile(`Device #([0-9]+)`)
	leadingDigits = regexp.MustCompile(`^[0-9]+`)
)

// keyValue splits a "  Key    : value" line. Only the first colon splits,
// values may contain colons.
func keyValue(lineRaw string) (string, string, bool) {
	rawToks := strings.SplitN(strings.TrimSpace(lineRaw), ":", 2)
	if len(rawToks) != 2 {
		return "", "", false
	}

	return strings.TrimSpace(rawToks[0]), strings.TrimSpace(rawToks[1]), true
}

func parseLogicalDevices(output string) ([]LogicalDevice, error) {
	logDevs := []LogicalDevice{}

	for _, lineRaw := range strings.Split(output, "\n") {
		line := strings.TrimSpace(lineRaw)

		if strings.HasPrefix(line, "Logical Device number") {
			toks := strings.Fields(line)

			ldID, err := strconv.Atoi(toks[len(toks)-1])
			if err != nil {
				return logDevs, fmt.Errorf("error while parsing integer from %q: %s", line, err)
			}

			logDevs = append(logDevs, LogicalDevice{ID: ldID})

			continue
		}

		key, value, ok := keyValue(line)
		if !ok || (key != "Logical Device name" && key != "RAID level") {
			continue
		}

		if len(logDevs) == 0 {
			// older arcconf prints the properties of a lone logical
			// device without the number header.
			logDevs = append(logDevs, LogicalDevice{})
		}

		ld := &logDevs[len(logDevs)-1]

		switch key {
		case "Logical Device name":
			ld.Name = value
		case "RAID level":
			// non-numeric levels like 1Triple, 10Triple exist.
			if ld.RAIDLevel == "" {
				ld.RAIDLevel = value
			}
		}
	}

	return logDevs, nil
}

func parsePhysicalDevices(output string) ([]PhysicalDevice, error) {
	pDevs := []PhysicalDevice{}

	devStart := deviceStartRe.FindAllStringSubmatchIndex(output, -1)
	if len(devStart) < 1 {
		return pDevs, ErrNoPhysicalDevice
	}

	for idx, devIdx := range devStart {
		devEnd := len(output)
		if idx+1 < len(devStart) {
			devEnd = devStart[idx+1][0]
		}

		// the header may carry trailing text: "Device #3 (Enclosure 0, Slot 3)"
		pdID, err := strconv.Atoi(output[devIdx[2]:devIdx[3]])
		if err != nil {
			continue
		}

		deviceStr := strings.TrimSpace(output[devIdx[0]:devEnd])
		deviceLines := strings.SplitN(deviceStr, "\n", 2)

		pd := PhysicalDevice{ID: pdID}

		if len(deviceLines) < 2 {
			pDevs = append(pDevs, pd)
			continue
		}

		for _, lineRaw := range strings.Split(deviceLines[1], "\n") {
			if strings.TrimSpace(lineRaw) == "Device is a Hard drive" {
				pd.HardDrive = true
				continue
			}

			key, value, ok := keyValue(lineRaw)
			if !ok {
				continue
			}

			switch key {
			case "State":
				pd.State = value
			case "Vendor":
				pd.Vendor = value
			case "Model":
				pd.Model = value
			case "Serial number":
				pd.SerialNumber = value
			}
		}

		pDevs = append(pDevs, pd)
	}

	return pDevs, nil
}

type arcConf struct {
	runner blockfacts.Runner
	log    logr.Logger
}

// ArcConf returns an arcconf specific implementation of AacRaid interface
func ArcConf(runner blockfacts.Runner, log logr.Logger) AacRaid {
	return &arcConf{runner: runner, log: log}
}

func (ac *arcConf) getConfig(ctx context.Context, cID int, section string) (string, error) {
	out, err := ac.runner.Run(ctx, blockfacts.ArcConf, "GETCONFIG", strconv.Itoa(cID), section)
	if err != nil {
		return "", err
	}

	return string(out), nil
}

func (ac *arcConf) RAIDType(ctx context.Context, cID int) (string, error) {
	out, err := ac.getConfig(ctx, cID, "LD")
	if err != nil {
		return "", err
	}

	logDevs, err := parseLogicalDevices(out)
	if err != nil {
		return "", err
	}

	for _, ld := range logDevs {
		if level := leadingDigits.FindString(ld.RAIDLevel); level != "" {
			return level, nil
		}
	}

	return "", errors.Wrapf(ErrNoRAIDType, "controller %d", cID)
}

func (ac *arcConf) Disks(ctx context.Context, dev string, cID int) ([]blockfacts.Disk, error) {
	out, err := ac.getConfig(ctx, cID, "PD")
	if err != nil {
		return nil, err
	}

	pDevs, err := parsePhysicalDevices(out)
	if err != nil {
		return nil, errors.Wrapf(err, "controller %d", cID)
	}

	disks := []blockfacts.Disk{}

	for _, pd := range pDevs {
		if !pd.HardDrive {
			ac.log.V(1).Info("device is not a hard drive", "controller", cID, "device", pd.ID)
			continue
		}

		ac.log.V(1).Info("found port", "controller", cID, "port", pd.ID)

		disk, err := blockfacts.CLIDisk(fmt.Sprintf("%s_%d", dev, pd.ID),
			string(blockfacts.ArcConf), pd.Vendor, pd.Model, pd.SerialNumber)
		if err != nil {
			ac.log.V(1).Info("skipping device", "controller", cID, "device", pd.ID, "error", err.Error())
			continue
		}

		disk.Source.Locator = fmt.Sprintf("%d/%d", cID, pd.ID)
		disks = append(disks, disk)
	}

	return disks, nil
}
