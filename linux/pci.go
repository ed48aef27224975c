package linux

import (
	"fmt"

	"github.com/jaypipes/ghw"
	"github.com/pkg/errors"
)

// AdapterNamer names the pci host adapter at a bus address.
type AdapterNamer interface {
	AdapterName(addr string) string
}

type ghwAdapters struct {
	pciInfo *ghw.PCIInfo
}

// PCIAdapters returns an AdapterNamer backed by the ghw pci database.
func PCIAdapters() (AdapterNamer, error) {
	pciInfo, err := ghw.PCI()
	if err != nil {
		return nil, errors.Wrap(err, "error getting PCI info")
	}

	return &ghwAdapters{pciInfo: pciInfo}, nil
}

// AdapterName returns "Vendor Product" for addr, or "" if unknown.
func (g *ghwAdapters) AdapterName(addr string) string {
	if g.pciInfo == nil || addr == "" {
		return ""
	}

	device := g.pciInfo.GetDevice(addr)
	if device == nil || device.Vendor == nil || device.Product == nil {
		return ""
	}

	return fmt.Sprintf("%s %s", device.Vendor.Name, device.Product.Name)
}
