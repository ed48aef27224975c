package linux

import "machinerun.io/blockfacts"

// PrimaryDevice is the only device name whose controller index can be
// guessed for the 3ware and aacraid families.
const PrimaryDevice = "sda"

//nolint:gochecknoglobals
var driverCategories = map[string]blockfacts.DriverCategory{
	"ahci":     blockfacts.ATA,
	"ata_piix": blockfacts.ATA,
	"sata_via": blockfacts.ATA,

	"mpt2sas": blockfacts.SAS,
	"mpt3sas": blockfacts.SAS,

	"megaraid_sas": blockfacts.MegaRAID,

	"3w-9xxx": blockfacts.ThreeWare,
	"3w-sas":  blockfacts.ThreeWare,
	"3w-xxxx": blockfacts.ThreeWare,

	"aacraid": blockfacts.AACRAID,

	"mptspi": blockfacts.SCSIRAID,

	blockfacts.SoftwareRAIDDriver: blockfacts.SoftwareRAID,

	"ehci_hcd": blockfacts.USB,
	"uhci_hcd": blockfacts.USB,
	"xhci_hcd": blockfacts.USB,
	"ehci-pci": blockfacts.USB,
	"ohci-pci": blockfacts.USB,
}

// Categorize returns the category of the named kernel driver.
func Categorize(driver string) blockfacts.DriverCategory {
	if driver == "" {
		return blockfacts.Unresolved
	}

	if c, ok := driverCategories[driver]; ok {
		return c
	}

	return blockfacts.Unknown
}
