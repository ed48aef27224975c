package blockfacts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func smartDisk(id, vendor, model, serial string) Disk {
	return Disk{
		ID:     id,
		Source: Source{Kind: SourceSmart, Locator: "/dev/sda", Type: "ata"},
		Vendor: vendor,
		Model:  model,
		Serial: serial,
	}
}

func TestFactsPlainDisk(t *testing.T) {
	sda := NewBlockDevice("sda")
	sda.Driver = Resolve("ahci")
	sda.Vendor = Resolve("ATA")
	sda.Disks = []Disk{smartDisk("sda", "", "ST1000", "ABC123")}

	topo := Topology{Devices: []BlockDevice{sda}}

	assert.Equal(t,
		[]Fact{
			{"block_devices", "sda"},
			{"block_vendor_sda", "ATA"},
			{"block_driver_sda", "ahci"},
			{"block_disks_sda", "sda"},
			{"block_is_raid_sda", "false"},
			{"disk_model_sda", "ST1000"},
			{"disk_serial_sda", "ABC123"},
		},
		topo.Facts())
}

func TestFactsSoftwareRAID(t *testing.T) {
	assert := assert.New(t)

	md0 := NewBlockDevice("md0")
	md0.Driver = Resolve(SoftwareRAIDDriver)
	md0.Vendor = Resolve(SoftwareRAIDVendor)
	md0.RAIDType = "5"
	md0.Disks = []Disk{MemberDisk("sda1"), MemberDisk("sdb1")}

	topo := Topology{Devices: []BlockDevice{md0}}
	facts := topo.FactMap()

	assert.Equal(map[string]string{
		"block_devices":      "md0",
		"block_vendor_md0":   "Linux",
		"block_driver_md0":   "swraid",
		"block_disks_md0":    "sda1,sdb1",
		"block_is_raid_md0":  "true",
		"block_raidtype_md0": "5",
	}, facts)
}

func TestFactsOptionalValues(t *testing.T) {
	assert := assert.New(t)

	sda := NewBlockDevice("sda")
	sda.Driver = Resolve("3w-9xxx")
	sda.Vendor = Resolve("AMCC")
	sda.Adapter = "3ware Inc 9650SE SATA-II RAID PCIe"
	sda.SetController(0)
	sda.RAIDType = "1"
	sda.Disks = []Disk{
		smartDisk("sda_0", "WDC", "WD2003FYYS", "WD-1"),
		smartDisk("sda_1", "", "ST2000DM001", "Z1E1"),
	}

	sdb := NewBlockDevice("sdb")
	sdb.Driver = Resolve("")

	topo := Topology{Devices: []BlockDevice{sda, sdb}}
	facts := topo.FactMap()

	assert.Equal("sda,sdb", facts["block_devices"])
	assert.Equal("0", facts["block_controller_sda"])
	assert.Equal("3ware Inc 9650SE SATA-II RAID PCIe", facts["block_adapter_sda"])
	assert.Equal("true", facts["block_is_raid_sda"])
	assert.Equal("1", facts["block_raidtype_sda"])
	assert.Equal("WDC", facts["disk_vendor_sda_0"])
	assert.Equal("sda_0,sda_1", facts["block_disks_sda"])

	_, ok := facts["disk_vendor_sda_1"]
	assert.False(ok)

	assert.Equal("", facts["block_disks_sdb"])

	for _, name := range []string{
		"block_vendor_sdb", "block_driver_sdb", "block_controller_sdb",
		"block_is_raid_sdb", "block_raidtype_sdb", "block_adapter_sdb"} {
		_, ok := facts[name]
		assert.False(ok, name)
	}
}

func TestFactsEmptyTopology(t *testing.T) {
	topo := NewTopology()
	assert.Equal(t, []Fact{{"block_devices", ""}}, topo.Facts())
}
