package blockfacts

import (
	"strconv"
	"strings"
)

// Fact is one named value handed to the fact publisher.
type Fact struct {
	Name  string
	Value string
}

// Facts flattens t into the ordered list of facts. block_devices comes first,
// then the block_ facts of each device followed by the disk_ facts of its
// disks. Optional values are omitted rather than published empty.
func (t *Topology) Facts() []Fact {
	names := make([]string, 0, len(t.Devices))
	for _, d := range t.Devices {
		names = append(names, d.Name)
	}

	facts := []Fact{{"block_devices", strings.Join(names, ",")}}

	add := func(name, value string) {
		facts = append(facts, Fact{name, value})
	}

	for _, d := range t.Devices {
		if d.Vendor.Known() {
			add("block_vendor_"+d.Name, d.Vendor.Value)
		}

		if d.Driver.Known() {
			add("block_driver_"+d.Name, d.Driver.Value)
		}

		if d.Adapter != "" {
			add("block_adapter_"+d.Name, d.Adapter)
		}

		if d.Controller != nil {
			add("block_controller_"+d.Name, strconv.Itoa(*d.Controller))
		}

		add("block_disks_"+d.Name, strings.Join(d.DiskIDs(), ","))

		if len(d.Disks) > 0 {
			add("block_is_raid_"+d.Name, strconv.FormatBool(d.IsRAID()))
		}

		if d.RAIDType != "" {
			add("block_raidtype_"+d.Name, d.RAIDType)
		}

		if d.Driver.Value == SoftwareRAIDDriver {
			continue
		}

		for _, disk := range d.Disks {
			if disk.Source.Kind == SourceMember {
				continue
			}

			if disk.Vendor != "" {
				add("disk_vendor_"+disk.ID, disk.Vendor)
			}

			add("disk_model_"+disk.ID, disk.Model)
			add("disk_serial_"+disk.ID, disk.Serial)
		}
	}

	return facts
}

// FactMap returns Facts as a map of name to value.
func (t *Topology) FactMap() map[string]string {
	m := map[string]string{}
	for _, f := range t.Facts() {
		m[f.Name] = f.Value
	}

	return m
}
