package megaraid

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// storcli prints a "key = value" header followed by titled sections:
//
//	VD LIST :
//	=======
//
//	---------------------------------
//	DG/VD TYPE  State Access ...
//	---------------------------------
//	0/0   RAID1 Optl  RW     ...
//	---------------------------------

var (
	underlineRe = regexp.MustCompile(`^=+$`)
	ruleRe      = regexp.MustCompile(`^-+$`)
	vdPropsRe   = regexp.MustCompile(`^VD([0-9]+) Properties$`)
)

const (
	vdListTitle = "VD LIST"
	pdListTitle = "PD LIST"
)

type section struct {
	title string
	lines []string
}

// sections splits storcli output at underlined titles. The header is the
// first section and has no title. Blank lines are dropped.
func sections(out string) []section {
	sects := []section{{}}

	for _, line := range strings.Split(out, "\n") {
		cur := &sects[len(sects)-1]

		switch {
		case strings.TrimSpace(line) == "":
		case underlineRe.MatchString(line) && len(cur.lines) > 0:
			title := cur.lines[len(cur.lines)-1]
			cur.lines = cur.lines[:len(cur.lines)-1]
			sects = append(sects, section{title: strings.TrimSuffix(title, " :")})
		default:
			cur.lines = append(cur.lines, line)
		}
	}

	return sects
}

func keyValues(lines []string) map[string]string {
	kv := map[string]string{}

	for _, line := range lines {
		if k, v, ok := strings.Cut(line, " = "); ok {
			kv[k] = v
		}
	}

	return kv
}

func headerError(header map[string]string) error {
	status, desc := header["Status"], header["Description"]

	switch {
	case status == "Success":
		return nil
	case status == "Failure" && strings.Contains(desc, "not found"):
		return ErrNoController
	case status == "Failure" && strings.Contains(desc, "Un-supported command"):
		return ErrUnsupported
	}

	return fmt.Errorf("storcli controller %q returned status %q: %s", header["Controller"], status, desc)
}

// table reads the ruled table at the start of lines into one map per row,
// keyed by the header words. Values may contain spaces ("2.181 TB"), so a
// column ends at the first position of a header gap that is blank in every
// row.
func table(lines []string) []map[string]string {
	const ruleCount = 3

	rows := [][]rune{}
	rules := 0

	for _, line := range lines {
		if rules == ruleCount {
			break
		}

		switch {
		case strings.TrimSpace(line) == "":
		case ruleRe.MatchString(line):
			rules++
		default:
			rows = append(rows, []rune(line))
		}
	}

	records := []map[string]string{}
	if len(rows) == 0 {
		return records
	}

	cuts := columnCuts(rows[0], rows[1:])
	names := cutRow(rows[0], cuts)

	for _, row := range rows[1:] {
		rec := map[string]string{}
		for i, v := range cutRow(row, cuts) {
			rec[names[i]] = v
		}

		records = append(records, rec)
	}

	return records
}

func columnCuts(header []rune, body [][]rune) []int {
	cuts := []int{}
	gap := -1
	seenWord := false

	for i, r := range header {
		if r == ' ' {
			if gap < 0 && seenWord {
				gap = i
			}

			continue
		}

		seenWord = true

		if gap >= 0 {
			cuts = append(cuts, cutInGap(gap, i-1, body))
			gap = -1
		}
	}

	return cuts
}

func cutInGap(left, right int, body [][]rune) int {
	for col := left; col < right; col++ {
		if blankColumn(col, body) {
			return col
		}
	}

	return right
}

func blankColumn(col int, body [][]rune) bool {
	for _, row := range body {
		if col < len(row) && row[col] != ' ' {
			return false
		}
	}

	return true
}

func cutRow(row []rune, cuts []int) []string {
	fields := make([]string, 0, len(cuts)+1)
	bounds := append(append([]int{}, cuts...), len(row))
	from := 0

	for _, to := range bounds {
		if to > len(row) {
			to = len(row)
		}

		if from > to {
			from = to
		}

		fields = append(fields, strings.TrimSpace(string(row[from:to])))
		from = to
	}

	return fields
}

// parseShow reads the virtual and physical drive lists of 'storcli /cN show'.
func parseShow(out string) (VirtDriveSet, DriveSet, error) {
	vds := VirtDriveSet{}
	pds := DriveSet{}

	for _, sect := range sections(out) {
		switch sect.title {
		case "":
			if err := headerError(keyValues(sect.lines)); err != nil {
				return vds, pds, err
			}
		case vdListTitle:
			for _, rec := range table(sect.lines) {
				vd, err := virtDrive(rec)
				if err != nil {
					return vds, pds, err
				}

				vds[vd.ID] = &vd
			}
		case pdListTitle:
			for _, rec := range table(sect.lines) {
				pd, err := physDrive(rec)
				if err != nil {
					return vds, pds, err
				}

				pds[pd.ID] = &pd
			}
		}
	}

	return vds, pds, nil
}

// parseVirtProps returns the "VDn Properties" of 'storcli /cN/vall show all'
// by virtual drive id.
func parseVirtProps(out string) (map[int]map[string]string, error) {
	props := map[int]map[string]string{}

	for _, sect := range sections(out) {
		if sect.title == "" {
			if err := headerError(keyValues(sect.lines)); err != nil {
				return props, err
			}

			continue
		}

		toks := vdPropsRe.FindStringSubmatch(sect.title)
		if toks == nil {
			continue
		}

		vID, err := strconv.Atoi(toks[1])
		if err != nil {
			return props, fmt.Errorf("bad virtual drive in %q: %s", sect.title, err)
		}

		props[vID] = keyValues(sect.lines)
	}

	return props, nil
}

// number parses a table cell where "-" means none (-1).
func number(field string) (int, error) {
	if field == "-" {
		return -1, nil
	}

	return strconv.Atoi(field)
}

func virtDrive(rec map[string]string) (VirtDrive, error) {
	dg, vd, ok := strings.Cut(rec["DG/VD"], "/")
	if !ok {
		return VirtDrive{}, fmt.Errorf("bad DG/VD %q", rec["DG/VD"])
	}

	dgID, err := number(dg)
	if err != nil {
		return VirtDrive{}, fmt.Errorf("bad drive group in %q: %s", rec["DG/VD"], err)
	}

	vdID, err := number(vd)
	if err != nil {
		return VirtDrive{}, fmt.Errorf("bad virtual drive in %q: %s", rec["DG/VD"], err)
	}

	return VirtDrive{
		ID:         vdID,
		DriveGroup: dgID,
		RaidName:   rec["Name"],
		Type:       rec["TYPE"],
		State:      rec["State"],
	}, nil
}

// foreignDriveGroup is the drive group of a drive configured on another
// controller ("F").
const foreignDriveGroup = -2

func physDrive(rec map[string]string) (Drive, error) {
	did, err := number(rec["DID"])
	if err != nil {
		return Drive{}, fmt.Errorf("bad DID %q: %s", rec["DID"], err)
	}

	dg := foreignDriveGroup
	if rec["DG"] != "F" {
		if dg, err = number(rec["DG"]); err != nil {
			return Drive{}, fmt.Errorf("bad DG %q for drive %d: %s", rec["DG"], did, err)
		}
	}

	eid, slot, ok := strings.Cut(rec["EID:Slt"], ":")
	if !ok {
		return Drive{}, fmt.Errorf("bad EID:Slt %q for drive %d", rec["EID:Slt"], did)
	}

	d := Drive{
		ID:         did,
		DriveGroup: dg,
		State:      rec["State"],
		MediaType:  mediaType(rec["Med"]),
		Model:      rec["Model"],
	}

	if d.EID, err = number(eid); err != nil {
		return Drive{}, fmt.Errorf("bad enclosure %q for drive %d: %s", eid, did, err)
	}

	if d.Slot, err = number(slot); err != nil {
		return Drive{}, fmt.Errorf("bad slot %q for drive %d: %s", slot, did, err)
	}

	return d, nil
}

func mediaType(med string) MediaType {
	switch med {
	case "HDD":
		return HDD
	case "SSD":
		return SSD
	}

	return UnknownMedia
}
