package blockfacts

// SweepResult is the outcome of probing a range of ports or slots.
type SweepResult struct {
	Disks    []Disk
	Failures int
	// LastErr is the error of the last failed index, kept for diagnostics.
	LastErr error
}

// Sweep calls query for every index in [first, last] and collects the disks
// it returns. A failing index is counted and enumeration continues.
func Sweep(first, last int, query func(int) (Disk, error)) SweepResult {
	res := SweepResult{Disks: []Disk{}}

	for n := first; n <= last; n++ {
		disk, err := query(n)
		if err != nil {
			res.Failures++
			res.LastErr = err

			continue
		}

		res.Disks = append(res.Disks, disk)
	}

	return res
}

// Empty is true when no index produced a disk.
func (r SweepResult) Empty() bool {
	return len(r.Disks) == 0
}
