package linux

import (
	"os"
	"path"
	"path/filepath"
	"testing"

	"github.com/go-logr/logr"
)

// sysTree builds a fake sysfs below a temp dir. Links are real symlinks so
// that driver resolution reads them as it would in /sys.
type sysTree struct {
	t    *testing.T
	root string
}

func newSysTree(t *testing.T) *sysTree {
	return &sysTree{t: t, root: t.TempDir()}
}

func (st *sysTree) dir(rel string) {
	if err := os.MkdirAll(filepath.Join(st.root, rel), 0o755); err != nil {
		st.t.Fatalf("mkdir %s: %s", rel, err)
	}
}

func (st *sysTree) file(rel, content string) {
	st.dir(path.Dir(rel))

	if err := os.WriteFile(filepath.Join(st.root, rel), []byte(content), 0o644); err != nil {
		st.t.Fatalf("write %s: %s", rel, err)
	}
}

func (st *sysTree) link(rel, target string) {
	st.dir(path.Dir(rel))

	if err := os.Symlink(target, filepath.Join(st.root, rel)); err != nil {
		st.t.Fatalf("symlink %s: %s", rel, err)
	}
}

// block creates the device directory devices/<devPath>/block/<entry> and
// links block/<entry> to it. It returns the device directory.
func (st *sysTree) block(entry, devPath string) string {
	devDir := path.Join("devices", devPath, "block", entry)
	st.dir(devDir)
	st.link(path.Join("block", entry), path.Join("..", devDir))

	return devDir
}

// pciDisk adds a disk behind the pci adapter at pciPath, bound to driver.
func (st *sysTree) pciDisk(entry, pciPath, driver, vendor string) {
	devDir := st.block(entry, path.Join(pciPath, "host_"+entry, "target0:0:0", "0:0:0:0"))
	st.file(path.Join(devDir, "device", "vendor"), vendor)

	driverLink := path.Join("devices", pciPath, "driver")
	if _, err := os.Lstat(filepath.Join(st.root, driverLink)); err == nil {
		return
	}

	st.link(driverLink, "../../../bus/pci/drivers/"+driver)
}

// mdArray adds a software raid array with the given level and members.
func (st *sysTree) mdArray(entry, level string, members ...string) {
	devDir := st.block(entry, "virtual")
	st.file(path.Join(devDir, "md", "level"), level+"\n")
	st.dir(path.Join(devDir, "slaves"))

	for _, m := range members {
		st.link(path.Join(devDir, "slaves", m), "../../../../../block/"+m)
	}
}

func (st *sysTree) sysfs() *Sysfs {
	return NewSysfs(st.root, logr.Discard())
}
