package linux

import (
	"os"
	"path"
	"strings"

	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
	"machinerun.io/blockfacts"
)

// SystemDirs are searched after the entries of $PATH.
//nolint:gochecknoglobals
var SystemDirs = []string{"/bin", "/sbin", "/usr/bin", "/usr/sbin"}

// Locator finds the executables of tools. Every answer, found or not, is
// remembered for the life of the Locator.
type Locator struct {
	paths []string
	cache *cache.Cache
}

// NewLocator returns a Locator searching $PATH, then SystemDirs, then extra.
func NewLocator(extra ...string) *Locator {
	paths := []string{}

	for _, p := range strings.Split(os.Getenv("PATH"), ":") {
		if p != "" {
			paths = append(paths, p)
		}
	}

	paths = append(paths, SystemDirs...)
	paths = append(paths, extra...)

	return NewLocatorPaths(paths)
}

// NewLocatorPaths returns a Locator that searches exactly paths.
func NewLocatorPaths(paths []string) *Locator {
	return &Locator{
		paths: paths,
		cache: cache.New(cache.NoExpiration, 0),
	}
}

// Paths returns the directories searched, in order.
func (l *Locator) Paths() []string {
	return l.paths
}

// Find returns the full path of the first executable for tool. The error
// wraps blockfacts.ErrToolNotFound if there is none.
func (l *Locator) Find(tool blockfacts.Tool) (string, error) {
	if cached, found := l.cache.Get(string(tool)); found {
		if p := cached.(string); p != "" {
			return p, nil
		}

		return "", errors.Wrapf(blockfacts.ErrToolNotFound, "%s", tool)
	}

	found := ""

	for _, name := range tool.Executables() {
		if found = whichSearch(name, l.paths); found != "" {
			break
		}
	}

	l.cache.Set(string(tool), found, cache.NoExpiration)

	if found == "" {
		return "", errors.Wrapf(blockfacts.ErrToolNotFound, "%s", tool)
	}

	return found, nil
}

// Has is true when tool can be located.
func (l *Locator) Has(tool blockfacts.Tool) bool {
	_, err := l.Find(tool)
	return err == nil
}

func whichSearch(name string, paths []string) string {
	var search []string

	if strings.ContainsRune(name, os.PathSeparator) {
		if path.IsAbs(name) {
			search = []string{name}
		} else {
			search = []string{"./" + name}
		}
	} else {
		search = []string{}
		for _, p := range paths {
			search = append(search, path.Join(p, name))
		}
	}

	for _, fPath := range search {
		if err := unix.Access(fPath, unix.X_OK); err == nil {
			if fi, err := os.Stat(fPath); err == nil && !fi.IsDir() {
				return fPath
			}
		}
	}

	return ""
}
