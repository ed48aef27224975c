package blockfacts

import (
	"context"
	"errors"
)

// Tool is an external command line tool used to query disks.
type Tool string

const (
	// SmartCtl - smartmontools info query.
	SmartCtl Tool = "smartctl"

	// TwCli - 3ware management cli.
	TwCli Tool = "tw-cli"

	// ArcConf - Adaptec management cli.
	ArcConf Tool = "arcconf"

	// StorCli - LSI/Broadcom management cli.
	StorCli Tool = "storcli"
)

// Executables returns the file names that t may be installed as, in order of
// preference.
func (t Tool) Executables() []string {
	switch t {
	case TwCli:
		return []string{"tw-cli", "tw_cli"}
	case StorCli:
		return []string{"storcli", "storcli64"}
	}

	return []string{string(t)}
}

// Runner runs external tools.
type Runner interface {
	// Run executes tool with args and returns its standard output. It fails
	// with ErrToolNotFound if no executable for the tool can be located and
	// with ErrNoOutput if the tool printed nothing.
	Run(ctx context.Context, tool Tool, args ...string) ([]byte, error)
}

// ErrToolNotFound - no executable for a tool in the search path.
var ErrToolNotFound = errors.New("tool not found in search path")

// ErrNoOutput - a tool ran but produced no output.
var ErrNoOutput = errors.New("no output from tool")

// ErrNoDisks - a query that must find at least one disk found none.
var ErrNoDisks = errors.New("no disks found")

// ErrUnknownBackingDevice - the controller of a device can only be guessed
// for the primary device name.
var ErrUnknownBackingDevice = errors.New("unknown backing device")
