package linux

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/go-logr/logr"
	"github.com/pkg/errors"
	"machinerun.io/blockfacts"
)

const noCommandRC = 127

func getCommandErrorRCDefault(err error, rcError int) int {
	if err == nil {
		return 0
	}

	exitError, ok := err.(*exec.ExitError)
	if ok {
		if status, ok := exitError.Sys().(syscall.WaitStatus); ok {
			return status.ExitStatus()
		}
	}

	return rcError
}

func getCommandErrorRC(err error) int {
	return getCommandErrorRCDefault(err, noCommandRC)
}

func cmdError(args []string, out []byte, err []byte, rc int) error {
	if rc == 0 {
		return nil
	}

	return errors.Errorf(
		"command failed [%d]:\n cmd: %v\n out:%s\n err:%s",
		rc, args, out, err)
}

func runCommandWithOutputErrorRc(ctx context.Context, args ...string) ([]byte, []byte, int) {
	cmd := exec.CommandContext(ctx, args[0], args[1:]...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()

	return stdout.Bytes(), stderr.Bytes(), getCommandErrorRC(err)
}

type execRunner struct {
	locator *Locator
	timeout time.Duration
	log     logr.Logger
}

// Runner returns a blockfacts.Runner that executes tools found by locator.
// Each call is bounded by timeout when it is positive.
func Runner(locator *Locator, timeout time.Duration, log logr.Logger) blockfacts.Runner {
	return &execRunner{locator: locator, timeout: timeout, log: log}
}

// Run executes tool and returns its standard output. Several of the raid
// tools exit non-zero even on success, so the exit code alone is not
// treated as a failure: any output is returned. Only a run that prints
// nothing fails.
func (r *execRunner) Run(ctx context.Context, tool blockfacts.Tool, args ...string) ([]byte, error) {
	toolPath, err := r.locator.Find(tool)
	if err != nil {
		return nil, err
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)

		defer cancel()
	}

	cmdArgs := append([]string{toolPath}, args...)
	r.log.V(2).Info("running", "cmd", strings.Join(cmdArgs, " "))

	stdout, stderr, rc := runCommandWithOutputErrorRc(ctx, cmdArgs...)

	if ctx.Err() != nil {
		return nil, errors.Wrapf(ctx.Err(), "%s %s", tool, strings.Join(args, " "))
	}

	if len(bytes.TrimSpace(stdout)) == 0 {
		if rc != 0 {
			return nil, errors.Wrapf(blockfacts.ErrNoOutput, "%s", cmdError(cmdArgs, stdout, stderr, rc))
		}

		return nil, errors.Wrapf(blockfacts.ErrNoOutput, "%s %s", tool, strings.Join(args, " "))
	}

	if rc != 0 {
		r.log.V(2).Info("command exited non-zero", "cmd", cmdArgs, "rc", rc)
	}

	return stdout, nil
}
