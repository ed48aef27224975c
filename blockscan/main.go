package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var version string

// debugLevel enables logr V(2), the level command lines are logged at.
const debugLevel = zapcore.Level(-2)

func printTextTable(data [][]string) {
	var lengths = make([]int, len(data[0]))

	for _, line := range data {
		for i, field := range line {
			if len(field) > lengths[i] {
				lengths[i] = len(field)
			}
		}
	}

	fmts := make([]string, len(lengths))

	for i, l := range lengths {
		fmts[i] = fmt.Sprintf("%%-%ds", l)
	}

	pfmt := strings.Join(fmts, " | ") + " |\n"

	for _, line := range data {
		s := make([]interface{}, len(line))
		for i, v := range line {
			s[i] = v
		}

		fmt.Printf(pfmt, s...)
	}
}

func newLogger(debug bool) (logr.Logger, error) {
	zc := zap.NewProductionConfig()
	zc.Encoding = "console"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if debug {
		zc.Level = zap.NewAtomicLevelAt(debugLevel)
	}

	zl, err := zc.Build()
	if err != nil {
		return logr.Discard(), err
	}

	return zapr.NewLogger(zl), nil
}

func main() {
	app := &cli.App{
		Name:    "blockscan",
		Version: version,
		Usage:   "Discover block devices and the physical disks behind them",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "yaml config file",
				EnvVars: []string{"BLOCKFACTS_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "sys-root",
				Usage:   "sysfs mount point",
				EnvVars: []string{"BLOCKFACTS_SYS_ROOT"},
			},
			&cli.StringFlag{
				Name:    "dev-root",
				Usage:   "directory of the device nodes",
				EnvVars: []string{"BLOCKFACTS_DEV_ROOT"},
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "timeout for each external tool run",
			},
			&cli.StringFlag{
				Name:  "commands",
				Usage: "replay tool output recorded in a json fixture instead of running tools",
			},
			&cli.BoolFlag{
				Name:    "debug",
				Aliases: []string{"d"},
				Usage:   "log every query and command",
				EnvVars: []string{"BLOCKFACTS_DEBUG"},
			},
		},
		Commands: []*cli.Command{
			&scanCommand,
			&devicesCommand,
			&splitVendorCommand,
			&toolsCommand,
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal(err)
	}
}
