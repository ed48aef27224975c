package mockos_test

import (
	"context"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"machinerun.io/blockfacts"
	"machinerun.io/blockfacts/mockos"
)

//nolint: funlen
func TestCommands(t *testing.T) {
	ctx := context.Background()

	Convey("testing recorded commands", t, func() {
		So(func() { mockos.Runner("unknown") }, ShouldPanic)

		cmds := mockos.Runner("testdata/fixture.json")
		So(cmds, ShouldNotBeNil)

		Convey("A recorded command returns its output", func() {
			out, err := cmds.Run(ctx, blockfacts.SmartCtl, "-i", "-d", "ata", "/dev/sda")
			So(err, ShouldBeNil)
			So(string(out), ShouldContainSubstring, "Serial Number:    S3Z1NB0K123456A")
		})

		Convey("A known tool with other arguments prints nothing", func() {
			_, err := cmds.Run(ctx, blockfacts.SmartCtl, "-i", "-d", "megaraid,2", "/dev/sdb")
			So(errors.Is(err, blockfacts.ErrNoOutput), ShouldBeTrue)
		})

		Convey("A recorded empty output is no output", func() {
			_, err := cmds.Run(ctx, blockfacts.TwCli, "show")
			So(errors.Is(err, blockfacts.ErrNoOutput), ShouldBeTrue)
		})

		Convey("A tool never recorded is not installed", func() {
			_, err := cmds.Run(ctx, blockfacts.StorCli, "/c0", "show")
			So(errors.Is(err, blockfacts.ErrToolNotFound), ShouldBeTrue)
		})

		Convey("A cancelled context fails the run", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()

			_, err := cmds.Run(cctx, blockfacts.SmartCtl, "-i", "-d", "ata", "/dev/sda")
			So(err, ShouldEqual, context.Canceled)
		})

		Convey("Calls are recorded in order", func() {
			_, _ = cmds.Run(ctx, blockfacts.SmartCtl, "-i", "-d", "megaraid,0", "/dev/sdb")
			_, _ = cmds.Run(ctx, blockfacts.ArcConf, "getconfig", "1", "ld")

			So(cmds.Calls(), ShouldResemble, []string{
				"smartctl -i -d megaraid,0 /dev/sdb",
				"arcconf getconfig 1 ld",
			})
		})
	})
}

func TestNew(t *testing.T) {
	Convey("testing commands built in code", t, func() {
		cmds := mockos.New(map[string]string{"storcli /c0 show": "Controller = 0\n"})

		out, err := cmds.Run(context.Background(), blockfacts.StorCli, "/c0", "show")
		So(err, ShouldBeNil)
		So(string(out), ShouldEqual, "Controller = 0\n")

		_, err = cmds.Run(context.Background(), blockfacts.SmartCtl, "-i", "/dev/sda")
		So(errors.Is(err, blockfacts.ErrToolNotFound), ShouldBeTrue)
	})
}

func TestLoad(t *testing.T) {
	Convey("Load reports bad fixtures", t, func() {
		_, err := mockos.Load("testdata/non-existent.json")
		So(err, ShouldNotBeNil)

		cmds, err := mockos.Load("testdata/fixture.json")
		So(err, ShouldBeNil)
		So(cmds.Outputs, ShouldContainKey, "arcconf getconfig 1 ld")
	})
}
