// Stencil — structural code matching and generation for Go.
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/vinodhalaharvi/stencil/cmd"
	"github.com/vinodhalaharvi/stencil/internal/config"
)

func main() {
	cli := &cmd.CLI{}
	fs := afero.NewOsFs()

	kctx := kong.Parse(cli,
		kong.Name("stencil"),
		kong.Description("Structural code matching and generation for Go"),
		kong.UsageOnError(),
	)

	log := logrus.StandardLogger()
	if os.Getenv("STENCIL_DEBUG") != "" {
		log.SetLevel(logrus.DebugLevel)
	}

	cfg, err := config.Load(fs, cli.ConfigPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	err = kctx.Run(fs, log, cfg)
	kctx.FatalIfErrorf(err)
}
