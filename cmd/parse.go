package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/vinodhalaharvi/stencil/grammar"
)

// ParseCmd validates one or more .lift files without applying them.
type ParseCmd struct {
	Files []string `arg:"" help:".lift files to validate" type:"path"`
}

func (c *ParseCmd) Run(fs afero.Fs, log *logrus.Logger) error {
	parser, err := grammar.NewParser()
	if err != nil {
		return fmt.Errorf("building .lift parser: %w", err)
	}

	for _, path := range c.Files {
		data, err := afero.ReadFile(fs, path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		prog, err := parser.ParseString(path, string(data))
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}

		log.WithField("file", path).Debug("lift file parsed")
		fmt.Printf("✓ %s — %d lift block(s)\n", path, len(prog.Blocks))
		for _, b := range prog.Blocks {
			matchers := 0
			if b.From != nil {
				matchers = len(b.From.Matchers)
			}
			fmt.Printf("  %s: %d matcher(s), %d where(s), %d action(s)\n",
				b.Name, matchers, len(b.Where), len(b.Actions))
		}
	}
	return nil
}
