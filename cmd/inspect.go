package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/afero"

	"github.com/vinodhalaharvi/stencil/grammar"
)

// InspectCmd parses a .lift file and prints its parsed structure as JSON.
type InspectCmd struct {
	File string `arg:"" help:".lift file to inspect" type:"path"`
}

func (c *InspectCmd) Run(fs afero.Fs) error {
	parser, err := grammar.NewParser()
	if err != nil {
		return fmt.Errorf("building .lift parser: %w", err)
	}

	data, err := afero.ReadFile(fs, c.File)
	if err != nil {
		return fmt.Errorf("reading %s: %w", c.File, err)
	}

	prog, err := parser.ParseString(c.File, string(data))
	if err != nil {
		return fmt.Errorf("%s: %w", c.File, err)
	}

	out, err := json.MarshalIndent(prog, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling %s: %w", c.File, err)
	}
	fmt.Println(string(out))
	return nil
}
