// Package cmd wires Stencil's commands into a github.com/alecthomas/kong
// command tree. Each command declares whichever of afero.Fs, *logrus.Logger,
// and *config.Config it needs as extra Run method parameters; kong resolves
// them by type from the values passed to kong.Context.Run in main.go, so
// tests can exercise a command against an in-memory filesystem instead of
// the real one without touching the others.
package cmd

import (
	kongcompletion "github.com/jotaen/kong-completion"
)

// Version is the release version reported by the version command. It is a
// constant, so it cannot be overridden at link time.
const Version = "0.4.0"

// CLI is the root Kong command structure.
type CLI struct {
	ConfigPath string `help:"Path to a .stencil.yaml config file" name:"config" type:"path"`

	Parse      ParseCmd                  `cmd:"" help:"Validate one or more .lift files"`
	Inspect    InspectCmd                `cmd:"" help:"Parse a .lift file and print its structure as JSON"`
	Match      MatchCmd                  `cmd:"" help:"Find matches for a .lift file's patterns in Go source"`
	Apply      ApplyCmd                  `cmd:"" help:"Apply a .lift file's transformations to Go source"`
	Generate   GenerateCmd               `cmd:"" help:"Materialise a template fragment at a cursor and print the result"`
	Version    VersionCmd                `cmd:"" help:"Show version information"`
	Completion kongcompletion.Completion `cmd:"" help:"Output shell completion scripts"`
}
