package cmd

import "fmt"

// VersionCmd prints Stencil's version string.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("stencil v%s\n", Version)
	return nil
}
