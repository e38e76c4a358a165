package cmd

import (
	"fmt"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/vinodhalaharvi/stencil/executor"
	"github.com/vinodhalaharvi/stencil/internal/config"
	"github.com/vinodhalaharvi/stencil/matcher"
)

// ApplyCmd applies a .lift file's transformations to a Go source file and
// delivers the result according to --output/--write, falling back to the
// project config's Output default when neither is given.
type ApplyCmd struct {
	Lift   string `arg:"" help:".lift file" type:"path"`
	Source string `help:"Go source file to transform" required:"" type:"path"`
	Output string `help:"Write the result to this path instead of stdout" type:"path"`
	Write  bool   `help:"Write the result back to --source in place" short:"w"`
}

func (c *ApplyCmd) Run(fs afero.Fs, log *logrus.Logger, cfg *config.Config) error {
	prog, m, err := loadLiftAndSource(fs, c.Lift, c.Source)
	if err != nil {
		return err
	}

	original, err := afero.ReadFile(fs, c.Source)
	if err != nil {
		return fmt.Errorf("reading %s: %w", c.Source, err)
	}

	exec := executor.NewFromMatcher(m)

	var lastResult *executor.Result
	totalMatches := 0
	for _, block := range prog.Blocks {
		matches, err := m.MatchBlock(block)
		if err != nil {
			fmt.Printf("error matching block %s: %v\n", block.Name, err)
			continue
		}
		matches = matcher.FilterMatches(matches, block.Where)
		if len(matches) == 0 {
			continue
		}

		log.WithFields(logrus.Fields{"block": block.Name, "matches": len(matches)}).Debug("applying lift block")
		fmt.Printf("Block %s: applying to %d match(es)\n", block.Name, len(matches))
		totalMatches += len(matches)

		result, err := exec.Execute(block, matches)
		if err != nil {
			return fmt.Errorf("executing block %s: %w", block.Name, err)
		}
		lastResult = result

		for _, action := range result.Applied {
			fmt.Printf("  ✓ %s\n", action)
		}
		for filename, content := range result.EmittedFiles {
			if err := afero.WriteFile(fs, filename, []byte(content), 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", filename, err)
			}
			fmt.Printf("  → wrote %s\n", filename)
		}
	}

	if totalMatches == 0 {
		fmt.Println("No matches found.")
		return nil
	}
	if lastResult == nil || lastResult.ModifiedSource == "" {
		return nil
	}

	return c.deliver(fs, cfg, string(original), lastResult.ModifiedSource)
}

// deliver writes modified according to --write, --output, or (absent both)
// the project config's Output mode: "stdout" prints the full result, "diff"
// prints a unified diff against original instead.
func (c *ApplyCmd) deliver(fs afero.Fs, cfg *config.Config, original, modified string) error {
	switch {
	case c.Write:
		if err := afero.WriteFile(fs, c.Source, []byte(modified), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", c.Source, err)
		}
		fmt.Printf("\n→ wrote %s\n", c.Source)
		return nil
	case c.Output != "":
		if err := afero.WriteFile(fs, c.Output, []byte(modified), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", c.Output, err)
		}
		fmt.Printf("\n→ wrote %s\n", c.Output)
		return nil
	case cfg.Output == "diff":
		diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        difflib.SplitLines(original),
			B:        difflib.SplitLines(modified),
			FromFile: c.Source,
			ToFile:   c.Source + " (stencil)",
			Context:  3,
		})
		if err != nil {
			return fmt.Errorf("computing diff: %w", err)
		}
		fmt.Print(diff)
		return nil
	default:
		fmt.Println("\n--- Modified source ---")
		fmt.Println(modified)
		return nil
	}
}
