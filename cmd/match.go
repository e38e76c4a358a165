package cmd

import (
	"fmt"
	"go/ast"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/vinodhalaharvi/stencil/grammar"
	"github.com/vinodhalaharvi/stencil/matcher"
)

// MatchCmd finds matches for a .lift file's patterns against a Go source
// file, without applying any transformation.
type MatchCmd struct {
	Lift   string `arg:"" help:".lift file" type:"path"`
	Source string `help:"Go source file to match against" required:"" type:"path"`
}

func (c *MatchCmd) Run(fs afero.Fs, log *logrus.Logger) error {
	prog, m, err := loadLiftAndSource(fs, c.Lift, c.Source)
	if err != nil {
		return err
	}

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

		log.WithFields(logrus.Fields{"block": block.Name, "matches": len(matches)}).Debug("lift block matched")
		fmt.Printf("Block %s: %d match(es)\n", block.Name, len(matches))
		for i, match := range matches {
			pos := m.FileSet().Position(match.Node.Pos())
			fmt.Printf("  [%d] %s:%d\n", i+1, pos.Filename, pos.Line)
			for name, val := range match.Bindings {
				if s := formatBinding(val); s != "" {
					fmt.Printf("      $%s = %s\n", name, s)
				}
			}
		}
		totalMatches += len(matches)
	}

	if totalMatches == 0 {
		fmt.Println("No matches found.")
	} else {
		fmt.Printf("\nTotal: %d match(es)\n", totalMatches)
	}
	return nil
}

// loadLiftAndSource parses a .lift file and its matching target through fs,
// shared between MatchCmd and ApplyCmd.
func loadLiftAndSource(fs afero.Fs, liftPath, sourcePath string) (*grammar.Program, *matcher.Matcher, error) {
	parser, err := grammar.NewParser()
	if err != nil {
		return nil, nil, fmt.Errorf("building .lift parser: %w", err)
	}

	liftData, err := afero.ReadFile(fs, liftPath)
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", liftPath, err)
	}
	prog, err := parser.ParseString(liftPath, string(liftData))
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", liftPath, err)
	}

	srcData, err := afero.ReadFile(fs, sourcePath)
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", sourcePath, err)
	}
	m, err := matcher.New(string(srcData))
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", sourcePath, err)
	}

	return prog, m, nil
}

func formatBinding(v any) string {
	if v == nil {
		return "<nil>"
	}
	switch val := v.(type) {
	case *ast.Ident:
		return val.Name
	case *ast.FuncType:
		return "<FuncType>"
	case *ast.BlockStmt:
		return "<BlockStmt>"
	case *ast.FieldList:
		if val == nil || val.List == nil {
			return "<FieldList(0)>"
		}
		return fmt.Sprintf("<FieldList(%d)>", len(val.List))
	default:
		return fmt.Sprintf("<%T>", v)
	}
}
