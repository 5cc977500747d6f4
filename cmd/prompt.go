package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	homedir "github.com/mitchellh/go-homedir"
	"golang.org/x/term"
)

// scanInput holds the answers of the interactive scan form.
type scanInput struct {
	root   string
	output string
}

// isInteractive reports whether both stdin and stdout are terminals.
func isInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// promptScanInput asks for the catalog location and, when askOutput is set,
// for the report location.
func promptScanInput(askOutput bool) (scanInput, error) {
	var in scanInput

	fields := []huh.Field{
		huh.NewInput().
			Title("📁 Enter .xcassets folder's location").
			Value(&in.root).
			Validate(validateRoot),
	}
	if askOutput {
		fields = append(fields, huh.NewInput().
			Title("💾 Enter CSV file path or folder to save results").
			Description("Leave empty to write duplicate_assets.csv in the current directory").
			Value(&in.output))
	}

	if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
		return scanInput{}, err
	}
	return in, nil
}

// validateRoot checks that s names an existing directory.
func validateRoot(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return errors.New("no path entered")
	}
	p, err := homedir.Expand(s)
	if err != nil {
		return err
	}
	info, err := os.Stat(p)
	if err != nil {
		return fmt.Errorf("invalid path: %s", s)
	}
	if !info.IsDir() {
		return fmt.Errorf("not a folder: %s", s)
	}
	return nil
}
