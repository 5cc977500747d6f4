// Package report serializes duplicate groups to CSV.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	homedir "github.com/mitchellh/go-homedir"

	"github.com/sw33tLie/xcdupes/pkg/dupes"
)

// DefaultFileName is used when the output location is a directory.
const DefaultFileName = "duplicate_assets.csv"

// Header is the column contract of every report. Extended reports append
// ExtendedHeader after it.
var (
	Header         = []string{"Group", "Hash", "Imageset", "Scale"}
	ExtendedHeader = []string{"Catalog", "File", "Width", "Height", "Referenced"}
)

// Options controls report layout.
type Options struct {
	// Extended appends ExtendedHeader columns.
	Extended bool
}

// Write writes groups as CSV to w: one row per occurrence, labelled with the
// group's number and hash, and an empty record after each group. Lines end
// in CRLF.
func Write(w io.Writer, groups []dupes.ReportGroup, opts Options) error {
	cw := csv.NewWriter(w)
	cw.UseCRLF = true

	header := Header
	if opts.Extended {
		header = append(append([]string(nil), Header...), ExtendedHeader...)
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, g := range groups {
		label := fmt.Sprintf("Group %d", g.ID)
		for _, o := range g.Occurrences {
			row := []string{label, g.Fingerprint, o.Container, o.Scale}
			if opts.Extended {
				row = append(row,
					o.Catalog,
					filepath.Base(o.Path),
					strconv.Itoa(o.Width),
					strconv.Itoa(o.Height),
					strconv.FormatBool(o.Referenced),
				)
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		if err := cw.Write(nil); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteFile writes the report to path, creating its parent directory.
func WriteFile(path string, groups []dupes.ReportGroup, opts Options) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, groups, opts); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// ResolveOutputPath turns user input into a report file path:
//
//	""           -> ./duplicate_assets.csv
//	"x.csv"      -> x.csv (parent directory created)
//	existing dir -> dir/duplicate_assets.csv
//	anything else is created as a directory holding duplicate_assets.csv
func ResolveOutputPath(userPath string) (string, error) {
	userPath = strings.TrimSpace(userPath)
	if userPath == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		return filepath.Join(cwd, DefaultFileName), nil
	}

	expanded, err := homedir.Expand(userPath)
	if err != nil {
		return "", err
	}
	p, err := filepath.Abs(expanded)
	if err != nil {
		return "", err
	}

	if strings.EqualFold(filepath.Ext(p), ".csv") {
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return "", err
		}
		return p, nil
	}
	if info, err := os.Stat(p); err == nil && info.IsDir() {
		return filepath.Join(p, DefaultFileName), nil
	}
	if err := os.MkdirAll(p, 0o755); err != nil {
		return "", err
	}
	return filepath.Join(p, DefaultFileName), nil
}
