package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/gjson"
)

// ManifestName is the per-imageset metadata file written by Xcode.
const ManifestName = "Contents.json"

// Manifest lists the files an imageset's Contents.json references.
type Manifest struct {
	// Known is false when the imageset has no usable manifest.
	Known bool
	files map[string]struct{}
}

// ReadManifest parses imageset/Contents.json. A missing manifest returns an
// unknown Manifest and no error; a malformed one returns an unknown Manifest
// and the parse error.
func ReadManifest(imageset string) (Manifest, error) {
	data, err := os.ReadFile(filepath.Join(imageset, ManifestName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Manifest{}, nil
		}
		return Manifest{}, err
	}
	return ParseManifest(data)
}

// ParseManifest parses the contents of a Contents.json file.
func ParseManifest(data []byte) (Manifest, error) {
	if !gjson.ValidBytes(data) {
		return Manifest{}, fmt.Errorf("invalid %s", ManifestName)
	}
	m := Manifest{Known: true, files: make(map[string]struct{})}
	gjson.GetBytes(data, "images").ForEach(func(_, img gjson.Result) bool {
		if name := img.Get("filename").String(); name != "" {
			m.files[name] = struct{}{}
		}
		return true
	})
	return m, nil
}

// References reports whether the manifest lists filename. Unknown manifests
// reference everything.
func (m Manifest) References(filename string) bool {
	if !m.Known {
		return true
	}
	_, ok := m.files[filename]
	return ok
}
