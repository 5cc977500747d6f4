package dupes

// Occurrence is one physical file contributing to a fingerprint.
type Occurrence struct {
	// Container is the imageset directory holding the file.
	Container string
	// Catalog is the xcassets directory the imageset belongs to.
	Catalog string
	Path    string
	// Scale is the declared scale: "", "1x", "2x" or "3x".
	Scale string
	// Name is the file's logical name with scale tokens stripped.
	Name        string
	Fingerprint string

	// Width and Height are zero for byte-hashed files.
	Width  int
	Height int
	// Referenced is false when the imageset's Contents.json does not list
	// the file.
	Referenced bool
}

// ReportGroup is one reported duplicate: the occurrences of a single
// fingerprint spanning two or more imagesets.
type ReportGroup struct {
	// ID is the 1-based position of the group in the report.
	ID          int
	Fingerprint string
	Name        string
	Occurrences []Occurrence
}

// Containers returns the distinct containers of the group in first-seen
// order.
func (g ReportGroup) Containers() []string {
	return distinctContainers(g.Occurrences)
}

// Stats summarizes a collection pass.
type Stats struct {
	Catalogs  int
	ImageSets int
	Hashed    int
	Skipped   int
}
