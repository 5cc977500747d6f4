package dupes

// Index maps fingerprints to the occurrences sharing them. Fingerprints
// iterate in first-insertion order and occurrences in append order.
type Index struct {
	order []string
	byFP  map[string][]Occurrence
}

// NewIndex returns an empty Index.
func NewIndex() *Index {
	return &Index{byFP: make(map[string][]Occurrence)}
}

// Add appends occ under its fingerprint. Occurrences without a fingerprint
// are ignored.
func (x *Index) Add(occ Occurrence) {
	if occ.Fingerprint == "" {
		return
	}
	if _, ok := x.byFP[occ.Fingerprint]; !ok {
		x.order = append(x.order, occ.Fingerprint)
	}
	x.byFP[occ.Fingerprint] = append(x.byFP[occ.Fingerprint], occ)
}

// Len returns the number of distinct fingerprints.
func (x *Index) Len() int {
	return len(x.order)
}

// Fingerprints returns the fingerprints in first-insertion order.
func (x *Index) Fingerprints() []string {
	return append([]string(nil), x.order...)
}

// Get returns the occurrences for fp.
func (x *Index) Get(fp string) []Occurrence {
	return x.byFP[fp]
}

// Each calls fn for every fingerprint in insertion order until fn returns
// false.
func (x *Index) Each(fn func(fp string, occs []Occurrence) bool) {
	for _, fp := range x.order {
		if !fn(fp, x.byFP[fp]) {
			return
		}
	}
}
