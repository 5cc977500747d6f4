package report

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sw33tLie/xcdupes/pkg/dupes"
)

func sampleGroups() []dupes.ReportGroup {
	return []dupes.ReportGroup{
		{
			ID:          1,
			Fingerprint: "aaa",
			Name:        "logo",
			Occurrences: []dupes.Occurrence{
				{Container: "/c/A.imageset", Catalog: "/c", Path: "/c/A.imageset/logo.png", Fingerprint: "aaa", Width: 2, Height: 3, Referenced: true},
				{Container: "/c/B.imageset", Catalog: "/c", Path: "/c/B.imageset/logo@2x.png", Scale: "2x", Fingerprint: "aaa", Width: 2, Height: 3},
			},
		},
		{
			ID:          2,
			Fingerprint: "bbb",
			Occurrences: []dupes.Occurrence{
				{Container: "/c/C, D.imageset", Scale: "3x", Fingerprint: "bbb"},
				{Container: "/c/E.imageset", Scale: "3x", Fingerprint: "bbb"},
			},
		},
	}
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleGroups(), Options{}))

	want := "Group,Hash,Imageset,Scale\r\n" +
		"Group 1,aaa,/c/A.imageset,\r\n" +
		"Group 1,aaa,/c/B.imageset,2x\r\n" +
		"\r\n" +
		"Group 2,bbb,\"/c/C, D.imageset\",3x\r\n" +
		"Group 2,bbb,/c/E.imageset,3x\r\n" +
		"\r\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteExtended(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleGroups()[:1], Options{Extended: true}))

	want := "Group,Hash,Imageset,Scale,Catalog,File,Width,Height,Referenced\r\n" +
		"Group 1,aaa,/c/A.imageset,,/c,logo.png,2,3,true\r\n" +
		"Group 1,aaa,/c/B.imageset,2x,/c,logo@2x.png,2,3,false\r\n" +
		"\r\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, nil, Options{}))
	assert.Equal(t, "Group,Hash,Imageset,Scale\r\n", buf.String())
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "report.csv")
	require.NoError(t, WriteFile(path, sampleGroups(), Options{}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Group 2,bbb")
}

func TestResolveOutputPath(t *testing.T) {
	dir := t.TempDir()

	got, err := ResolveOutputPath(filepath.Join(dir, "sub", "r.CSV"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "sub", "r.CSV"), got)
	assert.DirExists(t, filepath.Join(dir, "sub"))

	got, err = ResolveOutputPath(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, DefaultFileName), got)

	got, err = ResolveOutputPath(filepath.Join(dir, "new", "folder"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "new", "folder", DefaultFileName), got)
	assert.DirExists(t, filepath.Join(dir, "new", "folder"))

	cwd, err := os.Getwd()
	require.NoError(t, err)
	got, err = ResolveOutputPath("  ")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cwd, DefaultFileName), got)
}
