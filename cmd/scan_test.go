package cmd

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sw33tLie/xcdupes/pkg/storage"
)

func writeSolidPNG(t *testing.T, path string, c color.Color) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			img.Set(x, y, c)
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestResolveRoot(t *testing.T) {
	dir := t.TempDir()
	got, err := resolveRoot("  " + dir + " ")
	require.NoError(t, err)
	assert.Equal(t, dir, got)

	_, err = resolveRoot("")
	assert.Error(t, err)
	_, err = resolveRoot(filepath.Join(dir, "missing"))
	assert.Error(t, err)

	file := filepath.Join(dir, "f.txt")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	_, err = resolveRoot(file)
	assert.Error(t, err)
}

func TestRunScanWritesReportAndRecordsRuns(t *testing.T) {
	work := t.TempDir()
	root := filepath.Join(work, "Project")
	cat := filepath.Join(root, "Assets.xcassets")
	writeSolidPNG(t, filepath.Join(cat, "A.imageset", "logo.png"), color.NRGBA{R: 0xff, A: 0xff})
	writeSolidPNG(t, filepath.Join(cat, "B.imageset", "logo@2x.png"), color.NRGBA{R: 0xff, A: 0xff})

	outPath := filepath.Join(work, "out", "dupes.csv")
	settings := scanSettings{
		concurrency: 2,
		useDB:       true,
		dbPath:      filepath.Join(work, "history.sqlite"),
	}
	ctx := context.Background()

	require.NoError(t, runScan(ctx, root, outPath, settings))

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	lines := strings.Split(string(data), "\r\n")
	require.GreaterOrEqual(t, len(lines), 4)
	assert.Equal(t, "Group,Hash,Imageset,Scale", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "Group 1,"))
	assert.True(t, strings.HasSuffix(lines[1], filepath.Join(cat, "A.imageset")+","))
	assert.True(t, strings.HasSuffix(lines[2], filepath.Join(cat, "B.imageset")+",2x"))
	assert.Equal(t, "", lines[3])

	// Make the duplicate go away and scan again.
	writeSolidPNG(t, filepath.Join(cat, "B.imageset", "logo@2x.png"), color.NRGBA{B: 0xff, A: 0xff})
	require.NoError(t, runScan(ctx, root, outPath, settings))

	db, err := storage.Open(settings.dbPath)
	require.NoError(t, err)
	defer db.Close()

	runs, err := db.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, 0, runs[0].Groups)
	assert.Equal(t, 1, runs[1].Groups)

	changes, err := db.ListRecentChanges(ctx, 10)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, storage.ChangeRemoved, changes[0].ChangeType)
	assert.Equal(t, "logo", changes[0].Name)
}

func TestShortHash(t *testing.T) {
	assert.Equal(t, "abc", shortHash("abc"))
	assert.Equal(t, "0123456789ab", shortHash("0123456789abcdef"))
}
