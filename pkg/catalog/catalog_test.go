package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func mkdir(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(path, 0o755))
}

func TestCatalogsRootIsCatalog(t *testing.T) {
	root := filepath.Join(t.TempDir(), "Assets.xcassets")
	mkdir(t, filepath.Join(root, "Icon.imageset"))

	w, err := NewWalker(root, nil)
	require.NoError(t, err)
	got, err := w.Catalogs()
	require.NoError(t, err)
	assert.Equal(t, []string{root}, got)
}

func TestCatalogsNested(t *testing.T) {
	root := t.TempDir()
	mkdir(t, filepath.Join(root, "App", "Assets.xcassets", "Inner.xcassets"))
	mkdir(t, filepath.Join(root, "Widget", "Resources", "Media.xcassets"))
	mkdir(t, filepath.Join(root, "Docs"))
	touch(t, filepath.Join(root, "file.xcassets"))

	w, err := NewWalker(root, nil)
	require.NoError(t, err)
	got, err := w.Catalogs()
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "App", "Assets.xcassets"),
		filepath.Join(root, "Widget", "Resources", "Media.xcassets"),
	}, got)
}

func TestCatalogsExclude(t *testing.T) {
	root := t.TempDir()
	mkdir(t, filepath.Join(root, "App", "Assets.xcassets"))
	mkdir(t, filepath.Join(root, "Pods", "Lib", "Lib.xcassets"))

	w, err := NewWalker(root, []string{"Pods/**", "Pods"})
	require.NoError(t, err)
	got, err := w.Catalogs()
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "App", "Assets.xcassets")}, got)
}

func TestCatalogsNotADirectory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "plain")
	touch(t, file)

	w, err := NewWalker(file, nil)
	require.NoError(t, err)
	_, err = w.Catalogs()
	assert.ErrorIs(t, err, ErrNotDirectory)

	w, err = NewWalker(filepath.Join(t.TempDir(), "missing"), nil)
	require.NoError(t, err)
	_, err = w.Catalogs()
	assert.Error(t, err)
}

func TestNewWalkerBadPattern(t *testing.T) {
	_, err := NewWalker(t.TempDir(), []string{"[unclosed"})
	assert.Error(t, err)
}

func TestImageSetsAndFiles(t *testing.T) {
	cat := filepath.Join(t.TempDir(), "Assets.xcassets")
	touch(t, filepath.Join(cat, "Icons", "b.imageset", "b@2x.png"))
	touch(t, filepath.Join(cat, "a.imageset", "a@3x.png"))
	touch(t, filepath.Join(cat, "a.imageset", "a@2x.png"))
	touch(t, filepath.Join(cat, "a.imageset", "Contents.json"))
	touch(t, filepath.Join(cat, "a.imageset", "nested", "deep.png"))
	mkdir(t, filepath.Join(cat, "AppIcon.appiconset"))

	w, err := NewWalker(cat, nil)
	require.NoError(t, err)

	sets, err := w.ImageSets(cat)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(cat, "Icons", "b.imageset"),
		filepath.Join(cat, "a.imageset"),
	}, sets)

	files, err := w.Files(filepath.Join(cat, "a.imageset"))
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(cat, "a.imageset", "Contents.json"),
		filepath.Join(cat, "a.imageset", "a@2x.png"),
		filepath.Join(cat, "a.imageset", "a@3x.png"),
	}, files)
}

func TestFilesExclude(t *testing.T) {
	cat := filepath.Join(t.TempDir(), "Assets.xcassets")
	touch(t, filepath.Join(cat, "a.imageset", "a.png"))
	touch(t, filepath.Join(cat, "a.imageset", "a.pdf"))

	w, err := NewWalker(cat, []string{"**/*.pdf"})
	require.NoError(t, err)
	files, err := w.Files(filepath.Join(cat, "a.imageset"))
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(cat, "a.imageset", "a.png")}, files)
}

func TestFilesFollowsSymlinkedFiles(t *testing.T) {
	dir := t.TempDir()
	shared := filepath.Join(dir, "shared", "logo.png")
	touch(t, shared)
	mkdir(t, filepath.Join(dir, "shared", "folder"))
	set := filepath.Join(dir, "Assets.xcassets", "a.imageset")
	touch(t, filepath.Join(set, "a.png"))
	require.NoError(t, os.Symlink(shared, filepath.Join(set, "linked.png")))
	require.NoError(t, os.Symlink(filepath.Join(dir, "missing.png"), filepath.Join(set, "dangling.png")))
	require.NoError(t, os.Symlink(filepath.Join(dir, "shared", "folder"), filepath.Join(set, "dir.png")))

	w, err := NewWalker(dir, nil)
	require.NoError(t, err)
	files, err := w.Files(set)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(set, "a.png"),
		filepath.Join(set, "linked.png"),
	}, files)
}

func TestCatalogOf(t *testing.T) {
	root := t.TempDir()
	outer := filepath.Join(root, "Outer.xcassets")
	inner := filepath.Join(outer, "Group", "Inner.xcassets")

	assert.Equal(t, outer, CatalogOf(filepath.Join(outer, "A.imageset")))
	assert.Equal(t, outer, CatalogOf(filepath.Join(outer, "Icons", "B.imageset")))
	assert.Equal(t, inner, CatalogOf(filepath.Join(inner, "C.imageset")))
	assert.Equal(t, "", CatalogOf(filepath.Join(root, "Loose.imageset")))
}

func TestParseManifest(t *testing.T) {
	m, err := ParseManifest([]byte(`{
  "images" : [
    { "filename" : "icon.png", "idiom" : "universal", "scale" : "1x" },
    { "filename" : "icon@2x.png", "idiom" : "universal", "scale" : "2x" },
    { "idiom" : "universal", "scale" : "3x" }
  ],
  "info" : { "author" : "xcode", "version" : 1 }
}`))
	require.NoError(t, err)
	assert.True(t, m.Known)
	assert.True(t, m.References("icon.png"))
	assert.True(t, m.References("icon@2x.png"))
	assert.False(t, m.References("icon@3x.png"))

	_, err = ParseManifest([]byte(`{"images": [`))
	assert.Error(t, err)
}

func TestReadManifestMissing(t *testing.T) {
	m, err := ReadManifest(t.TempDir())
	require.NoError(t, err)
	assert.False(t, m.Known)
	assert.True(t, m.References("anything.png"))
}
