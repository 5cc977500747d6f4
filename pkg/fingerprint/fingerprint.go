// Package fingerprint computes content fingerprints for catalog assets.
//
// Raster images are decoded and their pixels converted to non-premultiplied
// 8-bit RGBA before hashing, so two files that render the same pixels share a
// fingerprint no matter how they were encoded. Vector and opaque formats
// (pdf, svg) are hashed byte for byte.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	// Decoders registered with the image package.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// Kind classifies a file by how it is fingerprinted.
type Kind int

const (
	// Unsupported files are neither hashed nor collected.
	Unsupported Kind = iota
	// Raster files are decoded and hashed over canonical pixels.
	Raster
	// Opaque files are hashed over their raw bytes.
	Opaque
)

func (k Kind) String() string {
	switch k {
	case Raster:
		return "raster"
	case Opaque:
		return "opaque"
	default:
		return "unsupported"
	}
}

// ErrUnsupported is returned for files whose extension is not fingerprinted.
var ErrUnsupported = errors.New("unsupported file type")

var rasterExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".heic": true,
	".heif": true,
	".webp": true,
}

var opaqueExtensions = map[string]bool{
	".pdf": true,
	".svg": true,
}

// KindOf classifies path by its lowercased extension.
func KindOf(path string) Kind {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case rasterExtensions[ext]:
		return Raster
	case opaqueExtensions[ext]:
		return Opaque
	default:
		return Unsupported
	}
}

// Result is the fingerprint of a single file.
type Result struct {
	// Digest is the lowercase hex SHA-256. Empty means "no hash".
	Digest string
	Kind   Kind
	// Width and Height are the decoded dimensions; zero for opaque files.
	Width  int
	Height int
}

// Compute fingerprints the file at path. Any failure yields an error and a
// Result with an empty Digest; callers exclude such files.
func Compute(path string) (Result, error) {
	switch KindOf(path) {
	case Raster:
		return hashImageFile(path)
	case Opaque:
		return hashFileBytes(path)
	default:
		return Result{}, fmt.Errorf("%s: %w", path, ErrUnsupported)
	}
}

func hashFileBytes(path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("read %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return Result{}, fmt.Errorf("read %s: %w", path, err)
	}
	return Result{Digest: hex.EncodeToString(h.Sum(nil)), Kind: Opaque}, nil
}

func hashImageFile(path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("read %s: %w", path, err)
	}
	defer f.Close()

	img, err := decode(f)
	if err != nil {
		return Result{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return HashImage(img), nil
}

// decode wraps image.Decode; some third-party decoders panic on corrupt input.
func decode(r io.Reader) (img image.Image, err error) {
	defer func() {
		if p := recover(); p != nil {
			img, err = nil, fmt.Errorf("decoder panic: %v", p)
		}
	}()
	img, _, err = image.Decode(r)
	return img, err
}

// HashImage fingerprints an already decoded image.
func HashImage(img image.Image) Result {
	pix, w, h := Canonical(img)
	sum := sha256.Sum256(pix)
	return Result{
		Digest: hex.EncodeToString(sum[:]),
		Kind:   Raster,
		Width:  w,
		Height: h,
	}
}
