//go:build heif

package fingerprint

// Registers the "heif" image format (.heic/.heif). Needs cgo and libheif.
import _ "github.com/strukturag/libheif/go/heif"
