package fingerprint

import (
	"image"
	"image/color"
)

// Canonical returns img as tightly packed, non-premultiplied 8-bit RGBA rows
// (4 bytes per pixel, no stride padding) along with its width and height.
// Sources with 16 bits per channel keep the high byte of each channel.
func Canonical(img image.Image) ([]byte, int, int) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := make([]byte, 0, w*h*4)

	switch src := img.(type) {
	case *image.NRGBA:
		for y := b.Min.Y; y < b.Max.Y; y++ {
			off := src.PixOffset(b.Min.X, y)
			out = append(out, src.Pix[off:off+w*4]...)
		}
		return out, w, h
	case *image.NRGBA64:
		for y := b.Min.Y; y < b.Max.Y; y++ {
			row := src.Pix[src.PixOffset(b.Min.X, y):]
			for i := 0; i < w*8; i += 8 {
				out = append(out, row[i], row[i+2], row[i+4], row[i+6])
			}
		}
		return out, w, h
	}

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out = appendNRGBA(out, img.At(x, y))
		}
	}
	return out, w, h
}

// appendNRGBA appends c as non-premultiplied 8-bit RGBA. Colors that are
// already non-premultiplied are copied without an alpha round trip.
func appendNRGBA(out []byte, c color.Color) []byte {
	switch c := c.(type) {
	case color.NRGBA:
		return append(out, c.R, c.G, c.B, c.A)
	case color.NRGBA64:
		return append(out, uint8(c.R>>8), uint8(c.G>>8), uint8(c.B>>8), uint8(c.A>>8))
	}
	n := color.NRGBA64Model.Convert(c).(color.NRGBA64)
	return append(out, uint8(n.R>>8), uint8(n.G>>8), uint8(n.B>>8), uint8(n.A>>8))
}
