package render

import (
	"fmt"
	"image"
	_ "image/jpeg" // register JPEG format with image.Decode
	_ "image/png"  // register PNG format with image.Decode
	"io"
	"log/slog"
	"math"

	"github.com/echoflaresat/daylightmap/colors"
	"github.com/echoflaresat/daylightmap/earth"
	"github.com/echoflaresat/tiff"
	"golang.org/x/exp/mmap"
	_ "golang.org/x/image/bmp"  // register BMP format with image.Decode
	_ "golang.org/x/image/webp" // register WebP format with image.Decode
)

// Texture is an equirectangular world image sampled by geographic
// coordinate: column 0 is longitude -180, row 0 is latitude 90.
type Texture struct {
	Width  int
	Height int
	img    image.Image
}

// NewTexture wraps a decoded image.
func NewTexture(img image.Image) *Texture {
	b := img.Bounds()
	return &Texture{Width: b.Dx(), Height: b.Dy(), img: img}
}

// LoadImage decodes r as TIFF, falling back to the registered image codecs.
func LoadImage(r io.ReaderAt, size int64) (image.Image, error) {
	img, err := tiff.Decode(io.NewSectionReader(r, 0, size))
	if err == nil {
		return img, nil
	}
	img, _, err = image.Decode(io.NewSectionReader(r, 0, size))
	return img, err
}

// LoadTexture memory maps path and decodes it.
func LoadTexture(path string) (*Texture, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	img, err := LoadImage(r, int64(r.Len()))
	if err != nil {
		return nil, fmt.Errorf("decoding texture %s: %w", path, err)
	}
	t := NewTexture(img)
	slog.Debug("texture loaded", "path", path, "width", t.Width, "height", t.Height)
	return t, nil
}

// Sample returns the texel nearest to c.
func (t *Texture) Sample(c earth.GeoCoordinate) colors.Color4 {
	return t.getColorAtXY(t.getXY(c))
}

func (t *Texture) getColorAtXY(x, y int) colors.Color4 {
	if x < 0 {
		x = 0
	} else if x >= t.Width {
		x = t.Width - 1
	}
	if y < 0 {
		y = 0
	} else if y >= t.Height {
		y = t.Height - 1
	}
	b := t.img.Bounds()
	if n, ok := t.img.(*image.NRGBA); ok {
		c := n.NRGBAAt(b.Min.X+x, b.Min.Y+y)
		return colors.From8BitRgb(c.R, c.G, c.B, c.A)
	}
	return colors.FromStandardColor(t.img.At(b.Min.X+x, b.Min.Y+y))
}

func (t *Texture) getXY(c earth.GeoCoordinate) (int, int) {
	u := (c.Lng + 180) / 360 * float64(t.Width)
	u = math.Mod(u, float64(t.Width))
	if u < 0 {
		u += float64(t.Width)
	}
	v := (90 - c.Lat) / 180 * float64(t.Height)
	return int(u), int(v)
}
