package ai

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// DefaultImageSize is the edge length photos are reduced to before they are
// embedded. CLIP style models work on small square inputs.
const DefaultImageSize = 256

// PrepareImage decodes data, center crops it to a square of size×size and
// re-encodes it as JPEG. EXIF orientation is honoured.
func PrepareImage(data []byte, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultImageSize
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return encodeSquare(img, size)
}

func encodeSquare(img image.Image, size int) ([]byte, error) {
	thumb := imaging.Fill(img, size, size, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(90)); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}
