// Package imagehash computes and serves perceptual fingerprints of
// boss artwork, and exposes a bounded-concurrency, deduplicating
// worker that turns "boss name + image URL" requests into those
// fingerprints (§4.3, §4.4 of the spec).
package imagehash

import (
	"bytes"
	"image"
	_ "image/jpeg" // register JPEG decoding
	_ "image/png"  // register PNG decoding
	"math"

	"github.com/disintegration/imaging"

	"github.com/walfie-raid/petronel/internal/model"
)

const (
	size      = 32
	smallSize = 8
)

// Hash decodes img (JPEG or PNG bytes) and computes its perceptual
// hash, per the algorithm documented in spec.md §4.3:
//
//  1. crop to the upper three-quarters (the bottom 25% typically
//     carries a localized boss-name overlay that would otherwise
//     defeat cross-locale matching),
//  2. nearest-neighbor resize to 32x32 luma,
//  3. 2-D type-II DCT,
//  4. average the AC coefficients of the top-left 8x8 block,
//  5. one hash bit per coefficient above that average.
func Hash(img []byte) (model.ImageHash, error) {
	decoded, _, err := image.Decode(bytes.NewReader(img))
	if err != nil {
		return 0, err
	}

	cropped := cropTopPortion(decoded, 0.75)
	gray := imaging.Resize(cropped, size, size, imaging.NearestNeighbor)

	var vals [size][size]float64
	bounds := gray.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := gray.At(x, y).RGBA()
			// Rec. 601 luma, consistent with image.Gray's conversion.
			luma := 0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(b>>8)
			vals[x-bounds.Min.X][y-bounds.Min.Y] = luma
		}
	}

	dct := apply2DDCT(vals)

	values := make([]float64, 0, smallSize*smallSize)
	for u := 0; u < smallSize; u++ {
		values = append(values, dct[u][:smallSize]...)
	}

	var total float64
	for _, v := range values[1:] {
		total += v
	}
	average := total / float64(len(values)-1)

	var hash int64
	for i := 1; i < len(values); i++ {
		if values[i] > average {
			hash |= 1 << uint(i)
		}
	}

	return model.ImageHash(hash), nil
}

// cropTopPortion returns the upper fraction (0, 1] of img's height.
func cropTopPortion(img image.Image, fraction float64) image.Image {
	bounds := img.Bounds()
	height := int(float64(bounds.Dy()) * fraction)
	if height <= 0 {
		height = 1
	}
	rect := image.Rect(bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Min.Y+height)
	return imaging.Crop(img, rect)
}

// apply2DDCT computes the 2-D type-II DCT of f, with the standard
// 1/sqrt(2) scaling for u=0 or v=0 and an overall 0.25 scale.
func apply2DDCT(f [size][size]float64) [size][size]float64 {
	var out [size][size]float64

	for u := 0; u < size; u++ {
		for v := 0; v < size; v++ {
			var sum float64
			for i := 0; i < size; i++ {
				for j := 0; j < size; j++ {
					sum += f[i][j] *
						math.Cos(math.Pi*float64(u)*float64(2*i+1)/(2*size)) *
						math.Cos(math.Pi*float64(v)*float64(2*j+1)/(2*size))
				}
			}

			if u == 0 {
				sum *= math.Sqrt2 / 2
			}
			if v == 0 {
				sum *= math.Sqrt2 / 2
			}

			out[u][v] = sum * 0.25
		}
	}

	return out
}
