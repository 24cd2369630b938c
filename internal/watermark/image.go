// Package watermark's image.go implements the public embed/extract API
// (spec C7/C8): RGB channel composition, fast-mode ROI cropping, and the
// MD5/raw-text payload entry points.
package watermark

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"github.com/blindmarkctl/blindmark/internal/blinderr"
	"github.com/blindmarkctl/blindmark/internal/dwt"
	"github.com/blindmarkctl/blindmark/internal/payload"
)

// fastModeThreshold is the dimension above which both width and height
// must fall before fast mode engages its ROI crop.
const fastModeThreshold = 512

// roiSize is the side length of the fast-mode region of interest.
const roiSize = 512

// validateStrength enforces the retained-but-inert strength knob: rejected
// outside [0.1, 1.0], otherwise ignored by the codec (see spec.md §4.1).
func validateStrength(strength float64) error {
	if strength < 0.1 || strength > 1.0 {
		return blinderr.New(blinderr.InvalidConfig,
			fmt.Sprintf("strength %v out of range [0.1, 1.0]", strength))
	}
	return nil
}

func splitChannels(img image.Image) (r, g, b [][]float64, w, h int) {
	bounds := img.Bounds()
	w, h = bounds.Dx(), bounds.Dy()
	r = make([][]float64, h)
	g = make([][]float64, h)
	b = make([][]float64, h)
	for y := 0; y < h; y++ {
		r[y] = make([]float64, w)
		g[y] = make([]float64, w)
		b[y] = make([]float64, w)
		for x := 0; x < w; x++ {
			c := color.NRGBAModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
			r[y][x] = float64(c.R)
			g[y][x] = float64(c.G)
			b[y][x] = float64(c.B)
		}
	}
	return r, g, b, w, h
}

func mergeChannels(r, g, b [][]float64, w, h int) *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out.SetNRGBA(x, y, color.NRGBA{
				R: clampByte(r[y][x]),
				G: clampByte(g[y][x]),
				B: clampByte(b[y][x]),
				A: 255,
			})
		}
	}
	return out
}

func clampByte(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}

// embedChannel runs the DWT -> block embed -> inverse DWT pipeline on one
// channel plane.
func embedChannel(plane [][]float64, bits []int) ([][]float64, error) {
	ll, lh, hl, hh := dwt.Forward2D(plane)
	if err := embedBlocks(ll, bits); err != nil {
		return nil, err
	}
	return dwt.Inverse2D(ll, lh, hl, hh), nil
}

// extractChannelSoft runs the DWT -> block extract pipeline on one channel
// plane, returning its soft-bit vector.
func extractChannelSoft(plane [][]float64, wmSize int) ([]float64, error) {
	ll, _, _, _ := dwt.Forward2D(plane)
	return extractSoft(ll, wmSize)
}

// embedBits writes bits into all three color channels independently and
// recomposes the image. Fails with blinderr.ImageProcessing if either
// dimension is odd.
func embedBits(img image.Image, bits []int) (image.Image, error) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w%2 != 0 || h%2 != 0 {
		return nil, blinderr.New(blinderr.ImageProcessing,
			fmt.Sprintf("image dimensions must be even, got %dx%d", w, h))
	}

	r, g, b, w, h := splitChannels(img)
	var err error
	if r, err = embedChannel(r, bits); err != nil {
		return nil, err
	}
	if g, err = embedChannel(g, bits); err != nil {
		return nil, err
	}
	if b, err = embedChannel(b, bits); err != nil {
		return nil, err
	}
	return mergeChannels(r, g, b, w, h), nil
}

// extractBitsSoft sums the three channels' soft-bit vectors (range [0,3])
// for the caller to threshold.
func extractBitsSoft(img image.Image, wmSize int) ([]float64, error) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w%2 != 0 || h%2 != 0 {
		return nil, blinderr.New(blinderr.ImageProcessing,
			fmt.Sprintf("image dimensions must be even, got %dx%d", w, h))
	}

	r, g, b, _, _ := splitChannels(img)
	sum := make([]float64, wmSize)
	for _, plane := range [][][]float64{r, g, b} {
		soft, err := extractChannelSoft(plane, wmSize)
		if err != nil {
			return nil, err
		}
		for i, v := range soft {
			sum[i] += v
		}
	}
	return sum, nil
}

func thresholdBits(soft []float64) []int {
	bits := make([]int, len(soft))
	for i, v := range soft {
		if v > 1.5 {
			bits[i] = 1
		}
	}
	return bits
}

// EmbedMD5 embeds the MD5 digest of text into every channel of img.
func EmbedMD5(img image.Image, text string, strength float64) (image.Image, error) {
	if err := validateStrength(strength); err != nil {
		return nil, err
	}
	bits, _ := payload.EncodeMD5(text)
	return embedBits(img, bits)
}

// ExtractMD5 recovers the lowercase hex MD5 digest embedded in img.
func ExtractMD5(img image.Image) (string, error) {
	soft, err := extractBitsSoft(img, payload.MD5Bits)
	if err != nil {
		return "", err
	}
	return payload.DecodeMD5(thresholdBits(soft))
}

// EmbedText embeds raw text (framed per payload.EncodeText) into img. When
// fastMode is true and both dimensions exceed the fast-mode threshold, only
// the top-left ROI is modulated and pasted back into the unmodified image.
func EmbedText(img image.Image, text string, strength float64, fastMode bool) (image.Image, error) {
	if err := validateStrength(strength); err != nil {
		return nil, err
	}
	bits, err := payload.EncodeText(text)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if fastMode && w > fastModeThreshold && h > fastModeThreshold {
		roiRect := image.Rect(0, 0, roiSize, roiSize)
		roi := image.NewNRGBA(roiRect)
		draw.Draw(roi, roiRect, img, bounds.Min, draw.Src)

		watermarkedROI, err := embedBits(roi, bits)
		if err != nil {
			return nil, err
		}

		full := image.NewNRGBA(image.Rect(0, 0, w, h))
		draw.Draw(full, full.Bounds(), img, bounds.Min, draw.Src)
		draw.Draw(full, roiRect, watermarkedROI, image.Point{}, draw.Src)
		return full, nil
	}

	return embedBits(img, bits)
}

// ExtractText recovers the raw text embedded in img. When the full image
// carries no raw-text frame and both dimensions exceed the fast-mode
// threshold, the top-left fast-mode ROI is read on its own as well. ok is
// false (with a nil error) when the image decodes cleanly but carries no
// recognizable raw-text frame; err is non-nil only for structural image
// failures (odd dimensions, SVD failure).
func ExtractText(img image.Image) (text string, ok bool, err error) {
	soft, err := extractBitsSoft(img, payload.TextBits)
	if err != nil {
		return "", false, err
	}
	text, ok = payload.DecodeText(thresholdBits(soft))

	bounds := img.Bounds()
	if !ok && bounds.Dx() > fastModeThreshold && bounds.Dy() > fastModeThreshold {
		roiRect := image.Rect(0, 0, roiSize, roiSize)
		roi := image.NewNRGBA(roiRect)
		draw.Draw(roi, roiRect, img, bounds.Min, draw.Src)
		if soft, err = extractBitsSoft(roi, payload.TextBits); err != nil {
			return "", false, err
		}
		text, ok = payload.DecodeText(thresholdBits(soft))
	}
	return text, ok, nil
}
