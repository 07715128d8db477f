// Package visualtest compares rendered images with a per-channel
// tolerance, for checking captures against reference renderings.
package visualtest

import (
	"fmt"
	"image"
	"image/color"
	"os"

	"domsnap/pkg/images"
)

// Result describes how two images differ.
type Result struct {
	Match           bool
	DifferentPixels int
	TotalPixels     int
	MaxDifference   int // largest channel difference, 0-255
	// Diff marks differing pixels red over a grey copy of the actual
	// image. Set only when Options.Diff is true.
	Diff *image.RGBA
}

// Options configures a comparison.
type Options struct {
	// Tolerance is the largest channel difference, 0-255, that still
	// counts as equal.
	Tolerance int
	// FuzzyRadius lets a pixel match any expected pixel this many pixels
	// away, absorbing small positional shifts of antialiased edges.
	FuzzyRadius int
	// MaxDifferentPercent passes a comparison whose share of differing
	// pixels is at most this percentage.
	MaxDifferentPercent float64
	Diff                bool
}

func DefaultOptions() Options {
	return Options{Tolerance: 2}
}

// Compare compares two images pixel by pixel. Images are aligned at their
// top-left corners and must have the same size.
func Compare(actual, expected image.Image, opts Options) (*Result, error) {
	ab, eb := actual.Bounds(), expected.Bounds()
	if ab.Size() != eb.Size() {
		return &Result{}, fmt.Errorf("visualtest: sizes differ: actual %v, expected %v", ab.Size(), eb.Size())
	}
	w, h := ab.Dx(), ab.Dy()
	res := &Result{Match: true, TotalPixels: w * h}
	if opts.Diff {
		res.Diff = image.NewRGBA(image.Rect(0, 0, w, h))
	}

	at := func(img image.Image, x, y int) color.RGBA {
		b := img.Bounds()
		return color.RGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.RGBA)
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			a := at(actual, x, y)
			d := difference(a, at(expected, x, y))
			res.MaxDifference = max(res.MaxDifference, d)

			same := d <= opts.Tolerance
			if !same && opts.FuzzyRadius > 0 {
				same = fuzzyMatch(a, expected, at, x, y, w, h, opts)
			}
			if !same {
				res.DifferentPixels++
			}
			if res.Diff != nil {
				if same {
					res.Diff.SetRGBA(x, y, color.RGBA{a.R, a.R, a.R, 255})
				} else {
					res.Diff.SetRGBA(x, y, color.RGBA{255, 0, 0, 255})
				}
			}
		}
	}

	res.Match = res.DifferentPixels == 0
	if !res.Match && opts.MaxDifferentPercent > 0 && res.TotalPixels > 0 {
		pct := float64(res.DifferentPixels) / float64(res.TotalPixels) * 100
		res.Match = pct <= opts.MaxDifferentPercent
	}
	return res, nil
}

// CompareFiles decodes two image files and compares them.
func CompareFiles(actualPath, expectedPath string, opts Options) (*Result, error) {
	actual, err := decodeFile(actualPath)
	if err != nil {
		return nil, err
	}
	expected, err := decodeFile(expectedPath)
	if err != nil {
		return nil, err
	}
	return Compare(actual, expected, opts)
}

func decodeFile(path string) (image.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	img, _, err := images.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("visualtest: decoding %s: %w", path, err)
	}
	return img, nil
}

func fuzzyMatch(a color.RGBA, expected image.Image, at func(image.Image, int, int) color.RGBA, x, y, w, h int, opts Options) bool {
	r := opts.FuzzyRadius
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			nx, ny := x+dx, y+dy
			if nx < 0 || nx >= w || ny < 0 || ny >= h {
				continue
			}
			if difference(a, at(expected, nx, ny)) <= opts.Tolerance {
				return true
			}
		}
	}
	return false
}

func difference(a, b color.RGBA) int {
	return max(absDiff(a.R, b.R), absDiff(a.G, b.G), absDiff(a.B, b.B), absDiff(a.A, b.A))
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}
