package pdfx

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"

	"github.com/disintegration/imaging"
	xdraw "golang.org/x/image/draw"
)

// sauvolaWindow and sauvolaK are the local-window size and sensitivity
// constant for Sauvola binarization, the values commonly used for
// scanned-document text (Sauvola & Pietikäinen, 2000).
const (
	sauvolaWindow = 15
	sauvolaK      = 0.34
	sauvolaR      = 128.0
)

// ApplyPreprocessing decodes the PNG at path, applies the requested
// preprocessing flags in a fixed order (contrast-enhance, denoise, deskew,
// binarize), and overwrites the file in place. auto-rotate, like any flag not
// in that list, is ignored here: 180/90/270 rotation retry is handled by
// OCRSinglePageWithRetry against the garbage score.
func ApplyPreprocessing(path string, flags []string) error {
	if len(flags) == 0 {
		return nil
	}

	f, err := os.Open(path) //nolint:gosec // path is produced by our own pdftoppm invocation
	if err != nil {
		return fmt.Errorf("pdfx: preprocess open %q: %w", path, err)
	}
	img, _, err := image.Decode(f)
	closeErr := f.Close()
	if err != nil {
		return fmt.Errorf("pdfx: preprocess decode %q: %w", path, err)
	}
	if closeErr != nil {
		return fmt.Errorf("pdfx: preprocess close %q: %w", path, closeErr)
	}

	set := make(map[string]bool, len(flags))
	for _, flag := range flags {
		set[flag] = true
	}

	if set["contrast-enhance"] {
		img = imaging.AdjustContrast(img, 15)
	}
	if set["denoise"] {
		img = imaging.Blur(img, 0.6)
	}
	if set["deskew"] {
		img = deskew(img)
	}
	if set["binarize"] {
		img = sauvolaBinarize(img)
	}

	out, err := os.Create(path) //nolint:gosec // overwriting our own rasterized temp PNG
	if err != nil {
		return fmt.Errorf("pdfx: preprocess create %q: %w", path, err)
	}
	defer func() { _ = out.Close() }()
	if err := png.Encode(out, img); err != nil {
		return fmt.Errorf("pdfx: preprocess encode %q: %w", path, err)
	}
	return nil
}

// deskewCandidateDegrees are the small-angle corrections tried when hunting
// for the orientation with the sharpest horizontal text-line projection.
// This corrects scanner skew, not the 90/180/270 page rotation handled by
// OCRSinglePageWithRetry.
var deskewCandidateDegrees = []float64{-4, -3, -2, -1, 0, 1, 2, 3, 4}

// deskew rotates img by whichever small angle maximizes the variance of its
// horizontal ink-density projection: a correctly deskewed page of printed
// text has sharp, high-variance bands where text lines versus inter-line
// gaps fall, while a skewed page smears that signal out.
func deskew(img image.Image) image.Image {
	gray := toGray(img)
	best := 0.0
	bestScore := -1.0
	for _, deg := range deskewCandidateDegrees {
		candidate := gray
		if deg != 0 {
			rotated := imaging.Rotate(gray, deg, color.White)
			candidate = toGray(rotated)
		}
		score := horizontalProjectionVariance(candidate)
		if score > bestScore {
			bestScore = score
			best = deg
		}
	}
	if best == 0 {
		return img
	}
	return imaging.Rotate(img, best, color.White)
}

func horizontalProjectionVariance(gray *image.Gray) float64 {
	b := gray.Bounds()
	rowSums := make([]float64, b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		var sum float64
		for x := b.Min.X; x < b.Max.X; x++ {
			sum += 255.0 - float64(gray.GrayAt(x, y).Y)
		}
		rowSums[y-b.Min.Y] = sum
	}
	if len(rowSums) == 0 {
		return 0
	}
	var mean float64
	for _, v := range rowSums {
		mean += v
	}
	mean /= float64(len(rowSums))
	var variance float64
	for _, v := range rowSums {
		d := v - mean
		variance += d * d
	}
	return variance / float64(len(rowSums))
}

func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	b := img.Bounds()
	gray := image.NewGray(b)
	xdraw.Draw(gray, b, img, b.Min, xdraw.Src)
	return gray
}

// sauvolaBinarize converts img to grayscale and applies Sauvola's local
// adaptive threshold: a pixel is black when its intensity falls below
// mean*(1+k*(stddev/R-1)) over a sauvolaWindow x sauvolaWindow neighborhood,
// computed from integral image and integral-of-squares tables so the whole
// pass is O(width*height) instead of O(width*height*window^2).
func sauvolaBinarize(img image.Image) image.Image {
	gray := toGray(img)
	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()

	sum := make([][]float64, h+1)
	sumSq := make([][]float64, h+1)
	for i := range sum {
		sum[i] = make([]float64, w+1)
		sumSq[i] = make([]float64, w+1)
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := float64(gray.GrayAt(b.Min.X+x, b.Min.Y+y).Y)
			sum[y+1][x+1] = sum[y][x+1] + sum[y+1][x] - sum[y][x] + v
			sumSq[y+1][x+1] = sumSq[y][x+1] + sumSq[y+1][x] - sumSq[y][x] + v*v
		}
	}

	half := sauvolaWindow / 2
	out := image.NewGray(b)
	for y := 0; y < h; y++ {
		y0, y1 := clampRange(y-half, y+half+1, h)
		for x := 0; x < w; x++ {
			x0, x1 := clampRange(x-half, x+half+1, w)
			area := float64((y1 - y0) * (x1 - x0))
			s := sum[y1][x1] - sum[y0][x1] - sum[y1][x0] + sum[y0][x0]
			sq := sumSq[y1][x1] - sumSq[y0][x1] - sumSq[y1][x0] + sumSq[y0][x0]
			mean := s / area
			variance := sq/area - mean*mean
			if variance < 0 {
				variance = 0
			}
			stddev := math.Sqrt(variance)
			threshold := mean * (1 + sauvolaK*(stddev/sauvolaR-1))

			v := float64(gray.GrayAt(b.Min.X+x, b.Min.Y+y).Y)
			if v < threshold {
				out.SetGray(b.Min.X+x, b.Min.Y+y, color.Gray{Y: 0})
			} else {
				out.SetGray(b.Min.X+x, b.Min.Y+y, color.Gray{Y: 255})
			}
		}
	}
	return out
}

func clampRange(lo, hi, limit int) (int, int) {
	if lo < 0 {
		lo = 0
	}
	if hi > limit {
		hi = limit
	}
	return lo, hi
}
