package l2trajectory

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

// truncate matches the kernel extent of scipy.ndimage.gaussian_filter1d.
const truncate = 4.0

// GaussianKernel returns the normalised Gaussian kernel of width sigma with
// radius int(4*sigma + 0.5).
func GaussianKernel(sigma float64) []float64 {
	radius := int(truncate*sigma + 0.5)
	kernel := make([]float64, 2*radius+1)
	normal := distuv.Normal{Mu: 0, Sigma: sigma}
	for i := range kernel {
		kernel[i] = normal.Prob(float64(i - radius))
	}
	floats.Scale(1/floats.Sum(kernel), kernel)
	return kernel
}

// convolve applies kernel with zeros beyond both ends of vals.
func convolve(vals, kernel []float64) []float64 {
	radius := len(kernel) / 2
	out := make([]float64, len(vals))
	for i := range vals {
		var acc float64
		for k, w := range kernel {
			j := i + k - radius
			if j < 0 || j >= len(vals) {
				continue
			}
			acc += w * vals[j]
		}
		out[i] = acc
	}
	return out
}

// SmoothNaN Gaussian-filters vals while ignoring missing samples: missing
// values contribute nothing and the result is renormalised by the locally
// available weight. Where no valid sample lies within the kernel the output
// stays missing.
func SmoothNaN(vals []float64, sigma float64) []float64 {
	filled := make([]float64, len(vals))
	valid := make([]float64, len(vals))
	for i, v := range vals {
		if math.IsNaN(v) {
			continue
		}
		filled[i] = v
		valid[i] = 1
	}

	kernel := GaussianKernel(sigma)
	out := convolve(filled, kernel)
	weights := convolve(valid, kernel)
	for i := range out {
		if weights[i] > 0 {
			out[i] /= weights[i]
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}
