package chart

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

const kdePoints = 100

// histogramData is the binned form of a numeric column plus its KDE curve,
// already scaled to bin counts.
type histogramData struct {
	Centers []float64
	Counts  []float64
	Width   float64
	KDEX    []float64
	KDEY    []float64
	Min     float64
	Max     float64
}

// sturges returns the Sturges bin count for n observations.
func sturges(n int) int {
	if n < 2 {
		return 1
	}
	return int(math.Ceil(math.Log2(float64(n)))) + 1
}

func buildHistogram(values []float64) (histogramData, error) {
	x := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			x = append(x, v)
		}
	}
	if len(x) == 0 {
		return histogramData{}, fmt.Errorf("no finite values")
	}
	sort.Float64s(x)

	lo, hi := x[0], x[len(x)-1]
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}

	bins := sturges(len(x))
	width := (hi - lo) / float64(bins)
	if math.IsInf(hi-lo, 0) || width <= 0 || math.IsInf(width, 0) {
		return histogramData{}, fmt.Errorf("value range [%g, %g] cannot be binned", lo, hi)
	}

	dividers := make([]float64, bins+1)
	floats.Span(dividers, lo, hi)
	// stat.Histogram wants the top divider strictly above the max value
	dividers[bins] = math.Nextafter(hi, math.Inf(1))
	for i := 1; i < len(dividers); i++ {
		if !(dividers[i] > dividers[i-1]) {
			return histogramData{}, fmt.Errorf("value range [%g, %g] too narrow for %d bins", lo, hi, bins)
		}
	}

	counts := stat.Histogram(nil, dividers, x, nil)

	centers := make([]float64, bins)
	for i := range centers {
		centers[i] = lo + width*(float64(i)+0.5)
	}

	out := histogramData{
		Centers: centers,
		Counts:  counts,
		Width:   width,
		Min:     lo,
		Max:     hi,
	}
	out.KDEX, out.KDEY = kde(x, lo, hi, width)

	return out, nil
}

// kde evaluates a Gaussian kernel density estimate with Scott's bandwidth on
// an even grid over [lo, hi], scaled so the curve is comparable to counts of
// bins of the given width.
func kde(x []float64, lo, hi, width float64) ([]float64, []float64) {
	n := float64(len(x))
	sigma := stat.StdDev(x, nil)
	if len(x) < 2 || sigma == 0 || math.IsNaN(sigma) {
		return nil, nil
	}
	bandwidth := sigma * math.Pow(n, -1.0/5.0)

	kernels := make([]distuv.Normal, len(x))
	for i, v := range x {
		kernels[i] = distuv.Normal{Mu: v, Sigma: bandwidth}
	}

	xs := make([]float64, kdePoints)
	floats.Span(xs, lo, hi)

	ys := make([]float64, kdePoints)
	for i, at := range xs {
		var density float64
		for _, k := range kernels {
			density += k.Prob(at)
		}
		// sum of kernels is n*pdf, so one bin holds n*pdf*width observations
		ys[i] = density * width
	}

	return xs, ys
}

type pieSlice struct {
	Label string
	Count int
}

// pieData counts values and labels each slice "<value> (<pct>%)", largest
// first. Equal counts keep first-appearance order.
func pieData(values []string) []pieSlice {
	index := make(map[string]int, len(values))
	var slices []pieSlice
	for _, v := range values {
		i, ok := index[v]
		if !ok {
			i = len(slices)
			index[v] = i
			slices = append(slices, pieSlice{Label: v})
		}
		slices[i].Count++
	}

	sort.SliceStable(slices, func(i, j int) bool {
		return slices[i].Count > slices[j].Count
	})

	total := float64(len(values))
	for i := range slices {
		pct := float64(slices[i].Count) / total * 100
		slices[i].Label = fmt.Sprintf("%s (%.1f%%)", slices[i].Label, pct)
	}

	return slices
}
