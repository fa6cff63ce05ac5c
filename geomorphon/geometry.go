package geomorphon

import (
	"math"

	"github.com/GaryBoone/GoStats/stats"
	"gonum.org/v1/gonum/stat"
)

// Geometry holds the per-cell pattern-geometry metrics spec.md §4.5
// describes: the shape of the 8 zenith/nadir rays, treated as a polygon
// radiating from the center cell.
type Geometry struct {
	MeanIntensity float64
	MaxDiff       float64
	Range         float64
	Variance      float64
	Elongation    float64
	Azimuth       float64
	AreaRatio     float64
	Width         float64
}

// Geometry computes the pattern-geometry metrics for one scanned cell.
// cellSize is the region's representative cell size (used to size the
// comparison octagon for AreaRatio).
func (c *Context) Geometry(p Pattern, cellSize float64) Geometry {
	var g Geometry

	elevs := make([]float64, 0, 16)
	sumIntensity := 0.0
	maxDiff := 0.0
	for i := 0; i < 8; i++ {
		intensity := (p.Zenith[i] + p.Nadir[i]) / 2
		sumIntensity += intensity
		if d := math.Abs(p.Zenith[i] - p.Nadir[i]); d > maxDiff {
			maxDiff = d
		}
		elevs = append(elevs, p.ZenithElev[i], p.NadirElev[i])
	}
	g.MeanIntensity = sumIntensity / 8
	g.MaxDiff = maxDiff

	lo, hi := elevs[0], elevs[0]
	for _, e := range elevs {
		if e < lo {
			lo = e
		}
		if e > hi {
			hi = e
		}
	}
	g.Range = hi - lo
	_, g.Variance = stat.MeanVariance(elevs, nil)

	xs, ys := make([]float64, 8), make([]float64, 8)
	for i := 0; i < 8; i++ {
		dRow, dCol := rayOffset(i)
		dist := p.ZenithDist[i]
		if math.Abs(p.NadirDist[i]) > math.Abs(dist) {
			dist = p.NadirDist[i]
		}
		xs[i] = float64(dCol) * dist
		ys[i] = float64(dRow) * dist
	}

	var slope, intercept, rsquared float64
	slope, intercept, rsquared, _, _, _ = stats.LinearRegression(xs, ys)
	_ = intercept
	_ = rsquared
	g.Azimuth = math.Atan(slope) * 180 / math.Pi
	if g.Azimuth < 0 {
		g.Azimuth += 180
	}

	theta := -g.Azimuth * math.Pi / 180
	cosT, sinT := math.Cos(theta), math.Sin(theta)
	majorLo, majorHi := math.Inf(1), math.Inf(-1)
	minorLo, minorHi := math.Inf(1), math.Inf(-1)
	area := 0.0
	for i := 0; i < 8; i++ {
		rx := xs[i]*cosT - ys[i]*sinT
		ry := xs[i]*sinT + ys[i]*cosT
		if rx < majorLo {
			majorLo = rx
		}
		if rx > majorHi {
			majorHi = rx
		}
		if ry < minorLo {
			minorLo = ry
		}
		if ry > minorHi {
			minorHi = ry
		}
		j := (i + 1) % 8
		area += xs[i]*ys[j] - xs[j]*ys[i]
	}
	area = math.Abs(area) / 2

	major := majorHi - majorLo
	minor := minorHi - minorLo
	g.Width = minor
	if minor > 0 {
		g.Elongation = major / minor
	} else {
		g.Elongation = 0
	}

	searchDist := float64(c.Config.SearchRadius) * cellSize
	octagonArea := 2 * math.Sqrt2 * searchDist * searchDist
	if octagonArea > 0 {
		g.AreaRatio = area / octagonArea
	}

	return g
}
