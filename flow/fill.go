package flow

import (
	"math"
	"strconv"

	"github.com/gospatial/terrainsuite/geo"
	"github.com/gospatial/terrainsuite/raster"
)

// FillPits runs a three-row banded sweep over elev (spec.md §4.1) and
// returns a new raster identical to elev except that every interior cell
// that is a strict single-cell minimum has been raised to its lowest
// neighbour's elevation. Edge cells and NULL neighbours are never treated
// as sinks: a cell bordering the map edge or a NULL neighbour is left
// untouched here (the A* accumulation pass in accumulate.go is what
// actually discharges at the map edge).
func (c *Context) FillPits(elev *raster.TypedRaster[float64]) *raster.TypedRaster[float64] {
	rows, cols := elev.Rows(), elev.Cols()
	out := elev.Clone()

	epsilon := 0.0
	if c.Config.FixFlats {
		epsilon = fixFlatsEpsilon(elev)
	}

	for row := 1; row < rows-1; row++ {
		for col := 1; col < cols-1; col++ {
			z, ok := elev.Value(row, col)
			if !ok {
				continue
			}
			lowest := math.Inf(1)
			complete := true
			for _, n := range raster.AllDirections {
				zn, nok := elev.Value(row+n.DRow, col+n.DCol)
				if !nok {
					complete = false
					break
				}
				if zn < lowest {
					lowest = zn
				}
			}
			if complete && lowest > z {
				// center was strictly lower than every neighbour: a
				// single-cell pit, raised to the lowest neighbour. With
				// FixFlats, it is raised a hair higher still so the fill
				// does not itself manufacture a new flat at the pit site,
				// matching the teacher's FillDepressions "fixFlats" option
				// (its SMALL_NUM epsilon keeps a second fill+resolve pass
				// from finding anything left to do).
				out.Set(row, col, lowest+epsilon)
			}
		}
	}
	return out
}

// fixFlatsEpsilon derives a tiny elevation increment scaled to elev's value
// range, matching the teacher's FillDepressions epsilon derivation
// (elevDigits from the min/max spread, SMALL_NUM = 1 / 10^(8-elevDigits)):
// small enough never to change which neighbour is lowest, large enough to
// survive float64 rounding.
func fixFlatsEpsilon(elev *raster.TypedRaster[float64]) float64 {
	rows, cols := elev.Rows(), elev.Cols()
	min, max := math.Inf(1), math.Inf(-1)
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			z, ok := elev.Value(row, col)
			if !ok {
				continue
			}
			if z < min {
				min = z
			}
			if z > max {
				max = z
			}
		}
	}
	spread := max - min
	if math.IsInf(spread, 0) || spread <= 0 {
		return 1e-7
	}
	digits := len(strconv.Itoa(int(spread)))
	if digits < 1 {
		digits = 1
	}
	multiplier := math.Pow(10, float64(8-digits))
	if multiplier <= 0 {
		return 1e-7
	}
	return 1 / multiplier
}

// InitialDirections assigns, per spec.md §4.1, a direction code to every
// non-null interior cell of elev: the single bit of maximum signed slope
// (center-neighbour)/dist, with ties OR-ed together; 0 signed slope
// produces the negated sum of the tied bits (a flat); a negative maximum
// slope (every neighbour higher) produces pitSentinel. Every cell on the
// map's outer rows and columns instead gets a fixed outward direction,
// regardless of its own elevation -- not just the four corners -- a
// constant code assigned to an entire edge before ever looking at slope:
// the whole top row (i==0) gets 8 (Northwest), the whole bottom row gets
// 128 (Southeast), the whole left column gets 32 (Southwest), and the
// whole right column gets 2 (Northeast), checked in that order so a corner
// cell takes whichever of its two edges is tested first (top/bottom before
// left/right).
func (c *Context) InitialDirections(elev *raster.TypedRaster[float64]) *raster.TypedRaster[int32] {
	rows, cols := elev.Rows(), elev.Cols()
	dir := raster.New[int32](elev.Region, raster.CELL)

	edge := func(row, col int) (Direction, bool) {
		switch {
		case row == 0:
			return Northwest, true
		case row == rows-1:
			return Southeast, true
		case col == 0:
			return Southwest, true
		case col == cols-1:
			return Northeast, true
		default:
			return 0, false
		}
	}

	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			z, ok := elev.Value(row, col)
			if !ok {
				dir.SetNull(row, col)
				continue
			}
			if d, isEdge := edge(row, col); isEdge {
				dir.Set(row, col, int32(d))
				continue
			}

			maxSlope := math.Inf(-1)
			var candidates int32
			for _, n := range raster.AllDirections {
				zn, nok := elev.Value(row+n.DRow, col+n.DCol)
				if !nok {
					continue
				}
				dist := cellDist(c.Region, row, n.DRow, n.DCol)
				s := geo.Slope(z, zn, dist)
				switch {
				case s > maxSlope:
					maxSlope = s
					candidates = int32(n.Bit)
				case s == maxSlope:
					candidates |= int32(n.Bit)
				}
			}
			switch {
			case candidates == 0:
				dir.SetNull(row, col)
			case maxSlope > 0:
				dir.Set(row, col, candidates)
			case maxSlope == 0:
				dir.Set(row, col, -candidates)
			default:
				dir.Set(row, col, pitSentinel)
			}
		}
	}
	return dir
}

// cellDist returns the planar distance scale for a one-cell step (dRow,
// dCol) starting at row, honouring LL east-west narrowing.
func cellDist(region raster.Region, row, dRow, dCol int) float64 {
	if dCol == 0 {
		return region.NSDistance()
	}
	if dRow == 0 {
		return region.EWDistance(row)
	}
	ns := region.NSDistance()
	ew := region.EWDistance(row)
	return math.Hypot(ns, ew)
}
