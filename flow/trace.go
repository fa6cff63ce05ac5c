package flow

import (
	"math"

	"github.com/ctessum/geom"

	"github.com/gospatial/terrainsuite/raster"
)

// TraceMode selects what a downslope path trace writes into its output
// raster, per spec.md §4.3.
type TraceMode int

const (
	// TraceMark writes 1 at every traversed cell.
	TraceMark TraceMode = iota
	// TraceCopy copies the input raster's value at every traversed cell.
	TraceCopy
	// TraceAccumulate sums the input raster's values downstream along the
	// path.
	TraceAccumulate
	// TraceNumber writes the 1-based downstream sequence index at every
	// traversed cell.
	TraceNumber
)

// pathSentinel is the row value written between independent traces in a
// combined output list, letting downstream writers segment a multi-seed
// run without a separate length-prefixed structure.
const pathSentinel = math.MaxInt32

// TracePaths walks dir (a hydrological power-of-two direction raster)
// downstream from every seed in seeds, writing into out according to
// mode, and returns the list of traced cells with a {Row: pathSentinel}
// marker inserted between traces (spec.md §4.3). A trace stops when the
// direction is 0 or NULL, or the next cell leaves the map; it never
// revisits a cell already seen within that same trace (the acyclic
// invariant spec.md §8 item 6 requires of a fill-resolved direction
// field).
func (c *Context) TracePaths(dir *raster.TypedRaster[int32], values *raster.TypedRaster[float64], seeds []raster.GridRef, mode TraceMode) ([]raster.GridRef, *raster.TypedRaster[float64]) {
	out := raster.New[float64](dir.Region, raster.DCELL)
	var allCells []raster.GridRef

	for _, seed := range seeds {
		visited := map[raster.GridRef]bool{}
		cell := seed
		running := 0.0
		seq := 1
		for {
			if visited[cell] {
				break // would revisit: direction field is not acyclic here.
			}
			visited[cell] = true
			allCells = append(allCells, cell)

			v, vok := values.Value(cell.Row, cell.Col)
			switch mode {
			case TraceMark:
				out.Set(cell.Row, cell.Col, 1)
			case TraceCopy:
				if vok {
					out.Set(cell.Row, cell.Col, v)
				}
			case TraceAccumulate:
				if vok {
					running += v
				}
				out.Set(cell.Row, cell.Col, running)
			case TraceNumber:
				out.Set(cell.Row, cell.Col, float64(seq))
			}
			seq++

			code, ok := dir.Value(cell.Row, cell.Col)
			if !ok || code == 0 {
				break
			}
			dRow, dCol, hasOffset := raster.Direction(code).Offset()
			if !hasOffset {
				break
			}
			next := raster.GridRef{Row: cell.Row + dRow, Col: cell.Col + dCol}
			if !dir.InBounds(next.Row, next.Col) {
				break
			}
			cell = next
		}
		allCells = append(allCells, raster.GridRef{Row: pathSentinel})
	}
	return allCells, out
}

// CostSurfaceExit is one of the 16 sector cases a cost-surface movement
// direction (degrees, scaled by 10 as spec.md §4.3 describes) resolves to:
// the neighbour offset the ray exits through.
type CostSurfaceExit struct {
	DRow, DCol int
}

// costSurfaceSectors is the 16-entry table covering 22.5 degree sectors
// of a cost-surface movement-direction raster, ordered starting at 0
// degrees (east) and proceeding counter-clockwise, matching the
// hydrological AllDirections compass but at double angular resolution so
// that "knight's move" diagonal-of-a-diagonal offsets are representable.
var costSurfaceSectors = [16]CostSurfaceExit{
	{0, 1},   // 0.0 - 22.5: E
	{-1, 2},  // 22.5 - 45: ENE knight move
	{-1, 1},  // 45 - 67.5: NE
	{-2, 1},  // 67.5 - 90: NNE knight move
	{-1, 0},  // 90 - 112.5: N
	{-2, -1}, // 112.5 - 135: NNW knight move
	{-1, -1}, // 135 - 157.5: NW
	{-1, -2}, // 157.5 - 180: WNW knight move
	{0, -1},  // 180 - 202.5: W
	{1, -2},  // 202.5 - 225: WSW knight move
	{1, -1},  // 225 - 247.5: SW
	{2, -1},  // 247.5 - 270: SSW knight move
	{1, 0},   // 270 - 292.5: S
	{2, 1},   // 292.5 - 315: SSE knight move
	{1, 1},   // 315 - 337.5: SE
	{1, 2},   // 337.5 - 360: ESE knight move
}

// TraceCostSurface walks a floating movement-direction raster (radians,
// as emitted by a cost-distance solver) from seed, choosing at each step
// the 22.5 degree sector costSurfaceSectors indicates, stopping at a
// NULL/zero direction or the map edge.
func (c *Context) TraceCostSurface(moveDir *raster.TypedRaster[float64], seed raster.GridRef) []raster.GridRef {
	var path []raster.GridRef
	visited := map[raster.GridRef]bool{}
	cell := seed
	for {
		if visited[cell] {
			break
		}
		visited[cell] = true
		path = append(path, cell)

		rad, ok := moveDir.Value(cell.Row, cell.Col)
		if !ok || rad == 0 {
			break
		}
		deg := rad * 180 / math.Pi
		if deg < 0 {
			deg += 360
		}
		sector := int(deg*10/225) % 16
		exit := costSurfaceSectors[sector]
		next := raster.GridRef{Row: cell.Row + exit.DRow, Col: cell.Col + exit.DCol}
		if !moveDir.InBounds(next.Row, next.Col) {
			break
		}
		cell = next
	}
	return path
}

// PathToLine converts a single trace's cells (already split on the
// pathSentinel marker by the caller) into a vector line in map
// coordinates, for the optional vector output mode (e).
func PathToLine(region raster.Region, cells []raster.GridRef) geom.LineString {
	line := make(geom.LineString, 0, len(cells))
	for _, cell := range cells {
		x, y := region.MapCoord(cell.Row, cell.Col, 0.5)
		line = append(line, geom.Point{X: x, Y: y})
	}
	return line
}

// SplitOnSentinel partitions a combined trace-cell list (as returned by
// TracePaths) back into one slice per original seed.
func SplitOnSentinel(cells []raster.GridRef) [][]raster.GridRef {
	var segments [][]raster.GridRef
	var current []raster.GridRef
	for _, cell := range cells {
		if cell.Row == pathSentinel {
			segments = append(segments, current)
			current = nil
			continue
		}
		current = append(current, cell)
	}
	if len(current) > 0 {
		segments = append(segments, current)
	}
	return segments
}
