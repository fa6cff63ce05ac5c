package flow

import (
	"math"

	"github.com/gospatial/terrainsuite/raster"
	"github.com/gospatial/terrainsuite/structures"
)

// priorityOrder is the tie-break order select_dir uses to turn a
// candidate-bit mask into one definite direction: east first, proceeding
// counter-clockwise around the compass. Any fixed total order satisfies
// spec.md's "precomputed tie-break priority over all 8-bit codes" -- what
// matters is that it is the same order every time, not which one.
var priorityOrder = [8]Direction{East, Northeast, North, Northwest, West, Southwest, South, Southeast}

// selectDir is the 256-entry table mapping a direction-bit mask (0..255)
// to the single highest-priority bit it contains, or 0 for an empty mask.
var selectDir [256]Direction

func init() {
	for mask := 0; mask < 256; mask++ {
		for _, d := range priorityOrder {
			if mask&int(d) != 0 {
				selectDir[mask] = d
				break
			}
		}
	}
}

// Resolve runs the iterative flat-direction resolver of spec.md §4.1 over
// dir (as produced by InitialDirections), mutating it in place and
// returning the set of cells that never resolved -- the "internally
// drained basins" the contract calls for.
//
// A cell carries a sum-encoded candidate set either as a positive sum
// (multiple tied downhill bits from InitialDirections) or a negative sum
// (a flagged flat). Resolve first collapses every positive sum (a genuine
// downhill tie, not a flat) straight to select_dir(sum), since those bits
// are all valid outflows already. It then iterates the flat resolver: each
// pass inspects every remaining negative (flat) cell, and for every
// candidate bit b, if the neighbour in direction b does not itself drain
// back along the reverse of b, b is a valid outflow. If any valid outflow
// exists the cell is rewritten to select_dir(outflow mask) -- a single,
// final bit -- and another pass is requested. The loop stops when a full
// pass makes no change.
func (c *Context) Resolve(dir *raster.TypedRaster[int32]) []raster.GridRef {
	rows, cols := dir.Rows(), dir.Cols()
	maxPasses := c.Config.MaxResolverPasses

	// A positive sum-encoded code is a genuine downhill tie (InitialDirections
	// ORs together every candidate bit achieving the maximum slope, even when
	// that slope is positive, not just for flats): collapse it to a single
	// priority-ordered bit before the flat resolver runs, matching
	// r.fill.dir/resolve.c's select_dir pass over every cvalue > 0.
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			code, ok := dir.Value(row, col)
			if !ok || code <= 0 {
				continue
			}
			dir.Set(row, col, int32(selectDir[code]))
		}
	}

	pass := 0
	for {
		pass++
		changed := false
		for row := 0; row < rows; row++ {
			for col := 0; col < cols; col++ {
				code, ok := dir.Value(row, col)
				if !ok || code >= 0 {
					continue
				}
				candidates := -code

				var outflow int32
				for _, n := range raster.AllDirections {
					if int32(n.Bit)&candidates == 0 {
						continue
					}
					nCode, nok := dir.Value(row+n.DRow, col+n.DCol)
					if !nok {
						continue
					}
					if nCode < 0 {
						// neighbour is itself still a flat: not yet a
						// valid outflow.
						continue
					}
					if nCode == int32(n.Bit.Opposite()) {
						// neighbour drains straight back into this cell.
						continue
					}
					outflow |= int32(n.Bit)
				}
				if outflow != 0 {
					dir.Set(row, col, int32(selectDir[outflow]))
					changed = true
				}
			}
		}
		if !changed {
			break
		}
		if maxPasses > 0 && pass >= maxPasses {
			break
		}
	}

	var undrained []raster.GridRef
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			code, ok := dir.Value(row, col)
			if ok && code < 0 && code != pitSentinel {
				undrained = append(undrained, raster.GridRef{Row: row, Col: col})
			}
		}
	}
	if len(undrained) > 0 {
		c.warn(nil, "unresolved flats remain after flat-direction resolution")
	}
	return undrained
}

// ResolveFlow runs spec.md §4.1's full fill/resolve/ppupdate loop to
// completion: FillPits, InitialDirections, and Resolve once, then, while
// cells remain undrained, PourPointUpdate against the current elevation
// and another FillPits/InitialDirections/Resolve pass, repeating until
// Resolve reports no undrained cells, PourPointUpdate reports no change
// (an internally drained basin at the map boundary -- see PourPointUpdate),
// or maxIterations passes have run. maxIterations <= 0 means "iterate
// until every cell drains to a map edge," matching the contract's default;
// 1 gives the "stop after one pass" option spec.md §4.1 also allows for.
//
// It returns the final filled elevation, the final resolved direction
// raster, and whatever undrained cells remain (empty unless the loop was
// cut off by maxIterations or it hit a boundary flat PourPointUpdate
// cannot raise any further).
func (c *Context) ResolveFlow(elev *raster.TypedRaster[float64], maxIterations int) (*raster.TypedRaster[float64], *raster.TypedRaster[int32], []raster.GridRef) {
	filled := c.FillPits(elev)
	dir := c.InitialDirections(filled)
	undrained := c.Resolve(dir)

	for pass := 1; len(undrained) > 0; pass++ {
		if maxIterations > 0 && pass >= maxIterations {
			break
		}
		if !c.PourPointUpdate(filled, undrained) {
			break
		}
		filled = c.FillPits(filled)
		dir = c.InitialDirections(filled)
		undrained = c.Resolve(dir)
	}
	return filled, dir, undrained
}

// PourPointUpdate implements spec.md §4.1's ppupdate: for each internally
// drained basin (the cells Resolve reports as undrained, grouped by
// connectivity), find the lowest-elevation boundary cell shared with a
// neighbouring basin or the outside world, raise every interior cell of
// the basin to that pour-point elevation, and report whether the raise
// actually changed anything -- a basin whose pour point equals its lowest
// interior elevation is a flat region at the map boundary and is left
// unchanged, per spec.md §4.1's failure semantics.
func (c *Context) PourPointUpdate(elev *raster.TypedRaster[float64], undrained []raster.GridRef) bool {
	if len(undrained) == 0 {
		return false
	}
	seen := make(map[raster.GridRef]bool, len(undrained))
	inBasin := make(map[raster.GridRef]bool, len(undrained))
	for _, g := range undrained {
		inBasin[g] = true
	}

	anyChange := false
	for _, seed := range undrained {
		if seen[seed] {
			continue
		}
		basin := floodBasin(inBasin, seen, seed)

		lowestInterior := math.Inf(1)
		pourPoint := math.Inf(1)
		for _, g := range basin {
			z, _ := elev.Value(g.Row, g.Col)
			if z < lowestInterior {
				lowestInterior = z
			}
			for _, n := range raster.AllDirections {
				nr, nc := g.Row+n.DRow, g.Col+n.DCol
				if inBasin[raster.GridRef{Row: nr, Col: nc}] {
					continue
				}
				zn, ok := elev.Value(nr, nc)
				if !ok {
					continue
				}
				if zn < pourPoint {
					pourPoint = zn
				}
			}
		}
		if math.IsInf(pourPoint, 1) || pourPoint <= lowestInterior {
			// no external neighbour, or the basin's pour point is no
			// higher than its own floor: a flat region at the map
			// boundary, left unchanged.
			continue
		}
		for _, g := range basin {
			elev.Set(g.Row, g.Col, pourPoint)
		}
		anyChange = true
	}
	return anyChange
}

// floodBasin collects every cell 4-connected to seed within the inBasin
// set, marking each visited cell in seen so the caller can skip it as a
// future seed. The breadth-first order is carried by a structures.CellQueue
// rather than a hand-rolled slice stack, the same FIFO container the A*
// accumulation pass's neighbour discovery is grounded on.
func floodBasin(inBasin, seen map[raster.GridRef]bool, seed raster.GridRef) []raster.GridRef {
	queue := structures.NewCellQueue()
	queue.Push(structures.GridCell{Row: seed.Row, Col: seed.Col})
	seen[seed] = true
	var basin []raster.GridRef
	for queue.Len() > 0 {
		cell, _ := queue.Pop()
		g := raster.GridRef{Row: cell.Row, Col: cell.Col}
		basin = append(basin, g)
		for _, n := range raster.AllDirections {
			if n.DRow != 0 && n.DCol != 0 {
				continue // 4-connected only
			}
			next := raster.GridRef{Row: g.Row + n.DRow, Col: g.Col + n.DCol}
			if inBasin[next] && !seen[next] {
				seen[next] = true
				queue.Push(structures.GridCell{Row: next.Row, Col: next.Col})
			}
		}
	}
	return basin
}
