package flow

import (
	"math"

	"github.com/gospatial/terrainsuite/raster"
	"github.com/gospatial/terrainsuite/structures"
)

// AccumResult bundles the outputs of an A*-ordered accumulation run:
// the finalised direction raster, the signed accumulation raster, the
// optional TCI raster, and the swale mask produced by the SFD pass.
type AccumResult struct {
	Direction   *raster.TypedRaster[int32]
	Accum       *raster.TypedRaster[float64]
	TCI         *raster.TypedRaster[float64]
	Swale       *raster.TypedRaster[int32]
	AStarOrder  []raster.GridRef
	DuplicateSwaleDrift int
}

// AStarOrder computes the A*-flood processing order of spec.md §4.2: a
// min-heap keyed by (elevation, FIFO insertion order) starting from every
// map-edge cell and every caller-specified depression seed. It returns the
// order cells were popped in (a topological sort of the drainage DAG) and
// a direction raster carrying each cell's A*-assigned drainage direction
// toward the neighbour that first discovered it. A cell nothing ever
// discovers (the lowest point of its catchment) keeps direction 0: it is
// the catchment's true outlet, tested for by isOutlet below rather than by
// a separately tracked mask, since "touches an out-of-bounds neighbour" is
// true of almost every cell on a small raster and is not what spec.md
// means by edge discharge -- only a cell whose OWN resolved direction
// leaves the map (or never received one) actually discharges there.
func (c *Context) AStarOrder(elev *raster.TypedRaster[float64], extraSeeds []raster.GridRef) ([]raster.GridRef, *raster.TypedRaster[int32]) {
	rows, cols := elev.Rows(), elev.Cols()
	dir := raster.New[int32](elev.Region, raster.CELL)
	inHeap := make([]bool, rows*cols)
	worked := make([]bool, rows*cols)
	idx := func(row, col int) int { return row*cols + col }

	heap := structures.NewAStarHeap()
	push := func(row, col int, fromDir raster.Direction) {
		i := idx(row, col)
		if inHeap[i] {
			return
		}
		z, ok := elev.Value(row, col)
		if !ok {
			return
		}
		inHeap[i] = true
		dir.Set(row, col, int32(fromDir))
		heap.Push(structures.GridCell{Row: row, Col: col}, z)
	}

	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			if !elev.IsNull(row, col) && (row == 0 || row == rows-1 || col == 0 || col == cols-1) {
				push(row, col, 0)
			}
		}
	}
	for _, s := range extraSeeds {
		push(s.Row, s.Col, 0)
	}

	order := make([]raster.GridRef, 0, rows*cols)
	for heap.Len() > 0 {
		cell, _, _ := heap.Pop()
		i := idx(cell.Row, cell.Col)
		if worked[i] {
			continue
		}
		worked[i] = true
		order = append(order, raster.GridRef{Row: cell.Row, Col: cell.Col})

		for _, n := range raster.AllDirections {
			nr, nc := cell.Row+n.DRow, cell.Col+n.DCol
			if !elev.InBounds(nr, nc) || elev.IsNull(nr, nc) {
				continue
			}
			ni := idx(nr, nc)
			if worked[ni] {
				continue
			}
			if !inHeap[ni] {
				push(nr, nc, n.Bit.Opposite())
			} else if d, _ := dir.Value(nr, nc); d == 0 {
				dir.Set(nr, nc, int32(n.Bit.Opposite()))
			}
		}
	}
	return order, dir
}

// isOutlet reports whether the cell at (row, col) discharges off the
// raster: either it never received a direction (the lowest point of its
// catchment, nothing downstream of it within the map), or its resolved
// direction steps out of bounds or onto a NULL cell.
func isOutlet(elev *raster.TypedRaster[float64], dir *raster.TypedRaster[int32], row, col int) bool {
	code, ok := dir.Value(row, col)
	if !ok || code <= 0 {
		return true
	}
	dRow, dCol, hasOffset := raster.Direction(code).Offset()
	if !hasOffset {
		return true
	}
	nr, nc := row+dRow, col+dCol
	return elev.IsNull(nr, nc)
}

// SFDAccumulate walks order from upstream-most to downstream-most
// (spec.md's "last to first") donating each cell's accumulation to the
// single neighbour its direction points at, tagging cells whose running
// magnitude exceeds the configured stream threshold as swale. Seed
// weights default to 1 for every non-null cell; a cell whose own direction
// discharges off the map (isOutlet) has its sign flipped negative, and the
// negative sign propagates downstream through every subsequent donation.
func (c *Context) SFDAccumulate(elev *raster.TypedRaster[float64], order []raster.GridRef, dir *raster.TypedRaster[int32]) (*raster.TypedRaster[float64], *raster.TypedRaster[int32]) {
	region := dir.Region
	accum := raster.New[float64](region, raster.DCELL)
	swale := raster.New[int32](region, raster.CELL)

	for _, g := range order {
		accum.Set(g.Row, g.Col, 1)
	}
	for i := len(order) - 1; i >= 0; i-- {
		g := order[i]
		v, _ := accum.Value(g.Row, g.Col)
		if isOutlet(elev, dir, g.Row, g.Col) {
			v = -math.Abs(v)
			accum.Set(g.Row, g.Col, v)
		}
		if math.Abs(v) > c.Config.StreamThreshold {
			swale.Set(g.Row, g.Col, 1)
		}
		code, _ := dir.Value(g.Row, g.Col)
		if code <= 0 {
			continue
		}
		dRow, dCol, ok := raster.Direction(code).Offset()
		if !ok {
			continue
		}
		nr, nc := g.Row+dRow, g.Col+dCol
		nv, nok := accum.Value(nr, nc)
		if !nok {
			continue
		}
		if v < 0 {
			nv = -(math.Abs(nv) + math.Abs(v))
		} else {
			nv += v
		}
		accum.Set(nr, nc, nv)
	}
	return accum, swale
}

// donor is one of a cell's downhill MFD neighbours together with its
// unnormalised weight.
type donor struct {
	row, col int
	weight   float64
}

// MFDAccumulate distributes accumulation to every downhill neighbour in
// proportion to w_i = ((center-neighbour)/dist_i)^convergence (spec.md
// §4.2), forcing the A*-assigned neighbour into the weight set even when
// its own weight would be zero so that plateau connectivity survives.
// Edge cells short-circuit distribution, matching the "no ring artefacts"
// contract. It returns the accumulation raster and a count of cells whose
// weight normalisation drifted beyond the 5e-6 tolerance (a warning, not
// an error, per spec.md §7).
func (c *Context) MFDAccumulate(order []raster.GridRef, elev *raster.TypedRaster[float64], dir *raster.TypedRaster[int32]) (*raster.TypedRaster[float64], int) {
	region := dir.Region
	rows, cols := region.Rows, region.Cols
	accum := raster.New[float64](region, raster.DCELL)
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			if !elev.IsNull(row, col) {
				accum.Set(row, col, 1)
			}
		}
	}

	driftCount := 0
	convergence := c.Config.ConvergenceFactor
	if convergence <= 0 {
		convergence = 5
	}
	const epsilonWeight = 1e-9

	for i := len(order) - 1; i >= 0; i-- {
		g := order[i]
		if g.Row == 0 || g.Row == rows-1 || g.Col == 0 || g.Col == cols-1 {
			continue
		}
		z, _ := elev.Value(g.Row, g.Col)
		v, _ := accum.Value(g.Row, g.Col)
		if isOutlet(elev, dir, g.Row, g.Col) {
			v = -math.Abs(v)
		}

		code, _ := dir.Value(g.Row, g.Col)
		aStarBit := raster.Direction(code)
		if code < 0 {
			aStarBit = 0
		}

		var donors []donor
		total := 0.0
		for _, n := range raster.AllDirections {
			nr, nc := g.Row+n.DRow, g.Col+n.DCol
			zn, nok := elev.Value(nr, nc)
			if !nok {
				continue
			}
			dist := cellDist(region, g.Row, n.DRow, n.DCol)
			slope := (z - zn) / dist
			var w float64
			switch {
			case slope > 0:
				w = math.Pow(slope, convergence)
			case slope == 0:
				w = epsilonWeight
			default:
				w = 0
			}
			if w == 0 && n.Bit != aStarBit {
				continue
			}
			if w == 0 {
				w = epsilonWeight
			}
			donors = append(donors, donor{nr, nc, w})
			total += w
		}
		if total == 0 || len(donors) == 0 {
			continue
		}

		sumProportion := 0.0
		for _, d := range donors {
			proportion := d.weight / total
			sumProportion += proportion
			share := math.Abs(v) * proportion
			nv, _ := accum.Value(d.row, d.col)
			if v < 0 {
				accum.Set(d.row, d.col, -(math.Abs(nv) + share))
			} else {
				accum.Set(d.row, d.col, nv+share)
			}
		}
		if math.Abs(sumProportion-1) > 5e-6 {
			driftCount++
			c.warn(nil, "MFD proportion drift exceeded tolerance")
		}
	}
	return accum, driftCount
}

// TCI computes the topographic convergence index ln(|accumulation| *
// cell_area / (sum(L) * (sum(w*tanB)/sum(w)))) for every donor-bearing
// cell, per spec.md §4.2.
func (c *Context) TCI(elev *raster.TypedRaster[float64], accum *raster.TypedRaster[float64]) *raster.TypedRaster[float64] {
	region := elev.Region
	out := raster.New[float64](region, raster.DCELL)
	rows, cols := region.Rows, region.Cols
	cellArea := region.NSDistance() * region.EWDistance(0)

	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			z, ok := elev.Value(row, col)
			if !ok {
				continue
			}
			a, aok := accum.Value(row, col)
			if !aok {
				continue
			}
			var sumL, sumWTanB, sumW float64
			ewRes := region.EWDistance(row)
			nsRes := region.NSDistance()
			for _, n := range raster.AllDirections {
				zn, nok := elev.Value(row+n.DRow, col+n.DCol)
				if !nok {
					continue
				}
				dist := cellDist(region, row, n.DRow, n.DCol)
				var l float64
				if n.DRow == 0 || n.DCol == 0 {
					l = (nsRes + ewRes) / 4
				} else {
					l = 0.354 * math.Min(nsRes, ewRes)
				}
				tanB := (z - zn) / dist
				if tanB <= 0 {
					tanB = 0.5 / dist
				}
				sumL += l
				sumWTanB += tanB
				sumW++
			}
			if sumL == 0 || sumW == 0 {
				continue
			}
			specificArea := math.Abs(a) * cellArea / sumL
			avgTanB := sumWTanB / sumW
			if avgTanB <= 0 {
				continue
			}
			out.Set(row, col, math.Log(specificArea/avgTanB))
		}
	}
	return out
}

// logTransform applies the teacher's d8FlowAccumulation.go "lnTransform"
// option to accum in place: every non-null cell becomes its natural log.
// The teacher's own accumulation is never negative, so it logs the raw
// value directly; this package's signed edge-discharge cells (spec.md
// §4.2) log the magnitude and restore the sign, so "underestimated"
// cells are still distinguishable from certain ones after the transform.
func logTransform(accum *raster.TypedRaster[float64]) {
	rows, cols := accum.Rows(), accum.Cols()
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			v, ok := accum.Value(row, col)
			if !ok || v == 0 {
				continue
			}
			logV := math.Log(math.Abs(v))
			if v < 0 {
				logV = -logV
			}
			accum.Set(row, col, logV)
		}
	}
}

// AdjustDirections revisits every cell after MFD distribution and, when
// the neighbour that received the largest share of this cell's donation
// differs from the A*-assigned direction, rewrites dir to match the
// empirical maximum, keeping the stored direction raster consistent with
// the flow map actually computed (spec.md §4.2's post-pass adjustment).
// It returns the number of cells adjusted, reported as duplicate-swale
// drift per spec.md §4.2's failure semantics.
func (c *Context) AdjustDirections(elev *raster.TypedRaster[float64], dir *raster.TypedRaster[int32], accum *raster.TypedRaster[float64]) int {
	region := dir.Region
	adjusted := 0
	for row := 0; row < region.Rows; row++ {
		for col := 0; col < region.Cols; col++ {
			code, ok := dir.Value(row, col)
			if !ok || code <= 0 {
				continue
			}
			z, zok := elev.Value(row, col)
			if !zok {
				continue
			}
			var bestBit raster.Direction
			bestAccum := math.Inf(-1)
			for _, n := range raster.AllDirections {
				zn, nok := elev.Value(row+n.DRow, col+n.DCol)
				if !nok || zn >= z {
					continue
				}
				na, nok2 := accum.Value(row+n.DRow, col+n.DCol)
				if !nok2 {
					continue
				}
				if math.Abs(na) > bestAccum {
					bestAccum = math.Abs(na)
					bestBit = n.Bit
				}
			}
			if bestBit != 0 && int32(bestBit) != code {
				dir.Set(row, col, int32(bestBit))
				adjusted++
			}
		}
	}
	if adjusted > 0 {
		c.warn(nil, "direction raster adjusted to match empirical MFD maximum")
	}
	return adjusted
}

// RunSFD runs the full single-flow-direction pipeline -- A* ordering,
// accumulation, and TCI -- over elev starting from the map edges plus any
// extraSeeds, bundling every intermediate raster an end-of-run summary or
// CLI wrapper needs into one AccumResult.
func (c *Context) RunSFD(elev *raster.TypedRaster[float64], extraSeeds []raster.GridRef) AccumResult {
	order, dir := c.AStarOrder(elev, extraSeeds)
	accum, swale := c.SFDAccumulate(elev, order, dir)
	tci := c.TCI(elev, accum)
	if c.Config.LogTransform {
		logTransform(accum)
	}
	return AccumResult{
		Direction:  dir,
		Accum:      accum,
		TCI:        tci,
		Swale:      swale,
		AStarOrder: order,
	}
}

// RunMFD runs the full multi-flow-direction pipeline, reusing the same
// A*-ordered direction raster as RunSFD but distributing accumulation
// proportionally across every downhill neighbour instead of to a single
// steepest one. DuplicateSwaleDrift carries MFDAccumulate's
// proportion-drift count. RunMFD does not call AdjustDirections: Direction
// is the A*-assigned raster, and Swale is left nil.
func (c *Context) RunMFD(elev *raster.TypedRaster[float64], extraSeeds []raster.GridRef) AccumResult {
	order, dir := c.AStarOrder(elev, extraSeeds)
	accum, drift := c.MFDAccumulate(order, elev, dir)
	tci := c.TCI(elev, accum)
	if c.Config.LogTransform {
		logTransform(accum)
	}
	return AccumResult{
		Direction:           dir,
		Accum:               accum,
		TCI:                 tci,
		AStarOrder:          order,
		DuplicateSwaleDrift: drift,
	}
}
