package vect

import (
	"fmt"

	"github.com/ctessum/geom"

	"github.com/gospatial/terrainsuite/raster"
)

// ValueMode selects how a traced line's output attribute is derived.
type ValueMode int

const (
	// ValueNone emits lines with no attribute.
	ValueNone ValueMode = iota
	// ValueSequential assigns each line an incrementing integer category.
	ValueSequential
	// ValueStartCell carries the raster value at the line's first cell.
	ValueStartCell
)

// LineOptions configures ExtractLines.
type LineOptions struct {
	Mode ValueMode
	// PreserveValue splits a traced line at every cell-to-cell value
	// change so each output line has a single uniform raster value,
	// overriding Mode's category with that value.
	PreserveValue bool
}

// ThinLine is one traced polyline between two junction/endpoint nodes, or
// a closed loop when its connected component has no node at all.
type ThinLine struct {
	Points   geom.LineString
	Value    float64
	HasValue bool
	Closed   bool
}

// ExtractLines thins-raster-to-vector converts vals (every run already
// at most 1 cell wide) into polylines (spec.md §4.7). Every non-null cell
// is a vertex of an 8-connected graph in which a diagonal neighbour
// already reachable through an orthogonal neighbour is not an edge; a
// cell with exactly one edge is a line endpoint, 3-5 edges makes it a
// junction node, and 2 is an interior pass-through cell. Chains of
// pass-through cells between nodes become lines; a connected component
// with no node at all (a closed ring of 1-wide cells) becomes one closed
// line. A cell with 6+ non-null neighbours (all 8 neighbours counted)
// means the raster was not properly thinned and is a fatal error.
func (c *Context) ExtractLines(vals *raster.TypedRaster[float64], opts LineOptions) ([]ThinLine, error) {
	region := vals.Region
	rows, cols := region.Rows, region.Cols

	degree := make([][]int, rows)
	neighbors := make([][][]raster.Direction, rows)
	for r := 0; r < rows; r++ {
		degree[r] = make([]int, cols)
		neighbors[r] = make([][]raster.Direction, cols)
		for cidx := 0; cidx < cols; cidx++ {
			if vals.IsNull(r, cidx) {
				continue
			}
			var dirs []raster.Direction
			nonNull := 0
			for _, n := range raster.AllDirections {
				nr, nc := r+n.DRow, cidx+n.DCol
				if !vals.InBounds(nr, nc) || vals.IsNull(nr, nc) {
					continue
				}
				nonNull++
				if isDiagonal(n.Bit) && diagonalBridged(vals, r, cidx, n.Bit) {
					// A diagonal neighbour already reachable through one
					// of its two orthogonal bridge cells is a redundant
					// corner-touch, not a genuine extra branch -- this is
					// the standard 8-connected-foreground /
					// 4-connected-background disambiguation used to keep
					// two lines that merely brush a shared corner from
					// being treated as one junction.
					continue
				}
				dirs = append(dirs, n.Bit)
			}
			degree[r][cidx] = len(dirs)
			neighbors[r][cidx] = dirs
			if nonNull > 5 {
				return nil, fmt.Errorf("vect: cell (%d,%d) has %d non-null neighbours, raster is not thinned", r, cidx, nonNull)
			}
		}
	}

	visited := make([][]map[raster.Direction]bool, rows)
	for r := range visited {
		visited[r] = make([]map[raster.Direction]bool, cols)
		for cidx := range visited[r] {
			visited[r][cidx] = map[raster.Direction]bool{}
		}
	}

	isNode := func(r, cidx int) bool {
		d := degree[r][cidx]
		return d == 1 || (d >= 3 && d <= 5)
	}

	var chains [][]raster.GridRef

	trace := func(startR, startC int, d0 raster.Direction) []raster.GridRef {
		pts := []raster.GridRef{{Row: startR, Col: startC}}
		r, cidx, d := startR, startC, d0
		for {
			visited[r][cidx][d] = true
			dr, dc, _ := d.Offset()
			nr, nc := r+dr, cidx+dc
			visited[nr][nc][d.Opposite()] = true
			r, cidx = nr, nc
			pts = append(pts, raster.GridRef{Row: r, Col: cidx})
			if r == startR && cidx == startC {
				return pts
			}
			back := d.Opposite()
			var others []raster.Direction
			for _, cand := range neighbors[r][cidx] {
				if cand != back {
					others = append(others, cand)
				}
			}
			straight := len(others) > 0 && containsDir(others, d)
			// A plain pass-through (degree 2) always continues. A 3-way
			// junction continues only along the direction collinear with
			// how we arrived -- the classic T where the straight run
			// passes through and a single branch gets its own node-
			// terminated line (spec.md §8 item e) -- anything else (a
			// true branch point with no straight continuation, or a
			// 4/5-neighbour node) ends the arc here.
			switch {
			case degree[r][cidx] == 2:
				d = others[0]
			case degree[r][cidx] == 3 && straight:
				// continue along d unchanged
			default:
				return pts
			}
		}
	}

	for r := 0; r < rows; r++ {
		for cidx := 0; cidx < cols; cidx++ {
			if vals.IsNull(r, cidx) || !isNode(r, cidx) {
				continue
			}
			for _, d := range neighbors[r][cidx] {
				if visited[r][cidx][d] {
					continue
				}
				chains = append(chains, trace(r, cidx, d))
			}
		}
	}
	for r := 0; r < rows; r++ {
		for cidx := 0; cidx < cols; cidx++ {
			if vals.IsNull(r, cidx) {
				continue
			}
			for _, d := range neighbors[r][cidx] {
				if visited[r][cidx][d] {
					continue
				}
				chains = append(chains, trace(r, cidx, d))
			}
		}
	}

	var lines []ThinLine
	seq := 0
	for _, chain := range chains {
		closed := chain[0] == chain[len(chain)-1]
		runs := splitByValue(vals, chain, opts.PreserveValue)
		for _, run := range runs {
			line := ThinLine{Points: toLineStringCells(region, run), Closed: closed && len(runs) == 1}
			switch {
			case opts.PreserveValue:
				v, ok := vals.Value(run[0].Row, run[0].Col)
				line.Value, line.HasValue = v, ok
			case opts.Mode == ValueStartCell:
				v, ok := vals.Value(run[0].Row, run[0].Col)
				line.Value, line.HasValue = v, ok
			case opts.Mode == ValueSequential:
				line.Value, line.HasValue = float64(seq), true
				seq++
			}
			lines = append(lines, line)
		}
	}
	return lines, nil
}

func isDiagonal(d raster.Direction) bool {
	switch d {
	case raster.Northeast, raster.Northwest, raster.Southwest, raster.Southeast:
		return true
	default:
		return false
	}
}

// diagonalBridged reports whether diagonal neighbour d of cell (r,c) is
// also reachable through one of its two orthogonal bridge cells, making
// the direct diagonal edge a redundant corner-touch.
func diagonalBridged(vals *raster.TypedRaster[float64], r, c int, d raster.Direction) bool {
	var br1, br2 raster.Direction
	switch d {
	case raster.Northeast:
		br1, br2 = raster.North, raster.East
	case raster.Northwest:
		br1, br2 = raster.North, raster.West
	case raster.Southwest:
		br1, br2 = raster.South, raster.West
	default: // Southeast
		br1, br2 = raster.South, raster.East
	}
	for _, bridge := range [2]raster.Direction{br1, br2} {
		dr, dc, _ := bridge.Offset()
		nr, nc := r+dr, c+dc
		if vals.InBounds(nr, nc) && !vals.IsNull(nr, nc) {
			return true
		}
	}
	return false
}

func containsDir(list []raster.Direction, d raster.Direction) bool {
	for _, v := range list {
		if v == d {
			return true
		}
	}
	return false
}

// splitByValue breaks chain into maximal runs of equal raster value when
// preserve is set, so each output line carries one uniform value
// (spec.md §4.7's value-propagation rule); otherwise it returns chain
// unchanged as a single run.
func splitByValue(vals *raster.TypedRaster[float64], chain []raster.GridRef, preserve bool) [][]raster.GridRef {
	if !preserve || len(chain) < 2 {
		return [][]raster.GridRef{chain}
	}
	var runs [][]raster.GridRef
	start := 0
	curVal, curOK := vals.Value(chain[0].Row, chain[0].Col)
	for i := 1; i < len(chain); i++ {
		v, ok := vals.Value(chain[i].Row, chain[i].Col)
		if ok != curOK || v != curVal {
			runs = append(runs, chain[start:i+1])
			start = i
			curVal, curOK = v, ok
		}
	}
	runs = append(runs, chain[start:])
	return runs
}

func toLineStringCells(region raster.Region, cells []raster.GridRef) geom.LineString {
	ls := make(geom.LineString, len(cells))
	for i, cell := range cells {
		x, y := region.MapCoord(cell.Row, cell.Col, 0.5)
		ls[i] = geom.Point{X: x, Y: y}
	}
	return ls
}
