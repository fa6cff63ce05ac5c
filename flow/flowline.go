package flow

import (
	"math"

	"github.com/ctessum/geom"

	"github.com/gospatial/terrainsuite/raster"
)

// FlowlineOptions configures flowline integration (spec.md §4.4).
type FlowlineOptions struct {
	// Every Nth row and every Nth column (from row 0, col 0) is seeded: a
	// flowline starts at each cell where a seeded row meets a seeded column.
	Every int
	// ThreeD includes elevation change in the accumulated segment length.
	ThreeD bool
	// MaxSegments bounds segment count per flowline; 0 selects the
	// spec default 4*sqrt(rows^2+cols^2).
	MaxSegments int
	// Barrier marks cells flow must not enter (treated like NULL).
	Barrier *raster.TypedRaster[int32]
}

// Flowline is one integrated streamline: its vector path in map
// coordinates and its total length (2D or 3D per FlowlineOptions).
type Flowline struct {
	Path   geom.LineString
	Length float64
}

// IntegrateFlowlines runs spec.md §4.4's continuous streamline
// integration from every Nth cell center of elev, using aspect (degrees
// CCW from east) read from a precomputed raster if given, else computed
// on the fly from central differences. It returns one Flowline per seed
// plus rasters of flowline length (seed-to-stop) and flowline density
// (count of flowlines crossing each cell).
func (c *Context) IntegrateFlowlines(elev *raster.TypedRaster[float64], aspect *raster.TypedRaster[float64], opts FlowlineOptions) ([]Flowline, *raster.TypedRaster[float64], *raster.TypedRaster[float64]) {
	region := elev.Region
	rows, cols := region.Rows, region.Cols
	lengthOut := raster.New[float64](region, raster.DCELL)
	density := raster.New[float64](region, raster.DCELL)

	maxSegments := opts.MaxSegments
	if maxSegments <= 0 {
		maxSegments = int(4 * math.Sqrt(float64(rows*rows+cols*cols)))
	}
	every := opts.Every
	if every <= 0 {
		every = 1
	}

	quantEpsilon := quantizationEpsilon(region)

	var flowlines []Flowline
	for row := 0; row < rows; row += every {
		for col := 0; col < cols; col += every {
			if elev.IsNull(row, col) {
				continue
			}
			fl, touched := c.integrateOneFlowline(elev, aspect, opts, row, col, maxSegments, quantEpsilon)
			flowlines = append(flowlines, fl)
			lengthOut.Set(row, col, fl.Length)
			for _, t := range touched {
				cur, _ := density.Value(t.Row, t.Col)
				density.Set(t.Row, t.Col, cur+1)
			}
		}
	}
	return flowlines, lengthOut, density
}

// quantizationEpsilon precomputes, per spec.md §4.4, the angular
// tolerance (degrees) within which a trajectory is forced to exactly
// horizontal or vertical, derived from the cell aspect ratio. Square
// cells get a flat 0.5 degree tolerance; the more elongated a cell is,
// the tighter the snap has to be on its long axis to avoid forcing a
// trajectory onto a grid line it was never close to.
func quantizationEpsilon(region raster.Region) float64 {
	ew := region.EWDistance(region.Rows / 2)
	ns := region.NSDistance()
	if ew <= 0 || ns <= 0 {
		return 0.5
	}
	ratio := ew / ns
	if ratio < 1 {
		ratio = 1 / ratio
	}
	return 0.5 / ratio
}

func (c *Context) integrateOneFlowline(elev, aspect *raster.TypedRaster[float64], opts FlowlineOptions, startRow, startCol int, maxSegments int, quantEps float64) (Flowline, []raster.GridRef) {
	region := elev.Region
	x, y := region.MapCoord(startRow, startCol, 0.5)
	path := geom.LineString{{X: x, Y: y}}
	var touched []raster.GridRef

	row, col := startRow, startCol
	z, _ := elev.Value(row, col)
	length := 0.0

	for seg := 0; seg < maxSegments; seg++ {
		touched = append(touched, raster.GridRef{Row: row, Col: col})
		if opts.Barrier != nil {
			if b, ok := opts.Barrier.Value(row, col); ok && b != 0 {
				break
			}
		}

		theta := aspectAt(elev, aspect, row, col)
		theta = quantize(theta, quantEps)

		exitX, exitY, nextRow, nextCol, ok := cellExit(region, row, col, x, y, theta)
		if !ok {
			break
		}

		newZ := bilinearElevation(elev, exitX, exitY, region)
		if math.IsNaN(newZ) || newZ >= z {
			break
		}
		dx := exitX - x
		dy := exitY - y
		if opts.ThreeD {
			dz := newZ - z
			length += math.Sqrt(dx*dx + dy*dy + dz*dz)
		} else {
			length += math.Hypot(dx, dy)
		}

		x, y, z = exitX, exitY, newZ
		path = append(path, geom.Point{X: x, Y: y})
		row, col = nextRow, nextCol
		if !elev.InBounds(row, col) || elev.IsNull(row, col) {
			break
		}
	}
	return Flowline{Path: path, Length: length}, touched
}

// aspectAt reads a precomputed aspect raster if present, else computes
// the direction of steepest descent (degrees CCW from east) via central
// differences over the 3x3 neighbourhood.
func aspectAt(elev, aspect *raster.TypedRaster[float64], row, col int) float64 {
	if aspect != nil {
		if v, ok := aspect.Value(row, col); ok {
			return v
		}
	}
	z := func(dr, dc int) float64 {
		if v, ok := elev.Value(row+dr, col+dc); ok {
			return v
		}
		v, _ := elev.Value(row, col)
		return v
	}
	fx := (z(-1, 1) + 2*z(0, 1) + z(1, 1) - z(-1, -1) - 2*z(0, -1) - z(1, -1)) / 8
	fy := (z(1, -1) + 2*z(1, 0) + z(1, 1) - z(-1, -1) - 2*z(-1, 0) - z(-1, 1)) / 8
	// fx grows eastward and fy grows southward, so steepest descent is
	// (-fx) east and (+fy) north.
	return math.Atan2(fy, -fx) * 180 / math.Pi
}

// quantize forces theta to the nearest cardinal direction when within eps
// degrees of it, preventing integer-snapping oscillation on near-axis
// trajectories.
func quantize(theta, eps float64) float64 {
	theta = math.Mod(theta, 360)
	if theta < 0 {
		theta += 360
	}
	for _, axis := range []float64{0, 90, 180, 270, 360} {
		if math.Abs(theta-axis) <= eps {
			return math.Mod(axis, 360)
		}
	}
	return theta
}

// cellExit finds where a ray leaving (x, y) at angle theta (degrees CCW
// from east) exits the cell at (row, col), choosing whichever of the
// vertical or horizontal cell boundary the ray reaches first, per
// spec.md §4.4.
func cellExit(region raster.Region, row, col int, x, y, thetaDeg float64) (exitX, exitY float64, nextRow, nextCol int, ok bool) {
	rad := thetaDeg * math.Pi / 180
	dx, dy := math.Cos(rad), math.Sin(rad)
	if dx == 0 && dy == 0 {
		return 0, 0, 0, 0, false
	}

	left, _ := region.MapCoord(row, col, 0.0)
	right, _ := region.MapCoord(row, col, 1.0)
	_, top := region.MapCoord(row, col, 0.0)
	_, bottom := region.MapCoord(row, col, 1.0)

	var tx, ty float64 = math.Inf(1), math.Inf(1)
	if dx > 0 {
		tx = (right - x) / dx
	} else if dx < 0 {
		tx = (left - x) / dx
	}
	if dy > 0 {
		ty = (top - y) / dy
	} else if dy < 0 {
		ty = (bottom - y) / dy
	}

	if tx <= ty {
		exitX = x + dx*tx
		exitY = y + dy*tx
		nextCol = col + 1
		if dx < 0 {
			nextCol = col - 1
		}
		nextRow = row
	} else {
		exitX = x + dx*ty
		exitY = y + dy*ty
		nextRow = row - 1
		if dy < 0 {
			nextRow = row + 1
		}
		nextCol = col
	}
	return exitX, exitY, nextRow, nextCol, true
}

// bilinearElevation interpolates elev at map coordinates (x, y) from the
// four surrounding cell centers.
func bilinearElevation(elev *raster.TypedRaster[float64], x, y float64, region raster.Region) float64 {
	colF := (x - region.West) / region.EWRes
	rowF := (region.North - y) / region.NSRes
	col0 := int(math.Floor(colF - 0.5))
	row0 := int(math.Floor(rowF - 0.5))
	tx := colF - 0.5 - float64(col0)
	ty := rowF - 0.5 - float64(row0)

	get := func(r, c int) (float64, bool) { return elev.Value(r, c) }
	z00, ok00 := get(row0, col0)
	z01, ok01 := get(row0, col0+1)
	z10, ok10 := get(row0+1, col0)
	z11, ok11 := get(row0+1, col0+1)
	if !ok00 || !ok01 || !ok10 || !ok11 {
		return math.NaN()
	}
	top := z00*(1-tx) + z01*tx
	bot := z10*(1-tx) + z11*tx
	return top*(1-ty) + bot*ty
}
