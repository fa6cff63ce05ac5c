package geomorphon

import (
	"math"

	"github.com/gospatial/terrainsuite/raster"
)

// Pattern is one cell's full line-of-sight scan result: the zenith/nadir
// extremes (degrees, 0 = level) and the distance (map units) at which each
// occurred, one entry per ray in rayOrder.
type Pattern struct {
	Zenith     [8]float64
	Nadir      [8]float64
	ZenithDist [8]float64
	NadirDist  [8]float64
	// ZenithElev/NadirElev are the elevations recorded at the extremum
	// step, used by the geometry metrics pass.
	ZenithElev [8]float64
	NadirElev  [8]float64
}

// Scan runs the 8-direction line-of-sight sweep from (row, col) out to
// Config.SearchRadius cells, skipping steps within Config.SkipRadius. It
// reports ok=false if the center cell is NULL.
func (c *Context) Scan(elev *raster.TypedRaster[float64], row, col int) (Pattern, bool) {
	var p Pattern
	e0, ok := elev.Value(row, col)
	if !ok {
		return p, false
	}

	radius := c.Config.SearchRadius
	if radius <= 0 {
		radius = 1
	}
	skip := c.Config.SkipRadius

	for i := range rayOrder {
		dRow, dCol := rayOffset(i)
		zenith := math.Inf(-1)
		nadir := math.Inf(1)
		var zenithDist, nadirDist, zenithElev, nadirElev float64
		found := false

		for step := 1; step <= radius; step++ {
			if step <= skip {
				continue
			}
			r, cc := row+dRow*step, col+dCol*step
			ej, eok := elev.Value(r, cc)
			if !eok {
				break // off-map or NULL: ray terminates here.
			}
			d := stepDistance(c.Region, row, dRow, dCol, step)
			if d <= 0 {
				continue
			}
			alpha := math.Atan2(ej-e0, d) * 180 / math.Pi
			if alpha > zenith {
				zenith = alpha
				zenithDist = d
				zenithElev = ej
			}
			if alpha < nadir {
				nadir = alpha
				nadirDist = d
				nadirElev = ej
			}
			found = true
		}

		if !found {
			zenith, nadir = 0, 0
		}
		p.Zenith[i] = zenith
		p.Nadir[i] = nadir
		p.ZenithDist[i] = zenithDist
		p.NadirDist[i] = nadirDist
		p.ZenithElev[i] = zenithElev
		p.NadirElev[i] = nadirElev
	}
	return p, true
}

// stepDistance returns the planar distance, in map units, from a cell's
// center to the center of the cell "step" hops away in direction
// (dRow, dCol), honouring anisotropic and geographic resolutions via
// Region's per-row east-west correction.
func stepDistance(region raster.Region, row, dRow, dCol, step int) float64 {
	ew := region.EWDistance(row)
	ns := region.NSDistance()
	dx := float64(dCol*step) * ew
	dy := float64(dRow*step) * ns
	return math.Hypot(dx, dy)
}
