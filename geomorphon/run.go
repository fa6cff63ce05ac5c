package geomorphon

import "github.com/gospatial/terrainsuite/raster"

// Result bundles the whole-raster outputs of a classification run: the
// form code per cell, its canonical ternary identity, and the geometry
// metric rasters.
type Result struct {
	Form      *raster.TypedRaster[int32]
	Canonical *raster.TypedRaster[int32]

	MeanIntensity *raster.TypedRaster[float64]
	MaxDiff       *raster.TypedRaster[float64]
	Range         *raster.TypedRaster[float64]
	Variance      *raster.TypedRaster[float64]
	Elongation    *raster.TypedRaster[float64]
	Azimuth       *raster.TypedRaster[float64]
	AreaRatio     *raster.TypedRaster[float64]
	Width         *raster.TypedRaster[float64]
}

// Run classifies every non-null cell of elev, returning a Result with one
// raster per output spec.md §4.5 and §6 describe. withGeometry controls
// whether the (more expensive) geometry-metric rasters are populated.
func (c *Context) Run(elev *raster.TypedRaster[float64], withGeometry bool) Result {
	region := elev.Region
	res := Result{
		Form:      raster.New[int32](region, raster.CELL),
		Canonical: raster.New[int32](region, raster.CELL),
	}
	if withGeometry {
		res.MeanIntensity = raster.New[float64](region, raster.DCELL)
		res.MaxDiff = raster.New[float64](region, raster.DCELL)
		res.Range = raster.New[float64](region, raster.DCELL)
		res.Variance = raster.New[float64](region, raster.DCELL)
		res.Elongation = raster.New[float64](region, raster.DCELL)
		res.Azimuth = raster.New[float64](region, raster.DCELL)
		res.AreaRatio = raster.New[float64](region, raster.DCELL)
		res.Width = raster.New[float64](region, raster.DCELL)
	}

	cellSize := (region.EWDistance(region.Rows/2) + region.NSDistance()) / 2

	for row := 0; row < region.Rows; row++ {
		for col := 0; col < region.Cols; col++ {
			if elev.IsNull(row, col) {
				continue
			}
			form, _, _, canon, ok := c.ClassifyCell(elev, row, col)
			if !ok {
				continue
			}
			res.Form.Set(row, col, int32(form))
			res.Canonical.Set(row, col, int32(canon))

			if withGeometry {
				p, scanOK := c.Scan(elev, row, col)
				if !scanOK {
					continue
				}
				g := c.Geometry(p, cellSize)
				res.MeanIntensity.Set(row, col, g.MeanIntensity)
				res.MaxDiff.Set(row, col, g.MaxDiff)
				res.Range.Set(row, col, g.Range)
				res.Variance.Set(row, col, g.Variance)
				res.Elongation.Set(row, col, g.Elongation)
				res.Azimuth.Set(row, col, g.Azimuth)
				res.AreaRatio.Set(row, col, g.AreaRatio)
				res.Width.Set(row, col, g.Width)
			}
		}
	}
	return res
}
