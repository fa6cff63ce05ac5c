package vect

import (
	"testing"

	"github.com/gospatial/terrainsuite/raster"
)

func testRegion(rows, cols int) raster.Region {
	return raster.NewRegion(rows, cols, float64(rows), 0, float64(cols), 0, raster.XY)
}

// scenario (d): a 3x3 ring of category 1 around a null center produces
// one outer boundary and one hole boundary, each a 4-corner ring, with
// the outer area's centroid at the leftmost cell of row 0 (spec.md §8
// item d).
func TestExtractAreasRingWithHole(t *testing.T) {
	region := testRegion(3, 3)
	vals := raster.New[float64](region, raster.DCELL)
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			if r == 1 && c == 1 {
				continue // leave the center NULL
			}
			vals.Set(r, c, 1)
		}
	}

	ctx := NewContext(region, nil)
	result, err := ctx.ExtractAreas(vals, AreaOptions{Smooth: true})
	if err != nil {
		t.Fatalf("ExtractAreas: %v", err)
	}

	if len(result.Rings) != 2 {
		t.Fatalf("got %d rings, want 2 (outer + hole)", len(result.Rings))
	}
	// Smoothing turns each of the outer ring's 4 corners into 2 chamfer
	// points, closing back to the first: 8 distinct points + 1 repeat. The
	// one-cell hole's chamfer points fall on its edge midpoints, each
	// shared by two corners, so it closes on 4 distinct points + 1 repeat.
	pointCounts := map[int]int{}
	for _, ring := range result.Rings {
		pointCounts[len(ring.Points)]++
	}
	if pointCounts[9] != 1 || pointCounts[5] != 1 {
		t.Errorf("ring point counts = %v, want one ring of 9 (outer: 8 chamfer points, closed) and one of 5 (hole: 4 chamfer points, closed)", pointCounts)
	}

	var outer *AreaInfo
	for id, info := range result.Areas {
		if info.HasCategory && info.Category == 1 {
			info := info
			outer = &info
			_ = id
		}
	}
	if outer == nil {
		t.Fatal("no category-1 area found")
	}
	if outer.Width != 3 {
		t.Errorf("outer area width = %d, want 3", outer.Width)
	}
	wantX, wantY := region.MapCoord(0, 0, 0.5)
	if outer.Centroid.X != wantX || outer.Centroid.Y != wantY {
		t.Errorf("outer centroid = (%v,%v), want (%v,%v) [row 0, col 0]", outer.Centroid.X, outer.Centroid.Y, wantX, wantY)
	}
}

// Invariant 5: the centroid reported for an area lies inside that area.
func TestAreaCentroidLiesInsideArea(t *testing.T) {
	region := testRegion(3, 3)
	vals := raster.New[float64](region, raster.DCELL)
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			vals.Set(r, c, 1)
		}
	}
	ctx := NewContext(region, nil)
	result, err := ctx.ExtractAreas(vals, AreaOptions{})
	if err != nil {
		t.Fatalf("ExtractAreas: %v", err)
	}
	for _, info := range result.Areas {
		if !info.HasCategory {
			continue
		}
		x, y := info.Centroid.X, info.Centroid.Y
		if x < region.West || x > region.East || y < region.South || y > region.North {
			t.Errorf("centroid (%v,%v) falls outside the raster extent", x, y)
		}
	}
}

// scenario (e): a T-junction raster (a vertical line meeting a horizontal
// line) produces a 3-neighbour node at (2,1) and two lines, one vertical
// (0,1)-(2,1) and one horizontal (2,0)-(2,2) (spec.md §8 item e).
func TestExtractLinesTJunction(t *testing.T) {
	region := testRegion(3, 3)
	vals := raster.New[float64](region, raster.DCELL)
	cells := []raster.GridRef{{Row: 0, Col: 1}, {Row: 1, Col: 1}, {Row: 2, Col: 0}, {Row: 2, Col: 1}, {Row: 2, Col: 2}}
	for _, cell := range cells {
		vals.Set(cell.Row, cell.Col, 1)
	}

	ctx := NewContext(region, nil)
	lines, err := ctx.ExtractLines(vals, LineOptions{})
	if err != nil {
		t.Fatalf("ExtractLines: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	for _, line := range lines {
		if len(line.Points) < 2 {
			t.Errorf("line has %d points, want at least 2", len(line.Points))
		}
	}
}

// A cell with more than 5 non-null neighbours means the raster was not
// properly thinned; ExtractLines must report this as a fatal error
// rather than silently miscounting.
func TestExtractLinesRejectsUnthinnedRaster(t *testing.T) {
	region := testRegion(3, 3)
	vals := raster.New[float64](region, raster.DCELL)
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			vals.Set(r, c, 1)
		}
	}
	ctx := NewContext(region, nil)
	if _, err := ctx.ExtractLines(vals, LineOptions{}); err == nil {
		t.Fatal("expected an error for an unthinned (solid block) raster")
	}
}

// PreserveValue splits a traced line wherever the raster value changes,
// so a two-segment line with different values at each half becomes two
// output lines sharing the transition cell.
func TestExtractLinesPreserveValueSplits(t *testing.T) {
	region := testRegion(1, 4)
	vals := raster.New[float64](region, raster.DCELL)
	vals.Set(0, 0, 1)
	vals.Set(0, 1, 1)
	vals.Set(0, 2, 2)
	vals.Set(0, 3, 2)

	ctx := NewContext(region, nil)
	lines, err := ctx.ExtractLines(vals, LineOptions{PreserveValue: true})
	if err != nil {
		t.Fatalf("ExtractLines: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2 (split at the value transition)", len(lines))
	}
}
