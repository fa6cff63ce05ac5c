package raster

import (
	"os"
	"path/filepath"
	"testing"
)

func TestTypedRasterNullIsOrthogonal(t *testing.T) {
	region := NewRegion(3, 3, 3, 0, 3, 0, XY)
	r := New[float64](region, DCELL)

	r.Set(1, 1, 0)
	if r.IsNull(1, 1) {
		t.Fatalf("a cell explicitly set to the zero value must not read as NULL")
	}

	r.SetNull(0, 0)
	if _, ok := r.Value(0, 0); ok {
		t.Fatalf("expected (0,0) to be NULL")
	}
	if v, ok := r.Value(1, 1); !ok || v != 0 {
		t.Fatalf("expected (1,1) = 0, got %v ok=%v", v, ok)
	}
}

func TestValueOutOfBoundsIsNull(t *testing.T) {
	region := NewRegion(2, 2, 2, 0, 2, 0, XY)
	r := Fill[float64](region, DCELL, 5)
	if _, ok := r.Value(-1, 0); ok {
		t.Fatalf("expected out-of-bounds read to be NULL")
	}
	if _, ok := r.Value(2, 0); ok {
		t.Fatalf("expected out-of-bounds read to be NULL")
	}
}

func TestMapCoordOffsets(t *testing.T) {
	region := NewRegion(10, 10, 10, 0, 10, 0, XY)
	x, y := region.MapCoord(0, 0, 0.0)
	if x != 0 || y != 10 {
		t.Fatalf("top-left edge coord: got (%v,%v)", x, y)
	}
	x, y = region.MapCoord(0, 0, 0.5)
	if x != 0.5 || y != 9.5 {
		t.Fatalf("center coord: got (%v,%v)", x, y)
	}
	x, y = region.MapCoord(9, 9, 1.0)
	if x != 10 || y != 0 {
		t.Fatalf("bottom-right edge coord: got (%v,%v)", x, y)
	}
}

func TestGrassASCIIRoundTrip(t *testing.T) {
	region := NewRegion(3, 3, 3, 0, 3, 0, XY)
	r := New[float64](region, DCELL)
	vals := [][]float64{{5, 5, 5}, {5, 3, 5}, {5, 5, 5}}
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			r.Set(row, col, vals[row][col])
		}
	}
	r.SetNull(1, 1)

	dir := t.TempDir()
	path := filepath.Join(dir, "test.asc")
	if err := WriteGrassASCII(path, r); err != nil {
		t.Fatalf("write: %v", err)
	}
	defer os.Remove(path)

	got, err := ReadGrassASCII[float64](path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !got.Equal(r) {
		t.Fatalf("round trip mismatch")
	}
	if !got.IsNull(1, 1) {
		t.Fatalf("expected (1,1) to remain NULL after round trip")
	}
}

func TestEWDistanceGeographicCorrection(t *testing.T) {
	region := NewRegion(2, 2, 1, -1, 1, -1, LL)
	equator := region.EWDistance(1)
	region60 := NewRegion(2, 2, 61, 59, 1, -1, LL)
	midLat := region60.EWDistance(0)
	if midLat >= equator {
		t.Fatalf("expected east-west distance to narrow away from the equator: equator=%v, ~60deg=%v", equator, midLat)
	}
}
