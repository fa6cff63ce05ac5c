package raster

import "testing"

func TestEncodeDirectionSchemes(t *testing.T) {
	cases := []struct {
		d           Direction
		grass       int32
		agnps       int32
		answers     int32
	}{
		{East, 360, 3, 90},
		{North, 90, 1, 0},
		{Southwest, 225, 6, 225},
	}
	for _, c := range cases {
		if got := EncodeDirection(c.d, EncodingGrass); got != c.grass {
			t.Errorf("grass(%v) = %d, want %d", c.d, got, c.grass)
		}
		if got := EncodeDirection(c.d, EncodingAGNPS); got != c.agnps {
			t.Errorf("agnps(%v) = %d, want %d", c.d, got, c.agnps)
		}
		if got := EncodeDirection(c.d, EncodingANSWERS); got != c.answers {
			t.Errorf("answers(%v) = %d, want %d", c.d, got, c.answers)
		}
	}
}

func TestEncodeDirectionRasterLeavesNonBitCodesAlone(t *testing.T) {
	region := NewRegion(1, 2, 1, 0, 2, 0, XY)
	dir := New[int32](region, CELL)
	dir.Set(0, 0, 0)                  // depression
	dir.Set(0, 1, int32(East|North)) // unresolved flat sum
	out := EncodeDirectionRaster(dir, EncodingGrass)
	v0, _ := out.Value(0, 0)
	v1, _ := out.Value(0, 1)
	if v0 != 0 {
		t.Errorf("depression code changed: %d", v0)
	}
	if v1 != int32(East|North) {
		t.Errorf("flat sum code changed: %d", v1)
	}
}
