package geomorphon

import (
	"math"

	"github.com/gospatial/terrainsuite/raster"
)

// Ternary is one ray's reduced pattern value: -1 (negative openness
// dominates), 0 (flat), or +1 (positive openness dominates).
type Ternary int8

// flatThreshold returns the angular threshold (degrees) a ray at distance
// dist must clear to register as non-flat. Beyond Config.FlatDistance, the
// threshold decays to atan(FlatHeight/dist) instead of staying constant,
// per spec.md §4.5.
func (c *Context) flatThreshold(dist float64) float64 {
	if c.Config.FlatDistance > 0 && dist > c.Config.FlatDistance && dist > 0 {
		return math.Atan(c.Config.FlatHeight/dist) * 180 / math.Pi
	}
	return c.Config.FlatThreshold
}

// Ternary reduces a scanned Pattern to its 8 ternary values under the
// context's configured comparison mode.
func (c *Context) Ternary(p Pattern) [8]Ternary {
	var out [8]Ternary
	for i := 0; i < 8; i++ {
		out[i] = c.ternaryOne(p.Zenith[i], p.Nadir[i], p.ZenithDist[i], p.NadirDist[i])
	}
	return out
}

func (c *Context) ternaryOne(zenith, nadir, zenithDist, nadirDist float64) Ternary {
	switch c.Config.Mode {
	case ModeV1:
		az, an := math.Abs(zenith), math.Abs(nadir)
		switch {
		case az > an:
			return 1
		case an > az:
			return -1
		default:
			return 0
		}
	case ModeV2Distance:
		return c.ternaryV2(zenith, nadir, zenithDist, nadirDist, true)
	default: // ModeV2
		return c.ternaryV2(zenith, nadir, zenithDist, nadirDist, false)
	}
}

func (c *Context) ternaryV2(zenith, nadir, zenithDist, nadirDist float64, useDistance bool) Ternary {
	zThresh := c.flatThreshold(zenithDist)
	nThresh := c.flatThreshold(nadirDist)
	zExceeds := zenith > zThresh
	nExceeds := nadir < -nThresh
	switch {
	case zExceeds && !nExceeds:
		return 1
	case nExceeds && !zExceeds:
		return -1
	case zExceeds && nExceeds:
		if zenith == -nadir {
			if useDistance {
				if nadirDist > zenithDist {
					return -1
				}
				return 1
			}
			return 1
		}
		if zenith > -nadir {
			return 1
		}
		return -1
	default:
		return 0
	}
}

// Encode packs an 8-tuple of ternary values (each -1, 0, +1) into a base-3
// code in [0, 6561), digit i = pattern[i]+1.
func Encode(pattern [8]Ternary) int {
	code := 0
	pow := 1
	for i := 0; i < 8; i++ {
		code += int(pattern[i]+1) * pow
		pow *= 3
	}
	return code
}

// Decode unpacks a base-3 code in [0, 6561) back into its 8-tuple of
// ternary values.
func Decode(code int) [8]Ternary {
	var pattern [8]Ternary
	for i := 0; i < 8; i++ {
		digit := code % 3
		pattern[i] = Ternary(digit - 1)
		code /= 3
	}
	return pattern
}

func rotate(p [8]Ternary, k int) [8]Ternary {
	var out [8]Ternary
	for i := 0; i < 8; i++ {
		out[i] = p[(i+k)%8]
	}
	return out
}

func mirror(p [8]Ternary) [8]Ternary {
	var out [8]Ternary
	for i := 0; i < 8; i++ {
		out[i] = p[(8-i)%8]
	}
	return out
}

const numTernaryCodes = 6561 // 3^8

// canonical maps every raw base-3 code to the minimum code among its 8
// rotations and its 8 mirrored-then-rotated versions (spec.md §4.5's
// rotation/reflection-invariant identity). Built once at package init,
// the way the flow package precomputes its select_dir tie-break table.
var canonical [numTernaryCodes]int

func init() {
	for code := 0; code < numTernaryCodes; code++ {
		p := Decode(code)
		m := mirror(p)
		best := code
		for k := 0; k < 8; k++ {
			if v := Encode(rotate(p, k)); v < best {
				best = v
			}
			if v := Encode(rotate(m, k)); v < best {
				best = v
			}
		}
		canonical[code] = best
	}
}

// Canonical returns the rotation/reflection-invariant identity of a raw
// base-3 ternary code.
func Canonical(code int) int {
	return canonical[code]
}

// formTable is the constant 9x9 k_minus/k_plus lookup (spec.md §4.5).
// Entries beyond k_minus+k_plus=8 are unreachable (8 directions can never
// produce more than 8 non-zero ternary values combined) and are left
// FormUnclassified.
var formTable = [9][9]Form{
	{FormFlat, FormFlat, FormFlat, FormFootslope, FormFootslope, FormValley, FormValley, FormValley, FormPit},
	{FormFlat, FormFlat, FormFootslope, FormFootslope, FormFootslope, FormValley, FormValley, FormValley, FormUnclassified},
	{FormFlat, FormShoulder, FormSlope, FormSlope, FormHollow, FormHollow, FormValley, FormUnclassified, FormUnclassified},
	{FormShoulder, FormShoulder, FormSlope, FormSlope, FormSlope, FormHollow, FormUnclassified, FormUnclassified, FormUnclassified},
	{FormShoulder, FormShoulder, FormSpur, FormSlope, FormSlope, FormUnclassified, FormUnclassified, FormUnclassified, FormUnclassified},
	{FormRidge, FormRidge, FormSpur, FormSpur, FormUnclassified, FormUnclassified, FormUnclassified, FormUnclassified, FormUnclassified},
	{FormRidge, FormRidge, FormRidge, FormUnclassified, FormUnclassified, FormUnclassified, FormUnclassified, FormUnclassified, FormUnclassified},
	{FormRidge, FormRidge, FormUnclassified, FormUnclassified, FormUnclassified, FormUnclassified, FormUnclassified, FormUnclassified, FormUnclassified},
	{FormPeak, FormUnclassified, FormUnclassified, FormUnclassified, FormUnclassified, FormUnclassified, FormUnclassified, FormUnclassified, FormUnclassified},
}

// Classify counts a ternary pattern's +1/-1 directions and looks up the
// resulting form in the constant 9x9 table.
func Classify(pattern [8]Ternary) (form Form, kMinus, kPlus int) {
	for _, v := range pattern {
		switch {
		case v > 0:
			kPlus++
		case v < 0:
			kMinus++
		}
	}
	return formTable[kMinus][kPlus], kMinus, kPlus
}

// ClassifyCell runs the full scan -> ternary -> classify pipeline at one
// cell, applying the extended-correction pass (spec.md §4.5) when the
// search radius exceeds 10 cells and the resulting form is one of the
// scale-sensitive four (shoulder, footslope, ridge, spur).
func (c *Context) ClassifyCell(elev *raster.TypedRaster[float64], row, col int) (form Form, pattern [8]Ternary, code, canon int, ok bool) {
	p, scanOK := c.Scan(elev, row, col)
	if !scanOK {
		return FormUnclassified, pattern, 0, 0, false
	}
	pattern = c.Ternary(p)
	code = Encode(pattern)
	canon = Canonical(code)
	form, _, _ = Classify(pattern)

	if c.Config.ExtendedCorrection && c.Config.SearchRadius > 10 && isScaleSensitive(form) {
		half := *c
		half.Config.SearchRadius = c.Config.SearchRadius / 2
		hp, hok := half.Scan(elev, row, col)
		if hok {
			hPattern := half.Ternary(hp)
			hForm, _, _ := Classify(hPattern)
			if hForm == FormFlat {
				form = FormFlat
			} else {
				form = hForm
			}
		}
	}
	return form, pattern, code, canon, true
}

func isScaleSensitive(f Form) bool {
	switch f {
	case FormShoulder, FormFootslope, FormRidge, FormSpur:
		return true
	default:
		return false
	}
}
