package raster

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// grassNullToken is the textual NULL marker used in GRASS ASCII rasters,
// matching GRASS's own convention (the teacher's grassAsciiRaster.go instead
// uses a numeric NoData sentinel; this format keeps NULL orthogonal to the
// value range on disk too, per spec.md §3).
const grassNullToken = "*"

// ReadGrassASCII reads a GRASS-style ASCII raster: a "key: value" header
// (north/south/east/west/rows/cols) followed by rows of whitespace
// separated cell values, north row first. A cell written as "*" is read as
// NULL.
func ReadGrassASCII[T Number](path string) (*TypedRaster[T], error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ErrFileReading
	}
	defer f.Close()

	var north, south, east, west float64
	var rows, cols int
	var out *TypedRaster[T]
	row := 0

	scanner := bufio.NewScanner(f)
	buf := make([]byte, 0, 1024*1024)
	scanner.Buffer(buf, 16*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)
		fields := strings.Fields(lower)
		if out == nil && isGrassHeaderLine(lower) {
			last := fields[len(fields)-1]
			switch {
			case strings.HasPrefix(lower, "north"):
				north, err = strconv.ParseFloat(last, 64)
			case strings.HasPrefix(lower, "south"):
				south, err = strconv.ParseFloat(last, 64)
			case strings.HasPrefix(lower, "east"):
				east, err = strconv.ParseFloat(last, 64)
			case strings.HasPrefix(lower, "west"):
				west, err = strconv.ParseFloat(last, 64)
			case strings.HasPrefix(lower, "rows"):
				rows, err = strconv.Atoi(last)
			case strings.HasPrefix(lower, "cols"):
				cols, err = strconv.Atoi(last)
			}
			if err != nil {
				return nil, ErrFileReading
			}
			if rows > 0 && cols > 0 {
				region := NewRegion(rows, cols, north, south, east, west, XY)
				out = New[T](region, kindOf[T]())
			}
			continue
		}
		if out == nil {
			return nil, ErrFileReading
		}
		values := strings.Fields(line)
		for col, tok := range values {
			if tok == grassNullToken {
				out.SetNull(row, col)
				continue
			}
			v, perr := strconv.ParseFloat(tok, 64)
			if perr != nil {
				return nil, ErrFileReading
			}
			out.Set(row, col, T(v))
		}
		row++
	}
	if out == nil {
		return nil, ErrEmptyRaster
	}
	return out, nil
}

func isGrassHeaderLine(lower string) bool {
	for _, key := range []string{"north", "south", "east", "west", "rows", "cols"} {
		if strings.HasPrefix(lower, key) {
			return true
		}
	}
	return false
}

// WriteGrassASCII writes r to path in the same key-value-header-plus-rows
// format read by ReadGrassASCII.
func WriteGrassASCII[T Number](path string, r *TypedRaster[T]) error {
	f, err := os.Create(path)
	if err != nil {
		return ErrFileWriting
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "north: %s\n", strconv.FormatFloat(r.Region.North, 'f', -1, 64))
	fmt.Fprintf(w, "south: %s\n", strconv.FormatFloat(r.Region.South, 'f', -1, 64))
	fmt.Fprintf(w, "east: %s\n", strconv.FormatFloat(r.Region.East, 'f', -1, 64))
	fmt.Fprintf(w, "west: %s\n", strconv.FormatFloat(r.Region.West, 'f', -1, 64))
	fmt.Fprintf(w, "rows: %d\n", r.Region.Rows)
	fmt.Fprintf(w, "cols: %d\n", r.Region.Cols)

	var sb strings.Builder
	for row := 0; row < r.Region.Rows; row++ {
		sb.Reset()
		for col := 0; col < r.Region.Cols; col++ {
			if col > 0 {
				sb.WriteByte(' ')
			}
			if v, ok := r.Value(row, col); ok {
				sb.WriteString(formatCell(v))
			} else {
				sb.WriteString(grassNullToken)
			}
		}
		sb.WriteByte('\n')
		if _, err := w.WriteString(sb.String()); err != nil {
			return ErrFileWriting
		}
	}
	return w.Flush()
}

func formatCell[T Number](v T) string {
	switch any(v).(type) {
	case int32:
		return strconv.FormatInt(int64(v), 10)
	default:
		return strconv.FormatFloat(float64(v), 'f', -1, 64)
	}
}

func kindOf[T Number]() Kind {
	var zero T
	switch any(zero).(type) {
	case int32:
		return CELL
	case float32:
		return FCELL
	default:
		return DCELL
	}
}
