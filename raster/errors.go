package raster

import "errors"

var (
	ErrUnsupportedFormat = errors.New("unsupported raster format")
	ErrFileReading        = errors.New("an error occurred while reading the data file")
	ErrFileWriting        = errors.New("an error occurred while writing the data file")
	ErrEmptyRaster        = errors.New("raster contains no non-null cells")
	ErrDimensionMismatch  = errors.New("raster dimensions do not match")
)
