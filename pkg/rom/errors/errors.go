package errors

import (
	"errors"
	"fmt"
)

var (
	// Format errors 📦
	ErrInvalidFormat     = errors.New("❌ invalid format")
	ErrInvalidSize       = errors.New("❌ invalid size")
	ErrUnsupportedRegion = errors.New("❌ unsupported region")

	// Text errors 🔤
	ErrUnsupportedCharacter = errors.New("❌ unsupported character")
	ErrTooLong              = errors.New("❌ text too long")

	// Layout errors 🗺️
	ErrUnknownField      = errors.New("❌ unknown offset field")
	ErrCapacityExceeded  = errors.New("❌ data does not fit in its area")
	ErrOutOfRange        = errors.New("❌ value out of range")
	ErrInvalidTrackIndex = errors.New("❌ invalid track index")
)

// SizeError reports a file or structure whose length does not match
// the fixed size the format expects.
type SizeError struct {
	What     string // File name or structure name
	Expected []int  // Accepted sizes
	Actual   int
	Kind     error // ErrInvalidFormat for files, ErrInvalidSize for byte arrays
}

// Error returns the error message
func (e *SizeError) Error() string {
	expected := fmt.Sprint(e.Expected[0])
	for _, size := range e.Expected[1:] {
		expected += fmt.Sprintf(" or %d", size)
	}
	return fmt.Sprintf("%v: %q is %d bytes, expected %s", e.Kind, e.What, e.Actual, expected)
}

// Unwrap returns the error kind
func (e *SizeError) Unwrap() error {
	return e.Kind
}

// NewSizeError creates an ErrInvalidSize error for a byte array argument
func NewSizeError(what string, actual int, expected ...int) *SizeError {
	return &SizeError{What: what, Expected: expected, Actual: actual, Kind: ErrInvalidSize}
}

// NewFormatError creates an ErrInvalidFormat error for a file
func NewFormatError(file string, actual int, expected ...int) *SizeError {
	return &SizeError{What: file, Expected: expected, Actual: actual, Kind: ErrInvalidFormat}
}

// CheckSize returns an ErrInvalidSize error when len(data) != size
func CheckSize(what string, data []byte, size int) error {
	if len(data) != size {
		return NewSizeError(what, len(data), size)
	}
	return nil
}
