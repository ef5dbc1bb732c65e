package ipxdb

import (
	"errors"
	"fmt"

	"github.com/hupe1980/ipxdb/format"
)

var (
	// ErrEmptySegmentList is returned when a build is started with no
	// loaded segments.
	ErrEmptySegmentList = errors.New("empty segment list")

	// ErrInvalidState is returned when Maker lifecycle methods are called
	// out of order (e.g. Start before Init).
	ErrInvalidState = errors.New("invalid maker state")
)

// ErrInputFormat indicates a source line that does not split into the three
// `start|end|region` fields.
type ErrInputFormat struct {
	Line   string
	Fields int
}

func (e *ErrInputFormat) Error() string {
	return fmt.Sprintf("invalid ip segment line %q: expected 3 fields, got %d", e.Line, e.Fields)
}

// ErrInvalidAddress indicates an unparsable IPv4 literal.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrInvalidAddress struct {
	Literal string
	Line    string
	cause   error
}

func (e *ErrInvalidAddress) Error() string {
	return fmt.Sprintf("invalid ip address %q in line %q", e.Literal, e.Line)
}

func (e *ErrInvalidAddress) Unwrap() error { return e.cause }

// ErrRangeOrder indicates a violated range ordering invariant: either a
// segment with start > end, or a discontinuity between adjacent segments.
type ErrRangeOrder struct {
	Start   uint32
	End     uint32
	PrevEnd uint32 // previous segment's end ip; only set for discontinuities
	Gap     bool   // true for discontinuities, false for start > end
}

func (e *ErrRangeOrder) Error() string {
	if e.Gap {
		return fmt.Sprintf("discontinuous segment: previous end %s +1 != start %s",
			FormatIPv4(e.PrevEnd), FormatIPv4(e.Start))
	}
	return fmt.Sprintf("start ip %s must not be greater than end ip %s",
		FormatIPv4(e.Start), FormatIPv4(e.End))
}

// ErrEmptyRegion indicates a segment line with no region text.
type ErrEmptyRegion struct {
	Line string
}

func (e *ErrEmptyRegion) Error() string {
	return fmt.Sprintf("empty region info in segment line %q", e.Line)
}

// ErrRegionTooLarge indicates a region whose UTF-8 encoding exceeds the
// uint16 length field of a segment index block.
type ErrRegionTooLarge struct {
	Length int
}

func (e *ErrRegionTooLarge) Error() string {
	return fmt.Sprintf("region info too long: %d bytes, limit %d", e.Length, format.MaxRegionLength)
}
