package ipxdb

import (
	"fmt"
	"net/netip"
	"strings"

	"github.com/hupe1980/ipxdb/format"
)

// Segment is a contiguous IPv4 range mapped to a region string.
// StartIP and EndIP are inclusive big-endian host-order addresses.
type Segment struct {
	StartIP uint32
	EndIP   uint32
	Region  string
}

// ParseSegment parses a single source line of the form
// "startIP|endIP|region". The region may itself contain '|'
// characters; only the first two separators are structural.
func ParseSegment(text string) (Segment, error) {
	fields := strings.SplitN(text, "|", 3)
	if len(fields) != 3 {
		return Segment{}, &ErrInputFormat{Line: text, Fields: len(fields)}
	}

	start, err := ParseIPv4(fields[0])
	if err != nil {
		return Segment{}, &ErrInvalidAddress{Literal: fields[0], Line: text, cause: err}
	}

	end, err := ParseIPv4(fields[1])
	if err != nil {
		return Segment{}, &ErrInvalidAddress{Literal: fields[1], Line: text, cause: err}
	}

	if start > end {
		return Segment{}, &ErrRangeOrder{Start: start, End: end}
	}

	region := fields[2]
	if region == "" {
		return Segment{}, &ErrEmptyRegion{Line: text}
	}

	if len(region) > format.MaxRegionLength {
		return Segment{}, &ErrRegionTooLarge{Length: len(region)}
	}

	return Segment{StartIP: start, EndIP: end, Region: region}, nil
}

// ParseIPv4 parses a literal of the form "a.b.c.d" or a plain decimal
// integer in [0, 2^32) into a host-order uint32.
func ParseIPv4(literal string) (uint32, error) {
	if !strings.Contains(literal, ".") {
		var v uint64
		for _, c := range literal {
			if c < '0' || c > '9' {
				return 0, fmt.Errorf("invalid ip literal %q", literal)
			}
			v = v*10 + uint64(c-'0')
			if v > 0xFFFFFFFF {
				return 0, fmt.Errorf("ip literal %q out of range", literal)
			}
		}
		if literal == "" {
			return 0, fmt.Errorf("empty ip literal")
		}
		return uint32(v), nil
	}

	addr, err := netip.ParseAddr(literal)
	if err != nil {
		return 0, err
	}
	if !addr.Is4() {
		return 0, fmt.Errorf("address %q is not IPv4", literal)
	}
	b := addr.As4()
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3]), nil
}

// FormatIPv4 renders a host-order uint32 as dotted-quad notation.
func FormatIPv4(ip uint32) string {
	return netip.AddrFrom4([4]byte{
		byte(ip >> 24), byte(ip >> 16), byte(ip >> 8), byte(ip),
	}).String()
}

// Split partitions the segment at /16 boundaries. Every returned piece
// shares the parent's region and spans at most one (row, col) bucket,
// so each maps to exactly one vector index cell.
func (s Segment) Split() []Segment {
	startBucket := s.StartIP >> 16
	endBucket := s.EndIP >> 16

	pieces := make([]Segment, 0, endBucket-startBucket+1)
	for b := startBucket; ; b++ {
		lo := b << 16
		hi := lo | 0xFFFF
		if lo < s.StartIP {
			lo = s.StartIP
		}
		if hi > s.EndIP {
			hi = s.EndIP
		}
		pieces = append(pieces, Segment{StartIP: lo, EndIP: hi, Region: s.Region})
		if b == endBucket {
			break
		}
	}
	return pieces
}

// String renders the segment in source line form.
func (s Segment) String() string {
	return fmt.Sprintf("%s|%s|%s", FormatIPv4(s.StartIP), FormatIPv4(s.EndIP), s.Region)
}
