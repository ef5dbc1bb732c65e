// Package format fixes the on-disk layout of xdb files.
//
// An xdb file is a single immutable blob with four sections:
//
//	+----------------+-------------------+---------------+---------------+
//	| header         | vector index      | region data   | segment index |
//	+----------------+-------------------+---------------+---------------+
//	| 256 bytes      | 512 KiB (fixed)   | dynamic size  | dynamic size  |
//	+----------------+-------------------+---------------+---------------+
//
// All integers are little-endian. The three structural offsets (256,
// 256+512KiB and the header index-pointer field at byte 8) are protocol
// constants; readers depend on them and they must never be derived at
// runtime from file contents.
package format

import "errors"

const (
	// Version is the xdb file format version. It is fixed to 2.
	Version = 2

	// HeaderSize is the fixed size of the file header in bytes.
	HeaderSize = 256

	// HeaderIndexPtrOffset is the byte offset of the index-pointer pair
	// inside the header. The Maker patches this field last.
	HeaderIndexPtrOffset = 8

	// VectorIndexRows and VectorIndexCols span the coarse bucket grid.
	// A bucket is addressed by the top two bytes of an IPv4 address.
	VectorIndexRows = 256
	VectorIndexCols = 256

	// VectorIndexBlockSize is the encoded size of one vector index bucket.
	VectorIndexBlockSize = 8

	// VectorIndexSize is the total size of the vector index section.
	VectorIndexSize = VectorIndexRows * VectorIndexCols * VectorIndexBlockSize

	// PayloadOffset is the file offset where the region data section starts.
	PayloadOffset = HeaderSize + VectorIndexSize

	// SegmentIndexBlockSize is the encoded size of one segment index block.
	SegmentIndexBlockSize = 14

	// MaxRegionLength is the maximum encoded length of a region string.
	// The segment index block stores the length in a uint16.
	MaxRegionLength = 0xFFFF
)

// IndexPolicy is the index algorithm code stored in the header.
type IndexPolicy uint16

const (
	// IndexPolicyVector is the two-level vector index described above.
	IndexPolicyVector IndexPolicy = 1
	// IndexPolicyBTree is reserved for a b-tree organized index.
	IndexPolicyBTree IndexPolicy = 2
)

var (
	// ErrHeaderTooShort is returned when decoding fewer than HeaderSize bytes.
	ErrHeaderTooShort = errors.New("xdb header too short")
	// ErrUnsupportedVersion is returned for a version other than Version.
	ErrUnsupportedVersion = errors.New("unsupported xdb version")
	// ErrBlockTooShort is returned when decoding a truncated block.
	ErrBlockTooShort = errors.New("xdb block too short")
)
