package ipxdb

import (
	"time"

	"github.com/RoaringBitmap/roaring/v2"
)

// BuildReport summarizes a completed build run.
type BuildReport struct {
	// SegmentCount is the number of segments loaded from the source file.
	SegmentCount int

	// DataBlocks is the number of distinct region payloads written.
	// Deduplication makes this at most SegmentCount.
	DataBlocks int

	// IndexBlocks is the number of segment index blocks written after
	// splitting at /16 boundaries.
	IndexBlocks int

	// StartIndexPtr and EndIndexPtr are the absolute offsets of the first
	// segment index block and of the START of the last one, as patched
	// into the header.
	StartIndexPtr uint32
	EndIndexPtr   uint32

	// Buckets marks every (row<<8 | col) vector index cell that at least
	// one segment piece landed in. Cardinality over 65536 gives address
	// space coverage at /16 granularity.
	Buckets *roaring.Bitmap

	// SizeBytes is the total size of the produced database file.
	SizeBytes int64

	// Elapsed is the wall time of the build, load included.
	Elapsed time.Duration
}

// BucketCoverage returns the fraction of the 65536 /16 buckets that
// contain at least one segment.
func (r *BuildReport) BucketCoverage() float64 {
	if r.Buckets == nil {
		return 0
	}
	return float64(r.Buckets.GetCardinality()) / 65536.0
}
