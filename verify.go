package ipxdb

import (
	"bytes"
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/ipxdb/format"
	"github.com/hupe1980/ipxdb/internal/mmap"
)

// VerifyError describes a structural defect found in an xdb file.
type VerifyError struct {
	Section string // header, vector-index, segment-index or data
	Detail  string
}

func (e *VerifyError) Error() string {
	return fmt.Sprintf("xdb verify: %s: %s", e.Section, e.Detail)
}

// Verify checks the structural integrity of a finished xdb file: the
// header fields, the vector index bucket ranges, the sorted contiguous
// segment index and the data pointers it holds. Vector index rows are
// checked concurrently, bounded by the controller's worker limit when
// one is configured.
func Verify(ctx context.Context, path string, optFns ...Option) error {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	start := time.Now()
	err := verify(ctx, path, opts)
	opts.Metrics.RecordVerify(time.Since(start), err)
	opts.Logger.LogVerify(ctx, path, err)
	return err
}

func verify(ctx context.Context, path string, opts Options) error {
	m, err := mmap.Open(path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer m.Close()

	data := m.Bytes()
	size := uint64(len(data))

	if size < format.PayloadOffset {
		return &VerifyError{Section: "header", Detail: fmt.Sprintf(
			"file is %d bytes, smaller than the %d byte fixed sections", size, format.PayloadOffset)}
	}

	header, err := format.DecodeHeader(data)
	if err != nil {
		return &VerifyError{Section: "header", Detail: err.Error()}
	}
	if header.IndexPolicy != format.IndexPolicyVector {
		return &VerifyError{Section: "header", Detail: fmt.Sprintf(
			"unsupported index policy %d", header.IndexPolicy)}
	}

	startPtr := uint64(header.StartIndexPtr)
	endPtr := uint64(header.EndIndexPtr)
	switch {
	case startPtr < format.PayloadOffset:
		return &VerifyError{Section: "header", Detail: fmt.Sprintf(
			"start index ptr %d precedes the data section", startPtr)}
	case endPtr < startPtr:
		return &VerifyError{Section: "header", Detail: fmt.Sprintf(
			"end index ptr %d precedes start index ptr %d", endPtr, startPtr)}
	case endPtr+format.SegmentIndexBlockSize != size:
		return &VerifyError{Section: "header", Detail: fmt.Sprintf(
			"last index block at %d does not end at file size %d", endPtr, size)}
	case (endPtr-startPtr)%format.SegmentIndexBlockSize != 0:
		return &VerifyError{Section: "header", Detail: fmt.Sprintf(
			"index span %d is not a whole number of blocks", endPtr-startPtr)}
	}

	if err := verifySegmentIndex(data, header); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	for row := 0; row < format.VectorIndexRows; row++ {
		row := row
		g.Go(func() error {
			if err := opts.Controller.AcquireWorker(ctx); err != nil {
				return err
			}
			defer opts.Controller.ReleaseWorker()
			return verifyVectorRow(data, header, row)
		})
	}
	return g.Wait()
}

// verifySegmentIndex walks every index block in file order and checks
// sortedness, contiguity and that each data pointer addresses region
// bytes inside the data section.
func verifySegmentIndex(data []byte, header format.Header) error {
	dataEnd := uint64(header.StartIndexPtr)
	last := uint64(header.EndIndexPtr)

	var prevEnd uint32
	first := true
	for ptr := uint64(header.StartIndexPtr); ptr <= last; ptr += format.SegmentIndexBlockSize {
		block, err := format.DecodeSegmentIndexBlock(data[ptr:])
		if err != nil {
			return &VerifyError{Section: "segment-index", Detail: err.Error()}
		}

		if block.StartIP > block.EndIP {
			return &VerifyError{Section: "segment-index", Detail: fmt.Sprintf(
				"block at %d has start %s after end %s",
				ptr, FormatIPv4(block.StartIP), FormatIPv4(block.EndIP))}
		}
		if block.StartIP>>16 != block.EndIP>>16 {
			return &VerifyError{Section: "segment-index", Detail: fmt.Sprintf(
				"block at %d spans more than one /16 bucket", ptr)}
		}
		if !first && prevEnd+1 != block.StartIP {
			return &VerifyError{Section: "segment-index", Detail: fmt.Sprintf(
				"gap between %s and %s", FormatIPv4(prevEnd), FormatIPv4(block.StartIP))}
		}

		if block.DataLen == 0 {
			return &VerifyError{Section: "data", Detail: fmt.Sprintf(
				"block at %d has an empty region", ptr)}
		}
		blockDataEnd := uint64(block.DataPtr) + uint64(block.DataLen)
		if uint64(block.DataPtr) < format.PayloadOffset || blockDataEnd > dataEnd {
			return &VerifyError{Section: "data", Detail: fmt.Sprintf(
				"block at %d points outside the data section [%d, %d)",
				ptr, format.PayloadOffset, dataEnd)}
		}
		region := data[block.DataPtr:blockDataEnd]
		if !utf8.Valid(region) {
			return &VerifyError{Section: "data", Detail: fmt.Sprintf(
				"block at %d references invalid UTF-8 region bytes", ptr)}
		}
		if bytes.ContainsRune(region, '\n') {
			return &VerifyError{Section: "data", Detail: fmt.Sprintf(
				"block at %d references a region containing a newline", ptr)}
		}

		prevEnd = block.EndIP
		first = false
	}
	return nil
}

// verifyVectorRow checks the 256 buckets of one row: pointer bounds,
// block alignment and that every block inside a bucket's span actually
// starts in that bucket.
func verifyVectorRow(data []byte, header format.Header, row int) error {
	size := uint64(len(data))

	for col := 0; col < format.VectorIndexCols; col++ {
		off := format.HeaderSize + (row*format.VectorIndexCols+col)*format.VectorIndexBlockSize
		cell, err := format.DecodeVectorIndexBlock(data[off:])
		if err != nil {
			return &VerifyError{Section: "vector-index", Detail: err.Error()}
		}

		if cell.FirstPtr == 0 && cell.LastPtr == 0 {
			continue
		}

		first := uint64(cell.FirstPtr)
		lastEnd := uint64(cell.LastPtr)
		switch {
		case first < uint64(header.StartIndexPtr) || lastEnd > size:
			return &VerifyError{Section: "vector-index", Detail: fmt.Sprintf(
				"bucket (%d,%d) span [%d, %d) leaves the segment index", row, col, first, lastEnd)}
		case lastEnd <= first:
			return &VerifyError{Section: "vector-index", Detail: fmt.Sprintf(
				"bucket (%d,%d) is empty but has pointers set", row, col)}
		case (lastEnd-first)%format.SegmentIndexBlockSize != 0:
			return &VerifyError{Section: "vector-index", Detail: fmt.Sprintf(
				"bucket (%d,%d) span is not block aligned", row, col)}
		}

		want := uint32(row)<<8 | uint32(col)
		for ptr := first; ptr < lastEnd; ptr += format.SegmentIndexBlockSize {
			block, err := format.DecodeSegmentIndexBlock(data[ptr:])
			if err != nil {
				return &VerifyError{Section: "vector-index", Detail: err.Error()}
			}
			if block.StartIP>>16 != want {
				return &VerifyError{Section: "vector-index", Detail: fmt.Sprintf(
					"bucket (%d,%d) contains block starting at %s",
					row, col, FormatIPv4(block.StartIP))}
			}
		}
	}
	return nil
}
