package ipxdb

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/ipxdb/format"
	"github.com/hupe1980/ipxdb/internal/fs"
)

// makerState tracks lifecycle progress so out-of-order calls fail fast
// instead of producing a silently broken file.
type makerState int

const (
	stateNew makerState = iota
	stateReady
	stateWritten
	stateDone
)

// scanBufferSize bounds a single source line. A region may be up to
// format.MaxRegionLength bytes, so the default bufio token limit of
// 64 KiB is not enough.
const scanBufferSize = 128 * 1024

// regionEntry locates a deduplicated region payload inside the file.
type regionEntry struct {
	ptr uint32
	len uint16
}

// Maker builds an xdb database file from a sorted segment source.
//
// The lifecycle is Init, Start, End. Init opens both files, writes the
// header and loads all segments; Start writes the payload and segment
// index; End backfills the vector index, patches the header and closes
// the files. Run performs all three in order.
type Maker struct {
	opts Options

	srcPath string
	dstPath string

	srcFile fs.File
	dstFile fs.File

	segments []Segment

	// regionPool maps a region string to its single payload location.
	regionPool map[string]regionEntry

	vectorIndex [format.VectorIndexRows][format.VectorIndexCols]format.VectorIndexBlock
	buckets     *roaring.Bitmap

	startIndexPtr uint32
	endIndexPtr   uint32

	dataBlocks  int
	indexBlocks int

	pos     int64
	started time.Time

	state makerState
}

// NewMaker creates a Maker that reads segments from src and writes the
// database to dst. No files are touched until Init.
func NewMaker(src, dst string, optFns ...Option) *Maker {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Maker{
		opts:       opts,
		srcPath:    src,
		dstPath:    dst,
		regionPool: make(map[string]regionEntry),
		buckets:    roaring.New(),
	}
}

// Init opens the source and destination files, writes the fixed header
// and loads every segment into memory, validating the whole source
// eagerly. Any validation error aborts the build before the payload is
// written.
func (m *Maker) Init(ctx context.Context) error {
	if m.state != stateNew {
		return fmt.Errorf("%w: init called twice", ErrInvalidState)
	}
	m.started = time.Now()

	logger := m.opts.Logger.WithSource(m.srcPath).WithDestination(m.dstPath)

	src, err := m.opts.FS.OpenFile(m.srcPath, os.O_RDONLY, 0)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	m.srcFile = src

	dst, err := m.opts.FS.OpenFile(m.dstPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		m.closeFiles(ctx)
		return fmt.Errorf("open destination: %w", err)
	}
	m.dstFile = dst

	if err := m.writeHeader(ctx); err != nil {
		m.closeFiles(ctx)
		return err
	}

	loadStart := time.Now()
	err = m.loadSegments(ctx)
	m.opts.Metrics.RecordLoad(len(m.segments), time.Since(loadStart), err)
	logger.LogLoad(ctx, len(m.segments), time.Since(loadStart), err)
	if err != nil {
		m.closeFiles(ctx)
		return err
	}

	m.state = stateReady
	return nil
}

// Start writes the deduplicated region payload and the segment index.
// Must be called after Init. On failure both files are closed; the
// lifecycle cannot be resumed.
func (m *Maker) Start(ctx context.Context) error {
	if m.state != stateReady {
		return fmt.Errorf("%w: start requires a successful init", ErrInvalidState)
	}

	if err := m.writeData(ctx); err != nil {
		m.abort(ctx)
		return err
	}
	if err := m.writeIndex(ctx); err != nil {
		m.abort(ctx)
		return err
	}

	m.state = stateWritten
	return nil
}

// End backfills the vector index, patches the index pointers into the
// header, syncs the destination and closes both files. The files are
// released whether or not End succeeds; close failures after a
// successful sync are logged but do not invalidate the written bytes.
func (m *Maker) End(ctx context.Context) (*BuildReport, error) {
	if m.state != stateWritten {
		return nil, fmt.Errorf("%w: end requires a completed start", ErrInvalidState)
	}

	if err := m.writeVectorIndex(ctx); err != nil {
		m.abort(ctx)
		return nil, err
	}
	if err := m.patchHeader(ctx); err != nil {
		m.abort(ctx)
		return nil, err
	}
	if err := m.dstFile.Sync(); err != nil {
		m.abort(ctx)
		return nil, fmt.Errorf("sync destination: %w", err)
	}

	report := &BuildReport{
		SegmentCount:  len(m.segments),
		DataBlocks:    m.dataBlocks,
		IndexBlocks:   m.indexBlocks,
		StartIndexPtr: m.startIndexPtr,
		EndIndexPtr:   m.endIndexPtr,
		Buckets:       m.buckets,
		SizeBytes:     m.pos,
		Elapsed:       time.Since(m.started),
	}

	m.closeFiles(ctx)
	m.state = stateDone

	return report, nil
}

// Run executes the full Init, Start, End lifecycle.
func (m *Maker) Run(ctx context.Context) (*BuildReport, error) {
	buildStart := time.Now()
	logger := m.opts.Logger.WithSource(m.srcPath).WithDestination(m.dstPath)

	report, err := m.run(ctx)
	m.opts.Metrics.RecordBuild(m.dataBlocks, m.indexBlocks, time.Since(buildStart), err)
	logger.LogBuild(ctx, report, err)
	if err != nil {
		return nil, err
	}
	return report, nil
}

func (m *Maker) run(ctx context.Context) (*BuildReport, error) {
	if err := m.Init(ctx); err != nil {
		return nil, err
	}
	if err := m.Start(ctx); err != nil {
		return nil, err
	}
	return m.End(ctx)
}

// writeHeader writes the 256 byte header at offset zero. The index
// pointers stay zero until patchHeader.
func (m *Maker) writeHeader(ctx context.Context) error {
	ts := m.opts.Timestamp
	if ts == 0 {
		ts = uint32(time.Now().Unix())
	}

	h := format.Header{
		Version:     format.Version,
		IndexPolicy: m.opts.IndexPolicy,
		CreatedAt:   ts,
	}

	if err := m.writeAt(ctx, h.Encode(), 0); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	// The vector index region is backfilled at End; reserve it so the
	// payload starts at its fixed offset.
	m.pos = format.PayloadOffset
	return nil
}

// loadSegments reads, parses and validates the entire source. Segments
// must be sorted by start ip and contiguous; the first violation aborts
// the load.
func (m *Maker) loadSegments(ctx context.Context) error {
	reader, err := newSegmentReader(m.srcFile)
	if err != nil {
		return err
	}

	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 64*1024), scanBufferSize)

	var prev *Segment
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		seg, err := ParseSegment(line)
		if err != nil {
			return err
		}

		if prev != nil && prev.EndIP+1 != seg.StartIP {
			return &ErrRangeOrder{
				Start:   seg.StartIP,
				End:     seg.EndIP,
				PrevEnd: prev.EndIP,
				Gap:     true,
			}
		}

		m.segments = append(m.segments, seg)
		prev = &m.segments[len(m.segments)-1]
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read source: %w", err)
	}

	if len(m.segments) == 0 {
		return ErrEmptySegmentList
	}
	return nil
}

// writeData appends each distinct region string once, in first-use
// order, and records its location in the pool.
func (m *Maker) writeData(ctx context.Context) error {
	for _, seg := range m.segments {
		if _, ok := m.regionPool[seg.Region]; ok {
			continue
		}

		data := []byte(seg.Region)
		ptr := m.pos
		if ptr > 0xFFFFFFFF-int64(len(data)) {
			return fmt.Errorf("region data offset %d exceeds the 32-bit pointer space", ptr)
		}
		if err := m.writeAt(ctx, data, ptr); err != nil {
			return fmt.Errorf("write region data: %w", err)
		}

		m.regionPool[seg.Region] = regionEntry{
			ptr: uint32(ptr),
			len: uint16(len(data)),
		}
		m.pos += int64(len(data))
	}

	m.dataBlocks = len(m.regionPool)
	return nil
}

// writeIndex appends one 14 byte index block per /16-split segment
// piece and keeps the vector index cells in step with each block.
func (m *Maker) writeIndex(ctx context.Context) error {
	buf := bufio.NewWriterSize(&throttledWriter{ctx: ctx, m: m}, 256*1024)

	for _, seg := range m.segments {
		entry := m.regionPool[seg.Region]

		for _, piece := range seg.Split() {
			if m.pos > 0xFFFFFFFF-format.SegmentIndexBlockSize {
				return fmt.Errorf("index block offset %d exceeds the 32-bit pointer space", m.pos)
			}
			ptr := uint32(m.pos)

			block := format.SegmentIndexBlock{
				StartIP: piece.StartIP,
				EndIP:   piece.EndIP,
				DataLen: entry.len,
				DataPtr: entry.ptr,
			}
			if _, err := buf.Write(block.Encode()); err != nil {
				return fmt.Errorf("write index block: %w", err)
			}

			row := piece.StartIP >> 24
			col := (piece.StartIP >> 16) & 0xFF
			cell := &m.vectorIndex[row][col]
			if cell.FirstPtr == 0 {
				cell.FirstPtr = ptr
			}
			cell.LastPtr = ptr + format.SegmentIndexBlockSize
			m.buckets.Add(piece.StartIP >> 16)

			if m.startIndexPtr == 0 {
				m.startIndexPtr = ptr
			}
			m.endIndexPtr = ptr
			m.pos += format.SegmentIndexBlockSize
			m.indexBlocks++
		}
	}

	if err := buf.Flush(); err != nil {
		return fmt.Errorf("flush index blocks: %w", err)
	}
	return nil
}

// writeVectorIndex backfills all 256x256 cells into the reserved region
// after the header, untouched cells included.
func (m *Maker) writeVectorIndex(ctx context.Context) error {
	buf := make([]byte, format.VectorIndexSize)
	off := 0
	for row := 0; row < format.VectorIndexRows; row++ {
		for col := 0; col < format.VectorIndexCols; col++ {
			m.vectorIndex[row][col].EncodeTo(buf[off:])
			off += format.VectorIndexBlockSize
		}
	}

	if err := m.writeAt(ctx, buf, format.HeaderSize); err != nil {
		return fmt.Errorf("write vector index: %w", err)
	}
	return nil
}

// patchHeader records the first and last index block offsets in the
// header, completing the file.
func (m *Maker) patchHeader(ctx context.Context) error {
	b := format.EncodeIndexPtrs(m.startIndexPtr, m.endIndexPtr)
	if err := m.writeAt(ctx, b, format.HeaderIndexPtrOffset); err != nil {
		return fmt.Errorf("patch header: %w", err)
	}
	return nil
}

// writeAt seeks to off and writes b fully, honoring the IO limit.
func (m *Maker) writeAt(ctx context.Context, b []byte, off int64) error {
	if err := m.opts.Controller.AcquireIO(ctx, len(b)); err != nil {
		return err
	}
	if _, err := m.dstFile.Seek(off, 0); err != nil {
		return err
	}
	_, err := m.dstFile.Write(b)
	return err
}

// abort releases both files after a failed step and finishes the
// lifecycle, so further Start or End calls return ErrInvalidState
// instead of touching closed handles.
func (m *Maker) abort(ctx context.Context) {
	m.closeFiles(ctx)
	m.state = stateDone
}

func (m *Maker) closeFiles(ctx context.Context) {
	if m.srcFile != nil {
		if err := m.srcFile.Close(); err != nil {
			m.opts.Logger.LogCloseError(ctx, m.srcPath, err)
		}
		m.srcFile = nil
	}
	if m.dstFile != nil {
		if err := m.dstFile.Close(); err != nil {
			m.opts.Logger.LogCloseError(ctx, m.dstPath, err)
		}
		m.dstFile = nil
	}
}

// throttledWriter funnels buffered index writes through the maker's IO
// limiter and the destination file's current offset.
type throttledWriter struct {
	ctx context.Context
	m   *Maker
}

func (w *throttledWriter) Write(b []byte) (int, error) {
	if err := w.m.opts.Controller.AcquireIO(w.ctx, len(b)); err != nil {
		return 0, err
	}
	return w.m.dstFile.Write(b)
}
