package format

import (
	"encoding/binary"
	"fmt"
)

// SegmentIndexBlock is the fixed 14-byte record enabling binary search
// inside a vector bucket. DataPtr is the absolute file offset of the region
// bytes and DataLen their length.
type SegmentIndexBlock struct {
	StartIP uint32
	EndIP   uint32
	DataLen uint16
	DataPtr uint32
}

// Encode serializes the block into a fresh SegmentIndexBlockSize byte slice.
func (b SegmentIndexBlock) Encode() []byte {
	buf := make([]byte, SegmentIndexBlockSize)
	b.EncodeTo(buf)
	return buf
}

// EncodeTo serializes the block into dst, which must hold at least
// SegmentIndexBlockSize bytes.
func (b SegmentIndexBlock) EncodeTo(dst []byte) {
	binary.LittleEndian.PutUint32(dst[0:4], b.StartIP)
	binary.LittleEndian.PutUint32(dst[4:8], b.EndIP)
	binary.LittleEndian.PutUint16(dst[8:10], b.DataLen)
	binary.LittleEndian.PutUint32(dst[10:14], b.DataPtr)
}

// DecodeSegmentIndexBlock parses a segment index block from the start of b.
func DecodeSegmentIndexBlock(b []byte) (SegmentIndexBlock, error) {
	if len(b) < SegmentIndexBlockSize {
		return SegmentIndexBlock{}, fmt.Errorf("%w: segment index block needs %d bytes, got %d",
			ErrBlockTooShort, SegmentIndexBlockSize, len(b))
	}
	return SegmentIndexBlock{
		StartIP: binary.LittleEndian.Uint32(b[0:4]),
		EndIP:   binary.LittleEndian.Uint32(b[4:8]),
		DataLen: binary.LittleEndian.Uint16(b[8:10]),
		DataPtr: binary.LittleEndian.Uint32(b[10:14]),
	}, nil
}

// VectorIndexBlock is one coarse bucket of the vector index. FirstPtr and
// LastPtr bound the contiguous run of segment index blocks whose start IPs
// share the bucket's top two bytes. LastPtr points one block past the last
// record, so LastPtr-FirstPtr is always a multiple of SegmentIndexBlockSize.
// An untouched bucket keeps both pointers zero.
type VectorIndexBlock struct {
	FirstPtr uint32
	LastPtr  uint32
}

// EncodeTo serializes the bucket into dst, which must hold at least
// VectorIndexBlockSize bytes.
func (b VectorIndexBlock) EncodeTo(dst []byte) {
	binary.LittleEndian.PutUint32(dst[0:4], b.FirstPtr)
	binary.LittleEndian.PutUint32(dst[4:8], b.LastPtr)
}

// DecodeVectorIndexBlock parses a vector index bucket from the start of b.
func DecodeVectorIndexBlock(b []byte) (VectorIndexBlock, error) {
	if len(b) < VectorIndexBlockSize {
		return VectorIndexBlock{}, fmt.Errorf("%w: vector index block needs %d bytes, got %d",
			ErrBlockTooShort, VectorIndexBlockSize, len(b))
	}
	return VectorIndexBlock{
		FirstPtr: binary.LittleEndian.Uint32(b[0:4]),
		LastPtr:  binary.LittleEndian.Uint32(b[4:8]),
	}, nil
}
