package format

import (
	"encoding/binary"
	"fmt"
)

// Header is the decoded form of the 256-byte file header.
//
// Bytes 16..255 are reserved and must be zero when written by this
// implementation. StartIndexPtr and EndIndexPtr are zero until the Maker
// patches them after the segment index has been written.
type Header struct {
	Version       uint16
	IndexPolicy   IndexPolicy
	CreatedAt     uint32 // build unix timestamp
	StartIndexPtr uint32 // file offset of the first segment index block
	EndIndexPtr   uint32 // file offset of the last segment index block
}

// Encode serializes the header into a fresh HeaderSize byte slice.
func (h Header) Encode() []byte {
	buf := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint16(buf[0:2], h.Version)
	binary.LittleEndian.PutUint16(buf[2:4], uint16(h.IndexPolicy))
	binary.LittleEndian.PutUint32(buf[4:8], h.CreatedAt)
	binary.LittleEndian.PutUint32(buf[8:12], h.StartIndexPtr)
	binary.LittleEndian.PutUint32(buf[12:16], h.EndIndexPtr)
	return buf
}

// DecodeHeader parses and validates a header from the start of b.
func DecodeHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, fmt.Errorf("%w: got %d bytes", ErrHeaderTooShort, len(b))
	}
	h := Header{
		Version:       binary.LittleEndian.Uint16(b[0:2]),
		IndexPolicy:   IndexPolicy(binary.LittleEndian.Uint16(b[2:4])),
		CreatedAt:     binary.LittleEndian.Uint32(b[4:8]),
		StartIndexPtr: binary.LittleEndian.Uint32(b[8:12]),
		EndIndexPtr:   binary.LittleEndian.Uint32(b[12:16]),
	}
	if h.Version != Version {
		return Header{}, fmt.Errorf("%w: got %d", ErrUnsupportedVersion, h.Version)
	}
	return h, nil
}

// EncodeIndexPtrs serializes just the index-pointer pair that the Maker
// writes back at HeaderIndexPtrOffset.
func EncodeIndexPtrs(start, end uint32) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint32(buf[0:4], start)
	binary.LittleEndian.PutUint32(buf[4:8], end)
	return buf
}
