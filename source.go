package ipxdb

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/pierrec/lz4/v4"
)

const lz4FrameMagic = 0x184D2204

// newSegmentReader wraps r with transparent decompression. The first
// bytes of the stream are sniffed for gzip and lz4 frame magic numbers;
// anything else is passed through as plain text.
func newSegmentReader(r io.Reader) (io.Reader, error) {
	br := bufio.NewReaderSize(r, 64*1024)

	magic, err := br.Peek(4)
	if len(magic) < 4 {
		if err == nil || err == io.EOF || err == bufio.ErrBufferFull {
			return br, nil
		}
		return nil, fmt.Errorf("sniff source format: %w", err)
	}

	switch {
	case magic[0] == 0x1f && magic[1] == 0x8b:
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("open gzip source: %w", err)
		}
		return gz, nil
	case binary.LittleEndian.Uint32(magic) == lz4FrameMagic:
		return lz4.NewReader(br), nil
	default:
		return br, nil
	}
}
