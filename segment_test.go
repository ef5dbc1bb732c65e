package ipxdb

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseSegment(t *testing.T) {
	t.Run("dotted quad", func(t *testing.T) {
		seg, err := ParseSegment("1.0.0.0|1.0.0.255|CN|0|Beijing|Beijing|aliyun")
		require.NoError(t, err)
		require.Equal(t, uint32(16777216), seg.StartIP)
		require.Equal(t, uint32(16777471), seg.EndIP)
		require.Equal(t, "CN|0|Beijing|Beijing|aliyun", seg.Region)
	})

	t.Run("decimal literals", func(t *testing.T) {
		seg, err := ParseSegment("16777216|16777471|China|Beijing")
		require.NoError(t, err)
		require.Equal(t, uint32(16777216), seg.StartIP)
		require.Equal(t, uint32(16777471), seg.EndIP)
		require.Equal(t, "China|Beijing", seg.Region)
	})

	t.Run("single address range", func(t *testing.T) {
		seg, err := ParseSegment("0.0.0.0|0.0.0.0|reserved")
		require.NoError(t, err)
		require.Equal(t, uint32(0), seg.StartIP)
		require.Equal(t, uint32(0), seg.EndIP)
	})

	t.Run("too few fields", func(t *testing.T) {
		_, err := ParseSegment("1.0.0.0|1.0.0.255")
		var formatErr *ErrInputFormat
		require.ErrorAs(t, err, &formatErr)
		require.Equal(t, 2, formatErr.Fields)
	})

	t.Run("bad address", func(t *testing.T) {
		_, err := ParseSegment("1.0.0.256|1.0.0.255|x")
		var addrErr *ErrInvalidAddress
		require.ErrorAs(t, err, &addrErr)
		require.Equal(t, "1.0.0.256", addrErr.Literal)
	})

	t.Run("ipv6 rejected", func(t *testing.T) {
		_, err := ParseSegment("::1|::2|x")
		var addrErr *ErrInvalidAddress
		require.ErrorAs(t, err, &addrErr)
	})

	t.Run("reversed range", func(t *testing.T) {
		_, err := ParseSegment("1.0.1.0|1.0.0.0|x")
		var orderErr *ErrRangeOrder
		require.ErrorAs(t, err, &orderErr)
		require.False(t, orderErr.Gap)
	})

	t.Run("empty region", func(t *testing.T) {
		_, err := ParseSegment("1.0.0.0|1.0.0.255|")
		var regionErr *ErrEmptyRegion
		require.ErrorAs(t, err, &regionErr)
	})

	t.Run("region at limit", func(t *testing.T) {
		region := strings.Repeat("x", 65535)
		seg, err := ParseSegment("1.0.0.0|1.0.0.255|" + region)
		require.NoError(t, err)
		require.Len(t, seg.Region, 65535)
	})

	t.Run("region over limit", func(t *testing.T) {
		region := strings.Repeat("x", 65536)
		_, err := ParseSegment("1.0.0.0|1.0.0.255|" + region)
		var sizeErr *ErrRegionTooLarge
		require.ErrorAs(t, err, &sizeErr)
		require.Equal(t, 65536, sizeErr.Length)
	})
}

func TestParseIPv4(t *testing.T) {
	tests := []struct {
		literal string
		want    uint32
		wantErr bool
	}{
		{literal: "0.0.0.0", want: 0},
		{literal: "255.255.255.255", want: 0xFFFFFFFF},
		{literal: "1.2.3.4", want: 0x01020304},
		{literal: "16777216", want: 16777216},
		{literal: "4294967295", want: 0xFFFFFFFF},
		{literal: "4294967296", wantErr: true},
		{literal: "", wantErr: true},
		{literal: "abc", wantErr: true},
		{literal: "1.2.3", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.literal, func(t *testing.T) {
			got, err := ParseIPv4(tt.literal)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestFormatIPv4(t *testing.T) {
	require.Equal(t, "0.0.0.0", FormatIPv4(0))
	require.Equal(t, "1.2.3.4", FormatIPv4(0x01020304))
	require.Equal(t, "255.255.255.255", FormatIPv4(0xFFFFFFFF))
}

func TestSegmentSplit(t *testing.T) {
	t.Run("single bucket", func(t *testing.T) {
		seg := Segment{StartIP: ip(t, "1.0.0.0"), EndIP: ip(t, "1.0.255.254"), Region: "r"}
		pieces := seg.Split()
		require.Len(t, pieces, 1)
		require.Equal(t, seg, pieces[0])
	})

	t.Run("two buckets", func(t *testing.T) {
		seg := Segment{StartIP: ip(t, "1.0.200.0"), EndIP: ip(t, "1.1.0.255"), Region: "r"}
		pieces := seg.Split()
		require.Len(t, pieces, 2)
		require.Equal(t, ip(t, "1.0.200.0"), pieces[0].StartIP)
		require.Equal(t, ip(t, "1.0.255.255"), pieces[0].EndIP)
		require.Equal(t, ip(t, "1.1.0.0"), pieces[1].StartIP)
		require.Equal(t, ip(t, "1.1.0.255"), pieces[1].EndIP)
		require.Equal(t, "r", pieces[1].Region)
	})

	t.Run("full address space", func(t *testing.T) {
		seg := Segment{StartIP: 0, EndIP: 0xFFFFFFFF, Region: "r"}
		pieces := seg.Split()
		require.Len(t, pieces, 65536)
		require.Equal(t, uint32(0), pieces[0].StartIP)
		require.Equal(t, uint32(0xFFFFFFFF), pieces[65535].EndIP)
	})

	t.Run("pieces stay contiguous", func(t *testing.T) {
		seg := Segment{StartIP: ip(t, "10.5.1.7"), EndIP: ip(t, "10.9.200.3"), Region: "r"}
		pieces := seg.Split()
		require.Equal(t, seg.StartIP, pieces[0].StartIP)
		require.Equal(t, seg.EndIP, pieces[len(pieces)-1].EndIP)
		for i := 1; i < len(pieces); i++ {
			require.Equal(t, pieces[i-1].EndIP+1, pieces[i].StartIP)
			require.Equal(t, pieces[i].StartIP>>16, pieces[i].EndIP>>16)
		}
	})
}

func TestSegmentString(t *testing.T) {
	seg := Segment{StartIP: ip(t, "1.0.0.0"), EndIP: ip(t, "1.0.0.255"), Region: "CN|Beijing"}
	require.Equal(t, "1.0.0.0|1.0.0.255|CN|Beijing", seg.String())
}

func ip(t *testing.T, literal string) uint32 {
	t.Helper()
	v, err := ParseIPv4(literal)
	require.NoError(t, err)
	return v
}
