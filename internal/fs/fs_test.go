package fs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocalFS_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "blob.bin")

	f, err := Default.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	require.NoError(t, err)

	_, err = f.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, f.Sync())
	require.NoError(t, f.Close())

	info, err := Default.Stat(name)
	require.NoError(t, err)
	require.Equal(t, int64(5), info.Size())
}

func TestFaultyFS_FailAfterBytes(t *testing.T) {
	dir := t.TempDir()
	ffs := NewFaultyFS(nil)
	ffs.AddRule("limited", Fault{FailAfterBytes: 4})

	f, err := ffs.OpenFile(filepath.Join(dir, "limited.bin"), os.O_RDWR|os.O_CREATE, 0644)
	require.NoError(t, err)
	defer f.Close()

	_, err = f.Write([]byte("1234"))
	require.NoError(t, err)

	_, err = f.Write([]byte("5"))
	require.Error(t, err)
}

func TestFaultyFS_FailOnClose(t *testing.T) {
	dir := t.TempDir()
	ffs := NewFaultyFS(nil)
	ffs.AddRule(".xdb", Fault{FailAfterBytes: -1, FailOnClose: true})

	f, err := ffs.OpenFile(filepath.Join(dir, "out.xdb"), os.O_RDWR|os.O_CREATE, 0644)
	require.NoError(t, err)

	_, err = f.Write([]byte("data"))
	require.NoError(t, err)
	require.Error(t, f.Close())

	// Bytes written before the close fault must survive.
	data, err := os.ReadFile(filepath.Join(dir, "out.xdb"))
	require.NoError(t, err)
	require.Equal(t, []byte("data"), data)
}

func TestFaultyFS_UnmatchedFilesPassThrough(t *testing.T) {
	dir := t.TempDir()
	ffs := NewFaultyFS(nil)
	ffs.AddRule("other", Fault{FailAfterBytes: 0, FailOnSync: true})

	f, err := ffs.OpenFile(filepath.Join(dir, "clean.bin"), os.O_RDWR|os.O_CREATE, 0644)
	require.NoError(t, err)
	_, err = f.Write([]byte("unaffected"))
	require.NoError(t, err)
	require.NoError(t, f.Sync())
	require.NoError(t, f.Close())
}
