package ipxdb

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hupe1980/ipxdb/blobstore"
	"github.com/hupe1980/ipxdb/manifest"
)

func TestInstallFile(t *testing.T) {
	ctx := context.Background()
	buildPath, report := buildDB(t, threeSegments)
	serveDir := t.TempDir()
	servePath := filepath.Join(serveDir, "ip2region.xdb")

	require.NoError(t, InstallFile(ctx, buildPath, servePath, report, WithTimestamp(testTimestamp)))

	_, err := os.Stat(buildPath)
	require.True(t, os.IsNotExist(err))
	require.NoError(t, Verify(ctx, servePath))

	store := manifest.NewStore(nil, serveDir)
	m, err := store.Load()
	require.NoError(t, err)
	require.EqualValues(t, 1, m.ID)
	require.Equal(t, "ip2region.xdb", m.Blob)
	require.EqualValues(t, 2, m.FormatVersion)
	require.Equal(t, report.DataBlocks, m.DataBlocks)
	require.Equal(t, report.IndexBlocks, m.IndexBlocks)
	require.Equal(t, report.SizeBytes, m.SizeBytes)
	require.NotZero(t, m.Checksum)
}

func TestInstallFileAdvancesID(t *testing.T) {
	ctx := context.Background()
	serveDir := t.TempDir()
	servePath := filepath.Join(serveDir, "ip2region.xdb")

	for i := 0; i < 2; i++ {
		buildPath, report := buildDB(t, threeSegments)
		require.NoError(t, InstallFile(ctx, buildPath, servePath, report))
	}

	m, err := manifest.NewStore(nil, serveDir).Load()
	require.NoError(t, err)
	require.EqualValues(t, 2, m.ID)
}

func TestPublishBlob(t *testing.T) {
	ctx := context.Background()
	buildPath, report := buildDB(t, threeSegments)

	store := blobstore.NewMemoryStore()
	require.NoError(t, PublishBlob(ctx, store, buildPath, "ip2region.xdb", report))

	// The database blob matches the local file byte for byte.
	local, err := os.ReadFile(buildPath)
	require.NoError(t, err)
	remote, err := readBlob(ctx, store, "ip2region.xdb")
	require.NoError(t, err)
	require.Equal(t, local, remote)

	current, err := readBlob(ctx, store, manifest.CurrentFileName)
	require.NoError(t, err)
	require.Equal(t, "MANIFEST-000001.json", string(current))

	m, err := loadBlobManifest(ctx, store)
	require.NoError(t, err)
	require.EqualValues(t, 1, m.ID)
	require.Equal(t, "ip2region.xdb", m.Blob)
	require.Equal(t, report.SizeBytes, m.SizeBytes)
}

func TestPublishBlobAdvancesID(t *testing.T) {
	ctx := context.Background()
	buildPath, report := buildDB(t, threeSegments)

	store := blobstore.NewMemoryStore()
	require.NoError(t, PublishBlob(ctx, store, buildPath, "a.xdb", report))
	require.NoError(t, PublishBlob(ctx, store, buildPath, "b.xdb", report))

	m, err := loadBlobManifest(ctx, store)
	require.NoError(t, err)
	require.EqualValues(t, 2, m.ID)
	require.Equal(t, "b.xdb", m.Blob)

	// Both database blobs and both manifests remain listable.
	names, err := store.List(ctx, "")
	require.NoError(t, err)
	require.Contains(t, names, "a.xdb")
	require.Contains(t, names, "b.xdb")
	require.Contains(t, names, "MANIFEST-000001.json")
	require.Contains(t, names, "MANIFEST-000002.json")
}

func TestPublishBlobMissingFile(t *testing.T) {
	store := blobstore.NewMemoryStore()
	err := PublishBlob(context.Background(), store, filepath.Join(t.TempDir(), "nope.xdb"), "x", nil)
	require.Error(t, err)
}
