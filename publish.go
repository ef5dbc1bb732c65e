package ipxdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/hupe1980/ipxdb/blobstore"
	"github.com/hupe1980/ipxdb/format"
	"github.com/hupe1980/ipxdb/manifest"
)

// InstallFile moves a finished database to its serving path with an
// atomic rename and records the publish in a manifest store rooted at
// the destination directory. Readers either see the previous database
// or the complete new one, never a partial file.
func InstallFile(ctx context.Context, buildPath, servePath string, report *BuildReport, optFns ...Option) error {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	start := time.Now()
	err := installFile(ctx, buildPath, servePath, report, opts)
	opts.Metrics.RecordPublish(time.Since(start), err)
	opts.Logger.LogPublish(ctx, servePath, err)
	return err
}

func installFile(_ context.Context, buildPath, servePath string, report *BuildReport, opts Options) error {
	sum, size, err := checksumFile(opts, buildPath)
	if err != nil {
		return err
	}

	dir := filepath.Dir(servePath)
	if err := opts.FS.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create serve directory: %w", err)
	}
	if err := opts.FS.Rename(buildPath, servePath); err != nil {
		return fmt.Errorf("install database: %w", err)
	}

	store := manifest.NewStore(opts.FS, dir)
	prev, err := store.Load()
	if err != nil {
		return fmt.Errorf("load manifest: %w", err)
	}

	m := newManifest(prev.ID, filepath.Base(servePath), report, sum, size, opts)
	if err := store.Save(m); err != nil {
		return fmt.Errorf("save manifest: %w", err)
	}
	return nil
}

// PublishBlob streams a finished database into a blob store under name
// and writes a manifest blob next to it. With stores that implement
// atomic commits (see blobstore/s3.DDBCommitStore) concurrent
// publishers cannot both win.
func PublishBlob(ctx context.Context, store blobstore.BlobStore, buildPath, name string, report *BuildReport, optFns ...Option) error {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	start := time.Now()
	err := publishBlob(ctx, store, buildPath, name, report, opts)
	opts.Metrics.RecordPublish(time.Since(start), err)
	opts.Logger.LogPublish(ctx, name, err)
	return err
}

func publishBlob(ctx context.Context, store blobstore.BlobStore, buildPath, name string, report *BuildReport, opts Options) error {
	src, err := opts.FS.OpenFile(buildPath, os.O_RDONLY, 0)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer src.Close()

	dst, err := store.Create(ctx, name)
	if err != nil {
		return fmt.Errorf("create blob: %w", err)
	}

	cr := format.NewChecksumReader(src)
	size, err := io.Copy(dst, cr)
	if err != nil {
		_ = dst.Close()
		return fmt.Errorf("upload database: %w", err)
	}
	if err := dst.Close(); err != nil {
		return fmt.Errorf("finalize blob: %w", err)
	}

	m := newManifest(0, name, report, cr.Sum(), size, opts)
	if prev, err := loadBlobManifest(ctx, store); err == nil && prev != nil {
		m.ID = prev.ID
	}
	m.Version = manifest.CurrentVersion
	m.ID++

	data, err := manifestJSON(m)
	if err != nil {
		return err
	}

	manifestName := fmt.Sprintf("%s-%06d.json", manifest.ManifestFileName, m.ID)
	if err := store.Put(ctx, manifestName, data); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	if err := store.Put(ctx, manifest.CurrentFileName, []byte(manifestName)); err != nil {
		return fmt.Errorf("update current pointer: %w", err)
	}
	return nil
}

func newManifest(prevID uint64, blobName string, report *BuildReport, sum uint32, size int64, opts Options) *manifest.Manifest {
	m := &manifest.Manifest{
		ID:            prevID,
		Blob:          blobName,
		FormatVersion: format.Version,
		IndexPolicy:   uint16(opts.IndexPolicy),
		BuildUnix:     opts.Timestamp,
		Checksum:      sum,
		SizeBytes:     size,
	}
	if report != nil {
		m.DataBlocks = report.DataBlocks
		m.IndexBlocks = report.IndexBlocks
	}
	return m
}

// loadBlobManifest resolves the CURRENT pointer inside the store. A
// missing pointer means nothing has been published yet.
func loadBlobManifest(ctx context.Context, store blobstore.BlobStore) (*manifest.Manifest, error) {
	name, err := readBlob(ctx, store, manifest.CurrentFileName)
	if errors.Is(err, blobstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	data, err := readBlob(ctx, store, string(name))
	if err != nil {
		return nil, err
	}

	var m manifest.Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func readBlob(ctx context.Context, store blobstore.BlobStore, name string) ([]byte, error) {
	b, err := store.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer b.Close()

	r, err := b.ReadRange(ctx, 0, b.Size())
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return io.ReadAll(r)
}

func manifestJSON(m *manifest.Manifest) ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	return data, nil
}

func checksumFile(opts Options, path string) (uint32, int64, error) {
	f, err := opts.FS.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return 0, 0, fmt.Errorf("open database: %w", err)
	}
	defer f.Close()

	cr := format.NewChecksumReader(f)
	size, err := io.Copy(io.Discard, cr)
	if err != nil {
		return 0, 0, fmt.Errorf("checksum database: %w", err)
	}
	return cr.Sum(), size, nil
}
