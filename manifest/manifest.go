// Package manifest records which xdb build is live.
//
// A build run produces an immutable blob; the manifest is the small mutable
// pointer next to it. Readers resolve CURRENT to a manifest file, and the
// manifest names the database blob plus enough metadata (checksum, counts,
// build timestamp) to sanity-check it before serving lookups.
package manifest

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/hupe1980/ipxdb/internal/fs"
)

const (
	ManifestFileName = "MANIFEST"
	CurrentFileName  = "CURRENT"
	CurrentVersion   = 1
)

// Manifest describes one published xdb database.
type Manifest struct {
	Version int `json:"version"` // manifest schema version

	ID            uint64 `json:"id"`             // monotonically increasing publish counter
	Blob          string `json:"blob"`           // database blob name, relative to the store root
	FormatVersion uint16 `json:"format_version"` // xdb format version (2)
	IndexPolicy   uint16 `json:"index_policy"`
	BuildUnix     uint32 `json:"build_unix"`
	DataBlocks    int    `json:"data_blocks"`
	IndexBlocks   int    `json:"index_blocks"`
	Checksum      uint32 `json:"checksum"` // CRC32 of the whole blob
	SizeBytes     int64  `json:"size_bytes"`
}

// Store manages manifest files and atomic CURRENT updates on a local
// directory. Remote publishes go through blobstore implementations instead
// (see blobstore/s3.DDBCommitStore).
type Store struct {
	fs  fs.FileSystem
	dir string
	mu  sync.Mutex
}

// NewStore creates a manifest store in dir.
func NewStore(fsys fs.FileSystem, dir string) *Store {
	if fsys == nil {
		fsys = fs.Default
	}
	return &Store{fs: fsys, dir: dir}
}

// Load resolves CURRENT and reads the manifest it points to.
// If nothing has been published yet it returns an empty manifest.
func (s *Store) Load() (*Manifest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	readFile := func(path string) ([]byte, error) {
		f, err := s.fs.OpenFile(path, os.O_RDONLY, 0)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return io.ReadAll(f)
	}

	content, err := readFile(filepath.Join(s.dir, CurrentFileName))
	if os.IsNotExist(err) {
		return &Manifest{Version: CurrentVersion}, nil
	}
	if err != nil {
		return nil, err
	}

	data, err := readFile(filepath.Join(s.dir, string(content)))
	if err != nil {
		return nil, err
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	if m.Version != CurrentVersion {
		return nil, fmt.Errorf("unsupported manifest version: %d (expected %d)", m.Version, CurrentVersion)
	}
	return &m, nil
}

// Save atomically publishes a new manifest: the manifest file is written and
// synced first, then CURRENT is swapped to point at it. A crash between the
// two steps leaves the previous publish live.
func (s *Store) Save(m *Manifest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m.Version = CurrentVersion
	m.ID++

	filename := fmt.Sprintf("%s-%06d.json", ManifestFileName, m.ID)

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}

	if err := s.writeFileAtomic(filepath.Join(s.dir, filename), data); err != nil {
		return err
	}
	if err := s.syncDir(); err != nil {
		return err
	}

	if err := s.writeFileAtomic(filepath.Join(s.dir, CurrentFileName), []byte(filename)); err != nil {
		return err
	}
	return s.syncDir()
}

func (s *Store) writeFileAtomic(path string, data []byte) error {
	tmpPath := path + ".tmp"
	f, err := s.fs.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		_ = s.fs.Remove(tmpPath)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		_ = s.fs.Remove(tmpPath)
		return err
	}
	if err := f.Close(); err != nil {
		_ = s.fs.Remove(tmpPath)
		return err
	}
	if err := s.fs.Rename(tmpPath, path); err != nil {
		_ = s.fs.Remove(tmpPath)
		return err
	}
	return nil
}

func (s *Store) syncDir() error {
	f, err := s.fs.OpenFile(s.dir, os.O_RDONLY, 0)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
