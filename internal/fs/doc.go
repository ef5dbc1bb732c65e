// Package fs provides filesystem abstractions for testability and fault injection.
//
// The package defines two key interfaces:
//
//   - [File]: An open file with read/write/seek/sync capabilities
//   - [FileSystem]: Filesystem operations (open, remove, rename, etc.)
//
// # Implementations
//
//   - [LocalFS]: Production implementation using the standard os package
//   - [FaultyFS]: Test utility for fault injection (simulated I/O errors)
//
// Production code should use fs.Default (which is [LocalFS]):
//
//	file, err := fs.Default.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
//
// Tests inject [FaultyFS] to exercise write, sync and close failures in the
// middle of a build:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule(".xdb", fs.Fault{FailAfterBytes: 1024})
//
// The interfaces intentionally carry no context.Context: local filesystem
// calls are not interruptible at the syscall level. Remote storage lives
// behind the blobstore package, which does take contexts.
package fs
