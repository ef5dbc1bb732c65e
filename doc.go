// Package ipxdb builds immutable xdb database files mapping IPv4 address
// ranges to region metadata strings.
//
// An xdb file is a read-optimized offline database: applications embed it and
// resolve an address to its region with one O(1) coarse dispatch through a
// fixed 512 KiB vector index keyed by the address's top two bytes, followed
// by a binary search over fixed-size segment index blocks. Lookups need no
// server and no auxiliary metadata; everything is in the file.
//
// This package implements the Maker side only: it turns a sorted, contiguous
// dump of `start|end|region` records into a finished database. The companion
// query engine is a separate concern and consumes the format defined in the
// format package.
//
// # Usage
//
//	report, err := ipxdb.Make("ip.merge.txt", "region.xdb").
//	    Timestamp(buildTime).
//	    Logger(ipxdb.NewTextLogger(slog.LevelInfo)).
//	    Run(ctx)
//
// Builds are strictly sequential and one-shot: any validation or IO failure
// aborts the run and leaves the destination unusable. Callers that need
// atomic visibility should build into a scratch path and publish with
// [InstallFile] or [PublishBlob] afterwards.
package ipxdb
