package ipxdb

import (
	"context"
	"errors"

	"github.com/hupe1980/ipxdb/format"
	"github.com/hupe1980/ipxdb/internal/fs"
	"github.com/hupe1980/ipxdb/resource"
)

// Builder provides a fluent interface for configuring a build. Each
// method returns a new Builder, so intermediate values can be shared
// safely:
//
//	base := ipxdb.Make("ip.merge.txt", "ip2region.xdb").Logger(logger)
//	pinned := base.Timestamp(1718000000)
//
//	report, err := pinned.Run(ctx)
type Builder struct {
	src  string
	dst  string
	opts []Option
	err  error
}

// Make starts a build configuration for the given source and
// destination paths.
func Make(src, dst string) *Builder {
	b := &Builder{src: src, dst: dst}
	if src == "" {
		b.err = errors.New("source path must not be empty")
	} else if dst == "" {
		b.err = errors.New("destination path must not be empty")
	}
	return b
}

func (b *Builder) clone(opt Option) *Builder {
	nb := &Builder{
		src:  b.src,
		dst:  b.dst,
		opts: make([]Option, len(b.opts), len(b.opts)+1),
		err:  b.err,
	}
	copy(nb.opts, b.opts)
	nb.opts = append(nb.opts, opt)
	return nb
}

// IndexPolicy sets the index policy recorded in the header.
func (b *Builder) IndexPolicy(p format.IndexPolicy) *Builder {
	return b.clone(WithIndexPolicy(p))
}

// Timestamp pins the build timestamp for reproducible output.
func (b *Builder) Timestamp(unix uint32) *Builder {
	return b.clone(WithTimestamp(unix))
}

// Logger sets the logger.
func (b *Builder) Logger(l *Logger) *Builder {
	return b.clone(WithLogger(l))
}

// Metrics sets the metrics collector.
func (b *Builder) Metrics(m MetricsCollector) *Builder {
	return b.clone(WithMetricsCollector(m))
}

// FS sets the filesystem implementation.
func (b *Builder) FS(fsys fs.FileSystem) *Builder {
	return b.clone(WithFS(fsys))
}

// ResourceController throttles build IO through the given controller.
func (b *Builder) ResourceController(c *resource.Controller) *Builder {
	return b.clone(WithResourceController(c))
}

// IOLimit caps write throughput at n bytes per second.
func (b *Builder) IOLimit(bytesPerSec int64) *Builder {
	return b.clone(WithIOLimit(bytesPerSec))
}

// Build returns the configured Maker.
func (b *Builder) Build() (*Maker, error) {
	if b.err != nil {
		return nil, b.err
	}
	return NewMaker(b.src, b.dst, b.opts...), nil
}

// MustBuild is like Build but panics on configuration errors.
func (b *Builder) MustBuild() *Maker {
	m, err := b.Build()
	if err != nil {
		panic(err)
	}
	return m
}

// Run builds the Maker and executes the full lifecycle.
func (b *Builder) Run(ctx context.Context) (*BuildReport, error) {
	m, err := b.Build()
	if err != nil {
		return nil, err
	}
	return m.Run(ctx)
}
