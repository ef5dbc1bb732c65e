package ipxdb

import (
	"github.com/hupe1980/ipxdb/format"
	"github.com/hupe1980/ipxdb/internal/fs"
	"github.com/hupe1980/ipxdb/resource"
)

// Options configures a Maker.
type Options struct {
	// IndexPolicy selects the lookup index layout recorded in the header.
	// Only the vector policy is currently written.
	IndexPolicy format.IndexPolicy

	// Timestamp is the build time recorded in the header, as unix seconds.
	// Zero means time.Now at header write, which makes output
	// nondeterministic across runs.
	Timestamp uint32

	// Logger receives structured progress and error events.
	Logger *Logger

	// Metrics receives per-step counters and durations.
	Metrics MetricsCollector

	// FS is the filesystem used for the source and destination files.
	// Defaults to the local OS filesystem.
	FS fs.FileSystem

	// Controller throttles write IO and bounds worker concurrency.
	// Nil means unlimited.
	Controller *resource.Controller
}

// Option configures Options.
type Option func(*Options)

// WithIndexPolicy sets the index policy recorded in the header.
func WithIndexPolicy(p format.IndexPolicy) Option {
	return func(o *Options) { o.IndexPolicy = p }
}

// WithTimestamp pins the build timestamp, making output byte-for-byte
// reproducible for identical input.
func WithTimestamp(unix uint32) Option {
	return func(o *Options) { o.Timestamp = unix }
}

// WithLogger sets the logger.
func WithLogger(l *Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// WithMetricsCollector sets the metrics collector.
func WithMetricsCollector(m MetricsCollector) Option {
	return func(o *Options) { o.Metrics = m }
}

// WithFS sets the filesystem implementation.
func WithFS(fsys fs.FileSystem) Option {
	return func(o *Options) { o.FS = fsys }
}

// WithResourceController throttles build IO through the given controller.
func WithResourceController(c *resource.Controller) Option {
	return func(o *Options) { o.Controller = c }
}

// WithIOLimit is shorthand for a controller limited to n bytes per second.
func WithIOLimit(bytesPerSec int64) Option {
	return func(o *Options) {
		o.Controller = resource.NewController(resource.Config{IOLimitBytesPerSec: bytesPerSec})
	}
}

func defaultOptions() Options {
	return Options{
		IndexPolicy: format.IndexPolicyVector,
		Logger:      NoopLogger(),
		Metrics:     NoopMetricsCollector{},
		FS:          fs.Default,
	}
}
