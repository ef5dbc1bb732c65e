package ipxdb

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuilderRun(t *testing.T) {
	src := writeSource(t, threeSegments)
	dst := filepath.Join(t.TempDir(), "out.xdb")

	report, err := Make(src, dst).
		Timestamp(testTimestamp).
		Logger(NoopLogger()).
		Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, report.SegmentCount)

	_, err = os.Stat(dst)
	require.NoError(t, err)
}

func TestBuilderValidation(t *testing.T) {
	_, err := Make("", "out.xdb").Build()
	require.Error(t, err)

	_, err = Make("in.txt", "").Build()
	require.Error(t, err)

	require.Panics(t, func() {
		Make("", "out.xdb").MustBuild()
	})
}

func TestBuilderImmutability(t *testing.T) {
	base := Make("in.txt", "out.xdb")
	derived := base.Timestamp(testTimestamp).IOLimit(1 << 20)

	require.Empty(t, base.opts)
	require.Len(t, derived.opts, 2)
}

func TestBuilderMetrics(t *testing.T) {
	src := writeSource(t, threeSegments)
	dst := filepath.Join(t.TempDir(), "out.xdb")

	collector := &BasicMetricsCollector{}
	_, err := Make(src, dst).
		Timestamp(testTimestamp).
		Metrics(collector).
		Run(context.Background())
	require.NoError(t, err)

	stats := collector.GetStats()
	require.EqualValues(t, 1, stats.LoadCount)
	require.EqualValues(t, 3, stats.LoadSegments)
	require.EqualValues(t, 1, stats.BuildCount)
	require.EqualValues(t, 0, stats.BuildErrors)
	require.EqualValues(t, 2, stats.BuildDataBlocks)
	require.EqualValues(t, 4, stats.BuildIndexBlocks)
}

func TestBuilderMetricsOnFailure(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "out.xdb")

	collector := &BasicMetricsCollector{}
	_, err := Make(filepath.Join(t.TempDir(), "missing.txt"), dst).
		Metrics(collector).
		Run(context.Background())
	require.Error(t, err)

	stats := collector.GetStats()
	require.EqualValues(t, 1, stats.BuildErrors)
}
