package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/coldtree/pkg/blobstore"
	"github.com/ssargent/coldtree/pkg/metrics"
	"github.com/ssargent/coldtree/pkg/tree"
)

func TestCollectorRecordsTreeActivity(t *testing.T) {
	reg := prometheus.NewRegistry()
	coll := metrics.New(reg)

	tr := tree.New(blobstore.NewMemStorage(), blobstore.NewMemStorage(),
		tree.WithMaxValues(3), tree.WithMetrics(coll))

	for v := 0; v < 10; v++ {
		require.NoError(t, tr.Add(v))
	}
	require.NoError(t, tr.UnloadTree())

	families, err := reg.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, families)

	var sawSplit, sawUnload bool
	for _, f := range families {
		switch f.GetName() {
		case "coldtree_node_splits_total":
			sawSplit = f.Metric[0].GetCounter().GetValue() > 0
		case "coldtree_node_unloads_total":
			sawUnload = f.Metric[0].GetCounter().GetValue() > 0
		}
	}
	require.True(t, sawSplit, "expected at least one split to be recorded")
	require.True(t, sawUnload, "expected at least one unload to be recorded")
}

func TestRecordGCRun(t *testing.T) {
	reg := prometheus.NewRegistry()
	coll := metrics.New(reg)

	coll.RecordGCRun(3)
	coll.RecordGCRun(2)

	families, err := reg.Gather()
	require.NoError(t, err)

	var runs, reclaimed float64
	for _, f := range families {
		switch f.GetName() {
		case "coldtree_gc_runs_total":
			runs = f.Metric[0].GetCounter().GetValue()
		case "coldtree_gc_keys_reclaimed_total":
			reclaimed = f.Metric[0].GetCounter().GetValue()
		}
	}
	require.Equal(t, float64(2), runs)
	require.Equal(t, float64(5), reclaimed)
}
