package core_test

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/rueidis"
	"github.com/robalyx/verdict/internal/worker/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func setupClient(t *testing.T) (*miniredis.Miniredis, rueidis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  []string{mr.Addr()},
		DisableCache: true,
	})
	require.NoError(t, err)
	t.Cleanup(client.Close)

	return mr, client
}

func TestMonitorReportStatus(t *testing.T) {
	t.Parallel()

	mr, client := setupClient(t)
	monitor := core.NewMonitor(client, zaptest.NewLogger(t))

	err := monitor.ReportStatus(t.Context(), core.Status{
		WorkerID:   "w1",
		WorkerType: "settlement",
		Processed:  4,
		IsHealthy:  true,
	})
	require.NoError(t, err)

	assert.True(t, mr.Exists("worker:status:settlement:w1"))
	assert.Equal(t, core.HeartbeatTTL, mr.TTL("worker:status:settlement:w1"))

	status, err := monitor.GetStatus(t.Context(), "settlement", "w1")
	require.NoError(t, err)
	require.NotNil(t, status)
	assert.Equal(t, int64(4), status.Processed)
	assert.True(t, status.IsHealthy)
	assert.False(t, status.IsStale(time.Now()))
	assert.True(t, status.IsStale(time.Now().Add(2*core.StaleThreshold)))

	missing, err := monitor.GetStatus(t.Context(), "settlement", "w2")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMonitorGetAllStatuses(t *testing.T) {
	t.Parallel()

	mr, client := setupClient(t)
	monitor := core.NewMonitor(client, zaptest.NewLogger(t))

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, monitor.ReportStatus(t.Context(), core.Status{WorkerID: id, WorkerType: "settlement"}))
	}
	require.NoError(t, mr.Set("worker:status:settlement:broken", "not json"))
	require.NoError(t, mr.Set("unrelated", "value"))

	statuses, err := monitor.GetAllStatuses(t.Context())
	require.NoError(t, err)
	assert.Len(t, statuses, 3)
}

func TestStatusReporter(t *testing.T) {
	t.Parallel()

	t.Run("publishes on start", func(t *testing.T) {
		t.Parallel()

		mr, client := setupClient(t)
		reporter := core.NewStatusReporter(client, "settlement", zaptest.NewLogger(t)).WithInterval(5 * time.Millisecond)
		reporter.UpdateStatus("consuming side effects")
		reporter.AddProcessed(3, 1)

		reporter.Start(t.Context())
		defer reporter.Stop()

		key := "worker:status:settlement:" + reporter.GetWorkerID()
		assert.Eventually(t, func() bool { return mr.Exists(key) }, time.Second, 5*time.Millisecond)

		snapshot := reporter.Snapshot()
		assert.Equal(t, int64(3), snapshot.Processed)
		assert.Equal(t, int64(1), snapshot.Failed)
		assert.Equal(t, "consuming side effects", snapshot.CurrentTask)
	})

	t.Run("nil client only counts", func(t *testing.T) {
		t.Parallel()

		reporter := core.NewStatusReporter(nil, "settlement", zaptest.NewLogger(t))
		reporter.Start(t.Context())
		reporter.AddProcessed(2, 0)
		reporter.SetHealthy(false)
		reporter.Stop()
		reporter.Stop()

		snapshot := reporter.Snapshot()
		assert.Equal(t, int64(2), snapshot.Processed)
		assert.False(t, snapshot.IsHealthy)
	})
}
