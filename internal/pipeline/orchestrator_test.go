package pipeline

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/fundgest/internal/config"
	"github.com/dgallion1/fundgest/internal/dataset"
	"github.com/dgallion1/fundgest/internal/sink"
	"github.com/dgallion1/fundgest/internal/table"
)

func testConfig() config.Config {
	return config.Config{
		WorkerCount:        2,
		MaxQueueSize:       4,
		MaxConcurrentStore: 2,
		JobTTL:             time.Hour,
		StatsWindow:        time.Hour,
	}
}

func TestOrchestratorProcessesJobs(t *testing.T) {
	mem := &memSink{name: "mem"}
	o := NewOrchestrator(testConfig(), testRegistry(t), []sink.Sink{mem}, NewMetrics(), NewStats(time.Hour), quietLogger())
	o.Start(context.Background())
	defer o.Stop()

	job := NewJob("Contingency", "2025-03-03 minutes", "", minutes, nil)
	require.NoError(t, o.Submit(job))
	assert.Same(t, job, o.GetJob(job.ID))

	require.Eventually(t, func() bool {
		return job.Snapshot().Status.Done()
	}, 5*time.Second, 10*time.Millisecond)

	assert.Equal(t, StatusCompleted, job.Snapshot().Status)
	assert.Equal(t, 1, o.Stats().Snapshot().Count)
	assert.NotNil(t, o.Registry())
	assert.NotNil(t, o.Metrics())
}

func TestOrchestratorQueueFull(t *testing.T) {
	cfg := testConfig()
	cfg.MaxQueueSize = 1
	o := NewOrchestrator(cfg, testRegistry(t), nil, NewMetrics(), NewStats(time.Hour), quietLogger())
	// Not started: nothing drains the queue.

	require.NoError(t, o.Submit(NewJob("Contingency", "a", "", minutes, nil)))
	assert.Equal(t, 1, o.QueueDepth())

	second := NewJob("Contingency", "b", "", minutes, nil)
	err := o.Submit(second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "queue is full")
	assert.Equal(t, StatusFailed, second.Snapshot().Status)
}

func TestOrchestratorStopTwice(t *testing.T) {
	o := NewOrchestrator(testConfig(), testRegistry(t), nil, NewMetrics(), NewStats(time.Hour), quietLogger())
	o.Start(context.Background())
	o.Stop()
	o.Stop()

	err := o.Submit(NewJob("Contingency", "a", "", minutes, nil))
	assert.Error(t, err)
}

func TestMetricsHandler(t *testing.T) {
	m := NewMetrics()
	reg := testRegistry(t)
	out, err := reg.ProcessOne("Contingency", dataset.Input{Name: "2025-03-03 minutes", Text: minutes})
	require.NoError(t, err)

	m.ObserveOutput(out, 0.01)
	m.ObserveFailure("FR")
	m.ObserveStore("csv", nil)
	m.ObserveOutput(dataset.Output{Dataset: "OASIS", Table: &table.Table{}}, 0.02)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	text := string(body)

	assert.Contains(t, text, `fundgest_documents_processed_total{dataset="Contingency",status="ok"} 1`)
	assert.Contains(t, text, `fundgest_documents_processed_total{dataset="FR",status="failed"} 1`)
	assert.Contains(t, text, `fundgest_records_total{dataset="Contingency",decision="Approved"} 1`)
	assert.Contains(t, text, `fundgest_sections_skipped_total{dataset="Contingency"} 2`)
	assert.Contains(t, text, `fundgest_sink_writes_total{sink="csv",status="ok"} 1`)
	assert.Contains(t, text, `fundgest_processing_seconds_count{dataset="OASIS"} 1`)
}
