package otel

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
)

var (
	initMetricsOnce     sync.Once
	taskSendsCounter    metric.Int64Counter
	workflowDuration    metric.Float64Histogram
	llmCallsCounter     metric.Int64Counter
	sseConnectionsGauge metric.Int64ObservableGauge
	sseEventsCounter    metric.Int64Counter
	sseConnections      int64
	sseConnectionsMu    sync.Mutex
)

// InitMetrics creates the meter instruments. Safe to call multiple times;
// only runs once. Call after InitMeterProvider.
func InitMetrics(ctx context.Context) error {
	var err error
	initMetricsOnce.Do(func() {
		m := Meter()
		taskSendsCounter, err = m.Int64Counter("agent_task_sends_total", metric.WithDescription("Total tasks/send requests by resulting task state"))
		if err != nil {
			return
		}
		workflowDuration, err = m.Float64Histogram("agent_workflow_duration_seconds", metric.WithDescription("Workflow invocation duration in seconds"))
		if err != nil {
			return
		}
		llmCallsCounter, err = m.Int64Counter("agent_llm_calls_total", metric.WithDescription("Total model calls by workflow node"))
		if err != nil {
			return
		}
		sseEventsCounter, err = m.Int64Counter("agent_sse_events_total", metric.WithDescription("Total SSE events published"))
		if err != nil {
			return
		}
		sseConnectionsGauge, err = m.Int64ObservableGauge("agent_sse_connections", metric.WithDescription("Current SSE subscriber count"))
		if err != nil {
			return
		}
		_, err = m.RegisterCallback(func(ctx context.Context, o metric.Observer) error {
			sseConnectionsMu.Lock()
			n := sseConnections
			sseConnectionsMu.Unlock()
			o.ObserveInt64(sseConnectionsGauge, n)
			return nil
		}, sseConnectionsGauge)
		if err != nil {
			return
		}
	})
	return err
}

// RecordTaskSend records one completed tasks/send with its final state.
func RecordTaskSend(ctx context.Context, state string, duration time.Duration) {
	if taskSendsCounter != nil {
		taskSendsCounter.Add(ctx, 1, metric.WithAttributes(AttrState.String(state)))
	}
	if workflowDuration != nil {
		workflowDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(AttrState.String(state)))
	}
}

// RecordLLMCall records one model call made by a workflow node.
func RecordLLMCall(ctx context.Context, node string) {
	if llmCallsCounter != nil {
		llmCallsCounter.Add(ctx, 1, metric.WithAttributes(AttrNode.String(node)))
	}
}

// RecordSSEEvent records one SSE event published.
func RecordSSEEvent(ctx context.Context) {
	if sseEventsCounter != nil {
		sseEventsCounter.Add(ctx, 1)
	}
}

// AddSSEConnection adds 1 to the SSE connection gauge (call on subscribe).
func AddSSEConnection() {
	sseConnectionsMu.Lock()
	sseConnections++
	sseConnectionsMu.Unlock()
}

// RemoveSSEConnection subtracts 1 from the SSE connection gauge (call on
// unsubscribe).
func RemoveSSEConnection() {
	sseConnectionsMu.Lock()
	sseConnections--
	if sseConnections < 0 {
		sseConnections = 0
	}
	sseConnectionsMu.Unlock()
}
