// Package metrics provides application-level metrics collection.
// This is a lightweight metrics foundation using atomic counters.
package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	seqerr "github.com/mrz1836/seqeth/pkg/errors"
)

// Metrics holds application metrics using atomic counters for thread safety.
// The zero value is ready to use.
type Metrics struct {
	// RPC metrics
	rpcCallsTotal   atomic.Int64
	rpcErrorsTotal  atomic.Int64
	rpcLatencyNanos atomic.Int64

	// Broadcast transactions
	submissionsTotal  atomic.Int64
	submissionsFailed atomic.Int64

	// Receipt polling
	receiptPolls atomic.Int64

	// Balance cache
	cacheHits   atomic.Int64
	cacheMisses atomic.Int64

	methods sync.Map // method name -> *methodStats
	kinds   sync.Map // error kind -> *atomic.Int64
}

type methodStats struct {
	calls   atomic.Int64
	errors  atomic.Int64
	latency atomic.Int64
}

// Global is the global metrics instance.
//
//nolint:gochecknoglobals // Intentional global for metrics access
var Global = &Metrics{}

// receiptMethod is counted separately as receipt polling.
const receiptMethod = "eth_getTransactionReceipt"

// RecordRPCCall records a JSON-RPC call with its duration and outcome.
// Failed calls are also counted under their error kind.
func (m *Metrics) RecordRPCCall(method string, duration time.Duration, err error) {
	m.rpcCallsTotal.Add(1)
	if method == receiptMethod {
		m.receiptPolls.Add(1)
	}
	m.rpcLatencyNanos.Add(duration.Nanoseconds())

	stats := m.method(method)
	stats.calls.Add(1)
	stats.latency.Add(duration.Nanoseconds())

	if err != nil {
		m.rpcErrorsTotal.Add(1)
		stats.errors.Add(1)
		m.kind(seqerr.KindOf(err)).Add(1)
	}
}

func (m *Metrics) method(name string) *methodStats {
	if v, ok := m.methods.Load(name); ok {
		return v.(*methodStats) //nolint:errcheck,forcetypeassert // only *methodStats is stored
	}
	v, _ := m.methods.LoadOrStore(name, &methodStats{})
	return v.(*methodStats) //nolint:errcheck,forcetypeassert // only *methodStats is stored
}

func (m *Metrics) kind(name string) *atomic.Int64 {
	if v, ok := m.kinds.Load(name); ok {
		return v.(*atomic.Int64) //nolint:errcheck,forcetypeassert // only *atomic.Int64 is stored
	}
	v, _ := m.kinds.LoadOrStore(name, &atomic.Int64{})
	return v.(*atomic.Int64) //nolint:errcheck,forcetypeassert // only *atomic.Int64 is stored
}

// RecordSubmission records a sign-and-broadcast attempt.
func (m *Metrics) RecordSubmission(err error) {
	m.submissionsTotal.Add(1)
	if err != nil {
		m.submissionsFailed.Add(1)
	}
}

// RecordCacheHit records a cache hit.
func (m *Metrics) RecordCacheHit() {
	m.cacheHits.Add(1)
}

// RecordCacheMiss records a cache miss.
func (m *Metrics) RecordCacheMiss() {
	m.cacheMisses.Add(1)
}

// MethodSnapshot is the per-method slice of a Snapshot.
type MethodSnapshot struct {
	Method       string  `json:"method"`
	Calls        int64   `json:"calls"`
	Errors       int64   `json:"errors"`
	AvgLatencyMs float64 `json:"avg_latency_ms"`
}

// Snapshot is a point-in-time copy of all metrics.
type Snapshot struct {
	RPCCallsTotal     int64            `json:"rpc_calls_total"`
	RPCErrorsTotal    int64            `json:"rpc_errors_total"`
	RPCLatencyNanos   int64            `json:"rpc_latency_nanos"`
	SubmissionsTotal  int64            `json:"submissions_total"`
	SubmissionsFailed int64            `json:"submissions_failed"`
	ReceiptPolls      int64            `json:"receipt_polls"`
	CacheHits         int64            `json:"cache_hits"`
	CacheMisses       int64            `json:"cache_misses"`
	Methods           []MethodSnapshot `json:"methods"`
	ErrorsByKind      map[string]int64 `json:"errors_by_kind"`
}

// Snapshot returns a point-in-time copy of all metrics. Methods are
// sorted by name.
func (m *Metrics) Snapshot() Snapshot {
	snap := Snapshot{
		RPCCallsTotal:     m.rpcCallsTotal.Load(),
		RPCErrorsTotal:    m.rpcErrorsTotal.Load(),
		RPCLatencyNanos:   m.rpcLatencyNanos.Load(),
		SubmissionsTotal:  m.submissionsTotal.Load(),
		SubmissionsFailed: m.submissionsFailed.Load(),
		ReceiptPolls:      m.receiptPolls.Load(),
		CacheHits:         m.cacheHits.Load(),
		CacheMisses:       m.cacheMisses.Load(),
		ErrorsByKind:      make(map[string]int64),
	}

	m.methods.Range(func(k, v any) bool {
		stats := v.(*methodStats) //nolint:errcheck,forcetypeassert // only *methodStats is stored
		ms := MethodSnapshot{
			Method: k.(string), //nolint:errcheck,forcetypeassert // keys are method names
			Calls:  stats.calls.Load(),
			Errors: stats.errors.Load(),
		}
		if ms.Calls > 0 {
			ms.AvgLatencyMs = float64(stats.latency.Load()) / float64(ms.Calls) / 1e6
		}
		snap.Methods = append(snap.Methods, ms)
		return true
	})
	sort.Slice(snap.Methods, func(i, j int) bool { return snap.Methods[i].Method < snap.Methods[j].Method })

	m.kinds.Range(func(k, v any) bool {
		snap.ErrorsByKind[k.(string)] = v.(*atomic.Int64).Load() //nolint:errcheck,forcetypeassert // typed on store
		return true
	})
	return snap
}

// RPCCallsTotal returns the total number of RPC calls made.
func (m *Metrics) RPCCallsTotal() int64 {
	return m.rpcCallsTotal.Load()
}

// RPCErrorsTotal returns the total number of RPC errors.
func (m *Metrics) RPCErrorsTotal() int64 {
	return m.rpcErrorsTotal.Load()
}

// RPCLatencyAvgMs returns the average RPC latency in milliseconds.
// Returns 0 if no calls have been made.
func (m *Metrics) RPCLatencyAvgMs() float64 {
	calls := m.rpcCallsTotal.Load()
	if calls == 0 {
		return 0
	}
	return float64(m.rpcLatencyNanos.Load()) / float64(calls) / 1e6
}

// CacheHitRate returns the cache hit rate as a percentage (0-100).
// Returns 0 if no cache operations have occurred.
func (m *Metrics) CacheHitRate() float64 {
	hits := m.cacheHits.Load()
	total := hits + m.cacheMisses.Load()
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total) * 100
}

// Reset resets all metrics to zero.
func (m *Metrics) Reset() {
	m.rpcCallsTotal.Store(0)
	m.rpcErrorsTotal.Store(0)
	m.rpcLatencyNanos.Store(0)
	m.submissionsTotal.Store(0)
	m.submissionsFailed.Store(0)
	m.receiptPolls.Store(0)
	m.cacheHits.Store(0)
	m.cacheMisses.Store(0)
	m.methods.Clear()
	m.kinds.Clear()
}
