// Package metrics exposes Prometheus metrics for the audio engine core.
// Every recording method updates its Prometheus vector directly; there is
// no intermediate atomic counter and no periodic collector. The mixer
// thread calls RecordMixTick and SetActiveVoices from each tick, so
// Prometheus's own locking runs on the real-time path. The package-level
// Init/Global pair mirrors the teacher's MetricsCollector pattern
// (internal/audiocore/metrics.go).
package metrics

import (
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// EngineMetrics holds every Prometheus collector this module registers.
type EngineMetrics struct {
	mixTicks        *prometheus.CounterVec
	deviceResets    *prometheus.CounterVec
	disconnects     *prometheus.CounterVec
	voicePoolResize *prometheus.CounterVec
	activeVoices    *prometheus.GaugeVec
	hrtfResolution  *prometheus.CounterVec
	commitLatency   *prometheus.HistogramVec
}

// NewEngineMetrics builds and registers the engine's collectors against reg.
func NewEngineMetrics(reg prometheus.Registerer) (*EngineMetrics, error) {
	m := &EngineMetrics{
		mixTicks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "alcore_mix_ticks_total",
			Help: "Number of mix ticks completed per device.",
		}, []string{"device"}),
		deviceResets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "alcore_device_resets_total",
			Help: "Number of UpdateDeviceParams calls per device and outcome.",
		}, []string{"device", "outcome"}),
		disconnects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "alcore_device_disconnects_total",
			Help: "Number of times a device was marked disconnected.",
		}, []string{"device", "reason"}),
		voicePoolResize: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "alcore_voice_pool_resizes_total",
			Help: "Number of voice pool reallocations per context.",
		}, []string{"context"}),
		activeVoices: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "alcore_active_voices",
			Help: "Currently playing voices per context.",
		}, []string{"context"}),
		hrtfResolution: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "alcore_hrtf_resolution_total",
			Help: "HRTF resolution attempts per device and outcome.",
		}, []string{"device", "outcome"}),
		commitLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "alcore_commit_spin_seconds",
			Help:    "Time spent spin-waiting for an even MixCount during Process.",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
		}, []string{"context"}),
	}

	collectors := []prometheus.Collector{
		m.mixTicks, m.deviceResets, m.disconnects,
		m.voicePoolResize, m.activeVoices, m.hrtfResolution, m.commitLatency,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *EngineMetrics) RecordMixTick(device string) {
	if m == nil {
		return
	}
	m.mixTicks.WithLabelValues(device).Inc()
}

func (m *EngineMetrics) RecordDeviceReset(device, outcome string) {
	if m == nil {
		return
	}
	m.deviceResets.WithLabelValues(device, outcome).Inc()
}

func (m *EngineMetrics) RecordDisconnect(device, reason string) {
	if m == nil {
		return
	}
	m.disconnects.WithLabelValues(device, reason).Inc()
}

func (m *EngineMetrics) RecordVoicePoolResize(context string) {
	if m == nil {
		return
	}
	m.voicePoolResize.WithLabelValues(context).Inc()
}

func (m *EngineMetrics) SetActiveVoices(context string, n int) {
	if m == nil {
		return
	}
	m.activeVoices.WithLabelValues(context).Set(float64(n))
}

func (m *EngineMetrics) RecordHRTFResolution(device, outcome string) {
	if m == nil {
		return
	}
	m.hrtfResolution.WithLabelValues(device, outcome).Inc()
}

func (m *EngineMetrics) ObserveCommitSpin(context string, seconds float64) {
	if m == nil {
		return
	}
	m.commitLatency.WithLabelValues(context).Observe(seconds)
}

var (
	globalOnce sync.Once
	global     atomic.Pointer[EngineMetrics]
)

// Init installs the process-wide metrics instance exactly once. Subsequent
// calls are no-ops, mirroring the teacher's globalMetricsOnce guard.
func Init(reg prometheus.Registerer) (*EngineMetrics, error) {
	var err error
	globalOnce.Do(func() {
		var m *EngineMetrics
		m, err = NewEngineMetrics(reg)
		if err == nil {
			global.Store(m)
		}
	})
	return global.Load(), err
}

// Global returns the process-wide metrics instance, or nil if Init was
// never called. All recording methods are nil-receiver safe.
func Global() *EngineMetrics {
	return global.Load()
}
