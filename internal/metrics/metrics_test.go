package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEngineMetricsRegistersEveryCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewEngineMetrics(reg)
	require.NoError(t, err)
	require.NotNil(t, m)

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestNewEngineMetricsRejectsDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewEngineMetrics(reg)
	require.NoError(t, err)

	_, err = NewEngineMetrics(reg)
	assert.Error(t, err, "registering the same collector names twice must fail")
}

func TestNilEngineMetricsRecordingMethodsAreNoOps(t *testing.T) {
	var m *EngineMetrics
	assert.NotPanics(t, func() {
		m.RecordMixTick("device")
		m.RecordDeviceReset("device", "ok")
		m.RecordDisconnect("device", "reason")
		m.RecordVoicePoolResize("context")
		m.SetActiveVoices("context", 3)
		m.RecordHRTFResolution("device", "ok")
		m.ObserveCommitSpin("context", 0.001)
	})
}

func TestInitInstallsGlobalOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := Init(reg)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Same(t, m, Global())

	otherReg := prometheus.NewRegistry()
	m2, err := Init(otherReg)
	require.NoError(t, err)
	assert.Same(t, m, m2, "a second Init call must not replace the installed instance")
}
