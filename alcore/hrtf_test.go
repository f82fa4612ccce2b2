package alcore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ierrors "github.com/HuxyUK/openal-soft/internal/errors"
)

type fakeHRTFSource struct {
	calls    int
	datasets []HRTFDataset
	err      *ierrors.EnhancedError
}

func (f *fakeHRTFSource) Enumerate(frequency int) ([]HRTFDataset, *ierrors.EnhancedError) {
	f.calls++
	return f.datasets, f.err
}

func TestHRTFResolveNotRequestedStaysDisabled(t *testing.T) {
	r := newHRTFResolver(&fakeHRTFSource{})
	_, enabled, err := r.Resolve(48000, false, -1)
	require.Nil(t, err)
	assert.False(t, enabled)
}

func TestHRTFResolvePicksFirstDatasetWhenNoIDRequested(t *testing.T) {
	src := &fakeHRTFSource{datasets: []HRTFDataset{{Name: "44100hz-stereo", Frequency: 44100}, {Name: "48000hz-stereo", Frequency: 48000}}}
	r := newHRTFResolver(src)

	dataset, enabled, err := r.Resolve(48000, true, -1)
	require.Nil(t, err)
	require.True(t, enabled)
	assert.Equal(t, "44100hz-stereo", dataset.Name)
}

func TestHRTFResolveHonorsExplicitID(t *testing.T) {
	src := &fakeHRTFSource{datasets: []HRTFDataset{{Name: "a"}, {Name: "b"}}}
	r := newHRTFResolver(src)

	dataset, enabled, err := r.Resolve(48000, true, 1)
	require.Nil(t, err)
	require.True(t, enabled)
	assert.Equal(t, "b", dataset.Name)
}

func TestHRTFResolveNoDatasetsAvailableDisablesWithoutError(t *testing.T) {
	r := newHRTFResolver(&fakeHRTFSource{})
	_, enabled, err := r.Resolve(48000, true, -1)
	require.Nil(t, err)
	assert.False(t, enabled)
}

func TestHRTFResolverCachesEnumerationPerFrequency(t *testing.T) {
	src := &fakeHRTFSource{datasets: []HRTFDataset{{Name: "a"}}}
	r := newHRTFResolver(src)

	_, _, err := r.Resolve(48000, true, -1)
	require.Nil(t, err)
	_, _, err = r.Resolve(48000, true, -1)
	require.Nil(t, err)

	assert.Equal(t, 1, src.calls, "second Resolve for the same frequency must hit the cache")
}
