package alcore

import (
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"

	ierrors "github.com/HuxyUK/openal-soft/internal/errors"
)

// HRTFDataset describes one enumerable HRTF profile (spec.md §4.F step 5:
// "enumerate available HRTF datasets for the negotiated output rate").
// Parsing the actual SOFA/MHR coefficient data is a DSP-internals concern
// out of scope per spec.md §1; alcore only resolves which dataset name
// applies to a device.
type HRTFDataset struct {
	Name      string
	Frequency int
}

// HRTFSource enumerates datasets available for a frequency, grounded on
// the backend-agnostic "give me what's installed" pattern; a production
// build backs this with a real file-based catalog, out of scope here.
type HRTFSource interface {
	Enumerate(frequency int) ([]HRTFDataset, *ierrors.EnhancedError)
}

// hrtfResolver caches enumerated dataset lists per frequency, since a
// device reset that doesn't change sample rate shouldn't re-scan the
// dataset catalog every time (spec.md §4.F step 5 runs on every
// UpdateDeviceParams call). Grounded on internal/ebird/client.go's
// cache.New(ttl, cleanupInterval) + Get/Set usage.
type hrtfResolver struct {
	source HRTFSource
	cache  *cache.Cache
}

func newHRTFResolver(source HRTFSource) *hrtfResolver {
	return &hrtfResolver{
		source: source,
		cache:  cache.New(5*time.Minute, 10*time.Minute),
	}
}

func cacheKeyForFrequency(frequency int) string {
	return fmt.Sprintf("hrtf:%d", frequency)
}

func (r *hrtfResolver) enumerate(frequency int) ([]HRTFDataset, *ierrors.EnhancedError) {
	key := cacheKeyForFrequency(frequency)
	if cached, found := r.cache.Get(key); found {
		if datasets, ok := cached.([]HRTFDataset); ok {
			return datasets, nil
		}
	}
	datasets, err := r.source.Enumerate(frequency)
	if err != nil {
		return nil, err
	}
	r.cache.Set(key, datasets, cache.DefaultExpiration)
	return datasets, nil
}

// Resolve implements spec.md §4.F step 5's selection order: an explicit
// HRTFID attribute wins if it names an available dataset; otherwise, if
// HRTF was requested (ALC_HRTF_SOFT != 0), the first available dataset for
// the frequency is used; otherwise HRTF stays disabled.
func (r *hrtfResolver) Resolve(frequency int, requested bool, requestedID int32) (dataset HRTFDataset, enabled bool, cerr *ierrors.EnhancedError) {
	if !requested {
		return HRTFDataset{}, false, nil
	}
	datasets, err := r.enumerate(frequency)
	if err != nil {
		return HRTFDataset{}, false, err
	}
	if len(datasets) == 0 {
		return HRTFDataset{}, false, nil
	}
	if requestedID >= 0 && int(requestedID) < len(datasets) {
		return datasets[requestedID], true, nil
	}
	return datasets[0], true, nil
}

// nullHRTFSource always reports no datasets available, used when no HRTF
// catalog has been configured for a device.
type nullHRTFSource struct{}

func (nullHRTFSource) Enumerate(frequency int) ([]HRTFDataset, *ierrors.EnhancedError) {
	return nil, nil
}
