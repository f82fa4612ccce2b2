package alcore

import "math"

// OutputLimiter is the aluInitRenderer external collaborator for the
// output limiter stage named in spec.md §4.F step 8 (ALC_OUTPUT_LIMITER_SOFT
// token). Its lookahead/attack/release compressor internals are DSP
// algorithm territory out of scope per spec.md §1; alcore ships a simple
// hard-knee peak limiter sufficient to keep loopback test output within
// [-1, 1] when a source stages an out-of-range gain.
type OutputLimiter interface {
	Enabled() bool
	Limit(mix [][]float32, numFrames int)
}

type peakLimiter struct {
	enabled   bool
	threshold float32
}

func newOutputLimiter(enabled bool) OutputLimiter {
	return &peakLimiter{enabled: enabled, threshold: 0.999}
}

func (l *peakLimiter) Enabled() bool { return l.enabled }

func (l *peakLimiter) Limit(mix [][]float32, numFrames int) {
	if !l.enabled {
		return
	}
	for _, ch := range mix {
		for i := 0; i < numFrames && i < len(ch); i++ {
			v := ch[i]
			mag := float32(math.Abs(float64(v)))
			if mag > l.threshold {
				ch[i] = v / mag * l.threshold
			}
		}
	}
}
