package audio

import "math"

// ----- Ramp ----- //

// Ramp moves linearly from its current value to a target over a number of samples.
// SetSampleRate must be called before the first RampTo.
type Ramp struct {
	value      float64
	target     float64
	increment  float64
	remaining  int
	sampleRate float64
}

// SetSampleRate sets the time base used to convert seconds to samples.
// Changing it while a ramp is in flight is not supported.
func (r *Ramp) SetSampleRate(rate float64) {
	r.sampleRate = rate
}

// RampTo starts a new ramp from the current value, not from the previous target.
// Durations shorter than one sample complete on the next Process.
func (r *Ramp) RampTo(target float64, seconds float64) {
	samples := int(math.Ceil(seconds * r.sampleRate))
	if samples < 1 {
		samples = 1
	}
	r.target = target
	r.remaining = samples
	r.increment = (target - r.value) / float64(samples)
}

// Process advances one sample and returns the new value.
func (r *Ramp) Process() float64 {
	if r.remaining > 0 {
		r.remaining--
		if r.remaining == 0 {
			r.value = r.target
		} else {
			r.value += r.increment
		}
	}
	return r.value
}

// Finished ...
func (r *Ramp) Finished() bool {
	return r.remaining == 0
}

// Value returns the current value without advancing.
func (r *Ramp) Value() float64 {
	return r.value
}

// Reset ...
func (r *Ramp) Reset() {
	r.value = 0
	r.target = 0
	r.increment = 0
	r.remaining = 0
}
