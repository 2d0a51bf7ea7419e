package audio

// ----- Envelope Kind ----- //

const (
	envelopeADSR = iota
	envelopeAR
)

func envelopeKindFromString(s string) (int, bool) {
	switch s {
	case "", "adsr":
		return envelopeADSR, true
	case "ar":
		return envelopeAR, true
	}
	return envelopeADSR, false
}

// ----- Envelope Stage ----- //

// Stage is the current segment of an Envelope.
type Stage int

// Envelope stages.
const (
	StageOff Stage = iota
	StageAttack
	StageDecay
	StageSustain
	StageRelease
)

func (s Stage) String() string {
	switch s {
	case StageOff:
		return "off"
	case StageAttack:
		return "attack"
	case StageDecay:
		return "decay"
	case StageSustain:
		return "sustain"
	case StageRelease:
		return "release"
	}
	return "unknown"
}

// ----- Envelope ----- //

/*
  ADSR:
  1 +     x
    |    / \
    |   /   \
  s +  /     x------x
    | /              \
    |/                \
  0 +-----+--+------+---
    |a    |d |      |r |

  AR skips decay and sustain: attack -> release.
*/

// Envelope is an ADSR (or AR) gain generator driven by one Ramp.
type Envelope struct {
	kind         int
	attackTime   float64 // sec
	decayTime    float64 // sec
	sustainLevel float64 // 0-1
	releaseTime  float64 // sec
	stage        Stage
	ramp         Ramp
}

// NewEnvelope ...
func NewEnvelope() *Envelope {
	return &Envelope{
		kind:         envelopeADSR,
		attackTime:   0.001,
		decayTime:    0,
		sustainLevel: 1,
		releaseTime:  0.001,
		stage:        StageOff,
	}
}

// NewAREnvelope returns an envelope that releases as soon as the attack completes.
func NewAREnvelope() *Envelope {
	e := NewEnvelope()
	e.kind = envelopeAR
	return e
}

// SetSampleRate ...
func (e *Envelope) SetSampleRate(rate float64) {
	e.ramp.SetSampleRate(rate)
}

// SetAttackTime ...
func (e *Envelope) SetAttackTime(sec float64) {
	e.attackTime = clampTime(sec)
}

// SetDecayTime ...
func (e *Envelope) SetDecayTime(sec float64) {
	e.decayTime = clampTime(sec)
}

// SetSustainLevel ...
func (e *Envelope) SetSustainLevel(level float64) {
	e.sustainLevel = level
}

// SetReleaseTime ...
func (e *Envelope) SetReleaseTime(sec float64) {
	e.releaseTime = clampTime(sec)
}

func clampTime(sec float64) float64 {
	if sec < 0 {
		return 0
	}
	return sec
}

// Trigger enters Attack from any stage, ramping from the current output.
func (e *Envelope) Trigger() {
	e.stage = StageAttack
	e.ramp.RampTo(1, e.attackTime)
}

// Release enters Release from Attack, Decay or Sustain.
func (e *Envelope) Release() {
	switch e.stage {
	case StageAttack, StageDecay, StageSustain:
		e.stage = StageRelease
		e.ramp.RampTo(0, e.releaseTime)
	}
}

// Reset turns the envelope off with its output at 0.
func (e *Envelope) Reset() {
	e.stage = StageOff
	e.ramp.Reset()
}

// Process returns the output for this sample, then advances the stage if the
// current segment just finished.
func (e *Envelope) Process() float64 {
	if e.stage == StageOff {
		return e.ramp.Value()
	}
	value := e.ramp.Process()
	if e.ramp.Finished() {
		e.advance()
	}
	return value
}

func (e *Envelope) advance() {
	switch e.stage {
	case StageAttack:
		if e.kind == envelopeAR {
			e.stage = StageRelease
			e.ramp.RampTo(0, e.releaseTime)
		} else {
			e.stage = StageDecay
			e.ramp.RampTo(e.sustainLevel, e.decayTime)
		}
	case StageDecay:
		e.stage = StageSustain
	case StageRelease:
		e.stage = StageOff
	}
}

// IsActive ...
func (e *Envelope) IsActive() bool {
	return e.stage != StageOff
}

// Stage ...
func (e *Envelope) Stage() Stage {
	return e.stage
}
