package audio

// voiceGain keeps headroom when several voices overlap.
const voiceGain = 0.5

const cursorInactive = -1

// Rand picks a candidate buffer on each trigger. *rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
}

// ----- Voice ----- //

// Voice plays one of its candidate buffers through an envelope.
type Voice struct {
	note             int
	bank             *SampleBank
	candidates       []BufferID
	selected         int
	buf              []float64 // the selected buffer, owned by bank
	cursor           int
	env              *Envelope
	loop             bool
	releaseOnNoteOff bool
	rnd              Rand
}

// NewVoice returns an idle voice bound to note.
func NewVoice(note int, env *Envelope, rnd Rand) *Voice {
	return &Voice{
		note:   note,
		env:    env,
		cursor: cursorInactive,
		rnd:    rnd,
	}
}

// Configure binds the voice to its candidate buffers and sets the envelope's time base.
// candidates must be non-empty and valid in bank.
func (v *Voice) Configure(bank *SampleBank, candidates []BufferID, sampleRate float64) {
	v.bank = bank
	v.candidates = candidates
	v.selected = 0
	v.buf = nil
	v.cursor = cursorInactive
	v.env.SetSampleRate(sampleRate)
}

// Trigger restarts playback on a randomly chosen candidate.
func (v *Voice) Trigger() {
	v.selected = 0
	if len(v.candidates) > 1 {
		v.selected = v.rnd.Intn(len(v.candidates))
	}
	v.buf = v.bank.Buffer(v.candidates[v.selected])
	v.cursor = 0
	v.env.Trigger()
}

// Release releases the envelope. Playback continues until the buffer ends.
func (v *Voice) Release() {
	v.env.Release()
}

// Process returns the next output sample.
func (v *Voice) Process() float64 {
	if v.cursor == cursorInactive {
		return 0
	}
	out := voiceGain * v.buf[v.cursor] * v.env.Process()
	v.cursor++
	if v.cursor >= len(v.buf) {
		if v.loop {
			v.cursor = 0
		} else {
			v.env.Release()
			v.cursor = cursorInactive
		}
	}
	return out
}

// IsPlaying ...
func (v *Voice) IsPlaying() bool {
	return v.cursor != cursorInactive
}

// Note ...
func (v *Voice) Note() int {
	return v.note
}

// Envelope ...
func (v *Voice) Envelope() *Envelope {
	return v.env
}
