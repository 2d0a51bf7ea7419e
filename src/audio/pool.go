package audio

import (
	"fmt"
	"log"
)

const numNotes = 128

// NoteKind is the kind of a note event passed to Dispatch.
type NoteKind int

// Note event kinds.
const (
	NoteOn NoteKind = iota
	NoteOff
)

// ----- Params ----- //

const (
	paramAttack = iota
	paramDecay
	paramSustain
	paramRelease
)

func paramFromString(s string) (int, bool) {
	switch s {
	case "attack":
		return paramAttack, true
	case "decay":
		return paramDecay, true
	case "sustain":
		return paramSustain, true
	case "release":
		return paramRelease, true
	}
	return 0, false
}

// ----- Voice Spec ----- //

// VoiceSpec describes one voice of a VoicePool.
type VoiceSpec struct {
	Note             int
	Buffers          []BufferID
	AR               bool    // attack-release envelope instead of ADSR
	Attack           float64 // sec
	Decay            float64 // sec
	Sustain          float64 // 0-1
	Release          float64 // sec
	Loop             bool
	ReleaseOnNoteOff bool
}

// ----- Voice Pool ----- //

// VoicePool holds a fixed set of voices, each bound to one MIDI note.
// Only the audio goroutine may call its methods once rendering has started.
type VoicePool struct {
	voices []*Voice
	byNote [numNotes][]int // note -> voice indices, fixed after setup
}

// NewVoicePool builds one voice per spec.
func NewVoicePool(specs []VoiceSpec, bank *SampleBank, sampleRate float64, rnd Rand) (*VoicePool, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %v", sampleRate)
	}
	p := &VoicePool{
		voices: make([]*Voice, 0, len(specs)),
	}
	for i, spec := range specs {
		if spec.Note < 0 || spec.Note >= numNotes {
			return nil, fmt.Errorf("voice %d: note %d out of range", i, spec.Note)
		}
		if len(spec.Buffers) == 0 {
			return nil, fmt.Errorf("voice %d (note %d): no samples", i, spec.Note)
		}
		for _, id := range spec.Buffers {
			if !bank.has(id) {
				return nil, fmt.Errorf("voice %d (note %d): unknown buffer %d", i, spec.Note, id)
			}
			if len(bank.Buffer(id)) == 0 {
				return nil, fmt.Errorf("voice %d (note %d): sample %q is empty", i, spec.Note, bank.Name(id))
			}
		}
		env := NewEnvelope()
		if spec.AR {
			env = NewAREnvelope()
		}
		env.SetAttackTime(spec.Attack)
		env.SetDecayTime(spec.Decay)
		env.SetSustainLevel(spec.Sustain)
		env.SetReleaseTime(spec.Release)

		v := NewVoice(spec.Note, env, rnd)
		v.loop = spec.Loop
		v.releaseOnNoteOff = spec.ReleaseOnNoteOff
		v.Configure(bank, append([]BufferID(nil), spec.Buffers...), sampleRate)

		if len(p.byNote[spec.Note]) > 0 {
			log.Printf("WARN: note %d is bound to more than one voice\n", spec.Note)
		}
		p.byNote[spec.Note] = append(p.byNote[spec.Note], len(p.voices))
		p.voices = append(p.voices, v)
	}
	return p, nil
}

// Dispatch routes a note event to the voices bound to note.
// velocity is accepted but does not scale the output.
func (p *VoicePool) Dispatch(kind NoteKind, note int, velocity int) {
	if note < 0 || note >= numNotes {
		return
	}
	for _, i := range p.byNote[note] {
		v := p.voices[i]
		switch kind {
		case NoteOn:
			v.Trigger()
		case NoteOff:
			if v.releaseOnNoteOff {
				v.Release()
			}
		}
	}
}

// RenderNextSample sums one sample of every voice. No limiting is applied.
func (p *VoicePool) RenderNextSample() float64 {
	sum := 0.0
	for _, v := range p.voices {
		sum += v.Process()
	}
	return sum
}

// Render fills out with consecutive samples.
func (p *VoicePool) Render(out []float64) {
	for i := range out {
		out[i] = p.RenderNextSample()
	}
}

// SetParam changes an envelope parameter of the voices bound to note,
// or of every voice when note is negative. Unknown params are ignored.
func (p *VoicePool) SetParam(note int, param int, value float64) {
	if note >= numNotes {
		return
	}
	if note < 0 {
		for _, v := range p.voices {
			setEnvelopeParam(v.env, param, value)
		}
		return
	}
	for _, i := range p.byNote[note] {
		setEnvelopeParam(p.voices[i].env, param, value)
	}
}

func setEnvelopeParam(e *Envelope, param int, value float64) {
	switch param {
	case paramAttack:
		e.SetAttackTime(value)
	case paramDecay:
		e.SetDecayTime(value)
	case paramSustain:
		e.SetSustainLevel(value)
	case paramRelease:
		e.SetReleaseTime(value)
	}
}

// Voice ...
func (p *VoicePool) Voice(i int) *Voice {
	return p.voices[i]
}

// Len ...
func (p *VoicePool) Len() int {
	return len(p.voices)
}
