package audio

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	defaultAttack  = 0.01 // sec
	defaultDecay   = 0.0  // sec
	defaultSustain = 1.0
	defaultRelease = 3.0 // sec
)

// ----- Kit Voice ----- //

// KitVoice is the configuration of one voice in a Kit.
type KitVoice struct {
	Note             int
	Files            []string
	Envelope         string // "adsr" or "ar"
	Attack           float64
	Decay            float64
	Sustain          float64
	Release          float64
	Loop             bool
	ReleaseOnNoteOff bool
}

type kitVoiceJSON struct {
	Note             int      `json:"note"`
	Files            []string `json:"files"`
	Envelope         string   `json:"envelope"`
	Attack           float64  `json:"attack"`
	Decay            float64  `json:"decay"`
	Sustain          float64  `json:"sustain"`
	Release          float64  `json:"release"`
	Loop             bool     `json:"loop"`
	ReleaseOnNoteOff bool     `json:"releaseOnNoteOff"`
}

func newKitVoice(note int, files ...string) *KitVoice {
	return &KitVoice{
		Note:     note,
		Files:    files,
		Envelope: "ar",
		Attack:   defaultAttack,
		Decay:    defaultDecay,
		Sustain:  defaultSustain,
		Release:  defaultRelease,
	}
}

func (v *KitVoice) applyJSON(data json.RawMessage) error {
	j := kitVoiceJSON{
		Envelope: v.Envelope,
		Attack:   v.Attack,
		Decay:    v.Decay,
		Sustain:  v.Sustain,
		Release:  v.Release,
	}
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	v.Note = j.Note
	v.Files = j.Files
	v.Envelope = j.Envelope
	v.Attack = j.Attack
	v.Decay = j.Decay
	v.Sustain = j.Sustain
	v.Release = j.Release
	v.Loop = j.Loop
	v.ReleaseOnNoteOff = j.ReleaseOnNoteOff
	return nil
}

func (v *KitVoice) toJSON() json.RawMessage {
	return toRawMessage(&kitVoiceJSON{
		Note:             v.Note,
		Files:            v.Files,
		Envelope:         v.Envelope,
		Attack:           v.Attack,
		Decay:            v.Decay,
		Sustain:          v.Sustain,
		Release:          v.Release,
		Loop:             v.Loop,
		ReleaseOnNoteOff: v.ReleaseOnNoteOff,
	})
}

// ----- Kit ----- //

// Kit maps MIDI notes to sample files and envelope settings.
type Kit struct {
	SampleDir string
	Channel   int // -1: omni
	Controls  map[string]int
	Voices    []*KitVoice
}

type kitJSON struct {
	SampleDir string            `json:"sampleDir"`
	Channel   int               `json:"channel"`
	Controls  map[string]int    `json:"controls,omitempty"`
	Voices    []json.RawMessage `json:"voices"`
}

// DefaultKit returns eight bass voices on notes 60-67 and eight one-shot
// percussion voices with three variants each on notes 68-75.
func DefaultKit(sampleDir string) *Kit {
	k := &Kit{
		SampleDir: sampleDir,
		Channel:   -1,
		Controls:  DefaultControls(),
	}
	for i := 0; i < 8; i++ {
		v := newKitVoice(60+i, fmt.Sprintf("bass%d.wav", i+1))
		v.ReleaseOnNoteOff = true
		k.Voices = append(k.Voices, v)
	}
	for i := 0; i < 8; i++ {
		v := newKitVoice(68+i,
			fmt.Sprintf("percussion%d_1.wav", i+1),
			fmt.Sprintf("percussion%d_2.wav", i+1),
			fmt.Sprintf("percussion%d_3.wav", i+1),
		)
		k.Voices = append(k.Voices, v)
	}
	return k
}

// LoadKit reads a kit file. A relative sampleDir is resolved against the file's directory.
func LoadKit(path string) (*Kit, error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	k, err := parseKit(bytes)
	if err != nil {
		return nil, fmt.Errorf("invalid kit %s: %w", path, err)
	}
	if !filepath.IsAbs(k.SampleDir) {
		k.SampleDir = filepath.Join(filepath.Dir(path), k.SampleDir)
	}
	return k, nil
}

func parseKit(data []byte) (*Kit, error) {
	j := kitJSON{Channel: -1}
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, err
	}
	k := &Kit{
		SampleDir: j.SampleDir,
		Channel:   j.Channel,
		Controls:  j.Controls,
	}
	if k.Controls == nil {
		k.Controls = DefaultControls()
	}
	for i, data := range j.Voices {
		v := newKitVoice(0)
		v.Envelope = "adsr"
		if err := v.applyJSON(data); err != nil {
			return nil, fmt.Errorf("voice %d: %w", i, err)
		}
		k.Voices = append(k.Voices, v)
	}
	if err := k.validate(); err != nil {
		return nil, err
	}
	return k, nil
}

func (k *Kit) validate() error {
	if k.Channel < -1 || k.Channel > 15 {
		return fmt.Errorf("channel %d out of range", k.Channel)
	}
	for param, cc := range k.Controls {
		if _, ok := paramFromString(param); !ok {
			return fmt.Errorf("unknown control %q", param)
		}
		if cc < 0 || cc > 127 {
			return fmt.Errorf("control %q: controller %d out of range", param, cc)
		}
	}
	if len(k.Voices) == 0 {
		return fmt.Errorf("no voices")
	}
	for i, v := range k.Voices {
		if v.Note < 0 || v.Note >= numNotes {
			return fmt.Errorf("voice %d: note %d out of range", i, v.Note)
		}
		if len(v.Files) == 0 {
			return fmt.Errorf("voice %d (note %d): no files", i, v.Note)
		}
		if _, ok := envelopeKindFromString(v.Envelope); !ok {
			return fmt.Errorf("voice %d (note %d): unknown envelope %q", i, v.Note, v.Envelope)
		}
	}
	return nil
}

// Files returns every sample file the kit refers to, possibly with duplicates.
func (k *Kit) Files() []string {
	var files []string
	for _, v := range k.Voices {
		files = append(files, v.Files...)
	}
	return files
}

// VoiceSpecs resolves the kit's files against ids.
func (k *Kit) VoiceSpecs(ids map[string]BufferID) ([]VoiceSpec, error) {
	specs := make([]VoiceSpec, len(k.Voices))
	for i, v := range k.Voices {
		kind, _ := envelopeKindFromString(v.Envelope)
		spec := VoiceSpec{
			Note:             v.Note,
			AR:               kind == envelopeAR,
			Attack:           v.Attack,
			Decay:            v.Decay,
			Sustain:          v.Sustain,
			Release:          v.Release,
			Loop:             v.Loop,
			ReleaseOnNoteOff: v.ReleaseOnNoteOff,
		}
		for _, file := range v.Files {
			id, ok := ids[file]
			if !ok {
				return nil, fmt.Errorf("voice %d (note %d): sample %q is not loaded", i, v.Note, file)
			}
			spec.Buffers = append(spec.Buffers, id)
		}
		specs[i] = spec
	}
	return specs, nil
}

// ToJSON ...
func (k *Kit) ToJSON() []byte {
	voices := make([]json.RawMessage, len(k.Voices))
	for i, v := range k.Voices {
		voices[i] = v.toJSON()
	}
	bytes, err := json.MarshalIndent(&kitJSON{
		SampleDir: k.SampleDir,
		Channel:   k.Channel,
		Controls:  k.Controls,
		Voices:    voices,
	}, "", "  ")
	if err != nil {
		panic(err)
	}
	return bytes
}

func toRawMessage(v interface{}) json.RawMessage {
	bytes, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return json.RawMessage(bytes)
}
