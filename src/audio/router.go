package audio

import (
	"log"

	"gitlab.com/gomidi/midi/v2"
)

// maxControlTime is the time a controller value of 127 maps to.
const maxControlTime = 3.0 // sec

// EventSink receives the events decoded by a Router.
// Implementations must not block.
type EventSink interface {
	NoteOn(note int, velocity int)
	NoteOff(note int)
	SetParam(param string, note int, value float64) error
}

// DefaultControls maps envelope params to the sound controllers that usually carry them.
func DefaultControls() map[string]int {
	return map[string]int{
		"attack":  73,
		"decay":   75,
		"sustain": 79,
		"release": 72,
	}
}

// ----- Router ----- //

// Router turns raw MIDI messages into note and parameter events.
type Router struct {
	sink     EventSink
	channel  int // -1: omni
	controls map[uint8]string
	Verbose  bool
}

// NewRouter ...
func NewRouter(sink EventSink, channel int, controls map[string]int) *Router {
	r := &Router{
		sink:     sink,
		channel:  channel,
		controls: make(map[uint8]string, len(controls)),
	}
	for param, cc := range controls {
		if cc >= 0 && cc < 128 {
			r.controls[uint8(cc)] = param
		}
	}
	return r
}

// HandleMessage decodes one MIDI message. Anything it does not understand is ignored.
func (r *Router) HandleMessage(data []byte) {
	if len(data) != 3 {
		return
	}
	msg := midi.Message(data)
	var ch, key, vel, cc, val uint8
	switch {
	case msg.GetNoteStart(&ch, &key, &vel):
		if !r.accepts(ch) {
			return
		}
		if r.Verbose {
			log.Printf("note on: ch=%d key=%d vel=%d\n", ch, key, vel)
		}
		r.sink.NoteOn(int(key), int(vel))
	case msg.GetNoteEnd(&ch, &key):
		if !r.accepts(ch) {
			return
		}
		if r.Verbose {
			log.Printf("note off: ch=%d key=%d\n", ch, key)
		}
		r.sink.NoteOff(int(key))
	case msg.GetControlChange(&ch, &cc, &val):
		if !r.accepts(ch) {
			return
		}
		param, ok := r.controls[cc]
		if !ok {
			return
		}
		value := controlValue(param, val)
		if r.Verbose {
			log.Printf("control: ch=%d cc=%d %s=%v\n", ch, cc, param, value)
		}
		if err := r.sink.SetParam(param, -1, value); err != nil {
			log.Printf("failed to set %s: %v\n", param, err)
		}
	default:
		if r.Verbose {
			log.Printf("unhandled MIDI message: %v\n", msg)
		}
	}
}

func (r *Router) accepts(ch uint8) bool {
	return r.channel < 0 || int(ch) == r.channel
}

func controlValue(param string, val uint8) float64 {
	v := float64(val) / 127
	if param == "sustain" {
		return v
	}
	return v * maxControlTime
}
