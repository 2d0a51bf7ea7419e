package audio

import (
	"context"
	"fmt"
	"io"
	"log"
	"strconv"

	"github.com/hajimehoshi/oto"
)

const (
	channelNum      = 2
	bitDepthInBytes = 2
	samplesPerCycle = 1024
	eventQueueSize  = 1024
)
const bytesPerSample = bitDepthInBytes * channelNum
const bufferSizeInBytes = samplesPerCycle * bytesPerSample // should be >= 4096

// ----- Audio ----- //

// Audio renders a VoicePool to the sound card.
type Audio struct {
	ctx        context.Context
	otoContext *oto.Context
	sampleRate float64
	CommandCh  chan []string
	pool       *VoicePool
	events     *eventQueue
	out        []float64 // length: samplesPerCycle
}

var _ io.Reader = (*Audio)(nil)
var _ EventSink = (*Audio)(nil)

// NewAudio opens the output device. The pool must not be used by anyone else afterwards.
func NewAudio(pool *VoicePool, sampleRate float64) (*Audio, error) {
	otoContext, err := oto.NewContext(int(sampleRate), channelNum, bitDepthInBytes, bufferSizeInBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio output: %w", err)
	}
	a := newAudio(pool, sampleRate)
	a.otoContext = otoContext
	go processCommands(a, a.CommandCh)
	return a, nil
}

func newAudio(pool *VoicePool, sampleRate float64) *Audio {
	return &Audio{
		ctx:        context.Background(),
		sampleRate: sampleRate,
		CommandCh:  make(chan []string, 256),
		pool:       pool,
		events:     newEventQueue(eventQueueSize),
		out:        make([]float64, samplesPerCycle),
	}
}

// Read renders len(buf)/bytesPerSample frames. Pending events are applied first.
func (a *Audio) Read(buf []byte) (int, error) {
	select {
	case <-a.ctx.Done():
		log.Println("Read() interrupted.")
		return 0, io.EOF
	default:
	}
	a.events.drain(a.pool)
	frames := len(buf) / bytesPerSample
	for pos := 0; pos < frames; pos += len(a.out) {
		n := frames - pos
		if n > len(a.out) {
			n = len(a.out)
		}
		out := a.out[:n]
		a.pool.Render(out)
		chunk := buf[pos*bytesPerSample : (pos+n)*bytesPerSample]
		for ch := 0; ch < channelNum; ch++ {
			writeBuffer(out, chunk, ch)
		}
	}
	return frames * bytesPerSample, nil
}

func writeBuffer(out []float64, buf []byte, ch int) {
	for i, value := range out {
		if value > 1 {
			value = 1
		} else if value < -1 {
			value = -1
		}
		const max = 32767
		b := int16(value * max)
		buf[bytesPerSample*i+2*ch] = byte(b)
		buf[bytesPerSample*i+2*ch+1] = byte(b >> 8)
	}
}

// NoteOn ...
func (a *Audio) NoteOn(note int, velocity int) {
	a.events.push(event{kind: eventNoteOn, note: note, velocity: velocity})
}

// NoteOff ...
func (a *Audio) NoteOff(note int) {
	a.events.push(event{kind: eventNoteOff, note: note})
}

// SetParam changes an envelope param of the voices on note, or of all voices if note < 0.
// It takes effect from the next segment each voice starts.
func (a *Audio) SetParam(param string, note int, value float64) error {
	p, ok := paramFromString(param)
	if !ok {
		return fmt.Errorf("unknown param %q", param)
	}
	a.events.push(event{kind: eventParam, note: note, param: p, value: value})
	return nil
}

// ----- Commands ----- //

func processCommands(audio *Audio, commandCh <-chan []string) {
	for command := range commandCh {
		if err := audio.update(command); err != nil {
			log.Printf("invalid command %v: %v\n", command, err)
		}
	}
	log.Println("processCommands() ended.")
}

func (a *Audio) update(command []string) error {
	if len(command) == 0 {
		return fmt.Errorf("empty command")
	}
	switch command[0] {
	case "note_on":
		if len(command) < 2 {
			return fmt.Errorf("missing note")
		}
		note, err := strconv.Atoi(command[1])
		if err != nil {
			return err
		}
		velocity := 100
		if len(command) > 2 {
			velocity, err = strconv.Atoi(command[2])
			if err != nil {
				return err
			}
		}
		if velocity == 0 {
			a.NoteOff(note)
		} else {
			a.NoteOn(note, velocity)
		}
	case "note_off":
		if len(command) < 2 {
			return fmt.Errorf("missing note")
		}
		note, err := strconv.Atoi(command[1])
		if err != nil {
			return err
		}
		a.NoteOff(note)
	case "set":
		command = command[1:]
		if len(command) != 2 && len(command) != 3 {
			return fmt.Errorf("invalid key-value pair %v", command)
		}
		value, err := strconv.ParseFloat(command[1], 64)
		if err != nil {
			return err
		}
		note := -1
		if len(command) == 3 {
			note, err = strconv.Atoi(command[2])
			if err != nil {
				return err
			}
		}
		return a.SetParam(command[0], note, value)
	default:
		return fmt.Errorf("unknown command %v", command[0])
	}
	return nil
}

// Close ...
func (a *Audio) Close() error {
	log.Println("Closing Audio...")
	close(a.CommandCh)
	if a.otoContext == nil {
		return nil
	}
	return a.otoContext.Close()
}

// Start plays until ctx is cancelled.
func (a *Audio) Start(ctx context.Context) error {
	p := a.otoContext.NewPlayer()
	defer func() {
		if err := p.Close(); err != nil {
			log.Printf("error: %v", err)
		}
	}()
	a.ctx = ctx

	// block until cancel() called
	if _, err := io.CopyBuffer(p, a, make([]byte, bufferSizeInBytes)); err != nil {
		return err
	}
	log.Println("Start() ended.")
	return nil
}
