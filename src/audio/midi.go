package audio

import (
	"context"
	"fmt"
	"log"
	"strings"

	"gitlab.com/gomidi/midi"
	"gitlab.com/gomidi/rtmididrv"
)

// MidiIn is an opened MIDI input port.
type MidiIn struct {
	drv *rtmididrv.Driver
	in  midi.In
}

// ListMidiIns returns the names of the available MIDI input ports.
func ListMidiIns() ([]string, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MIDI driver: %w", err)
	}
	defer func() {
		if err := drv.Close(); err != nil {
			log.Printf("failed to close MIDI driver: %v\n", err)
		}
	}()
	ins, err := drv.Ins()
	if err != nil {
		return nil, fmt.Errorf("failed to get MIDI IN: %w", err)
	}
	names := make([]string, len(ins))
	for i, in := range ins {
		names[i] = in.String()
	}
	return names, nil
}

// OpenMidiIn opens the first input port whose name contains name.
// An empty name selects the first port.
func OpenMidiIn(name string) (*MidiIn, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MIDI driver: %w", err)
	}
	in, err := findMidiIn(drv, name)
	if err == nil {
		err = in.Open()
	}
	if err != nil {
		if err := drv.Close(); err != nil {
			log.Printf("failed to close MIDI driver: %v\n", err)
		}
		return nil, err
	}
	log.Println("opened " + in.String())
	return &MidiIn{drv: drv, in: in}, nil
}

func findMidiIn(drv *rtmididrv.Driver, name string) (midi.In, error) {
	ins, err := drv.Ins()
	if err != nil {
		return nil, fmt.Errorf("failed to get MIDI IN: %w", err)
	}
	log.Printf("MIDI IN: %v\n", ins)
	if len(ins) == 0 {
		return nil, fmt.Errorf("MIDI IN not found")
	}
	for _, in := range ins {
		if strings.Contains(in.String(), name) {
			return in, nil
		}
	}
	return nil, fmt.Errorf("MIDI IN %q not found", name)
}

// Listen passes every incoming message to f until ctx is cancelled.
// f runs on the driver's goroutine and must not block.
func (m *MidiIn) Listen(ctx context.Context, f func(data []byte)) error {
	log.Println("start listening MIDI IN...")
	if err := m.in.SetListener(func(data []byte, deltaMicroseconds int64) {
		f(data)
	}); err != nil {
		return fmt.Errorf("failed to set listener: %w", err)
	}
	defer func() {
		log.Println("stop listening MIDI IN...")
		if err := m.in.StopListening(); err != nil {
			log.Printf("failed to stop listening: %v\n", err)
		}
	}()
	<-ctx.Done()
	return nil
}

// Close ...
func (m *MidiIn) Close() error {
	if err := m.in.Close(); err != nil {
		log.Printf("failed to close MIDI IN: %v\n", err)
	}
	return m.drv.Close()
}
