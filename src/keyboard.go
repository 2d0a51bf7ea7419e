package main

import "time"

// keyRow lays out one chromatic octave on a QWERTY keyboard, starting at the base note.
const keyRow = "awsedftgyhujk"

type noteSink interface {
	NoteOn(note int, velocity int)
	NoteOff(note int)
}

func keyToNote(b byte, base int) (int, bool) {
	for i := 0; i < len(keyRow); i++ {
		if keyRow[i] == b {
			note := base + i
			return note, note < 128
		}
	}
	return 0, false
}

// handleKey returns false when the key asks to quit.
func handleKey(b byte, sink noteSink, base int, hold time.Duration) bool {
	if b == 'q' || b == 3 {
		return false
	}
	note, ok := keyToNote(b, base)
	if !ok {
		return true
	}
	sink.NoteOn(note, 100)
	time.AfterFunc(hold, func() {
		sink.NoteOff(note)
	})
	return true
}
