package audio

import "log"

// ----- Event ----- //

const (
	eventNoteOn = iota
	eventNoteOff
	eventParam
)

type event struct {
	kind     int
	note     int
	velocity int
	param    int
	value    float64
}

// ----- Event Queue ----- //

// eventQueue carries events from any goroutine to the audio goroutine.
// Senders never block; the audio goroutine drains it at the start of each block.
type eventQueue struct {
	ch chan event
}

func newEventQueue(size int) *eventQueue {
	return &eventQueue{ch: make(chan event, size)}
}

func (q *eventQueue) push(e event) bool {
	select {
	case q.ch <- e:
		return true
	default:
		log.Printf("WARN: event queue is full, dropped event %+v\n", e)
		return false
	}
}

// drain applies pending events to pool and returns how many were applied.
// At most one queue's worth is taken per call so a busy sender cannot stall a block.
func (q *eventQueue) drain(pool *VoicePool) int {
	n := 0
	for n < cap(q.ch) {
		select {
		case e := <-q.ch:
			applyEvent(pool, e)
			n++
		default:
			return n
		}
	}
	return n
}

func applyEvent(pool *VoicePool, e event) {
	switch e.kind {
	case eventNoteOn:
		pool.Dispatch(NoteOn, e.note, e.velocity)
	case eventNoteOff:
		pool.Dispatch(NoteOff, e.note, e.velocity)
	case eventParam:
		pool.SetParam(e.note, e.param, e.value)
	}
}
