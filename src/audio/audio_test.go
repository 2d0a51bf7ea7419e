package audio

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"
)

func newTestAudio(t *testing.T, buffers ...[]float64) *Audio {
	t.Helper()
	specs := make([]VoiceSpec, len(buffers))
	for i := range buffers {
		specs[i] = instantSpec(60+i, BufferID(i))
	}
	return newAudio(newTestPool(t, specs, buffers...), 100)
}

func frameAt(buf []byte, frame int, ch int) int16 {
	return int16(binary.LittleEndian.Uint16(buf[bytesPerSample*frame+2*ch:]))
}

func TestAudioReadWritesAllChannels(t *testing.T) {
	a := newTestAudio(t, []float64{1, -1, 0.5})
	a.NoteOn(60, 100)
	buf := make([]byte, 4*bytesPerSample)
	n, err := a.Read(buf)
	expectNoError(t, err)
	expectEqual(t, n, len(buf))
	for ch := 0; ch < channelNum; ch++ {
		expectEqual(t, frameAt(buf, 0, ch), int16(16383))
		expectEqual(t, frameAt(buf, 1, ch), int16(-16383))
		expectEqual(t, frameAt(buf, 2, ch), int16(8191))
		expectEqual(t, frameAt(buf, 3, ch), int16(0))
	}
}

func TestAudioReadClampsOutput(t *testing.T) {
	for _, level := range []float64{1, -1} {
		a := newTestAudio(t, constBuffer(level, 8), constBuffer(level, 8), constBuffer(level, 8))
		for note := 60; note <= 62; note++ {
			a.NoteOn(note, 100)
		}
		buf := make([]byte, bytesPerSample)
		_, err := a.Read(buf)
		expectNoError(t, err)
		expectEqual(t, frameAt(buf, 0, 0), int16(level*32767))
		expectEqual(t, frameAt(buf, 0, 1), int16(level*32767))
	}
}

func TestAudioReadLargerThanCycle(t *testing.T) {
	a := newTestAudio(t, constBuffer(0.5, samplesPerCycle*3))
	a.NoteOn(60, 100)
	buf := make([]byte, (samplesPerCycle*2+10)*bytesPerSample)
	n, err := a.Read(buf)
	expectNoError(t, err)
	expectEqual(t, n, len(buf))
	expectEqual(t, frameAt(buf, 0, 0), int16(8191))
	expectEqual(t, frameAt(buf, samplesPerCycle*2+9, 1), int16(8191))
}

func TestAudioEventsApplyAtBlockStart(t *testing.T) {
	a := newTestAudio(t, constBuffer(1, 64))
	buf := make([]byte, 4*bytesPerSample)
	_, err := a.Read(buf)
	expectNoError(t, err)
	expectEqual(t, frameAt(buf, 0, 0), int16(0))

	a.NoteOn(60, 100)
	expectEqual(t, a.pool.Voice(0).IsPlaying(), false)
	_, err = a.Read(buf)
	expectNoError(t, err)
	expectEqual(t, a.pool.Voice(0).IsPlaying(), true)
	expectEqual(t, frameAt(buf, 0, 0), int16(16383))
}

func TestAudioReadAfterCancel(t *testing.T) {
	a := newTestAudio(t, constBuffer(1, 8))
	ctx, cancel := context.WithCancel(context.Background())
	a.ctx = ctx
	cancel()
	n, err := a.Read(make([]byte, bytesPerSample))
	expectEqual(t, n, 0)
	expectEqual(t, err, io.EOF)
}

func TestAudioCommands(t *testing.T) {
	a := newTestAudio(t, constBuffer(1, 64))
	expectNoError(t, a.update([]string{"set", "attack", "0.5"}))
	expectNoError(t, a.update([]string{"set", "release", "2", "60"}))
	expectNoError(t, a.update([]string{"note_on", "60"}))
	expectNoError(t, a.update([]string{"note_on", "60", "0"}))
	expectNoError(t, a.update([]string{"note_off", "60"}))
	expectError(t, a.update([]string{}))
	expectError(t, a.update([]string{"note_on"}))
	expectError(t, a.update([]string{"note_on", "x"}))
	expectError(t, a.update([]string{"set", "attack"}))
	expectError(t, a.update([]string{"set", "volume", "1"}))
	expectError(t, a.update([]string{"poly"}))

	expectEqual(t, a.events.drain(a.pool), 5)
	env := a.pool.Voice(0).env
	expectEqual(t, env.attackTime, 0.5)
	expectEqual(t, env.releaseTime, 2.0)
	expectEqual(t, env.Stage(), StageRelease)
}

func TestAudioDropsEventsWhenQueueIsFull(t *testing.T) {
	a := newTestAudio(t, constBuffer(1, 8))
	for i := 0; i < eventQueueSize; i++ {
		expectEqual(t, a.events.push(event{kind: eventNoteOn, note: 60}), true)
	}
	expectEqual(t, a.events.push(event{kind: eventNoteOn, note: 60}), false)
	expectEqual(t, a.events.drain(a.pool), eventQueueSize)
	expectEqual(t, a.events.drain(a.pool), 0)
}

func TestAudioConcurrentEvents(t *testing.T) {
	a := newTestAudio(t, constBuffer(0.5, 256), constBuffer(0.5, 256))
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(note int) {
			defer wg.Done()
			for ctx.Err() == nil {
				a.NoteOn(note, 100)
				a.NoteOff(note)
				time.Sleep(time.Millisecond)
			}
		}(60 + i%2)
	}
	buf := make([]byte, 64*bytesPerSample)
	for ctx.Err() == nil {
		_, err := a.Read(buf)
		expectNoError(t, err)
	}
	wg.Wait()
}

func TestBenchmark(t *testing.T) {
	voices := 16
	times := 1000

	buffers := make([][]float64, voices)
	for i := range buffers {
		buffers[i] = constBuffer(0.1, 48000)
	}
	a := newTestAudio(t, buffers...)
	defer func() {
		expectNoError(t, a.Close())
	}()
	out := make([]byte, bufferSizeInBytes)
	for n := 0; n < voices; n++ {
		a.NoteOn(60+n, 100)
	}
	start := time.Now()
	for n := 0; n < times; n++ {
		_, err := a.Read(out)
		expectNoError(t, err)
	}
	averageProcessTime := time.Since(start).Seconds() / float64(times) * 1000
	fmt.Printf("average process time: %.3fms\n", averageProcessTime)
}
