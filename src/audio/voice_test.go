package audio

import "testing"

func newTestVoice(t *testing.T, env *Envelope, rnd Rand, buffers ...[]float64) *Voice {
	t.Helper()
	bank := NewSampleBank()
	var ids []BufferID
	for i, data := range buffers {
		id, err := bank.Add(string(rune('a'+i)), data)
		expectNoError(t, err)
		ids = append(ids, id)
	}
	v := NewVoice(60, env, rnd)
	v.Configure(bank, ids, 100)
	return v
}

func TestVoiceEndToEnd(t *testing.T) {
	env := NewEnvelope()
	env.SetAttackTime(0)
	env.SetReleaseTime(0)
	v := newTestVoice(t, env, &seqRand{values: []int{0}}, []float64{1, 1})

	v.Trigger()
	expectNearlyEqual(t, v.Process(), 0.5)
	expectEqual(t, v.IsPlaying(), true)
	expectNearlyEqual(t, v.Process(), 0.5)
	expectEqual(t, v.IsPlaying(), false)
	expectEqual(t, env.Stage(), StageRelease)
	expectEqual(t, v.Process(), 0.0)
}

func TestVoiceInactiveDoesNoWork(t *testing.T) {
	env := NewEnvelope()
	v := newTestVoice(t, env, &seqRand{values: []int{0}}, []float64{1})
	expectEqual(t, v.IsPlaying(), false)
	for i := 0; i < 3; i++ {
		expectEqual(t, v.Process(), 0.0)
	}
	expectEqual(t, env.Stage(), StageOff)
}

func TestVoiceOneShot(t *testing.T) {
	env := newTestEnvelope(0, 0, 1, 1)
	v := newTestVoice(t, env, &seqRand{values: []int{0}}, []float64{0.1, 0.2, 0.3, 0.4})
	v.Trigger()
	for i, expected := range []float64{0.05, 0.1, 0.15, 0.2} {
		expectEqual(t, v.IsPlaying(), true)
		expectNearlyEqual(t, v.Process(), expected)
		if i < 3 {
			expectEqual(t, env.Stage() == StageRelease, false)
		}
	}
	expectEqual(t, v.IsPlaying(), false)
	expectEqual(t, env.Stage(), StageRelease)
	expectEqual(t, v.Process(), 0.0)
}

func TestVoiceLoop(t *testing.T) {
	env := newTestEnvelope(0, 0, 1, 1)
	v := newTestVoice(t, env, &seqRand{values: []int{0}}, []float64{0.1, 0.2, 0.3, 0.4})
	v.loop = true
	v.Trigger()
	for i := 0; i < 4; i++ {
		v.Process()
	}
	expectEqual(t, v.IsPlaying(), true)
	expectEqual(t, v.cursor, 0)
	expectEqual(t, env.Stage(), StageSustain)
	expectNearlyEqual(t, v.Process(), 0.05)
	expectEqual(t, env.Stage(), StageSustain)
}

func TestVoiceSelectsCandidateOnTrigger(t *testing.T) {
	env := newTestEnvelope(0, 0, 1, 1)
	rnd := &seqRand{values: []int{2, 0, 1}}
	v := newTestVoice(t, env, rnd, constBuffer(0.2, 8), constBuffer(0.4, 8), constBuffer(0.6, 8))

	v.Trigger()
	expectEqual(t, v.selected, 2)
	expectNearlyEqual(t, v.Process(), 0.3)

	v.Trigger()
	expectEqual(t, v.selected, 0)
	expectEqual(t, v.cursor, 0)
	expectNearlyEqual(t, v.Process(), 0.1)

	v.Trigger()
	expectEqual(t, v.selected, 1)
	expectNearlyEqual(t, v.Process(), 0.2)
	expectEqual(t, rnd.calls, 3)
}

func TestVoiceReleaseOnlyReleasesEnvelope(t *testing.T) {
	env := newTestEnvelope(0, 0, 1, 0.02)
	v := newTestVoice(t, env, &seqRand{values: []int{0}}, constBuffer(1, 8))
	v.Trigger()
	v.Process()
	v.Release()
	expectEqual(t, env.Stage(), StageRelease)
	expectNearlyEqual(t, v.Process(), 0.25)
	expectEqual(t, v.Process(), 0.0)
	expectEqual(t, env.Stage(), StageOff)
	// the cursor keeps running until the end of the buffer
	expectEqual(t, v.IsPlaying(), true)
	expectEqual(t, v.cursor, 3)
}

func TestVoiceRetriggerRestartsCursor(t *testing.T) {
	env := newTestEnvelope(0, 0, 1, 1)
	v := newTestVoice(t, env, &seqRand{values: []int{0}}, []float64{0.2, 0.4, 0.6, 0.8})
	v.Trigger()
	v.Process()
	v.Process()
	v.Trigger()
	expectEqual(t, v.cursor, 0)
	expectNearlyEqual(t, v.Process(), 0.1)
}
