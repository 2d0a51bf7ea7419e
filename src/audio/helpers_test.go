package audio

import (
	"math"
	"testing"
)

func expectNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Errorf("expected no error, but got: %v", err)
	}
}

func expectError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Errorf("expected an error, but got nil")
	}
}

func expectEqual(t *testing.T, actual, expected interface{}) {
	t.Helper()
	if actual != expected {
		t.Errorf("expected %v, but got: %v", expected, actual)
	}
}

func expectNearlyEqual(t *testing.T, actual, expected float64) {
	t.Helper()
	if math.Abs(actual-expected) > 0.0001 {
		t.Errorf("expected %v, but got: %v", expected, actual)
	}
}

// seqRand returns its values in order, wrapping around.
type seqRand struct {
	values []int
	calls  int
}

func (r *seqRand) Intn(n int) int {
	v := r.values[r.calls%len(r.values)] % n
	r.calls++
	return v
}

func constBuffer(value float64, length int) []float64 {
	data := make([]float64, length)
	for i := range data {
		data[i] = value
	}
	return data
}
