package sensor

import (
	"io"
	"math"
	"os"
	"testing"
)

func constantChunk(value float64, n int) []float64 {
	chunk := make([]float64, n)
	for i := range chunk {
		chunk[i] = value
	}
	return chunk
}

func TestRMS(t *testing.T) {
	if got := rms(nil); got != 0 {
		t.Fatalf("rms(nil) = %v", got)
	}
	if got := rms([]float64{1, -1, 1, -1}); got != 1 {
		t.Fatalf("rms = %v, want 1", got)
	}
	if got := rms(constantChunk(0.5, 100)); math.Abs(got-0.5) > 1e-12 {
		t.Fatalf("rms = %v, want 0.5", got)
	}
}

func TestToDecibels(t *testing.T) {
	if got := toDecibels(constantChunk(0, 100)); got != 0 {
		t.Fatalf("silence should clamp to 0 dB, got %v", got)
	}
	// RMS equal to the reference pressure is 0 dB
	if got := toDecibels(constantChunk(pressureReference, 100)); math.Abs(got) > 1e-9 {
		t.Fatalf("reference level: %v dB", got)
	}
	// 100x the reference is 40 dB
	if got := toDecibels(constantChunk(pressureReference*100, 100)); math.Abs(got-40) > 1e-9 {
		t.Fatalf("got %v dB, want 40", got)
	}
}

func TestQuantile(t *testing.T) {
	if got := quantile(nil, volumeQuantile); got != 0 {
		t.Fatalf("empty window: %v", got)
	}
	window := []float64{10, 1, 9, 2, 8, 3, 7, 4, 6, 5}
	if got := quantile(window, 0.8); got != 9 {
		t.Fatalf("quantile = %v, want 9", got)
	}
	if got := quantile(window, 1.0); got != 10 {
		t.Fatalf("quantile clamps to last value, got %v", got)
	}
}

func TestRingOverwritesOldest(t *testing.T) {
	r := newRing(3)
	r.push(1)
	if got := len(r.populated()); got != 1 {
		t.Fatalf("populated length %d", got)
	}
	r.push(2)
	r.push(3)
	r.push(4) // evicts 1
	window := r.populated()
	if len(window) != 3 {
		t.Fatalf("populated length %d", len(window))
	}
	var sum float64
	for _, v := range window {
		sum += v
	}
	if sum != 9 {
		t.Fatalf("ring contents sum %v, want 9 (2+3+4)", sum)
	}
}

func TestStreamShutdownErrors(t *testing.T) {
	if !isStreamShutdown(io.EOF) {
		t.Fatal("EOF is a clean shutdown")
	}
	if !isStreamShutdown(io.ErrClosedPipe) {
		t.Fatal("closed pipe is a clean shutdown")
	}
	closed := &os.PathError{Op: "read", Path: "|0", Err: os.ErrClosed}
	if !isStreamShutdown(closed) {
		t.Fatal("closing our own pipe end is a clean shutdown")
	}
	if isStreamShutdown(io.ErrUnexpectedEOF) {
		t.Fatal("a truncated chunk is a real error")
	}
}

func TestVolumeSmoothing(t *testing.T) {
	v := &Volume{ring: newRing(volumeRingSize)}
	// a sustained quiet signal with one loud spike: the 0.8 quantile
	// should sit at the quiet level
	for i := 0; i < 10; i++ {
		v.push(constantChunk(pressureReference*10, 100)) // 20 dB
	}
	v.push(constantChunk(pressureReference*1000, 100)) // 60 dB spike
	value, err := v.Read()
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(value-20) > 1e-9 {
		t.Fatalf("smoothed level %v dB, want 20", value)
	}
}
