package sensor

import (
	"encoding/binary"
	"io"
	"math"
	"os"
	"os/exec"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
)

const (
	volumeSampleRate = 48000
	// samples kept for the smoothed reading; at one chunk per 200 ms this
	// spans the last 20 seconds
	volumeRingSize = 100
	// reported level is this quantile of the ring, which tracks sustained
	// loudness while ignoring short spikes
	volumeQuantile = 0.8

	// RMS threshold of hearing re 20 µPa, with full scale treated as 1 Pa
	pressureReference = 0.00002
)

// Volume measures microphone loudness in dB by piping raw S16_LE samples out
// of arecord, one RMS figure per chunk, smoothed over a ring buffer.
type Volume struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	window time.Duration

	mu    sync.Mutex
	ring  *ring
	value float64

	done chan struct{}
}

func OpenVolume(window time.Duration) (v *Volume, err error) {
	cmd := exec.Command("arecord",
		"-q",
		"-f", "S16_LE",
		"-r", "48000",
		"-c", "1",
		"-t", "raw",
		"-")
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		err = errors.Wrap(err, "open arecord pipe")
		return
	}
	if err = cmd.Start(); err != nil {
		err = errors.Wrap(err, "start arecord")
		return
	}
	v = &Volume{
		cmd:    cmd,
		stdout: stdout,
		window: window,
		ring:   newRing(volumeRingSize),
		done:   make(chan struct{}),
	}
	go v.loop()
	return
}

func (v *Volume) loop() {
	defer close(v.done)
	samplesPerChunk := int(float64(volumeSampleRate) * v.window.Seconds())
	raw := make([]byte, samplesPerChunk*2)
	samples := make([]float64, samplesPerChunk)
	for {
		if _, err := io.ReadFull(v.stdout, raw); err != nil {
			if !isStreamShutdown(err) {
				log.Error("volume stream read failed:", err)
			}
			return
		}
		for i := range samples {
			samples[i] = float64(int16(binary.LittleEndian.Uint16(raw[2*i:]))) / 32768
		}
		v.push(samples)
	}
}

func (v *Volume) push(samples []float64) {
	level := toDecibels(samples)
	v.mu.Lock()
	v.ring.push(level)
	v.value = quantile(v.ring.populated(), volumeQuantile)
	v.mu.Unlock()
}

func (v *Volume) Name() string {
	return "volume"
}

func (v *Volume) Read() (value float64, err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.value, nil
}

func (v *Volume) Stop() {
	v.stdout.Close()
	if v.cmd.Process != nil {
		v.cmd.Process.Kill()
	}
	v.cmd.Wait()
	<-v.done
	log.Notice("turned off microphone stream")
}

// isStreamShutdown reports whether a read error is the expected result of
// Stop closing the pipe. Closing our end surfaces as os.ErrClosed inside a
// PathError, not io.EOF.
func isStreamShutdown(err error) bool {
	return err == io.EOF || err == io.ErrClosedPipe || errors.Is(err, os.ErrClosed)
}

func rms(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += s * s
	}
	return math.Sqrt(sum / float64(len(samples)))
}

// toDecibels converts a chunk of normalized pressure samples to dB relative
// to the threshold of hearing. Values too close to zero clamp to 0 dB rather
// than diverging to -inf.
func toDecibels(samples []float64) float64 {
	pp0 := math.Abs(rms(samples) / pressureReference)
	if pp0 <= 0.00000001 {
		return 0
	}
	return 20 * math.Log10(pp0)
}

// quantile returns the q-th value of the sorted window.
func quantile(window []float64, q float64) float64 {
	if len(window) == 0 {
		return 0
	}
	sorted := make([]float64, len(window))
	copy(sorted, window)
	sort.Float64s(sorted)
	index := int(q * float64(len(sorted)))
	if index < 0 {
		index = 0
	}
	if index > len(sorted)-1 {
		index = len(sorted) - 1
	}
	return sorted[index]
}

// ring is a fixed-size overwriting sample buffer.
type ring struct {
	values []float64
	length int
	index  int
}

func newRing(size int) *ring {
	return &ring{values: make([]float64, size)}
}

func (r *ring) push(value float64) {
	if r.length < len(r.values) {
		r.length++
	}
	r.values[r.index] = value
	r.index = (r.index + 1) % len(r.values)
}

// populated returns only the slots that have been written so far.
func (r *ring) populated() []float64 {
	return r.values[:r.length]
}
