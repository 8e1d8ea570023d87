// Package audio provides waveform primitives, the Morse audio assembler, and WAV
// export for synthesized Morse code.
package audio

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/gopxl/beep/v2"
)

// Sample rate and length limits.
const (
	DefaultSampleRate = 44100
	MaxSampleRate     = 192000
	// MaxSegmentMs bounds a single tone or silence. Longer durations are clamped.
	MaxSegmentMs = 60000
	// MaxDuration bounds one synthesized waveform.
	MaxDuration = 5 * time.Minute
	msPerSecond = 1000
)

// ErrInvalidSampleRate is returned for sample rates outside (0, MaxSampleRate].
var ErrInvalidSampleRate = errors.New("invalid sample rate")

// Waveform is a mono sequence of samples in [-1, 1] at a fixed sample rate.
type Waveform struct {
	SampleRate beep.SampleRate
	Samples    []float64
}

// NewWaveform returns an empty waveform.
func NewWaveform(sampleRate beep.SampleRate) *Waveform {
	return &Waveform{SampleRate: sampleRate, Samples: nil}
}

// ValidateSampleRate checks a sample rate against the supported range.
func ValidateSampleRate(sampleRate int) error {
	if sampleRate <= 0 || sampleRate > MaxSampleRate {
		return fmt.Errorf("%w: %d must be between 1 and %d Hz", ErrInvalidSampleRate, sampleRate, MaxSampleRate)
	}

	return nil
}

// SampleCount returns how many samples durationMs spans. It is 0 for
// non-positive durations and for sample rates outside (0, MaxSampleRate].
// Durations above MaxSegmentMs count as MaxSegmentMs.
func SampleCount(sampleRate beep.SampleRate, durationMs int) int {
	if durationMs <= 0 || sampleRate <= 0 || sampleRate > MaxSampleRate {
		return 0
	}

	durationMs = min(durationMs, MaxSegmentMs)

	return int(int64(sampleRate) * int64(durationMs) / msPerSecond)
}

// Tone returns a sine tone at frequencyHz, attenuated by gainDb relative to full scale.
func Tone(sampleRate beep.SampleRate, frequencyHz, durationMs int, gainDb float64) *Waveform {
	count := SampleCount(sampleRate, durationMs)
	samples := make([]float64, count)
	amplitude := math.Pow(10, gainDb/20)
	omega := 2 * math.Pi * float64(frequencyHz) / float64(sampleRate)

	for i := range samples {
		samples[i] = amplitude * math.Sin(omega*float64(i))
	}

	return &Waveform{SampleRate: sampleRate, Samples: samples}
}

// Silence returns durationMs of zero samples.
func Silence(sampleRate beep.SampleRate, durationMs int) *Waveform {
	return &Waveform{SampleRate: sampleRate, Samples: make([]float64, SampleCount(sampleRate, durationMs))}
}

// Append concatenates other onto w. Both must share a sample rate.
func (w *Waveform) Append(other *Waveform) {
	w.Samples = append(w.Samples, other.Samples...)
}

// TrimEnd drops the last n samples.
func (w *Waveform) TrimEnd(n int) {
	if n <= 0 {
		return
	}

	if n > len(w.Samples) {
		n = len(w.Samples)
	}

	w.Samples = w.Samples[:len(w.Samples)-n]
}

// Len returns the number of samples.
func (w *Waveform) Len() int {
	return len(w.Samples)
}

// Duration returns the playing time of the waveform.
func (w *Waveform) Duration() time.Duration {
	return w.SampleRate.D(len(w.Samples))
}

// Streamer returns a seekable beep stream over the waveform, duplicating the
// mono signal into both channels.
func (w *Waveform) Streamer() beep.StreamSeeker {
	return &waveformStreamer{samples: w.Samples, position: 0}
}

type waveformStreamer struct {
	samples  []float64
	position int
}

func (s *waveformStreamer) Stream(samples [][2]float64) (int, bool) {
	if s.position >= len(s.samples) {
		return 0, false
	}

	n := 0
	for n < len(samples) && s.position < len(s.samples) {
		value := s.samples[s.position]
		samples[n][0] = value
		samples[n][1] = value
		n++
		s.position++
	}

	return n, true
}

func (s *waveformStreamer) Err() error {
	return nil
}

func (s *waveformStreamer) Len() int {
	return len(s.samples)
}

func (s *waveformStreamer) Position() int {
	return s.position
}

func (s *waveformStreamer) Seek(p int) error {
	if p < 0 || p > len(s.samples) {
		return fmt.Errorf("seek position %d out of range [0, %d]", p, len(s.samples))
	}

	s.position = p

	return nil
}
