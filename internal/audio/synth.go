package audio

import (
	"errors"
	"fmt"
	"strings"

	"github.com/book-expert/morse-service/internal/core"
	"github.com/book-expert/morse-service/internal/morse"
	"github.com/gopxl/beep/v2"
)

// ErrWaveformTooLong is returned when text and settings would exceed MaxDuration.
var ErrWaveformTooLong = errors.New("waveform too long")

// Synthesizer renders text as Morse audio at a fixed sample rate.
type Synthesizer struct {
	sampleRate beep.SampleRate
	maxSamples int
}

// NewSynthesizer creates a Synthesizer for the given sample rate.
func NewSynthesizer(sampleRate int) (*Synthesizer, error) {
	err := ValidateSampleRate(sampleRate)
	if err != nil {
		return nil, err
	}

	rate := beep.SampleRate(sampleRate)

	return &Synthesizer{sampleRate: rate, maxSamples: rate.N(MaxDuration)}, nil
}

// sampleLength returns the number of samples Synthesize produces for text and
// cfg. Counting stops once the total exceeds limit.
func (s *Synthesizer) sampleLength(text string, cfg core.UserConfig, limit int) int {
	dot := SampleCount(s.sampleRate, cfg.DotDurationMs)
	dash := SampleCount(s.sampleRate, cfg.DashDurationMs)
	wordGap := SampleCount(s.sampleRate, cfg.WordGapMs)

	total := 0

	for _, char := range strings.ToUpper(text) {
		if total > limit {
			return total
		}

		if char == morse.WordSeparator {
			total += wordGap

			continue
		}

		seq, ok := morse.Lookup(char)
		if !ok {
			continue
		}

		for _, symbol := range seq {
			if symbol == morse.Dash {
				total += dash
			} else {
				total += dot
			}

			total += dot
		}

		total += dash - dot
	}

	return total
}

// Synthesize builds one waveform for text using cfg's timing, pitch and volume.
//
// Each symbol is followed by a dot-length gap, also after a dash. At the end of
// a character that trailing gap is cut and replaced by a dash-length gap. A
// space emits a word gap; characters outside the table emit nothing.
func (s *Synthesizer) Synthesize(text string, cfg core.UserConfig) (*Waveform, error) {
	length := s.sampleLength(text, cfg, s.maxSamples)
	if length > s.maxSamples {
		return nil, fmt.Errorf("%w: exceeds %s", ErrWaveformTooLong, MaxDuration)
	}

	dot := Tone(s.sampleRate, cfg.FrequencyHz, cfg.DotDurationMs, cfg.VolumeDb)
	dash := Tone(s.sampleRate, cfg.FrequencyHz, cfg.DashDurationMs, cfg.VolumeDb)
	intraCharGap := Silence(s.sampleRate, cfg.DotDurationMs)
	interCharGap := Silence(s.sampleRate, cfg.DashDurationMs)
	wordGap := Silence(s.sampleRate, cfg.WordGapMs)

	out := NewWaveform(s.sampleRate)
	out.Samples = make([]float64, 0, length)

	for _, char := range strings.ToUpper(text) {
		if char == morse.WordSeparator {
			out.Append(wordGap)

			continue
		}

		seq, ok := morse.Lookup(char)
		if !ok {
			continue
		}

		for _, symbol := range seq {
			if symbol == morse.Dash {
				out.Append(dash)
			} else {
				out.Append(dot)
			}

			out.Append(intraCharGap)
		}

		out.TrimEnd(intraCharGap.Len())
		out.Append(interCharGap)
	}

	return out, nil
}
